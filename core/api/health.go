package api

import (
	"net/http"

	"github.com/dmitrymomot/dimreg/core/logger"
)

// live reports that the process is serving requests.
func (a *API) live(w http.ResponseWriter, _ *http.Request) {
	writeText(w, http.StatusOK, "ALIVE")
}

// ready runs every dependency check and requires at least one published
// dataset. Returns "READY", or 503 if anything fails.
func (a *API) ready(w http.ResponseWriter, r *http.Request) error {
	for _, check := range a.checks {
		if err := check(r.Context()); err != nil {
			a.logger.ErrorContext(r.Context(), "readiness check failed", logger.Error(err))
			return ErrServiceUnavailable
		}
	}
	if a.registry.Len() == 0 {
		return ErrServiceUnavailable.WithMessage("no dataset published")
	}
	writeText(w, http.StatusOK, "READY")
	return nil
}
