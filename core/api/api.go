package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/dmitrymomot/dimreg/core/logger"
	"github.com/dmitrymomot/dimreg/core/registry"
	"github.com/dmitrymomot/dimreg/core/resolver"
	"github.com/dmitrymomot/dimreg/core/validator"
)

// DefaultMaxBodySize caps validation request bodies.
const DefaultMaxBodySize int64 = 1 << 20

// Registry is the read side of the constraint registry the API serves.
// *registry.Registry implements it.
type Registry interface {
	Lookup(datasetID string) (*registry.Entry, error)
	List() []string
	Len() int
}

// API exposes the registry, validator and resolver over HTTP.
type API struct {
	registry    Registry
	validator   *validator.Validator
	resolver    *resolver.Resolver
	feed        *ChangeFeed
	metrics     http.Handler
	checks      []func(context.Context) error
	maxBodySize int64
	logger      *slog.Logger
}

// Option configures an API.
type Option func(*API)

// WithLogger sets the logger used for request and error logging.
func WithLogger(l *slog.Logger) Option {
	return func(a *API) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithChangeFeed enables the /v1/events websocket stream.
func WithChangeFeed(f *ChangeFeed) Option {
	return func(a *API) {
		a.feed = f
	}
}

// WithMetrics mounts h at /metrics.
func WithMetrics(h http.Handler) Option {
	return func(a *API) {
		a.metrics = h
	}
}

// WithReadinessChecks adds dependency checks run by /health/ready.
func WithReadinessChecks(fn ...func(context.Context) error) Option {
	return func(a *API) {
		for _, f := range fn {
			if f != nil {
				a.checks = append(a.checks, f)
			}
		}
	}
}

// WithMaxBodySize limits request bodies. Non-positive values are ignored.
func WithMaxBodySize(n int64) Option {
	return func(a *API) {
		if n > 0 {
			a.maxBodySize = n
		}
	}
}

// New creates an API. The validator and resolver must read from reg.
func New(reg Registry, v *validator.Validator, r *resolver.Resolver, opts ...Option) *API {
	a := &API{
		registry:    reg,
		validator:   v,
		resolver:    r,
		maxBodySize: DefaultMaxBodySize,
		logger:      logger.Discard(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.With(logger.Component("api"))
	return a
}

// Handler builds the router.
func (a *API) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(requestID, a.logRequests)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, HTTPError{
			Status:  http.StatusNotFound,
			Code:    "not_found",
			Message: http.StatusText(http.StatusNotFound),
		})
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, HTTPError{
			Status:  http.StatusMethodNotAllowed,
			Code:    "method_not_allowed",
			Message: http.StatusText(http.StatusMethodNotAllowed),
		})
	})

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/datasets", a.handle(a.listDatasets)).Methods(http.MethodGet)
	v1.HandleFunc("/datasets/{id}", a.handle(a.getDataset)).Methods(http.MethodGet)
	v1.HandleFunc("/datasets/{id}/dimensions/{dim}", a.handle(a.getDimension)).Methods(http.MethodGet)
	v1.HandleFunc("/datasets/{id}/dimensions/{dim}/codes/{code}/label", a.handle(a.getLabel)).Methods(http.MethodGet)
	v1.HandleFunc("/datasets/{id}/validate", a.handle(a.validate)).Methods(http.MethodPost)
	if a.feed != nil {
		v1.HandleFunc("/events", a.events).Methods(http.MethodGet)
	}

	r.HandleFunc("/health/live", a.live).Methods(http.MethodGet)
	r.HandleFunc("/health/ready", a.handle(a.ready)).Methods(http.MethodGet)
	if a.metrics != nil {
		r.Handle("/metrics", a.metrics).Methods(http.MethodGet)
	}
	return r
}

type handlerFunc func(w http.ResponseWriter, r *http.Request) error

func (a *API) handle(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h(w, r); err != nil {
			a.writeError(w, r, err)
		}
	}
}

func (a *API) writeError(w http.ResponseWriter, r *http.Request, err error) {
	httpErr := toHTTPError(err)
	if httpErr.Status >= http.StatusInternalServerError {
		id, _ := RequestIDFromContext(r.Context())
		a.logger.ErrorContext(r.Context(), "request failed",
			slog.String("request_id", id),
			logger.Method(r.Method),
			logger.Path(r.URL.Path),
			logger.Error(err),
		)
	}
	writeJSON(w, httpErr.Status, httpErr)
}
