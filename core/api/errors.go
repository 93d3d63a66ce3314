package api

import (
	"errors"
	"net/http"

	"github.com/dmitrymomot/dimreg/core/constraint"
)

// HTTPError is the JSON body of every error response.
type HTTPError struct {
	Status  int            `json:"-"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func (e HTTPError) Error() string { return e.Message }

// StatusCode returns the HTTP status code for the error.
func (e HTTPError) StatusCode() int { return e.Status }

// WithMessage returns a copy of the error with a custom message.
func (e HTTPError) WithMessage(message string) HTTPError {
	e.Message = message
	return e
}

// WithDetails returns a copy of the error with additional details.
func (e HTTPError) WithDetails(details map[string]any) HTTPError {
	e.Details = details
	return e
}

// WithError returns a copy of the error carrying err as its cause.
func (e HTTPError) WithError(err error) HTTPError {
	details := make(map[string]any, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details["cause"] = err.Error()
	e.Details = details
	return e
}

var (
	ErrBadRequest = HTTPError{
		Status:  http.StatusBadRequest,
		Code:    "bad_request",
		Message: http.StatusText(http.StatusBadRequest),
	}

	ErrUnknownDataset = HTTPError{
		Status:  http.StatusNotFound,
		Code:    "unknown_dataset",
		Message: "dataset is not published",
	}

	ErrUnknownDimension = HTTPError{
		Status:  http.StatusNotFound,
		Code:    "unknown_dimension",
		Message: "dimension is not constrained by this dataset",
	}

	ErrUnknownCode = HTTPError{
		Status:  http.StatusNotFound,
		Code:    "unknown_code",
		Message: "code is not allowed for this dimension",
	}

	ErrServiceUnavailable = HTTPError{
		Status:  http.StatusServiceUnavailable,
		Code:    "service_unavailable",
		Message: http.StatusText(http.StatusServiceUnavailable),
	}

	ErrInternalServerError = HTTPError{
		Status:  http.StatusInternalServerError,
		Code:    "internal_server_error",
		Message: http.StatusText(http.StatusInternalServerError),
	}
)

// toHTTPError maps domain errors onto their HTTP form. Lookup errors keep
// the ids they carry as details.
func toHTTPError(err error) HTTPError {
	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}

	var base HTTPError
	switch {
	case errors.Is(err, constraint.ErrUnknownDataset), errors.Is(err, constraint.ErrNotFound):
		base = ErrUnknownDataset
	case errors.Is(err, constraint.ErrUnknownDimension):
		base = ErrUnknownDimension
	case errors.Is(err, constraint.ErrUnknownCode):
		base = ErrUnknownCode
	default:
		return ErrInternalServerError
	}

	var lookupErr *constraint.LookupError
	if errors.As(err, &lookupErr) {
		details := map[string]any{"dataset_id": lookupErr.DatasetID}
		if lookupErr.DimensionID != "" {
			details["dimension"] = lookupErr.DimensionID
		}
		if lookupErr.Code != "" {
			details["code"] = lookupErr.Code
		}
		base = base.WithDetails(details)
	}
	return base.WithMessage(err.Error())
}
