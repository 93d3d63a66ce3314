package constraint

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors. Use errors.Is to classify failures returned by the loader,
// registry, validator and resolver.
var (
	// Ingestion-time; not retryable without fixing the upstream document.
	ErrMalformedConstraint = errors.New("malformed constraint")
	ErrNilConstraint       = errors.New("constraint is nil")

	// Query-time; caller-correctable.
	ErrNotFound         = errors.New("dataset not found")
	ErrUnknownDataset   = errors.New("unknown dataset")
	ErrUnknownDimension = errors.New("unknown dimension")
	ErrUnknownCode      = errors.New("unknown code")
)

// MalformedError describes why a constraint document or definition was rejected.
// Path points at the offending field using the document's dotted notation,
// e.g. "dimensions.ADJUSTMENT.values.Y.name".
type MalformedError struct {
	DatasetID string
	Path      string
	Reason    string
}

// Malformed is a shorthand constructor for *MalformedError.
func Malformed(datasetID, path, reason string, args ...any) *MalformedError {
	if len(args) > 0 {
		reason = fmt.Sprintf(reason, args...)
	}
	return &MalformedError{DatasetID: datasetID, Path: path, Reason: reason}
}

func (e *MalformedError) Error() string {
	var b strings.Builder
	b.WriteString(ErrMalformedConstraint.Error())
	if e.DatasetID != "" {
		b.WriteString(" (dataset ")
		b.WriteString(e.DatasetID)
		b.WriteString(")")
	}
	if e.Path != "" {
		b.WriteString(" at ")
		b.WriteString(e.Path)
	}
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	return b.String()
}

func (e *MalformedError) Unwrap() error { return ErrMalformedConstraint }

// LookupError is returned by query-time operations. Kind is one of
// ErrNotFound, ErrUnknownDataset, ErrUnknownDimension or ErrUnknownCode.
type LookupError struct {
	Kind        error
	DatasetID   string
	DimensionID string
	Code        string
}

func (e *LookupError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if e.DatasetID != "" {
		b.WriteString(": dataset=")
		b.WriteString(e.DatasetID)
	}
	if e.DimensionID != "" {
		b.WriteString(" dimension=")
		b.WriteString(e.DimensionID)
	}
	if e.Code != "" {
		b.WriteString(" code=")
		b.WriteString(e.Code)
	}
	return b.String()
}

func (e *LookupError) Unwrap() error { return e.Kind }

// UnknownDataset builds the error returned when a dataset is not published.
func UnknownDataset(datasetID string) error {
	return &LookupError{Kind: ErrUnknownDataset, DatasetID: datasetID}
}

// UnknownDimension builds the error returned for a dimension the dataset does not constrain.
func UnknownDimension(datasetID, dimensionID string) error {
	return &LookupError{Kind: ErrUnknownDimension, DatasetID: datasetID, DimensionID: dimensionID}
}

// UnknownCode builds the error returned for a code outside the dimension's allowed set.
func UnknownCode(datasetID, dimensionID, code string) error {
	return &LookupError{Kind: ErrUnknownCode, DatasetID: datasetID, DimensionID: dimensionID, Code: code}
}

// NotFound builds the registry's not-found error.
func NotFound(datasetID string) error {
	return &LookupError{Kind: ErrNotFound, DatasetID: datasetID}
}
