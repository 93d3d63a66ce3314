package validator

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ViolationKind classifies a violation.
type ViolationKind string

const (
	// UnknownDimension means the dataset does not constrain the dimension.
	UnknownDimension ViolationKind = "unknown_dimension"
	// InvalidCode means the code is not permitted for the dimension.
	InvalidCode ViolationKind = "invalid_code"
	// MissingDimension means a constrained dimension is absent from the record.
	// Reported only with RequireAllDimensions.
	MissingDimension ViolationKind = "missing_dimension"
	// DuplicateDimension means the record names a dimension more than once.
	DuplicateDimension ViolationKind = "duplicate_dimension"
)

// Violation is one problem found in a record. Code is empty for MissingDimension.
type Violation struct {
	Dimension string        `json:"dimension"`
	Code      string        `json:"code"`
	Kind      ViolationKind `json:"kind"`
}

// MarshalJSON omits code only for MissingDimension, so an empty code given
// in the record stays distinguishable from no code at all.
func (v Violation) MarshalJSON() ([]byte, error) {
	type plain Violation
	if v.Kind != MissingDimension {
		return json.Marshal(plain(v))
	}
	return json.Marshal(struct {
		Dimension string        `json:"dimension"`
		Kind      ViolationKind `json:"kind"`
	}{v.Dimension, v.Kind})
}

// Message renders a human readable description.
func (v Violation) Message() string {
	switch v.Kind {
	case UnknownDimension:
		return fmt.Sprintf("dimension %s is not constrained by this dataset", v.Dimension)
	case InvalidCode:
		return fmt.Sprintf("code %q is not allowed for dimension %s", v.Code, v.Dimension)
	case MissingDimension:
		return fmt.Sprintf("dimension %s is required", v.Dimension)
	case DuplicateDimension:
		return fmt.Sprintf("dimension %s appears more than once", v.Dimension)
	default:
		return fmt.Sprintf("%s: %s=%s", v.Kind, v.Dimension, v.Code)
	}
}

// Result is the outcome of validating one record.
type Result struct {
	Valid      bool        `json:"valid"`
	DatasetID  string      `json:"dataset_id"`
	Revision   uint64      `json:"revision"`
	Violations []Violation `json:"violations"`
}

// Err returns nil for valid results and a *ViolationsError otherwise, for
// callers that prefer to treat an invalid record as an error.
func (r Result) Err() error {
	if r.Valid {
		return nil
	}
	return &ViolationsError{DatasetID: r.DatasetID, Violations: r.Violations}
}

// ViolationsError wraps the violations of an invalid record.
type ViolationsError struct {
	DatasetID  string
	Violations []Violation
}

func (e *ViolationsError) Error() string {
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.Message()
	}
	return fmt.Sprintf("record invalid for dataset %s: %s", e.DatasetID, strings.Join(msgs, "; "))
}

func (e *ViolationsError) Unwrap() error { return ErrInvalidRecord }

// Has reports whether any violation has the given kind.
func (e *ViolationsError) Has(kind ViolationKind) bool {
	for _, v := range e.Violations {
		if v.Kind == kind {
			return true
		}
	}
	return false
}
