package validator

import (
	"errors"

	"github.com/dmitrymomot/dimreg/core/constraint"
)

var (
	// ErrInvalidRecord is matched by the error returned from Result.Err.
	ErrInvalidRecord = errors.New("invalid record")
	// ErrUnknownDataset is returned when the dataset is not published.
	ErrUnknownDataset = constraint.ErrUnknownDataset
)
