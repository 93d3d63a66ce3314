package registry

import (
	"github.com/dmitrymomot/dimreg/core/constraint"
)

// Re-exported so callers of this package can classify errors without
// importing constraint.
var (
	ErrNilConstraint    = constraint.ErrNilConstraint
	ErrNotFound         = constraint.ErrNotFound
	ErrUnknownDataset   = constraint.ErrUnknownDataset
	ErrUnknownDimension = constraint.ErrUnknownDimension
	ErrUnknownCode      = constraint.ErrUnknownCode
)
