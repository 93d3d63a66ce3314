package validator

import (
	"log/slog"

	"github.com/dmitrymomot/dimreg/core/logger"
	"github.com/dmitrymomot/dimreg/core/registry"
)

// Lookuper resolves a dataset id to its current registry entry.
// *registry.Registry implements it.
type Lookuper interface {
	Lookup(datasetID string) (*registry.Entry, error)
}

// Observer is told about every completed validation.
type Observer interface {
	Validated(Result)
}

// Validator checks records against the constraints in a registry.
// It keeps no state between calls and is safe for concurrent use.
type Validator struct {
	lookup    Lookuper
	logger    *slog.Logger
	observers []Observer
}

// Option configures a Validator.
type Option func(*Validator)

// WithLogger sets the logger used for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(v *Validator) {
		if l != nil {
			v.logger = l
		}
	}
}

// WithObserver registers an observer for validation results.
func WithObserver(o Observer) Option {
	return func(v *Validator) {
		if o != nil {
			v.observers = append(v.observers, o)
		}
	}
}

// CheckOption adjusts a single validation.
type CheckOption func(*check)

type check struct {
	requireAll bool
}

// RequireAllDimensions reports every constrained dimension absent from the
// record as MissingDimension.
func RequireAllDimensions() CheckOption {
	return func(c *check) {
		c.requireAll = true
	}
}

// Strict enables RequireAllDimensions when on is true.
func Strict(on bool) CheckOption {
	return func(c *check) {
		c.requireAll = on
	}
}

// New creates a Validator reading from lookup.
func New(lookup Lookuper, opts ...Option) *Validator {
	v := &Validator{
		lookup: lookup,
		logger: logger.Discard(),
	}
	for _, opt := range opts {
		opt(v)
	}
	v.logger = v.logger.With(logger.Component("validator"))
	return v
}

// Validate checks each (dimension, code) pair of record against the current
// constraint of datasetID. Violations are returned in record order; missing
// dimensions, when requested, follow in the dataset's dimension order.
// The only error is an unknown dataset.
func (v *Validator) Validate(datasetID string, record Record, opts ...CheckOption) (Result, error) {
	e, err := v.lookup.Lookup(datasetID)
	if err != nil {
		return Result{}, err
	}
	res := v.check(e, record, newCheck(opts))
	v.logResult(res)
	v.notify(res)
	return res, nil
}

// ValidateMap validates a map-shaped record. Dimensions are visited in
// lexicographic order.
func (v *Validator) ValidateMap(datasetID string, fields map[string]string, opts ...CheckOption) (Result, error) {
	return v.Validate(datasetID, RecordFromMap(fields), opts...)
}

// ValidateBatch validates many records against one snapshot of the dataset,
// so a concurrent publish cannot split the batch across two versions.
func (v *Validator) ValidateBatch(datasetID string, records []Record, opts ...CheckOption) ([]Result, error) {
	e, err := v.lookup.Lookup(datasetID)
	if err != nil {
		return nil, err
	}
	c := newCheck(opts)
	out := make([]Result, len(records))
	invalid := 0
	for i, r := range records {
		out[i] = v.check(e, r, c)
		if !out[i].Valid {
			invalid++
		}
		v.notify(out[i])
	}
	v.logger.Debug("batch validated",
		logger.Dataset(datasetID),
		logger.Count("records", len(records)),
		logger.Count("invalid", invalid),
	)
	return out, nil
}

func newCheck(opts []CheckOption) check {
	var c check
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

func (v *Validator) check(e *registry.Entry, record Record, c check) Result {
	res := Result{
		DatasetID:  e.DatasetID(),
		Revision:   e.Revision(),
		Violations: []Violation{},
	}

	seen := make(map[string]struct{}, len(record))
	for _, f := range record {
		if _, dup := seen[f.Dimension]; dup {
			res.Violations = append(res.Violations, Violation{Dimension: f.Dimension, Code: f.Code, Kind: DuplicateDimension})
			continue
		}
		seen[f.Dimension] = struct{}{}

		switch {
		case !e.HasDimension(f.Dimension):
			res.Violations = append(res.Violations, Violation{Dimension: f.Dimension, Code: f.Code, Kind: UnknownDimension})
		case !e.Contains(f.Dimension, f.Code):
			res.Violations = append(res.Violations, Violation{Dimension: f.Dimension, Code: f.Code, Kind: InvalidCode})
		}
	}

	if c.requireAll {
		for _, dim := range e.Constraint().Dimensions() {
			if _, ok := seen[dim]; !ok {
				res.Violations = append(res.Violations, Violation{Dimension: dim, Kind: MissingDimension})
			}
		}
	}

	res.Valid = len(res.Violations) == 0
	return res
}

func (v *Validator) logResult(res Result) {
	if res.Valid {
		return
	}
	v.logger.Debug("record rejected",
		logger.Dataset(res.DatasetID),
		logger.Count("violations", len(res.Violations)),
		logger.Revision(res.Revision),
	)
}

func (v *Validator) notify(res Result) {
	for _, o := range v.observers {
		o.Validated(res)
	}
}
