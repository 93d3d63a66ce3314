package constraint

import (
	"maps"
	"slices"
	"time"
)

// StructureRef identifies the data structure definition a constraint set conforms to.
// It is an opaque version token: two refs are the same schema only if all fields match.
type StructureRef struct {
	AgencyID string `json:"agency_id" yaml:"agency_id"`
	ID       string `json:"id" yaml:"id"`
	Version  string `json:"version" yaml:"version"`
}

// String renders the reference in SDMX short form, e.g. "IT1:DCSC_FATTURATOSERV(1.0)".
func (s StructureRef) String() string {
	return s.AgencyID + ":" + s.ID + "(" + s.Version + ")"
}

// IsZero reports whether no field is set.
func (s StructureRef) IsZero() bool {
	return s == StructureRef{}
}

// CodeLabel is one permitted code with its localized names.
type CodeLabel struct {
	code  string
	names Labels
}

// Code returns the code identifier.
func (c CodeLabel) Code() string { return c.code }

// Names returns the localized names of the code.
func (c CodeLabel) Names() Labels { return c.names }

// DimensionConstraint is the closed set of codes permitted for one dimension.
type DimensionConstraint struct {
	id    string
	codes map[string]CodeLabel
	order []string
}

// ID returns the dimension identifier.
func (d *DimensionConstraint) ID() string { return d.id }

// Has reports whether code is permitted.
func (d *DimensionConstraint) Has(code string) bool {
	_, ok := d.codes[code]
	return ok
}

// Code returns the label entry for a permitted code.
func (d *DimensionConstraint) Code(code string) (CodeLabel, bool) {
	c, ok := d.codes[code]
	return c, ok
}

// Codes returns the permitted codes in document order.
func (d *DimensionConstraint) Codes() []string { return slices.Clone(d.order) }

// Len returns the number of permitted codes.
func (d *DimensionConstraint) Len() int { return len(d.order) }

// DatasetConstraint holds the dimension constraints of one dataset.
// It is immutable once built by New.
type DatasetConstraint struct {
	id          string
	names       Labels
	structure   StructureRef
	generatedAt time.Time
	checksum    string
	dimensions  map[string]*DimensionConstraint
	order       []string
}

// ID returns the dataset identifier.
func (c *DatasetConstraint) ID() string { return c.id }

// Names returns the localized dataset names.
func (c *DatasetConstraint) Names() Labels { return c.names }

// Structure returns the structure reference the constraint set conforms to.
func (c *DatasetConstraint) Structure() StructureRef { return c.structure }

// GeneratedAt returns the document generation time; zero when unknown.
func (c *DatasetConstraint) GeneratedAt() time.Time { return c.generatedAt }

// Checksum returns the digest of the source document, empty when the
// constraint was not built from a document.
func (c *DatasetConstraint) Checksum() string { return c.checksum }

// Dimension returns the constraint for a dimension id.
func (c *DatasetConstraint) Dimension(id string) (*DimensionConstraint, bool) {
	d, ok := c.dimensions[id]
	return d, ok
}

// Dimensions returns the dimension ids in document order.
func (c *DatasetConstraint) Dimensions() []string { return slices.Clone(c.order) }

// Len returns the number of constrained dimensions.
func (c *DatasetConstraint) Len() int { return len(c.order) }

// Age returns how long ago the document was generated. Zero when GeneratedAt is unknown.
func (c *DatasetConstraint) Age(now time.Time) time.Duration {
	if c.generatedAt.IsZero() {
		return 0
	}
	return now.Sub(c.generatedAt)
}

// IsStale reports whether the document is older than maxAge.
// A constraint without a generation time, or a non-positive maxAge, is never stale.
func (c *DatasetConstraint) IsStale(now time.Time, maxAge time.Duration) bool {
	if maxAge <= 0 || c.generatedAt.IsZero() {
		return false
	}
	return c.Age(now) > maxAge
}

// Equal reports whether two constraints describe the same dataset, structure,
// generation time and code sets with the same names.
func (c *DatasetConstraint) Equal(other *DatasetConstraint) bool {
	if c == nil || other == nil {
		return c == other
	}
	if c.id != other.id || c.structure != other.structure || !c.generatedAt.Equal(other.generatedAt) ||
		!c.names.Equal(other.names) || !slices.Equal(c.order, other.order) {
		return false
	}
	for id, dim := range c.dimensions {
		od, ok := other.dimensions[id]
		if !ok || !slices.Equal(dim.order, od.order) {
			return false
		}
		if !maps.EqualFunc(dim.codes, od.codes, func(a, b CodeLabel) bool {
			return a.code == b.code && a.names.Equal(b.names)
		}) {
			return false
		}
	}
	return true
}
