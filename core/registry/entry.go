package registry

import (
	"time"

	"github.com/dmitrymomot/dimreg/core/constraint"
)

// Entry is one published dataset: the constraint and its membership index.
// Entries are built before they are swapped in and never change afterwards,
// so a reader holding an Entry sees one consistent constraint version.
type Entry struct {
	constraint  *constraint.DatasetConstraint
	members     map[string]map[string]struct{}
	revision    uint64
	publishedAt time.Time
}

func newEntry(c *constraint.DatasetConstraint) *Entry {
	dims := c.Dimensions()
	members := make(map[string]map[string]struct{}, len(dims))
	for _, id := range dims {
		dim, _ := c.Dimension(id)
		codes := dim.Codes()
		set := make(map[string]struct{}, len(codes))
		for _, code := range codes {
			set[code] = struct{}{}
		}
		members[id] = set
	}
	return &Entry{constraint: c, members: members}
}

// Constraint returns the published constraint.
func (e *Entry) Constraint() *constraint.DatasetConstraint { return e.constraint }

// DatasetID returns the dataset id.
func (e *Entry) DatasetID() string { return e.constraint.ID() }

// Revision returns the registry revision at which this entry was published.
func (e *Entry) Revision() uint64 { return e.revision }

// PublishedAt returns when the entry was swapped in.
func (e *Entry) PublishedAt() time.Time { return e.publishedAt }

// HasDimension reports whether the dataset constrains dimensionID.
func (e *Entry) HasDimension(dimensionID string) bool {
	_, ok := e.members[dimensionID]
	return ok
}

// Contains reports whether code is permitted for dimensionID.
func (e *Entry) Contains(dimensionID, code string) bool {
	set, ok := e.members[dimensionID]
	if !ok {
		return false
	}
	_, ok = set[code]
	return ok
}

// Label returns the names of a code, or a typed lookup error telling an
// unknown dimension apart from an unknown code.
func (e *Entry) Label(dimensionID, code string) (constraint.CodeLabel, error) {
	dim, ok := e.constraint.Dimension(dimensionID)
	if !ok {
		return constraint.CodeLabel{}, constraint.UnknownDimension(e.constraint.ID(), dimensionID)
	}
	label, ok := dim.Code(code)
	if !ok {
		return constraint.CodeLabel{}, constraint.UnknownCode(e.constraint.ID(), dimensionID, code)
	}
	return label, nil
}
