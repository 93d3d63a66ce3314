package registry

import (
	"github.com/dmitrymomot/dimreg/core/constraint"
)

// ChangeKind describes what a Publish call did.
type ChangeKind string

const (
	// Inserted means the dataset was not published before.
	Inserted ChangeKind = "inserted"
	// Replaced means a different constraint version replaced the entry.
	Replaced ChangeKind = "replaced"
	// Unchanged means the same constraint was already published; the entry was kept.
	Unchanged ChangeKind = "unchanged"
	// Evicted is reported to observers when a dataset is removed.
	Evicted ChangeKind = "evicted"
)

// Change reports the effect of a Publish or Evict call.
type Change struct {
	DatasetID string
	Kind      ChangeKind
	// Previous is zero for inserts.
	Previous constraint.StructureRef
	// Current is zero for evictions.
	Current          constraint.StructureRef
	StructureChanged bool
	Revision         uint64
}

// Observer receives every change after it is visible to readers.
// Implementations must not block; they run on the publishing goroutine.
//
// Notifications are delivered outside the registry lock, so concurrent
// writers to the same dataset may notify out of order. Revision is strictly
// increasing across effective changes; an observer that needs ordered
// delivery drops a change whose Revision is not above the last one it saw
// for that dataset.
type Observer interface {
	RegistryChanged(Change)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Change)

// RegistryChanged calls f(c).
func (f ObserverFunc) RegistryChanged(c Change) { f(c) }
