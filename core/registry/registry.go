package registry

import (
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrymomot/dimreg/core/constraint"
	"github.com/dmitrymomot/dimreg/core/logger"
)

// Registry holds the current constraint of every published dataset.
//
// Writers build a complete Entry outside the lock and swap the map slot under
// a short write lock. Readers take the read lock only to load the pointer, then
// work on the immutable Entry without holding it.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*Entry

	revision atomic.Uint64

	logger    *slog.Logger
	observers []Observer
	now       func() time.Time

	inserted  atomic.Int64
	replaced  atomic.Int64
	unchanged atomic.Int64
	evicted   atomic.Int64
	lookups   atomic.Int64
	misses    atomic.Int64
}

// Stats provides counters for monitoring.
type Stats struct {
	Datasets  int    // Currently published datasets
	Revision  uint64 // Latest revision handed out
	Inserted  int64  // Publish calls that added a dataset
	Replaced  int64  // Publish calls that replaced a dataset
	Unchanged int64  // Publish calls that found the same constraint
	Evicted   int64  // Datasets removed by Evict
	Lookups   int64  // Lookup and Get calls
	Misses    int64  // Lookup and Get calls for unknown datasets
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger for publish and evict events.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithObserver registers an observer notified after every change.
func WithObserver(o Observer) Option {
	return func(r *Registry) {
		if o != nil {
			r.observers = append(r.observers, o)
		}
	}
}

// WithClock overrides the time source used for PublishedAt.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		entries: make(map[string]*Entry),
		logger:  logger.Discard(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With(logger.Component("registry"))
	return r
}

// Publish makes c the current constraint for its dataset, replacing any
// previous one in a single step. Publishing a constraint equal to the current
// one keeps the existing entry and reports Unchanged.
func (r *Registry) Publish(c *constraint.DatasetConstraint) (Change, error) {
	if c == nil {
		return Change{}, ErrNilConstraint
	}

	next := newEntry(c)
	id := c.ID()

	r.mu.Lock()
	prev := r.entries[id]
	if prev != nil && sameConstraint(prev.constraint, c) {
		r.mu.Unlock()
		r.unchanged.Add(1)
		ch := Change{
			DatasetID: id,
			Kind:      Unchanged,
			Previous:  prev.constraint.Structure(),
			Current:   prev.constraint.Structure(),
			Revision:  prev.revision,
		}
		r.logger.Debug("constraint unchanged", logger.Dataset(id), logger.Revision(ch.Revision))
		r.notify(ch)
		return ch, nil
	}
	next.revision = r.revision.Add(1)
	next.publishedAt = r.now()
	r.entries[id] = next
	r.mu.Unlock()

	ch := Change{
		DatasetID: id,
		Kind:      Inserted,
		Current:   c.Structure(),
		Revision:  next.revision,
	}
	if prev != nil {
		ch.Kind = Replaced
		ch.Previous = prev.constraint.Structure()
		ch.StructureChanged = ch.Previous != ch.Current
		r.replaced.Add(1)
	} else {
		r.inserted.Add(1)
	}

	if ch.StructureChanged {
		r.logger.Warn("structure version changed",
			logger.Dataset(id),
			slog.String("previous", ch.Previous.String()),
			logger.Structure(ch.Current),
			logger.Revision(ch.Revision),
		)
	} else {
		r.logger.Info("constraint published",
			logger.Dataset(id),
			slog.String("kind", string(ch.Kind)),
			logger.Structure(ch.Current),
			logger.Count("dimensions", c.Len()),
			logger.Revision(ch.Revision),
		)
	}
	r.notify(ch)
	return ch, nil
}

// sameConstraint compares by checksum when both sides carry one and falls
// back to a structural comparison for programmatically built constraints.
func sameConstraint(a, b *constraint.DatasetConstraint) bool {
	if a == b {
		return true
	}
	if a.Checksum() != "" && b.Checksum() != "" {
		return a.Checksum() == b.Checksum()
	}
	return a.Equal(b)
}

// Lookup returns the current entry of a dataset. Unknown datasets yield an
// error matching ErrUnknownDataset.
func (r *Registry) Lookup(datasetID string) (*Entry, error) {
	r.lookups.Add(1)
	r.mu.RLock()
	e, ok := r.entries[datasetID]
	r.mu.RUnlock()
	if !ok {
		r.misses.Add(1)
		return nil, constraint.UnknownDataset(datasetID)
	}
	return e, nil
}

// Get returns the current constraint of a dataset. Unknown datasets yield an
// error matching ErrNotFound.
func (r *Registry) Get(datasetID string) (*constraint.DatasetConstraint, error) {
	e, err := r.Lookup(datasetID)
	if err != nil {
		return nil, constraint.NotFound(datasetID)
	}
	return e.constraint, nil
}

// List returns the published dataset ids in lexicographic order. The slice is
// a snapshot; later publishes do not change it.
func (r *Registry) List() []string {
	r.mu.RLock()
	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	r.mu.RUnlock()
	slices.Sort(ids)
	return ids
}

// Len returns the number of published datasets.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Evict removes a dataset. It reports whether the dataset was published.
func (r *Registry) Evict(datasetID string) bool {
	r.mu.Lock()
	prev, ok := r.entries[datasetID]
	if ok {
		delete(r.entries, datasetID)
	}
	r.mu.Unlock()
	if !ok {
		return false
	}

	r.evicted.Add(1)
	ch := Change{
		DatasetID: datasetID,
		Kind:      Evicted,
		Previous:  prev.constraint.Structure(),
		Revision:  r.revision.Add(1),
	}
	r.logger.Info("constraint evicted", logger.Dataset(datasetID), logger.Revision(ch.Revision))
	r.notify(ch)
	return true
}

// Stale returns, sorted, the datasets whose documents were generated more
// than maxAge before now. Constraints without a generation time are never stale.
func (r *Registry) Stale(now time.Time, maxAge time.Duration) []string {
	r.mu.RLock()
	var ids []string
	for id, e := range r.entries {
		if e.constraint.IsStale(now, maxAge) {
			ids = append(ids, id)
		}
	}
	r.mu.RUnlock()
	slices.Sort(ids)
	return ids
}

// Stats returns a snapshot of the registry counters.
func (r *Registry) Stats() Stats {
	return Stats{
		Datasets:  r.Len(),
		Revision:  r.revision.Load(),
		Inserted:  r.inserted.Load(),
		Replaced:  r.replaced.Load(),
		Unchanged: r.unchanged.Load(),
		Evicted:   r.evicted.Load(),
		Lookups:   r.lookups.Load(),
		Misses:    r.misses.Load(),
	}
}

func (r *Registry) notify(ch Change) {
	for _, o := range r.observers {
		o.RegistryChanged(ch)
	}
}
