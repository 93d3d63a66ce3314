package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/dimreg/core/constraint"
	"github.com/dmitrymomot/dimreg/core/loader"
	"github.com/dmitrymomot/dimreg/core/logger"
	"github.com/dmitrymomot/dimreg/core/registry"
)

// Publisher is the registry side of ingestion. *registry.Registry implements it.
type Publisher interface {
	Publish(c *constraint.DatasetConstraint) (registry.Change, error)
	Evict(datasetID string) bool
}

// Observer is told about every finished cycle.
type Observer interface {
	CycleCompleted(Report)
}

// Failure is one document that could not be ingested.
type Failure struct {
	Document  string
	DatasetID string // empty when the document did not name one
	Err       error
}

// Report summarizes one sync cycle.
type Report struct {
	CycleID   string
	StartedAt time.Time
	Duration  time.Duration
	Listed    int
	Published int // inserted or replaced
	Unchanged int // loaded but equal to the published constraint
	Skipped   int // same bytes as last cycle, not parsed
	Evicted   []string
	Failures  []Failure
}

// OK reports whether every listed document was ingested.
func (r Report) OK() bool { return len(r.Failures) == 0 }

type document struct {
	checksum  string
	datasetID string
	seq       uint64 // value of Ingester.seq when recorded
}

// Ingester moves documents from a Source into a registry. A bad document is
// recorded and skipped; it never blocks the rest of the cycle or touches the
// dataset's currently published constraint.
type Ingester struct {
	source    Source
	publisher Publisher

	logger      *slog.Logger
	concurrency int
	warnAfter   time.Duration
	prune       bool
	loaderOpts  []loader.Option
	expectedID  func(name string) (string, bool)
	observers   []Observer

	mu   sync.Mutex
	docs map[string]document
	seq  uint64

	// serializes cycles; Ingest and Forget may run alongside
	cycleMu sync.Mutex
}

// New creates an Ingester.
func New(source Source, publisher Publisher, opts ...Option) *Ingester {
	in := &Ingester{
		source:      source,
		publisher:   publisher,
		logger:      logger.Discard(),
		concurrency: defaultConcurrency,
		warnAfter:   defaultWarnAfter,
		docs:        make(map[string]document),
	}
	for _, opt := range opts {
		opt(in)
	}
	in.logger = in.logger.With(logger.Component("ingest"))
	return in
}

type outcome struct {
	name     string
	checksum string
	change   registry.Change
	skipped  bool
	replaced string // dataset the document described before, evicted
	err      error
}

// Sync runs one cycle: list, fetch and load in parallel, publish. It returns
// an error only when the source cannot be listed or ctx ends; per-document
// problems are in Report.Failures.
func (in *Ingester) Sync(ctx context.Context) (Report, error) {
	in.cycleMu.Lock()
	defer in.cycleMu.Unlock()

	rep := Report{CycleID: uuid.NewString(), StartedAt: time.Now()}
	log := in.logger.With(logger.CycleID(rep.CycleID))

	// Documents recorded after this point are newer than the listing and
	// must survive pruning.
	in.mu.Lock()
	listedAt := in.seq
	in.mu.Unlock()

	names, err := in.source.List(ctx)
	if err != nil {
		rep.Duration = time.Since(rep.StartedAt)
		log.Error("list documents failed", logger.Error(err))
		return rep, fmt.Errorf("%w: %w", ErrListFailed, err)
	}
	slices.Sort(names)
	names = slices.Compact(names)
	rep.Listed = len(names)
	log.Debug("sync cycle started", logger.Count("documents", len(names)))

	outcomes := make([]outcome, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(in.concurrency)
	for i, name := range names {
		g.Go(func() error {
			outcomes[i] = in.ingest(gctx, name, true)
			return nil
		})
	}
	_ = g.Wait()

	for _, o := range outcomes {
		if o.replaced != "" {
			rep.Evicted = append(rep.Evicted, o.replaced)
		}
		switch {
		case o.err != nil:
			f := Failure{Document: o.name, Err: o.err}
			var m *constraint.MalformedError
			if errors.As(o.err, &m) {
				f.DatasetID = m.DatasetID
			}
			rep.Failures = append(rep.Failures, f)
			log.Warn("document rejected",
				logger.Source(o.name),
				logger.Dataset(f.DatasetID),
				logger.Error(o.err),
			)
		case o.skipped:
			rep.Skipped++
		case o.change.Kind == registry.Unchanged:
			rep.Unchanged++
		default:
			rep.Published++
		}
	}

	if in.prune && ctx.Err() == nil {
		rep.Evicted = append(rep.Evicted, in.pruneMissing(names, listedAt)...)
	}
	slices.Sort(rep.Evicted)

	rep.Duration = time.Since(rep.StartedAt)
	attrs := []any{
		logger.Count("listed", rep.Listed),
		logger.Count("published", rep.Published),
		logger.Count("unchanged", rep.Unchanged),
		logger.Count("skipped", rep.Skipped),
		logger.Count("failed", len(rep.Failures)),
		logger.Count("evicted", len(rep.Evicted)),
		logger.Duration(rep.Duration),
	}
	if in.warnAfter > 0 && rep.Duration > in.warnAfter {
		log.Warn("sync cycle exceeded time budget", append(attrs, slog.Duration("warn_after", in.warnAfter))...)
	} else {
		log.Info("sync cycle completed", attrs...)
	}

	for _, o := range in.observers {
		o.CycleCompleted(rep)
	}

	if err := ctx.Err(); err != nil {
		return rep, err
	}
	return rep, nil
}

// Ingest fetches, loads and publishes a single document.
func (in *Ingester) Ingest(ctx context.Context, name string) (registry.Change, error) {
	o := in.ingest(ctx, name, false)
	if o.err != nil {
		in.logger.Warn("document rejected", logger.Source(name), logger.Error(o.err))
		return registry.Change{}, o.err
	}
	if o.replaced != "" {
		in.logger.Info("document now describes another dataset",
			logger.Source(name),
			logger.Dataset(o.change.DatasetID),
			slog.String("evicted", o.replaced),
		)
	}
	return o.change, nil
}

// Forget drops a removed document and evicts the dataset it published,
// unless another known document still provides that dataset. It returns the
// dataset id and whether it was evicted.
func (in *Ingester) Forget(name string) (string, bool) {
	in.mu.Lock()
	defer in.mu.Unlock()

	doc, ok := in.docs[name]
	if !ok {
		return "", false
	}
	delete(in.docs, name)
	if in.providedLocked(doc.datasetID) {
		return doc.datasetID, false
	}
	evicted := in.publisher.Evict(doc.datasetID)
	if evicted {
		in.logger.Info("document removed", logger.Source(name), logger.Dataset(doc.datasetID))
	}
	return doc.datasetID, evicted
}

// Start runs Sync immediately and then every interval until ctx is done.
// Cycle errors are logged; Start returns nil when ctx ends.
func (in *Ingester) Start(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("ingest: interval must be positive, got %s", interval)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := in.Sync(ctx); err != nil && ctx.Err() == nil {
			in.logger.Error("sync cycle failed", logger.Error(err))
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Run returns Start as a function for errgroup.Go.
func (in *Ingester) Run(ctx context.Context, interval time.Duration) func() error {
	return func() error {
		return in.Start(ctx, interval)
	}
}

func (in *Ingester) ingest(ctx context.Context, name string, skipSame bool) outcome {
	o := outcome{name: name}

	raw, err := in.source.Fetch(ctx, name)
	if err != nil {
		o.err = fmt.Errorf("%w: %s: %w", ErrFetchFailed, name, err)
		return o
	}
	sum := sha256.Sum256(raw)
	o.checksum = hex.EncodeToString(sum[:])

	if skipSame {
		in.mu.Lock()
		prev, ok := in.docs[name]
		in.mu.Unlock()
		if ok && prev.checksum == o.checksum {
			o.skipped = true
			return o
		}
	}

	opts := in.loaderOpts
	if in.expectedID != nil {
		if id, ok := in.expectedID(name); ok {
			opts = append(slices.Clip(opts), loader.WithExpectedDatasetID(id))
		}
	}
	c, err := loader.Load(raw, opts...)
	if err != nil {
		o.err = fmt.Errorf("%s: %w", name, err)
		return o
	}

	// Publishing, bookkeeping and eviction share one critical section so a
	// concurrent document cannot claim a dataset between the check and Evict.
	in.mu.Lock()
	defer in.mu.Unlock()

	o.change, err = in.publisher.Publish(c)
	if err != nil {
		o.err = fmt.Errorf("%w: %s: %w", ErrPublishFailed, name, err)
		return o
	}

	prev, had := in.docs[name]
	in.seq++
	in.docs[name] = document{checksum: o.checksum, datasetID: c.ID(), seq: in.seq}
	if had && prev.datasetID != c.ID() && !in.providedLocked(prev.datasetID) {
		if in.publisher.Evict(prev.datasetID) {
			o.replaced = prev.datasetID
		}
	}
	return o
}

// pruneMissing forgets documents recorded at or before listedAt that the
// listing no longer contains, and evicts datasets left without a document.
func (in *Ingester) pruneMissing(listed []string, listedAt uint64) []string {
	in.mu.Lock()
	defer in.mu.Unlock()

	var gone []string
	for name, doc := range in.docs {
		if doc.seq > listedAt {
			continue
		}
		if _, found := slices.BinarySearch(listed, name); !found {
			delete(in.docs, name)
			gone = append(gone, doc.datasetID)
		}
	}
	slices.Sort(gone)
	gone = slices.Compact(gone)

	var evicted []string
	for _, id := range gone {
		if !in.providedLocked(id) && in.publisher.Evict(id) {
			evicted = append(evicted, id)
		}
	}
	return evicted
}

func (in *Ingester) providedLocked(datasetID string) bool {
	for _, d := range in.docs {
		if d.datasetID == datasetID {
			return true
		}
	}
	return false
}
