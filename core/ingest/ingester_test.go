package ingest_test

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/dimreg/core/constraint"
	"github.com/dmitrymomot/dimreg/core/ingest"
	"github.com/dmitrymomot/dimreg/core/registry"
)

type memSource struct {
	mu       sync.Mutex
	docs     map[string][]byte
	listErr  error
	fetchErr map[string]error
	fetches  int
}

func newMemSource() *memSource {
	return &memSource{docs: make(map[string][]byte), fetchErr: make(map[string]error)}
}

func (s *memSource) put(name, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[name] = []byte(body)
}

func (s *memSource) remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, name)
}

func (s *memSource) List(context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	return slices.Sorted(maps.Keys(s.docs)), nil
}

func (s *memSource) Fetch(_ context.Context, name string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetches++
	if err := s.fetchErr[name]; err != nil {
		return nil, err
	}
	raw, ok := s.docs[name]
	if !ok {
		return nil, errors.New("no such document")
	}
	return raw, nil
}

// fetchHookSource runs onFirstFetch once, before the first Fetch is served.
// The hook may fetch again itself.
type fetchHookSource struct {
	*memSource
	fired        atomic.Bool
	onFirstFetch func()
}

func (s *fetchHookSource) Fetch(ctx context.Context, name string) ([]byte, error) {
	if s.onFirstFetch != nil && s.fired.CompareAndSwap(false, true) {
		s.onFirstFetch()
	}
	return s.memSource.Fetch(ctx, name)
}

// doc renders a constraint document with one ADJUSTMENT dimension.
func doc(id, version string, codes ...string) string {
	values := make([]string, 0, len(codes))
	for _, c := range codes {
		values = append(values, fmt.Sprintf(`%q: {"name": {"en": "label %s"}}`, c, c))
	}
	return fmt.Sprintf(`{
		"dataset_info": {"id": %q, "structure_reference": {"agency_id": "IT1", "id": "DSD", "version": %q}},
		"generated_at": "2025-01-15T10:30:45",
		"dimensions": {"ADJUSTMENT": {"values": {%s}}}
	}`, id, version, strings.Join(values, ", "))
}

type reportSink struct {
	mu      sync.Mutex
	reports []ingest.Report
}

func (r *reportSink) CycleCompleted(rep ingest.Report) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, rep)
}

func TestSync(t *testing.T) {
	t.Parallel()

	t.Run("failure of one document does not affect others", func(t *testing.T) {
		src := newMemSource()
		src.put("constraints_163_156.json", doc("163_156", "1.0", "N", "W", "Y"))
		src.put("constraints_115_333.json", doc("115_333", "1.0", "N"))
		src.put("constraints_bad.json", `{"dataset_info": {"id": "bad"}, "dimensions": {}}`)

		reg := registry.New()
		sink := &reportSink{}
		in := ingest.New(src, reg, ingest.WithObserver(sink), ingest.WithConcurrency(2))

		rep, err := in.Sync(context.Background())
		require.NoError(t, err)
		assert.NotEmpty(t, rep.CycleID)
		assert.Equal(t, 3, rep.Listed)
		assert.Equal(t, 2, rep.Published)
		require.Len(t, rep.Failures, 1)
		assert.False(t, rep.OK())
		assert.Equal(t, "constraints_bad.json", rep.Failures[0].Document)
		assert.Equal(t, "bad", rep.Failures[0].DatasetID)
		assert.ErrorIs(t, rep.Failures[0].Err, constraint.ErrMalformedConstraint)

		assert.Equal(t, []string{"115_333", "163_156"}, reg.List())
		require.Len(t, sink.reports, 1)
		assert.Equal(t, rep.CycleID, sink.reports[0].CycleID)
	})

	t.Run("unchanged bytes are skipped and changes republished", func(t *testing.T) {
		src := newMemSource()
		src.put("constraints_163_156.json", doc("163_156", "1.0", "N", "Y"))
		reg := registry.New()
		in := ingest.New(src, reg)

		_, err := in.Sync(context.Background())
		require.NoError(t, err)

		rep, err := in.Sync(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, rep.Skipped)
		assert.Equal(t, 0, rep.Published)

		src.put("constraints_163_156.json", doc("163_156", "1.1", "N", "W", "Y"))
		rep, err = in.Sync(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, rep.Published)

		c, err := reg.Get("163_156")
		require.NoError(t, err)
		assert.Equal(t, "1.1", c.Structure().Version)
	})

	t.Run("malformed update keeps the published constraint", func(t *testing.T) {
		src := newMemSource()
		src.put("constraints_163_156.json", doc("163_156", "1.0", "N", "Y"))
		reg := registry.New()
		in := ingest.New(src, reg)

		_, err := in.Sync(context.Background())
		require.NoError(t, err)

		src.put("constraints_163_156.json", doc("163_156", "1.1"))
		rep, err := in.Sync(context.Background())
		require.NoError(t, err)
		require.Len(t, rep.Failures, 1)

		c, err := reg.Get("163_156")
		require.NoError(t, err)
		assert.Equal(t, "1.0", c.Structure().Version)
	})

	t.Run("prune evicts datasets whose documents vanished", func(t *testing.T) {
		src := newMemSource()
		src.put("constraints_163_156.json", doc("163_156", "1.0", "N"))
		src.put("constraints_115_333.json", doc("115_333", "1.0", "N"))
		reg := registry.New()
		in := ingest.New(src, reg, ingest.WithPrune(true))

		_, err := in.Sync(context.Background())
		require.NoError(t, err)

		src.remove("constraints_115_333.json")
		rep, err := in.Sync(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"115_333"}, rep.Evicted)
		assert.Equal(t, []string{"163_156"}, reg.List())
	})

	t.Run("prune keeps documents ingested after the listing", func(t *testing.T) {
		src := newMemSource()
		src.put("constraints_163_156.json", doc("163_156", "1.0", "N"))
		reg := registry.New()
		hooked := &fetchHookSource{memSource: src}
		in := ingest.New(hooked, reg, ingest.WithPrune(true))

		// The watcher picks up a new document while the cycle is fetching.
		hooked.onFirstFetch = func() {
			src.put("constraints_115_333.json", doc("115_333", "1.0", "N"))
			_, err := in.Ingest(context.Background(), "constraints_115_333.json")
			assert.NoError(t, err)
		}

		rep, err := in.Sync(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, rep.Listed)
		assert.Empty(t, rep.Evicted)
		assert.Equal(t, []string{"115_333", "163_156"}, reg.List())

		rep, err = in.Sync(context.Background())
		require.NoError(t, err)
		assert.Empty(t, rep.Evicted)
		assert.Equal(t, []string{"115_333", "163_156"}, reg.List())
	})

	t.Run("document switching dataset evicts the old one", func(t *testing.T) {
		src := newMemSource()
		src.put("doc.json", doc("163_156", "1.0", "N"))
		reg := registry.New()
		in := ingest.New(src, reg, ingest.WithPrune(true))

		_, err := in.Sync(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"163_156"}, reg.List())

		src.put("doc.json", doc("115_333", "1.0", "N"))
		rep, err := in.Sync(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"163_156"}, rep.Evicted)
		assert.Equal(t, []string{"115_333"}, reg.List())

		for range 2 {
			_, err = in.Sync(context.Background())
			require.NoError(t, err)
		}
		assert.Equal(t, []string{"115_333"}, reg.List())

		id, evicted := in.Forget("doc.json")
		assert.Equal(t, "115_333", id)
		assert.True(t, evicted)
		assert.Empty(t, reg.List())
	})

	t.Run("switching dataset keeps a dataset another document provides", func(t *testing.T) {
		src := newMemSource()
		src.put("a.json", doc("163_156", "1.0", "N"))
		src.put("b.json", doc("163_156", "1.0", "N"))
		reg := registry.New()
		in := ingest.New(src, reg, ingest.WithPrune(true))

		_, err := in.Sync(context.Background())
		require.NoError(t, err)

		src.put("a.json", doc("115_333", "1.0", "N"))
		change, err := in.Ingest(context.Background(), "a.json")
		require.NoError(t, err)
		assert.Equal(t, registry.Inserted, change.Kind)
		assert.Equal(t, []string{"115_333", "163_156"}, reg.List())
	})

	t.Run("without prune vanished documents stay published", func(t *testing.T) {
		src := newMemSource()
		src.put("constraints_163_156.json", doc("163_156", "1.0", "N"))
		reg := registry.New()
		in := ingest.New(src, reg)

		_, err := in.Sync(context.Background())
		require.NoError(t, err)
		src.remove("constraints_163_156.json")
		rep, err := in.Sync(context.Background())
		require.NoError(t, err)
		assert.Empty(t, rep.Evicted)
		assert.Equal(t, []string{"163_156"}, reg.List())
	})

	t.Run("list failure is an error", func(t *testing.T) {
		src := newMemSource()
		src.listErr = errors.New("bucket unreachable")
		_, err := ingest.New(src, registry.New()).Sync(context.Background())
		assert.ErrorIs(t, err, ingest.ErrListFailed)
	})

	t.Run("fetch failure is recorded", func(t *testing.T) {
		src := newMemSource()
		src.put("constraints_163_156.json", doc("163_156", "1.0", "N"))
		src.fetchErr["constraints_163_156.json"] = errors.New("timeout")

		rep, err := ingest.New(src, registry.New()).Sync(context.Background())
		require.NoError(t, err)
		require.Len(t, rep.Failures, 1)
		assert.ErrorIs(t, rep.Failures[0].Err, ingest.ErrFetchFailed)
	})

	t.Run("document naming another dataset is rejected", func(t *testing.T) {
		src := newMemSource()
		src.put("constraints_163_156.json", doc("115_333", "1.0", "N"))
		reg := registry.New()

		rep, err := ingest.New(src, reg, ingest.WithExpectedDatasetID(ingest.DatasetIDFromName)).Sync(context.Background())
		require.NoError(t, err)
		require.Len(t, rep.Failures, 1)

		var m *constraint.MalformedError
		require.ErrorAs(t, rep.Failures[0].Err, &m)
		assert.Equal(t, "dataset_info.id", m.Path)
		assert.Empty(t, reg.List())
	})

	t.Run("canceled context", func(t *testing.T) {
		src := newMemSource()
		src.put("constraints_163_156.json", doc("163_156", "1.0", "N"))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := ingest.New(src, registry.New()).Sync(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestIngestAndForget(t *testing.T) {
	t.Parallel()

	src := newMemSource()
	src.put("a/constraints_163_156.json", doc("163_156", "1.0", "N"))
	src.put("b/constraints_163_156.json", doc("163_156", "1.0", "N"))
	reg := registry.New()
	in := ingest.New(src, reg)

	change, err := in.Ingest(context.Background(), "a/constraints_163_156.json")
	require.NoError(t, err)
	assert.Equal(t, registry.Inserted, change.Kind)

	change, err = in.Ingest(context.Background(), "b/constraints_163_156.json")
	require.NoError(t, err)
	assert.Equal(t, registry.Unchanged, change.Kind)

	id, evicted := in.Forget("a/constraints_163_156.json")
	assert.Equal(t, "163_156", id)
	assert.False(t, evicted, "still provided by another document")

	id, evicted = in.Forget("b/constraints_163_156.json")
	assert.Equal(t, "163_156", id)
	assert.True(t, evicted)
	assert.Empty(t, reg.List())

	_, evicted = in.Forget("unknown.json")
	assert.False(t, evicted)

	_, err = in.Ingest(context.Background(), "missing.json")
	assert.ErrorIs(t, err, ingest.ErrFetchFailed)
}

func TestStart(t *testing.T) {
	t.Parallel()

	src := newMemSource()
	src.put("constraints_163_156.json", doc("163_156", "1.0", "N"))
	reg := registry.New()
	in := ingest.New(src, reg)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	require.NoError(t, in.Run(ctx, 10*time.Millisecond)())
	assert.Equal(t, []string{"163_156"}, reg.List())

	assert.Error(t, in.Start(context.Background(), 0))
}

func TestDatasetIDFromName(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"constraints_163_156.json":      "163_156",
		"raw/constraints_22_289.yaml":   "22_289",
		"constraints_DCSC_FATT.yml":     "DCSC_FATT",
		"prefix/constraints_1.json.bak": "",
		"dataset_163_156.json":          "",
	}
	for name, want := range tests {
		got, ok := ingest.DatasetIDFromName(name)
		assert.Equal(t, want != "", ok, name)
		assert.Equal(t, want, got, name)
	}
}
