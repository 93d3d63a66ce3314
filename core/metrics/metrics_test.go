package metrics_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/dimreg/core/ingest"
	"github.com/dmitrymomot/dimreg/core/metrics"
	"github.com/dmitrymomot/dimreg/core/registry"
	"github.com/dmitrymomot/dimreg/core/validator"
)

func TestRegistryChanged(t *testing.T) {
	t.Parallel()
	m := metrics.New()

	m.RegistryChanged(registry.Change{DatasetID: "A", Kind: registry.Inserted})
	m.RegistryChanged(registry.Change{DatasetID: "B", Kind: registry.Inserted})
	m.RegistryChanged(registry.Change{DatasetID: "A", Kind: registry.Replaced, StructureChanged: true})
	m.RegistryChanged(registry.Change{DatasetID: "A", Kind: registry.Unchanged})
	m.RegistryChanged(registry.Change{DatasetID: "B", Kind: registry.Evicted})

	expected := `
# HELP dimreg_datasets Number of published datasets.
# TYPE dimreg_datasets gauge
dimreg_datasets 1
# HELP dimreg_publish_total Publish calls by outcome.
# TYPE dimreg_publish_total counter
dimreg_publish_total{kind="inserted"} 2
dimreg_publish_total{kind="replaced"} 1
dimreg_publish_total{kind="unchanged"} 1
# HELP dimreg_evictions_total Datasets removed from the registry.
# TYPE dimreg_evictions_total counter
dimreg_evictions_total 1
# HELP dimreg_structure_changes_total Replacements that changed the structure version.
# TYPE dimreg_structure_changes_total counter
dimreg_structure_changes_total 1
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected),
		"dimreg_datasets", "dimreg_publish_total", "dimreg_evictions_total", "dimreg_structure_changes_total"))
}

func TestValidated(t *testing.T) {
	t.Parallel()
	m := metrics.New()

	m.Validated(validator.Result{Valid: true})
	m.Validated(validator.Result{Violations: []validator.Violation{
		{Dimension: "ADJUSTMENT", Code: "X", Kind: validator.InvalidCode},
		{Dimension: "FREQ", Kind: validator.MissingDimension},
	}})

	assert.Equal(t, 2, testutil.CollectAndCount(m.Registry(), "dimreg_validations_total"))
	assert.Equal(t, 2, testutil.CollectAndCount(m.Registry(), "dimreg_violations_total"))
}

func TestCycleCompletedAndHandler(t *testing.T) {
	t.Parallel()
	m := metrics.New()

	m.CycleCompleted(ingest.Report{
		StartedAt: time.Now(),
		Duration:  120 * time.Millisecond,
		Published: 2,
		Skipped:   1,
		Failures:  []ingest.Failure{{Document: "constraints_bad.json", Err: errors.New("malformed")}},
	})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "dimreg_ingest_failures_total 1")
	assert.Contains(t, body, `dimreg_ingest_documents_total{outcome="published"} 2`)
	assert.Contains(t, body, "dimreg_ingest_cycle_seconds_count 1")
	assert.Contains(t, body, "go_goroutines")
}
