package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrymomot/dimreg/core/ingest"
	"github.com/dmitrymomot/dimreg/core/registry"
	"github.com/dmitrymomot/dimreg/core/validator"
)

const namespace = "dimreg"

// Metrics holds the Prometheus collectors for the registry, validator and
// ingester. It implements registry.Observer, validator.Observer and
// ingest.Observer so it can be passed to their WithObserver options.
type Metrics struct {
	reg *prometheus.Registry

	datasets        prometheus.Gauge
	publishes       *prometheus.CounterVec
	structureChange prometheus.Counter
	evictions       prometheus.Counter
	validations     *prometheus.CounterVec
	violations      *prometheus.CounterVec
	ingestFailures  prometheus.Counter
	ingestDocuments *prometheus.CounterVec
	cycleDuration   prometheus.Histogram
	lastCycle       prometheus.Gauge
}

var (
	_ registry.Observer  = (*Metrics)(nil)
	_ validator.Observer = (*Metrics)(nil)
	_ ingest.Observer    = (*Metrics)(nil)
)

// New creates the collectors on a private Prometheus registry, together with
// the Go runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		datasets: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "datasets",
			Help:      "Number of published datasets.",
		}),
		publishes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_total",
			Help:      "Publish calls by outcome.",
		}, []string{"kind"}),
		structureChange: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "structure_changes_total",
			Help:      "Replacements that changed the structure version.",
		}),
		evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evictions_total",
			Help:      "Datasets removed from the registry.",
		}),
		validations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validations_total",
			Help:      "Validated records by result.",
		}, []string{"result"}),
		violations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "violations_total",
			Help:      "Violations found by kind.",
		}, []string{"kind"}),
		ingestFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_failures_total",
			Help:      "Documents that could not be ingested.",
		}),
		ingestDocuments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_documents_total",
			Help:      "Documents handled by sync cycles by outcome.",
		}, []string{"outcome"}),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ingest_cycle_seconds",
			Help:      "Duration of sync cycles.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
		lastCycle: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ingest_last_cycle_timestamp_seconds",
			Help:      "Start time of the last completed sync cycle.",
		}),
	}

	m.reg.MustRegister(
		m.datasets,
		m.publishes,
		m.structureChange,
		m.evictions,
		m.validations,
		m.violations,
		m.ingestFailures,
		m.ingestDocuments,
		m.cycleDuration,
		m.lastCycle,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Handler serves the metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// RegistryChanged implements registry.Observer.
func (m *Metrics) RegistryChanged(c registry.Change) {
	switch c.Kind {
	case registry.Inserted:
		m.datasets.Inc()
	case registry.Evicted:
		m.datasets.Dec()
		m.evictions.Inc()
		return
	}
	m.publishes.WithLabelValues(string(c.Kind)).Inc()
	if c.StructureChanged {
		m.structureChange.Inc()
	}
}

// Validated implements validator.Observer.
func (m *Metrics) Validated(r validator.Result) {
	result := "valid"
	if !r.Valid {
		result = "invalid"
	}
	m.validations.WithLabelValues(result).Inc()
	for _, v := range r.Violations {
		m.violations.WithLabelValues(string(v.Kind)).Inc()
	}
}

// CycleCompleted implements ingest.Observer.
func (m *Metrics) CycleCompleted(r ingest.Report) {
	m.cycleDuration.Observe(r.Duration.Seconds())
	m.lastCycle.Set(float64(r.StartedAt.Unix()))
	m.ingestFailures.Add(float64(len(r.Failures)))
	m.ingestDocuments.WithLabelValues("published").Add(float64(r.Published))
	m.ingestDocuments.WithLabelValues("unchanged").Add(float64(r.Unchanged))
	m.ingestDocuments.WithLabelValues("skipped").Add(float64(r.Skipped))
	m.ingestDocuments.WithLabelValues("failed").Add(float64(len(r.Failures)))
}
