// Package metrics exposes registry, validation and ingestion counters to Prometheus.
//
//	m := metrics.New()
//	reg := registry.New(registry.WithObserver(m))
//	v := validator.New(reg, validator.WithObserver(m))
//	in := ingest.New(src, reg, ingest.WithObserver(m))
//	mux.Handle("/metrics", m.Handler())
//
// All series are prefixed with dimreg_ and live on a private registry.
package metrics
