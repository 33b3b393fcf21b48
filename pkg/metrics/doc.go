// Package metrics exports worker pool events as Prometheus metrics.
//
// A Collector implements types.MetricsRecorder. Every series is labelled by
// pool name, so one Collector can serve several pools:
//
//	reg := prometheus.NewRegistry()
//	collector := metrics.NewCollector(reg)
//	pool := worker.NewPool(&worker.Config{Name: "jobs", PoolSize: 4, Metrics: collector})
package metrics
