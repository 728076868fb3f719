// Package metrics collects job statistics for a pool run.
//
// Metrics keeps atomic counters (dispatched, completed, worker failures) and a
// bounded sample of per-job latencies for P99 calculation. When built with a
// Collectors value the same events are mirrored into Prometheus:
//
//	reg := prometheus.NewRegistry()
//	cols := metrics.NewCollectors(reg)
//
//	cfg := metrics.DefaultConfig()
//	cfg.Collectors = cols
//	m := metrics.NewWithConfig(cfg)
//
//	m.RecordDispatched()
//	m.RecordCompleted(workerID, time.Since(start))
//
//	http.Handle("/metrics", metrics.Handler(reg))
//
// Collectors must be registered once per registry; share them across runs.
//
// # Thread Safety
//
// All Metrics methods are safe for concurrent use by the coordinator and
// every worker.
package metrics
