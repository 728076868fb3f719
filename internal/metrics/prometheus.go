package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "thread_worker"

// Collectors はプロセス全体で共有する Prometheus メトリクス
//
// 登録は1つの Registerer につき1回だけ行い、各 Metrics から参照する
type Collectors struct {
	JobsDispatched prometheus.Counter
	JobsCompleted  *prometheus.CounterVec
	WorkerFailures *prometheus.CounterVec
	JobDuration    prometheus.Histogram
	Workers        prometheus.Gauge
}

// NewCollectors は reg にメトリクスを登録する
func NewCollectors(reg prometheus.Registerer) *Collectors {
	factory := promauto.With(reg)
	return &Collectors{
		JobsDispatched: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_dispatched_total",
			Help:      "Total number of jobs enqueued onto the job queue",
		}),
		JobsCompleted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_completed_total",
			Help:      "Total number of job results published, by worker",
		}, []string{"worker"}),
		WorkerFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "worker_failures_total",
			Help:      "Total number of workers that terminated abnormally",
		}, []string{"worker"}),
		JobDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Time a worker spent processing one job",
			Buckets:   prometheus.DefBuckets,
		}),
		Workers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "workers",
			Help:      "Number of workers currently running",
		}),
	}
}

// Handler は reg の内容を公開する /metrics ハンドラを返す
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}
