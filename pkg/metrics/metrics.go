package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/jzx17/taskpool/pkg/types"
)

// Task outcome label values
const (
	OutcomeCompleted = "completed"
	OutcomePanicked  = "panicked"
)

// Collector holds all Prometheus metrics for worker pools
type Collector struct {
	TasksSubmitted *prometheus.CounterVec
	TasksFinished  *prometheus.CounterVec
	TaskDuration   *prometheus.HistogramVec
	QueueSize      *prometheus.GaugeVec
	ActiveWorkers  *prometheus.GaugeVec
	WorkerCount    *prometheus.GaugeVec
	Status         *prometheus.GaugeVec
}

var _ types.MetricsRecorder = (*Collector)(nil)

// NewCollector creates all worker pool metrics and registers them with reg.
// A nil reg uses prometheus.DefaultRegisterer.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Collector{
		TasksSubmitted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskpool_tasks_submitted_total",
				Help: "Total number of tasks accepted by the pool",
			},
			[]string{"pool"},
		),
		TasksFinished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskpool_tasks_finished_total",
				Help: "Total number of tasks executed, by outcome",
			},
			[]string{"pool", "outcome"},
		),
		TaskDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "taskpool_task_duration_seconds",
				Help:    "Duration of task execution in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"pool"},
		),
		QueueSize: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "taskpool_queue_size",
				Help: "Current number of tasks waiting in the queue",
			},
			[]string{"pool"},
		),
		ActiveWorkers: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "taskpool_active_workers",
				Help: "Current number of workers executing a task",
			},
			[]string{"pool"},
		),
		WorkerCount: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "taskpool_worker_count",
				Help: "Configured number of workers",
			},
			[]string{"pool"},
		),
		Status: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "taskpool_status",
				Help: "Pool status: 0 invalid, 1 stopped, 2 running, 3 paused",
			},
			[]string{"pool"},
		),
	}
}

// TaskSubmitted increments the submitted tasks counter
func (c *Collector) TaskSubmitted(pool string) {
	c.TasksSubmitted.WithLabelValues(pool).Inc()
}

// TaskStarted increments the active workers gauge
func (c *Collector) TaskStarted(pool string) {
	c.ActiveWorkers.WithLabelValues(pool).Inc()
}

// TaskFinished decrements the active workers gauge, counts the outcome and
// records the execution duration
func (c *Collector) TaskFinished(pool string, panicked bool, duration time.Duration) {
	outcome := OutcomeCompleted
	if panicked {
		outcome = OutcomePanicked
	}
	c.ActiveWorkers.WithLabelValues(pool).Dec()
	c.TasksFinished.WithLabelValues(pool, outcome).Inc()
	c.TaskDuration.WithLabelValues(pool).Observe(duration.Seconds())
}

// SetQueueSize sets the current queue size
func (c *Collector) SetQueueSize(pool string, size int) {
	c.QueueSize.WithLabelValues(pool).Set(float64(size))
}

// SetWorkerCount sets the configured number of workers
func (c *Collector) SetWorkerCount(pool string, count int) {
	c.WorkerCount.WithLabelValues(pool).Set(float64(count))
}

// SetStatus sets the pool status gauge
func (c *Collector) SetStatus(pool string, status types.PoolStatus) {
	c.Status.WithLabelValues(pool).Set(float64(status))
}
