package executor

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the executor's telemetry counters. Register them against
// any Prometheus registerer; the daemon exposes them over promhttp when
// configured.
type Metrics struct {
	Scheduled prometheus.Counter
	Completed prometheus.Counter
	Suspended prometheus.Counter
	Failed    prometheus.Counter
	Cycles    prometheus.Counter
}

// NewMetrics creates and registers the counter set.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Scheduled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "adept_executor_tasks_scheduled_total",
			Help: "Distinct task requests scheduled.",
		}),
		Completed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "adept_executor_tasks_completed_total",
			Help: "Tasks completed with an artifact.",
		}),
		Suspended: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "adept_executor_task_suspensions_total",
			Help: "Suspensions returned by executing tasks.",
		}),
		Failed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "adept_executor_tasks_failed_total",
			Help: "Tasks that failed with a diagnostic.",
		}),
		Cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "adept_executor_cyclic_tasks_total",
			Help: "Tasks left suspended at quiescence (dependency cycles).",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Scheduled, m.Completed, m.Suspended, m.Failed, m.Cycles)
	}
	return m
}
