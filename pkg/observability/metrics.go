// Package observability exposes prometheus metrics for workflow executions.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/sapling/pkg/domain"
)

// Metrics aggregates the engine's prometheus collectors. It satisfies the
// engine's Metrics interface.
type Metrics struct {
	executions   *prometheus.CounterVec
	actions      *prometheus.CounterVec
	taskDuration *prometheus.HistogramVec
	taskFailures *prometheus.CounterVec
}

// New creates the collectors and registers them on reg. Pass
// prometheus.DefaultRegisterer for the process-wide registry.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		executions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sapling_executions_total",
				Help: "Total number of workflow executions by final status",
			},
			[]string{"status"},
		),
		actions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sapling_actions_total",
				Help: "Total number of committed file actions by kind",
			},
			[]string{"kind"},
		),
		taskDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "sapling_task_duration_seconds",
				Help: "Duration of post-commit task executions",
			},
			[]string{"executor"},
		),
		taskFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sapling_task_failures_total",
				Help: "Total number of failed post-commit tasks",
			},
			[]string{"executor"},
		),
	}
	reg.MustRegister(m.executions, m.actions, m.taskDuration, m.taskFailures)
	return m
}

// ExecutionFinished records one finished execution with its final status
// (succeeded, failed or dry-run).
func (m *Metrics) ExecutionFinished(status string) {
	m.executions.WithLabelValues(status).Inc()
}

// ActionCommitted records one committed file action.
func (m *Metrics) ActionCommitted(kind domain.ActionKind) {
	m.actions.WithLabelValues(string(kind)).Inc()
}

// TaskObserved records one task execution's duration and outcome.
func (m *Metrics) TaskObserved(executor string, d time.Duration, err error) {
	m.taskDuration.WithLabelValues(executor).Observe(d.Seconds())
	if err != nil {
		m.taskFailures.WithLabelValues(executor).Inc()
	}
}
