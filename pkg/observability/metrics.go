package observability

import (
	"context"
	"fmt"

	"github.com/aretw0/algoviz/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "algoviz"

// Metrics holds the prometheus collectors fed by store hooks.
type Metrics struct {
	runsStarted  *prometheus.CounterVec
	runsFinished *prometheus.CounterVec
	checkpoints  *prometheus.CounterVec
	runDuration  *prometheus.HistogramVec
	runSteps     *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		runsStarted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_started_total",
				Help:      "Total number of started runs",
			},
			[]string{"visualizer", "mode"}, // mode: step, unattended
		),
		runsFinished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_finished_total",
				Help:      "Total number of runs that halted",
			},
			[]string{"visualizer", "status"}, // status: success, error
		),
		checkpoints: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "checkpoints_total",
				Help:      "Total number of recorded checkpoints",
			},
			[]string{"visualizer", "event"},
		),
		runDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "Wall time from start to halt, including time spent suspended",
				Buckets:   []float64{.01, .1, 1, 10, 60, 300, 1800},
			},
			[]string{"visualizer"},
		),
		runSteps: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_steps",
				Help:      "Number of checkpoints per halted run",
				Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
			},
			[]string{"visualizer"},
		),
	}

	for _, c := range []prometheus.Collector{m.runsStarted, m.runsFinished, m.checkpoints, m.runDuration, m.runSteps} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register metric: %w", err)
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks that record into m.
// The visualizer label is the store name.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStart: func(_ context.Context, e *domain.RunEvent) {
			mode := "step"
			if e.NoStop {
				mode = "unattended"
			}
			m.runsStarted.WithLabelValues(e.Store, mode).Inc()
		},
		OnCheckpoint: func(_ context.Context, e *domain.CheckpointEvent) {
			m.checkpoints.WithLabelValues(e.Store, e.Event.Name).Inc()
		},
		OnHalt: func(_ context.Context, e *domain.RunEvent) {
			status := "success"
			if e.Err != nil {
				status = "error"
			}
			m.runsFinished.WithLabelValues(e.Store, status).Inc()
			m.runDuration.WithLabelValues(e.Store).Observe(e.Duration.Seconds())
			m.runSteps.WithLabelValues(e.Store).Observe(float64(e.Steps))
		},
	}
}
