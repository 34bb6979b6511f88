package observability

import (
	"context"

	"github.com/aretw0/promptdown/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records traversal counters and durations for Prometheus.
type Metrics struct {
	Calls    *prometheus.CounterVec
	Duration *prometheus.HistogramVec
	Includes prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg.
// A nil registerer leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Calls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "promptdown_calls_total",
				Help: "Total number of render and collect calls by outcome",
			},
			[]string{"mode", "outcome"},
		),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "promptdown_call_duration_seconds",
				Help:    "Duration of render and collect calls",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"mode"},
		),
		Includes: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "promptdown_includes_total",
				Help: "Total number of include directives followed",
			},
		),
	}
	if reg != nil {
		reg.MustRegister(m.Calls, m.Duration, m.Includes)
	}
	return m
}

// Hooks returns the hooks feeding these metrics.
func (m *Metrics) Hooks() domain.Hooks {
	return domain.Hooks{
		OnRenderFinish: func(_ context.Context, e *domain.RenderEvent) {
			m.Calls.WithLabelValues(e.Mode, domain.ErrorKind(e.Err)).Inc()
			m.Duration.WithLabelValues(e.Mode).Observe(e.Duration.Seconds())
		},
		OnIncludeEnter: func(_ context.Context, _ *domain.IncludeEvent) {
			m.Includes.Inc()
		},
	}
}
