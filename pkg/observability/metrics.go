package observability

import (
	"context"

	"github.com/aretw0/navgraph/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the navigation collectors.
type Metrics struct {
	Navigations *prometheus.CounterVec
	Hops        *prometheus.CounterVec
	Resets      *prometheus.CounterVec
	Recoveries  *prometheus.CounterVec
	Duration    *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Navigations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "navgraph_navigations_total",
				Help: "Total number of navigations by entity type and final phase",
			},
			[]string{"entity_type", "phase"},
		),
		Hops: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "navgraph_hops_total",
				Help: "Total number of hops by destination and outcome",
			},
			[]string{"entity_type", "destination", "outcome"},
		),
		Resets: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "navgraph_resets_total",
				Help: "Total number of resetters run on re-entered destinations",
			},
			[]string{"entity_type", "destination"},
		),
		Recoveries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "navgraph_recoveries_total",
				Help: "Total number of recovery actions by result",
			},
			[]string{"result"},
		),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "navgraph_navigation_duration_seconds",
				Help:    "Duration of navigations",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"entity_type"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.Navigations, m.Hops, m.Resets, m.Recoveries, m.Duration)
	}
	return m
}

// Hooks returns the lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.Hooks {
	return domain.Hooks{
		OnNavigateEnd: func(ctx context.Context, e *domain.NavigationEvent) {
			typ := string(e.EntityType)
			m.Navigations.WithLabelValues(typ, string(e.Phase)).Inc()
			m.Duration.WithLabelValues(typ).Observe(e.Duration.Seconds())
		},
		OnHop: func(ctx context.Context, e *domain.HopEvent) {
			typ := string(e.EntityType)
			m.Hops.WithLabelValues(typ, e.Destination, string(e.Outcome)).Inc()
			if e.ResetterUsed {
				m.Resets.WithLabelValues(typ, e.Destination).Inc()
			}
		},
		OnRecover: func(ctx context.Context, e *domain.RecoveryEvent) {
			result := "ok"
			if e.Err != nil {
				result = "error"
			}
			m.Recoveries.WithLabelValues(result).Inc()
		},
	}
}
