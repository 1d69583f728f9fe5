package observability

import (
	"context"
	"strconv"

	"github.com/aretw0/ruleflow/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors fed by the lifecycle hooks.
type Metrics struct {
	Routes             *prometheus.CounterVec
	Preflights         *prometheus.CounterVec
	PreflightIssues    *prometheus.CounterVec
	Simulations        *prometheus.CounterVec
	SimulationDuration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Routes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ruleflow_routes_total",
				Help: "Facts routed, by flow and outcome (branch or else).",
			},
			[]string{"flow_id", "outcome"},
		),
		Preflights: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ruleflow_preflights_total",
				Help: "Preflight runs, by flow and readiness.",
			},
			[]string{"flow_id", "ready"},
		),
		PreflightIssues: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ruleflow_preflight_checks_total",
				Help: "Preflight check outcomes, by check and status.",
			},
			[]string{"check", "status"},
		),
		Simulations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ruleflow_simulations_total",
				Help: "Simulations run, by flow and result.",
			},
			[]string{"flow_id", "result"},
		),
		SimulationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ruleflow_simulation_duration_seconds",
				Help:    "Duration of simulations.",
				Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
			},
			[]string{"flow_id"},
		),
	}

	for _, c := range []prometheus.Collector{m.Routes, m.Preflights, m.PreflightIssues, m.Simulations, m.SimulationDuration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRoute: func(_ context.Context, e *domain.RouteEvent) {
			outcome := "else"
			if e.Result.Matched {
				outcome = "branch"
			}
			m.Routes.WithLabelValues(e.FlowID, outcome).Inc()
		},
		OnPreflight: func(_ context.Context, e *domain.PreflightEvent) {
			m.Preflights.WithLabelValues(e.FlowID, strconv.FormatBool(e.Report.Ready)).Inc()
			for _, t := range e.Report.Trace {
				m.PreflightIssues.WithLabelValues(t.Check, string(t.Status)).Inc()
			}
		},
		OnSimulate: func(_ context.Context, e *domain.SimulateEvent) {
			result := "ok"
			if e.Err != nil {
				result = "error"
			}
			m.Simulations.WithLabelValues(e.FlowID, result).Inc()
			m.SimulationDuration.WithLabelValues(e.FlowID).Observe(e.Duration.Seconds())
		},
	}
}
