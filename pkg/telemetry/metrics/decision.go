package metrics

import (
	"time"

	"sentinel-hq/ceres/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// DecisionMetrics tracks validation decision outcomes and latency.
//
// Metrics:
//   - ceres_decisions_total: Decisions by outcome, deciding tier, and reason
//   - ceres_decision_duration_seconds: End-to-end decision latency by tier
type DecisionMetrics struct {
	decisionsTotal  *prometheus.CounterVec
	durationSeconds *prometheus.HistogramVec
}

// NewDecisionMetrics creates and registers decision metrics with the
// provided registry.
func NewDecisionMetrics(cfg config.MetricsConfig, registry *prometheus.Registry) *DecisionMetrics {
	dm := &DecisionMetrics{
		decisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "decisions_total",
				Help:      "Total number of validation decisions",
			},
			[]string{"outcome", "tier", "reason"},
		),

		durationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "decision_duration_seconds",
				Help:      "End-to-end validation decision latency",
				// Cache hits land in microseconds; escalations can
				// take the full wait budget.
				Buckets: []float64{0.0001, 0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 15, 30, 60},
			},
			[]string{"tier"},
		),
	}

	registry.MustRegister(
		dm.decisionsTotal,
		dm.durationSeconds,
	)

	return dm
}

// RecordDecision records one completed decision.
func (dm *DecisionMetrics) RecordDecision(outcome, tier, reason string, duration time.Duration) {
	dm.decisionsTotal.WithLabelValues(outcome, tier, reason).Inc()
	dm.durationSeconds.WithLabelValues(tier).Observe(duration.Seconds())
}
