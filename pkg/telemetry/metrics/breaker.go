package metrics

import (
	"sentinel-hq/ceres/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// BreakerMetrics tracks per-tier circuit breaker state.
//
// Metrics:
//   - ceres_breaker_state: Current state per tier (0=closed, 1=half_open, 2=open)
//   - ceres_breaker_transitions_total: State transitions by tier and new state
//   - ceres_breaker_bypass_total: Tier evaluations skipped because the breaker was open
type BreakerMetrics struct {
	state            *prometheus.GaugeVec
	transitionsTotal *prometheus.CounterVec
	bypassTotal      *prometheus.CounterVec
}

// NewBreakerMetrics creates and registers breaker metrics with the provided
// registry.
func NewBreakerMetrics(cfg config.MetricsConfig, registry *prometheus.Registry) *BreakerMetrics {
	bm := &BreakerMetrics{
		state: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Name:      "breaker_state",
				Help:      "Current circuit breaker state (0=closed, 1=half_open, 2=open)",
			},
			[]string{"tier"},
		),

		transitionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "breaker_transitions_total",
				Help:      "Total circuit breaker state transitions",
			},
			[]string{"tier", "to"},
		),

		bypassTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "breaker_bypass_total",
				Help:      "Total tier evaluations skipped due to an open breaker",
			},
			[]string{"tier"},
		),
	}

	registry.MustRegister(
		bm.state,
		bm.transitionsTotal,
		bm.bypassTotal,
	)

	return bm
}

// RecordTransition records a state change and updates the state gauge.
func (bm *BreakerMetrics) RecordTransition(tier, from, to string) {
	bm.transitionsTotal.WithLabelValues(tier, to).Inc()
	bm.state.WithLabelValues(tier).Set(stateValue(to))
}

// RecordBypass records a tier skipped because its breaker was open.
func (bm *BreakerMetrics) RecordBypass(tier string) {
	bm.bypassTotal.WithLabelValues(tier).Inc()
}

// stateValue maps a breaker state name to its gauge value.
func stateValue(state string) float64 {
	switch state {
	case "open":
		return 2
	case "half_open":
		return 1
	default:
		return 0
	}
}
