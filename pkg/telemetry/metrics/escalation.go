package metrics

import (
	"sentinel-hq/ceres/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// EscalationMetrics tracks expert escalation tickets.
//
// Metrics:
//   - ceres_escalations_opened_total: New escalation tickets published
//   - ceres_escalations_attached_total: Requests deduplicated onto pending tickets
//   - ceres_escalations_total: Tickets leaving the pending state by result
//   - ceres_escalations_pending: Currently pending tickets
type EscalationMetrics struct {
	openedTotal   prometheus.Counter
	attachedTotal prometheus.Counter
	resultTotal   *prometheus.CounterVec
	pending       prometheus.Gauge
}

// NewEscalationMetrics creates and registers escalation metrics with the
// provided registry.
func NewEscalationMetrics(cfg config.MetricsConfig, registry *prometheus.Registry) *EscalationMetrics {
	em := &EscalationMetrics{
		openedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "escalations_opened_total",
				Help:      "Total new escalation tickets published",
			},
		),

		attachedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "escalations_attached_total",
				Help:      "Total requests deduplicated onto a pending ticket",
			},
		),

		resultTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "escalations_total",
				Help:      "Total escalation tickets by final result",
			},
			[]string{"result"},
		),

		pending: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Name:      "escalations_pending",
				Help:      "Currently pending escalation tickets",
			},
		),
	}

	registry.MustRegister(
		em.openedTotal,
		em.attachedTotal,
		em.resultTotal,
		em.pending,
	)

	return em
}

// RecordOpened records a new ticket.
func (em *EscalationMetrics) RecordOpened() {
	em.openedTotal.Inc()
}

// RecordAttached records a request joining an existing ticket.
func (em *EscalationMetrics) RecordAttached() {
	em.attachedTotal.Inc()
}

// RecordResult records a ticket leaving the pending state.
func (em *EscalationMetrics) RecordResult(result string) {
	em.resultTotal.WithLabelValues(result).Inc()
}

// UpdatePending updates the pending ticket gauge.
func (em *EscalationMetrics) UpdatePending(count int) {
	em.pending.Set(float64(count))
}
