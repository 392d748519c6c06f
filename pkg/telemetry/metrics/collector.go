package metrics

import (
	"time"

	"sentinel-hq/ceres/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector is the orchestrator for all Prometheus metrics in Ceres. It
// manages metric registration and provides a unified interface for recording
// metrics across the dispatcher, caches, breakers, and escalation.
type Collector struct {
	config   config.MetricsConfig
	registry *prometheus.Registry

	// Decision metrics
	decisionMetrics *DecisionMetrics

	// Cache metrics (fingerprint cache + tier memoizers)
	cacheMetrics *CacheMetrics

	// Circuit breaker metrics
	breakerMetrics *BreakerMetrics

	// Escalation metrics
	escalationMetrics *EscalationMetrics
}

// NewCollector creates a new metrics collector with the specified
// configuration and Prometheus registry. If registry is nil, a fresh
// registry is created.
func NewCollector(cfg config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = "ceres"
	}

	c := &Collector{
		config:   cfg,
		registry: registry,
	}

	c.decisionMetrics = NewDecisionMetrics(cfg, registry)
	c.cacheMetrics = NewCacheMetrics(cfg, registry)
	c.breakerMetrics = NewBreakerMetrics(cfg, registry)
	c.escalationMetrics = NewEscalationMetrics(cfg, registry)

	return c
}

// RecordDecision records metrics for one completed validation decision.
func (c *Collector) RecordDecision(outcome, tier, reason string, duration time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.decisionMetrics.RecordDecision(outcome, tier, reason, duration)
}

// RecordCacheHit records a hit on the named cache.
func (c *Collector) RecordCacheHit(cacheName string) {
	if !c.config.Enabled {
		return
	}
	c.cacheMetrics.RecordHit(cacheName)
}

// RecordCacheMiss records a miss on the named cache.
func (c *Collector) RecordCacheMiss(cacheName string) {
	if !c.config.Enabled {
		return
	}
	c.cacheMetrics.RecordMiss(cacheName)
}

// UpdateCacheSize updates the current entry count of the named cache.
func (c *Collector) UpdateCacheSize(cacheName string, size int) {
	if !c.config.Enabled {
		return
	}
	c.cacheMetrics.UpdateSize(cacheName, size)
}

// RecordBreakerTransition records a circuit breaker state change and updates
// the per-tier state gauge.
func (c *Collector) RecordBreakerTransition(tier, from, to string) {
	if !c.config.Enabled {
		return
	}
	c.breakerMetrics.RecordTransition(tier, from, to)
}

// RecordBreakerBypass records a tier skipped because its breaker was open.
func (c *Collector) RecordBreakerBypass(tier string) {
	if !c.config.Enabled {
		return
	}
	c.breakerMetrics.RecordBypass(tier)
}

// RecordEscalationOpened records a new escalation ticket.
func (c *Collector) RecordEscalationOpened() {
	if !c.config.Enabled {
		return
	}
	c.escalationMetrics.RecordOpened()
}

// RecordEscalationAttached records a request deduplicated onto an existing
// pending ticket.
func (c *Collector) RecordEscalationAttached() {
	if !c.config.Enabled {
		return
	}
	c.escalationMetrics.RecordAttached()
}

// RecordEscalationResult records a ticket leaving the pending state.
// Result is "resolved" or "timed_out".
func (c *Collector) RecordEscalationResult(result string) {
	if !c.config.Enabled {
		return
	}
	c.escalationMetrics.RecordResult(result)
}

// UpdatePendingEscalations updates the pending ticket gauge.
func (c *Collector) UpdatePendingEscalations(count int) {
	if !c.config.Enabled {
		return
	}
	c.escalationMetrics.UpdatePending(count)
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
