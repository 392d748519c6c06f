// Package metrics provides Prometheus instrumentation for the dispatcher.
//
// A single Collector owns the registry and all metric families: decision
// counters and latency histograms, cache hit/miss/size, circuit breaker
// state and transitions, and escalation ticket lifecycle. Recording methods
// are no-ops when metrics are disabled in configuration.
package metrics
