// Package dispatcher orchestrates the speed-layer decision tiers.
//
// Per request: Tier 1 (exact-match fingerprint cache) short-circuits; Tier 2
// (policy rules) is authoritative when a rule matches; Tier 3 (risk scoring)
// maps scores to approve/block via configured watermarks; gray-zone scores
// escalate to expert review within a bounded wait budget. Every tier call
// runs through a circuit breaker, and every failure mode degrades to a
// decision: Validate never returns an error, and uncertainty never resolves
// to approved.
package dispatcher
