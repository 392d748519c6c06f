// Package breaker implements per-tier circuit breakers for the validation
// dispatcher.
//
// Each decision tier (policy rules, pattern scoring, escalation channel) is
// wrapped by its own breaker. A breaker trips open after a configurable
// streak of consecutive call failures within a sliding window; while open,
// the tier is bypassed entirely rather than attempted. After a cooldown the
// breaker admits exactly one probe call: success closes it, failure reopens
// it with exponentially increased cooldown up to a cap.
//
// Only errors and timeouts count as failures. A tier returning a semantic
// result (an explicit deny, a high risk score) is a successful call.
package breaker
