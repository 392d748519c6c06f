// Package policy implements Tier 2 of the validation dispatcher: a
// deterministic rule evaluator over allow/deny lists with command, path,
// extension, agent and payload-size constraints.
//
// Rules load from a YAML file, hot-reload on file change, and evaluate in
// priority order; the first matching rule is authoritative. A no_match
// verdict means the rules have no opinion and the pattern tier must be
// consulted. Evaluator failures count against the policy tier's circuit
// breaker and are never reported as a deny.
package policy
