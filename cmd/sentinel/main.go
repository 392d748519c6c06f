// Sentinel Ceres is a speed-layer validation dispatcher for multi-agent
// command gateways.
//
// Every command an autonomous agent wants to run is submitted to the
// gateway, which decides within a strict latency budget whether to approve,
// block, or escalate it to expert review. Decisions come from three tiers
// (an exact-match fingerprint cache, policy rules, and heuristic risk
// scoring), each isolated behind a circuit breaker, with blocked as the safe
// default whenever information is missing.
//
// Usage:
//
//	# Start the gateway with default configuration
//	sentinel run
//
//	# Start with a custom configuration file
//	sentinel run --config /etc/sentinel/config.yaml
//
//	# Validate configuration and rules without serving
//	sentinel validate
//
//	# Show version information
//	sentinel version
package main

func main() {
	Execute()
}
