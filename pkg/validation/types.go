package validation

import (
	"time"
)

// Outcome is the terminal result of validating a command.
type Outcome string

const (
	// OutcomeApproved allows the command to execute.
	OutcomeApproved Outcome = "approved"

	// OutcomeBlocked denies the command.
	OutcomeBlocked Outcome = "blocked"

	// OutcomeEscalated marks a decision that was resolved by expert review.
	// The final answer (approve or deny) is carried in the decision's
	// Outcome after resolution; OutcomeEscalated only appears transiently
	// in audit trails for tickets still in flight.
	OutcomeEscalated Outcome = "escalated"
)

// Tier identifies which decision source produced a decision.
type Tier string

const (
	// TierCache means the decision came from the Tier 1 fingerprint cache.
	TierCache Tier = "cache"

	// TierPolicy means an explicit policy rule decided.
	TierPolicy Tier = "policy"

	// TierPattern means the risk score decided outside the gray zone.
	TierPattern Tier = "pattern"

	// TierExpert means an escalated expert answer decided.
	TierExpert Tier = "expert"

	// TierNone means no tier could decide and the safe default applied.
	TierNone Tier = "none"
)

// ReasonCode explains why a decision was reached.
type ReasonCode string

const (
	// ReasonPolicyAllow indicates an explicit allow rule matched.
	ReasonPolicyAllow ReasonCode = "policy_allow"

	// ReasonPolicyDeny indicates an explicit deny rule matched.
	ReasonPolicyDeny ReasonCode = "policy_deny"

	// ReasonRiskLow indicates the risk score fell below the low watermark.
	ReasonRiskLow ReasonCode = "risk_low"

	// ReasonRiskHigh indicates the risk score exceeded the high watermark.
	ReasonRiskHigh ReasonCode = "risk_high"

	// ReasonExpertApproved indicates an expert approved the escalation.
	ReasonExpertApproved ReasonCode = "expert_approved"

	// ReasonExpertDenied indicates an expert denied the escalation.
	ReasonExpertDenied ReasonCode = "expert_denied"

	// ReasonEscalationTimeout indicates no expert answer arrived within
	// the wait budget; the safe default applied.
	ReasonEscalationTimeout ReasonCode = "escalation_timeout"

	// ReasonAllTiersUnavailable indicates every consulted tier was
	// bypassed or failing; the safe default applied.
	ReasonAllTiersUnavailable ReasonCode = "all_tiers_unavailable"

	// ReasonCacheHit indicates the decision was replayed from Tier 1.
	ReasonCacheHit ReasonCode = "cache_hit"
)

// Request is one command awaiting a decision. Requests are immutable once
// submitted; the dispatcher never mutates them.
type Request struct {
	// ID uniquely identifies this request.
	ID string `json:"id"`

	// AgentID identifies the agent that wants to run the command.
	AgentID string `json:"agent_id"`

	// Command is the raw command text the agent wants to execute.
	Command string `json:"command"`

	// WorkingDir is the directory the command would run in.
	WorkingDir string `json:"working_dir,omitempty"`

	// Paths lists filesystem paths the command touches, if known.
	Paths []string `json:"paths,omitempty"`

	// PayloadSize is the size in bytes of any payload the command writes.
	PayloadSize int64 `json:"payload_size,omitempty"`

	// RiskHints carries caller-supplied hints for the risk scorer
	// (e.g. "network", "destructive", "privileged").
	RiskHints []string `json:"risk_hints,omitempty"`

	// Fingerprint is the stable hash of the normalized command and its
	// context. Computed at ingress if empty.
	Fingerprint string `json:"fingerprint,omitempty"`

	// SubmittedAt is when the request entered the gateway.
	SubmittedAt time.Time `json:"submitted_at"`
}

// Decision is the terminal outcome for a request. Exactly one Decision is
// produced per Request; it is never mutated after creation.
type Decision struct {
	// RequestID ties the decision back to its request.
	RequestID string `json:"request_id"`

	// Fingerprint is the request's fingerprint (decision cache key).
	Fingerprint string `json:"fingerprint"`

	// Outcome is the terminal result.
	Outcome Outcome `json:"outcome"`

	// Tier identifies the decision source.
	Tier Tier `json:"tier"`

	// Reason explains the outcome.
	Reason ReasonCode `json:"reason"`

	// RiskScore is the Tier 3 score, when one was computed.
	RiskScore float64 `json:"risk_score,omitempty"`

	// RuleName is the matching policy rule, when Tier is policy.
	RuleName string `json:"rule_name,omitempty"`

	// Confidence grades how certain the deciding tier was, in [0,1].
	Confidence float64 `json:"confidence"`

	// Latency is how long the decision took end to end.
	Latency time.Duration `json:"latency"`

	// DecidedAt is when the decision was produced.
	DecidedAt time.Time `json:"decided_at"`
}

// Approved reports whether the decision allows the command.
func (d *Decision) Approved() bool {
	return d.Outcome == OutcomeApproved
}
