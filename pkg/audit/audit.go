package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"sentinel-hq/ceres/pkg/validation"
)

// Record is one appended decision in the audit log. Records are append-only
// and never mutated.
type Record struct {
	// ID uniquely identifies this record.
	ID string `json:"id"`

	// RequestID is the validated request.
	RequestID string `json:"request_id"`

	// AgentID is the requesting agent.
	AgentID string `json:"agent_id"`

	// Fingerprint is the command fingerprint.
	Fingerprint string `json:"fingerprint"`

	// Command is the raw command text.
	Command string `json:"command"`

	// Outcome, Tier and Reason mirror the decision.
	Outcome string `json:"outcome"`
	Tier    string `json:"tier"`
	Reason  string `json:"reason"`

	// RiskScore is the pattern tier's score, when one was computed.
	RiskScore float64 `json:"risk_score,omitempty"`

	// RuleName is the matching policy rule, when one decided.
	RuleName string `json:"rule_name,omitempty"`

	// LatencyMs is the end-to-end decision latency in milliseconds.
	LatencyMs int64 `json:"latency_ms"`

	// DecidedAt is when the decision was produced.
	DecidedAt time.Time `json:"decided_at"`

	// CreatedAt is when the record was built for appending.
	CreatedAt time.Time `json:"created_at"`
}

// NewRecord builds an audit record from a request and its decision.
func NewRecord(req *validation.Request, decision *validation.Decision) *Record {
	return &Record{
		ID:          uuid.NewString(),
		RequestID:   decision.RequestID,
		AgentID:     req.AgentID,
		Fingerprint: decision.Fingerprint,
		Command:     req.Command,
		Outcome:     string(decision.Outcome),
		Tier:        string(decision.Tier),
		Reason:      string(decision.Reason),
		RiskScore:   decision.RiskScore,
		RuleName:    decision.RuleName,
		LatencyMs:   decision.Latency.Milliseconds(),
		DecidedAt:   decision.DecidedAt,
		CreatedAt:   time.Now(),
	}
}

// Query filters audit log reads.
type Query struct {
	// AgentID filters by agent.
	AgentID string

	// Outcome filters by decision outcome.
	Outcome string

	// Fingerprint filters by command fingerprint.
	Fingerprint string

	// Since and Until bound DecidedAt.
	Since *time.Time
	Until *time.Time

	// Limit and Offset paginate. Zero Limit means no limit.
	Limit  int
	Offset int
}

// Store is the append-only audit log backend.
type Store interface {
	// Append persists one record.
	Append(ctx context.Context, record *Record) error

	// Query retrieves records matching the query, newest first.
	Query(ctx context.Context, query *Query) ([]*Record, error)

	// Count returns the number of matching records.
	Count(ctx context.Context, query *Query) (int64, error)

	// PruneBefore deletes records decided before the cutoff and returns
	// how many were removed.
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// Close releases backend resources.
	Close() error
}
