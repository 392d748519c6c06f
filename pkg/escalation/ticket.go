package escalation

import (
	"sync"
	"time"
)

// TicketStatus tracks the lifecycle of an escalation ticket.
type TicketStatus string

const (
	// StatusPending means the ticket awaits an expert answer.
	StatusPending TicketStatus = "pending"

	// StatusResolved means an expert answered before the deadline.
	StatusResolved TicketStatus = "resolved"

	// StatusTimedOut means the deadline passed without an answer.
	StatusTimedOut TicketStatus = "timed_out"
)

// Answer is an expert's verdict for one ticket.
type Answer struct {
	// TicketID correlates the answer to its ticket.
	TicketID string `json:"ticket_id"`

	// Approve is the expert's verdict.
	Approve bool `json:"approve"`

	// ExpertID identifies who answered.
	ExpertID string `json:"expert_id"`

	// Comment is an optional free-form justification.
	Comment string `json:"comment,omitempty"`

	// ReceivedAt is when the answer arrived at the gateway.
	ReceivedAt time.Time `json:"received_at"`
}

// Ticket is one outstanding expert review. Concurrent requests sharing a
// fingerprint attach to the same ticket; all waiters are released together
// when the ticket resolves or times out.
type Ticket struct {
	// ID uniquely identifies the ticket on the elicitation channel.
	ID string

	// Fingerprint is the command fingerprint under review.
	Fingerprint string

	// TargetPool names the expert pool the request was published to.
	TargetPool string

	// CreatedAt is when the first escalation created the ticket.
	CreatedAt time.Time

	// Deadline is when the ticket times out.
	Deadline time.Time

	mu         sync.Mutex
	status     TicketStatus
	answer     *Answer
	requestIDs []string
	resolved   chan struct{}
	timer      *time.Timer
}

// Status returns the ticket's current status.
func (t *Ticket) Status() TicketStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// Answer returns the expert answer, nil unless the ticket is resolved.
func (t *Ticket) Answer() *Answer {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.answer
}

// RequestIDs returns the IDs of every request attached to the ticket.
func (t *Ticket) RequestIDs() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	ids := make([]string, len(t.requestIDs))
	copy(ids, t.requestIDs)
	return ids
}

// Done returns a channel closed when the ticket resolves or times out.
func (t *Ticket) Done() <-chan struct{} {
	return t.resolved
}

// attach adds a request to the ticket and reports whether the ticket is
// still pending (a closed ticket cannot take new waiters).
func (t *Ticket) attach(requestID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status != StatusPending {
		return false
	}
	t.requestIDs = append(t.requestIDs, requestID)
	return true
}

// close transitions the ticket out of pending exactly once, releasing all
// waiters. Returns false if the ticket was already closed.
func (t *Ticket) close(status TicketStatus, answer *Answer) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.status != StatusPending {
		return false
	}
	t.status = status
	t.answer = answer
	if t.timer != nil {
		t.timer.Stop()
	}
	close(t.resolved)
	return true
}
