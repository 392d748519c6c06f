package escalation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"sentinel-hq/ceres/pkg/validation"
)

// ErrTimedOut is returned by AwaitResolution when the ticket's deadline
// passed without an expert answer.
var ErrTimedOut = errors.New("escalation: ticket timed out")

// Request is what gets published to the external elicitation channel for
// expert review.
type Request struct {
	// TicketID correlates the eventual answer back to the ticket.
	TicketID string `json:"ticket_id"`

	// Fingerprint is the command fingerprint under review.
	Fingerprint string `json:"fingerprint"`

	// TargetPool names the expert pool that should review.
	TargetPool string `json:"target_pool"`

	// Deadline is when the gateway stops waiting.
	Deadline time.Time `json:"deadline"`

	// Command context for the reviewer.
	AgentID string   `json:"agent_id"`
	Command string   `json:"command"`
	Paths   []string `json:"paths,omitempty"`
}

// Publisher delivers escalation requests to the external elicitation
// system. Publishing is the only outbound call the coordinator makes; its
// failures count against the escalation breaker.
type Publisher interface {
	Publish(ctx context.Context, req *Request) error
}

// Config contains coordinator configuration.
type Config struct {
	// TargetPool names the expert pool escalations go to.
	TargetPool string

	// WaitBudget is how long waiters block for an expert answer before
	// the safe default applies.
	WaitBudget time.Duration
}

// Coordinator deduplicates concurrent escalations per fingerprint into one
// ticket, publishes to the elicitation channel, and releases every attached
// waiter together on resolution or timeout.
type Coordinator struct {
	publisher Publisher
	config    Config
	logger    *slog.Logger

	mu       sync.Mutex
	pending  map[string]*Ticket // keyed by fingerprint
	byTicket map[string]*Ticket // keyed by ticket ID, pending only
}

// NewCoordinator creates a coordinator publishing to the given channel.
func NewCoordinator(publisher Publisher, config Config, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		publisher: publisher,
		config:    config,
		logger:    logger.With("component", "escalation.coordinator"),
		pending:   make(map[string]*Ticket),
		byTicket:  make(map[string]*Ticket),
	}
}

// Escalate returns the pending ticket for the request's fingerprint,
// creating and publishing one if none exists. At most one ticket exists per
// fingerprint at any time; concurrent duplicates attach to it instead of
// interrupting another expert. The second return reports whether this
// request opened a new ticket rather than attaching to a pending one.
func (c *Coordinator) Escalate(ctx context.Context, req *validation.Request) (*Ticket, bool, error) {
	fp := validation.EnsureFingerprint(req)

	c.mu.Lock()
	if ticket, ok := c.pending[fp]; ok {
		if ticket.attach(req.ID) {
			c.mu.Unlock()
			c.logger.Debug("attached to existing ticket",
				"ticket_id", ticket.ID,
				"fingerprint", fp,
				"request_id", req.ID,
			)
			return ticket, false, nil
		}
		// The ticket closed between map lookup and attach; fall through
		// and create a fresh one.
		delete(c.pending, fp)
		delete(c.byTicket, ticket.ID)
	}

	now := time.Now()
	ticket := &Ticket{
		ID:          uuid.NewString(),
		Fingerprint: fp,
		TargetPool:  c.config.TargetPool,
		CreatedAt:   now,
		Deadline:    now.Add(c.config.WaitBudget),
		status:      StatusPending,
		requestIDs:  []string{req.ID},
		resolved:    make(chan struct{}),
	}
	ticket.timer = time.AfterFunc(c.config.WaitBudget, func() {
		c.timeout(ticket)
	})
	c.pending[fp] = ticket
	c.byTicket[ticket.ID] = ticket
	c.mu.Unlock()

	err := c.publisher.Publish(ctx, &Request{
		TicketID:    ticket.ID,
		Fingerprint: fp,
		TargetPool:  ticket.TargetPool,
		Deadline:    ticket.Deadline,
		AgentID:     req.AgentID,
		Command:     req.Command,
		Paths:       req.Paths,
	})
	if err != nil {
		c.drop(ticket)
		return nil, false, fmt.Errorf("failed to publish escalation: %w", err)
	}

	c.logger.Info("escalation published",
		"ticket_id", ticket.ID,
		"fingerprint", fp,
		"target_pool", ticket.TargetPool,
		"deadline", ticket.Deadline,
	)

	return ticket, true, nil
}

// AwaitResolution blocks until the ticket resolves, times out, or the
// caller's context is cancelled. All waiters on one ticket observe the same
// outcome.
func (c *Coordinator) AwaitResolution(ctx context.Context, ticket *Ticket) (*Answer, error) {
	select {
	case <-ticket.Done():
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if ticket.Status() == StatusTimedOut {
		return nil, ErrTimedOut
	}
	return ticket.Answer(), nil
}

// Resolve delivers an expert answer (or an operator override) for a ticket.
// A late answer arriving after timeout is logged and discarded: decisions
// already returned are never retroactively changed.
func (c *Coordinator) Resolve(ticketID string, answer *Answer) error {
	c.mu.Lock()
	ticket, ok := c.byTicket[ticketID]
	c.mu.Unlock()

	if !ok {
		c.logger.Warn("answer for unknown or closed ticket discarded",
			"ticket_id", ticketID,
		)
		return fmt.Errorf("unknown ticket %q", ticketID)
	}

	answer.TicketID = ticketID
	if answer.ReceivedAt.IsZero() {
		answer.ReceivedAt = time.Now()
	}

	if !ticket.close(StatusResolved, answer) {
		c.logger.Warn("late answer after timeout discarded",
			"ticket_id", ticketID,
			"expert_id", answer.ExpertID,
		)
		return fmt.Errorf("ticket %q already closed", ticketID)
	}

	c.remove(ticket)

	c.logger.Info("escalation resolved",
		"ticket_id", ticketID,
		"approve", answer.Approve,
		"expert_id", answer.ExpertID,
		"waiters", len(ticket.RequestIDs()),
	)

	return nil
}

// PendingCount returns the number of open tickets.
func (c *Coordinator) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// timeout closes a ticket as timed out and releases its waiters.
func (c *Coordinator) timeout(ticket *Ticket) {
	if !ticket.close(StatusTimedOut, nil) {
		return
	}
	c.remove(ticket)

	c.logger.Warn("escalation timed out",
		"ticket_id", ticket.ID,
		"fingerprint", ticket.Fingerprint,
		"waiters", len(ticket.RequestIDs()),
	)
}

// drop removes a ticket that never made it onto the channel.
func (c *Coordinator) drop(ticket *Ticket) {
	ticket.close(StatusTimedOut, nil)
	c.remove(ticket)
}

// remove deletes the ticket from the pending tables.
func (c *Coordinator) remove(ticket *Ticket) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if current, ok := c.pending[ticket.Fingerprint]; ok && current == ticket {
		delete(c.pending, ticket.Fingerprint)
	}
	delete(c.byTicket, ticket.ID)
}
