package escalation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"sentinel-hq/ceres/pkg/validation"
)

func newTestCoordinator(t *testing.T, budget time.Duration) (*Coordinator, *InMemoryChannel) {
	t.Helper()
	ch := NewInMemoryChannel(16)
	c := NewCoordinator(ch, Config{TargetPool: "sec-review", WaitBudget: budget}, nil)
	return c, ch
}

func escReq(id, fp string) *validation.Request {
	return &validation.Request{
		ID:          id,
		AgentID:     "agent-1",
		Command:     "terraform apply",
		Fingerprint: fp,
	}
}

func TestCoordinator_EscalateAndResolve(t *testing.T) {
	c, ch := newTestCoordinator(t, time.Second)

	ticket, created, err := c.Escalate(context.Background(), escReq("r1", "fp1"))
	if err != nil {
		t.Fatalf("Escalate failed: %v", err)
	}
	if !created {
		t.Error("Expected the first escalation to open a new ticket")
	}
	if ticket.Status() != StatusPending {
		t.Fatalf("Expected pending ticket, got %s", ticket.Status())
	}

	// The request reached the elicitation channel.
	select {
	case published := <-ch.Requests():
		if published.TicketID != ticket.ID {
			t.Errorf("Expected published ticket ID %q, got %q", ticket.ID, published.TicketID)
		}
		if published.TargetPool != "sec-review" {
			t.Errorf("Expected target pool, got %q", published.TargetPool)
		}
	default:
		t.Fatal("Expected a published escalation request")
	}

	// Expert answers.
	go func() {
		time.Sleep(20 * time.Millisecond)
		_ = c.Resolve(ticket.ID, &Answer{Approve: true, ExpertID: "alice"})
	}()

	answer, err := c.AwaitResolution(context.Background(), ticket)
	if err != nil {
		t.Fatalf("AwaitResolution failed: %v", err)
	}
	if !answer.Approve {
		t.Error("Expected an approving answer")
	}
	if ticket.Status() != StatusResolved {
		t.Errorf("Expected resolved, got %s", ticket.Status())
	}
	if c.PendingCount() != 0 {
		t.Errorf("Expected no pending tickets, got %d", c.PendingCount())
	}
}

func TestCoordinator_DeduplicatesConcurrentEscalations(t *testing.T) {
	c, _ := newTestCoordinator(t, time.Second)

	const waiters = 20
	tickets := make([]*Ticket, waiters)
	answers := make([]*Answer, waiters)
	errs := make([]error, waiters)
	var opened atomic.Int32

	var wg sync.WaitGroup
	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			ticket, created, err := c.Escalate(context.Background(), escReq(fmt.Sprintf("r%d", n), "shared-fp"))
			if err != nil {
				errs[n] = err
				return
			}
			if created {
				opened.Add(1)
			}
			tickets[n] = ticket
			answers[n], errs[n] = c.AwaitResolution(context.Background(), ticket)
		}(i)
	}

	// Let the escalations land, then answer once.
	time.Sleep(50 * time.Millisecond)
	if c.PendingCount() != 1 {
		t.Fatalf("Expected exactly one pending ticket, got %d", c.PendingCount())
	}
	first := tickets[0]
	if err := c.Resolve(first.ID, &Answer{Approve: false, ExpertID: "bob"}); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	wg.Wait()

	for i := 0; i < waiters; i++ {
		if errs[i] != nil {
			t.Fatalf("waiter %d failed: %v", i, errs[i])
		}
		if tickets[i].ID != first.ID {
			t.Fatal("Expected all waiters to share one ticket")
		}
		if answers[i].Approve {
			t.Fatal("Expected every waiter to observe the same denial")
		}
	}

	if got := len(first.RequestIDs()); got != waiters {
		t.Errorf("Expected %d attached requests, got %d", waiters, got)
	}
	if got := opened.Load(); got != 1 {
		t.Errorf("Expected exactly one escalation to open the ticket, got %d", got)
	}
}

func TestCoordinator_Timeout(t *testing.T) {
	c, _ := newTestCoordinator(t, 50*time.Millisecond)

	ticket, _, err := c.Escalate(context.Background(), escReq("r1", "fp-timeout"))
	if err != nil {
		t.Fatalf("Escalate failed: %v", err)
	}

	_, err = c.AwaitResolution(context.Background(), ticket)
	if !errors.Is(err, ErrTimedOut) {
		t.Fatalf("Expected ErrTimedOut, got %v", err)
	}
	if ticket.Status() != StatusTimedOut {
		t.Errorf("Expected timed_out, got %s", ticket.Status())
	}
	if c.PendingCount() != 0 {
		t.Errorf("Expected ticket removed after timeout, got %d pending", c.PendingCount())
	}
}

func TestCoordinator_LateAnswerDiscarded(t *testing.T) {
	c, _ := newTestCoordinator(t, 30*time.Millisecond)

	ticket, _, err := c.Escalate(context.Background(), escReq("r1", "fp-late"))
	if err != nil {
		t.Fatalf("Escalate failed: %v", err)
	}

	if _, err := c.AwaitResolution(context.Background(), ticket); !errors.Is(err, ErrTimedOut) {
		t.Fatalf("Expected timeout, got %v", err)
	}

	// The late answer must not change the ticket.
	if err := c.Resolve(ticket.ID, &Answer{Approve: true, ExpertID: "late"}); err == nil {
		t.Error("Expected late answer to be rejected")
	}
	if ticket.Status() != StatusTimedOut {
		t.Errorf("Expected status unchanged, got %s", ticket.Status())
	}
	if ticket.Answer() != nil {
		t.Error("Expected no answer on a timed out ticket")
	}
}

func TestCoordinator_NewTicketAfterResolution(t *testing.T) {
	c, _ := newTestCoordinator(t, time.Second)
	ctx := context.Background()

	first, _, err := c.Escalate(ctx, escReq("r1", "fp"))
	if err != nil {
		t.Fatalf("Escalate failed: %v", err)
	}
	if err := c.Resolve(first.ID, &Answer{Approve: true}); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	second, created, err := c.Escalate(ctx, escReq("r2", "fp"))
	if err != nil {
		t.Fatalf("Escalate failed: %v", err)
	}
	if !created {
		t.Error("Expected a new ticket to be opened, not an attach")
	}
	if second.ID == first.ID {
		t.Error("Expected a fresh ticket after the previous one resolved")
	}
}

func TestCoordinator_PublishFailure(t *testing.T) {
	c := NewCoordinator(failingPublisher{}, Config{TargetPool: "p", WaitBudget: time.Second}, nil)

	if _, _, err := c.Escalate(context.Background(), escReq("r1", "fp")); err == nil {
		t.Fatal("Expected publish failure to surface")
	}
	if c.PendingCount() != 0 {
		t.Errorf("Expected no pending ticket after publish failure, got %d", c.PendingCount())
	}
}

func TestCoordinator_AwaitCancellable(t *testing.T) {
	c, _ := newTestCoordinator(t, time.Second)

	ticket, _, err := c.Escalate(context.Background(), escReq("r1", "fp"))
	if err != nil {
		t.Fatalf("Escalate failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	if _, err := c.AwaitResolution(ctx, ticket); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context cancellation, got %v", err)
	}
}

type failingPublisher struct{}

func (failingPublisher) Publish(ctx context.Context, req *Request) error {
	return errors.New("channel unavailable")
}
