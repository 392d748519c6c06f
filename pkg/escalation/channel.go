package escalation

import (
	"context"
	"fmt"
	"sync"
)

// InMemoryChannel is a Publisher backed by a buffered channel. It stands in
// for the external event-sourced elicitation system in local deployments
// and tests: published requests are consumed from Requests(), and answers
// are fed back through the coordinator's Resolve.
type InMemoryChannel struct {
	mu       sync.Mutex
	requests chan *Request
	closed   bool
}

// NewInMemoryChannel creates a channel with the given buffer size.
func NewInMemoryChannel(buffer int) *InMemoryChannel {
	if buffer <= 0 {
		buffer = 64
	}
	return &InMemoryChannel{
		requests: make(chan *Request, buffer),
	}
}

// Publish enqueues a request for a reviewer. A full buffer is a publish
// failure, not a silent drop, so it counts against the escalation breaker.
func (ch *InMemoryChannel) Publish(ctx context.Context, req *Request) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// The mutex is held across the send so a concurrent Close cannot close
	// the channel between the closed check and the send. The send never
	// blocks: a full buffer takes the default branch.
	ch.mu.Lock()
	defer ch.mu.Unlock()

	if ch.closed {
		return fmt.Errorf("elicitation channel closed")
	}

	select {
	case ch.requests <- req:
		return nil
	default:
		return fmt.Errorf("elicitation channel full (%d pending)", cap(ch.requests))
	}
}

// Requests returns the stream of published escalation requests.
func (ch *InMemoryChannel) Requests() <-chan *Request {
	return ch.requests
}

// Close stops the channel from accepting new requests.
func (ch *InMemoryChannel) Close() {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	if !ch.closed {
		ch.closed = true
		close(ch.requests)
	}
}
