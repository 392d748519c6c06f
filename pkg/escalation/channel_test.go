package escalation

import (
	"context"
	"fmt"
	"sync"
	"testing"
)

func TestInMemoryChannel_PublishAfterCloseFails(t *testing.T) {
	ch := NewInMemoryChannel(4)
	ch.Close()

	if err := ch.Publish(context.Background(), &Request{TicketID: "t1"}); err == nil {
		t.Fatal("Expected publish on a closed channel to fail")
	}
}

func TestInMemoryChannel_FullBufferIsError(t *testing.T) {
	ch := NewInMemoryChannel(1)

	if err := ch.Publish(context.Background(), &Request{TicketID: "t1"}); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if err := ch.Publish(context.Background(), &Request{TicketID: "t2"}); err == nil {
		t.Fatal("Expected a full buffer to be a publish failure")
	}
}

func TestInMemoryChannel_ConcurrentPublishClose(t *testing.T) {
	// Publishers racing Close must either enqueue or get an error back;
	// the process must never panic on a closed channel send.
	for i := 0; i < 500; i++ {
		ch := NewInMemoryChannel(2)

		var wg sync.WaitGroup
		for p := 0; p < 4; p++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				_ = ch.Publish(context.Background(), &Request{TicketID: fmt.Sprintf("t%d", n)})
			}(p)
		}
		ch.Close()
		wg.Wait()

		if err := ch.Publish(context.Background(), &Request{TicketID: "late"}); err == nil {
			t.Fatal("Expected publish after close to fail")
		}
	}
}
