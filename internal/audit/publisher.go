package audit

import (
	"context"
	"time"
)

// Store is the append-only persistence contract for audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByProject(ctx context.Context, projectID string) ([]Event, error)
}

// Publisher hands audit events to the background worker over a channel, so
// persistence never sits inside a committed mutation's latency.
type Publisher struct {
	inbox chan<- Event
}

func NewPublisher(inbox chan<- Event) *Publisher {
	return &Publisher{inbox: inbox}
}

// Emit enqueues an event, stamping the time if the caller did not. It blocks
// only while the inbox is full, and gives up when ctx is done.
func (p *Publisher) Emit(ctx context.Context, base Event) error {
	if base.Timestamp.IsZero() {
		base.Timestamp = time.Now()
	}
	select {
	case p.inbox <- base:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
