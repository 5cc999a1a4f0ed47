package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Store persists events append-only.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByIssuer(ctx context.Context, issuer string) ([]Event, error)
}

// Publisher captures structured audit events. It is append-only and uses the
// storage layer for persistence so tests can swap sinks easily.
type Publisher struct {
	store Store
}

func NewPublisher(store Store) *Publisher {
	return &Publisher{store: store}
}

func (p *Publisher) Emit(ctx context.Context, base Event) error {
	return p.store.Append(ctx, stamp(base))
}

func (p *Publisher) List(ctx context.Context, issuer string) ([]Event, error) {
	return p.store.ListByIssuer(ctx, issuer)
}

// QueuePublisher hands events to a background Worker instead of persisting
// inline. Drops on a full inbox rather than blocking the operation path.
type QueuePublisher struct {
	inbox chan<- Event
}

func NewQueuePublisher(inbox chan<- Event) *QueuePublisher {
	return &QueuePublisher{inbox: inbox}
}

func (p *QueuePublisher) Emit(ctx context.Context, base Event) error {
	select {
	case p.inbox <- stamp(base):
		return nil
	default:
		return errors.New("audit queue full")
	}
}

// stamp assigns the ID and timestamp an event must carry before it reaches
// any sink. Values already set by the caller are preserved.
func stamp(event Event) Event {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	return event
}
