package domain

import (
	"context"
	"time"
)

// Event names published on the bus.
const (
	EventMemberCreated = "member.created"
)

// Event is a domain event that can be published on the event bus.
type Event interface {
	EventName() string
	EventID() string
}

// MemberCreatedEvent signals that a member was created and committed.
// It is ephemeral: not persisted, delivered to each subscribed handler at
// most once, and its handling is decoupled from the creation transaction.
type MemberCreatedEvent struct {
	ID         string    `json:"event_id"`
	OccurredAt time.Time `json:"occurred_at"`
	Member     Member    `json:"member"`
}

func (e MemberCreatedEvent) EventName() string { return EventMemberCreated }
func (e MemberCreatedEvent) EventID() string   { return e.ID }

// EventPublisher hands events to decoupled listeners and returns immediately.
// Publishing is one-way: the publisher is never informed of handler success
// or failure, and there is no retry or acknowledgment path.
type EventPublisher interface {
	Publish(event Event)
}

// EventHandler consumes a published event. Errors are logged by the bus and
// never reach the publishing caller.
type EventHandler interface {
	Handle(ctx context.Context, event Event) error
}

// EventHandlerFunc adapts an ordinary function to an EventHandler.
type EventHandlerFunc func(ctx context.Context, event Event) error

func (f EventHandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}
