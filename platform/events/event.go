// Package events provides the in-process event bus used for decoupled
// communication between pipeline stages. This is part of the platform
// layer and contains no business logic.
package events

import (
	"context"
	"time"
)

// Event is implemented by every domain event.
type Event interface {
	// EventName uniquely identifies the event type and doubles as the
	// subscription key.
	EventName() string
	// OccurredAt returns when the event happened.
	OccurredAt() time.Time
}

// BaseEvent carries the fields shared by all events; embed it.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// NewBaseEvent stamps a new event with the current time.
func NewBaseEvent() BaseEvent {
	return BaseEvent{Timestamp: time.Now()}
}

// Handler processes events of one type.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Bus publishes domain events to subscribed handlers.
type Bus interface {
	// Publish delivers the event to every handler subscribed to its name.
	// Handlers run asynchronously; publish never blocks the caller.
	Publish(ctx context.Context, event Event)

	// PublishSync delivers the event and waits for every handler,
	// aggregating their errors.
	PublishSync(ctx context.Context, event Event) error

	// Subscribe registers a handler under an event name, matching the
	// value the event's EventName returns.
	Subscribe(eventName string, handler Handler)
}
