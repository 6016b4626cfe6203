// Package events provides the in-process event bus the domain modules use to
// talk to each other without importing one another.
// This is part of the platform layer and contains no business logic.
package events

import (
	"context"
	"time"
)

// Event is implemented by every domain event.
type Event interface {
	// EventName uniquely identifies the event type, e.g. "leads.lead.completed".
	EventName() string
	// OccurredAt reports when the event was raised.
	OccurredAt() time.Time
}

// BaseEvent carries the fields shared by all events; embed it in event structs.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }

// NewBaseEvent stamps a base event with the current time.
func NewBaseEvent() BaseEvent {
	return BaseEvent{Timestamp: time.Now()}
}

// Handler consumes events of one type.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Bus publishes and subscribes to domain events.
type Bus interface {
	// Publish dispatches the event to all subscribed handlers asynchronously.
	// Handler errors are logged by the bus, never returned to the publisher.
	Publish(ctx context.Context, event Event)

	// PublishSync dispatches inline and returns the first handler error.
	PublishSync(ctx context.Context, event Event) error

	// Subscribe registers a handler for the event name, which must match the
	// value returned by Event.EventName().
	Subscribe(eventName string, handler Handler)
}
