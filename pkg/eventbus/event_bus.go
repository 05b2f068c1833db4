// Package eventbus carries domain events between the services and their subscribers.
package eventbus

import (
	"context"
	"fmt"

	"github.com/dukex/fuzzie/pkg/events"
)

type Event interface {
	GetType() events.EventType
}

// EventPublisher is what the services need: publish after commit, keyed by the aggregate id
// so events of one team or workflow keep their order on partitioned transports.
type EventPublisher interface {
	Publish(ctx context.Context, key string, event Event) error
}

type EventSubscriber interface {
	// Handle registers the handler of eventType. Register before Subscribe.
	Handle(eventType events.EventType, handler EventHandler) error
	Subscribe(ctx context.Context) error
}

// EventHandler receives the decoded event, a pointer to the type events.New returns.
type EventHandler func(ctx context.Context, event any) error

type EventBus interface {
	EventPublisher
	EventSubscriber
	Close() error
	GenerateID() string
}

// Typed adapts fn to an EventHandler. Any other event type is an error and the message is
// redelivered.
func Typed[T any](fn func(ctx context.Context, event T) error) EventHandler {
	return func(ctx context.Context, event any) error {
		typed, ok := event.(T)
		if !ok {
			return fmt.Errorf("unexpected event %T", event)
		}

		return fn(ctx, typed)
	}
}
