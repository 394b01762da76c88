package shared

import "context"

// EventHandler handles domain events
type EventHandler interface {
	// Handle processes a domain event
	Handle(ctx context.Context, event DomainEvent) error
	// EventTypes returns the event types this handler is interested in.
	// An empty slice means the handler receives all events.
	EventTypes() []string
}

// EventPublisher publishes domain events
type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}

// EventSubscriber subscribes to domain events
type EventSubscriber interface {
	Subscribe(handler EventHandler, eventTypes ...string)
	Unsubscribe(handler EventHandler)
}

// EventBus combines publisher and subscriber capabilities
type EventBus interface {
	EventPublisher
	EventSubscriber
}

// AggregateEvents drains the pending events of each aggregate in order.
// Callers publish the result once the unit of work has committed.
func AggregateEvents(aggs ...interface {
	GetDomainEvents() []DomainEvent
	ClearDomainEvents()
}) []DomainEvent {
	var out []DomainEvent
	for _, a := range aggs {
		out = append(out, a.GetDomainEvents()...)
		a.ClearDomainEvents()
	}
	return out
}
