package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Topic constants for domain events emitted by the engine's collaborators.
const (
	TopicOrderCreated       = "order.created"
	TopicOrderStatusChanged = "order.status_changed"
	TopicSettingsUpdated    = "settings.updated"
)

// Event is an in-process notification. It carries no payload; subscribers
// reload whatever state they need, which keeps handlers idempotent.
type Event struct {
	Topic      string
	OrderID    uuid.UUID
	OccurredAt time.Time
}

// Handler reacts to a published event. Handlers must not block; long work
// belongs in the worker.
type Handler func(ctx context.Context, ev Event)

// Bus fans events out to in-process subscribers. Zero value is usable.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

// Subscribe registers a handler for a topic.
func (b *Bus) Subscribe(topic string, h Handler) {
	if b == nil || topic == "" || h == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.handlers == nil {
		b.handlers = make(map[string][]Handler)
	}
	b.handlers[topic] = append(b.handlers[topic], h)
}

// Publish delivers the event synchronously to every subscriber of its topic.
func (b *Bus) Publish(ctx context.Context, ev Event) {
	if b == nil {
		return
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now()
	}
	b.mu.RLock()
	subscribers := append([]Handler(nil), b.handlers[ev.Topic]...)
	b.mu.RUnlock()
	for _, h := range subscribers {
		h(ctx, ev)
	}
}
