// Package events provides the explicit observer registration used by all
// managers to deliver lifecycle notifications to the presentation layer.
package events

import (
	"sync"

	"github.com/google/uuid"

	"ewt/internal/model"
)

// Handler receives one event. Handlers are invoked synchronously in
// registration order and must not block.
type Handler func(model.Event)

// Bus fans events out to registered handlers. Publish order is delivery
// order; managers publish only after their state mutation completes and
// never while holding their own locks.
type Bus struct {
	mu       sync.RWMutex
	handlers []subscription
}

type subscription struct {
	id string
	fn Handler
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a handler and returns a token for Unsubscribe.
func (b *Bus) Subscribe(fn Handler) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := uuid.NewString()
	b.handlers = append(b.handlers, subscription{id: id, fn: fn})
	return id
}

// Unsubscribe removes a previously registered handler. Unknown tokens are
// ignored.
func (b *Bus) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, s := range b.handlers {
		if s.id == id {
			b.handlers = append(b.handlers[:i], b.handlers[i+1:]...)
			return
		}
	}
}

// Publish delivers an event to every handler in registration order.
func (b *Bus) Publish(evt model.Event) {
	b.mu.RLock()
	subs := make([]subscription, len(b.handlers))
	copy(subs, b.handlers)
	b.mu.RUnlock()

	for _, s := range subs {
		s.fn(evt)
	}
}
