package eventing

import (
	"context"
	"sync"
)

// Handler consumes one decoded event.
type Handler func(ctx context.Context, event any) error

// InMemoryBus is an in-process event bus keyed by event type name.
type InMemoryBus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

// NewInMemoryBus constructs a new bus.
func NewInMemoryBus() *InMemoryBus {
	return &InMemoryBus{handlers: make(map[string][]Handler)}
}

// Subscribe registers a handler for eventType.
func (b *InMemoryBus) Subscribe(eventType string, handler Handler) {
	if handler == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// Publish delivers event to every handler subscribed to its type. The first
// handler error stops delivery.
func (b *InMemoryBus) Publish(ctx context.Context, event any) error {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers[TypeName(event)]...)
	b.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			return err
		}
	}
	return nil
}
