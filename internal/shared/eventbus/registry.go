package eventbus

import (
	"context"
	"sort"
	"sync"
)

// Handler processes the payload of one delivered event. A returned error is
// logged; it never affects the ack decision or sibling handlers.
type Handler func(ctx context.Context, payload map[string]any) error

// Registry maps event types to handler lists. It is append-only: services
// register handlers during startup and never remove them. Lookup is the sole
// dispatch mechanism; there is no wildcard matching.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string][]Handler)}
}

// Register appends a handler for the event type. Handlers run in
// registration order.
func (r *Registry) Register(eventType string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[eventType] = append(r.handlers[eventType], h)
}

// Handlers returns the handlers registered for the event type, in
// registration order. The returned slice is a copy.
func (r *Registry) Handlers(eventType string) []Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Handler(nil), r.handlers[eventType]...)
}

// EventTypes lists every registered event type, sorted.
func (r *Registry) EventTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.handlers))
	for t := range r.handlers {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
