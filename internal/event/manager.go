// internal/event/manager.go
package event

import (
	"sync"

	"github.com/bethropolis/ebb/internal/logger"
)

// Handler defines the function signature for event subscribers.
// It returns true if the event was consumed; remaining handlers are skipped.
type Handler func(e Event) bool

// Manager handles event subscriptions and dispatching. Handlers run
// synchronously on the dispatching goroutine, which is the main loop.
type Manager struct {
	mu       sync.RWMutex
	handlers map[Type][]Handler
}

// NewManager creates a new event manager.
func NewManager() *Manager {
	return &Manager{
		handlers: make(map[Type][]Handler),
	}
}

// Subscribe adds a handler function for a specific event type.
func (m *Manager) Subscribe(eventType Type, handler Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.handlers[eventType] = append(m.handlers[eventType], handler)
	logger.DebugTagf("event", "Event Manager: Handler subscribed to %s", eventType)
}

// Dispatch sends an event to all registered handlers for its type, in
// subscription order.
func (m *Manager) Dispatch(eventType Type, data interface{}) {
	if m == nil {
		return
	}
	e := Event{Type: eventType, Data: data}

	m.mu.RLock()
	handlers := make([]Handler, len(m.handlers[eventType]))
	copy(handlers, m.handlers[eventType])
	m.mu.RUnlock()

	for _, handler := range handlers {
		if handler(e) {
			break
		}
	}
}
