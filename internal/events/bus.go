// Package events is a small in-process handler registry. It stands in for
// the media controller's event system so slide_player entries and widget
// control events can be wired and exercised locally.
package events

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handler reacts to a posted event
type Handler func(ctx context.Context, kwargs map[string]any) error

// Key identifies a registered handler
type Key string

type registration struct {
	key     Key
	handler Handler
}

// Bus dispatches posted events to registered handlers
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]registration
	events   map[Key]string
	logger   *zap.Logger
}

// NewBus creates an empty Bus
func NewBus(logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{
		handlers: make(map[string][]registration),
		events:   make(map[Key]string),
		logger:   logger,
	}
}

// Add registers handler for event and returns a key that removes it
func (b *Bus) Add(event string, handler Handler) Key {
	key := Key(uuid.NewString())

	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[event] = append(b.handlers[event], registration{key: key, handler: handler})
	b.events[key] = event
	return key
}

// Remove unregisters the handler with the given key
func (b *Bus) Remove(key Key) {
	b.mu.Lock()
	defer b.mu.Unlock()

	event, ok := b.events[key]
	if !ok {
		return
	}
	delete(b.events, key)

	regs := b.handlers[event]
	for i, r := range regs {
		if r.key == key {
			regs = append(regs[:i], regs[i+1:]...)
			break
		}
	}
	if len(regs) == 0 {
		delete(b.handlers, event)
	} else {
		b.handlers[event] = regs
	}
}

// Exists reports whether any handler is registered for event
func (b *Bus) Exists(event string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[event]) > 0
}

// Post calls every handler registered for event in registration order.
// Handler errors are logged and the first one is returned after all
// handlers have run.
func (b *Bus) Post(ctx context.Context, event string, kwargs map[string]any) error {
	b.mu.RLock()
	regs := make([]registration, len(b.handlers[event]))
	copy(regs, b.handlers[event])
	b.mu.RUnlock()

	b.logger.Debug("posting event", zap.String("event", event), zap.Int("handlers", len(regs)))

	var firstErr error
	for _, r := range regs {
		if err := r.handler(ctx, kwargs); err != nil {
			b.logger.Warn("event handler failed", zap.String("event", event), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
