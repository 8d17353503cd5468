package events

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type Event interface {
	EventType() string
	EventID() string
	OccurredAt() time.Time
}

type Handler func(ctx context.Context, event Event) error

// Bus fans events out to the handlers subscribed to their type.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	logger   *slog.Logger
	wg       sync.WaitGroup
}

func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		handlers: make(map[string][]Handler),
		logger:   logger,
	}
}

func (b *Bus) Subscribe(eventType string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)
	b.logger.Debug("event handler registered",
		"event_type", eventType,
		"total_handlers", len(b.handlers[eventType]))
}

func (b *Bus) subscribers(eventType string) []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]Handler(nil), b.handlers[eventType]...)
}

// Publish runs every handler in its own goroutine. Handler errors are logged
// and never reach the publisher. The handlers get a context detached from
// the caller's cancellation.
func (b *Bus) Publish(ctx context.Context, event Event) {
	handlers := b.subscribers(event.EventType())
	if len(handlers) == 0 {
		return
	}

	detached := context.WithoutCancel(ctx)
	for _, h := range handlers {
		b.wg.Add(1)
		go func(h Handler) {
			defer b.wg.Done()
			if err := h(detached, event); err != nil {
				b.logger.Error("event handler failed",
					"event_type", event.EventType(),
					"event_id", event.EventID(),
					"error", err)
			}
		}(h)
	}
}

// Wait blocks until handlers started by Publish have returned.
func (b *Bus) Wait() {
	b.wg.Wait()
}
