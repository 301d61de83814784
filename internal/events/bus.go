// Package events provides an in-process event bus for decoupled listeners.
// Delivery is fire-and-forget: Publish returns before handlers run, handler
// failures are logged and dropped, and there is no retry or acknowledgment.
// A failed handler therefore cannot roll back state the publisher already
// committed; swapping in a durable broker or outbox behind the
// domain.EventPublisher port is the upgrade path if delivery guarantees are
// ever needed.
package events

import (
	"context"
	"log/slog"
	"sync"

	"memberaccounts/internal/domain"
)

// Bus is an in-memory event bus. Handlers run asynchronously, one goroutine
// per delivery.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]domain.EventHandler
	logger   *slog.Logger
	wg       sync.WaitGroup
}

// New returns an empty Bus that logs handler failures to logger.
func New(logger *slog.Logger) *Bus {
	return &Bus{
		handlers: make(map[string][]domain.EventHandler),
		logger:   logger,
	}
}

// Subscribe registers handler for events with the given name.
// Subscriptions are expected to happen during startup, before Publish is called.
func (b *Bus) Subscribe(eventName string, handler domain.EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventName] = append(b.handlers[eventName], handler)
	b.logger.Debug("subscribed to event", slog.String("event_name", eventName))
}

// Publish implements domain.EventPublisher. It dispatches the event to every
// subscribed handler on its own goroutine and returns immediately.
func (b *Bus) Publish(event domain.Event) {
	b.mu.RLock()
	handlers := b.handlers[event.EventName()]
	b.mu.RUnlock()

	b.logger.Debug("publishing event",
		slog.String("event_name", event.EventName()),
		slog.String("event_id", event.EventID()),
		slog.Int("handler_count", len(handlers)),
	)

	for _, handler := range handlers {
		b.wg.Add(1)
		go func(h domain.EventHandler) {
			defer b.wg.Done()
			defer func() {
				if rec := recover(); rec != nil {
					b.logger.Error("event handler panicked",
						slog.String("event_name", event.EventName()),
						slog.String("event_id", event.EventID()),
						slog.Any("panic", rec),
					)
				}
			}()
			if err := h.Handle(context.Background(), event); err != nil {
				b.logger.Error("event handler failed",
					slog.String("event_name", event.EventName()),
					slog.String("event_id", event.EventID()),
					slog.Any("error", err),
				)
			}
		}(handler)
	}
}

// Wait blocks until all in-flight deliveries finish. Used on shutdown and in tests.
func (b *Bus) Wait() {
	b.wg.Wait()
}
