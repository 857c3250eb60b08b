package events

import (
	"context"
	"log/slog"
	"sync"
)

// InMemoryPublisher is a simple implementation of the Publisher interface
// that keeps registered handlers in memory and dispatches events to them
// synchronously.
type InMemoryPublisher struct {
	handlers []Handler
	mu       sync.RWMutex
	logger   *slog.Logger
}

// NewInMemoryPublisher creates a new instance of InMemoryPublisher.
// If logger is nil, a default logger will be used.
func NewInMemoryPublisher(logger *slog.Logger) *InMemoryPublisher {
	if logger == nil {
		logger = slog.Default()
	}

	return &InMemoryPublisher{
		handlers: make([]Handler, 0),
		logger:   logger.With(slog.String("component", "session_event_publisher")),
	}
}

// Ensure InMemoryPublisher implements Publisher interface
var _ Publisher = (*InMemoryPublisher)(nil)

// Subscribe adds a new handler to receive session events.
func (p *InMemoryPublisher) Subscribe(handler Handler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers = append(p.handlers, handler)
	p.logger.Debug("registered session event handler",
		slog.Int("handler_count", len(p.handlers)))
}

// Publish delivers the given event to all registered handlers.
// If any handler returns an error, the event is still delivered to all other
// handlers, and the first error encountered is returned.
func (p *InMemoryPublisher) Publish(ctx context.Context, event *SessionEvent) error {
	p.mu.RLock()
	handlers := make([]Handler, len(p.handlers))
	copy(handlers, p.handlers)
	p.mu.RUnlock()

	p.logger.Debug("publishing session event",
		slog.String("event_id", event.ID.String()),
		slog.String("user_id", event.UserID.String()),
		slog.Int("handler_count", len(handlers)))

	if len(handlers) == 0 {
		return nil
	}

	var firstErr error
	for i, handler := range handlers {
		if err := handler.HandleSessionEvent(ctx, event); err != nil {
			p.logger.Error("handler failed to process session event",
				slog.String("error", err.Error()),
				slog.Int("handler_index", i),
				slog.String("event_id", event.ID.String()),
				slog.String("user_id", event.UserID.String()))
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	return firstErr
}
