package events

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"github.com/phrazzld/degreeplan-api/internal/platform/logger"
)

// InMemoryEventEmitter delivers each event to every registered handler on
// the caller's goroutine.
type InMemoryEventEmitter struct {
	mu       sync.RWMutex
	handlers []EventHandler
	logger   *slog.Logger
}

func NewInMemoryEventEmitter(l *slog.Logger) *InMemoryEventEmitter {
	if l == nil {
		l = slog.Default()
	}
	return &InMemoryEventEmitter{logger: l.With("component", "event_emitter")}
}

func (e *InMemoryEventEmitter) RegisterHandler(handler EventHandler) {
	e.mu.Lock()
	e.handlers = append(e.handlers, handler)
	n := len(e.handlers)
	e.mu.Unlock()

	e.logger.Debug("event handler registered", "handler_count", n)
}

// EmitEvent runs every handler even when an earlier one fails. The
// returned error joins all handler failures.
func (e *InMemoryEventEmitter) EmitEvent(ctx context.Context, event *TaskRequestEvent) error {
	log := logger.FromContextOrDefault(ctx, e.logger).With(
		"event_id", event.ID,
		"event_type", event.Type)

	e.mu.RLock()
	handlers := slices.Clone(e.handlers)
	e.mu.RUnlock()

	if len(handlers) == 0 {
		log.Warn("event dropped, no handlers registered")
		return nil
	}

	var errs []error
	for i, h := range handlers {
		if err := h.HandleEvent(ctx, event); err != nil {
			log.Error("event handler failed", "handler_index", i, "error", err)
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		log.Debug("event delivered", "handler_count", len(handlers))
	}
	return errors.Join(errs...)
}

var _ EventEmitter = (*InMemoryEventEmitter)(nil)
