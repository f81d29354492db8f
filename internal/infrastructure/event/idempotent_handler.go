package event

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/dealerdesk/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// DefaultDeliveryTTL bounds how long a delivered event ID is remembered
const DefaultDeliveryTTL = 24 * time.Hour

// IdempotencyStats is a snapshot of idempotent handler counters
type IdempotencyStats struct {
	EventsProcessed int64 `json:"events_processed"`
	EventsDuplicate int64 `json:"events_duplicate"`
	EventsFailed    int64 `json:"events_failed"`
}

// IdempotentHandler wraps an EventHandler so each event ID is handled once
type IdempotentHandler struct {
	handler shared.EventHandler
	store   shared.IdempotencyStore
	ttl     time.Duration
	logger  *zap.Logger

	processed atomic.Int64
	duplicate atomic.Int64
	failed    atomic.Int64
}

// NewIdempotentHandler wraps handler. A non-positive ttl uses DefaultDeliveryTTL.
func NewIdempotentHandler(handler shared.EventHandler, store shared.IdempotencyStore, ttl time.Duration, logger *zap.Logger) *IdempotentHandler {
	if ttl <= 0 {
		ttl = DefaultDeliveryTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IdempotentHandler{handler: handler, store: store, ttl: ttl, logger: logger}
}

// EventTypes returns the wrapped handler's event types
func (h *IdempotentHandler) EventTypes() []string {
	return h.handler.EventTypes()
}

// Handle runs the wrapped handler unless the event was already delivered.
// A failing store lets the event through.
func (h *IdempotentHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	key := "event:" + event.EventID().String()

	isNew, err := h.store.MarkProcessed(ctx, key, h.ttl)
	switch {
	case err != nil:
		h.logger.Warn("idempotency check failed, processing anyway",
			zap.String("event_id", event.EventID().String()),
			zap.String("event_type", event.EventType()),
			zap.Error(err),
		)
	case !isNew:
		h.duplicate.Add(1)
		h.logger.Debug("duplicate event skipped",
			zap.String("event_id", event.EventID().String()),
			zap.String("event_type", event.EventType()),
		)
		return nil
	}

	if err := h.handler.Handle(ctx, event); err != nil {
		h.failed.Add(1)
		if releaseErr := h.store.Release(ctx, key); releaseErr != nil {
			h.logger.Warn("failed to release idempotency key", zap.String("key", key), zap.Error(releaseErr))
		}
		return err
	}
	h.processed.Add(1)
	return nil
}

// Stats returns a snapshot of the handler counters
func (h *IdempotentHandler) Stats() IdempotencyStats {
	return IdempotencyStats{
		EventsProcessed: h.processed.Load(),
		EventsDuplicate: h.duplicate.Load(),
		EventsFailed:    h.failed.Load(),
	}
}

var _ shared.EventHandler = (*IdempotentHandler)(nil)
