package event

import (
	"context"
	"encoding/json"

	"github.com/dealerdesk/backend/internal/domain/shared"
	"github.com/dealerdesk/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// AuditHandler writes every lifecycle event to the audit log stream
type AuditHandler struct {
	serializer *EventSerializer
	logger     *zap.Logger
}

// NewAuditHandler creates an audit handler logging under the "audit" name
func NewAuditHandler(serializer *EventSerializer, log *zap.Logger) *AuditHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuditHandler{serializer: serializer, logger: log.Named("audit")}
}

// EventTypes subscribes to every event
func (h *AuditHandler) EventTypes() []string {
	return nil
}

// Handle logs the event with its JSON payload and the request actor
func (h *AuditHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	payload, err := h.serializer.Serialize(event)
	if err != nil {
		return err
	}

	fields := []zap.Field{
		zap.String("event_id", event.EventID().String()),
		zap.String("event_type", event.EventType()),
		zap.String("aggregate_type", event.AggregateType()),
		zap.String("aggregate_id", event.AggregateID().String()),
		zap.Time("occurred_at", event.OccurredAt()),
		zap.Any("payload", json.RawMessage(payload)),
	}
	if requestID := logger.GetRequestID(ctx); requestID != "" {
		fields = append(fields, zap.String("request_id", requestID))
	}
	if userID := logger.GetUserID(ctx); userID != "" {
		fields = append(fields, zap.String("user_id", userID))
	}

	h.logger.Info("lifecycle event", fields...)
	return nil
}

var _ shared.EventHandler = (*AuditHandler)(nil)
