package event

import (
	"context"

	"github.com/dealerdesk/backend/internal/domain/dealership"
	"github.com/dealerdesk/backend/internal/domain/deposit"
	"github.com/dealerdesk/backend/internal/domain/shared"
	"github.com/dealerdesk/backend/internal/domain/shared/valueobject"
	"github.com/dealerdesk/backend/internal/domain/subscription"
)

// LifecycleMetrics receives business measurements derived from events
type LifecycleMetrics interface {
	RecordApprovalDecision(ctx context.Context, entity, decision string)
	RecordDeposit(ctx context.Context, method string, amount valueobject.Money)
	RecordSubscriptionTransition(ctx context.Context, from, to string)
	RecordSubscriptionPayment(ctx context.Context, method, status string, amount valueobject.Money)
	RecordRefund(ctx context.Context, amount valueobject.Money)
}

// MetricsHandler turns lifecycle events into business metrics
type MetricsHandler struct {
	metrics LifecycleMetrics
}

// NewMetricsHandler creates a MetricsHandler
func NewMetricsHandler(metrics LifecycleMetrics) *MetricsHandler {
	return &MetricsHandler{metrics: metrics}
}

// EventTypes lists the events that carry measurements
func (h *MetricsHandler) EventTypes() []string {
	return []string{
		dealership.EventTypeDealershipStatusChanged,
		deposit.EventTypeDepositRecorded,
		deposit.EventTypeDepositStatusChanged,
		subscription.EventTypeSubscriptionStatusChanged,
		subscription.EventTypePaymentRecorded,
		subscription.EventTypePaymentRefunded,
	}
}

// Handle records the measurement for a single event
func (h *MetricsHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *dealership.StatusChangedEvent:
		if e.OldStatus == dealership.StatusPending {
			h.metrics.RecordApprovalDecision(ctx, "dealership", decisionFor(e.NewStatus == dealership.StatusActive))
		}
	case *deposit.RecordedEvent:
		h.metrics.RecordDeposit(ctx, string(e.Method), e.Amount)
	case *deposit.StatusChangedEvent:
		h.metrics.RecordApprovalDecision(ctx, "deposit", decisionFor(e.NewStatus == deposit.StatusApproved))
	case *subscription.StatusChangedEvent:
		h.metrics.RecordSubscriptionTransition(ctx, e.OldStatus.String(), e.NewStatus.String())
	case *subscription.PaymentRecordedEvent:
		h.metrics.RecordSubscriptionPayment(ctx, string(e.Method), string(e.Status), e.Amount)
	case *subscription.PaymentRefundedEvent:
		h.metrics.RecordRefund(ctx, e.Amount)
	}
	return nil
}

func decisionFor(approved bool) string {
	if approved {
		return "approved"
	}
	return "rejected"
}

var _ shared.EventHandler = (*MetricsHandler)(nil)
