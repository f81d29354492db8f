package subscription

import (
	"time"

	"github.com/dealerdesk/backend/internal/domain/shared"
	"github.com/dealerdesk/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// Aggregate type constant
const AggregateTypeSubscription = "Subscription"

// Event type constants
const (
	EventTypeSubscriptionCreated       = "SubscriptionCreated"
	EventTypeSubscriptionRenewed       = "SubscriptionRenewed"
	EventTypeSubscriptionStatusChanged = "SubscriptionStatusChanged"
	EventTypePaymentRecorded           = "SubscriptionPaymentRecorded"
	EventTypePaymentRefunded           = "SubscriptionPaymentRefunded"
)

// CreatedEvent is published when a plan is selected for a dealership
type CreatedEvent struct {
	shared.BaseDomainEvent
	SubscriptionID uuid.UUID         `json:"subscription_id"`
	DealershipID   uuid.UUID         `json:"dealership_id"`
	PlanID         uuid.UUID         `json:"plan_id"`
	Amount         valueobject.Money `json:"amount"`
	StartDate      valueobject.Date  `json:"start_date"`
	EndDate        valueobject.Date  `json:"end_date"`
}

// NewCreatedEvent creates a new CreatedEvent
func NewCreatedEvent(s *Subscription, at time.Time) *CreatedEvent {
	return &CreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSubscriptionCreated, AggregateTypeSubscription, s.ID, at),
		SubscriptionID:  s.ID,
		DealershipID:    s.DealershipID,
		PlanID:          s.PlanID,
		Amount:          s.Amount,
		StartDate:       s.StartDate,
		EndDate:         s.EndDate,
	}
}

// RenewedEvent is published when a subscription starts a new term
type RenewedEvent struct {
	shared.BaseDomainEvent
	SubscriptionID uuid.UUID        `json:"subscription_id"`
	OldPlanID      uuid.UUID        `json:"old_plan_id"`
	NewPlanID      uuid.UUID        `json:"new_plan_id"`
	OldStatus      Status           `json:"old_status"`
	StartDate      valueobject.Date `json:"start_date"`
	EndDate        valueobject.Date `json:"end_date"`
}

// NewRenewedEvent creates a new RenewedEvent
func NewRenewedEvent(s *Subscription, oldPlanID uuid.UUID, oldStatus Status, at time.Time) *RenewedEvent {
	return &RenewedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSubscriptionRenewed, AggregateTypeSubscription, s.ID, at),
		SubscriptionID:  s.ID,
		OldPlanID:       oldPlanID,
		NewPlanID:       s.PlanID,
		OldStatus:       oldStatus,
		StartDate:       s.StartDate,
		EndDate:         s.EndDate,
	}
}

// StatusChangedEvent is published on every status transition
type StatusChangedEvent struct {
	shared.BaseDomainEvent
	SubscriptionID uuid.UUID `json:"subscription_id"`
	OldStatus      Status    `json:"old_status"`
	NewStatus      Status    `json:"new_status"`
}

// NewStatusChangedEvent creates a new StatusChangedEvent
func NewStatusChangedEvent(s *Subscription, from, to Status, at time.Time) *StatusChangedEvent {
	return &StatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSubscriptionStatusChanged, AggregateTypeSubscription, s.ID, at),
		SubscriptionID:  s.ID,
		OldStatus:       from,
		NewStatus:       to,
	}
}

// PaymentRecordedEvent is published when a payment is appended
type PaymentRecordedEvent struct {
	shared.BaseDomainEvent
	SubscriptionID uuid.UUID         `json:"subscription_id"`
	PaymentID      uuid.UUID         `json:"payment_id"`
	Amount         valueobject.Money `json:"amount"`
	Method         PaymentMethod     `json:"method"`
	Status         PaymentStatus     `json:"status"`
}

// NewPaymentRecordedEvent creates a new PaymentRecordedEvent
func NewPaymentRecordedEvent(s *Subscription, p Payment, at time.Time) *PaymentRecordedEvent {
	return &PaymentRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentRecorded, AggregateTypeSubscription, s.ID, at),
		SubscriptionID:  s.ID,
		PaymentID:       p.ID,
		Amount:          p.Amount,
		Method:          p.Method,
		Status:          p.Status,
	}
}

// PaymentRefundedEvent is published when a completed payment is refunded
type PaymentRefundedEvent struct {
	shared.BaseDomainEvent
	SubscriptionID uuid.UUID         `json:"subscription_id"`
	PaymentID      uuid.UUID         `json:"payment_id"`
	Amount         valueobject.Money `json:"amount"`
}

// NewPaymentRefundedEvent creates a new PaymentRefundedEvent
func NewPaymentRefundedEvent(s *Subscription, p Payment, at time.Time) *PaymentRefundedEvent {
	return &PaymentRefundedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentRefunded, AggregateTypeSubscription, s.ID, at),
		SubscriptionID:  s.ID,
		PaymentID:       p.ID,
		Amount:          p.Amount,
	}
}
