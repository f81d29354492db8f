package deposit

import (
	"time"

	"github.com/dealerdesk/backend/internal/domain/shared"
	"github.com/dealerdesk/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// Aggregate type constant
const AggregateTypeDeposit = "Deposit"

// Event type constants
const (
	EventTypeDepositRecorded      = "DepositRecorded"
	EventTypeDepositUpdated       = "DepositUpdated"
	EventTypeDepositStatusChanged = "DepositStatusChanged"
	EventTypeDepositDeleted       = "DepositDeleted"
)

// RecordedEvent is published when an outlet records a deposit
type RecordedEvent struct {
	shared.BaseDomainEvent
	DepositID uuid.UUID         `json:"deposit_id"`
	OutletID  uuid.UUID         `json:"outlet_id"`
	Amount    valueobject.Money `json:"amount"`
	Method    Method            `json:"method"`
}

// NewRecordedEvent creates a new RecordedEvent
func NewRecordedEvent(d *Deposit, at time.Time) *RecordedEvent {
	return &RecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDepositRecorded, AggregateTypeDeposit, d.ID, at),
		DepositID:       d.ID,
		OutletID:        d.OutletID,
		Amount:          d.Amount,
		Method:          d.Method,
	}
}

// UpdatedEvent is published when a pending deposit is edited
type UpdatedEvent struct {
	shared.BaseDomainEvent
	DepositID uuid.UUID         `json:"deposit_id"`
	Amount    valueobject.Money `json:"amount"`
	Method    Method            `json:"method"`
}

// NewUpdatedEvent creates a new UpdatedEvent
func NewUpdatedEvent(d *Deposit, at time.Time) *UpdatedEvent {
	return &UpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDepositUpdated, AggregateTypeDeposit, d.ID, at),
		DepositID:       d.ID,
		Amount:          d.Amount,
		Method:          d.Method,
	}
}

// StatusChangedEvent is published when a deposit is approved or failed
type StatusChangedEvent struct {
	shared.BaseDomainEvent
	DepositID uuid.UUID         `json:"deposit_id"`
	OutletID  uuid.UUID         `json:"outlet_id"`
	Amount    valueobject.Money `json:"amount"`
	OldStatus Status            `json:"old_status"`
	NewStatus Status            `json:"new_status"`
	ActorID   *uuid.UUID        `json:"actor_id,omitempty"`
	Reason    string            `json:"reason,omitempty"`
}

// NewStatusChangedEvent creates a new StatusChangedEvent
func NewStatusChangedEvent(d *Deposit, from, to Status, at time.Time) *StatusChangedEvent {
	return &StatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDepositStatusChanged, AggregateTypeDeposit, d.ID, at),
		DepositID:       d.ID,
		OutletID:        d.OutletID,
		Amount:          d.Amount,
		OldStatus:       from,
		NewStatus:       to,
		ActorID:         d.Approval.DecidedBy,
		Reason:          d.Approval.Reason,
	}
}

// DeletedEvent is published when a pending deposit is withdrawn
type DeletedEvent struct {
	shared.BaseDomainEvent
	DepositID uuid.UUID `json:"deposit_id"`
	OutletID  uuid.UUID `json:"outlet_id"`
}

// NewDeletedEvent creates a new DeletedEvent
func NewDeletedEvent(d *Deposit, at time.Time) *DeletedEvent {
	return &DeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDepositDeleted, AggregateTypeDeposit, d.ID, at),
		DepositID:       d.ID,
		OutletID:        d.OutletID,
	}
}
