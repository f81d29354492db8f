package dealership

import (
	"time"

	"github.com/dealerdesk/backend/internal/domain/shared"
	"github.com/dealerdesk/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// Aggregate type constant
const AggregateTypeDealership = "Dealership"

// Event type constants
const (
	EventTypeDealershipCreated           = "DealershipCreated"
	EventTypeDealershipFinancialsUpdated = "DealershipFinancialsUpdated"
	EventTypeDealershipStatusChanged     = "DealershipStatusChanged"
)

// CreatedEvent is published when a new dealership account is registered
type CreatedEvent struct {
	shared.BaseDomainEvent
	DealershipID uuid.UUID         `json:"dealership_id"`
	CompanyID    uuid.UUID         `json:"company_id"`
	Name         string            `json:"name"`
	DueAmount    valueobject.Money `json:"due_amount"`
}

// NewCreatedEvent creates a new CreatedEvent
func NewCreatedEvent(a *Account, at time.Time) *CreatedEvent {
	return &CreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDealershipCreated, AggregateTypeDealership, a.ID, at),
		DealershipID:    a.ID,
		CompanyID:       a.CompanyID,
		Name:            a.Name,
		DueAmount:       a.DueAmount(),
	}
}

// FinancialsUpdatedEvent is published when credit limit or advance changes
type FinancialsUpdatedEvent struct {
	shared.BaseDomainEvent
	DealershipID  uuid.UUID         `json:"dealership_id"`
	CreditLimit   valueobject.Money `json:"credit_limit"`
	AdvanceAmount valueobject.Money `json:"advance_amount"`
	OldDueAmount  valueobject.Money `json:"old_due_amount"`
	NewDueAmount  valueobject.Money `json:"new_due_amount"`
}

// NewFinancialsUpdatedEvent creates a new FinancialsUpdatedEvent
func NewFinancialsUpdatedEvent(a *Account, oldDue valueobject.Money, at time.Time) *FinancialsUpdatedEvent {
	return &FinancialsUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDealershipFinancialsUpdated, AggregateTypeDealership, a.ID, at),
		DealershipID:    a.ID,
		CreditLimit:     a.CreditLimit(),
		AdvanceAmount:   a.AdvanceAmount(),
		OldDueAmount:    oldDue,
		NewDueAmount:    a.DueAmount(),
	}
}

// StatusChangedEvent is published on every status transition
type StatusChangedEvent struct {
	shared.BaseDomainEvent
	DealershipID uuid.UUID  `json:"dealership_id"`
	OldStatus    Status     `json:"old_status"`
	NewStatus    Status     `json:"new_status"`
	ActorID      *uuid.UUID `json:"actor_id,omitempty"`
}

// NewStatusChangedEvent creates a new StatusChangedEvent
func NewStatusChangedEvent(a *Account, from, to Status, at time.Time) *StatusChangedEvent {
	return &StatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDealershipStatusChanged, AggregateTypeDealership, a.ID, at),
		DealershipID:    a.ID,
		OldStatus:       from,
		NewStatus:       to,
		ActorID:         a.Approval.DecidedBy,
	}
}
