package deposit

import (
	"strings"
	"time"

	"github.com/dealerdesk/backend/internal/domain/shared"
	"github.com/dealerdesk/backend/internal/domain/shared/approval"
	"github.com/dealerdesk/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// Status represents the status of a deposit
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusFailed   Status = "failed"
)

// IsValid checks if the status is a valid Status
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusFailed:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// Method represents how the cash reached the company
type Method string

const (
	MethodCash          Method = "cash"
	MethodBankTransfer  Method = "bank_transfer"
	MethodMobileBanking Method = "mobile_banking"
	MethodCreditCard    Method = "credit_card"
	MethodCheck         Method = "check"
)

// IsValid checks if the method is known
func (m Method) IsValid() bool {
	switch m {
	case MethodCash, MethodBankTransfer, MethodMobileBanking, MethodCreditCard, MethodCheck:
		return true
	}
	return false
}

// Deposit is a cash deposit submitted by an outlet and signed off by an approver
type Deposit struct {
	shared.BaseAggregateRoot
	UserID        uuid.UUID
	OutletID      uuid.UUID
	Amount        valueobject.Money
	Method        Method
	TransactionID string
	Note          string
	DepositDate   valueobject.Date
	Status        Status
	Approval      approval.Workflow
}

// Input carries the editable fields of a deposit
type Input struct {
	Amount        valueobject.Money
	Method        Method
	TransactionID string
	Note          string
	DepositDate   valueobject.Date
}

// NewDeposit records a pending deposit for the given outlet
func NewDeposit(userID, outletID uuid.UUID, input Input, at time.Time) (*Deposit, error) {
	if outletID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_OUTLET", "Outlet ID is required")
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}

	root := shared.NewBaseAggregateRoot(at)

	d := &Deposit{
		BaseAggregateRoot: root,
		UserID:            userID,
		OutletID:          outletID,
		Status:            StatusPending,
		Approval:          approval.NewWorkflow(),
	}
	d.apply(input, at)
	d.AddDomainEvent(NewRecordedEvent(d, at))
	return d, nil
}

// Update edits a pending deposit on behalf of its owning outlet
func (d *Deposit) Update(outletID uuid.UUID, input Input, at time.Time) error {
	if err := d.ensureEditable(outletID, "edit"); err != nil {
		return err
	}
	if err := validateInput(input); err != nil {
		return err
	}
	d.apply(input, at)
	d.Touch(at)
	d.AddDomainEvent(NewUpdatedEvent(d, at))
	return nil
}

// EnsureDeletable checks that the outlet may delete this deposit
func (d *Deposit) EnsureDeletable(outletID uuid.UUID) error {
	return d.ensureEditable(outletID, "delete")
}

// Approve signs off a pending deposit
func (d *Deposit) Approve(actor uuid.UUID, at time.Time) error {
	if err := d.Approval.Approve(actor, at); err != nil {
		return shared.NewInvalidStateTransition("deposit", d.Status.String(), "approve")
	}
	d.changeStatus(StatusApproved, at)
	return nil
}

// Reject marks a pending deposit as failed
func (d *Deposit) Reject(actor uuid.UUID, at time.Time, reason string) error {
	if err := d.Approval.Reject(actor, at, reason); err != nil {
		return shared.NewInvalidStateTransition("deposit", d.Status.String(), "reject")
	}
	d.changeStatus(StatusFailed, at)
	return nil
}

// ApprovalState returns a copy of the embedded approval workflow
func (d *Deposit) ApprovalState() approval.Workflow {
	return d.Approval
}

// IsPending returns true if the deposit awaits a decision
func (d *Deposit) IsPending() bool {
	return d.Status == StatusPending
}

func (d *Deposit) ensureEditable(outletID uuid.UUID, action string) error {
	if d.OutletID != outletID {
		return shared.NewDomainError("FORBIDDEN", "Only the owning outlet can "+action+" this deposit")
	}
	if d.Status != StatusPending {
		return shared.NewInvalidStateTransition("deposit", d.Status.String(), action)
	}
	return nil
}

func (d *Deposit) apply(input Input, at time.Time) {
	d.Amount = input.Amount
	d.Method = input.Method
	d.TransactionID = strings.TrimSpace(input.TransactionID)
	d.Note = input.Note
	d.DepositDate = input.DepositDate
	if d.DepositDate.IsZero() {
		d.DepositDate = valueobject.DateOf(at)
	}
}

func (d *Deposit) changeStatus(to Status, at time.Time) {
	from := d.Status
	d.Status = to
	d.Touch(at)
	d.AddDomainEvent(NewStatusChangedEvent(d, from, to, at))
}

func validateInput(input Input) error {
	if !input.Amount.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Deposit amount must be positive")
	}
	if !input.Method.IsValid() {
		return shared.NewDomainError("INVALID_DEPOSIT_METHOD", "Unknown deposit method: "+string(input.Method))
	}
	if len(input.Note) > 1000 {
		return shared.NewDomainError("INVALID_NOTE", "Note cannot exceed 1000 characters")
	}
	return nil
}
