package dealership

import (
	"strings"
	"time"

	"github.com/dealerdesk/backend/internal/domain/shared"
	"github.com/dealerdesk/backend/internal/domain/shared/approval"
	"github.com/dealerdesk/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// Status represents the lifecycle status of a dealership account
type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
	StatusInactive  Status = "inactive"
)

// IsValid checks if the status is a known Status.
// "approved" is deliberately not a status: approval lands in StatusActive.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusActive, StatusSuspended, StatusInactive:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// ParseStatus converts a wire value into a Status
func ParseStatus(s string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(s)))
	if !status.IsValid() {
		return "", shared.NewDomainError("INVALID_STATUS", "Unknown dealership status: "+s)
	}
	return status, nil
}

// Account is a business partner account (dealership).
// It is the aggregate root for dealership financials and approval.
type Account struct {
	shared.BaseAggregateRoot
	CompanyID uuid.UUID
	OutletID  uuid.UUID
	Name      string
	Phone     string
	Email     string
	Address   string
	Status    Status
	Approval  approval.Workflow

	creditLimit   valueobject.Money
	advanceAmount valueobject.Money
	dueAmount     valueobject.Money
}

// CreateInput carries the caller supplied fields for a new account
type CreateInput struct {
	CompanyID     uuid.UUID
	OutletID      uuid.UUID
	Name          string
	Phone         string
	Email         string
	Address       string
	CreditLimit   valueobject.Money
	AdvanceAmount valueobject.Money
}

// NewAccount creates a pending dealership account with its due amount computed
func NewAccount(input CreateInput, at time.Time) (*Account, error) {
	if input.CompanyID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_COMPANY", "Company ID is required")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Dealership name cannot be empty")
	}
	if len(name) > 200 {
		return nil, shared.NewDomainError("INVALID_NAME", "Dealership name cannot exceed 200 characters")
	}

	root := shared.NewBaseAggregateRoot(at)

	a := &Account{
		BaseAggregateRoot: root,
		CompanyID:         input.CompanyID,
		OutletID:          input.OutletID,
		Name:              name,
		Phone:             input.Phone,
		Email:             input.Email,
		Address:           input.Address,
		Status:            StatusPending,
		Approval:          approval.NewWorkflow(),
	}
	a.setFinancials(input.CreditLimit, input.AdvanceAmount)
	a.AddDomainEvent(NewCreatedEvent(a, at))
	return a, nil
}

// RestoreState holds persisted fields used to rebuild an Account
type RestoreState struct {
	Root          shared.BaseAggregateRoot
	CompanyID     uuid.UUID
	OutletID      uuid.UUID
	Name          string
	Phone         string
	Email         string
	Address       string
	Status        Status
	Approval      approval.Workflow
	CreditLimit   valueobject.Money
	AdvanceAmount valueobject.Money
}

// Restore rebuilds an Account from storage. The due amount is always
// recomputed rather than trusted from the stored column.
func Restore(s RestoreState) *Account {
	a := &Account{
		BaseAggregateRoot: s.Root,
		CompanyID:         s.CompanyID,
		OutletID:          s.OutletID,
		Name:              s.Name,
		Phone:             s.Phone,
		Email:             s.Email,
		Address:           s.Address,
		Status:            s.Status,
		Approval:          s.Approval,
	}
	a.setFinancials(s.CreditLimit, s.AdvanceAmount)
	return a
}

// CreditLimit returns the credit limit
func (a *Account) CreditLimit() valueobject.Money {
	return a.creditLimit
}

// AdvanceAmount returns the advance paid by the dealership
func (a *Account) AdvanceAmount() valueobject.Money {
	return a.advanceAmount
}

// DueAmount returns max(creditLimit - advanceAmount, 0)
func (a *Account) DueAmount() valueobject.Money {
	return a.dueAmount
}

// ApprovedBy returns the approver once the account has been approved
func (a *Account) ApprovedBy() *uuid.UUID {
	if a.Approval.Decision != approval.DecisionApproved {
		return nil
	}
	return a.Approval.DecidedBy
}

// ApprovedAt returns the approval timestamp once the account has been approved
func (a *Account) ApprovedAt() *time.Time {
	if a.Approval.Decision != approval.DecisionApproved {
		return nil
	}
	return a.Approval.DecidedAt
}

// UpdateFinancials replaces credit limit and advance and recomputes the due amount
func (a *Account) UpdateFinancials(creditLimit, advanceAmount valueobject.Money, at time.Time) error {
	if creditLimit.IsNegative() || advanceAmount.IsNegative() {
		return shared.NewDomainError("INVALID_AMOUNT", "Credit limit and advance amount cannot be negative")
	}
	oldDue := a.dueAmount
	a.setFinancials(creditLimit, advanceAmount)
	a.Touch(at)
	a.AddDomainEvent(NewFinancialsUpdatedEvent(a, oldDue, at))
	return nil
}

func (a *Account) setFinancials(creditLimit, advanceAmount valueobject.Money) {
	a.creditLimit = creditLimit
	a.advanceAmount = advanceAmount
	a.dueAmount = RecomputeDue(creditLimit, advanceAmount)
}

// Approve activates a pending account and stamps the approver
func (a *Account) Approve(actor uuid.UUID, at time.Time) error {
	if a.Status != StatusPending {
		return shared.NewInvalidStateTransition("dealership", a.Status.String(), "approve")
	}
	if err := a.Approval.Approve(actor, at); err != nil {
		return err
	}
	a.changeStatus(StatusActive, at)
	return nil
}

// Reject closes a pending application; the account becomes inactive
func (a *Account) Reject(actor uuid.UUID, at time.Time, reason string) error {
	if a.Status != StatusPending {
		return shared.NewInvalidStateTransition("dealership", a.Status.String(), "reject")
	}
	if err := a.Approval.Reject(actor, at, reason); err != nil {
		return err
	}
	a.changeStatus(StatusInactive, at)
	return nil
}

// ApprovalState returns a copy of the embedded approval workflow
func (a *Account) ApprovalState() approval.Workflow {
	return a.Approval
}

// Suspend puts an active account on hold
func (a *Account) Suspend(at time.Time) error {
	if a.Status != StatusActive {
		return shared.NewInvalidStateTransition("dealership", a.Status.String(), "suspend")
	}
	a.changeStatus(StatusSuspended, at)
	return nil
}

// Reactivate lifts a suspension
func (a *Account) Reactivate(at time.Time) error {
	if a.Status != StatusSuspended {
		return shared.NewInvalidStateTransition("dealership", a.Status.String(), "reactivate")
	}
	a.changeStatus(StatusActive, at)
	return nil
}

// Deactivate closes the account
func (a *Account) Deactivate(at time.Time) error {
	if a.Status == StatusInactive {
		return shared.NewInvalidStateTransition("dealership", a.Status.String(), "deactivate")
	}
	a.changeStatus(StatusInactive, at)
	return nil
}

// IsPending returns true if the account awaits approval
func (a *Account) IsPending() bool {
	return a.Status == StatusPending
}

// IsActive returns true if the account is active
func (a *Account) IsActive() bool {
	return a.Status == StatusActive
}

func (a *Account) changeStatus(to Status, at time.Time) {
	from := a.Status
	a.Status = to
	a.Touch(at)
	a.AddDomainEvent(NewStatusChangedEvent(a, from, to, at))
}
