package subscription

import (
	"time"

	"github.com/dealerdesk/backend/internal/domain/shared"
	"github.com/dealerdesk/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// Subscription binds a dealership to a plan for one term.
// It is the aggregate root that owns the append-only payment history.
type Subscription struct {
	shared.BaseAggregateRoot
	DealershipID uuid.UUID
	PlanID       uuid.UUID
	Amount       valueobject.Money
	StartDate    valueobject.Date
	EndDate      valueobject.Date
	Status       Status
	// Term counts renewals, starting at 1. Payments are tagged with the term
	// they were recorded in.
	Term int

	payments []Payment
}

// NewSubscription creates a pending subscription on plan starting at start
func NewSubscription(dealershipID uuid.UUID, plan *Plan, start valueobject.Date, at time.Time) (*Subscription, error) {
	if dealershipID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_DEALERSHIP", "Dealership ID is required")
	}
	if start.IsZero() {
		return nil, shared.NewDomainError("INVALID_START_DATE", "Start date is required")
	}

	root := shared.NewBaseAggregateRoot(at)

	s := &Subscription{
		BaseAggregateRoot: root,
		DealershipID:      dealershipID,
		Status:            StatusPending,
		Term:              1,
	}
	s.setPlan(plan, start)
	s.AddDomainEvent(NewCreatedEvent(s, at))
	return s, nil
}

// RestoreSubscription rebuilds a subscription and its payments from storage
func RestoreSubscription(root shared.BaseAggregateRoot, dealershipID, planID uuid.UUID, amount valueobject.Money,
	start, end valueobject.Date, status Status, term int, payments []Payment) *Subscription {
	return &Subscription{
		BaseAggregateRoot: root,
		DealershipID:      dealershipID,
		PlanID:            planID,
		Amount:            amount,
		StartDate:         start,
		EndDate:           end,
		Status:            status,
		Term:              term,
		payments:          append([]Payment(nil), payments...),
	}
}

// SelectPlan re-points a pending draft at another plan or start date,
// recomputing amount and end date.
func (s *Subscription) SelectPlan(plan *Plan, start valueobject.Date, at time.Time) error {
	if s.Status != StatusPending {
		return shared.NewInvalidStateTransition("subscription", s.Status.String(), "select plan for")
	}
	if start.IsZero() {
		return shared.NewDomainError("INVALID_START_DATE", "Start date is required")
	}
	s.setPlan(plan, start)
	s.Touch(at)
	return nil
}

func (s *Subscription) setPlan(plan *Plan, start valueobject.Date) {
	s.PlanID = plan.ID
	s.Amount = plan.Price
	s.StartDate = start
	s.EndDate = ComputeEndDate(start, plan.ValidityDays)
}

func (s *Subscription) renew(newPlan *Plan, newStart valueobject.Date, at time.Time) error {
	if s.Status.IsTerminal() {
		return shared.NewInvalidStateTransition("subscription", s.Status.String(), "renew")
	}
	if newStart.IsZero() {
		return shared.NewDomainError("INVALID_START_DATE", "Start date is required")
	}
	oldPlanID := s.PlanID
	oldStatus := s.Status
	s.setPlan(newPlan, newStart)
	s.Status = StatusPending
	s.Term++
	s.Touch(at)
	s.AddDomainEvent(NewRenewedEvent(s, oldPlanID, oldStatus, at))
	return nil
}

// Payments returns a copy of the payment history in recording order
func (s *Subscription) Payments() []Payment {
	return append([]Payment(nil), s.payments...)
}

// TotalPaid sums the completed payments over every term, recomputed on every call
func (s *Subscription) TotalPaid() valueobject.Money {
	return TotalPaid(s.payments)
}

// TermPaid sums the completed payments recorded in the current term
func (s *Subscription) TermPaid() valueobject.Money {
	current := make([]Payment, 0, len(s.payments))
	for _, p := range s.payments {
		if p.Term == s.Term {
			current = append(current, p)
		}
	}
	return TotalPaid(current)
}

// Outstanding returns max(amount - termPaid, 0). Payments from earlier terms
// never settle the current one.
func (s *Subscription) Outstanding() valueobject.Money {
	return s.Amount.Subtract(s.TermPaid()).ClampZero()
}

// DaysRemaining returns the non-negative number of days left in the term
func (s *Subscription) DaysRemaining(now time.Time) int {
	return valueobject.DaysRemaining(s.EndDate, now)
}

// RecordPayment appends a payment. A completed payment activates a pending subscription.
func (s *Subscription) RecordPayment(input PaymentInput, at time.Time) (*Payment, error) {
	if s.Status == StatusCancelled {
		return nil, shared.NewInvalidStateTransition("subscription", s.Status.String(), "record payment for")
	}
	p, err := newPayment(s.ID, s.Term, input, at)
	if err != nil {
		return nil, err
	}
	s.payments = append(s.payments, p)
	s.Touch(at)
	s.AddDomainEvent(NewPaymentRecordedEvent(s, p, at))

	if p.IsCompleted() && s.Status == StatusPending {
		s.changeStatus(StatusActive, at)
	}
	return &p, nil
}

// RefundPayment moves a completed payment to refunded
func (s *Subscription) RefundPayment(paymentID uuid.UUID, at time.Time) error {
	for i := range s.payments {
		if s.payments[i].ID != paymentID {
			continue
		}
		if s.payments[i].Status != PaymentStatusCompleted {
			return shared.NewInvalidStateTransition("payment", string(s.payments[i].Status), "refund")
		}
		s.payments[i].Status = PaymentStatusRefunded
		s.payments[i].UpdatedAt = at
		s.Touch(at)
		s.AddDomainEvent(NewPaymentRefundedEvent(s, s.payments[i], at))
		return nil
	}
	return shared.NewDomainError("PAYMENT_NOT_FOUND", "Payment not found on subscription")
}

// Cancel ends the subscription permanently
func (s *Subscription) Cancel(at time.Time) error {
	if s.Status.IsTerminal() {
		return shared.NewInvalidStateTransition("subscription", s.Status.String(), "cancel")
	}
	s.changeStatus(StatusCancelled, at)
	return nil
}

// Expire marks an active subscription whose end date has passed as expired.
// It reports whether the status changed.
func (s *Subscription) Expire(today valueobject.Date, at time.Time) bool {
	if s.Status != StatusActive || !s.EndDate.Before(today) {
		return false
	}
	s.changeStatus(StatusExpired, at)
	return true
}

func (s *Subscription) changeStatus(to Status, at time.Time) {
	from := s.Status
	s.Status = to
	s.Touch(at)
	s.AddDomainEvent(NewStatusChangedEvent(s, from, to, at))
}
