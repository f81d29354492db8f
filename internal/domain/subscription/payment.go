package subscription

import (
	"time"

	"github.com/dealerdesk/backend/internal/domain/shared"
	"github.com/dealerdesk/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// PaymentMethod represents how a subscription payment was made
type PaymentMethod string

const (
	PaymentMethodCash   PaymentMethod = "cash"
	PaymentMethodCard   PaymentMethod = "card"
	PaymentMethodBank   PaymentMethod = "bank"
	PaymentMethodMobile PaymentMethod = "mobile"
	PaymentMethodOnline PaymentMethod = "online"
)

// IsValid checks if the payment method is known
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodBank, PaymentMethodMobile, PaymentMethodOnline:
		return true
	}
	return false
}

// PaymentStatus represents the status of a subscription payment
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// IsValid checks if the payment status is known
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

// Payment is a single payment record owned by a Subscription.
// Apart from completed -> refunded, a payment never changes after creation.
type Payment struct {
	shared.BaseEntity
	SubscriptionID uuid.UUID
	Term           int
	Amount         valueobject.Money
	Method         PaymentMethod
	Status         PaymentStatus
	PaymentDate    valueobject.Date
	TransactionRef string
}

// PaymentInput carries the fields for recording a payment
type PaymentInput struct {
	Amount         valueobject.Money
	Method         PaymentMethod
	Status         PaymentStatus
	PaymentDate    valueobject.Date
	TransactionRef string
}

func newPayment(subscriptionID uuid.UUID, term int, input PaymentInput, at time.Time) (Payment, error) {
	if !input.Amount.IsPositive() {
		return Payment{}, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if !input.Method.IsValid() {
		return Payment{}, shared.NewDomainError("INVALID_PAYMENT_METHOD", "Unknown payment method: "+string(input.Method))
	}
	status := input.Status
	if status == "" {
		status = PaymentStatusCompleted
	}
	if !status.IsValid() || status == PaymentStatusRefunded {
		return Payment{}, shared.NewDomainError("INVALID_PAYMENT_STATUS", "A payment cannot be recorded as "+string(status))
	}
	date := input.PaymentDate
	if date.IsZero() {
		date = valueobject.DateOf(at)
	}

	entity := shared.NewBaseEntity(at)

	return Payment{
		BaseEntity:     entity,
		SubscriptionID: subscriptionID,
		Term:           term,
		Amount:         input.Amount,
		Method:         input.Method,
		Status:         status,
		PaymentDate:    date,
		TransactionRef: input.TransactionRef,
	}, nil
}

// IsCompleted reports whether the funds were captured
func (p Payment) IsCompleted() bool {
	return p.Status == PaymentStatusCompleted
}
