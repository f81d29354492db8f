package subscription

import (
	"time"

	"github.com/dealerdesk/backend/internal/domain/shared/valueobject"
	"github.com/dealerdesk/backend/internal/domain/subscription"
	"github.com/google/uuid"
)

// CreatePlanRequest carries the fields of a new plan
type CreatePlanRequest struct {
	Name         string
	Type         int
	Price        valueobject.Money
	ValidityDays int
	ProductRange int
	Modules      []subscription.ModuleRef
}

// SelectPlanRequest starts a subscription, or re-points a pending draft when DraftID is set
type SelectPlanRequest struct {
	DealershipID uuid.UUID
	PlanID       uuid.UUID
	StartDate    valueobject.Date
	DraftID      *uuid.UUID
}

// RenewRequest moves a subscription onto a plan for a new term
type RenewRequest struct {
	PlanID    uuid.UUID
	StartDate valueobject.Date
}

// PaymentRequest carries the fields of a payment against a subscription
type PaymentRequest struct {
	Amount         valueobject.Money
	Method         string
	Status         string
	PaymentDate    valueobject.Date
	TransactionRef string
}

// PlanResponse is the read model of a plan
type PlanResponse struct {
	ID           uuid.UUID                `json:"id"`
	Name         string                   `json:"name"`
	Type         string                   `json:"type"`
	TypeCode     int                      `json:"type_code"`
	Price        valueobject.Money        `json:"price"`
	ValidityDays int                      `json:"validity_days"`
	ProductRange int                      `json:"product_range"`
	Modules      []subscription.ModuleRef `json:"modules"`
	CreatedAt    time.Time                `json:"created_at"`
}

// ToPlanResponse converts a plan to its read model
func ToPlanResponse(p *subscription.Plan) PlanResponse {
	modules := p.Modules
	if modules == nil {
		modules = []subscription.ModuleRef{}
	}
	return PlanResponse{
		ID:           p.ID,
		Name:         p.Name,
		Type:         p.Type.String(),
		TypeCode:     int(p.Type),
		Price:        p.Price,
		ValidityDays: p.ValidityDays,
		ProductRange: p.ProductRange,
		Modules:      modules,
		CreatedAt:    p.CreatedAt,
	}
}

// PaymentResponse is the read model of a payment
type PaymentResponse struct {
	ID             uuid.UUID         `json:"id"`
	Amount         valueobject.Money `json:"amount"`
	Term           int               `json:"term"`
	Method         string            `json:"method"`
	Status         string            `json:"status"`
	PaymentDate    valueobject.Date  `json:"payment_date"`
	TransactionRef string            `json:"transaction_ref,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
}

// SubscriptionResponse is the read model of a subscription with its derived figures
type SubscriptionResponse struct {
	ID            uuid.UUID         `json:"id"`
	DealershipID  uuid.UUID         `json:"dealership_id"`
	PlanID        uuid.UUID         `json:"plan_id"`
	Amount        valueobject.Money `json:"amount"`
	StartDate     valueobject.Date  `json:"start_date"`
	EndDate       valueobject.Date  `json:"end_date"`
	Status        string            `json:"status"`
	StatusCode    int               `json:"status_code"`
	Term          int               `json:"term"`
	TotalPaid     valueobject.Money `json:"total_paid"`
	TermPaid      valueobject.Money `json:"term_paid"`
	Outstanding   valueobject.Money `json:"outstanding"`
	DaysRemaining int               `json:"days_remaining"`
	Payments      []PaymentResponse `json:"payments"`
	Version       int               `json:"version"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// ToSubscriptionResponse converts a subscription to its read model as of now
func ToSubscriptionResponse(s *subscription.Subscription, now time.Time) SubscriptionResponse {
	payments := s.Payments()
	paymentResponses := make([]PaymentResponse, len(payments))
	for i, p := range payments {
		paymentResponses[i] = PaymentResponse{
			ID:             p.ID,
			Term:           p.Term,
			Amount:         p.Amount,
			Method:         string(p.Method),
			Status:         string(p.Status),
			PaymentDate:    p.PaymentDate,
			TransactionRef: p.TransactionRef,
			CreatedAt:      p.CreatedAt,
		}
	}
	return SubscriptionResponse{
		ID:            s.ID,
		DealershipID:  s.DealershipID,
		PlanID:        s.PlanID,
		Amount:        s.Amount,
		StartDate:     s.StartDate,
		EndDate:       s.EndDate,
		Status:        s.Status.String(),
		StatusCode:    s.Status.Code(),
		Term:          s.Term,
		TotalPaid:     s.TotalPaid(),
		TermPaid:      s.TermPaid(),
		Outstanding:   s.Outstanding(),
		DaysRemaining: s.DaysRemaining(now),
		Payments:      paymentResponses,
		Version:       s.GetVersion(),
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
}

// RenewResponse pairs the renewed subscription with the informational price delta
type RenewResponse struct {
	Subscription SubscriptionResponse    `json:"subscription"`
	Change       subscription.PlanChange `json:"change"`
}

// SweepResult summarises an expiry sweep
type SweepResult struct {
	Expired   int
	Conflicts int
}
