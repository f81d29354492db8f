package models

import (
	"github.com/dealerdesk/backend/internal/domain/shared"
	"github.com/dealerdesk/backend/internal/domain/shared/valueobject"
	"github.com/dealerdesk/backend/internal/domain/subscription"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PlanModel is the persistence model for subscription plans
type PlanModel struct {
	VersionedColumns
	Name         string            `gorm:"type:varchar(100);not null"`
	Type         int               `gorm:"not null"`
	Price        decimal.Decimal   `gorm:"type:decimal(18,2);not null"`
	ValidityDays int               `gorm:"not null"`
	ProductRange int               `gorm:"not null;default:0"`
	Modules      []PlanModuleModel `gorm:"foreignKey:PlanID;references:ID"`
}

// TableName returns the table name for GORM
func (PlanModel) TableName() string {
	return "plans"
}

// PlanModuleModel links a plan to a feature module. The composite key keeps
// each module at most once per plan.
type PlanModuleModel struct {
	PlanID     uuid.UUID `gorm:"type:uuid;primaryKey"`
	ModuleID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	ModuleName string    `gorm:"type:varchar(100);not null"`
}

// TableName returns the table name for GORM
func (PlanModuleModel) TableName() string {
	return "plan_modules"
}

// ToDomain converts the persistence model to a domain Plan
func (m *PlanModel) ToDomain() *subscription.Plan {
	modules := make([]subscription.ModuleRef, len(m.Modules))
	for i, mod := range m.Modules {
		modules[i] = subscription.ModuleRef{ID: mod.ModuleID, Name: mod.ModuleName}
	}
	return &subscription.Plan{
		BaseAggregateRoot: m.Root(),
		Name:              m.Name,
		Type:              subscription.PlanType(m.Type),
		Price:             valueobject.NewMoney(m.Price),
		ValidityDays:      m.ValidityDays,
		ProductRange:      m.ProductRange,
		Modules:           modules,
	}
}

// FromDomain populates the persistence model from a domain Plan
func (m *PlanModel) FromDomain(p *subscription.Plan) {
	m.SetRoot(p.BaseAggregateRoot)
	m.Name = p.Name
	m.Type = int(p.Type)
	m.Price = p.Price.Amount()
	m.ValidityDays = p.ValidityDays
	m.ProductRange = p.ProductRange
	m.Modules = make([]PlanModuleModel, len(p.Modules))
	for i, mod := range p.Modules {
		m.Modules[i] = PlanModuleModel{PlanID: p.ID, ModuleID: mod.ID, ModuleName: mod.Name}
	}
}

// PlanModelFromDomain creates a new persistence model from a domain Plan
func PlanModelFromDomain(p *subscription.Plan) *PlanModel {
	m := &PlanModel{}
	m.FromDomain(p)
	return m
}

// SubscriptionModel is the persistence model for the Subscription aggregate.
// Status holds the numeric code (1 active, 2 expired, 3 cancelled, 4 pending).
type SubscriptionModel struct {
	VersionedColumns
	DealershipID uuid.UUID        `gorm:"type:uuid;not null;index"`
	PlanID       uuid.UUID        `gorm:"type:uuid;not null;index"`
	Amount       decimal.Decimal  `gorm:"type:decimal(18,2);not null"`
	StartDate    valueobject.Date `gorm:"type:date;not null"`
	EndDate      valueobject.Date `gorm:"type:date;not null;index"`
	Status       int              `gorm:"type:smallint;not null;index"`
	Term         int              `gorm:"not null;default:1"`
	Payments     []PaymentModel   `gorm:"foreignKey:SubscriptionID;references:ID"`
}

// TableName returns the table name for GORM
func (SubscriptionModel) TableName() string {
	return "subscriptions"
}

// ToDomain converts the persistence model to a domain Subscription.
// Unknown status codes load as StatusUnknown and block every transition.
func (m *SubscriptionModel) ToDomain() *subscription.Subscription {
	status, _ := subscription.StatusFromCode(m.Status)
	payments := make([]subscription.Payment, len(m.Payments))
	for i := range m.Payments {
		payments[i] = m.Payments[i].ToDomain()
	}
	return subscription.RestoreSubscription(
		m.Root(),
		m.DealershipID,
		m.PlanID,
		valueobject.NewMoney(m.Amount),
		m.StartDate,
		m.EndDate,
		status,
		m.Term,
		payments,
	)
}

// FromDomain populates the persistence model from a domain Subscription
func (m *SubscriptionModel) FromDomain(s *subscription.Subscription) {
	m.SetRoot(s.BaseAggregateRoot)
	m.DealershipID = s.DealershipID
	m.PlanID = s.PlanID
	m.Amount = s.Amount.Amount()
	m.StartDate = s.StartDate
	m.EndDate = s.EndDate
	m.Status = s.Status.Code()
	m.Term = s.Term
	payments := s.Payments()
	m.Payments = make([]PaymentModel, len(payments))
	for i := range payments {
		m.Payments[i].FromDomain(payments[i])
	}
}

// UpdateColumns returns the mutable columns written by conditional updates
func (m *SubscriptionModel) UpdateColumns() map[string]any {
	return map[string]any{
		"plan_id":    m.PlanID,
		"amount":     m.Amount,
		"start_date": m.StartDate,
		"end_date":   m.EndDate,
		"status":     m.Status,
		"term":       m.Term,
		"version":    m.Version,
		"updated_at": m.UpdatedAt,
	}
}

// SubscriptionModelFromDomain creates a new persistence model from a domain Subscription
func SubscriptionModelFromDomain(s *subscription.Subscription) *SubscriptionModel {
	m := &SubscriptionModel{}
	m.FromDomain(s)
	return m
}

// PaymentModel is the persistence model for subscription payments
type PaymentModel struct {
	EntityColumns
	SubscriptionID uuid.UUID                  `gorm:"type:uuid;not null;index"`
	Term           int                        `gorm:"not null;default:1"`
	Amount         decimal.Decimal            `gorm:"type:decimal(18,2);not null"`
	Method         subscription.PaymentMethod `gorm:"type:varchar(20);not null"`
	Status         subscription.PaymentStatus `gorm:"type:varchar(20);not null"`
	PaymentDate    valueobject.Date           `gorm:"type:date;not null"`
	TransactionRef string                     `gorm:"type:varchar(100)"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "subscription_payments"
}

// ToDomain converts the persistence model to a domain Payment
func (m *PaymentModel) ToDomain() subscription.Payment {
	return subscription.Payment{
		BaseEntity:     m.EntityColumns.Entity(),
		SubscriptionID: m.SubscriptionID,
		Term:           m.Term,
		Amount:         valueobject.NewMoney(m.Amount),
		Method:         m.Method,
		Status:         m.Status,
		PaymentDate:    m.PaymentDate,
		TransactionRef: m.TransactionRef,
	}
}

// FromDomain populates the persistence model from a domain Payment
func (m *PaymentModel) FromDomain(p subscription.Payment) {
	m.SetEntity(shared.BaseEntity{ID: p.ID, CreatedAt: p.CreatedAt, UpdatedAt: p.UpdatedAt})
	m.SubscriptionID = p.SubscriptionID
	m.Term = p.Term
	m.Amount = p.Amount.Amount()
	m.Method = p.Method
	m.Status = p.Status
	m.PaymentDate = p.PaymentDate
	m.TransactionRef = p.TransactionRef
}
