package models

import (
	"time"

	"github.com/dealerdesk/backend/internal/domain/dealership"
	"github.com/dealerdesk/backend/internal/domain/shared/approval"
	"github.com/dealerdesk/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DealershipModel is the persistence model for the dealership Account aggregate.
// due_amount is stored for reporting only and recomputed on load.
type DealershipModel struct {
	VersionedColumns
	CompanyID        uuid.UUID         `gorm:"type:uuid;not null;index"`
	OutletID         *uuid.UUID        `gorm:"type:uuid;index"`
	Name             string            `gorm:"type:varchar(200);not null"`
	Phone            string            `gorm:"type:varchar(50)"`
	Email            string            `gorm:"type:varchar(200)"`
	Address          string            `gorm:"type:text"`
	Status           dealership.Status `gorm:"type:varchar(20);not null;default:'pending';index"`
	CreditLimit      decimal.Decimal   `gorm:"type:decimal(18,2);not null;default:0"`
	AdvanceAmount    decimal.Decimal   `gorm:"type:decimal(18,2);not null;default:0"`
	DueAmount        decimal.Decimal   `gorm:"type:decimal(18,2);not null;default:0"`
	ApprovalDecision approval.Decision `gorm:"type:varchar(20);not null;default:'pending'"`
	DecidedBy        *uuid.UUID        `gorm:"type:uuid"`
	DecidedAt        *time.Time
	DecisionReason   string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (DealershipModel) TableName() string {
	return "dealerships"
}

// ToDomain converts the persistence model to a domain Account
func (m *DealershipModel) ToDomain() *dealership.Account {
	var outletID uuid.UUID
	if m.OutletID != nil {
		outletID = *m.OutletID
	}
	return dealership.Restore(dealership.RestoreState{
		Root:          m.Root(),
		CompanyID:     m.CompanyID,
		OutletID:      outletID,
		Name:          m.Name,
		Phone:         m.Phone,
		Email:         m.Email,
		Address:       m.Address,
		Status:        m.Status,
		Approval:      approval.RestoreWorkflow(m.ApprovalDecision, m.DecidedBy, m.DecidedAt, m.DecisionReason),
		CreditLimit:   valueobject.NewMoney(m.CreditLimit),
		AdvanceAmount: valueobject.NewMoney(m.AdvanceAmount),
	})
}

// FromDomain populates the persistence model from a domain Account
func (m *DealershipModel) FromDomain(a *dealership.Account) {
	m.SetRoot(a.BaseAggregateRoot)
	m.CompanyID = a.CompanyID
	m.OutletID = nil
	if a.OutletID != uuid.Nil {
		outletID := a.OutletID
		m.OutletID = &outletID
	}
	m.Name = a.Name
	m.Phone = a.Phone
	m.Email = a.Email
	m.Address = a.Address
	m.Status = a.Status
	m.CreditLimit = a.CreditLimit().Amount()
	m.AdvanceAmount = a.AdvanceAmount().Amount()
	m.DueAmount = a.DueAmount().Amount()
	m.ApprovalDecision = a.Approval.Decision
	m.DecidedBy = a.Approval.DecidedBy
	m.DecidedAt = a.Approval.DecidedAt
	m.DecisionReason = a.Approval.Reason
}

// UpdateColumns returns the mutable columns written by conditional updates
func (m *DealershipModel) UpdateColumns() map[string]any {
	return map[string]any{
		"name":              m.Name,
		"phone":             m.Phone,
		"email":             m.Email,
		"address":           m.Address,
		"status":            m.Status,
		"credit_limit":      m.CreditLimit,
		"advance_amount":    m.AdvanceAmount,
		"due_amount":        m.DueAmount,
		"approval_decision": m.ApprovalDecision,
		"decided_by":        m.DecidedBy,
		"decided_at":        m.DecidedAt,
		"decision_reason":   m.DecisionReason,
		"version":           m.Version,
		"updated_at":        m.UpdatedAt,
	}
}

// DealershipModelFromDomain creates a new persistence model from a domain Account
func DealershipModelFromDomain(a *dealership.Account) *DealershipModel {
	m := &DealershipModel{}
	m.FromDomain(a)
	return m
}
