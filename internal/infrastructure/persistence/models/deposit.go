package models

import (
	"time"

	"github.com/dealerdesk/backend/internal/domain/deposit"
	"github.com/dealerdesk/backend/internal/domain/shared/approval"
	"github.com/dealerdesk/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DepositModel is the persistence model for the Deposit aggregate
type DepositModel struct {
	VersionedColumns
	UserID           uuid.UUID         `gorm:"type:uuid;not null"`
	OutletID         uuid.UUID         `gorm:"type:uuid;not null;index"`
	Amount           decimal.Decimal   `gorm:"type:decimal(18,2);not null"`
	Method           deposit.Method    `gorm:"type:varchar(30);not null"`
	TransactionID    string            `gorm:"type:varchar(100)"`
	Note             string            `gorm:"type:text"`
	DepositDate      valueobject.Date  `gorm:"type:date;not null"`
	Status           deposit.Status    `gorm:"type:varchar(20);not null;default:'pending';index"`
	ApprovalDecision approval.Decision `gorm:"type:varchar(20);not null;default:'pending'"`
	DecidedBy        *uuid.UUID        `gorm:"type:uuid"`
	DecidedAt        *time.Time
	DecisionReason   string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (DepositModel) TableName() string {
	return "deposits"
}

// ToDomain converts the persistence model to a domain Deposit
func (m *DepositModel) ToDomain() *deposit.Deposit {
	return &deposit.Deposit{
		BaseAggregateRoot: m.Root(),
		UserID:            m.UserID,
		OutletID:          m.OutletID,
		Amount:            valueobject.NewMoney(m.Amount),
		Method:            m.Method,
		TransactionID:     m.TransactionID,
		Note:              m.Note,
		DepositDate:       m.DepositDate,
		Status:            m.Status,
		Approval:          approval.RestoreWorkflow(m.ApprovalDecision, m.DecidedBy, m.DecidedAt, m.DecisionReason),
	}
}

// FromDomain populates the persistence model from a domain Deposit
func (m *DepositModel) FromDomain(d *deposit.Deposit) {
	m.SetRoot(d.BaseAggregateRoot)
	m.UserID = d.UserID
	m.OutletID = d.OutletID
	m.Amount = d.Amount.Amount()
	m.Method = d.Method
	m.TransactionID = d.TransactionID
	m.Note = d.Note
	m.DepositDate = d.DepositDate
	m.Status = d.Status
	m.ApprovalDecision = d.Approval.Decision
	m.DecidedBy = d.Approval.DecidedBy
	m.DecidedAt = d.Approval.DecidedAt
	m.DecisionReason = d.Approval.Reason
}

// UpdateColumns returns the mutable columns written by conditional updates
func (m *DepositModel) UpdateColumns() map[string]any {
	return map[string]any{
		"amount":            m.Amount,
		"method":            m.Method,
		"transaction_id":    m.TransactionID,
		"note":              m.Note,
		"deposit_date":      m.DepositDate,
		"status":            m.Status,
		"approval_decision": m.ApprovalDecision,
		"decided_by":        m.DecidedBy,
		"decided_at":        m.DecidedAt,
		"decision_reason":   m.DecisionReason,
		"version":           m.Version,
		"updated_at":        m.UpdatedAt,
	}
}

// DepositModelFromDomain creates a new persistence model from a domain Deposit
func DepositModelFromDomain(d *deposit.Deposit) *DepositModel {
	m := &DepositModel{}
	m.FromDomain(d)
	return m
}
