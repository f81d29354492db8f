package deposit

import (
	"time"

	"github.com/dealerdesk/backend/internal/domain/deposit"
	"github.com/dealerdesk/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// RecordRequest carries the fields of a new or edited deposit
type RecordRequest struct {
	Amount        valueobject.Money
	Method        string
	TransactionID string
	Note          string
	DepositDate   valueobject.Date
}

func (r RecordRequest) toInput() deposit.Input {
	return deposit.Input{
		Amount:        r.Amount,
		Method:        deposit.Method(r.Method),
		TransactionID: r.TransactionID,
		Note:          r.Note,
		DepositDate:   r.DepositDate,
	}
}

// ListFilter narrows a deposit listing
type ListFilter struct {
	Page     int
	PageSize int
	Search   string
	Status   string
	Method   string
	OutletID *uuid.UUID
}

// DepositResponse is the read model of a deposit
type DepositResponse struct {
	ID              uuid.UUID         `json:"id"`
	UserID          uuid.UUID         `json:"user_id"`
	OutletID        uuid.UUID         `json:"outlet_id"`
	Amount          valueobject.Money `json:"amount"`
	Method          string            `json:"method"`
	TransactionID   string            `json:"transaction_id,omitempty"`
	Note            string            `json:"note,omitempty"`
	DepositDate     valueobject.Date  `json:"deposit_date"`
	Status          string            `json:"status"`
	DecidedBy       *uuid.UUID        `json:"decided_by,omitempty"`
	DecidedAt       *time.Time        `json:"decided_at,omitempty"`
	RejectionReason string            `json:"rejection_reason,omitempty"`
	Version         int               `json:"version"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// ToDepositResponse converts the domain deposit to its read model
func ToDepositResponse(d *deposit.Deposit) DepositResponse {
	return DepositResponse{
		ID:              d.ID,
		UserID:          d.UserID,
		OutletID:        d.OutletID,
		Amount:          d.Amount,
		Method:          string(d.Method),
		TransactionID:   d.TransactionID,
		Note:            d.Note,
		DepositDate:     d.DepositDate,
		Status:          d.Status.String(),
		DecidedBy:       d.Approval.DecidedBy,
		DecidedAt:       d.Approval.DecidedAt,
		RejectionReason: d.Approval.Reason,
		Version:         d.GetVersion(),
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

// ToDepositResponses converts a slice of deposits
func ToDepositResponses(deposits []deposit.Deposit) []DepositResponse {
	responses := make([]DepositResponse, len(deposits))
	for i := range deposits {
		responses[i] = ToDepositResponse(&deposits[i])
	}
	return responses
}
