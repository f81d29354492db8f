package dealership

import (
	"time"

	"github.com/dealerdesk/backend/internal/domain/dealership"
	"github.com/dealerdesk/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// CreateRequest represents a request to register a dealership
type CreateRequest struct {
	CompanyID     uuid.UUID
	OutletID      uuid.UUID
	Name          string
	Phone         string
	Email         string
	Address       string
	CreditLimit   valueobject.Money
	AdvanceAmount valueobject.Money
}

// UpdateFinancialsRequest carries the only fields a dealership edit may change
type UpdateFinancialsRequest struct {
	CreditLimit   valueobject.Money
	AdvanceAmount valueobject.Money
}

// ListFilter narrows a dealership listing
type ListFilter struct {
	Page     int
	PageSize int
	Search   string
	Status   string
	OutletID *uuid.UUID
	OrderBy  string
	OrderDir string
}

// AccountResponse is the read model of a dealership account
type AccountResponse struct {
	ID              uuid.UUID         `json:"id"`
	CompanyID       uuid.UUID         `json:"company_id"`
	OutletID        uuid.UUID         `json:"outlet_id"`
	Name            string            `json:"name"`
	Phone           string            `json:"phone,omitempty"`
	Email           string            `json:"email,omitempty"`
	Address         string            `json:"address,omitempty"`
	CreditLimit     valueobject.Money `json:"credit_limit"`
	AdvanceAmount   valueobject.Money `json:"advance_amount"`
	DueAmount       valueobject.Money `json:"due_amount"`
	Status          string            `json:"status"`
	ApprovedBy      *uuid.UUID        `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time        `json:"approved_at,omitempty"`
	RejectionReason string            `json:"rejection_reason,omitempty"`
	Version         int               `json:"version"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// ToAccountResponse converts the domain account to its read model
func ToAccountResponse(a *dealership.Account) AccountResponse {
	return AccountResponse{
		ID:              a.ID,
		CompanyID:       a.CompanyID,
		OutletID:        a.OutletID,
		Name:            a.Name,
		Phone:           a.Phone,
		Email:           a.Email,
		Address:         a.Address,
		CreditLimit:     a.CreditLimit(),
		AdvanceAmount:   a.AdvanceAmount(),
		DueAmount:       a.DueAmount(),
		Status:          a.Status.String(),
		ApprovedBy:      a.ApprovedBy(),
		ApprovedAt:      a.ApprovedAt(),
		RejectionReason: a.Approval.Reason,
		Version:         a.GetVersion(),
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}

// ToAccountResponses converts a slice of accounts
func ToAccountResponses(accounts []dealership.Account) []AccountResponse {
	responses := make([]AccountResponse, len(accounts))
	for i := range accounts {
		responses[i] = ToAccountResponse(&accounts[i])
	}
	return responses
}
