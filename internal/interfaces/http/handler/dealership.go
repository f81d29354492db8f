package handler

import (
	"context"

	dealershipapp "github.com/dealerdesk/backend/internal/application/dealership"
	"github.com/dealerdesk/backend/internal/domain/shared/valueobject"
	"github.com/dealerdesk/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// DealershipService is the application surface used by DealershipHandler
type DealershipService interface {
	Create(ctx context.Context, req dealershipapp.CreateRequest) (*dealershipapp.AccountResponse, error)
	GetByID(ctx context.Context, id uuid.UUID) (*dealershipapp.AccountResponse, error)
	List(ctx context.Context, filter dealershipapp.ListFilter) ([]dealershipapp.AccountResponse, int64, error)
	UpdateFinancials(ctx context.Context, id uuid.UUID, req dealershipapp.UpdateFinancialsRequest) (*dealershipapp.AccountResponse, error)
	Approve(ctx context.Context, id, actor uuid.UUID) (*dealershipapp.AccountResponse, error)
	Reject(ctx context.Context, id, actor uuid.UUID, reason string) (*dealershipapp.AccountResponse, error)
	Suspend(ctx context.Context, id uuid.UUID) (*dealershipapp.AccountResponse, error)
	Reactivate(ctx context.Context, id uuid.UUID) (*dealershipapp.AccountResponse, error)
	Deactivate(ctx context.Context, id uuid.UUID) (*dealershipapp.AccountResponse, error)
}

// DealershipHandler handles dealership account endpoints
type DealershipHandler struct {
	BaseHandler
	service DealershipService
}

// NewDealershipHandler creates a new DealershipHandler
func NewDealershipHandler(service DealershipService) *DealershipHandler {
	return &DealershipHandler{service: service}
}

// CreateDealershipRequest is the body of POST /dealerships
type CreateDealershipRequest struct {
	CompanyID     string `json:"company_id" binding:"required,uuid" example:"0b9f4f3c-6c38-4c53-9a39-27b3b6a4d7e2"`
	OutletID      string `json:"outlet_id" binding:"omitempty,uuid"`
	Name          string `json:"name" binding:"required,max=200" example:"Rahman Traders"`
	Phone         string `json:"phone" binding:"max=50" example:"+8801711000000"`
	Email         string `json:"email" binding:"omitempty,email,max=200"`
	Address       string `json:"address" binding:"max=500"`
	CreditLimit   string `json:"credit_limit" binding:"omitempty,decimal_gte0" example:"50000.00"`
	AdvanceAmount string `json:"advance_amount" binding:"omitempty,decimal_gte0" example:"10000.00"`
}

// UpdateFinancialsRequest is the body of PUT /dealerships/:id. Other fields are ignored.
type UpdateFinancialsRequest struct {
	CreditLimit   string `json:"credit_limit" binding:"required,decimal_gte0" example:"75000.00"`
	AdvanceAmount string `json:"advance_amount" binding:"required,decimal_gte0" example:"10000.00"`
}

// RejectRequest carries the reason for a rejection
type RejectRequest struct {
	Reason string `json:"reason" binding:"max=500" example:"Trade licence expired"`
}

// DealershipListQuery holds the query parameters of GET /dealerships
type DealershipListQuery struct {
	dto.ListRequest
	Status   string `form:"status" binding:"omitempty,oneof=pending active inactive suspended"`
	OutletID string `form:"outlet_id" binding:"omitempty,uuid"`
}

// DealershipView is an account with its amounts formatted for display
type DealershipView struct {
	dealershipapp.AccountResponse
	Display dto.MoneyDisplay `json:"display"`
}

func newDealershipView(a *dealershipapp.AccountResponse) DealershipView {
	return DealershipView{
		AccountResponse: *a,
		Display: dto.NewMoneyDisplay(map[string]valueobject.Money{
			"credit_limit":   a.CreditLimit,
			"advance_amount": a.AdvanceAmount,
			"due_amount":     a.DueAmount,
		}),
	}
}

// Create registers a dealership in pending status
//
//	@Summary	Register a dealership
//	@Tags		dealerships
//	@Router		/dealerships [post]
func (h *DealershipHandler) Create(c *gin.Context) {
	var req CreateDealershipRequest
	if !h.bindJSON(c, &req) {
		return
	}
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var fields fieldParser
	outletID := actor.OutletID
	if req.OutletID != "" {
		outletID = fields.id("outlet_id", req.OutletID)
	}
	create := dealershipapp.CreateRequest{
		CompanyID:     fields.id("company_id", req.CompanyID),
		OutletID:      outletID,
		Name:          req.Name,
		Phone:         req.Phone,
		Email:         req.Email,
		Address:       req.Address,
		CreditLimit:   fields.money("credit_limit", req.CreditLimit),
		AdvanceAmount: fields.money("advance_amount", req.AdvanceAmount),
	}
	if h.rejectFields(c, &fields) {
		return
	}
	account, err := h.service.Create(c.Request.Context(), create)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, newDealershipView(account))
}

// Get returns a dealership
//
//	@Summary	Get a dealership
//	@Tags		dealerships
//	@Router		/dealerships/{id} [get]
func (h *DealershipHandler) Get(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	account, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, newDealershipView(account))
}

// List returns a page of dealerships
//
//	@Summary	List dealerships
//	@Tags		dealerships
//	@Router		/dealerships [get]
func (h *DealershipHandler) List(c *gin.Context) {
	var query DealershipListQuery
	if !h.bindQuery(c, &query) {
		return
	}
	query.Normalize()

	filter := dealershipapp.ListFilter{
		Page:     query.Page,
		PageSize: query.PageSize,
		Search:   query.Search,
		Status:   query.Status,
		OrderBy:  query.OrderBy,
		OrderDir: query.OrderDir,
	}
	if query.OutletID != "" {
		var fields fieldParser
		outletID := fields.id("outlet_id", query.OutletID)
		if h.rejectFields(c, &fields) {
			return
		}
		filter.OutletID = &outletID
	}

	accounts, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	views := make([]DealershipView, len(accounts))
	for i := range accounts {
		views[i] = newDealershipView(&accounts[i])
	}
	h.SuccessWithMeta(c, views, total, query.Page, query.PageSize)
}

// UpdateFinancials changes credit limit and advance amount. The due amount is recomputed.
//
//	@Summary	Update dealership financials
//	@Tags		dealerships
//	@Router		/dealerships/{id} [put]
func (h *DealershipHandler) UpdateFinancials(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req UpdateFinancialsRequest
	if !h.bindJSON(c, &req) {
		return
	}
	var fields fieldParser
	update := dealershipapp.UpdateFinancialsRequest{
		CreditLimit:   fields.money("credit_limit", req.CreditLimit),
		AdvanceAmount: fields.money("advance_amount", req.AdvanceAmount),
	}
	if h.rejectFields(c, &fields) {
		return
	}
	account, err := h.service.UpdateFinancials(c.Request.Context(), id, update)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, newDealershipView(account))
}

// Approve activates a pending dealership on behalf of the caller
//
//	@Summary	Approve a dealership
//	@Tags		dealerships
//	@Router		/dealerships/{id}/approve [post]
func (h *DealershipHandler) Approve(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	account, err := h.service.Approve(c.Request.Context(), id, actor.UserID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, newDealershipView(account))
}

// Reject declines a pending dealership
//
//	@Summary	Reject a dealership
//	@Tags		dealerships
//	@Router		/dealerships/{id}/reject [post]
func (h *DealershipHandler) Reject(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req RejectRequest
	if c.Request.ContentLength != 0 && !h.bindJSON(c, &req) {
		return
	}
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	account, err := h.service.Reject(c.Request.Context(), id, actor.UserID, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, newDealershipView(account))
}

// Suspend puts an active dealership on hold
//
//	@Summary	Suspend a dealership
//	@Tags		dealerships
//	@Router		/dealerships/{id}/suspend [post]
func (h *DealershipHandler) Suspend(c *gin.Context) {
	h.transition(c, h.service.Suspend)
}

// Reactivate returns a suspended or inactive dealership to active
func (h *DealershipHandler) Reactivate(c *gin.Context) {
	h.transition(c, h.service.Reactivate)
}

// Deactivate marks a dealership inactive
func (h *DealershipHandler) Deactivate(c *gin.Context) {
	h.transition(c, h.service.Deactivate)
}

func (h *DealershipHandler) transition(c *gin.Context, apply func(context.Context, uuid.UUID) (*dealershipapp.AccountResponse, error)) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	account, err := apply(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, newDealershipView(account))
}
