package handler

import (
	"context"

	depositapp "github.com/dealerdesk/backend/internal/application/deposit"
	"github.com/dealerdesk/backend/internal/domain/shared"
	"github.com/dealerdesk/backend/internal/domain/shared/valueobject"
	"github.com/dealerdesk/backend/internal/infrastructure/auth"
	"github.com/dealerdesk/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// DepositService is the application surface used by DepositHandler
type DepositService interface {
	Record(ctx context.Context, userID, outletID uuid.UUID, req depositapp.RecordRequest) (*depositapp.DepositResponse, error)
	GetByID(ctx context.Context, id uuid.UUID) (*depositapp.DepositResponse, error)
	List(ctx context.Context, filter depositapp.ListFilter) ([]depositapp.DepositResponse, int64, error)
	Update(ctx context.Context, id, outletID uuid.UUID, req depositapp.RecordRequest) (*depositapp.DepositResponse, error)
	Delete(ctx context.Context, id, outletID uuid.UUID) error
	Approve(ctx context.Context, id, actor uuid.UUID) (*depositapp.DepositResponse, error)
	Reject(ctx context.Context, id, actor uuid.UUID, reason string) (*depositapp.DepositResponse, error)
}

// DepositHandler handles outlet deposit endpoints
type DepositHandler struct {
	BaseHandler
	service DepositService
}

// NewDepositHandler creates a new DepositHandler
func NewDepositHandler(service DepositService) *DepositHandler {
	return &DepositHandler{service: service}
}

// DepositRequest is the body of POST /deposits and PUT /deposits/:id
type DepositRequest struct {
	Amount        string `json:"amount" binding:"required,decimal_gte0" example:"25000.00"`
	Method        string `json:"method" binding:"required,oneof=cash bank_transfer mobile_banking credit_card check" example:"bank_transfer"`
	TransactionID string `json:"transaction_id" binding:"max=100" example:"TXN-88231"`
	Note          string `json:"note" binding:"max=1000"`
	DepositDate   string `json:"deposit_date" binding:"omitempty,iso_date" example:"2024-04-10"`
}

func (r DepositRequest) toApp(fields *fieldParser) depositapp.RecordRequest {
	return depositapp.RecordRequest{
		Amount:        fields.money("amount", r.Amount),
		Method:        r.Method,
		TransactionID: r.TransactionID,
		Note:          r.Note,
		DepositDate:   fields.date("deposit_date", r.DepositDate),
	}
}

// DepositListQuery holds the query parameters of GET /deposits
type DepositListQuery struct {
	dto.ListRequest
	Status   string `form:"status" binding:"omitempty,oneof=pending approved failed"`
	Method   string `form:"method" binding:"omitempty,max=50"`
	OutletID string `form:"outlet_id" binding:"omitempty,uuid"`
}

// DepositView is a deposit with its amount formatted for display
type DepositView struct {
	depositapp.DepositResponse
	Display dto.MoneyDisplay `json:"display"`
}

func newDepositView(d *depositapp.DepositResponse) DepositView {
	return DepositView{
		DepositResponse: *d,
		Display:         dto.NewMoneyDisplay(map[string]valueobject.Money{"amount": d.Amount}),
	}
}

// Record creates a pending deposit for the caller's outlet
//
//	@Summary	Record a deposit
//	@Tags		deposits
//	@Router		/deposits [post]
func (h *DepositHandler) Record(c *gin.Context) {
	var req DepositRequest
	if !h.bindJSON(c, &req) {
		return
	}
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var fields fieldParser
	in := req.toApp(&fields)
	if h.rejectFields(c, &fields) {
		return
	}
	d, err := h.service.Record(c.Request.Context(), actor.UserID, actor.OutletID, in)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, newDepositView(d))
}

// List returns a page of deposits. Callers without approval rights only see their own outlet.
//
//	@Summary	List deposits
//	@Tags		deposits
//	@Router		/deposits [get]
func (h *DepositHandler) List(c *gin.Context) {
	var query DepositListQuery
	if !h.bindQuery(c, &query) {
		return
	}
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	query.Normalize()

	filter := depositapp.ListFilter{
		Page:     query.Page,
		PageSize: query.PageSize,
		Search:   query.Search,
		Status:   query.Status,
		Method:   query.Method,
	}
	switch {
	case !actor.Can(auth.PermissionDepositApprove):
		filter.OutletID = &actor.OutletID
	case query.OutletID != "":
		var fields fieldParser
		outletID := fields.id("outlet_id", query.OutletID)
		if h.rejectFields(c, &fields) {
			return
		}
		filter.OutletID = &outletID
	}

	deposits, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	views := make([]DepositView, len(deposits))
	for i := range deposits {
		views[i] = newDepositView(&deposits[i])
	}
	h.SuccessWithMeta(c, views, total, query.Page, query.PageSize)
}

// Get returns a deposit
//
//	@Summary	Get a deposit
//	@Tags		deposits
//	@Router		/deposits/{id} [get]
func (h *DepositHandler) Get(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	d, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if d.OutletID != actor.OutletID && !actor.Can(auth.PermissionDepositApprove) {
		h.HandleError(c, shared.ErrForbidden)
		return
	}
	h.Success(c, newDepositView(d))
}

// Update edits a pending deposit of the caller's outlet
//
//	@Summary	Update a deposit
//	@Tags		deposits
//	@Router		/deposits/{id} [put]
func (h *DepositHandler) Update(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req DepositRequest
	if !h.bindJSON(c, &req) {
		return
	}
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var fields fieldParser
	in := req.toApp(&fields)
	if h.rejectFields(c, &fields) {
		return
	}
	d, err := h.service.Update(c.Request.Context(), id, actor.OutletID, in)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, newDepositView(d))
}

// Delete removes a pending deposit of the caller's outlet
//
//	@Summary	Delete a deposit
//	@Tags		deposits
//	@Router		/deposits/{id} [delete]
func (h *DepositHandler) Delete(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id, actor.OutletID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Approve signs off a pending deposit
//
//	@Summary	Approve a deposit
//	@Tags		deposits
//	@Router		/deposits/{id}/approve [post]
func (h *DepositHandler) Approve(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	d, err := h.service.Approve(c.Request.Context(), id, actor.UserID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, newDepositView(d))
}

// Reject marks a pending deposit failed
//
//	@Summary	Reject a deposit
//	@Tags		deposits
//	@Router		/deposits/{id}/reject [post]
func (h *DepositHandler) Reject(c *gin.Context) {
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
	d, err := h.service.Reject(c.Request.Context(), id, actor.UserID, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, newDepositView(d))
}
