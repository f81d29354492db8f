package handler

import (
	"context"
	"time"

	subscriptionapp "github.com/dealerdesk/backend/internal/application/subscription"
	"github.com/dealerdesk/backend/internal/domain/shared/valueobject"
	"github.com/dealerdesk/backend/internal/domain/subscription"
	"github.com/dealerdesk/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SubscriptionService is the application surface used by SubscriptionHandler
type SubscriptionService interface {
	CreatePlan(ctx context.Context, req subscriptionapp.CreatePlanRequest) (*subscriptionapp.PlanResponse, error)
	GetPlan(ctx context.Context, id uuid.UUID) (*subscriptionapp.PlanResponse, error)
	ListPlans(ctx context.Context, page, pageSize int) ([]subscriptionapp.PlanResponse, error)
	SelectPlan(ctx context.Context, req subscriptionapp.SelectPlanRequest) (*subscriptionapp.SubscriptionResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*subscriptionapp.SubscriptionResponse, error)
	ListByDealership(ctx context.Context, dealershipID uuid.UUID, page, pageSize int) ([]subscriptionapp.SubscriptionResponse, error)
	Renew(ctx context.Context, id uuid.UUID, req subscriptionapp.RenewRequest) (*subscriptionapp.RenewResponse, error)
	Cancel(ctx context.Context, id uuid.UUID) (*subscriptionapp.SubscriptionResponse, error)
	RecordPayment(ctx context.Context, id uuid.UUID, req subscriptionapp.PaymentRequest) (*subscriptionapp.SubscriptionResponse, error)
	RefundPayment(ctx context.Context, id, paymentID uuid.UUID) (*subscriptionapp.SubscriptionResponse, error)
	ExpireDue(ctx context.Context, today valueobject.Date) (subscriptionapp.SweepResult, error)
}

// SubscriptionHandler handles plan and subscription endpoints
type SubscriptionHandler struct {
	BaseHandler
	service SubscriptionService
	now     func() time.Time
}

// NewSubscriptionHandler creates a new SubscriptionHandler
func NewSubscriptionHandler(service SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{service: service, now: time.Now}
}

// ModuleRequest references a module bundled with a plan
type ModuleRequest struct {
	ID   string `json:"id" binding:"required,uuid"`
	Name string `json:"name" binding:"max=100"`
}

// CreatePlanRequest is the body of POST /plans
type CreatePlanRequest struct {
	Name         string          `json:"name" binding:"required,max=100" example:"Premium"`
	Type         int             `json:"type" binding:"required,min=1,max=4" example:"3"`
	Price        string          `json:"price" binding:"required,decimal_gte0" example:"6000.00"`
	ValidityDays int             `json:"validity_days" binding:"required,min=1" example:"60"`
	ProductRange int             `json:"product_range" binding:"min=0" example:"500"`
	Modules      []ModuleRequest `json:"modules" binding:"dive"`
}

// SelectPlanRequest is the body of POST /subscriptions
type SelectPlanRequest struct {
	DealershipID string `json:"dealership_id" binding:"required,uuid"`
	PlanID       string `json:"plan_id" binding:"required,uuid"`
	StartDate    string `json:"start_date" binding:"required,iso_date" example:"2024-04-15"`
	DraftID      string `json:"draft_id" binding:"omitempty,uuid"`
}

// RenewSubscriptionRequest is the body of POST /subscriptions/:id/renew
type RenewSubscriptionRequest struct {
	PlanID    string `json:"plan_id" binding:"required,uuid"`
	StartDate string `json:"start_date" binding:"required,iso_date" example:"2024-04-10"`
}

// RecordPaymentRequest is the body of POST /subscriptions/:id/payments
type RecordPaymentRequest struct {
	Amount         string `json:"amount" binding:"required,decimal_gte0" example:"3000.00"`
	Method         string `json:"method" binding:"required,oneof=cash card bank mobile online"`
	Status         string `json:"status" binding:"omitempty,oneof=pending completed failed"`
	PaymentDate    string `json:"payment_date" binding:"omitempty,iso_date"`
	TransactionRef string `json:"transaction_ref" binding:"max=100"`
}

// SubscriptionView is a subscription with its amounts formatted for display
type SubscriptionView struct {
	subscriptionapp.SubscriptionResponse
	Display dto.MoneyDisplay `json:"display"`
}

func newSubscriptionView(s *subscriptionapp.SubscriptionResponse) SubscriptionView {
	return SubscriptionView{
		SubscriptionResponse: *s,
		Display: dto.NewMoneyDisplay(map[string]valueobject.Money{
			"amount":      s.Amount,
			"total_paid":  s.TotalPaid,
			"term_paid":   s.TermPaid,
			"outstanding": s.Outstanding,
		}),
	}
}

// PlanView is a plan with its price formatted for display
type PlanView struct {
	subscriptionapp.PlanResponse
	Display dto.MoneyDisplay `json:"display"`
}

func newPlanView(p *subscriptionapp.PlanResponse) PlanView {
	return PlanView{
		PlanResponse: *p,
		Display:      dto.NewMoneyDisplay(map[string]valueobject.Money{"price": p.Price}),
	}
}

// RenewView pairs the renewed subscription with the price delta
type RenewView struct {
	Subscription SubscriptionView        `json:"subscription"`
	Change       subscription.PlanChange `json:"change"`
	Display      dto.MoneyDisplay        `json:"display"`
}

// SweepView reports a manual expiry sweep
type SweepView struct {
	Date      valueobject.Date `json:"date"`
	Expired   int              `json:"expired"`
	Conflicts int              `json:"conflicts"`
}

// ListPlans returns the plan catalogue
//
//	@Summary	List plans
//	@Tags		plans
//	@Router		/plans [get]
func (h *SubscriptionHandler) ListPlans(c *gin.Context) {
	var query dto.ListRequest
	if !h.bindQuery(c, &query) {
		return
	}
	query.Normalize()
	plans, err := h.service.ListPlans(c.Request.Context(), query.Page, query.PageSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	views := make([]PlanView, len(plans))
	for i := range plans {
		views[i] = newPlanView(&plans[i])
	}
	h.Success(c, views)
}

// GetPlan returns a plan
//
//	@Summary	Get a plan
//	@Tags		plans
//	@Router		/plans/{id} [get]
func (h *SubscriptionHandler) GetPlan(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	plan, err := h.service.GetPlan(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, newPlanView(plan))
}

// CreatePlan adds a plan to the catalogue
//
//	@Summary	Create a plan
//	@Tags		plans
//	@Router		/plans [post]
func (h *SubscriptionHandler) CreatePlan(c *gin.Context) {
	var req CreatePlanRequest
	if !h.bindJSON(c, &req) {
		return
	}
	var fields fieldParser
	modules := make([]subscription.ModuleRef, len(req.Modules))
	for i, m := range req.Modules {
		modules[i] = subscription.ModuleRef{ID: fields.id("modules.id", m.ID), Name: m.Name}
	}
	create := subscriptionapp.CreatePlanRequest{
		Name:         req.Name,
		Type:         req.Type,
		Price:        fields.money("price", req.Price),
		ValidityDays: req.ValidityDays,
		ProductRange: req.ProductRange,
		Modules:      modules,
	}
	if h.rejectFields(c, &fields) {
		return
	}
	plan, err := h.service.CreatePlan(c.Request.Context(), create)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, newPlanView(plan))
}

// Select starts a pending subscription. Amount and end date are computed from the plan.
//
//	@Summary	Select a plan for a dealership
//	@Tags		subscriptions
//	@Router		/subscriptions [post]
func (h *SubscriptionHandler) Select(c *gin.Context) {
	var req SelectPlanRequest
	if !h.bindJSON(c, &req) {
		return
	}
	var fields fieldParser
	appReq := subscriptionapp.SelectPlanRequest{
		DealershipID: fields.id("dealership_id", req.DealershipID),
		PlanID:       fields.id("plan_id", req.PlanID),
		StartDate:    fields.date("start_date", req.StartDate),
	}
	if req.DraftID != "" {
		draftID := fields.id("draft_id", req.DraftID)
		appReq.DraftID = &draftID
	}
	if h.rejectFields(c, &fields) {
		return
	}
	sub, err := h.service.SelectPlan(c.Request.Context(), appReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if appReq.DraftID != nil {
		h.Success(c, newSubscriptionView(sub))
		return
	}
	h.Created(c, newSubscriptionView(sub))
}

// Get returns a subscription with total paid and days remaining
//
//	@Summary	Get a subscription
//	@Tags		subscriptions
//	@Router		/subscriptions/{id} [get]
func (h *SubscriptionHandler) Get(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	sub, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, newSubscriptionView(sub))
}

// ListByDealership returns the subscriptions of a dealership, newest first
//
//	@Summary	List a dealership's subscriptions
//	@Tags		subscriptions
//	@Router		/dealerships/{id}/subscriptions [get]
func (h *SubscriptionHandler) ListByDealership(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var query dto.ListRequest
	if !h.bindQuery(c, &query) {
		return
	}
	query.Normalize()
	subs, err := h.service.ListByDealership(c.Request.Context(), id, query.Page, query.PageSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	views := make([]SubscriptionView, len(subs))
	for i := range subs {
		views[i] = newSubscriptionView(&subs[i])
	}
	h.Success(c, views)
}

// Renew moves a subscription onto a plan for a new term
//
//	@Summary	Renew or change plan
//	@Tags		subscriptions
//	@Router		/subscriptions/{id}/renew [post]
func (h *SubscriptionHandler) Renew(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req RenewSubscriptionRequest
	if !h.bindJSON(c, &req) {
		return
	}
	var fields fieldParser
	renew := subscriptionapp.RenewRequest{
		PlanID:    fields.id("plan_id", req.PlanID),
		StartDate: fields.date("start_date", req.StartDate),
	}
	if h.rejectFields(c, &fields) {
		return
	}
	resp, err := h.service.Renew(c.Request.Context(), id, renew)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, RenewView{
		Subscription: newSubscriptionView(&resp.Subscription),
		Change:       resp.Change,
		Display:      dto.NewMoneyDisplay(map[string]valueobject.Money{"price_delta": resp.Change.PriceDelta}),
	})
}

// Cancel ends a subscription early
//
//	@Summary	Cancel a subscription
//	@Tags		subscriptions
//	@Router		/subscriptions/{id}/cancel [post]
func (h *SubscriptionHandler) Cancel(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	sub, err := h.service.Cancel(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, newSubscriptionView(sub))
}

// RecordPayment adds a payment. The first completed payment activates a pending subscription.
//
//	@Summary	Record a subscription payment
//	@Tags		subscriptions
//	@Router		/subscriptions/{id}/payments [post]
func (h *SubscriptionHandler) RecordPayment(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req RecordPaymentRequest
	if !h.bindJSON(c, &req) {
		return
	}
	var fields fieldParser
	payment := subscriptionapp.PaymentRequest{
		Amount:         fields.money("amount", req.Amount),
		Method:         req.Method,
		Status:         req.Status,
		PaymentDate:    fields.date("payment_date", req.PaymentDate),
		TransactionRef: req.TransactionRef,
	}
	if h.rejectFields(c, &fields) {
		return
	}
	sub, err := h.service.RecordPayment(c.Request.Context(), id, payment)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, newSubscriptionView(sub))
}

// RefundPayment marks a completed payment refunded
//
//	@Summary	Refund a subscription payment
//	@Tags		subscriptions
//	@Router		/subscriptions/{id}/payments/{paymentId}/refund [post]
func (h *SubscriptionHandler) RefundPayment(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	paymentID, ok := h.pathUUID(c, "paymentId")
	if !ok {
		return
	}
	sub, err := h.service.RefundPayment(c.Request.Context(), id, paymentID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, newSubscriptionView(sub))
}

// ExpirySweep expires every subscription whose term ended before today
//
//	@Summary	Run the expiry sweep now
//	@Tags		admin
//	@Router		/admin/expiry-sweep [post]
func (h *SubscriptionHandler) ExpirySweep(c *gin.Context) {
	today := valueobject.DateOf(h.now().UTC())
	result, err := h.service.ExpireDue(c.Request.Context(), today)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, SweepView{Date: today, Expired: result.Expired, Conflicts: result.Conflicts})
}
