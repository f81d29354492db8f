package router

import (
	"github.com/dealerdesk/backend/internal/infrastructure/auth"
	"github.com/dealerdesk/backend/internal/interfaces/http/handler"
	"github.com/dealerdesk/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handlers holds every HTTP handler mounted by the API
type Handlers struct {
	Health       *handler.HealthHandler
	Dealership   *handler.DealershipHandler
	Subscription *handler.SubscriptionHandler
	Deposit      *handler.DepositHandler
}

// DealershipRoutes builds the /dealerships group
func DealershipRoutes(h Handlers, log *zap.Logger) *DomainGroup {
	approve := middleware.RequirePermission(log, auth.PermissionDealershipApprove)
	return NewDomainGroup("dealerships", "/dealerships").
		POST("", h.Dealership.Create).
		GET("", h.Dealership.List).
		GET("/:id", h.Dealership.Get).
		PUT("/:id", h.Dealership.UpdateFinancials).
		POST("/:id/approve", approve, h.Dealership.Approve).
		POST("/:id/reject", approve, h.Dealership.Reject).
		POST("/:id/suspend", approve, h.Dealership.Suspend).
		POST("/:id/reactivate", approve, h.Dealership.Reactivate).
		POST("/:id/deactivate", approve, h.Dealership.Deactivate).
		GET("/:id/subscriptions", h.Subscription.ListByDealership)
}

// PlanRoutes builds the /plans group
func PlanRoutes(h Handlers, log *zap.Logger) *DomainGroup {
	return NewDomainGroup("plans", "/plans").
		GET("", h.Subscription.ListPlans).
		GET("/:id", h.Subscription.GetPlan).
		POST("", middleware.RequirePermission(log, auth.PermissionPlanManage), h.Subscription.CreatePlan)
}

// SubscriptionRoutes builds the /subscriptions group
func SubscriptionRoutes(h Handlers) *DomainGroup {
	return NewDomainGroup("subscriptions", "/subscriptions").
		POST("", h.Subscription.Select).
		GET("/:id", h.Subscription.Get).
		POST("/:id/renew", h.Subscription.Renew).
		POST("/:id/cancel", h.Subscription.Cancel).
		POST("/:id/payments", h.Subscription.RecordPayment).
		POST("/:id/payments/:paymentId/refund", h.Subscription.RefundPayment)
}

// DepositRoutes builds the /deposits group
func DepositRoutes(h Handlers, log *zap.Logger) *DomainGroup {
	approve := middleware.RequirePermission(log, auth.PermissionDepositApprove)
	return NewDomainGroup("deposits", "/deposits").
		POST("", h.Deposit.Record).
		GET("", h.Deposit.List).
		GET("/:id", h.Deposit.Get).
		PUT("/:id", h.Deposit.Update).
		DELETE("/:id", h.Deposit.Delete).
		POST("/:id/approve", approve, h.Deposit.Approve).
		POST("/:id/reject", approve, h.Deposit.Reject)
}

// AdminRoutes builds the /admin group
func AdminRoutes(h Handlers, log *zap.Logger) *DomainGroup {
	return NewDomainGroup("admin", "/admin").
		Use(middleware.RequirePermission(log, auth.PermissionPlanManage)).
		POST("/expiry-sweep", h.Subscription.ExpirySweep)
}

// Mount registers the public health endpoint on the bare engine and every
// domain group under the authenticated /api/v1 group. It returns the API
// routes it mounted.
func Mount(engine *gin.Engine, h Handlers, log *zap.Logger, apiMiddleware ...gin.HandlerFunc) []Route {
	engine.GET("/health", h.Health.Health)

	return API{Version: "v1", Middleware: apiMiddleware}.Mount(engine,
		DealershipRoutes(h, log),
		PlanRoutes(h, log),
		SubscriptionRoutes(h),
		DepositRoutes(h, log),
		AdminRoutes(h, log),
	)
}
