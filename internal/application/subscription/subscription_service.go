package subscription

import (
	"context"
	"errors"
	"fmt"

	"github.com/dealerdesk/backend/internal/domain/dealership"
	"github.com/dealerdesk/backend/internal/domain/lifecycle"
	"github.com/dealerdesk/backend/internal/domain/shared"
	"github.com/dealerdesk/backend/internal/domain/shared/valueobject"
	"github.com/dealerdesk/backend/internal/domain/subscription"
	"github.com/dealerdesk/backend/internal/infrastructure/event"
	"github.com/dealerdesk/backend/internal/infrastructure/logger"
	"github.com/dealerdesk/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultSweepBatch is the number of subscriptions an expiry sweep loads at a time
const DefaultSweepBatch = 200

// DealershipLookup confirms a dealership exists
type DealershipLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*dealership.Account, error)
}

// Service handles plan and subscription use cases
type Service struct {
	subscriptions subscription.Repository
	plans         subscription.PlanRepository
	dealerships   DealershipLookup
	engine        *lifecycle.Facade
	publisher     shared.EventPublisher
	sweepBatch    int
}

// NewService creates a new subscription service. The facade should resolve
// plans through the same repository (usually the cached one).
func NewService(
	subscriptions subscription.Repository,
	plans subscription.PlanRepository,
	dealerships DealershipLookup,
	engine *lifecycle.Facade,
	publisher shared.EventPublisher,
) *Service {
	return &Service{
		subscriptions: subscriptions,
		plans:         plans,
		dealerships:   dealerships,
		engine:        engine,
		publisher:     publisher,
		sweepBatch:    DefaultSweepBatch,
	}
}

// WithSweepBatch overrides the expiry sweep batch size
func (s *Service) WithSweepBatch(n int) *Service {
	if n > 0 {
		s.sweepBatch = n
	}
	return s
}

// CreatePlan stores a new plan
func (s *Service) CreatePlan(ctx context.Context, req CreatePlanRequest) (*PlanResponse, error) {
	plan, err := subscription.NewPlan(req.Name, subscription.PlanType(req.Type), req.Price,
		req.ValidityDays, req.ProductRange, req.Modules, s.engine.Now())
	if err != nil {
		return nil, err
	}
	if err := s.plans.Save(ctx, plan); err != nil {
		return nil, fmt.Errorf("failed to save plan: %w", err)
	}
	logger.L(ctx).Info("Plan created",
		zap.String("plan_id", plan.ID.String()),
		zap.String("price", plan.Price.String()),
		zap.Int("validity_days", plan.ValidityDays),
	)
	response := ToPlanResponse(plan)
	return &response, nil
}

// GetPlan returns a plan
func (s *Service) GetPlan(ctx context.Context, id uuid.UUID) (*PlanResponse, error) {
	plan, err := s.plans.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToPlanResponse(plan)
	return &response, nil
}

// ListPlans returns plans ordered by price
func (s *Service) ListPlans(ctx context.Context, page, pageSize int) ([]PlanResponse, error) {
	filter := shared.DefaultFilter()
	if page > 0 {
		filter.Page = page
	}
	if pageSize > 0 {
		filter.PageSize = pageSize
	}
	plans, err := s.plans.FindAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	responses := make([]PlanResponse, len(plans))
	for i := range plans {
		responses[i] = ToPlanResponse(&plans[i])
	}
	return responses, nil
}

// SelectPlan creates a pending subscription for a dealership, or re-points
// an existing pending draft. Amount and end date come from the plan.
func (s *Service) SelectPlan(ctx context.Context, req SelectPlanRequest) (*SubscriptionResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "subscription", "select_plan",
		telemetry.SpanAttrDealershipID, req.DealershipID.String(),
		telemetry.SpanAttrPlanID, req.PlanID.String(),
	)
	defer span.End()

	if _, err := s.dealerships.FindByID(ctx, req.DealershipID); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var draft *subscription.Subscription
	if req.DraftID != nil {
		loaded, err := s.subscriptions.FindByID(ctx, *req.DraftID)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
		if loaded.DealershipID != req.DealershipID {
			err := shared.NewDomainError(shared.ErrInvalidInput.Code, "Draft subscription belongs to another dealership")
			telemetry.RecordError(span, err)
			return nil, err
		}
		draft = loaded
	}

	sub, err := s.engine.SelectPlan(ctx, draft, req.DealershipID, req.PlanID, req.StartDate)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if draft == nil {
		err = s.subscriptions.Save(ctx, sub)
	} else {
		err = s.subscriptions.SaveWithLock(ctx, sub)
	}
	if err != nil {
		telemetry.RecordError(span, err)
		s.logConflict(ctx, "select plan", sub.ID, err)
		return nil, err
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrSubscriptionID, sub.ID.String())
	s.publish(ctx, sub)

	logger.L(ctx).Info("Subscription plan selected",
		zap.String("subscription_id", sub.ID.String()),
		zap.String("plan_id", sub.PlanID.String()),
		zap.String("amount", sub.Amount.String()),
		zap.String("end_date", sub.EndDate.String()),
	)
	response := ToSubscriptionResponse(sub, s.engine.Now())
	return &response, nil
}

// Get returns a subscription with total paid and days remaining computed now
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*SubscriptionResponse, error) {
	sub, err := s.subscriptions.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToSubscriptionResponse(sub, s.engine.Now())
	return &response, nil
}

// ListByDealership returns the subscriptions of a dealership, newest first
func (s *Service) ListByDealership(ctx context.Context, dealershipID uuid.UUID, page, pageSize int) ([]SubscriptionResponse, error) {
	filter := shared.DefaultFilter()
	if page > 0 {
		filter.Page = page
	}
	if pageSize > 0 {
		filter.PageSize = pageSize
	}
	subs, err := s.subscriptions.FindByDealership(ctx, dealershipID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	now := s.engine.Now()
	responses := make([]SubscriptionResponse, len(subs))
	for i := range subs {
		responses[i] = ToSubscriptionResponse(&subs[i], now)
	}
	return responses, nil
}

// Renew starts a new term on the given plan. The price delta against the
// previous plan is reported but never charged automatically.
func (s *Service) Renew(ctx context.Context, id uuid.UUID, req RenewRequest) (*RenewResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "subscription", "renew",
		telemetry.SpanAttrSubscriptionID, id.String(),
		telemetry.SpanAttrPlanID, req.PlanID.String(),
	)
	defer span.End()

	sub, err := s.subscriptions.FindByID(ctx, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	renewed, change, err := s.engine.RenewOrChangePlan(ctx, sub, req.PlanID, req.StartDate)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := s.subscriptions.SaveWithLock(ctx, renewed); err != nil {
		telemetry.RecordError(span, err)
		s.logConflict(ctx, "renew", id, err)
		return nil, err
	}
	s.publish(ctx, renewed)

	logger.L(ctx).Info("Subscription renewed",
		zap.String("subscription_id", id.String()),
		zap.String("plan_id", renewed.PlanID.String()),
		zap.String("direction", string(change.Direction)),
		zap.String("price_delta", change.PriceDelta.String()),
	)
	return &RenewResponse{
		Subscription: ToSubscriptionResponse(renewed, s.engine.Now()),
		Change:       change,
	}, nil
}

// Cancel ends a subscription permanently
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*SubscriptionResponse, error) {
	return s.mutate(ctx, "cancel", id, func(sub *subscription.Subscription) error {
		return sub.Cancel(s.engine.Now())
	})
}

// RecordPayment appends a payment. The first completed payment activates a pending subscription.
func (s *Service) RecordPayment(ctx context.Context, id uuid.UUID, req PaymentRequest) (*SubscriptionResponse, error) {
	return s.mutate(ctx, "record_payment", id, func(sub *subscription.Subscription) error {
		_, err := sub.RecordPayment(subscription.PaymentInput{
			Amount:         req.Amount,
			Method:         subscription.PaymentMethod(req.Method),
			Status:         subscription.PaymentStatus(req.Status),
			PaymentDate:    req.PaymentDate,
			TransactionRef: req.TransactionRef,
		}, s.engine.Now())
		return err
	})
}

// RefundPayment moves a completed payment to refunded
func (s *Service) RefundPayment(ctx context.Context, id, paymentID uuid.UUID) (*SubscriptionResponse, error) {
	return s.mutate(ctx, "refund_payment", id, func(sub *subscription.Subscription) error {
		return sub.RefundPayment(paymentID, s.engine.Now())
	})
}

// ExpireDue marks every active subscription whose term ended before today as
// expired. Rows that changed underneath the sweep are skipped and counted.
func (s *Service) ExpireDue(ctx context.Context, today valueobject.Date) (SweepResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "subscription", "expire_due")
	defer span.End()

	var result SweepResult
	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		batch, err := s.subscriptions.FindActiveEndingBefore(ctx, today, s.sweepBatch)
		if err != nil {
			telemetry.RecordError(span, err)
			return result, fmt.Errorf("failed to load expiring subscriptions: %w", err)
		}

		progressed := 0
		for i := range batch {
			sub := &batch[i]
			if !sub.Expire(today, s.engine.Now()) {
				continue
			}
			if err := s.subscriptions.SaveWithLock(ctx, sub); err != nil {
				if errors.Is(err, shared.ErrConcurrencyConflict) {
					result.Conflicts++
					telemetry.AddEvent(span, "expiry_conflict", telemetry.SpanAttrSubscriptionID, sub.ID.String())
					s.logConflict(ctx, "expire", sub.ID, err)
					continue
				}
				telemetry.RecordError(span, err)
				return result, fmt.Errorf("failed to expire subscription %s: %w", sub.ID, err)
			}
			s.publish(ctx, sub)
			result.Expired++
			progressed++
		}

		if len(batch) < s.sweepBatch || progressed == 0 {
			break
		}
	}

	telemetry.SetAttributes(span, "expired", result.Expired, "conflicts", result.Conflicts)
	logger.L(ctx).Info("Subscription expiry sweep finished",
		zap.String("today", today.String()),
		zap.Int("expired", result.Expired),
		zap.Int("conflicts", result.Conflicts),
	)
	return result, nil
}

func (s *Service) mutate(ctx context.Context, action string, id uuid.UUID, apply func(*subscription.Subscription) error) (*SubscriptionResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "subscription", action,
		telemetry.SpanAttrSubscriptionID, id.String(),
	)
	defer span.End()

	sub, err := s.subscriptions.FindByID(ctx, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	from := sub.Status
	if err := apply(sub); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := s.subscriptions.SaveWithLock(ctx, sub); err != nil {
		telemetry.RecordError(span, err)
		s.logConflict(ctx, action, id, err)
		return nil, err
	}
	s.publish(ctx, sub)

	telemetry.SetAttributes(span, telemetry.SpanAttrStatus, sub.Status.String())
	logger.L(ctx).Info("Subscription updated",
		zap.String("subscription_id", id.String()),
		zap.String("action", action),
		zap.String("from", from.String()),
		zap.String("to", sub.Status.String()),
		zap.String("total_paid", sub.TotalPaid().String()),
	)
	response := ToSubscriptionResponse(sub, s.engine.Now())
	return &response, nil
}

func (s *Service) publish(ctx context.Context, sub *subscription.Subscription) {
	if err := event.PublishPending(ctx, s.publisher, sub); err != nil {
		logger.L(ctx).Warn("Failed to publish subscription events",
			zap.String("subscription_id", sub.ID.String()),
			zap.Error(err),
		)
	}
}

func (s *Service) logConflict(ctx context.Context, action string, id uuid.UUID, err error) {
	if errors.Is(err, shared.ErrConcurrencyConflict) {
		logger.L(ctx).Warn("Subscription write lost a race",
			zap.String("subscription_id", id.String()),
			zap.String("action", action),
			zap.Error(err),
		)
	}
}
