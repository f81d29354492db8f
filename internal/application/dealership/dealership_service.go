package dealership

import (
	"context"
	"errors"
	"fmt"

	"github.com/dealerdesk/backend/internal/application/guard"
	"github.com/dealerdesk/backend/internal/domain/dealership"
	"github.com/dealerdesk/backend/internal/domain/lifecycle"
	"github.com/dealerdesk/backend/internal/domain/shared"
	"github.com/dealerdesk/backend/internal/infrastructure/event"
	"github.com/dealerdesk/backend/internal/infrastructure/logger"
	"github.com/dealerdesk/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const approvalKind = "dealership"

// Service handles dealership account use cases
type Service struct {
	repo      dealership.Repository
	engine    *lifecycle.Facade
	publisher shared.EventPublisher
	guard     *guard.ApprovalGuard
}

// NewService creates a new dealership service
func NewService(
	repo dealership.Repository,
	engine *lifecycle.Facade,
	publisher shared.EventPublisher,
	approvalGuard *guard.ApprovalGuard,
) *Service {
	return &Service{
		repo:      repo,
		engine:    engine,
		publisher: publisher,
		guard:     approvalGuard,
	}
}

// Create registers a new pending dealership account
func (s *Service) Create(ctx context.Context, req CreateRequest) (*AccountResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "dealership", "create")
	defer span.End()

	account, err := s.engine.CreateDealership(dealership.CreateInput{
		CompanyID:     req.CompanyID,
		OutletID:      req.OutletID,
		Name:          req.Name,
		Phone:         req.Phone,
		Email:         req.Email,
		Address:       req.Address,
		CreditLimit:   req.CreditLimit,
		AdvanceAmount: req.AdvanceAmount,
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.repo.Save(ctx, account); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save dealership: %w", err)
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrDealershipID, account.ID.String())
	s.publish(ctx, account)

	logger.L(ctx).Info("Dealership created",
		zap.String("dealership_id", account.ID.String()),
		zap.String("due_amount", account.DueAmount().String()),
	)
	response := ToAccountResponse(account)
	return &response, nil
}

// GetByID returns a dealership account
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*AccountResponse, error) {
	account, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToAccountResponse(account)
	return &response, nil
}

// List returns a page of dealership accounts and the total count
func (s *Service) List(ctx context.Context, filter ListFilter) ([]AccountResponse, int64, error) {
	domainFilter := shared.DefaultFilter()
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	if filter.OrderBy != "" {
		domainFilter.OrderBy = filter.OrderBy
	}
	if filter.OrderDir != "" {
		domainFilter.OrderDir = filter.OrderDir
	}
	domainFilter.Search = filter.Search
	if filter.Status != "" {
		status, err := dealership.ParseStatus(filter.Status)
		if err != nil {
			return nil, 0, err
		}
		domainFilter.Filters["status"] = string(status)
	}
	if filter.OutletID != nil {
		domainFilter.Filters["outlet_id"] = *filter.OutletID
	}

	accounts, err := s.repo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list dealerships: %w", err)
	}
	total, err := s.repo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count dealerships: %w", err)
	}
	return ToAccountResponses(accounts), total, nil
}

// UpdateFinancials replaces credit limit and advance; the due amount follows
func (s *Service) UpdateFinancials(ctx context.Context, id uuid.UUID, req UpdateFinancialsRequest) (*AccountResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "dealership", "update_financials",
		telemetry.SpanAttrDealershipID, id.String(),
	)
	defer span.End()

	account, err := s.repo.FindByID(ctx, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := s.engine.UpdateFinancials(account, req.CreditLimit, req.AdvanceAmount); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := s.repo.SaveWithLock(ctx, account); err != nil {
		telemetry.RecordError(span, err)
		s.logConflict(ctx, "update financials", id, err)
		return nil, err
	}
	s.publish(ctx, account)

	logger.L(ctx).Info("Dealership financials updated",
		zap.String("dealership_id", id.String()),
		zap.String("credit_limit", account.CreditLimit().String()),
		zap.String("advance_amount", account.AdvanceAmount().String()),
		zap.String("due_amount", account.DueAmount().String()),
	)
	response := ToAccountResponse(account)
	return &response, nil
}

// Approve activates a pending dealership. Of two concurrent approvals exactly one succeeds.
func (s *Service) Approve(ctx context.Context, id, actor uuid.UUID) (*AccountResponse, error) {
	return s.decide(ctx, "approve", id, actor, func(a *dealership.Account) error {
		return s.engine.Approve(a, actor)
	})
}

// Reject closes a pending dealership as inactive
func (s *Service) Reject(ctx context.Context, id, actor uuid.UUID, reason string) (*AccountResponse, error) {
	return s.decide(ctx, "reject", id, actor, func(a *dealership.Account) error {
		return s.engine.Reject(a, actor, reason)
	})
}

// Suspend moves an active dealership to suspended
func (s *Service) Suspend(ctx context.Context, id uuid.UUID) (*AccountResponse, error) {
	return s.transition(ctx, "suspend", id, func(a *dealership.Account) error {
		return a.Suspend(s.engine.Now())
	})
}

// Reactivate moves a suspended dealership back to active
func (s *Service) Reactivate(ctx context.Context, id uuid.UUID) (*AccountResponse, error) {
	return s.transition(ctx, "reactivate", id, func(a *dealership.Account) error {
		return a.Reactivate(s.engine.Now())
	})
}

// Deactivate closes a dealership permanently
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) (*AccountResponse, error) {
	return s.transition(ctx, "deactivate", id, func(a *dealership.Account) error {
		return a.Deactivate(s.engine.Now())
	})
}

// CountPending returns the number of dealerships awaiting approval
func (s *Service) CountPending(ctx context.Context) (int64, error) {
	filter := shared.DefaultFilter()
	filter.Filters["status"] = string(dealership.StatusPending)
	return s.repo.Count(ctx, filter)
}

func (s *Service) decide(ctx context.Context, action string, id, actor uuid.UUID, apply func(*dealership.Account) error) (_ *AccountResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "dealership", action,
		telemetry.SpanAttrDealershipID, id.String(),
		telemetry.SpanAttrActorID, actor.String(),
	)
	defer span.End()

	release, err := s.guard.Acquire(ctx, approvalKind, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	defer func() { release(err == nil) }()

	account, err := s.repo.FindByID(ctx, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err = apply(account); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err = s.repo.SaveDecision(ctx, account); err != nil {
		telemetry.RecordError(span, err)
		s.logConflict(ctx, action, id, err)
		return nil, err
	}
	s.publish(ctx, account)

	telemetry.SetAttributes(span, telemetry.SpanAttrStatus, account.Status.String())
	logger.L(ctx).Info("Dealership decision recorded",
		zap.String("dealership_id", id.String()),
		zap.String("action", action),
		zap.String("actor_id", actor.String()),
		zap.String("status", account.Status.String()),
	)
	response := ToAccountResponse(account)
	return &response, nil
}

func (s *Service) transition(ctx context.Context, action string, id uuid.UUID, apply func(*dealership.Account) error) (*AccountResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "dealership", action,
		telemetry.SpanAttrDealershipID, id.String(),
	)
	defer span.End()

	account, err := s.repo.FindByID(ctx, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	from := account.Status
	if err := apply(account); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := s.repo.SaveWithLock(ctx, account); err != nil {
		telemetry.RecordError(span, err)
		s.logConflict(ctx, action, id, err)
		return nil, err
	}
	s.publish(ctx, account)

	logger.L(ctx).Info("Dealership status changed",
		zap.String("dealership_id", id.String()),
		zap.String("from", from.String()),
		zap.String("to", account.Status.String()),
	)
	response := ToAccountResponse(account)
	return &response, nil
}

func (s *Service) publish(ctx context.Context, account *dealership.Account) {
	if err := event.PublishPending(ctx, s.publisher, account); err != nil {
		logger.L(ctx).Warn("Failed to publish dealership events",
			zap.String("dealership_id", account.ID.String()),
			zap.Error(err),
		)
	}
}

func (s *Service) logConflict(ctx context.Context, action string, id uuid.UUID, err error) {
	if errors.Is(err, shared.ErrConcurrencyConflict) || errors.Is(err, shared.ErrInvalidStateTransition) {
		logger.L(ctx).Warn("Dealership write lost a race",
			zap.String("dealership_id", id.String()),
			zap.String("action", action),
			zap.Error(err),
		)
	}
}
