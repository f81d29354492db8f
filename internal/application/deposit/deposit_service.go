package deposit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dealerdesk/backend/internal/application/guard"
	"github.com/dealerdesk/backend/internal/domain/deposit"
	"github.com/dealerdesk/backend/internal/domain/lifecycle"
	"github.com/dealerdesk/backend/internal/domain/shared"
	"github.com/dealerdesk/backend/internal/infrastructure/event"
	"github.com/dealerdesk/backend/internal/infrastructure/logger"
	"github.com/dealerdesk/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const approvalKind = "deposit"

// Service handles outlet deposit use cases
type Service struct {
	repo      deposit.Repository
	engine    *lifecycle.Facade
	publisher shared.EventPublisher
	guard     *guard.ApprovalGuard
}

// NewService creates a new deposit service
func NewService(
	repo deposit.Repository,
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

// Record creates a pending deposit on behalf of the caller's outlet
func (s *Service) Record(ctx context.Context, userID, outletID uuid.UUID, req RecordRequest) (*DepositResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "deposit", "record",
		telemetry.SpanAttrOutletID, outletID.String(),
		telemetry.SpanAttrAmount, req.Amount.String(),
	)
	defer span.End()

	d, err := s.engine.RecordDeposit(userID, outletID, req.toInput())
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := s.repo.Save(ctx, d); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save deposit: %w", err)
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrDepositID, d.ID.String())
	s.publish(ctx, d)

	logger.L(ctx).Info("Deposit recorded",
		zap.String("deposit_id", d.ID.String()),
		zap.String("amount", d.Amount.String()),
		zap.String("method", string(d.Method)),
	)
	response := ToDepositResponse(d)
	return &response, nil
}

// GetByID returns a deposit
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*DepositResponse, error) {
	d, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToDepositResponse(d)
	return &response, nil
}

// List returns a page of deposits and the total count
func (s *Service) List(ctx context.Context, filter ListFilter) ([]DepositResponse, int64, error) {
	domainFilter := shared.DefaultFilter()
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	domainFilter.Search = filter.Search
	if filter.Status != "" {
		status := deposit.Status(filter.Status)
		if !status.IsValid() {
			return nil, 0, shared.NewDomainError("INVALID_STATUS", "Unknown deposit status: "+filter.Status)
		}
		domainFilter.Filters["status"] = string(status)
	}
	if filter.Method != "" {
		domainFilter.Filters["method"] = filter.Method
	}
	if filter.OutletID != nil {
		domainFilter.Filters["outlet_id"] = *filter.OutletID
	}

	deposits, err := s.repo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list deposits: %w", err)
	}
	total, err := s.repo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count deposits: %w", err)
	}
	return ToDepositResponses(deposits), total, nil
}

// Update edits a pending deposit. Only the owning outlet may do so.
func (s *Service) Update(ctx context.Context, id, outletID uuid.UUID, req RecordRequest) (*DepositResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "deposit", "update",
		telemetry.SpanAttrDepositID, id.String(),
		telemetry.SpanAttrOutletID, outletID.String(),
	)
	defer span.End()

	d, err := s.repo.FindByID(ctx, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := d.Update(outletID, req.toInput(), s.engine.Now()); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := s.repo.SaveWithLock(ctx, d); err != nil {
		telemetry.RecordError(span, err)
		s.logConflict(ctx, "update", id, err)
		return nil, err
	}
	s.publish(ctx, d)

	logger.L(ctx).Info("Deposit updated", zap.String("deposit_id", id.String()))
	response := ToDepositResponse(d)
	return &response, nil
}

// Delete removes a pending deposit. Only the owning outlet may do so.
func (s *Service) Delete(ctx context.Context, id, outletID uuid.UUID) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "deposit", "delete",
		telemetry.SpanAttrDepositID, id.String(),
		telemetry.SpanAttrOutletID, outletID.String(),
	)
	defer span.End()

	d, err := s.repo.FindByID(ctx, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	if err := d.EnsureDeletable(outletID); err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	if err := s.repo.DeletePending(ctx, d); err != nil {
		telemetry.RecordError(span, err)
		s.logConflict(ctx, "delete", id, err)
		return err
	}
	d.AddDomainEvent(deposit.NewDeletedEvent(d, s.engine.Now()))
	s.publish(ctx, d)

	logger.L(ctx).Info("Deposit deleted", zap.String("deposit_id", id.String()))
	return nil
}

// Approve signs off a pending deposit. Of two concurrent decisions exactly one succeeds.
func (s *Service) Approve(ctx context.Context, id, actor uuid.UUID) (*DepositResponse, error) {
	return s.decide(ctx, "approve", id, actor, func(d *deposit.Deposit) error {
		return s.engine.Approve(d, actor)
	})
}

// Reject marks a pending deposit as failed
func (s *Service) Reject(ctx context.Context, id, actor uuid.UUID, reason string) (*DepositResponse, error) {
	return s.decide(ctx, "reject", id, actor, func(d *deposit.Deposit) error {
		return s.engine.Reject(d, actor, reason)
	})
}

// CountPending returns the number of deposits awaiting a decision
func (s *Service) CountPending(ctx context.Context) (int64, error) {
	filter := shared.DefaultFilter()
	filter.Filters["status"] = string(deposit.StatusPending)
	return s.repo.Count(ctx, filter)
}

func (s *Service) decide(ctx context.Context, action string, id, actor uuid.UUID, apply func(*deposit.Deposit) error) (_ *DepositResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "deposit", action,
		telemetry.SpanAttrDepositID, id.String(),
		telemetry.SpanAttrActorID, actor.String(),
	)
	defer span.End()

	release, err := s.guard.Acquire(ctx, approvalKind, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	defer func() { release(err == nil) }()

	d, err := s.repo.FindByID(ctx, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err = apply(d); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err = s.repo.SaveDecision(ctx, d); err != nil {
		telemetry.RecordError(span, err)
		s.logConflict(ctx, action, id, err)
		return nil, err
	}
	s.publish(ctx, d)

	telemetry.SetAttributes(span, telemetry.SpanAttrStatus, d.Status.String())
	logger.L(ctx).Info("Deposit decision recorded",
		zap.String("deposit_id", id.String()),
		zap.String("action", action),
		zap.String("actor_id", actor.String()),
		zap.String("status", d.Status.String()),
		zap.Duration("pending_for", decidedAfter(d)),
	)
	response := ToDepositResponse(d)
	return &response, nil
}

func decidedAfter(d *deposit.Deposit) time.Duration {
	if d.Approval.DecidedAt == nil {
		return 0
	}
	return d.Approval.DecidedAt.Sub(d.CreatedAt)
}

func (s *Service) publish(ctx context.Context, d *deposit.Deposit) {
	if err := event.PublishPending(ctx, s.publisher, d); err != nil {
		logger.L(ctx).Warn("Failed to publish deposit events",
			zap.String("deposit_id", d.ID.String()),
			zap.Error(err),
		)
	}
}

func (s *Service) logConflict(ctx context.Context, action string, id uuid.UUID, err error) {
	if errors.Is(err, shared.ErrConcurrencyConflict) || errors.Is(err, shared.ErrInvalidStateTransition) {
		logger.L(ctx).Warn("Deposit write lost a race",
			zap.String("deposit_id", id.String()),
			zap.String("action", action),
			zap.Error(err),
		)
	}
}
