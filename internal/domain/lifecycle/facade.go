// Package lifecycle composes the dealership, subscription and deposit rules
// into the operations callers invoke.
package lifecycle

import (
	"context"
	"errors"
	"time"

	"github.com/dealerdesk/backend/internal/domain/dealership"
	"github.com/dealerdesk/backend/internal/domain/deposit"
	"github.com/dealerdesk/backend/internal/domain/shared"
	"github.com/dealerdesk/backend/internal/domain/shared/approval"
	"github.com/dealerdesk/backend/internal/domain/shared/valueobject"
	"github.com/dealerdesk/backend/internal/domain/subscription"
	"github.com/google/uuid"
)

// Clock returns the current time
type Clock func() time.Time

// PlanLookup resolves plan reference data
type PlanLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*subscription.Plan, error)
}

// Facade is the entry point of the financial lifecycle engine.
// It holds no mutable state; every call works on the snapshot it is given.
type Facade struct {
	plans PlanLookup
	now   Clock
}

// NewFacade creates a Facade. A nil clock means time.Now in UTC.
func NewFacade(plans PlanLookup, clock Clock) *Facade {
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	return &Facade{plans: plans, now: clock}
}

// Now returns the facade's current time
func (f *Facade) Now() time.Time {
	return f.now()
}

// CreateDealership registers a pending account with its due amount computed
func (f *Facade) CreateDealership(input dealership.CreateInput) (*dealership.Account, error) {
	return dealership.NewAccount(input, f.now())
}

// UpdateFinancials replaces credit limit and advance, recomputing the due amount
func (f *Facade) UpdateFinancials(account *dealership.Account, creditLimit, advanceAmount valueobject.Money) error {
	return account.UpdateFinancials(creditLimit, advanceAmount, f.now())
}

// SelectPlan resolves planID and points the draft at it. A nil draft starts a
// new subscription for dealershipID.
func (f *Facade) SelectPlan(ctx context.Context, draft *subscription.Subscription, dealershipID, planID uuid.UUID, start valueobject.Date) (*subscription.Subscription, error) {
	plan, err := f.resolvePlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	if draft == nil {
		return subscription.NewSubscription(dealershipID, plan, start, f.now())
	}
	if err := draft.SelectPlan(plan, start, f.now()); err != nil {
		return nil, err
	}
	return draft, nil
}

// RenewOrChangePlan starts a new term on planID. The returned PlanChange
// compares the new plan with the one the subscription was on.
func (f *Facade) RenewOrChangePlan(ctx context.Context, sub *subscription.Subscription, planID uuid.UUID, start valueobject.Date) (*subscription.Subscription, subscription.PlanChange, error) {
	newPlan, err := f.resolvePlan(ctx, planID)
	if err != nil {
		return nil, subscription.PlanChange{}, err
	}
	oldPlan, err := f.currentPlan(ctx, sub)
	if err != nil {
		return nil, subscription.PlanChange{}, err
	}
	change := subscription.ComputePlanChange(oldPlan, newPlan)

	renewed, err := subscription.ApplyRenewal(sub, newPlan, start, f.now())
	if err != nil {
		return nil, subscription.PlanChange{}, err
	}
	return renewed, change, nil
}

// RecordDeposit creates a pending deposit for the outlet
func (f *Facade) RecordDeposit(userID, outletID uuid.UUID, input deposit.Input) (*deposit.Deposit, error) {
	return deposit.NewDeposit(userID, outletID, input, f.now())
}

// Approve dispatches an approval to the entity's workflow
func (f *Facade) Approve(entity approval.Approvable, actor uuid.UUID) error {
	return entity.Approve(actor, f.now())
}

// Reject dispatches a rejection to the entity's workflow
func (f *Facade) Reject(entity approval.Approvable, actor uuid.UUID, reason string) error {
	return entity.Reject(actor, f.now(), reason)
}

func (f *Facade) resolvePlan(ctx context.Context, planID uuid.UUID) (*subscription.Plan, error) {
	plan, err := f.plans.FindByID(ctx, planID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError(shared.CodeInvalidPlanReference, "Plan "+planID.String()+" does not exist")
		}
		return nil, err
	}
	return plan, nil
}

// currentPlan loads the plan a subscription is on. If it has been retired,
// the price the subscription was billed stands in for it.
func (f *Facade) currentPlan(ctx context.Context, sub *subscription.Subscription) (*subscription.Plan, error) {
	plan, err := f.plans.FindByID(ctx, sub.PlanID)
	if err == nil {
		return plan, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	return &subscription.Plan{Price: sub.Amount}, nil
}
