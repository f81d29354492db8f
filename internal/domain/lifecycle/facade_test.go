package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dealerdesk/backend/internal/domain/dealership"
	"github.com/dealerdesk/backend/internal/domain/deposit"
	"github.com/dealerdesk/backend/internal/domain/shared"
	"github.com/dealerdesk/backend/internal/domain/shared/valueobject"
	"github.com/dealerdesk/backend/internal/domain/subscription"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPlans map[uuid.UUID]*subscription.Plan

func (s stubPlans) FindByID(_ context.Context, id uuid.UUID) (*subscription.Plan, error) {
	p, ok := s[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return p, nil
}

var fixedNow = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

func newFacade(plans ...*subscription.Plan) *Facade {
	stub := stubPlans{}
	for _, p := range plans {
		stub[p.ID] = p
	}
	return NewFacade(stub, func() time.Time { return fixedNow })
}

func mustPlan(t *testing.T, name string, price int64, validity int) *subscription.Plan {
	t.Helper()
	p, err := subscription.NewPlan(name, subscription.PlanTypeBasic, valueobject.NewMoneyFromInt(price), validity, 10, nil, fixedNow)
	require.NoError(t, err)
	return p
}

func TestFacade_DealershipScenario(t *testing.T) {
	f := newFacade()

	account, err := f.CreateDealership(dealership.CreateInput{
		CompanyID:     uuid.New(),
		Name:          "Dhaka Auto",
		CreditLimit:   valueobject.NewMoneyFromInt(100000),
		AdvanceAmount: valueobject.NewMoneyFromInt(30000),
	})
	require.NoError(t, err)
	assert.True(t, account.DueAmount().Equals(valueobject.NewMoneyFromInt(70000)))

	require.NoError(t, f.UpdateFinancials(account, valueobject.NewMoneyFromInt(100000), valueobject.NewMoneyFromInt(120000)))
	assert.True(t, account.DueAmount().IsZero())

	approver := uuid.New()
	require.NoError(t, f.Approve(account, approver))
	assert.Equal(t, dealership.StatusActive, account.Status)
	assert.Equal(t, fixedNow, *account.ApprovedAt())

	err = f.Approve(account, approver)
	assert.True(t, errors.Is(err, shared.ErrInvalidStateTransition))
}

func TestFacade_SubscriptionScenario(t *testing.T) {
	planA := mustPlan(t, "A", 500, 30)
	planB := mustPlan(t, "B", 800, 30)
	f := newFacade(planA, planB)
	ctx := context.Background()

	sub, err := f.SelectPlan(ctx, nil, uuid.New(), planA.ID, valueobject.MustDate("2024-01-01"))
	require.NoError(t, err)
	assert.Equal(t, "2024-01-31", sub.EndDate.String())
	assert.True(t, sub.Amount.Equals(valueobject.NewMoneyFromInt(500)))

	renewed, change, err := f.RenewOrChangePlan(ctx, sub, planB.ID, valueobject.MustDate("2024-01-31"))
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01", renewed.EndDate.String())
	assert.Equal(t, "300.00", change.PriceDelta.String())
	assert.Equal(t, subscription.DirectionUpgrade, change.Direction)
	assert.Equal(t, subscription.StatusPending, renewed.Status)
}

func TestFacade_SelectPlanOnDraft(t *testing.T) {
	planA := mustPlan(t, "A", 500, 30)
	planB := mustPlan(t, "B", 900, 60)
	f := newFacade(planA, planB)
	ctx := context.Background()

	draft, err := f.SelectPlan(ctx, nil, uuid.New(), planA.ID, valueobject.MustDate("2024-01-01"))
	require.NoError(t, err)

	same, err := f.SelectPlan(ctx, draft, uuid.Nil, planB.ID, valueobject.MustDate("2024-01-01"))
	require.NoError(t, err)
	assert.Same(t, draft, same)
	assert.Equal(t, "2024-03-01", draft.EndDate.String())
	assert.True(t, draft.Amount.Equals(valueobject.NewMoneyFromInt(900)))
}

func TestFacade_InvalidPlanReference(t *testing.T) {
	f := newFacade()

	_, err := f.SelectPlan(context.Background(), nil, uuid.New(), uuid.New(), valueobject.MustDate("2024-01-01"))
	assert.True(t, errors.Is(err, shared.ErrInvalidPlanReference))

	plan := mustPlan(t, "A", 500, 30)
	sub, err := subscription.NewSubscription(uuid.New(), plan, valueobject.MustDate("2024-01-01"), fixedNow)
	require.NoError(t, err)
	_, _, err = f.RenewOrChangePlan(context.Background(), sub, uuid.New(), valueobject.MustDate("2024-02-01"))
	assert.True(t, errors.Is(err, shared.ErrInvalidPlanReference))
}

func TestFacade_RenewFromRetiredPlan(t *testing.T) {
	retired := mustPlan(t, "Old", 700, 30)
	current := mustPlan(t, "New", 500, 30)
	f := newFacade(current)

	sub, err := subscription.NewSubscription(uuid.New(), retired, valueobject.MustDate("2024-01-01"), fixedNow)
	require.NoError(t, err)

	_, change, err := f.RenewOrChangePlan(context.Background(), sub, current.ID, valueobject.MustDate("2024-01-31"))
	require.NoError(t, err)
	assert.Equal(t, "-200.00", change.PriceDelta.String())
	assert.Equal(t, subscription.DirectionDowngrade, change.Direction)
}

func TestFacade_DepositScenario(t *testing.T) {
	f := newFacade()
	outlet := uuid.New()

	d, err := f.RecordDeposit(uuid.New(), outlet, deposit.Input{
		Amount: valueobject.NewMoneyFromInt(5000),
		Method: deposit.MethodCash,
	})
	require.NoError(t, err)
	assert.Equal(t, deposit.StatusPending, d.Status)

	require.NoError(t, f.Approve(d, uuid.New()))
	assert.Equal(t, deposit.StatusApproved, d.Status)

	err = f.Approve(d, uuid.New())
	assert.True(t, errors.Is(err, shared.ErrInvalidStateTransition))
	assert.Error(t, d.Update(outlet, deposit.Input{Amount: valueobject.NewMoneyFromInt(1), Method: deposit.MethodCash}, fixedNow))
	assert.Error(t, d.EnsureDeletable(outlet))
}

func TestFacade_Reject(t *testing.T) {
	f := newFacade()
	d, err := f.RecordDeposit(uuid.New(), uuid.New(), deposit.Input{Amount: valueobject.NewMoneyFromInt(10), Method: deposit.MethodCheck})
	require.NoError(t, err)

	require.NoError(t, f.Reject(d, uuid.New(), "bounced"))
	assert.Equal(t, deposit.StatusFailed, d.Status)
	assert.Equal(t, "bounced", d.ApprovalState().Reason)
}
