package subscription

import (
	"errors"
	"testing"
	"time"

	"github.com/dealerdesk/backend/internal/domain/shared"
	"github.com/dealerdesk/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

var testNow = time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)

func newTestPlan(t testing.TB, name string, price int64, validity int) *Plan {
	t.Helper()
	p, err := NewPlan(name, PlanTypeBasic, valueobject.NewMoneyFromInt(price), validity, 50, nil, testNow)
	require.NoError(t, err)
	return p
}

func TestComputeEndDate(t *testing.T) {
	end := ComputeEndDate(valueobject.MustDate("2024-01-01"), 30)
	assert.Equal(t, "2024-01-31", end.String())

	end = ComputeEndDate(valueobject.MustDate("2024-01-01"), 0)
	assert.Equal(t, "2024-01-01", end.String())
}

func TestComputeEndDate_Property(t *testing.T) {
	base := valueobject.MustDate("2000-01-01")
	rapid.Check(t, func(t *rapid.T) {
		start := base.AddDays(rapid.IntRange(0, 20000).Draw(t, "start"))
		validity := rapid.IntRange(0, 3650).Draw(t, "validity")

		end := ComputeEndDate(start, validity)
		if got := int(end.Time().Sub(start.Time()).Hours() / 24); got != validity {
			t.Fatalf("end - start = %d days, want %d", got, validity)
		}
	})
}

func TestComputePlanChange(t *testing.T) {
	planA := newTestPlan(t, "A", 500, 30)
	planB := newTestPlan(t, "B", 800, 30)

	tests := []struct {
		name      string
		old, new  *Plan
		delta     string
		direction ChangeDirection
	}{
		{"upgrade", planA, planB, "300.00", DirectionUpgrade},
		{"downgrade", planB, planA, "-300.00", DirectionDowngrade},
		{"same plan", planA, planA, "0.00", DirectionSamePlan},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			change := ComputePlanChange(tt.old, tt.new)
			assert.Equal(t, tt.delta, change.PriceDelta.String())
			assert.Equal(t, tt.direction, change.Direction)
		})
	}
}

func TestComputePlanChange_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		oldPlan := newTestPlan(t, "old", 0, 30)
		newPlan := newTestPlan(t, "new", 0, 30)
		oldPlan.Price = valueobject.NewMoneyFromMinor(rapid.Int64Range(0, 1e9).Draw(rt, "old"))
		newPlan.Price = valueobject.NewMoneyFromMinor(rapid.Int64Range(0, 1e9).Draw(rt, "new"))

		change := ComputePlanChange(oldPlan, newPlan)
		if !change.PriceDelta.Equals(newPlan.Price.Subtract(oldPlan.Price)) {
			rt.Fatalf("delta %s", change.PriceDelta)
		}
		want := DirectionSamePlan
		if change.PriceDelta.IsPositive() {
			want = DirectionUpgrade
		} else if change.PriceDelta.IsNegative() {
			want = DirectionDowngrade
		}
		if change.Direction != want {
			rt.Fatalf("direction %s, want %s", change.Direction, want)
		}
	})
}

func TestApplyRenewal_Scenario(t *testing.T) {
	planA := newTestPlan(t, "A", 500, 30)
	planB := newTestPlan(t, "B", 800, 30)

	sub, err := NewSubscription(uuid.New(), planA, valueobject.MustDate("2024-01-01"), testNow)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-31", sub.EndDate.String())

	_, err = sub.RecordPayment(PaymentInput{Amount: valueobject.NewMoneyFromInt(500), Method: PaymentMethodCash}, testNow)
	require.NoError(t, err)
	require.Equal(t, StatusActive, sub.Status)

	change := ComputePlanChange(planA, planB)
	renewed, err := ApplyRenewal(sub, planB, valueobject.MustDate("2024-01-31"), testNow)
	require.NoError(t, err)

	assert.Equal(t, "2024-03-01", renewed.EndDate.String())
	assert.Equal(t, StatusPending, renewed.Status)
	assert.Equal(t, planB.ID, renewed.PlanID)
	assert.True(t, renewed.Amount.Equals(valueobject.NewMoneyFromInt(800)))
	assert.Equal(t, "300.00", change.PriceDelta.String())
	assert.Equal(t, DirectionUpgrade, change.Direction)
	assert.Len(t, renewed.Payments(), 1, "history is retained across renewals")
	assert.Equal(t, 2, renewed.Term)
	assert.True(t, renewed.Outstanding().Equals(planB.Price))
	assert.Same(t, sub, renewed, "renewal updates the loaded snapshot")
}

func TestApplyRenewal_PreviousTermPaymentsDoNotSettleNewTerm(t *testing.T) {
	plan := newTestPlan(t, "A", 500, 30)
	sub, err := NewSubscription(uuid.New(), plan, valueobject.MustDate("2024-01-01"), testNow)
	require.NoError(t, err)
	_, err = sub.RecordPayment(PaymentInput{Amount: valueobject.NewMoneyFromInt(500), Method: PaymentMethodCash}, testNow)
	require.NoError(t, err)
	require.True(t, sub.Outstanding().IsZero())

	renewed, err := ApplyRenewal(sub, plan, valueobject.MustDate("2024-01-31"), testNow)
	require.NoError(t, err)

	assert.Equal(t, StatusPending, renewed.Status)
	assert.True(t, renewed.TotalPaid().Equals(valueobject.NewMoneyFromInt(500)))
	assert.True(t, renewed.TermPaid().IsZero())
	assert.True(t, renewed.Outstanding().Equals(plan.Price))

	p, err := renewed.RecordPayment(PaymentInput{Amount: valueobject.NewMoneyFromInt(200), Method: PaymentMethodBank}, testNow)
	require.NoError(t, err)
	assert.Equal(t, 2, p.Term)
	assert.Equal(t, StatusActive, renewed.Status)
	assert.True(t, renewed.TermPaid().Equals(valueobject.NewMoneyFromInt(200)))
	assert.True(t, renewed.Outstanding().Equals(valueobject.NewMoneyFromInt(300)))
}

func TestApplyRenewal_CancelledFails(t *testing.T) {
	plan := newTestPlan(t, "A", 500, 30)
	sub, err := NewSubscription(uuid.New(), plan, valueobject.MustDate("2024-01-01"), testNow)
	require.NoError(t, err)
	require.NoError(t, sub.Cancel(testNow))

	_, err = ApplyRenewal(sub, plan, valueobject.MustDate("2024-02-01"), testNow)
	assert.True(t, errors.Is(err, shared.ErrInvalidStateTransition))
	assert.Equal(t, 1, sub.Term)
	assert.Equal(t, "2024-01-31", sub.EndDate.String())
}
