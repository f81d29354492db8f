package persistence

import (
	"context"
	"testing"

	"github.com/dealerdesk/backend/internal/domain/shared"
	"github.com/dealerdesk/backend/internal/domain/shared/valueobject"
	"github.com/dealerdesk/backend/internal/domain/subscription"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func savePlan(t *testing.T, db *gorm.DB, name string, price int64, days int, modules ...subscription.ModuleRef) *subscription.Plan {
	plan, err := subscription.NewPlan(name, subscription.PlanTypeBasic, valueobject.NewMoneyFromInt(price), days, 100, modules, testNow)
	require.NoError(t, err)
	require.NoError(t, NewGormPlanRepository(db).Save(context.Background(), plan))
	return plan
}

func TestGormPlanRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormPlanRepository(db)
	ctx := context.Background()

	inventory := subscription.ModuleRef{ID: uuid.New(), Name: "inventory"}
	savePlan(t, db, "Premium", 2000, 365, inventory, inventory)
	basic := savePlan(t, db, "Basic", 1000, 30)

	found, err := repo.FindByID(ctx, basic.ID)
	require.NoError(t, err)
	assert.Equal(t, "Basic", found.Name)
	assert.Equal(t, 30, found.ValidityDays)
	assert.True(t, found.Price.Equals(valueobject.NewMoneyFromInt(1000)))

	plans, err := repo.FindAll(ctx, shared.Filter{})
	require.NoError(t, err)
	require.Len(t, plans, 2)
	assert.Equal(t, "Basic", plans[0].Name)
	require.Len(t, plans[1].Modules, 1)
	assert.True(t, plans[1].HasModule(inventory.ID))

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormSubscriptionRepository_SaveAndFind(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormSubscriptionRepository(db)
	ctx := context.Background()

	plan := savePlan(t, db, "Basic", 1000, 30)
	sub, err := subscription.NewSubscription(uuid.New(), plan, valueobject.MustDate("2024-01-01"), testNow)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, sub))

	found, err := repo.FindByID(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, subscription.StatusPending, found.Status)
	assert.Equal(t, "2024-01-31", found.EndDate.String())
	assert.True(t, found.Amount.Equals(valueobject.NewMoneyFromInt(1000)))
	assert.Empty(t, found.Payments())

	list, err := repo.FindByDealership(ctx, sub.DealershipID, shared.DefaultFilter())
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestGormSubscriptionRepository_PaymentsAndRefund(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormSubscriptionRepository(db)
	ctx := context.Background()

	plan := savePlan(t, db, "Basic", 1000, 30)
	sub, err := subscription.NewSubscription(uuid.New(), plan, valueobject.MustDate("2024-01-01"), testNow)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, sub))

	loaded, err := repo.FindByID(ctx, sub.ID)
	require.NoError(t, err)
	first, err := loaded.RecordPayment(subscription.PaymentInput{Amount: valueobject.NewMoneyFromInt(600), Method: subscription.PaymentMethodCash}, testNow)
	require.NoError(t, err)
	_, err = loaded.RecordPayment(subscription.PaymentInput{Amount: valueobject.NewMoneyFromInt(100), Method: subscription.PaymentMethodCard, Status: subscription.PaymentStatusFailed}, testNow)
	require.NoError(t, err)
	require.NoError(t, repo.SaveWithLock(ctx, loaded))

	reloaded, err := repo.FindByID(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, subscription.StatusActive, reloaded.Status)
	assert.Len(t, reloaded.Payments(), 2)
	assert.True(t, reloaded.TotalPaid().Equals(valueobject.NewMoneyFromInt(600)))

	require.NoError(t, reloaded.RefundPayment(first.ID, testNow))
	require.NoError(t, repo.SaveWithLock(ctx, reloaded))

	afterRefund, err := repo.FindByID(ctx, sub.ID)
	require.NoError(t, err)
	assert.True(t, afterRefund.TotalPaid().IsZero())
	assert.Len(t, afterRefund.Payments(), 2)
}

func TestGormSubscriptionRepository_RenewalKeepsTermOfPayments(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormSubscriptionRepository(db)
	ctx := context.Background()

	plan := savePlan(t, db, "Basic", 1000, 30)
	sub, err := subscription.NewSubscription(uuid.New(), plan, valueobject.MustDate("2024-01-01"), testNow)
	require.NoError(t, err)
	_, err = sub.RecordPayment(subscription.PaymentInput{Amount: valueobject.NewMoneyFromInt(1000), Method: subscription.PaymentMethodCash}, testNow)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, sub))

	loaded, err := repo.FindByID(ctx, sub.ID)
	require.NoError(t, err)
	_, err = subscription.ApplyRenewal(loaded, plan, valueobject.MustDate("2024-01-31"), testNow)
	require.NoError(t, err)
	require.NoError(t, repo.SaveWithLock(ctx, loaded))

	renewed, err := repo.FindByID(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, renewed.Term)
	require.Len(t, renewed.Payments(), 1)
	assert.Equal(t, 1, renewed.Payments()[0].Term)
	assert.True(t, renewed.Outstanding().Equals(valueobject.NewMoneyFromInt(1000)))
}

func TestGormSubscriptionRepository_SaveWithLock_Conflict(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormSubscriptionRepository(db)
	ctx := context.Background()

	plan := savePlan(t, db, "Basic", 1000, 30)
	sub, err := subscription.NewSubscription(uuid.New(), plan, valueobject.MustDate("2024-01-01"), testNow)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, sub))

	a, err := repo.FindByID(ctx, sub.ID)
	require.NoError(t, err)
	b, err := repo.FindByID(ctx, sub.ID)
	require.NoError(t, err)

	require.NoError(t, a.Cancel(testNow))
	require.NoError(t, repo.SaveWithLock(ctx, a))

	_, err = b.RecordPayment(subscription.PaymentInput{Amount: valueobject.NewMoneyFromInt(1000), Method: subscription.PaymentMethodCash}, testNow)
	require.NoError(t, err)
	assert.ErrorIs(t, repo.SaveWithLock(ctx, b), shared.ErrConcurrencyConflict)

	stored, err := repo.FindByID(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, subscription.StatusCancelled, stored.Status)
	assert.Empty(t, stored.Payments())
}

func TestGormSubscriptionRepository_FindActiveEndingBefore(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormSubscriptionRepository(db)
	ctx := context.Background()
	plan := savePlan(t, db, "Basic", 1000, 30)

	activate := func(start string) *subscription.Subscription {
		sub, err := subscription.NewSubscription(uuid.New(), plan, valueobject.MustDate(start), testNow)
		require.NoError(t, err)
		_, err = sub.RecordPayment(subscription.PaymentInput{Amount: valueobject.NewMoneyFromInt(1000), Method: subscription.PaymentMethodCash}, testNow)
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, sub))
		return sub
	}

	ended := activate("2024-01-01")
	activate("2024-03-01")

	due, err := repo.FindActiveEndingBefore(ctx, valueobject.MustDate("2024-02-15"), 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, ended.ID, due[0].ID)
}
