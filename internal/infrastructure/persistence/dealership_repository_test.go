package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dealerdesk/backend/internal/domain/dealership"
	"github.com/dealerdesk/backend/internal/domain/shared"
	"github.com/dealerdesk/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

func newTestAccount(t *testing.T, name string) *dealership.Account {
	account, err := dealership.NewAccount(dealership.CreateInput{
		CompanyID:     uuid.New(),
		OutletID:      uuid.New(),
		Name:          name,
		Phone:         "01700000000",
		CreditLimit:   valueobject.NewMoneyFromInt(100000),
		AdvanceAmount: valueobject.NewMoneyFromInt(30000),
	}, testNow)
	require.NoError(t, err)
	return account
}

func TestGormDealershipRepository_SaveAndFind(t *testing.T) {
	repo := NewGormDealershipRepository(setupTestDB(t))
	ctx := context.Background()

	account := newTestAccount(t, "Rahman Motors")
	require.NoError(t, repo.Save(ctx, account))
	assert.Equal(t, account.Version, account.PersistedVersion())

	found, err := repo.FindByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, "Rahman Motors", found.Name)
	assert.Equal(t, dealership.StatusPending, found.Status)
	assert.Equal(t, account.OutletID, found.OutletID)
	assert.True(t, found.DueAmount().Equals(valueobject.NewMoneyFromInt(70000)))
	assert.Equal(t, found.Version, found.PersistedVersion())

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormDealershipRepository_SaveWithLock(t *testing.T) {
	repo := NewGormDealershipRepository(setupTestDB(t))
	ctx := context.Background()

	account := newTestAccount(t, "Karim Traders")
	require.NoError(t, repo.Save(ctx, account))

	first, err := repo.FindByID(ctx, account.ID)
	require.NoError(t, err)
	stale, err := repo.FindByID(ctx, account.ID)
	require.NoError(t, err)

	require.NoError(t, first.UpdateFinancials(valueobject.NewMoneyFromInt(50000), valueobject.NewMoneyFromInt(80000), testNow))
	require.NoError(t, repo.SaveWithLock(ctx, first))

	require.NoError(t, stale.UpdateFinancials(valueobject.NewMoneyFromInt(1), valueobject.Zero(), testNow))
	assert.ErrorIs(t, repo.SaveWithLock(ctx, stale), shared.ErrConcurrencyConflict)

	reloaded, err := repo.FindByID(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.DueAmount().IsZero())
	assert.True(t, reloaded.CreditLimit().Equals(valueobject.NewMoneyFromInt(50000)))
}

func TestGormDealershipRepository_SaveDecision_OnlyOneWins(t *testing.T) {
	repo := NewGormDealershipRepository(setupTestDB(t))
	ctx := context.Background()

	account := newTestAccount(t, "Dhaka Auto")
	require.NoError(t, repo.Save(ctx, account))

	approver, err := repo.FindByID(ctx, account.ID)
	require.NoError(t, err)
	rejecter, err := repo.FindByID(ctx, account.ID)
	require.NoError(t, err)

	actorA, actorB := uuid.New(), uuid.New()
	require.NoError(t, approver.Approve(actorA, testNow))
	require.NoError(t, rejecter.Reject(actorB, testNow, "duplicate"))

	require.NoError(t, repo.SaveDecision(ctx, approver))
	err = repo.SaveDecision(ctx, rejecter)
	assert.ErrorIs(t, err, shared.ErrInvalidStateTransition)

	stored, err := repo.FindByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, dealership.StatusActive, stored.Status)
	require.NotNil(t, stored.ApprovedBy())
	assert.Equal(t, actorA, *stored.ApprovedBy())
	require.NotNil(t, stored.ApprovedAt())
	assert.True(t, stored.ApprovedAt().Equal(testNow))
}

func TestGormDealershipRepository_FindAllAndCount(t *testing.T) {
	repo := NewGormDealershipRepository(setupTestDB(t))
	ctx := context.Background()

	pending := newTestAccount(t, "Alpha Motors")
	active := newTestAccount(t, "Beta Motors")
	require.NoError(t, active.Approve(uuid.New(), testNow))
	require.NoError(t, repo.Save(ctx, pending))
	require.NoError(t, repo.Save(ctx, active))

	all, err := repo.FindAll(ctx, shared.DefaultFilter())
	require.NoError(t, err)
	assert.Len(t, all, 2)

	byStatus, err := repo.FindByStatus(ctx, dealership.StatusActive, shared.DefaultFilter())
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	assert.Equal(t, "Beta Motors", byStatus[0].Name)

	filter := shared.DefaultFilter()
	filter.Search = "Alpha"
	count, err := repo.Count(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestGormDealershipRepository_SaveDecision_SQL(t *testing.T) {
	gormDB, mock, mockDB := newMockGormDB(t)
	defer mockDB.Close()
	repo := NewGormDealershipRepository(gormDB)

	account := newTestAccount(t, "Chittagong Wheels")
	account.MarkPersisted()
	require.NoError(t, account.Approve(uuid.New(), testNow))

	mock.ExpectExec(`UPDATE "dealerships" SET .* WHERE .*id = \$\d+ AND status = \$\d+ AND version = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SaveDecision(context.Background(), account)
	assert.ErrorIs(t, err, shared.ErrInvalidStateTransition)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormDealershipRepository_SaveWithLock_DatabaseError(t *testing.T) {
	gormDB, mock, mockDB := newMockGormDB(t)
	defer mockDB.Close()
	repo := NewGormDealershipRepository(gormDB)

	account := newTestAccount(t, "Sylhet Motors")
	account.MarkPersisted()

	mock.ExpectExec(`UPDATE "dealerships"`).WillReturnError(errors.New("connection reset"))

	err := repo.SaveWithLock(context.Background(), account)
	assert.EqualError(t, err, "connection reset")
	assert.NoError(t, mock.ExpectationsWereMet())
}
