package persistence

import (
	"context"
	"errors"

	"github.com/dealerdesk/backend/internal/domain/dealership"
	"github.com/dealerdesk/backend/internal/domain/shared"
	"github.com/dealerdesk/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormDealershipRepository implements dealership.Repository using GORM
type GormDealershipRepository struct {
	db *gorm.DB
}

// NewGormDealershipRepository creates a new GormDealershipRepository
func NewGormDealershipRepository(db *gorm.DB) *GormDealershipRepository {
	return &GormDealershipRepository{db: db}
}

// FindByID finds a dealership account by its ID
func (r *GormDealershipRepository) FindByID(ctx context.Context, id uuid.UUID) (*dealership.Account, error) {
	var model models.DealershipModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds all dealership accounts matching the filter
func (r *GormDealershipRepository) FindAll(ctx context.Context, filter shared.Filter) ([]dealership.Account, error) {
	var dealershipModels []models.DealershipModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.DealershipModel{}), filter)
	query = paginate(query, filter, dealershipSort)

	if err := query.Find(&dealershipModels).Error; err != nil {
		return nil, err
	}
	return toAccounts(dealershipModels), nil
}

// FindByStatus finds dealership accounts in the given status
func (r *GormDealershipRepository) FindByStatus(ctx context.Context, status dealership.Status, filter shared.Filter) ([]dealership.Account, error) {
	var dealershipModels []models.DealershipModel
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&models.DealershipModel{}).Where("status = ?", status),
		filter,
	)
	query = paginate(query, filter, dealershipSort)

	if err := query.Find(&dealershipModels).Error; err != nil {
		return nil, err
	}
	return toAccounts(dealershipModels), nil
}

// Count counts dealership accounts matching the filter
func (r *GormDealershipRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.DealershipModel{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save inserts a new dealership account
func (r *GormDealershipRepository) Save(ctx context.Context, account *dealership.Account) error {
	model := models.DealershipModelFromDomain(account)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	account.MarkPersisted()
	return nil
}

// SaveWithLock updates an account only if its stored version still matches the loaded one
func (r *GormDealershipRepository) SaveWithLock(ctx context.Context, account *dealership.Account) error {
	model := models.DealershipModelFromDomain(account)
	result := r.db.WithContext(ctx).
		Model(&models.DealershipModel{}).
		Where("id = ? AND version = ?", account.ID, account.PersistedVersion()).
		Updates(model.UpdateColumns())

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	account.MarkPersisted()
	return nil
}

// SaveDecision writes an approval decision only while the stored row is still
// pending at the loaded version. Exactly one of two racing deciders succeeds.
func (r *GormDealershipRepository) SaveDecision(ctx context.Context, account *dealership.Account) error {
	model := models.DealershipModelFromDomain(account)
	result := r.db.WithContext(ctx).
		Model(&models.DealershipModel{}).
		Where("id = ? AND status = ? AND version = ?", account.ID, dealership.StatusPending, account.PersistedVersion()).
		Updates(model.UpdateColumns())

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError(shared.CodeInvalidStateTransition, "Dealership has already been decided")
	}
	account.MarkPersisted()
	return nil
}

func (r *GormDealershipRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("name LIKE ? OR phone LIKE ? OR email LIKE ?",
			searchPattern, searchPattern, searchPattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "company_id":
			query = query.Where("company_id = ?", value)
		case "outlet_id":
			query = query.Where("outlet_id = ?", value)
		}
	}
	return query
}

func toAccounts(dealershipModels []models.DealershipModel) []dealership.Account {
	accounts := make([]dealership.Account, len(dealershipModels))
	for i := range dealershipModels {
		accounts[i] = *dealershipModels[i].ToDomain()
	}
	return accounts
}

// Ensure GormDealershipRepository implements dealership.Repository
var _ dealership.Repository = (*GormDealershipRepository)(nil)
