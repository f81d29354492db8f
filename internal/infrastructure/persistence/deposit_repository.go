package persistence

import (
	"context"
	"errors"

	"github.com/dealerdesk/backend/internal/domain/deposit"
	"github.com/dealerdesk/backend/internal/domain/shared"
	"github.com/dealerdesk/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormDepositRepository implements deposit.Repository using GORM
type GormDepositRepository struct {
	db *gorm.DB
}

// NewGormDepositRepository creates a new GormDepositRepository
func NewGormDepositRepository(db *gorm.DB) *GormDepositRepository {
	return &GormDepositRepository{db: db}
}

// FindByID finds a deposit by its ID
func (r *GormDepositRepository) FindByID(ctx context.Context, id uuid.UUID) (*deposit.Deposit, error) {
	var model models.DepositModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds deposits matching the filter
func (r *GormDepositRepository) FindAll(ctx context.Context, filter shared.Filter) ([]deposit.Deposit, error) {
	var depositModels []models.DepositModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.DepositModel{}), filter)
	query = paginate(query, filter, depositSort)

	if err := query.Find(&depositModels).Error; err != nil {
		return nil, err
	}

	deposits := make([]deposit.Deposit, len(depositModels))
	for i := range depositModels {
		deposits[i] = *depositModels[i].ToDomain()
	}
	return deposits, nil
}

// Count counts deposits matching the filter
func (r *GormDepositRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.DepositModel{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save inserts a new deposit
func (r *GormDepositRepository) Save(ctx context.Context, d *deposit.Deposit) error {
	if err := r.db.WithContext(ctx).Create(models.DepositModelFromDomain(d)).Error; err != nil {
		return err
	}
	d.MarkPersisted()
	return nil
}

// SaveWithLock writes an edit while the stored row is pending at the loaded version
func (r *GormDepositRepository) SaveWithLock(ctx context.Context, d *deposit.Deposit) error {
	result := r.pendingAtVersion(ctx, d).Updates(models.DepositModelFromDomain(d).UpdateColumns())
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return r.classifyMiss(ctx, d.ID)
	}
	d.MarkPersisted()
	return nil
}

// SaveDecision writes approve/reject while the stored row is pending at the loaded version
func (r *GormDepositRepository) SaveDecision(ctx context.Context, d *deposit.Deposit) error {
	result := r.pendingAtVersion(ctx, d).Updates(models.DepositModelFromDomain(d).UpdateColumns())
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError(shared.CodeInvalidStateTransition, "Deposit has already been decided")
	}
	d.MarkPersisted()
	return nil
}

// DeletePending removes the deposit while it is pending at the loaded version
func (r *GormDepositRepository) DeletePending(ctx context.Context, d *deposit.Deposit) error {
	result := r.pendingAtVersion(ctx, d).Delete(&models.DepositModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return r.classifyMiss(ctx, d.ID)
	}
	return nil
}

func (r *GormDepositRepository) pendingAtVersion(ctx context.Context, d *deposit.Deposit) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&models.DepositModel{}).
		Where("id = ? AND status = ? AND version = ?", d.ID, deposit.StatusPending, d.PersistedVersion())
}

// classifyMiss explains why a conditional write matched no row
func (r *GormDepositRepository) classifyMiss(ctx context.Context, id uuid.UUID) error {
	current, err := r.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !current.IsPending() {
		return shared.NewInvalidStateTransition("deposit", current.Status.String(), "modify")
	}
	return shared.ErrConcurrencyConflict
}

func (r *GormDepositRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("transaction_id LIKE ? OR note LIKE ?", searchPattern, searchPattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case "outlet_id":
			query = query.Where("outlet_id = ?", value)
		case "status":
			query = query.Where("status = ?", value)
		case "method":
			query = query.Where("method = ?", value)
		}
	}
	return query
}

// Ensure GormDepositRepository implements deposit.Repository
var _ deposit.Repository = (*GormDepositRepository)(nil)
