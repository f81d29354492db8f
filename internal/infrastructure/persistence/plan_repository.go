package persistence

import (
	"context"
	"errors"

	"github.com/dealerdesk/backend/internal/domain/shared"
	"github.com/dealerdesk/backend/internal/domain/subscription"
	"github.com/dealerdesk/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormPlanRepository implements subscription.PlanRepository using GORM
type GormPlanRepository struct {
	db *gorm.DB
}

// NewGormPlanRepository creates a new GormPlanRepository
func NewGormPlanRepository(db *gorm.DB) *GormPlanRepository {
	return &GormPlanRepository{db: db}
}

// FindByID finds a plan with its modules
func (r *GormPlanRepository) FindByID(ctx context.Context, id uuid.UUID) (*subscription.Plan, error) {
	var model models.PlanModel
	if err := r.db.WithContext(ctx).Preload("Modules").First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists plans, cheapest first unless the filter orders otherwise
func (r *GormPlanRepository) FindAll(ctx context.Context, filter shared.Filter) ([]subscription.Plan, error) {
	var planModels []models.PlanModel
	query := r.db.WithContext(ctx).Model(&models.PlanModel{}).Preload("Modules")
	if filter.OrderBy == "" {
		filter.OrderBy = "price"
		filter.OrderDir = "asc"
	}
	query = paginate(query, filter, planSort)

	if err := query.Find(&planModels).Error; err != nil {
		return nil, err
	}

	plans := make([]subscription.Plan, len(planModels))
	for i := range planModels {
		plans[i] = *planModels[i].ToDomain()
	}
	return plans, nil
}

// Save creates a plan together with its module links
func (r *GormPlanRepository) Save(ctx context.Context, plan *subscription.Plan) error {
	model := models.PlanModelFromDomain(plan)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		modules := model.Modules
		model.Modules = nil
		if err := tx.Create(model).Error; err != nil {
			return err
		}
		if len(modules) == 0 {
			return nil
		}
		return tx.Create(&modules).Error
	})
	if err != nil {
		return err
	}
	plan.MarkPersisted()
	return nil
}

// Ensure GormPlanRepository implements subscription.PlanRepository
var _ subscription.PlanRepository = (*GormPlanRepository)(nil)
