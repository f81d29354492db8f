package persistence

import (
	"context"
	"errors"

	"github.com/dealerdesk/backend/internal/domain/shared"
	"github.com/dealerdesk/backend/internal/domain/shared/valueobject"
	"github.com/dealerdesk/backend/internal/domain/subscription"
	"github.com/dealerdesk/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSubscriptionRepository implements subscription.Repository using GORM
type GormSubscriptionRepository struct {
	db *gorm.DB
}

// NewGormSubscriptionRepository creates a new GormSubscriptionRepository
func NewGormSubscriptionRepository(db *gorm.DB) *GormSubscriptionRepository {
	return &GormSubscriptionRepository{db: db}
}

func preloadPayments(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC")
}

// FindByID loads a subscription and its payment history
func (r *GormSubscriptionRepository) FindByID(ctx context.Context, id uuid.UUID) (*subscription.Subscription, error) {
	var model models.SubscriptionModel
	if err := r.db.WithContext(ctx).
		Preload("Payments", preloadPayments).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByDealership lists subscriptions of a dealership, newest first by default
func (r *GormSubscriptionRepository) FindByDealership(ctx context.Context, dealershipID uuid.UUID, filter shared.Filter) ([]subscription.Subscription, error) {
	var subscriptionModels []models.SubscriptionModel
	query := r.db.WithContext(ctx).
		Model(&models.SubscriptionModel{}).
		Preload("Payments", preloadPayments).
		Where("dealership_id = ?", dealershipID)
	query = paginate(query, filter, subscriptionSort)

	if err := query.Find(&subscriptionModels).Error; err != nil {
		return nil, err
	}
	return toSubscriptions(subscriptionModels), nil
}

// FindActiveEndingBefore lists active subscriptions whose end date lies before date
func (r *GormSubscriptionRepository) FindActiveEndingBefore(ctx context.Context, date valueobject.Date, limit int) ([]subscription.Subscription, error) {
	var subscriptionModels []models.SubscriptionModel
	query := r.db.WithContext(ctx).
		Model(&models.SubscriptionModel{}).
		Preload("Payments", preloadPayments).
		Where("status = ? AND end_date < ?", subscription.StatusActive.Code(), date).
		Order("end_date ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&subscriptionModels).Error; err != nil {
		return nil, err
	}
	return toSubscriptions(subscriptionModels), nil
}

// Save inserts a new subscription and any payments it carries
func (r *GormSubscriptionRepository) Save(ctx context.Context, sub *subscription.Subscription) error {
	model := models.SubscriptionModelFromDomain(sub)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		payments := model.Payments
		model.Payments = nil
		if err := tx.Create(model).Error; err != nil {
			return err
		}
		return upsertPayments(tx, payments)
	})
	if err != nil {
		return err
	}
	sub.MarkPersisted()
	return nil
}

// SaveWithLock updates the subscription row under a version check, then
// inserts new payments and writes refund transitions in the same transaction.
func (r *GormSubscriptionRepository) SaveWithLock(ctx context.Context, sub *subscription.Subscription) error {
	model := models.SubscriptionModelFromDomain(sub)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.SubscriptionModel{}).
			Where("id = ? AND version = ?", sub.ID, sub.PersistedVersion()).
			Updates(model.UpdateColumns())
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}
		return upsertPayments(tx, model.Payments)
	})
	if err != nil {
		return err
	}
	sub.MarkPersisted()
	return nil
}

// upsertPayments appends unseen payments; for known ones only the status may move
func upsertPayments(tx *gorm.DB, payments []models.PaymentModel) error {
	if len(payments) == 0 {
		return nil
	}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "updated_at"}),
	}).Create(&payments).Error
}

func toSubscriptions(subscriptionModels []models.SubscriptionModel) []subscription.Subscription {
	subs := make([]subscription.Subscription, len(subscriptionModels))
	for i := range subscriptionModels {
		subs[i] = *subscriptionModels[i].ToDomain()
	}
	return subs
}

// Ensure GormSubscriptionRepository implements subscription.Repository
var _ subscription.Repository = (*GormSubscriptionRepository)(nil)
