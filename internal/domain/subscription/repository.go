package subscription

import (
	"context"

	"github.com/dealerdesk/backend/internal/domain/shared"
	"github.com/dealerdesk/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// PlanRepository defines persistence for plan reference data
type PlanRepository interface {
	// FindByID finds a plan by ID, returning shared.ErrNotFound when absent
	FindByID(ctx context.Context, id uuid.UUID) (*Plan, error)

	// FindAll lists plans ordered by price
	FindAll(ctx context.Context, filter shared.Filter) ([]Plan, error)

	// Save creates a plan with its module set
	Save(ctx context.Context, plan *Plan) error
}

// Repository defines persistence for subscriptions and their payments
type Repository interface {
	// FindByID loads a subscription with its full payment history
	FindByID(ctx context.Context, id uuid.UUID) (*Subscription, error)

	// FindByDealership lists the subscriptions of a dealership, newest first
	FindByDealership(ctx context.Context, dealershipID uuid.UUID, filter shared.Filter) ([]Subscription, error)

	// FindActiveEndingBefore lists active subscriptions whose term ended before the date
	FindActiveEndingBefore(ctx context.Context, date valueobject.Date, limit int) ([]Subscription, error)

	// Save inserts a new subscription and any payments it already carries
	Save(ctx context.Context, sub *Subscription) error

	// SaveWithLock updates the subscription if the stored version still equals
	// PersistedVersion, appends new payments and persists refund transitions.
	// Returns shared.ErrConcurrencyConflict when the version moved.
	SaveWithLock(ctx context.Context, sub *Subscription) error
}
