package deposit

import (
	"context"

	"github.com/dealerdesk/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Repository defines the interface for deposit persistence
type Repository interface {
	// FindByID finds a deposit by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Deposit, error)

	// FindAll finds deposits matching the filter ("outlet_id", "status" keys in Filters)
	FindAll(ctx context.Context, filter shared.Filter) ([]Deposit, error)

	// Count counts deposits matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// Save inserts a new deposit
	Save(ctx context.Context, d *Deposit) error

	// SaveWithLock updates a pending deposit if the stored version still equals
	// PersistedVersion. Returns shared.ErrConcurrencyConflict when the version
	// moved and shared.ErrInvalidStateTransition when it is no longer pending.
	SaveWithLock(ctx context.Context, d *Deposit) error

	// SaveDecision persists approve/reject only while the stored row is pending
	// at the loaded version; the loser of a race gets shared.ErrInvalidStateTransition.
	SaveDecision(ctx context.Context, d *Deposit) error

	// DeletePending removes a deposit only while it is pending at the loaded version
	DeletePending(ctx context.Context, d *Deposit) error
}
