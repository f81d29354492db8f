package dealership

import (
	"context"

	"github.com/dealerdesk/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Repository defines the interface for dealership account persistence
type Repository interface {
	// FindByID finds an account by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Account, error)

	// FindAll finds accounts matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]Account, error)

	// FindByStatus finds accounts in the given status
	FindByStatus(ctx context.Context, status Status, filter shared.Filter) ([]Account, error)

	// Count counts accounts matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// Save inserts a new account
	Save(ctx context.Context, account *Account) error

	// SaveWithLock updates an account only if the stored version still equals PersistedVersion.
	// Returns shared.ErrConcurrencyConflict otherwise.
	SaveWithLock(ctx context.Context, account *Account) error

	// SaveDecision persists an approval decision only if the stored row is
	// still pending at the loaded version. The loser of a race receives
	// shared.ErrInvalidStateTransition.
	SaveDecision(ctx context.Context, account *Account) error
}
