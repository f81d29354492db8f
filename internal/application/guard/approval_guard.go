// Package guard short-circuits repeated approval submissions before they reach
// the database. The conditional update in the repository stays authoritative.
package guard

import (
	"context"
	"time"

	"github.com/dealerdesk/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultTTL is how long a submitted decision blocks repeats of itself
const DefaultTTL = 30 * time.Second

// ApprovalGuard claims approval:<kind>:<id> keys in an idempotency store
type ApprovalGuard struct {
	store  shared.IdempotencyStore
	ttl    time.Duration
	logger *zap.Logger
}

// NewApprovalGuard creates a guard. A nil store disables it.
func NewApprovalGuard(store shared.IdempotencyStore, ttl time.Duration, logger *zap.Logger) *ApprovalGuard {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ApprovalGuard{store: store, ttl: ttl, logger: logger}
}

// Key returns the store key for a decision on the given entity
func Key(kind string, id uuid.UUID) string {
	return "approval:" + kind + ":" + id.String()
}

// Acquire claims the decision slot for kind/id. The returned release func must
// be called with the outcome: a failed decision frees the slot, a successful
// one keeps it until the TTL runs out. A second submission while the slot is
// held fails with an invalid state transition.
func (g *ApprovalGuard) Acquire(ctx context.Context, kind string, id uuid.UUID) (func(success bool), error) {
	noop := func(bool) {}
	if g == nil || g.store == nil {
		return noop, nil
	}

	key := Key(kind, id)
	claimed, err := g.store.MarkProcessed(ctx, key, g.ttl)
	if err != nil {
		g.logger.Warn("Approval guard unavailable, relying on conditional update",
			zap.String("key", key),
			zap.Error(err),
		)
		return noop, nil
	}
	if !claimed {
		g.logger.Warn("Duplicate approval submission rejected", zap.String("key", key))
		return nil, shared.NewDomainError(shared.CodeInvalidStateTransition,
			"A decision for this "+kind+" is already being processed")
	}

	return func(success bool) {
		if success {
			return
		}
		if err := g.store.Release(context.WithoutCancel(ctx), key); err != nil {
			g.logger.Warn("Failed to release approval guard", zap.String("key", key), zap.Error(err))
		}
	}, nil
}
