package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers keys for a limited time so a repeated submission
// of the same command can be rejected before it reaches storage.
type IdempotencyStore interface {
	// MarkProcessed claims key for ttl. It returns false if the key is already claimed.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Release drops a claim so the command may be submitted again
	Release(ctx context.Context, key string) error
}
