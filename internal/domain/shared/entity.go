package shared

import (
	"time"

	"github.com/google/uuid"
)

// Entity is anything with a stable identity
type Entity interface {
	GetID() uuid.UUID
}

// BaseEntity carries identity and audit timestamps. Timestamps come from the
// caller's clock so the engine stays deterministic under test.
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewBaseEntity assigns a fresh ID created and last updated at at
func NewBaseEntity(at time.Time) BaseEntity {
	return BaseEntity{ID: uuid.New(), CreatedAt: at, UpdatedAt: at}
}

// GetID returns the entity ID
func (e *BaseEntity) GetID() uuid.UUID {
	return e.ID
}
