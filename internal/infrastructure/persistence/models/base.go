package models

import (
	"time"

	"github.com/dealerdesk/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// EntityColumns are the identity and timestamp columns shared by every table
type EntityColumns struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (c *EntityColumns) Entity() shared.BaseEntity {
	return shared.BaseEntity{ID: c.ID, CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt}
}

func (c *EntityColumns) SetEntity(e shared.BaseEntity) {
	c.ID, c.CreatedAt, c.UpdatedAt = e.ID, e.CreatedAt, e.UpdatedAt
}

// VersionedColumns adds the version column that guards conditional updates
// on aggregate tables.
type VersionedColumns struct {
	EntityColumns
	Version int `gorm:"not null;default:1"`
}

// Root rebuilds the aggregate root. The loaded version becomes the persisted
// baseline that the next conditional write compares against.
func (c *VersionedColumns) Root() shared.BaseAggregateRoot {
	root := shared.BaseAggregateRoot{BaseEntity: c.Entity(), Version: c.Version}
	root.MarkPersisted()
	return root
}

func (c *VersionedColumns) SetRoot(a shared.BaseAggregateRoot) {
	c.SetEntity(a.BaseEntity)
	c.Version = a.Version
}
