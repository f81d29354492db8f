package shared

import "time"

// AggregateRoot is the base interface for all aggregate roots
type AggregateRoot interface {
	Entity
	GetVersion() int
	PersistedVersion() int
	MarkPersisted()
	Touch(at time.Time)
	AddDomainEvent(event DomainEvent)
	GetDomainEvents() []DomainEvent
	ClearDomainEvents()
}

// BaseAggregateRoot provides common fields for aggregate roots.
// Version is the optimistic locking token; every Touch increments it.
type BaseAggregateRoot struct {
	BaseEntity
	Version      int
	persisted    int
	domainEvents []DomainEvent
}

// GetVersion returns the aggregate version for optimistic locking
func (a *BaseAggregateRoot) GetVersion() int {
	return a.Version
}

// PersistedVersion returns the version the aggregate had when it was last
// loaded or saved. Conditional updates compare the stored row against it.
func (a *BaseAggregateRoot) PersistedVersion() int {
	return a.persisted
}

// MarkPersisted records the current version as the stored baseline
func (a *BaseAggregateRoot) MarkPersisted() {
	a.persisted = a.Version
}

// Touch records a mutation at the given instant and bumps the version
func (a *BaseAggregateRoot) Touch(at time.Time) {
	a.UpdatedAt = at
	a.Version++
}

// AddDomainEvent adds a domain event to be published
func (a *BaseAggregateRoot) AddDomainEvent(event DomainEvent) {
	a.domainEvents = append(a.domainEvents, event)
}

// GetDomainEvents returns all pending domain events
func (a *BaseAggregateRoot) GetDomainEvents() []DomainEvent {
	return a.domainEvents
}

// ClearDomainEvents clears the pending domain events
func (a *BaseAggregateRoot) ClearDomainEvents() {
	a.domainEvents = nil
}

// NewBaseAggregateRoot starts a new aggregate at version 1, never persisted
func NewBaseAggregateRoot(at time.Time) BaseAggregateRoot {
	return BaseAggregateRoot{
		BaseEntity:   NewBaseEntity(at),
		Version:      1,
		domainEvents: make([]DomainEvent, 0),
	}
}
