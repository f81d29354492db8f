package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dealerdesk/backend/internal/domain/shared"
	"github.com/dealerdesk/backend/internal/domain/shared/valueobject"
	"github.com/dealerdesk/backend/internal/domain/subscription"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// PlanStore is a TTL key-value store for plan snapshots
type PlanStore interface {
	Get(ctx context.Context, id uuid.UUID) (*subscription.Plan, bool, error)
	Set(ctx context.Context, plan *subscription.Plan, ttl time.Duration) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// CachedPlanRepository is a read-through cache in front of a PlanRepository.
// Plans are reference data, so entries are only dropped by TTL or by Save.
type CachedPlanRepository struct {
	next   subscription.PlanRepository
	store  PlanStore
	ttl    time.Duration
	logger *zap.Logger

	hits   int64
	misses int64
}

// NewCachedPlanRepository wraps next with store
func NewCachedPlanRepository(next subscription.PlanRepository, store PlanStore, ttl time.Duration, logger *zap.Logger) *CachedPlanRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedPlanRepository{next: next, store: store, ttl: ttl, logger: logger}
}

// FindByID serves from the cache and loads through on a miss.
// A failing cache degrades to the underlying repository.
func (r *CachedPlanRepository) FindByID(ctx context.Context, id uuid.UUID) (*subscription.Plan, error) {
	plan, ok, err := r.store.Get(ctx, id)
	if err != nil {
		r.logger.Warn("plan cache read failed", zap.String("plan_id", id.String()), zap.Error(err))
	}
	if ok {
		atomic.AddInt64(&r.hits, 1)
		return plan, nil
	}
	atomic.AddInt64(&r.misses, 1)

	plan, err = r.next.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := r.store.Set(ctx, plan, r.ttl); err != nil {
		r.logger.Warn("plan cache write failed", zap.String("plan_id", id.String()), zap.Error(err))
	}
	return plan, nil
}

// FindAll is not cached
func (r *CachedPlanRepository) FindAll(ctx context.Context, filter shared.Filter) ([]subscription.Plan, error) {
	return r.next.FindAll(ctx, filter)
}

// Save persists the plan and evicts any stale entry
func (r *CachedPlanRepository) Save(ctx context.Context, plan *subscription.Plan) error {
	if err := r.next.Save(ctx, plan); err != nil {
		return err
	}
	if err := r.store.Delete(ctx, plan.ID); err != nil {
		r.logger.Warn("plan cache eviction failed", zap.String("plan_id", plan.ID.String()), zap.Error(err))
	}
	return nil
}

// Stats returns cache hit and miss counters
func (r *CachedPlanRepository) Stats() (hits, misses int64) {
	return atomic.LoadInt64(&r.hits), atomic.LoadInt64(&r.misses)
}

var _ subscription.PlanRepository = (*CachedPlanRepository)(nil)

// planSnapshot is the cached representation of a Plan
type planSnapshot struct {
	ID           uuid.UUID                `json:"id"`
	Name         string                   `json:"name"`
	Type         subscription.PlanType    `json:"type"`
	Price        valueobject.Money        `json:"price"`
	ValidityDays int                      `json:"validity_days"`
	ProductRange int                      `json:"product_range"`
	Modules      []subscription.ModuleRef `json:"modules"`
	Version      int                      `json:"version"`
	CreatedAt    time.Time                `json:"created_at"`
	UpdatedAt    time.Time                `json:"updated_at"`
}

func snapshotOf(p *subscription.Plan) planSnapshot {
	return planSnapshot{
		ID:           p.ID,
		Name:         p.Name,
		Type:         p.Type,
		Price:        p.Price,
		ValidityDays: p.ValidityDays,
		ProductRange: p.ProductRange,
		Modules:      append([]subscription.ModuleRef(nil), p.Modules...),
		Version:      p.Version,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func (s planSnapshot) toPlan() *subscription.Plan {
	root := shared.BaseAggregateRoot{
		BaseEntity: shared.BaseEntity{ID: s.ID, CreatedAt: s.CreatedAt, UpdatedAt: s.UpdatedAt},
		Version:    s.Version,
	}
	root.MarkPersisted()
	return &subscription.Plan{
		BaseAggregateRoot: root,
		Name:              s.Name,
		Type:              s.Type,
		Price:             s.Price,
		ValidityDays:      s.ValidityDays,
		ProductRange:      s.ProductRange,
		Modules:           append([]subscription.ModuleRef(nil), s.Modules...),
	}
}

// InMemoryPlanStore keeps plan snapshots in process memory
type InMemoryPlanStore struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]planEntry
	now     func() time.Time
}

type planEntry struct {
	snapshot  planSnapshot
	expiresAt time.Time
}

// NewInMemoryPlanStore creates an empty in-memory plan store
func NewInMemoryPlanStore() *InMemoryPlanStore {
	return &InMemoryPlanStore{entries: make(map[uuid.UUID]planEntry), now: time.Now}
}

// Get returns a copy of the cached plan if it has not expired
func (s *InMemoryPlanStore) Get(_ context.Context, id uuid.UUID) (*subscription.Plan, bool, error) {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok || s.now().After(e.expiresAt) {
		return nil, false, nil
	}
	return e.snapshot.toPlan(), true, nil
}

// Set stores a snapshot of plan
func (s *InMemoryPlanStore) Set(_ context.Context, plan *subscription.Plan, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[plan.ID] = planEntry{snapshot: snapshotOf(plan), expiresAt: s.now().Add(ttl)}
	return nil
}

// Delete evicts a plan
func (s *InMemoryPlanStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
	return nil
}

// RedisPlanStore keeps plan snapshots in Redis as JSON so every instance shares them
type RedisPlanStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisPlanStore creates a Redis-backed plan store
func NewRedisPlanStore(client *redis.Client) *RedisPlanStore {
	return &RedisPlanStore{client: client, keyPrefix: "dealerdesk:plan:"}
}

// Get loads a plan snapshot
func (s *RedisPlanStore) Get(ctx context.Context, id uuid.UUID) (*subscription.Plan, bool, error) {
	data, err := s.client.Get(ctx, s.keyPrefix+id.String()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get plan from cache: %w", err)
	}
	plan, err := decodePlan(data)
	if err != nil {
		return nil, false, err
	}
	return plan, true, nil
}

// Set stores a plan snapshot with ttl
func (s *RedisPlanStore) Set(ctx context.Context, plan *subscription.Plan, ttl time.Duration) error {
	data, err := encodePlan(plan)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.keyPrefix+plan.ID.String(), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache plan: %w", err)
	}
	return nil
}

// Delete evicts a plan snapshot
func (s *RedisPlanStore) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.client.Del(ctx, s.keyPrefix+id.String()).Err(); err != nil {
		return fmt.Errorf("failed to evict plan: %w", err)
	}
	return nil
}

func encodePlan(plan *subscription.Plan) ([]byte, error) {
	data, err := json.Marshal(snapshotOf(plan))
	if err != nil {
		return nil, fmt.Errorf("failed to encode plan: %w", err)
	}
	return data, nil
}

func decodePlan(data []byte) (*subscription.Plan, error) {
	var s planSnapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode cached plan: %w", err)
	}
	return s.toPlan(), nil
}
