package cache

import (
	"context"
	"sync"
	"time"

	"github.com/dealerdesk/backend/internal/domain/shared"
)

const claimSweepInterval = time.Minute

// InMemoryIdempotencyStore keeps claims in a process-local map keyed by claim
// key with the instant the claim lapses. It is the fallback when Redis is
// disabled, so claims do not span instances; the conditional writes in storage
// still settle races between them.
type InMemoryIdempotencyStore struct {
	mu     sync.Mutex
	claims map[string]time.Time
	now    func() time.Time

	done     chan struct{}
	stopped  sync.WaitGroup
	stopOnce sync.Once
}

// NewInMemoryIdempotencyStore starts a store whose lapsed claims are swept
// once a minute until Close is called.
func NewInMemoryIdempotencyStore() *InMemoryIdempotencyStore {
	s := &InMemoryIdempotencyStore{
		claims: make(map[string]time.Time),
		now:    time.Now,
		done:   make(chan struct{}),
	}
	s.stopped.Add(1)
	go s.run()
	return s
}

// MarkProcessed claims key for ttl. It reports false while an earlier claim
// on the same key has not lapsed.
func (s *InMemoryIdempotencyStore) MarkProcessed(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if until, held := s.claims[key]; held && now.Before(until) {
		return false, nil
	}
	s.claims[key] = now.Add(ttl)
	return true, nil
}

func (s *InMemoryIdempotencyStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.claims, key)
	s.mu.Unlock()
	return nil
}

// Held returns the number of claims currently stored, lapsed or not
func (s *InMemoryIdempotencyStore) Held() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.claims)
}

// Close stops the sweeper. Calling it again is a no-op.
func (s *InMemoryIdempotencyStore) Close() error {
	s.stopOnce.Do(func() { close(s.done) })
	s.stopped.Wait()
	return nil
}

func (s *InMemoryIdempotencyStore) run() {
	defer s.stopped.Done()
	ticker := time.NewTicker(claimSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *InMemoryIdempotencyStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for key, until := range s.claims {
		if !now.Before(until) {
			delete(s.claims, key)
		}
	}
}

var _ shared.IdempotencyStore = (*InMemoryIdempotencyStore)(nil)
