package idempotency

import (
	"context"
	"sync"
	"time"
)

// InMemoryStore is a bounded seen-keys set for tests and single-instance
// deployments without Redis. Entries expire after the TTL; the map is capped
// so a burst of unique keys cannot grow it without bound.
type InMemoryStore struct {
	mu      sync.Mutex
	seen    map[string]time.Time
	ttl     time.Duration
	maxKeys int
	now     func() time.Time
}

// NewInMemory constructs an in-memory seen-keys store.
func NewInMemory(ttl time.Duration, maxKeys int) *InMemoryStore {
	return &InMemoryStore{
		seen:    make(map[string]time.Time),
		ttl:     ttl,
		maxKeys: maxKeys,
		now:     time.Now,
	}
}

// WithClock overrides the time source, for tests.
func (s *InMemoryStore) WithClock(now func() time.Time) *InMemoryStore {
	s.now = now
	return s
}

func (s *InMemoryStore) Seen(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	expiry, ok := s.seen[key]
	if !ok {
		return false, nil
	}
	if s.now().After(expiry) {
		delete(s.seen, key)
		return false, nil
	}
	return true, nil
}

func (s *InMemoryStore) Mark(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictLocked()
	s.seen[key] = s.now().Add(s.ttl)
	return nil
}

// evictLocked drops expired entries, then the soonest-to-expire entries if
// the cap is still exceeded.
func (s *InMemoryStore) evictLocked() {
	now := s.now()
	for key, expiry := range s.seen {
		if now.After(expiry) {
			delete(s.seen, key)
		}
	}
	for len(s.seen) >= s.maxKeys && s.maxKeys > 0 {
		var oldestKey string
		var oldest time.Time
		for key, expiry := range s.seen {
			if oldestKey == "" || expiry.Before(oldest) {
				oldestKey, oldest = key, expiry
			}
		}
		delete(s.seen, oldestKey)
	}
}
