package audit

import (
	"context"
	"sync"
	"time"
)

// InMemoryStore keeps audit entries in append order. Used by tests and local
// development.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries []Entry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

func (s *InMemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries), nil
}

func (s *InMemoryStore) DeleteOldest(_ context.Context, n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n <= 0 {
		return nil
	}
	if n >= len(s.entries) {
		s.entries = nil
		return nil
	}
	s.entries = append([]Entry{}, s.entries[n:]...)
	return nil
}

func (s *InMemoryStore) ListRecent(_ context.Context, limit int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	start := len(s.entries) - limit
	if limit <= 0 || start < 0 {
		start = 0
	}
	return append([]Entry{}, s.entries[start:]...), nil
}

func (s *InMemoryStore) ListSince(_ context.Context, since time.Time) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Entry
	for _, entry := range s.entries {
		if !entry.Timestamp.Before(since) {
			out = append(out, entry)
		}
	}
	return out, nil
}
