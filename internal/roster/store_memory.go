package roster

import (
	"context"
	"sync"
)

// InMemoryStore holds raw rows for tests and local development. It can be
// told to fail to exercise the fail-closed hydration path.
type InMemoryStore struct {
	mu       sync.RWMutex
	profiles []Row
	consents []Row
	failWith error
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) SeedProfiles(rows ...Row) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles = append(s.profiles, rows...)
}

func (s *InMemoryStore) SeedConsents(rows ...Row) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.consents = append(s.consents, rows...)
}

// FailWith makes every subsequent read return err. Pass nil to recover.
func (s *InMemoryStore) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWith = err
}

func (s *InMemoryStore) ReadProfiles(_ context.Context) ([]Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failWith != nil {
		return nil, s.failWith
	}
	return append([]Row{}, s.profiles...), nil
}

func (s *InMemoryStore) ReadConsents(_ context.Context) ([]Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failWith != nil {
		return nil, s.failWith
	}
	return append([]Row{}, s.consents...), nil
}
