package proctoring

import (
	"context"
	"sync"
	"time"
)

// MemoryWarningStore is a process-local WarningStore for tests and
// single-node deployments. TTLs are ignored; state is reconstructable as
// zero anyway.
type MemoryWarningStore struct {
	mu     sync.Mutex
	states map[string]WarningState
}

func NewMemoryWarningStore() *MemoryWarningStore {
	return &MemoryWarningStore{states: make(map[string]WarningState)}
}

func (s *MemoryWarningStore) Get(_ context.Context, key string) (WarningState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.states[key], nil
}

func (s *MemoryWarningStore) Put(_ context.Context, key string, state WarningState, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[key] = state
	return nil
}

func (s *MemoryWarningStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, key)
	return nil
}
