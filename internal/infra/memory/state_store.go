package memory

import (
	"context"
	"sync"

	"riddleme-service/internal/domain"
)

// StateStore is an in-memory implementation of app.StateRepository.
// Load and Save copy the aggregate so callers never share maps with the store.
type StateStore struct {
	mu    sync.RWMutex
	state domain.State
	saves int
}

func NewStateStore() *StateStore {
	return &StateStore{}
}

// NewStateStoreWith seeds the store, mostly for tests.
func NewStateStoreWith(state domain.State) *StateStore {
	return &StateStore{state: state.Clone()}
}

func (s *StateStore) Load(_ context.Context) (domain.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone(), nil
}

func (s *StateStore) Save(_ context.Context, state domain.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state.Clone()
	s.saves++
	return nil
}

// Saves reports how many times the state was written.
func (s *StateStore) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}
