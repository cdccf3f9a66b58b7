package mfa

import (
	"context"
	"sync"
)

// MemoryAttemptStore implements AttemptStore with in-process state.
type MemoryAttemptStore struct {
	mu     sync.Mutex
	states map[string]AttemptState
}

// NewMemoryAttemptStore creates an empty in-memory attempt store.
func NewMemoryAttemptStore() *MemoryAttemptStore {
	return &MemoryAttemptStore{states: make(map[string]AttemptState)}
}

func (s *MemoryAttemptStore) Get(_ context.Context, userID string) (AttemptState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.states[userID], nil
}

func (s *MemoryAttemptStore) Put(_ context.Context, userID string, state AttemptState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[userID] = state
	return nil
}

func (s *MemoryAttemptStore) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, userID)
	return nil
}
