package backupcode

import (
	"context"
	"sync"
	"time"
)

// MemoryStore implements Store with in-process state. Suitable for tests and
// single-instance deployments; production setups should use PostgresStore.
type MemoryStore struct {
	mu   sync.Mutex
	sets map[string][]Entry
}

// NewMemoryStore creates an empty in-memory backup code store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sets: make(map[string][]Entry)}
}

func (s *MemoryStore) Replace(_ context.Context, userID string, entries []Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	set := make([]Entry, len(entries))
	copy(set, entries)
	s.sets[userID] = set
	return nil
}

func (s *MemoryStore) List(_ context.Context, userID string) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set := s.sets[userID]
	out := make([]Entry, len(set))
	copy(out, set)
	return out, nil
}

func (s *MemoryStore) MarkConsumed(_ context.Context, userID, entryID string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set := s.sets[userID]
	for i := range set {
		if set[i].ID != entryID {
			continue
		}
		if set[i].Consumed {
			return false, nil
		}
		t := at
		set[i].Consumed = true
		set[i].ConsumedAt = &t
		return true, nil
	}
	return false, nil
}
