package webauthn

import (
	"context"
	"sync"
	"time"
)

// MemoryChallengeStore implements ChallengeStore with in-process state.
// Expired entries and tombstones are swept lazily on Save; no background
// timer is required since expiry is checked at verification time.
type MemoryChallengeStore struct {
	mu      sync.Mutex
	pending map[string]Challenge
	spent   map[string]time.Time
}

// NewMemoryChallengeStore creates an empty in-memory challenge store.
func NewMemoryChallengeStore() *MemoryChallengeStore {
	return &MemoryChallengeStore{
		pending: make(map[string]Challenge),
		spent:   make(map[string]time.Time),
	}
}

func (s *MemoryChallengeStore) Save(_ context.Context, challenge Challenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for id, ch := range s.pending {
		if ch.Expired(now) {
			delete(s.pending, id)
		}
	}
	for id, expires := range s.spent {
		if now.After(expires) {
			delete(s.spent, id)
		}
	}

	s.pending[challenge.ID] = challenge
	return nil
}

func (s *MemoryChallengeStore) Consume(_ context.Context, id string) (Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, spent := s.spent[id]; spent {
		return Challenge{}, ErrChallengeReplay
	}

	challenge, ok := s.pending[id]
	if !ok {
		return Challenge{}, ErrChallengeNotFound
	}

	delete(s.pending, id)
	// Keep the tombstone around for as long as the challenge could have been
	// replayed against.
	s.spent[id] = challenge.ExpiresAt
	return challenge, nil
}
