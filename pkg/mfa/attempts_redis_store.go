package mfa

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const attemptKeyPrefix = "mfa:attempts:"

// RedisAttemptStore implements AttemptStore on Redis. Attempt state is
// reconstructable, so entries carry a TTL and a missing key simply reads as
// the zero state (not locked), the safe failure direction.
type RedisAttemptStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisAttemptStore creates an attempt store backed by the given client.
// Entries expire after ttl of inactivity; ttl must comfortably exceed the
// longest configured lockout.
func NewRedisAttemptStore(client *redis.Client, ttl time.Duration) (*RedisAttemptStore, error) {
	if client == nil {
		return nil, ErrStoreRequired
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisAttemptStore{client: client, ttl: ttl}, nil
}

func (s *RedisAttemptStore) Get(ctx context.Context, userID string) (AttemptState, error) {
	payload, err := s.client.Get(ctx, attemptKeyPrefix+userID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return AttemptState{}, nil
		}
		return AttemptState{}, err
	}

	var state AttemptState
	if err := json.Unmarshal(payload, &state); err != nil {
		// Corrupt state reads as unlocked rather than wedging the user.
		return AttemptState{}, nil
	}
	return state, nil
}

func (s *RedisAttemptStore) Put(ctx context.Context, userID string, state AttemptState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, attemptKeyPrefix+userID, payload, s.ttl).Err()
}

func (s *RedisAttemptStore) Delete(ctx context.Context, userID string) error {
	return s.client.Del(ctx, attemptKeyPrefix+userID).Err()
}
