package webauthn

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	challengeKeyPrefix = "webauthn:challenge:"
	tombstoneKeyPrefix = "webauthn:challenge:spent:"

	// tombstoneGrace keeps spent and expired markers around a little longer
	// than the challenge itself so late replays get a precise rejection.
	tombstoneGrace = time.Minute
)

// RedisChallengeStore implements ChallengeStore on Redis, suitable for
// multi-instance deployments. Atomicity of Consume rests on GETDEL: exactly
// one concurrent caller receives the payload.
type RedisChallengeStore struct {
	client *redis.Client
}

// NewRedisChallengeStore creates a challenge store backed by the given client.
func NewRedisChallengeStore(client *redis.Client) (*RedisChallengeStore, error) {
	if client == nil {
		return nil, ErrStoreRequired
	}
	return &RedisChallengeStore{client: client}, nil
}

func (s *RedisChallengeStore) Save(ctx context.Context, challenge Challenge) error {
	payload, err := json.Marshal(challenge)
	if err != nil {
		return err
	}

	ttl := time.Until(challenge.ExpiresAt) + tombstoneGrace
	if ttl <= 0 {
		return ErrChallengeExpired
	}

	return s.client.Set(ctx, challengeKeyPrefix+challenge.ID, payload, ttl).Err()
}

func (s *RedisChallengeStore) Consume(ctx context.Context, id string) (Challenge, error) {
	payload, err := s.client.GetDel(ctx, challengeKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			// Distinguish a replayed finish from an id that never existed.
			spent, serr := s.client.Exists(ctx, tombstoneKeyPrefix+id).Result()
			if serr != nil {
				return Challenge{}, serr
			}
			if spent > 0 {
				return Challenge{}, ErrChallengeReplay
			}
			return Challenge{}, ErrChallengeNotFound
		}
		return Challenge{}, err
	}

	var challenge Challenge
	if err := json.Unmarshal(payload, &challenge); err != nil {
		return Challenge{}, err
	}

	tombstoneTTL := time.Until(challenge.ExpiresAt) + tombstoneGrace
	if tombstoneTTL > 0 {
		if err := s.client.Set(ctx, tombstoneKeyPrefix+id, "1", tombstoneTTL).Err(); err != nil {
			return Challenge{}, err
		}
	}

	return challenge, nil
}
