package webauthn

import (
	"context"
	"crypto/rand"
	"errors"
	"time"

	"github.com/google/uuid"
)

const challengeSize = 32 // 256 bits; WebAuthn requires at least 16 bytes

// CeremonyKind distinguishes what a challenge was issued for.
type CeremonyKind string

const (
	CeremonyRegistration   CeremonyKind = "registration"
	CeremonyAuthentication CeremonyKind = "authentication"
)

// Challenge is an ephemeral, single-use random value binding one ceremony
// attempt. It is invalidated by the first finish call or by expiry,
// regardless of outcome.
type Challenge struct {
	ID         string
	Value      []byte
	UserID     string
	UserHandle []byte
	Kind       CeremonyKind
	RPID       string
	CreatedAt  time.Time
	ExpiresAt  time.Time
}

// Expired reports whether the challenge TTL has passed at the given moment.
func (c Challenge) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// NewChallenge mints a fresh challenge bound to a user, ceremony kind and
// relying party.
func NewChallenge(userID string, kind CeremonyKind, rpID string, ttl time.Duration, now time.Time) (Challenge, error) {
	value := make([]byte, challengeSize)
	if _, err := rand.Read(value); err != nil {
		return Challenge{}, errors.Join(ErrInvalidClientData, err)
	}
	return Challenge{
		ID:        uuid.NewString(),
		Value:     value,
		UserID:    userID,
		Kind:      kind,
		RPID:      rpID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}, nil
}

// ChallengeStore persists pending ceremony challenges.
//
// Consume must be atomic: of two concurrent calls for the same id, exactly
// one receives the challenge and the other ErrChallengeReplay. Stores keep a
// tombstone after consumption so a replayed finish is distinguishable from an
// unknown challenge id.
type ChallengeStore interface {
	Save(ctx context.Context, challenge Challenge) error
	Consume(ctx context.Context, id string) (Challenge, error)
}
