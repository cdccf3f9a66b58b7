package mfa

import (
	"context"
	"time"
)

// AttemptState is the per-user, per-engine bookkeeping the orchestrator
// exclusively owns: consecutive failures inside a rolling window, lockout
// progression, and replay markers for TOTP counters and backup codes.
//
// The zero value means "no failures, not locked", which is the safe
// direction when the backing store loses state.
type AttemptState struct {
	Failures    int       `json:"failures"`
	WindowStart time.Time `json:"window_start"`
	LockedUntil time.Time `json:"locked_until"`
	Lockouts    int       `json:"lockouts"` // consecutive lockouts, drives exponential cool-down

	// LastTOTPCounter blocks reuse of an accepted code for the same time
	// step. TOTPCounterSeen distinguishes counter 0 from "never verified".
	LastTOTPCounter int64 `json:"last_totp_counter"`
	TOTPCounterSeen bool  `json:"totp_counter_seen"`

	// LastBackupCodeID recognizes a retried request that already consumed
	// its code, so the retry does not burn a second one.
	LastBackupCodeID string `json:"last_backup_code_id"`
}

// Locked reports whether the user is inside a lockout window.
func (s AttemptState) Locked(now time.Time) bool {
	return now.Before(s.LockedUntil)
}

// RemainingLockout returns how long the lockout still lasts.
func (s AttemptState) RemainingLockout(now time.Time) time.Duration {
	if !s.Locked(now) {
		return 0
	}
	return s.LockedUntil.Sub(now)
}

// AttemptStore persists attempt state keyed by user id. Implementations may
// be ephemeral: attempt state is reconstructable and its loss fails safe
// (unlocked). All mutation serialization happens in the orchestrator, so
// stores only need atomic whole-record reads and writes.
type AttemptStore interface {
	Get(ctx context.Context, userID string) (AttemptState, error)
	Put(ctx context.Context, userID string, state AttemptState) error
	Delete(ctx context.Context, userID string) error
}
