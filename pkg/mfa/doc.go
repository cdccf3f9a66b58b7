// Package mfa orchestrates second-factor verification across TOTP, WebAuthn
// and backup code engines behind a single contract: one Request in, one
// Verdict out.
//
// The orchestrator owns all attempt bookkeeping. Factor engines only report
// match or no-match; failure counting, lockout with exponential cool-down,
// TOTP counter replay prevention and backup code retry idempotency live
// here, keyed per user and serialized through a per-user critical section so
// concurrent failing attempts cannot race past the lockout threshold.
//
// Session state follows a pure state machine (see Transition): unverified,
// awaiting factor, verified (terminal success) or locked (terminal until the
// cool-down elapses). Lockout expiry is evaluated against the stored
// timestamp at verification time; no background timers exist.
//
// All factor failures come back as typed sentinels from the package error
// taxonomy, never as opaque engine errors, so callers can always surface the
// right behavior: a generic "verification failed" for most kinds, the
// remaining cool-down for ErrLocked, and a forced re-enrollment flow for
// ErrCredentialCloneSuspected.
//
// Attempt state may live in an ephemeral store (see RedisAttemptStore): it
// is reconstructable, and loss reads as "not locked", the safe direction.
// Factor secrets and credentials belong in durable stores.
package mfa
