package mfa

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/dmitrymomot/mfakit/pkg/backupcode"
	"github.com/dmitrymomot/mfakit/pkg/totp"
	"github.com/dmitrymomot/mfakit/pkg/webauthn"
)

// Orchestrator composes the factor engines behind one verification contract,
// enforcing attempt rate limiting and lockout. Factor engines stay stateless
// with respect to attempt counting; the orchestrator exclusively owns
// AttemptState and serializes all mutations per user.
type Orchestrator struct {
	cfg      Config
	secrets  SecretStore
	backup   *backupcode.Manager
	passkeys *webauthn.Engine
	attempts AttemptStore

	locks    *keyedMutex
	notifier Notifier
	log      *slog.Logger
	now      func() time.Time

	totpOpts      []totp.Option
	encryptionKey []byte
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithNotifier routes orchestrator events to an external collaborator.
func WithNotifier(n Notifier) Option {
	return func(o *Orchestrator) {
		if n != nil {
			o.notifier = n
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(log *slog.Logger) Option {
	return func(o *Orchestrator) {
		if log != nil {
			o.log = log
		}
	}
}

// WithClock overrides the time source, used by tests to control windows and
// lockout expiry.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// WithTOTPOptions sets code verification parameters (digits, period, skew).
func WithTOTPOptions(opts ...totp.Option) Option {
	return func(o *Orchestrator) {
		o.totpOpts = opts
	}
}

// WithEncryptionKey enables AES-256-GCM encryption of TOTP secrets at rest.
// Without a key, secrets are stored as handed to the SecretStore.
func WithEncryptionKey(key []byte) Option {
	return func(o *Orchestrator) {
		o.encryptionKey = key
	}
}

// NewOrchestrator wires the factor engines together. The backup code manager
// and WebAuthn engine may be nil when those factors are not offered;
// verification requests for them then report ErrNoFactorsEnrolled.
func NewOrchestrator(cfg Config, secrets SecretStore, attempts AttemptStore, backup *backupcode.Manager, passkeys *webauthn.Engine, opts ...Option) (*Orchestrator, error) {
	if secrets == nil || attempts == nil {
		return nil, ErrStoreRequired
	}

	o := &Orchestrator{
		cfg:      cfg.withDefaults(),
		secrets:  secrets,
		backup:   backup,
		passkeys: passkeys,
		attempts: attempts,
		locks:    newKeyedMutex(),
		log:      slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.notifier == nil {
		o.notifier = slogNotifier{log: o.log}
	}
	return o, nil
}

// Verify processes one verification attempt: rejects locked users up front,
// dispatches to the matching factor engine, updates failure counters and
// lockout state, and reports a single verdict.
//
// The whole attempt runs inside the user's exclusive critical section, so
// two concurrent failing attempts cannot both read a sub-threshold counter
// and race past the lockout.
func (o *Orchestrator) Verify(ctx context.Context, req Request) (Verdict, error) {
	if req.UserID == "" || req.Factor == "" {
		return Verdict{}, ErrInvalidPayload
	}

	o.locks.lock(req.UserID)
	defer o.locks.unlock(req.UserID)

	state, err := o.attempts.Get(ctx, req.UserID)
	if err != nil {
		return Verdict{}, err
	}

	now := o.now()
	if state.Locked(now) {
		return Verdict{State: StateLocked, RemainingLockout: state.RemainingLockout(now)}, ErrLocked
	}

	// An elapsed lockout resets the session to unverified with a clean
	// failure count; an elapsed rolling window just clears stale failures.
	if !state.LockedUntil.IsZero() {
		state.LockedUntil = time.Time{}
		state.Failures = 0
	}
	if state.Failures > 0 && now.Sub(state.WindowStart) > o.cfg.FailureWindow {
		state.Failures = 0
	}

	verified, verr := o.dispatch(ctx, req, &state, now)

	if verified {
		state.Failures = 0
		state.Lockouts = 0
		state.LockedUntil = time.Time{}
		if err := o.attempts.Put(ctx, req.UserID, state); err != nil {
			return Verdict{}, err
		}
		o.notifier.Verified(ctx, req.UserID, req.Factor)
		next, _ := Transition(StateAwaitingFactor, EventFactorVerified)
		return Verdict{Verified: true, FactorUsed: req.Factor, State: next}, nil
	}

	if !isVerificationFailure(verr) {
		// Nothing to count: no factor engine evaluated a credential
		// (unknown kind, malformed payload, nothing enrolled, store error).
		return Verdict{State: StateAwaitingFactor}, verr
	}

	if errors.Is(verr, ErrCredentialCloneSuspected) {
		o.notifier.CloneSuspected(ctx, req.UserID)
	}

	if state.Failures == 0 {
		state.WindowStart = now
	}
	state.Failures++

	if state.Failures >= o.cfg.MaxFailures {
		until := now.Add(o.cfg.lockoutDuration(state.Lockouts))
		state.LockedUntil = until
		state.Lockouts++
		state.Failures = 0
		if err := o.attempts.Put(ctx, req.UserID, state); err != nil {
			return Verdict{}, err
		}
		o.notifier.LockedOut(ctx, req.UserID, until, o.cfg.MaxFailures)
		next, _ := Transition(StateAwaitingFactor, EventThresholdExceeded)
		return Verdict{State: next}, verr
	}

	if err := o.attempts.Put(ctx, req.UserID, state); err != nil {
		return Verdict{}, err
	}
	next, _ := Transition(StateAwaitingFactor, EventFactorFailed)
	return Verdict{State: next}, verr
}

func (o *Orchestrator) dispatch(ctx context.Context, req Request, state *AttemptState, now time.Time) (bool, error) {
	switch req.Factor {
	case FactorTOTP:
		var payload codePayload
		if err := json.Unmarshal(req.Payload, &payload); err != nil || payload.Code == "" {
			return false, ErrInvalidPayload
		}
		return o.verifyTOTP(ctx, req.UserID, payload.Code, state, now)

	case FactorBackupCode:
		var payload codePayload
		if err := json.Unmarshal(req.Payload, &payload); err != nil || payload.Code == "" {
			return false, ErrInvalidPayload
		}
		return o.verifyBackupCode(ctx, req.UserID, payload.Code, state)

	case FactorWebAuthn:
		var payload webauthnPayload
		if err := json.Unmarshal(req.Payload, &payload); err != nil || payload.ChallengeID == "" || payload.Assertion == nil {
			return false, ErrInvalidPayload
		}
		return o.verifyWebAuthn(ctx, req.UserID, payload.ChallengeID, payload.Assertion)
	}
	return false, ErrUnknownFactorKind
}

func (o *Orchestrator) verifyTOTP(ctx context.Context, userID, code string, state *AttemptState, now time.Time) (bool, error) {
	stored, err := o.secrets.Get(ctx, userID, FactorTOTP)
	if err != nil {
		if errors.Is(err, ErrSecretNotFound) {
			return false, ErrNoFactorsEnrolled
		}
		return false, err
	}

	secret := stored
	if o.encryptionKey != nil {
		secret, err = totp.DecryptSecret(stored, o.encryptionKey)
		if err != nil {
			return false, err
		}
	}

	counter, ok, err := totp.VerifyAt(secret, code, now, o.totpOpts...)
	if err != nil {
		// Malformed submissions fail like wrong ones; the shape of the
		// input must not leak through the verdict.
		return false, ErrInvalidCode
	}
	if !ok {
		return false, ErrInvalidCode
	}

	// A code accepted at counter T must not validate again for the same
	// step. Counters only move forward for a given secret.
	if state.TOTPCounterSeen && counter <= state.LastTOTPCounter {
		return false, ErrInvalidCode
	}
	state.LastTOTPCounter = counter
	state.TOTPCounterSeen = true
	return true, nil
}

func (o *Orchestrator) verifyBackupCode(ctx context.Context, userID, code string, state *AttemptState) (bool, error) {
	if o.backup == nil {
		return false, ErrNoFactorsEnrolled
	}

	entryID, err := o.backup.Consume(ctx, userID, code)
	switch {
	case err == nil:
		state.LastBackupCodeID = entryID
		return true, nil
	case errors.Is(err, backupcode.ErrCodeAlreadyConsumed):
		// A retried request that already spent this exact code succeeds
		// idempotently instead of burning a failure.
		if entryID != "" && entryID == state.LastBackupCodeID {
			return true, nil
		}
		return false, ErrInvalidCode
	case errors.Is(err, backupcode.ErrNotEnrolled):
		return false, ErrNoFactorsEnrolled
	case errors.Is(err, backupcode.ErrCodeMismatch), errors.Is(err, backupcode.ErrNoCodesRemaining):
		return false, ErrInvalidCode
	}
	return false, err
}

func (o *Orchestrator) verifyWebAuthn(ctx context.Context, userID, challengeID string, assertion *webauthn.AssertionResponse) (bool, error) {
	if o.passkeys == nil {
		return false, ErrNoFactorsEnrolled
	}

	credential, err := o.passkeys.FinishAuthentication(ctx, challengeID, assertion)
	if err == nil {
		// The engine binds the challenge to the credential owner; the
		// owner must also be the user this attempt claims to verify, or a
		// valid assertion from one account would prove another.
		if credential.UserID != userID {
			return false, ErrInvalidCode
		}
		return true, nil
	}

	switch {
	case errors.Is(err, webauthn.ErrChallengeExpired):
		return false, ErrExpiredChallenge
	case errors.Is(err, webauthn.ErrChallengeReplay):
		return false, ErrChallengeReplay
	case errors.Is(err, webauthn.ErrOriginMismatch):
		return false, ErrOriginMismatch
	case errors.Is(err, webauthn.ErrSignatureInvalid):
		return false, ErrSignatureInvalid
	case errors.Is(err, webauthn.ErrCredentialCloneSuspected):
		return false, ErrCredentialCloneSuspected
	case errors.Is(err, webauthn.ErrCredentialNotFound), errors.Is(err, webauthn.ErrNoCredentials):
		return false, ErrNoFactorsEnrolled
	case errors.Is(err, webauthn.ErrChallengeNotFound),
		errors.Is(err, webauthn.ErrChallengeMismatch),
		errors.Is(err, webauthn.ErrCeremonyKindMismatch),
		errors.Is(err, webauthn.ErrCredentialDisabled),
		errors.Is(err, webauthn.ErrUserMismatch),
		errors.Is(err, webauthn.ErrUserNotPresent),
		errors.Is(err, webauthn.ErrRPIDMismatch),
		errors.Is(err, webauthn.ErrInvalidClientData),
		errors.Is(err, webauthn.ErrInvalidClientDataType),
		errors.Is(err, webauthn.ErrInvalidAuthenticatorData):
		// Remaining ceremony validation failures collapse into the generic
		// failure kind; which check tripped must not be enumerable.
		return false, ErrInvalidCode
	}
	return false, err
}

// isVerificationFailure reports whether the error is a countable attempt
// failure from the taxonomy, as opposed to an infrastructure error or a
// request that never reached a factor engine.
func isVerificationFailure(err error) bool {
	for _, kind := range []error{
		ErrInvalidCode,
		ErrExpiredChallenge,
		ErrChallengeReplay,
		ErrOriginMismatch,
		ErrSignatureInvalid,
		ErrCredentialCloneSuspected,
	} {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}
