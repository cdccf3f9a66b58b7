package mfa

import "errors"

// Error taxonomy of the verification engine. Every cryptographic or
// validation failure inside a factor engine is recovered into one of these
// kinds before crossing the orchestrator boundary, so attempt counters can
// always be updated regardless of failure cause.
var (
	ErrInvalidCode              = errors.New("submitted code does not verify")
	ErrExpiredChallenge         = errors.New("ceremony challenge expired")
	ErrChallengeReplay          = errors.New("ceremony challenge already consumed")
	ErrOriginMismatch           = errors.New("client origin rejected")
	ErrSignatureInvalid         = errors.New("assertion signature invalid")
	ErrCredentialCloneSuspected = errors.New("credential clone suspected")
	ErrLocked                   = errors.New("verification locked out")
	ErrNoFactorsEnrolled        = errors.New("no factors enrolled for user")
	ErrUnknownFactorKind        = errors.New("unknown factor kind")
	ErrInvalidPayload           = errors.New("malformed verification payload")
	ErrStoreRequired            = errors.New("store is required")
	ErrEngineRequired           = errors.New("factor engine is required")
)
