// Package webauthn implements the relying party side of WebAuthn
// registration and authentication ceremonies: challenge issuance, client
// response validation (challenge echo, origin, rpIdHash, signature) and
// credential record management.
//
// Each ceremony is a single-use state machine. A challenge authorizes
// exactly one finish call; it is consumed atomically by the first such call
// and cannot be resumed after that or after expiry, whatever the outcome. A
// second finish with the same challenge id fails with ErrChallengeReplay.
//
// Assertions are additionally checked for strict sign count monotonicity. A
// counter that fails to advance means the authenticator's private key has
// likely been extracted, so the engine disables the credential and returns
// ErrCredentialCloneSuspected rather than a plain failure.
//
// Wire types mirror the W3C WebAuthn specification field names (creation and
// request options, collected client data, attestation and assertion
// responses) with binary fields carried as unpadded base64url, so the
// package interoperates with browser and platform authenticators directly.
//
// Attestation trust is a narrow capability: the engine verifies "none" and
// "packed" self attestation out of the box, and anything involving
// certificate chains is delegated to injected AttestationVerifier
// implementations keyed by format.
//
// Challenge and credential persistence sit behind ChallengeStore and
// CredentialStore; in-memory, Redis (challenges) and Postgres (credentials)
// implementations are provided.
package webauthn
