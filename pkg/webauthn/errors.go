package webauthn

import "errors"

var (
	ErrChallengeNotFound        = errors.New("challenge not found")
	ErrChallengeReplay          = errors.New("challenge already consumed")
	ErrChallengeExpired         = errors.New("challenge expired")
	ErrChallengeMismatch        = errors.New("client response does not echo the issued challenge")
	ErrCeremonyKindMismatch     = errors.New("challenge was issued for a different ceremony kind")
	ErrOriginMismatch           = errors.New("client origin is not an allowed relying party origin")
	ErrRPIDMismatch             = errors.New("authenticator data rpIdHash does not match relying party id")
	ErrSignatureInvalid         = errors.New("assertion signature verification failed")
	ErrCredentialCloneSuspected = errors.New("sign count regression, credential possibly cloned")
	ErrCredentialExists         = errors.New("credential id already registered")
	ErrCredentialNotFound       = errors.New("credential not found")
	ErrCredentialDisabled       = errors.New("credential disabled")
	ErrNoCredentials            = errors.New("no credentials registered for user")
	ErrUserMismatch             = errors.New("credential does not belong to the challenged user")
	ErrUserNotPresent           = errors.New("user presence flag not set")
	ErrMissingResponse          = errors.New("client response is missing")
	ErrInvalidClientData        = errors.New("malformed client data")
	ErrInvalidClientDataType    = errors.New("unexpected client data type")
	ErrInvalidAuthenticatorData = errors.New("malformed authenticator data")
	ErrInvalidAttestationObject = errors.New("malformed attestation object")
	ErrNoAttestedCredential     = errors.New("authenticator data carries no attested credential")
	ErrUnsupportedAttestation   = errors.New("unsupported attestation format")
	ErrUnsupportedAlgorithm     = errors.New("unsupported credential algorithm")
	ErrInvalidPublicKey         = errors.New("malformed COSE public key")
	ErrStoreRequired            = errors.New("store is required")
	ErrConfigInvalid            = errors.New("invalid webauthn configuration")
)
