package webauthn

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/dmitrymomot/mfakit/pkg/logger"
)

// User is the account a ceremony is performed for. Handle is the opaque user
// handle authenticators store alongside the credential.
type User struct {
	ID          string
	Handle      []byte
	Name        string
	DisplayName string
}

// Engine runs WebAuthn registration and authentication ceremonies against
// injected stores. Each ceremony is a single-use challenge-response exchange:
// a challenge authorizes exactly one finish call and is invalidated by use or
// expiry regardless of outcome.
type Engine struct {
	cfg         Config
	challenges  ChallengeStore
	credentials CredentialStore
	attestation map[string]AttestationVerifier
	log         *slog.Logger
	now         func() time.Time
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the structured logger used for ceremony events.
func WithLogger(log *slog.Logger) EngineOption {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// WithAttestationVerifier registers a verifier for an attestation format,
// replacing any default for the same format.
func WithAttestationVerifier(v AttestationVerifier) EngineOption {
	return func(e *Engine) {
		if v != nil {
			e.attestation[v.Format()] = v
		}
	}
}

// WithClock overrides the time source, used by tests to control expiry.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine creates a ceremony engine. The "none" and "packed"
// (self-attestation) formats are verified out of the box; other formats
// require an injected AttestationVerifier.
func NewEngine(cfg Config, challenges ChallengeStore, credentials CredentialStore, opts ...EngineOption) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if challenges == nil || credentials == nil {
		return nil, ErrStoreRequired
	}

	e := &Engine{
		cfg:         cfg,
		challenges:  challenges,
		credentials: credentials,
		attestation: map[string]AttestationVerifier{
			"none":   NoneAttestationVerifier{},
			"packed": PackedSelfAttestationVerifier{},
		},
		log: slog.Default(),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// BeginRegistration issues a fresh single-use challenge and the credential
// creation options to hand to the client. Already registered credentials are
// listed for exclusion so an authenticator does not double-enroll.
func (e *Engine) BeginRegistration(ctx context.Context, user User) (*PublicKeyCredentialCreationOptions, *Challenge, error) {
	challenge, err := NewChallenge(user.ID, CeremonyRegistration, e.cfg.RPID, e.cfg.ChallengeTTL, e.now())
	if err != nil {
		return nil, nil, err
	}
	challenge.UserHandle = user.Handle
	if err := e.challenges.Save(ctx, challenge); err != nil {
		return nil, nil, err
	}

	existing, err := e.credentials.ListByUser(ctx, e.cfg.RPID, user.ID)
	if err != nil {
		return nil, nil, err
	}
	exclude := make([]PublicKeyCredentialDescriptor, len(existing))
	for i, c := range existing {
		exclude[i] = c.Descriptor()
	}

	options := &PublicKeyCredentialCreationOptions{
		RP: PublicKeyCredentialRpEntity{
			ID:   e.cfg.RPID,
			Name: e.cfg.RPDisplayName,
		},
		User: PublicKeyCredentialUserEntity{
			ID:          URLEncodedBase64(user.Handle),
			Name:        user.Name,
			DisplayName: user.DisplayName,
		},
		Challenge: URLEncodedBase64(challenge.Value),
		PubKeyCredParams: []PublicKeyCredentialParameters{
			{Type: PublicKeyCredential, Alg: AlgES256},
			{Type: PublicKeyCredential, Alg: AlgEdDSA},
			{Type: PublicKeyCredential, Alg: AlgRS256},
		},
		Timeout:            int(e.cfg.Timeout.Milliseconds()),
		ExcludeCredentials: exclude,
		Attestation:        AttestationNone,
	}

	return options, &challenge, nil
}

// FinishRegistration validates the client's attestation response against the
// pending challenge and persists the new credential. The challenge is
// consumed whatever the outcome.
func (e *Engine) FinishRegistration(ctx context.Context, challengeID string, response *RegistrationResponse) (*Credential, error) {
	if response == nil {
		return nil, ErrMissingResponse
	}

	challenge, err := e.consumeChallenge(ctx, challengeID, CeremonyRegistration)
	if err != nil {
		return nil, err
	}

	if _, err := e.verifyClientData(response.Response.ClientDataJSON, clientDataTypeCreate, challenge.Value); err != nil {
		return nil, err
	}

	attestation, err := ParseAttestationObject(response.Response.AttestationObject)
	if err != nil {
		return nil, err
	}

	authData, err := ParseAuthenticatorData(attestation.AuthData)
	if err != nil {
		return nil, err
	}
	if err := e.verifyRPIDHash(authData); err != nil {
		return nil, err
	}
	if !authData.UserPresent() {
		return nil, ErrUserNotPresent
	}
	if authData.AttestedCredential == nil {
		return nil, ErrNoAttestedCredential
	}

	key, err := ParsePublicKey(authData.AttestedCredential.PublicKey)
	if err != nil {
		return nil, err
	}

	verifier, ok := e.attestation[attestation.Format]
	if !ok {
		return nil, ErrUnsupportedAttestation
	}
	clientDataHash := sha256.Sum256(response.Response.ClientDataJSON)
	if err := verifier.Verify(attestation.Statement, attestation.AuthData, clientDataHash[:], key); err != nil {
		return nil, err
	}

	now := e.now()
	credential := Credential{
		CredentialID:   authData.AttestedCredential.CredentialID,
		UserID:         challenge.UserID,
		UserHandle:     challenge.UserHandle,
		PublicKey:      authData.AttestedCredential.PublicKey,
		RelyingPartyID: e.cfg.RPID,
		SignCount:      authData.SignCount,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := e.credentials.Create(ctx, credential); err != nil {
		return nil, err
	}

	e.log.InfoContext(ctx, "webauthn credential registered",
		logger.UserID(challenge.UserID),
		slog.String("rp_id", e.cfg.RPID),
		slog.Int("sign_count", int(authData.SignCount)),
	)
	return &credential, nil
}

// BeginAuthentication issues a fresh single-use challenge together with the
// assertion request options listing the user's registered credentials.
func (e *Engine) BeginAuthentication(ctx context.Context, userID string) (*PublicKeyCredentialRequestOptions, *Challenge, error) {
	existing, err := e.credentials.ListByUser(ctx, e.cfg.RPID, userID)
	if err != nil {
		return nil, nil, err
	}

	allow := make([]PublicKeyCredentialDescriptor, 0, len(existing))
	for _, c := range existing {
		if !c.Disabled {
			allow = append(allow, c.Descriptor())
		}
	}
	if len(allow) == 0 {
		return nil, nil, ErrNoCredentials
	}

	challenge, err := NewChallenge(userID, CeremonyAuthentication, e.cfg.RPID, e.cfg.ChallengeTTL, e.now())
	if err != nil {
		return nil, nil, err
	}
	if err := e.challenges.Save(ctx, challenge); err != nil {
		return nil, nil, err
	}

	options := &PublicKeyCredentialRequestOptions{
		Challenge:        URLEncodedBase64(challenge.Value),
		Timeout:          int(e.cfg.Timeout.Milliseconds()),
		RPID:             e.cfg.RPID,
		AllowCredentials: allow,
		UserVerification: VerificationPreferred,
	}
	return options, &challenge, nil
}

// FinishAuthentication validates the client's assertion against the pending
// challenge and the stored credential, enforcing strict sign count
// monotonicity. A counter regression flags the credential as potentially
// cloned: it is disabled, not merely failed, and ErrCredentialCloneSuspected
// is returned. On success the stored sign count is advanced.
func (e *Engine) FinishAuthentication(ctx context.Context, challengeID string, response *AssertionResponse) (*Credential, error) {
	if response == nil {
		return nil, ErrMissingResponse
	}

	challenge, err := e.consumeChallenge(ctx, challengeID, CeremonyAuthentication)
	if err != nil {
		return nil, err
	}

	if _, err := e.verifyClientData(response.Response.ClientDataJSON, clientDataTypeGet, challenge.Value); err != nil {
		return nil, err
	}

	credential, err := e.credentials.GetByID(ctx, e.cfg.RPID, response.RawID)
	if err != nil {
		return nil, err
	}
	if credential.Disabled {
		return nil, ErrCredentialDisabled
	}
	if credential.UserID != challenge.UserID {
		return nil, ErrUserMismatch
	}

	authData, err := ParseAuthenticatorData(response.Response.AuthenticatorData)
	if err != nil {
		return nil, err
	}
	if err := e.verifyRPIDHash(authData); err != nil {
		return nil, err
	}
	if !authData.UserPresent() {
		return nil, ErrUserNotPresent
	}

	key, err := ParsePublicKey(credential.PublicKey)
	if err != nil {
		return nil, err
	}

	clientDataHash := sha256.Sum256(response.Response.ClientDataJSON)
	signed := make([]byte, 0, len(response.Response.AuthenticatorData)+len(clientDataHash))
	signed = append(signed, response.Response.AuthenticatorData...)
	signed = append(signed, clientDataHash[:]...)
	if err := key.Verify(signed, response.Response.Signature); err != nil {
		return nil, err
	}

	// Strict monotonicity: the received counter must exceed the stored one.
	// Authenticators without counter support report zero on both sides and
	// are exempt. A regression or repeat means the private key has likely
	// been extracted, so the credential is disabled outright.
	if authData.SignCount <= credential.SignCount && !(authData.SignCount == 0 && credential.SignCount == 0) {
		if err := e.credentials.Disable(ctx, e.cfg.RPID, credential.CredentialID); err != nil {
			e.log.ErrorContext(ctx, "failed to disable cloned credential", logger.Error(err))
		}
		e.log.WarnContext(ctx, "webauthn sign count regression, credential disabled",
			logger.UserID(credential.UserID),
			slog.Int("stored", int(credential.SignCount)),
			slog.Int("received", int(authData.SignCount)),
		)
		return nil, ErrCredentialCloneSuspected
	}

	if authData.SignCount > credential.SignCount {
		if err := e.credentials.UpdateSignCount(ctx, e.cfg.RPID, credential.CredentialID, authData.SignCount); err != nil {
			return nil, err
		}
		credential.SignCount = authData.SignCount
	}

	return &credential, nil
}

// HasCredentials reports whether the user has at least one enabled
// credential registered.
func (e *Engine) HasCredentials(ctx context.Context, userID string) (bool, error) {
	existing, err := e.credentials.ListByUser(ctx, e.cfg.RPID, userID)
	if err != nil {
		return false, err
	}
	for _, c := range existing {
		if !c.Disabled {
			return true, nil
		}
	}
	return false, nil
}

func (e *Engine) consumeChallenge(ctx context.Context, challengeID string, kind CeremonyKind) (Challenge, error) {
	challenge, err := e.challenges.Consume(ctx, challengeID)
	if err != nil {
		return Challenge{}, err
	}
	// Consumption happens before any other check: the challenge is spent even
	// when the response turns out to be expired or malformed.
	if challenge.Expired(e.now()) {
		return Challenge{}, ErrChallengeExpired
	}
	if challenge.Kind != kind {
		return Challenge{}, ErrCeremonyKindMismatch
	}
	return challenge, nil
}

func (e *Engine) verifyClientData(clientDataJSON []byte, wantType string, challengeValue []byte) (*CollectedClientData, error) {
	var clientData CollectedClientData
	if err := json.Unmarshal(clientDataJSON, &clientData); err != nil {
		return nil, errors.Join(ErrInvalidClientData, err)
	}
	if clientData.Type != wantType {
		return nil, ErrInvalidClientDataType
	}

	want := base64.RawURLEncoding.EncodeToString(challengeValue)
	if subtle.ConstantTimeCompare([]byte(clientData.Challenge), []byte(want)) != 1 {
		return nil, ErrChallengeMismatch
	}

	originOK := false
	for _, origin := range e.cfg.RPOrigins {
		if clientData.Origin == origin {
			originOK = true
			break
		}
	}
	if !originOK {
		return nil, ErrOriginMismatch
	}

	return &clientData, nil
}

func (e *Engine) verifyRPIDHash(authData *AuthenticatorData) error {
	want := sha256.Sum256([]byte(e.cfg.RPID))
	if subtle.ConstantTimeCompare(authData.RPIDHash, want[:]) != 1 {
		return ErrRPIDMismatch
	}
	return nil
}
