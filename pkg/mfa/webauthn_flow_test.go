package mfa_test

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"testing"
	"time"

	"github.com/dmitrymomot/mfakit/pkg/mfa"
	"github.com/dmitrymomot/mfakit/pkg/webauthn"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	flowRPID   = "example.com"
	flowOrigin = "https://example.com"
)

// passkeyForger produces ES256 ceremony responses shaped like a platform
// authenticator's output.
type passkeyForger struct {
	key          *ecdsa.PrivateKey
	credentialID []byte
	signCount    uint32
}

func newPasskeyForger(t *testing.T) *passkeyForger {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	credentialID := make([]byte, 16)
	_, err = rand.Read(credentialID)
	require.NoError(t, err)
	return &passkeyForger{key: key, credentialID: credentialID}
}

func (f *passkeyForger) authenticatorData(t *testing.T, flags byte, attested bool) []byte {
	t.Helper()
	rpIDHash := sha256.Sum256([]byte(flowRPID))

	data := append([]byte{}, rpIDHash[:]...)
	data = append(data, flags)
	count := make([]byte, 4)
	binary.BigEndian.PutUint32(count, f.signCount)
	data = append(data, count...)

	if attested {
		data = append(data, make([]byte, 16)...) // zero AAGUID
		idLen := make([]byte, 2)
		binary.BigEndian.PutUint16(idLen, uint16(len(f.credentialID)))
		data = append(data, idLen...)
		data = append(data, f.credentialID...)

		x := make([]byte, 32)
		y := make([]byte, 32)
		f.key.PublicKey.X.FillBytes(x)
		f.key.PublicKey.Y.FillBytes(y)
		coseKey, err := cbor.Marshal(map[int]any{1: 2, 3: -7, -1: 1, -2: x, -3: y})
		require.NoError(t, err)
		data = append(data, coseKey...)
	}
	return data
}

func (f *passkeyForger) clientData(t *testing.T, ceremonyType string, challenge []byte) []byte {
	t.Helper()
	payload, err := json.Marshal(webauthn.CollectedClientData{
		Type:      ceremonyType,
		Challenge: base64.RawURLEncoding.EncodeToString(challenge),
		Origin:    flowOrigin,
	})
	require.NoError(t, err)
	return payload
}

func (f *passkeyForger) register(t *testing.T, challenge []byte) *webauthn.RegistrationResponse {
	t.Helper()
	authData := f.authenticatorData(t, 0x41, true) // UP + AT

	attestation, err := cbor.Marshal(map[string]any{
		"fmt":      "none",
		"authData": authData,
		"attStmt":  map[string]any{},
	})
	require.NoError(t, err)

	return &webauthn.RegistrationResponse{
		ID:    base64.RawURLEncoding.EncodeToString(f.credentialID),
		RawID: webauthn.URLEncodedBase64(f.credentialID),
		Type:  webauthn.PublicKeyCredential,
		Response: webauthn.AuthenticatorAttestationResponse{
			ClientDataJSON:    webauthn.URLEncodedBase64(f.clientData(t, "webauthn.create", challenge)),
			AttestationObject: webauthn.URLEncodedBase64(attestation),
		},
	}
}

func (f *passkeyForger) assert(t *testing.T, challenge []byte) *webauthn.AssertionResponse {
	t.Helper()
	authData := f.authenticatorData(t, 0x01, false) // UP only
	clientData := f.clientData(t, "webauthn.get", challenge)

	clientDataHash := sha256.Sum256(clientData)
	signed := append(append([]byte{}, authData...), clientDataHash[:]...)
	digest := sha256.Sum256(signed)
	signature, err := ecdsa.SignASN1(rand.Reader, f.key, digest[:])
	require.NoError(t, err)

	return &webauthn.AssertionResponse{
		ID:    base64.RawURLEncoding.EncodeToString(f.credentialID),
		RawID: webauthn.URLEncodedBase64(f.credentialID),
		Type:  webauthn.PublicKeyCredential,
		Response: webauthn.AuthenticatorAssertionResponse{
			ClientDataJSON:    webauthn.URLEncodedBase64(clientData),
			AuthenticatorData: webauthn.URLEncodedBase64(authData),
			Signature:         webauthn.URLEncodedBase64(signature),
		},
	}
}

func newPasskeyHarness(t *testing.T) (*mfa.Orchestrator, *recordingNotifier) {
	t.Helper()

	engine, err := webauthn.NewEngine(
		webauthn.Config{
			RPID:          flowRPID,
			RPDisplayName: "Example",
			RPOrigins:     []string{flowOrigin},
			ChallengeTTL:  5 * time.Minute,
			Timeout:       time.Minute,
		},
		webauthn.NewMemoryChallengeStore(),
		webauthn.NewMemoryCredentialStore(),
	)
	require.NoError(t, err)

	notifier := &recordingNotifier{}
	orch, err := mfa.NewOrchestrator(
		mfa.Config{MaxFailures: 3},
		mfa.NewMemorySecretStore(),
		mfa.NewMemoryAttemptStore(),
		nil,
		engine,
		mfa.WithNotifier(notifier),
	)
	require.NoError(t, err)
	return orch, notifier
}

func assertionRequest(t *testing.T, userID, challengeID string, assertion *webauthn.AssertionResponse) mfa.Request {
	t.Helper()
	payload, err := json.Marshal(map[string]any{
		"challenge_id": challengeID,
		"assertion":    assertion,
	})
	require.NoError(t, err)
	return mfa.Request{UserID: userID, Factor: mfa.FactorWebAuthn, Payload: payload}
}

func enrollPasskey(t *testing.T, orch *mfa.Orchestrator, forger *passkeyForger, userID string) {
	t.Helper()
	ctx := context.Background()
	user := webauthn.User{ID: userID, Handle: []byte(userID), Name: userID, DisplayName: userID}

	_, challenge, err := orch.BeginWebAuthnRegistration(ctx, user)
	require.NoError(t, err)

	_, err = orch.FinishWebAuthnRegistration(ctx, challenge.ID, forger.register(t, challenge.Value))
	require.NoError(t, err)
}

func TestOrchestrator_WebAuthnVerification(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	orch, notifier := newPasskeyHarness(t)
	forger := newPasskeyForger(t)
	enrollPasskey(t, orch, forger, "alice")

	factors, err := orch.EnrolledFactors(ctx, "alice")
	require.NoError(t, err)
	assert.Contains(t, factors, mfa.FactorWebAuthn)

	_, challenge, err := orch.BeginWebAuthnAuthentication(ctx, "alice")
	require.NoError(t, err)

	forger.signCount++
	verdict, err := orch.Verify(ctx, assertionRequest(t, "alice", challenge.ID, forger.assert(t, challenge.Value)))
	require.NoError(t, err)
	assert.True(t, verdict.Verified)
	assert.Equal(t, mfa.FactorWebAuthn, verdict.FactorUsed)
	assert.Equal(t, []mfa.FactorKind{mfa.FactorWebAuthn}, notifier.verified)
}

func TestOrchestrator_WebAuthnCrossUserRejected(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	orch, notifier := newPasskeyHarness(t)
	forger := newPasskeyForger(t)
	enrollPasskey(t, orch, forger, "mallory")

	_, challenge, err := orch.BeginWebAuthnAuthentication(ctx, "mallory")
	require.NoError(t, err)

	// A valid assertion over mallory's challenge must not verify a request
	// claiming a different user id.
	forger.signCount++
	verdict, err := orch.Verify(ctx, assertionRequest(t, "victim", challenge.ID, forger.assert(t, challenge.Value)))
	assert.ErrorIs(t, err, mfa.ErrInvalidCode)
	assert.False(t, verdict.Verified)
	assert.Empty(t, notifier.verified)
}

func TestOrchestrator_WebAuthnChallengeReplay(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	orch, _ := newPasskeyHarness(t)
	forger := newPasskeyForger(t)
	enrollPasskey(t, orch, forger, "alice")

	_, challenge, err := orch.BeginWebAuthnAuthentication(ctx, "alice")
	require.NoError(t, err)

	forger.signCount++
	assertion := forger.assert(t, challenge.Value)
	verdict, err := orch.Verify(ctx, assertionRequest(t, "alice", challenge.ID, assertion))
	require.NoError(t, err)
	require.True(t, verdict.Verified)

	// A second submission against the consumed challenge is detected as a
	// replay, which counts as a failed attempt.
	_, err = orch.Verify(ctx, assertionRequest(t, "alice", challenge.ID, assertion))
	assert.ErrorIs(t, err, mfa.ErrChallengeReplay)
}

func TestOrchestrator_WebAuthnCloneSuspected(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	orch, notifier := newPasskeyHarness(t)
	forger := newPasskeyForger(t)
	forger.signCount = 10
	enrollPasskey(t, orch, forger, "alice")

	_, challenge, err := orch.BeginWebAuthnAuthentication(ctx, "alice")
	require.NoError(t, err)

	// A regressed sign count means another authenticator holds the same
	// private key. The credential gets disabled and the event surfaces.
	forger.signCount = 3
	_, err = orch.Verify(ctx, assertionRequest(t, "alice", challenge.ID, forger.assert(t, challenge.Value)))
	assert.ErrorIs(t, err, mfa.ErrCredentialCloneSuspected)
	assert.Equal(t, 1, notifier.cloneSuspected)

	// The disabled credential leaves the user with nothing to assert with.
	_, _, err = orch.BeginWebAuthnAuthentication(ctx, "alice")
	assert.ErrorIs(t, err, mfa.ErrNoFactorsEnrolled)
}

func TestOrchestrator_WebAuthnNotEnrolled(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	orch, _ := newPasskeyHarness(t)

	_, _, err := orch.BeginWebAuthnAuthentication(ctx, "nobody")
	assert.ErrorIs(t, err, mfa.ErrNoFactorsEnrolled)
}
