package mfa

import (
	"context"
	"errors"

	"github.com/dmitrymomot/mfakit/pkg/totp"
	"github.com/dmitrymomot/mfakit/pkg/webauthn"
)

// EnrollTOTP provisions a fresh TOTP secret for the user and returns the
// secret together with its otpauth provisioning URI. The secret is the only
// time the plaintext leaves this package; it is stored encrypted when an
// encryption key is configured.
func (o *Orchestrator) EnrollTOTP(ctx context.Context, userID, accountName string) (secret, uri string, err error) {
	secret, err = totp.GenerateSecretKey()
	if err != nil {
		return "", "", err
	}

	uri, err = totp.GetTOTPURI(totp.TOTPParams{
		Secret:      secret,
		AccountName: accountName,
		Issuer:      o.cfg.Issuer,
	})
	if err != nil {
		return "", "", err
	}

	stored := secret
	if o.encryptionKey != nil {
		stored, err = totp.EncryptSecret(secret, o.encryptionKey)
		if err != nil {
			return "", "", err
		}
	}
	if err := o.secrets.Put(ctx, userID, FactorTOTP, stored); err != nil {
		return "", "", err
	}

	return secret, uri, nil
}

// RemoveTOTP destroys the user's TOTP secret and its replay marker.
func (o *Orchestrator) RemoveTOTP(ctx context.Context, userID string) error {
	o.locks.lock(userID)
	defer o.locks.unlock(userID)

	if err := o.secrets.Delete(ctx, userID, FactorTOTP); err != nil {
		return err
	}

	state, err := o.attempts.Get(ctx, userID)
	if err != nil {
		return err
	}
	state.TOTPCounterSeen = false
	state.LastTOTPCounter = 0
	return o.attempts.Put(ctx, userID, state)
}

// EnrollBackupCodes generates a fresh backup code set, replacing any
// previous one, and returns the plaintext codes exactly once.
func (o *Orchestrator) EnrollBackupCodes(ctx context.Context, userID string) ([]string, error) {
	if o.backup == nil {
		return nil, ErrEngineRequired
	}
	return o.backup.Enroll(ctx, userID, o.cfg.BackupCodeCount)
}

// BeginWebAuthnRegistration starts a credential registration ceremony.
func (o *Orchestrator) BeginWebAuthnRegistration(ctx context.Context, user webauthn.User) (*webauthn.PublicKeyCredentialCreationOptions, *webauthn.Challenge, error) {
	if o.passkeys == nil {
		return nil, nil, ErrEngineRequired
	}
	return o.passkeys.BeginRegistration(ctx, user)
}

// FinishWebAuthnRegistration completes a registration ceremony and persists
// the new credential.
func (o *Orchestrator) FinishWebAuthnRegistration(ctx context.Context, challengeID string, response *webauthn.RegistrationResponse) (*webauthn.Credential, error) {
	if o.passkeys == nil {
		return nil, ErrEngineRequired
	}
	return o.passkeys.FinishRegistration(ctx, challengeID, response)
}

// BeginWebAuthnAuthentication starts an assertion ceremony; its challenge id
// goes into the subsequent Verify request payload.
func (o *Orchestrator) BeginWebAuthnAuthentication(ctx context.Context, userID string) (*webauthn.PublicKeyCredentialRequestOptions, *webauthn.Challenge, error) {
	if o.passkeys == nil {
		return nil, nil, ErrEngineRequired
	}
	options, challenge, err := o.passkeys.BeginAuthentication(ctx, userID)
	if err != nil {
		if errors.Is(err, webauthn.ErrNoCredentials) {
			return nil, nil, ErrNoFactorsEnrolled
		}
		return nil, nil, err
	}
	return options, challenge, nil
}

// EnrolledFactors reports which factor kinds the user can currently verify
// with.
func (o *Orchestrator) EnrolledFactors(ctx context.Context, userID string) ([]FactorKind, error) {
	var factors []FactorKind

	if _, err := o.secrets.Get(ctx, userID, FactorTOTP); err == nil {
		factors = append(factors, FactorTOTP)
	} else if !errors.Is(err, ErrSecretNotFound) {
		return nil, err
	}

	if o.passkeys != nil {
		enrolled, err := o.passkeys.HasCredentials(ctx, userID)
		if err != nil {
			return nil, err
		}
		if enrolled {
			factors = append(factors, FactorWebAuthn)
		}
	}

	if o.backup != nil {
		remaining, err := o.backup.Remaining(ctx, userID)
		if err != nil {
			return nil, err
		}
		if remaining > 0 {
			factors = append(factors, FactorBackupCode)
		}
	}

	return factors, nil
}
