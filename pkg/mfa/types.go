package mfa

import (
	"encoding/json"
	"time"

	"github.com/dmitrymomot/mfakit/pkg/webauthn"
)

// FactorKind names a second-factor type the orchestrator can dispatch to.
type FactorKind string

const (
	FactorTOTP       FactorKind = "totp"
	FactorWebAuthn   FactorKind = "webauthn"
	FactorBackupCode FactorKind = "backup_code"
)

// Request is a single verification attempt from the session layer. Payload
// is decoded per factor kind: a code for TOTP and backup codes, a ceremony
// finish for WebAuthn.
type Request struct {
	UserID  string          `json:"user_id"`
	Factor  FactorKind      `json:"factor_kind"`
	Payload json.RawMessage `json:"payload"`
}

// Verdict is the single outcome the orchestrator reports per attempt. State
// is the session state after the attempt, driven through the transition
// table, so session layers track progress without reimplementing the rules.
type Verdict struct {
	Verified         bool          `json:"verified"`
	FactorUsed       FactorKind    `json:"factor_used,omitempty"`
	State            State         `json:"state,omitempty"`
	RemainingLockout time.Duration `json:"-"`
}

// MarshalJSON reports the remaining lockout in whole seconds under
// "remaining_lockout_seconds". Partial seconds round up so a locked verdict
// never reports zero.
func (v Verdict) MarshalJSON() ([]byte, error) {
	type wire struct {
		Verified                bool       `json:"verified"`
		FactorUsed              FactorKind `json:"factor_used,omitempty"`
		State                   State      `json:"state,omitempty"`
		RemainingLockoutSeconds int64      `json:"remaining_lockout_seconds,omitempty"`
	}
	var seconds int64
	if v.RemainingLockout > 0 {
		seconds = int64((v.RemainingLockout + time.Second - 1) / time.Second)
	}
	return json.Marshal(wire{v.Verified, v.FactorUsed, v.State, seconds})
}

type codePayload struct {
	Code string `json:"code"`
}

type webauthnPayload struct {
	ChallengeID string                      `json:"challenge_id"`
	Assertion   *webauthn.AssertionResponse `json:"assertion"`
}
