// Package totp implements RFC 6238 time-based one-time passwords: secret key
// creation, provisioning URI generation compatible with authenticator
// applications, code generation/verification against a sliding time-step
// window, and AES-256-GCM helpers for persisting secrets.
//
// Verification is time-parameterized (VerifyAt) so callers control the clock,
// and returns the matched counter value so a coordinating layer can refuse a
// second submission of the same code within the same step. All candidate
// codes in the skew window are compared in constant time.
//
// # Usage
//
// The minimal happy path for enrolling a user:
//
//	secret, _ := totp.GenerateSecretKey()
//
//	uri, _ := totp.GetTOTPURI(totp.TOTPParams{
//	    Secret:      secret,
//	    AccountName: "alice@example.com",
//	    Issuer:      "Acme",
//	})
//
//	// Later, validate a submitted code:
//	counter, ok, _ := totp.VerifyAt(secret, "123456", time.Now())
//
// Digits, period and skew default to the RFC 6238 standard values (6, 30s,
// ±1 step) and can be overridden per call with WithDigits, WithPeriod and
// WithSkew, or loaded from the environment via LoadConfig.
//
// # Error Handling
//
// Exported operations return package-level sentinels joined with the
// underlying cause; inspect with errors.Is against ErrInvalidSecret,
// ErrInvalidOTP, ErrFailedToDecryptSecret and friends.
//
// # See Also
//
//   - RFC 4226 – HMAC-Based One-Time Password (HOTP) Algorithm
//   - RFC 6238 – Time-Based One-Time Password (TOTP) Algorithm
package totp
