package totp

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/base32"
	"errors"
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strings"
	"time"
)

const (
	DefaultDigits    = 6      // Standard 6-digit TOTP codes
	DefaultPeriod    = 30     // 30-second validity window (RFC 6238 standard)
	DefaultSkew      = 1      // Accept codes from one adjacent time step in each direction
	DefaultAlgorithm = "SHA1" // HMAC-SHA1 algorithm (RFC 6238 standard)
)

var (
	// ValidateSecretKeyRegex ensures Base32 format: uppercase A-Z, digits 2-7, optional padding
	ValidateSecretKeyRegex = regexp.MustCompile("^[A-Z2-7]+=*$")
)

// Option customizes code generation and verification parameters.
type Option func(*options)

type options struct {
	digits int
	period int
	skew   int
}

func defaultOptions() options {
	return options{
		digits: DefaultDigits,
		period: DefaultPeriod,
		skew:   DefaultSkew,
	}
}

// WithDigits sets the number of decimal digits in generated codes (6-8).
func WithDigits(digits int) Option {
	return func(o *options) {
		if digits >= 6 && digits <= 8 {
			o.digits = digits
		}
	}
}

// WithPeriod sets the time-step length in seconds.
func WithPeriod(seconds int) Option {
	return func(o *options) {
		if seconds > 0 {
			o.period = seconds
		}
	}
}

// WithSkew sets how many adjacent time steps are accepted in each direction.
// A skew of 0 rejects all clock-drifted clients.
func WithSkew(steps int) Option {
	return func(o *options) {
		if steps >= 0 {
			o.skew = steps
		}
	}
}

// TOTPParams contains the parameters for TOTP URI generation
type TOTPParams struct {
	Secret      string // Base32-encoded TOTP secret key (required)
	AccountName string // User identifier like email (required)
	Issuer      string // Service name displayed in authenticator apps (required)
	Algorithm   string // HMAC algorithm (optional, defaults to SHA1)
	Digits      int    // Number of digits in generated codes (optional, defaults to 6)
	Period      int    // Code validity period in seconds (optional, defaults to 30)
}

// Validate ensures all required TOTP parameters are present and valid
func (p TOTPParams) Validate() error {
	if p.Secret == "" {
		return ErrMissingSecret
	}
	if !ValidateSecretKeyRegex.MatchString(p.Secret) {
		return ErrInvalidSecret
	}
	if p.AccountName == "" {
		return ErrMissingAccountName
	}
	if p.Issuer == "" {
		return ErrMissingIssuer
	}
	return nil
}

// GetDefaults returns a copy with RFC 6238 standard defaults applied to zero-valued fields
func (p TOTPParams) GetDefaults() TOTPParams {
	if p.Algorithm == "" {
		p.Algorithm = DefaultAlgorithm
	}
	if p.Digits == 0 {
		p.Digits = DefaultDigits
	}
	if p.Period == 0 {
		p.Period = DefaultPeriod
	}
	return p
}

// GenerateSecretKey generates a new Base32-encoded secret key for TOTP.
func GenerateSecretKey() (string, error) {
	secret := make([]byte, 20) // 160-bit secret (RFC 4226 recommendation for cryptographic strength)
	if _, err := rand.Read(secret); err != nil {
		return "", errors.Join(ErrFailedToGenerateSecretKey, err)
	}
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(secret), nil
}

// GetTOTPURI creates a properly encoded TOTP URI for use with authenticator apps.
// The URI format follows the Key Uri Format specification:
// https://github.com/google/google-authenticator/wiki/Key-Uri-Format
func GetTOTPURI(params TOTPParams) (string, error) {
	if err := params.Validate(); err != nil {
		return "", err
	}

	params = params.GetDefaults()

	label := fmt.Sprintf("%s:%s",
		url.PathEscape(params.Issuer),
		url.PathEscape(params.AccountName),
	)

	query := url.Values{}
	query.Set("secret", params.Secret)
	query.Set("issuer", params.Issuer)
	query.Set("algorithm", params.Algorithm)
	query.Set("digits", fmt.Sprintf("%d", params.Digits))
	query.Set("period", fmt.Sprintf("%d", params.Period))

	uri := fmt.Sprintf("otpauth://totp/%s?%s", label, query.Encode())

	return uri, nil
}

// VerifyAt validates a TOTP code against the time step containing the given
// moment, accepting codes from the configured skew window around it. On a
// match it returns the counter value the code was generated for, so callers
// can refuse a second submission for the same counter.
//
// All candidate counters in the window are checked with constant-time
// comparison, and the loop never exits early, so verification time does not
// reveal which candidate (if any) matched.
func VerifyAt(secret, otp string, at time.Time, opts ...Option) (int64, bool, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	key, err := decodeSecret(secret)
	if err != nil {
		return 0, false, err
	}

	otp = strings.TrimSpace(otp)
	if !regexp.MustCompile(fmt.Sprintf(`^\d{%d}$`, o.digits)).MatchString(otp) {
		return 0, false, ErrInvalidOTP
	}

	counter := at.Unix() / int64(o.period)

	var matched int64
	var ok bool
	for i := -o.skew; i <= o.skew; i++ {
		candidate := counter + int64(i)
		code := fmt.Sprintf("%0*d", o.digits, GenerateHOTP(key, candidate, o.digits))
		if subtle.ConstantTimeCompare([]byte(code), []byte(otp)) == 1 && !ok {
			matched = candidate
			ok = true
		}
	}

	return matched, ok, nil
}

// Verify validates a TOTP code against the current wall-clock time.
func Verify(secret, otp string, opts ...Option) (bool, error) {
	_, ok, err := VerifyAt(secret, otp, time.Now(), opts...)
	return ok, err
}

// GenerateCodeAt generates the TOTP code for the time step containing the
// specified moment. Useful for tests and for provisioning verification.
func GenerateCodeAt(secret string, t time.Time, opts ...Option) (string, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	key, err := decodeSecret(secret)
	if err != nil {
		return "", err
	}

	counter := t.Unix() / int64(o.period)
	code := GenerateHOTP(key, counter, o.digits)

	return fmt.Sprintf("%0*d", o.digits, code), nil
}

// GenerateCode generates the TOTP code for the current time step.
func GenerateCode(secret string, opts ...Option) (string, error) {
	return GenerateCodeAt(secret, time.Now(), opts...)
}

// GenerateHOTP implements RFC 4226 HMAC-based One-Time Password algorithm.
// The algorithm converts a counter value into a numeric code using HMAC-SHA1.
func GenerateHOTP(key []byte, counter int64, digits int) int {
	// Convert counter to big-endian 8-byte array (RFC 4226 requirement)
	counterBytes := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		counterBytes[i] = byte(counter & 0xff)
		counter = counter >> 8
	}

	// Calculate HMAC-SHA1 hash of the counter
	hmacHash := hmac.New(sha1.New, key)
	hmacHash.Write(counterBytes)
	hash := hmacHash.Sum(nil)

	// Dynamic truncation (RFC 4226): use last 4 bits as offset into hash
	offset := hash[len(hash)-1] & 0x0f
	// Extract 31-bit value (clear MSB to ensure positive number)
	code := (int(hash[offset]&0x7f) << 24) |
		(int(hash[offset+1]&0xff) << 16) |
		(int(hash[offset+2]&0xff) << 8) |
		(int(hash[offset+3] & 0xff))

	// Reduce to desired number of digits
	code = code % int(math.Pow10(digits))

	return code
}

func decodeSecret(secret string) ([]byte, error) {
	secret = strings.TrimSpace(strings.ToUpper(secret))
	if !ValidateSecretKeyRegex.MatchString(secret) {
		return nil, ErrInvalidSecret
	}

	key, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(strings.TrimRight(secret, "="))
	if err != nil {
		return nil, errors.Join(ErrInvalidSecret, err)
	}
	return key, nil
}
