package totp_test

import (
	"testing"
	"time"

	"github.com/dmitrymomot/mfakit/pkg/totp"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSecretKey(t *testing.T) {
	t.Parallel()
	secret, err := totp.GenerateSecretKey()
	require.NoError(t, err)
	assert.NotEmpty(t, secret)
	assert.Regexp(t, totp.ValidateSecretKeyRegex, secret)

	// 160 bits encodes to 32 base32 characters without padding
	assert.Len(t, secret, 32)
}

func TestGetTOTPURI(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		params  totp.TOTPParams
		want    string
		wantErr bool
	}{
		{
			name: "Basic URI",
			params: totp.TOTPParams{
				Secret:      "ABCDEFGHIJKLMNOP",
				AccountName: "test@example.com",
				Issuer:      "TestApp",
			},
			want:    "otpauth://totp/TestApp:test@example.com?algorithm=SHA1&digits=6&issuer=TestApp&period=30&secret=ABCDEFGHIJKLMNOP",
			wantErr: false,
		},
		{
			name: "URI with special characters",
			params: totp.TOTPParams{
				Secret:      "ABCDEFGHIJKLMNOP",
				AccountName: "test+user@example.com",
				Issuer:      "Test & App",
				Algorithm:   "SHA1",
				Digits:      6,
				Period:      30,
			},
			want:    "otpauth://totp/Test%20&%20App:test+user@example.com?algorithm=SHA1&digits=6&issuer=Test+%26+App&period=30&secret=ABCDEFGHIJKLMNOP",
			wantErr: false,
		},
		{
			name: "Missing secret",
			params: totp.TOTPParams{
				AccountName: "test@example.com",
				Issuer:      "TestApp",
			},
			wantErr: true,
		},
		{
			name: "Missing account name",
			params: totp.TOTPParams{
				Secret: "ABCDEFGHIJKLMNOP",
				Issuer: "TestApp",
			},
			wantErr: true,
		},
		{
			name: "Missing issuer",
			params: totp.TOTPParams{
				Secret:      "ABCDEFGHIJKLMNOP",
				AccountName: "test@example.com",
			},
			wantErr: true,
		},
		{
			name: "Lowercase secret rejected",
			params: totp.TOTPParams{
				Secret:      "abcdefgh",
				AccountName: "test@example.com",
				Issuer:      "TestApp",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := totp.GetTOTPURI(tt.params)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestVerifyAt_Window(t *testing.T) {
	t.Parallel()
	secret, err := totp.GenerateSecretKey()
	require.NoError(t, err)

	// Code for counter 0 (t in [0,30)) with the default 30s step.
	code, err := totp.GenerateCodeAt(secret, time.Unix(15, 0))
	require.NoError(t, err)

	tests := []struct {
		name    string
		at      time.Time
		skew    int
		wantOK  bool
		counter int64
	}{
		{name: "same step", at: time.Unix(15, 0), skew: 1, wantOK: true, counter: 0},
		{name: "next step within skew", at: time.Unix(35, 0), skew: 1, wantOK: true, counter: 0},
		{name: "two steps later outside skew", at: time.Unix(65, 0), skew: 1, wantOK: false},
		{name: "zero skew rejects drifted clock", at: time.Unix(35, 0), skew: 0, wantOK: false},
		{name: "zero skew accepts same step", at: time.Unix(20, 0), skew: 0, wantOK: true, counter: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			counter, ok, err := totp.VerifyAt(secret, code, tt.at, totp.WithSkew(tt.skew))
			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.counter, counter)
			}
		})
	}

	// A fresh code for counter 2 verifies at t=65.
	fresh, err := totp.GenerateCodeAt(secret, time.Unix(65, 0))
	require.NoError(t, err)
	counter, ok, err := totp.VerifyAt(secret, fresh, time.Unix(65, 0))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(2), counter)
}

func TestVerifyAt_InvalidInput(t *testing.T) {
	t.Parallel()
	secret, err := totp.GenerateSecretKey()
	require.NoError(t, err)

	t.Run("malformed code", func(t *testing.T) {
		t.Parallel()
		_, _, err := totp.VerifyAt(secret, "12ab56", time.Now())
		assert.ErrorIs(t, err, totp.ErrInvalidOTP)
	})

	t.Run("wrong length code", func(t *testing.T) {
		t.Parallel()
		_, _, err := totp.VerifyAt(secret, "12345", time.Now())
		assert.ErrorIs(t, err, totp.ErrInvalidOTP)
	})

	t.Run("invalid secret", func(t *testing.T) {
		t.Parallel()
		_, _, err := totp.VerifyAt("not-base32!", "123456", time.Now())
		assert.ErrorIs(t, err, totp.ErrInvalidSecret)
	})

	t.Run("wrong code rejected", func(t *testing.T) {
		t.Parallel()
		code, err := totp.GenerateCodeAt(secret, time.Unix(15, 0))
		require.NoError(t, err)
		wrong := "000000"
		if code == wrong {
			wrong = "000001"
		}
		_, ok, err := totp.VerifyAt(secret, wrong, time.Unix(15, 0))
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestVerifyAt_CustomDigits(t *testing.T) {
	t.Parallel()
	secret, err := totp.GenerateSecretKey()
	require.NoError(t, err)

	at := time.Unix(1000, 0)
	code, err := totp.GenerateCodeAt(secret, at, totp.WithDigits(8))
	require.NoError(t, err)
	assert.Len(t, code, 8)

	_, ok, err := totp.VerifyAt(secret, code, at, totp.WithDigits(8))
	require.NoError(t, err)
	assert.True(t, ok)

	// An 8-digit code is rejected outright by a 6-digit verifier.
	_, _, err = totp.VerifyAt(secret, code, at)
	assert.ErrorIs(t, err, totp.ErrInvalidOTP)
}

func TestGenerateHOTP_RFC4226Vectors(t *testing.T) {
	t.Parallel()
	// Appendix D of RFC 4226: secret "12345678901234567890".
	key := []byte("12345678901234567890")
	want := []int{755224, 287082, 359152, 969429, 338314, 254676, 287922, 162583, 399871, 520489}

	for counter, expected := range want {
		assert.Equal(t, expected, totp.GenerateHOTP(key, int64(counter), 6), "counter %d", counter)
	}
}
