package totp_test

import (
	"testing"

	"github.com/dmitrymomot/mfakit/pkg/totp"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptSecret(t *testing.T) {
	t.Parallel()
	key, err := totp.GenerateEncryptionKey()
	require.NoError(t, err)

	secret, err := totp.GenerateSecretKey()
	require.NoError(t, err)

	encrypted, err := totp.EncryptSecret(secret, key)
	require.NoError(t, err)
	assert.NotEqual(t, secret, encrypted)

	decrypted, err := totp.DecryptSecret(encrypted, key)
	require.NoError(t, err)
	assert.Equal(t, secret, decrypted)
}

func TestEncryptSecret_InvalidKeyLength(t *testing.T) {
	t.Parallel()
	_, err := totp.EncryptSecret("secret", []byte("short"))
	assert.ErrorIs(t, err, totp.ErrInvalidEncryptionKeyLength)
}

func TestDecryptSecret_Tampered(t *testing.T) {
	t.Parallel()
	key, err := totp.GenerateEncryptionKey()
	require.NoError(t, err)

	encrypted, err := totp.EncryptSecret("super-secret", key)
	require.NoError(t, err)

	// Flip the first character of the base64 payload.
	tampered := "A" + encrypted[1:]
	if tampered == encrypted {
		tampered = "B" + encrypted[1:]
	}

	_, err = totp.DecryptSecret(tampered, key)
	assert.ErrorIs(t, err, totp.ErrFailedToDecryptSecret)
}

func TestDecryptSecret_WrongKey(t *testing.T) {
	t.Parallel()
	key1, err := totp.GenerateEncryptionKey()
	require.NoError(t, err)
	key2, err := totp.GenerateEncryptionKey()
	require.NoError(t, err)

	encrypted, err := totp.EncryptSecret("super-secret", key1)
	require.NoError(t, err)

	_, err = totp.DecryptSecret(encrypted, key2)
	assert.ErrorIs(t, err, totp.ErrFailedToDecryptSecret)
}

func TestKeyFromConfig(t *testing.T) {
	t.Parallel()

	t.Run("valid key", func(t *testing.T) {
		t.Parallel()
		encoded, err := totp.GenerateEncodedEncryptionKey()
		require.NoError(t, err)

		key, err := totp.KeyFromConfig(totp.Config{EncryptionKey: encoded})
		require.NoError(t, err)
		assert.Len(t, key, totp.AESKeySize)
	})

	t.Run("missing key", func(t *testing.T) {
		t.Parallel()
		_, err := totp.KeyFromConfig(totp.Config{})
		assert.ErrorIs(t, err, totp.ErrEncryptionKeyNotSet)
	})

	t.Run("wrong length", func(t *testing.T) {
		t.Parallel()
		_, err := totp.KeyFromConfig(totp.Config{EncryptionKey: "c2hvcnQ="})
		assert.ErrorIs(t, err, totp.ErrInvalidEncryptionKeyLength)
	})
}
