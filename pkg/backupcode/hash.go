package backupcode

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"errors"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltSize = 16

	// hashIterations is deliberately moderate: recovery codes carry far more
	// entropy than passwords, and verification must scan every unconsumed
	// entry in a set.
	hashIterations = 10_000

	hashSize = 32
)

// HashCode derives a salted one-way hash of a normalized code for storage.
func HashCode(code string, salt []byte) []byte {
	return pbkdf2.Key([]byte(Normalize(code)), salt, hashIterations, hashSize, sha256.New)
}

// NewSalt returns a fresh random per-code salt.
func NewSalt() ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, errors.Join(ErrFailedToGenerateCode, err)
	}
	return salt, nil
}

// VerifyCode reports whether the submitted code matches the stored hash.
// Comparison time does not depend on where the hashes differ.
func VerifyCode(code string, salt, hash []byte) bool {
	computed := HashCode(code, salt)
	return subtle.ConstantTimeCompare(computed, hash) == 1
}
