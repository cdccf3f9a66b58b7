package main

import (
	"fmt"
	"log"

	"github.com/dmitrymomot/mfakit/pkg/totp"
)

// Generates a base64-encoded AES-256 key for the TOTP_ENCRYPTION_KEY env var.
func main() {
	encodedKey, err := totp.GenerateEncodedEncryptionKey()
	if err != nil {
		log.Fatalf("failed to generate encryption key: %v", err)
	}

	fmt.Printf("TOTP_ENCRYPTION_KEY=%s\n", encodedKey)
}
