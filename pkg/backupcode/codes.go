package backupcode

import (
	"crypto/rand"
	"errors"
	"strings"
)

const (
	// codeAlphabet excludes visually ambiguous characters (0/o, 1/l/i, u/v)
	// so users can reliably transcribe codes from a printout.
	codeAlphabet = "abcdefghjkmnpqrstwxyz23456789"

	groupSize  = 4
	groupCount = 4
)

// Generate creates cryptographically secure single-use recovery codes
// formatted as grouped alphanumerics, e.g. "x7km-2qrt-9wnp-ahj3".
// Plaintext codes are returned exactly once and must not be retained.
func Generate(count int) ([]string, error) {
	if count < 1 {
		return nil, ErrInvalidCodeCount
	}

	codes := make([]string, count)
	for i := range count {
		code, err := generateCode()
		if err != nil {
			return nil, err
		}
		codes[i] = code
	}
	return codes, nil
}

func generateCode() (string, error) {
	chars := make([]byte, groupSize*groupCount)
	for i := range chars {
		c, err := randomChar()
		if err != nil {
			return "", err
		}
		chars[i] = c
	}

	var b strings.Builder
	for i, c := range chars {
		if i > 0 && i%groupSize == 0 {
			b.WriteByte('-')
		}
		b.WriteByte(c)
	}
	return b.String(), nil
}

// randomChar picks an alphabet character via rejection sampling to avoid
// modulo bias.
func randomChar() (byte, error) {
	limit := byte(256 - 256%len(codeAlphabet))
	buf := make([]byte, 1)
	for {
		if _, err := rand.Read(buf); err != nil {
			return 0, errors.Join(ErrFailedToGenerateCode, err)
		}
		if buf[0] < limit {
			return codeAlphabet[int(buf[0])%len(codeAlphabet)], nil
		}
	}
}

// Normalize canonicalizes a user-submitted code: lowercased, with group
// separators and surrounding whitespace stripped.
func Normalize(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	code = strings.ReplaceAll(code, "-", "")
	code = strings.ReplaceAll(code, " ", "")
	return code
}
