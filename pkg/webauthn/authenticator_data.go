package webauthn

import (
	"encoding/binary"
	"errors"

	"github.com/fxamacker/cbor/v2"
)

// Authenticator data flag bits.
const (
	flagUserPresent            = byte(1)
	flagUserVerified           = byte(1 << 2)
	flagAttestedCredentialData = byte(1 << 6)
	flagExtensionData          = byte(1 << 7)
)

const (
	rpIDHashLength  = 32
	minAuthDataSize = rpIDHashLength + 1 + 4
	aaguidLength    = 16
)

// AuthenticatorData is the parsed binary structure the authenticator signs
// over: the relying party binding, state flags, the signature counter and,
// during registration, the attested credential.
type AuthenticatorData struct {
	RPIDHash  []byte
	Flags     byte
	SignCount uint32

	// AttestedCredential is only present when the attested credential data
	// flag is set (registration ceremonies).
	AttestedCredential *AttestedCredentialData
}

// AttestedCredentialData carries the newly created credential.
type AttestedCredentialData struct {
	AAGUID       []byte
	CredentialID []byte

	// PublicKey holds the credential public key in raw COSE form, exactly as
	// received; it is persisted verbatim and re-parsed at assertion time.
	PublicKey []byte
}

// UserPresent reports whether the user presence test succeeded.
func (a *AuthenticatorData) UserPresent() bool {
	return a.Flags&flagUserPresent != 0
}

// UserVerified reports whether the authenticator verified the user
// (biometric, PIN).
func (a *AuthenticatorData) UserVerified() bool {
	return a.Flags&flagUserVerified != 0
}

// ParseAuthenticatorData decodes the binary authenticator data layout:
// rpIdHash (32) | flags (1) | signCount (4, big-endian) | attested credential
// data when flagged | extensions when flagged.
func ParseAuthenticatorData(raw []byte) (*AuthenticatorData, error) {
	if len(raw) < minAuthDataSize {
		return nil, errors.Join(ErrInvalidAuthenticatorData, errors.New("too short"))
	}

	data := &AuthenticatorData{
		RPIDHash:  raw[:rpIDHashLength],
		Flags:     raw[rpIDHashLength],
		SignCount: binary.BigEndian.Uint32(raw[rpIDHashLength+1 : minAuthDataSize]),
	}

	rest := raw[minAuthDataSize:]

	if data.Flags&flagAttestedCredentialData != 0 {
		attested, remaining, err := parseAttestedCredentialData(rest)
		if err != nil {
			return nil, err
		}
		data.AttestedCredential = attested
		rest = remaining
	}

	if data.Flags&flagExtensionData != 0 {
		var extensions cbor.RawMessage
		remaining, err := cbor.UnmarshalFirst(rest, &extensions)
		if err != nil {
			return nil, errors.Join(ErrInvalidAuthenticatorData, err)
		}
		rest = remaining
	}

	if len(rest) != 0 {
		return nil, errors.Join(ErrInvalidAuthenticatorData, errors.New("trailing bytes"))
	}

	return data, nil
}

func parseAttestedCredentialData(raw []byte) (*AttestedCredentialData, []byte, error) {
	if len(raw) < aaguidLength+2 {
		return nil, nil, errors.Join(ErrInvalidAuthenticatorData, errors.New("attested credential data too short"))
	}

	aaguid := raw[:aaguidLength]
	idLen := int(binary.BigEndian.Uint16(raw[aaguidLength : aaguidLength+2]))
	raw = raw[aaguidLength+2:]

	if idLen == 0 || len(raw) < idLen {
		return nil, nil, errors.Join(ErrInvalidAuthenticatorData, errors.New("credential id length out of range"))
	}
	credentialID := raw[:idLen]
	raw = raw[idLen:]

	// The public key is a CBOR map of indeterminate byte length; decode one
	// item to find where it ends and keep its raw encoding for storage.
	var key cbor.RawMessage
	rest, err := cbor.UnmarshalFirst(raw, &key)
	if err != nil {
		return nil, nil, errors.Join(ErrInvalidAuthenticatorData, err)
	}

	return &AttestedCredentialData{
		AAGUID:       aaguid,
		CredentialID: credentialID,
		PublicKey:    []byte(key),
	}, rest, nil
}
