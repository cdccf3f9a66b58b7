package webauthn

import (
	"errors"

	"github.com/fxamacker/cbor/v2"
)

// AttestationObject is the CBOR envelope returned from a registration
// ceremony: the authenticator data, the attestation format name and the
// format-specific statement.
type AttestationObject struct {
	Format    string          `cbor:"fmt"`
	AuthData  []byte          `cbor:"authData"`
	Statement cbor.RawMessage `cbor:"attStmt"`
}

// ParseAttestationObject decodes the raw attestation object bytes.
func ParseAttestationObject(raw []byte) (*AttestationObject, error) {
	var obj AttestationObject
	if err := cbor.Unmarshal(raw, &obj); err != nil {
		return nil, errors.Join(ErrInvalidAttestationObject, err)
	}
	if obj.Format == "" || len(obj.AuthData) == 0 {
		return nil, ErrInvalidAttestationObject
	}
	return &obj, nil
}

// AttestationVerifier validates the trustworthiness of an attestation
// statement for one format. Ceremony logic stays format-agnostic; supporting
// a new format means registering another verifier, and transport-level
// certificate chain validation lives entirely behind this interface.
type AttestationVerifier interface {
	// Format returns the attestation statement format identifier this
	// verifier handles, e.g. "none" or "packed".
	Format() string

	// Verify checks the statement against the signed data. The credential
	// public key is the one embedded in the attested credential data.
	Verify(statement cbor.RawMessage, rawAuthData, clientDataHash []byte, key *PublicKey) error
}

// NoneAttestationVerifier accepts the "none" format: no trust information is
// conveyed and the statement must be empty.
type NoneAttestationVerifier struct{}

func (NoneAttestationVerifier) Format() string { return "none" }

func (NoneAttestationVerifier) Verify(statement cbor.RawMessage, _, _ []byte, _ *PublicKey) error {
	var m map[string]cbor.RawMessage
	if err := cbor.Unmarshal(statement, &m); err != nil {
		return errors.Join(ErrInvalidAttestationObject, err)
	}
	if len(m) != 0 {
		return errors.Join(ErrInvalidAttestationObject, errors.New(`"none" statement must be empty`))
	}
	return nil
}

// packedStatement mirrors the "packed" attestation statement layout.
type packedStatement struct {
	Algorithm int      `cbor:"alg"`
	Signature []byte   `cbor:"sig"`
	X5C       [][]byte `cbor:"x5c,omitempty"`
}

// PackedSelfAttestationVerifier handles "packed" self attestation, where the
// statement is signed with the freshly created credential key itself.
// Statements carrying an x5c certificate chain are refused: chain validation
// requires a verifier with access to attestation root trust anchors.
type PackedSelfAttestationVerifier struct{}

func (PackedSelfAttestationVerifier) Format() string { return "packed" }

func (PackedSelfAttestationVerifier) Verify(statement cbor.RawMessage, rawAuthData, clientDataHash []byte, key *PublicKey) error {
	var stmt packedStatement
	if err := cbor.Unmarshal(statement, &stmt); err != nil {
		return errors.Join(ErrInvalidAttestationObject, err)
	}
	if len(stmt.X5C) > 0 {
		return ErrUnsupportedAttestation
	}
	if COSEAlgorithmIdentifier(stmt.Algorithm) != key.Algorithm {
		return errors.Join(ErrInvalidAttestationObject, errors.New("statement algorithm does not match credential key"))
	}

	signed := make([]byte, 0, len(rawAuthData)+len(clientDataHash))
	signed = append(signed, rawAuthData...)
	signed = append(signed, clientDataHash...)
	return key.Verify(signed, stmt.Signature)
}
