package webauthn

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rsa"
	"crypto/sha256"
	"errors"
	"math/big"

	"github.com/fxamacker/cbor/v2"
)

// COSE key type values from RFC 9052.
const (
	coseKeyTypeOKP = 1
	coseKeyTypeEC2 = 2
	coseKeyTypeRSA = 3
)

// COSE elliptic curve identifiers.
const (
	coseCurveP256    = 1
	coseCurveEd25519 = 6
)

// coseKey mirrors the integer-labeled COSE_Key map layout. Labels -1..-3 are
// overloaded per key type: crv/x/y for EC2, crv/x for OKP, n/e for RSA.
type coseKey struct {
	KeyType   int             `cbor:"1,keyasint"`
	Algorithm int             `cbor:"3,keyasint"`
	CurveOrN  cbor.RawMessage `cbor:"-1,keyasint,omitempty"`
	XOrE      cbor.RawMessage `cbor:"-2,keyasint,omitempty"`
	Y         cbor.RawMessage `cbor:"-3,keyasint,omitempty"`
}

// PublicKey is a parsed credential public key ready for signature
// verification.
type PublicKey struct {
	Algorithm COSEAlgorithmIdentifier
	Key       crypto.PublicKey
}

// ParsePublicKey decodes a raw COSE_Key map into a verification key.
// Supported algorithms: ES256 (P-256), EdDSA (Ed25519) and RS256.
func ParsePublicKey(raw []byte) (*PublicKey, error) {
	var k coseKey
	if err := cbor.Unmarshal(raw, &k); err != nil {
		return nil, errors.Join(ErrInvalidPublicKey, err)
	}

	alg := COSEAlgorithmIdentifier(k.Algorithm)

	switch k.KeyType {
	case coseKeyTypeEC2:
		if alg != AlgES256 {
			return nil, ErrUnsupportedAlgorithm
		}
		var curve int
		if err := cbor.Unmarshal(k.CurveOrN, &curve); err != nil || curve != coseCurveP256 {
			return nil, ErrUnsupportedAlgorithm
		}
		x, err := coseBytes(k.XOrE)
		if err != nil {
			return nil, err
		}
		y, err := coseBytes(k.Y)
		if err != nil {
			return nil, err
		}
		pub := &ecdsa.PublicKey{
			Curve: elliptic.P256(),
			X:     new(big.Int).SetBytes(x),
			Y:     new(big.Int).SetBytes(y),
		}
		if !pub.Curve.IsOnCurve(pub.X, pub.Y) {
			return nil, ErrInvalidPublicKey
		}
		return &PublicKey{Algorithm: alg, Key: pub}, nil

	case coseKeyTypeOKP:
		if alg != AlgEdDSA {
			return nil, ErrUnsupportedAlgorithm
		}
		var curve int
		if err := cbor.Unmarshal(k.CurveOrN, &curve); err != nil || curve != coseCurveEd25519 {
			return nil, ErrUnsupportedAlgorithm
		}
		x, err := coseBytes(k.XOrE)
		if err != nil {
			return nil, err
		}
		if len(x) != ed25519.PublicKeySize {
			return nil, ErrInvalidPublicKey
		}
		return &PublicKey{Algorithm: alg, Key: ed25519.PublicKey(x)}, nil

	case coseKeyTypeRSA:
		if alg != AlgRS256 {
			return nil, ErrUnsupportedAlgorithm
		}
		n, err := coseBytes(k.CurveOrN)
		if err != nil {
			return nil, err
		}
		e, err := coseBytes(k.XOrE)
		if err != nil {
			return nil, err
		}
		pub := &rsa.PublicKey{
			N: new(big.Int).SetBytes(n),
			E: int(new(big.Int).SetBytes(e).Int64()),
		}
		if pub.E < 3 || pub.N.BitLen() < 2048 {
			return nil, ErrInvalidPublicKey
		}
		return &PublicKey{Algorithm: alg, Key: pub}, nil
	}

	return nil, ErrUnsupportedAlgorithm
}

func coseBytes(raw cbor.RawMessage) ([]byte, error) {
	if raw == nil {
		return nil, ErrInvalidPublicKey
	}
	var b []byte
	if err := cbor.Unmarshal(raw, &b); err != nil {
		return nil, errors.Join(ErrInvalidPublicKey, err)
	}
	return b, nil
}

// Verify checks a WebAuthn signature over the given message. ES256 and RS256
// sign a SHA-256 digest; Ed25519 signs the raw message.
func (p *PublicKey) Verify(message, signature []byte) error {
	switch key := p.Key.(type) {
	case *ecdsa.PublicKey:
		digest := sha256.Sum256(message)
		if !ecdsa.VerifyASN1(key, digest[:], signature) {
			return ErrSignatureInvalid
		}
		return nil
	case ed25519.PublicKey:
		if !ed25519.Verify(key, message, signature) {
			return ErrSignatureInvalid
		}
		return nil
	case *rsa.PublicKey:
		digest := sha256.Sum256(message)
		if err := rsa.VerifyPKCS1v15(key, crypto.SHA256, digest[:], signature); err != nil {
			return ErrSignatureInvalid
		}
		return nil
	}
	return ErrUnsupportedAlgorithm
}
