package webauthn

import (
	"encoding/base64"
	"encoding/json"
)

// URLEncodedBase64 marshals binary fields as unpadded base64url strings, the
// encoding WebAuthn uses for all binary payloads crossing the JSON boundary.
type URLEncodedBase64 []byte

func (e URLEncodedBase64) MarshalJSON() ([]byte, error) {
	return json.Marshal(base64.RawURLEncoding.EncodeToString(e))
}

func (e *URLEncodedBase64) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	// Tolerate padded input from non-conforming clients.
	decoded, err := base64.RawURLEncoding.DecodeString(trimBase64Padding(s))
	if err != nil {
		return err
	}
	*e = decoded
	return nil
}

func trimBase64Padding(s string) string {
	for len(s) > 0 && s[len(s)-1] == '=' {
		s = s[:len(s)-1]
	}
	return s
}

// PublicKeyCredentialType defines the valid credential types.
type PublicKeyCredentialType string

const (
	PublicKeyCredential PublicKeyCredentialType = "public-key"
)

// COSEAlgorithmIdentifier is a number identifying a cryptographic algorithm
// from the IANA COSE registry.
type COSEAlgorithmIdentifier int

const (
	AlgES256 COSEAlgorithmIdentifier = -7
	AlgEdDSA COSEAlgorithmIdentifier = -8
	AlgRS256 COSEAlgorithmIdentifier = -257
)

// AuthenticatorTransport hints how clients might communicate with an
// authenticator.
type AuthenticatorTransport string

const (
	TransportUSB      AuthenticatorTransport = "usb"
	TransportNFC      AuthenticatorTransport = "nfc"
	TransportBLE      AuthenticatorTransport = "ble"
	TransportInternal AuthenticatorTransport = "internal"
)

// UserVerificationRequirement describes relying party user verification
// requirements.
type UserVerificationRequirement string

const (
	VerificationRequired    UserVerificationRequirement = "required"
	VerificationPreferred   UserVerificationRequirement = "preferred"
	VerificationDiscouraged UserVerificationRequirement = "discouraged"
)

// AttestationConveyancePreference describes how much attestation data the
// relying party wants back from the authenticator.
type AttestationConveyancePreference string

const (
	AttestationNone   AttestationConveyancePreference = "none"
	AttestationDirect AttestationConveyancePreference = "direct"
)

// PublicKeyCredentialRpEntity identifies the relying party.
type PublicKeyCredentialRpEntity struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// PublicKeyCredentialUserEntity identifies the user account a credential is
// bound to. ID is the opaque user handle.
type PublicKeyCredentialUserEntity struct {
	ID          URLEncodedBase64 `json:"id"`
	Name        string           `json:"name"`
	DisplayName string           `json:"displayName"`
}

// PublicKeyCredentialParameters names an acceptable credential algorithm.
type PublicKeyCredentialParameters struct {
	Type PublicKeyCredentialType `json:"type"`
	Alg  COSEAlgorithmIdentifier `json:"alg"`
}

// PublicKeyCredentialDescriptor refers to an existing credential, used for
// exclusion lists at registration and allow lists at authentication.
type PublicKeyCredentialDescriptor struct {
	Type       PublicKeyCredentialType  `json:"type"`
	ID         URLEncodedBase64         `json:"id"`
	Transports []AuthenticatorTransport `json:"transports,omitempty"`
}

// PublicKeyCredentialCreationOptions is handed to navigator.credentials.create.
type PublicKeyCredentialCreationOptions struct {
	RP                 PublicKeyCredentialRpEntity     `json:"rp"`
	User               PublicKeyCredentialUserEntity   `json:"user"`
	Challenge          URLEncodedBase64                `json:"challenge"`
	PubKeyCredParams   []PublicKeyCredentialParameters `json:"pubKeyCredParams"`
	Timeout            int                             `json:"timeout,omitempty"`
	ExcludeCredentials []PublicKeyCredentialDescriptor `json:"excludeCredentials,omitempty"`
	Attestation        AttestationConveyancePreference `json:"attestation,omitempty"`
}

// PublicKeyCredentialRequestOptions is handed to navigator.credentials.get.
type PublicKeyCredentialRequestOptions struct {
	Challenge        URLEncodedBase64                `json:"challenge"`
	Timeout          int                             `json:"timeout,omitempty"`
	RPID             string                          `json:"rpId"`
	AllowCredentials []PublicKeyCredentialDescriptor `json:"allowCredentials,omitempty"`
	UserVerification UserVerificationRequirement     `json:"userVerification,omitempty"`
}

// CollectedClientData is the client's contextual binding of a ceremony: the
// serialized form is what the authenticator signs over, so the relying party
// validates type, challenge echo and origin from here.
type CollectedClientData struct {
	Type        string `json:"type"`
	Challenge   string `json:"challenge"`
	Origin      string `json:"origin"`
	CrossOrigin bool   `json:"crossOrigin,omitempty"`
}

const (
	clientDataTypeCreate = "webauthn.create"
	clientDataTypeGet    = "webauthn.get"
)

// AuthenticatorAttestationResponse carries the outcome of a registration
// ceremony from the client.
type AuthenticatorAttestationResponse struct {
	ClientDataJSON    URLEncodedBase64 `json:"clientDataJSON"`
	AttestationObject URLEncodedBase64 `json:"attestationObject"`
}

// RegistrationResponse is the public key credential returned by
// navigator.credentials.create.
type RegistrationResponse struct {
	ID       string                           `json:"id"`
	RawID    URLEncodedBase64                 `json:"rawId"`
	Type     PublicKeyCredentialType          `json:"type"`
	Response AuthenticatorAttestationResponse `json:"response"`
}

// AuthenticatorAssertionResponse carries the outcome of an authentication
// ceremony from the client.
type AuthenticatorAssertionResponse struct {
	ClientDataJSON    URLEncodedBase64 `json:"clientDataJSON"`
	AuthenticatorData URLEncodedBase64 `json:"authenticatorData"`
	Signature         URLEncodedBase64 `json:"signature"`
	UserHandle        URLEncodedBase64 `json:"userHandle,omitempty"`
}

// AssertionResponse is the public key credential returned by
// navigator.credentials.get.
type AssertionResponse struct {
	ID       string                         `json:"id"`
	RawID    URLEncodedBase64               `json:"rawId"`
	Type     PublicKeyCredentialType        `json:"type"`
	Response AuthenticatorAssertionResponse `json:"response"`
}
