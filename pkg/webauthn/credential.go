package webauthn

import (
	"context"
	"time"
)

// Credential is a registered public key credential record. PublicKey holds
// the raw COSE key exactly as attested at registration.
type Credential struct {
	CredentialID   []byte
	UserID         string
	UserHandle     []byte
	PublicKey      []byte
	RelyingPartyID string
	SignCount      uint32
	Transports     []AuthenticatorTransport
	Disabled       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Descriptor returns the credential's descriptor for allow/exclude lists.
func (c Credential) Descriptor() PublicKeyCredentialDescriptor {
	return PublicKeyCredentialDescriptor{
		Type:       PublicKeyCredential,
		ID:         URLEncodedBase64(c.CredentialID),
		Transports: c.Transports,
	}
}

// CredentialStore persists registered credentials keyed by credential id and
// indexed by user within a relying party.
type CredentialStore interface {
	// Create inserts a new credential. Returns ErrCredentialExists when the
	// credential id is already registered for the relying party.
	Create(ctx context.Context, credential Credential) error

	// GetByID looks a credential up by its opaque id within a relying party.
	GetByID(ctx context.Context, rpID string, credentialID []byte) (Credential, error)

	// ListByUser returns all credentials of a user within a relying party.
	ListByUser(ctx context.Context, rpID, userID string) ([]Credential, error)

	// UpdateSignCount stores the counter observed on a verified assertion.
	UpdateSignCount(ctx context.Context, rpID string, credentialID []byte, signCount uint32) error

	// Disable flags a credential so it is refused at authentication. Used
	// when a sign count regression suggests key extraction.
	Disable(ctx context.Context, rpID string, credentialID []byte) error
}
