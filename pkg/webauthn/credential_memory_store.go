package webauthn

import (
	"context"
	"encoding/base64"
	"sync"
	"time"
)

// MemoryCredentialStore implements CredentialStore with in-process state.
type MemoryCredentialStore struct {
	mu    sync.Mutex
	creds map[string]Credential // key: rpID + "/" + base64(credentialID)
}

// NewMemoryCredentialStore creates an empty in-memory credential store.
func NewMemoryCredentialStore() *MemoryCredentialStore {
	return &MemoryCredentialStore{creds: make(map[string]Credential)}
}

func credentialKey(rpID string, credentialID []byte) string {
	return rpID + "/" + base64.RawStdEncoding.EncodeToString(credentialID)
}

func (s *MemoryCredentialStore) Create(_ context.Context, credential Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := credentialKey(credential.RelyingPartyID, credential.CredentialID)
	if _, exists := s.creds[key]; exists {
		return ErrCredentialExists
	}
	s.creds[key] = credential
	return nil
}

func (s *MemoryCredentialStore) GetByID(_ context.Context, rpID string, credentialID []byte) (Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	credential, ok := s.creds[credentialKey(rpID, credentialID)]
	if !ok {
		return Credential{}, ErrCredentialNotFound
	}
	return credential, nil
}

func (s *MemoryCredentialStore) ListByUser(_ context.Context, rpID, userID string) ([]Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Credential
	for _, credential := range s.creds {
		if credential.RelyingPartyID == rpID && credential.UserID == userID {
			out = append(out, credential)
		}
	}
	return out, nil
}

func (s *MemoryCredentialStore) UpdateSignCount(_ context.Context, rpID string, credentialID []byte, signCount uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := credentialKey(rpID, credentialID)
	credential, ok := s.creds[key]
	if !ok {
		return ErrCredentialNotFound
	}
	credential.SignCount = signCount
	credential.UpdatedAt = time.Now()
	s.creds[key] = credential
	return nil
}

func (s *MemoryCredentialStore) Disable(_ context.Context, rpID string, credentialID []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := credentialKey(rpID, credentialID)
	credential, ok := s.creds[key]
	if !ok {
		return ErrCredentialNotFound
	}
	credential.Disabled = true
	credential.UpdatedAt = time.Now()
	s.creds[key] = credential
	return nil
}
