package mfa

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/mfakit/pkg/pg"
)

// ErrSecretNotFound is returned when no factor secret is enrolled for the
// user and kind.
var ErrSecretNotFound = errors.New("factor secret not found")

// SecretStore persists factor secrets keyed by user and factor kind. Values
// are stored as handed over; callers encrypt before Put and decrypt after
// Get, so plaintext secrets never reach the store.
type SecretStore interface {
	Get(ctx context.Context, userID string, kind FactorKind) (string, error)
	Put(ctx context.Context, userID string, kind FactorKind, secret string) error

	// Delete destroys the secret, honoring factor removal.
	Delete(ctx context.Context, userID string, kind FactorKind) error
}

// MemorySecretStore implements SecretStore with in-process state.
type MemorySecretStore struct {
	mu      sync.Mutex
	secrets map[string]string
}

// NewMemorySecretStore creates an empty in-memory secret store.
func NewMemorySecretStore() *MemorySecretStore {
	return &MemorySecretStore{secrets: make(map[string]string)}
}

func secretKey(userID string, kind FactorKind) string {
	return userID + "/" + string(kind)
}

func (s *MemorySecretStore) Get(_ context.Context, userID string, kind FactorKind) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	secret, ok := s.secrets[secretKey(userID, kind)]
	if !ok {
		return "", ErrSecretNotFound
	}
	return secret, nil
}

func (s *MemorySecretStore) Put(_ context.Context, userID string, kind FactorKind, secret string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.secrets[secretKey(userID, kind)] = secret
	return nil
}

func (s *MemorySecretStore) Delete(_ context.Context, userID string, kind FactorKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.secrets, secretKey(userID, kind))
	return nil
}

// PostgresSecretStore implements SecretStore on top of the
// mfa_factor_secrets table (see migrations).
type PostgresSecretStore struct {
	pool *pgxpool.Pool
}

// NewPostgresSecretStore creates a secret store backed by the given pool.
func NewPostgresSecretStore(pool *pgxpool.Pool) (*PostgresSecretStore, error) {
	if pool == nil {
		return nil, ErrStoreRequired
	}
	return &PostgresSecretStore{pool: pool}, nil
}

func (s *PostgresSecretStore) Get(ctx context.Context, userID string, kind FactorKind) (string, error) {
	var secret string
	err := s.pool.QueryRow(ctx,
		`SELECT secret FROM mfa_factor_secrets WHERE user_id = $1 AND factor_kind = $2`,
		userID, string(kind),
	).Scan(&secret)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return "", ErrSecretNotFound
		}
		return "", err
	}
	return secret, nil
}

func (s *PostgresSecretStore) Put(ctx context.Context, userID string, kind FactorKind, secret string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO mfa_factor_secrets (user_id, factor_kind, secret, created_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id, factor_kind) DO UPDATE SET secret = EXCLUDED.secret`,
		userID, string(kind), secret, time.Now(),
	)
	return err
}

func (s *PostgresSecretStore) Delete(ctx context.Context, userID string, kind FactorKind) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM mfa_factor_secrets WHERE user_id = $1 AND factor_kind = $2`,
		userID, string(kind),
	)
	return err
}
