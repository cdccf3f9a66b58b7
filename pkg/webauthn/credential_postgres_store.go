package webauthn

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/mfakit/pkg/pg"
)

// PostgresCredentialStore implements CredentialStore on top of the
// webauthn_credentials table (see migrations). Duplicate registration is
// enforced by the primary key on (relying_party_id, credential_id).
type PostgresCredentialStore struct {
	pool *pgxpool.Pool
}

// NewPostgresCredentialStore creates a credential store backed by the pool.
func NewPostgresCredentialStore(pool *pgxpool.Pool) (*PostgresCredentialStore, error) {
	if pool == nil {
		return nil, ErrStoreRequired
	}
	return &PostgresCredentialStore{pool: pool}, nil
}

func (s *PostgresCredentialStore) Create(ctx context.Context, c Credential) error {
	transports := make([]string, len(c.Transports))
	for i, t := range c.Transports {
		transports[i] = string(t)
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO webauthn_credentials
		 (credential_id, relying_party_id, user_id, user_handle, public_key, sign_count, transports, disabled, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)`,
		c.CredentialID, c.RelyingPartyID, c.UserID, c.UserHandle, c.PublicKey, int64(c.SignCount), transports, c.Disabled, c.CreatedAt,
	)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return ErrCredentialExists
		}
		return err
	}
	return nil
}

func (s *PostgresCredentialStore) GetByID(ctx context.Context, rpID string, credentialID []byte) (Credential, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT credential_id, relying_party_id, user_id, user_handle, public_key, sign_count, transports, disabled, created_at, updated_at
		 FROM webauthn_credentials
		 WHERE relying_party_id = $1 AND credential_id = $2`,
		rpID, credentialID,
	)
	return scanCredential(row)
}

func (s *PostgresCredentialStore) ListByUser(ctx context.Context, rpID, userID string) ([]Credential, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT credential_id, relying_party_id, user_id, user_handle, public_key, sign_count, transports, disabled, created_at, updated_at
		 FROM webauthn_credentials
		 WHERE relying_party_id = $1 AND user_id = $2
		 ORDER BY created_at`,
		rpID, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Credential
	for rows.Next() {
		c, err := scanCredential(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresCredentialStore) UpdateSignCount(ctx context.Context, rpID string, credentialID []byte, signCount uint32) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE webauthn_credentials
		 SET sign_count = $3, updated_at = $4
		 WHERE relying_party_id = $1 AND credential_id = $2`,
		rpID, credentialID, int64(signCount), time.Now(),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCredentialNotFound
	}
	return nil
}

func (s *PostgresCredentialStore) Disable(ctx context.Context, rpID string, credentialID []byte) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE webauthn_credentials
		 SET disabled = true, updated_at = $3
		 WHERE relying_party_id = $1 AND credential_id = $2`,
		rpID, credentialID, time.Now(),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCredentialNotFound
	}
	return nil
}

func scanCredential(row pgx.Row) (Credential, error) {
	var c Credential
	var signCount int64
	var transports []string
	err := row.Scan(&c.CredentialID, &c.RelyingPartyID, &c.UserID, &c.UserHandle, &c.PublicKey, &signCount, &transports, &c.Disabled, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return Credential{}, ErrCredentialNotFound
		}
		return Credential{}, err
	}
	c.SignCount = uint32(signCount)
	c.Transports = make([]AuthenticatorTransport, len(transports))
	for i, t := range transports {
		c.Transports[i] = AuthenticatorTransport(t)
	}
	return c, nil
}
