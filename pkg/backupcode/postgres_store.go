package backupcode

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/mfakit/pkg/pg"
)

// PostgresStore implements Store on top of the mfa_backup_codes table
// (see migrations). Consumption relies on a conditional UPDATE so the
// single-use guarantee holds across instances.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a backup code store backed by the given pool.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, ErrStoreRequired
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Replace(ctx context.Context, userID string, entries []Entry) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM mfa_backup_codes WHERE user_id = $1`, userID); err != nil {
		return err
	}

	for _, e := range entries {
		_, err := tx.Exec(ctx,
			`INSERT INTO mfa_backup_codes (id, user_id, salt, hash, consumed, created_at)
			 VALUES ($1, $2, $3, $4, false, $5)`,
			e.ID, userID, e.Salt, e.Hash, e.CreatedAt,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (s *PostgresStore) List(ctx context.Context, userID string) ([]Entry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, salt, hash, consumed, consumed_at, created_at
		 FROM mfa_backup_codes
		 WHERE user_id = $1
		 ORDER BY created_at, id`,
		userID,
	)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, nil
		}
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Salt, &e.Hash, &e.Consumed, &e.ConsumedAt, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *PostgresStore) MarkConsumed(ctx context.Context, userID, entryID string, at time.Time) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE mfa_backup_codes
		 SET consumed = true, consumed_at = $3
		 WHERE id = $1 AND user_id = $2 AND consumed = false`,
		entryID, userID, at,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
