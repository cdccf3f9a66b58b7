// Package pg bootstraps the PostgreSQL layer behind the persistent factor
// stores: pooled connections via pgx/v5, schema migrations via goose/v3, and
// a health check closure for readiness probes.
//
// Config is populated from environment variables via github.com/caarlos0/env.
// Connect retries until the database is reachable, and Migrate brings the
// schema up to date before any store touches it:
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, cfg, slog.Default()); err != nil {
//	    return err
//	}
//
//	secrets, err := mfa.NewPostgresSecretStore(pool)
//	codes, err := backupcode.NewPostgresStore(pool)
//	creds, err := webauthn.NewPostgresCredentialStore(pool)
//
// IsNotFoundError and IsDuplicateKeyError classify pgx errors so store code
// does not inspect SQLSTATE values inline.
package pg
