// Package redis connects the shared-state stores to a Redis server: the
// WebAuthn challenge store and the attempt state store both ride on the
// client this package produces.
//
// Config fields are populated from environment variables via
// github.com/caarlos0/env. Connect retries until the server answers:
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	challenges, err := webauthn.NewRedisChallengeStore(client)
//	attempts, err := mfa.NewRedisAttemptStore(client, 24*time.Hour)
//
// Healthcheck returns a probe closure for readiness endpoints. Sentinel
// errors wrap the go-redis originals with errors.Join so callers can match
// either layer.
package redis
