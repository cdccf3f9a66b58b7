package mfa

import (
	"time"

	"github.com/caarlos0/env/v11"
	_ "github.com/joho/godotenv/autoload" // Load .env file automatically
)

// Config holds the orchestrator's lockout and enrollment policy. Thresholds
// and counts are deployment policy supplied from the environment, not
// product constants.
type Config struct {
	MaxFailures     int           `env:"MFA_MAX_FAILURES" envDefault:"5"`        // Consecutive failures before lockout
	FailureWindow   time.Duration `env:"MFA_FAILURE_WINDOW" envDefault:"15m"`    // Rolling window failures are counted in
	LockoutBase     time.Duration `env:"MFA_LOCKOUT_BASE" envDefault:"15m"`      // First lockout duration, doubling per repeat
	LockoutMax      time.Duration `env:"MFA_LOCKOUT_MAX" envDefault:"2h"`        // Upper bound for the doubled lockout
	BackupCodeCount int           `env:"MFA_BACKUP_CODE_COUNT" envDefault:"10"`  // Codes generated per enrollment
	Issuer          string        `env:"MFA_ISSUER" envDefault:"mfakit"`         // Issuer for TOTP provisioning URIs
}

// LoadConfig parses the orchestrator configuration from environment
// variables.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg.withDefaults(), nil
}

func (c Config) withDefaults() Config {
	if c.MaxFailures <= 0 {
		c.MaxFailures = 5
	}
	if c.FailureWindow <= 0 {
		c.FailureWindow = 15 * time.Minute
	}
	if c.LockoutBase <= 0 {
		c.LockoutBase = 15 * time.Minute
	}
	if c.LockoutMax < c.LockoutBase {
		c.LockoutMax = c.LockoutBase
	}
	if c.BackupCodeCount <= 0 {
		c.BackupCodeCount = 10
	}
	if c.Issuer == "" {
		c.Issuer = "mfakit"
	}
	return c
}

// lockoutDuration doubles the base per consecutive lockout, capped.
func (c Config) lockoutDuration(lockouts int) time.Duration {
	d := c.LockoutBase
	for range lockouts {
		d *= 2
		if d >= c.LockoutMax {
			return c.LockoutMax
		}
	}
	return d
}
