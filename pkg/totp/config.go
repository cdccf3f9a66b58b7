package totp

import (
	"github.com/caarlos0/env/v11"
	_ "github.com/joho/godotenv/autoload" // Load .env file automatically
)

// Config holds externally supplied TOTP parameters. Digits, period and skew
// are deployment policy, not product constants, so they are read from the
// environment rather than hard-coded.
type Config struct {
	Digits        int    `env:"TOTP_DIGITS" envDefault:"6"`         // Number of decimal digits per code
	Period        int    `env:"TOTP_PERIOD" envDefault:"30"`        // Time-step length in seconds
	Skew          int    `env:"TOTP_SKEW" envDefault:"1"`           // Accepted adjacent steps in each direction
	EncryptionKey string `env:"TOTP_ENCRYPTION_KEY,required"`       // Base64-encoded AES-256 key for secrets at rest
	Issuer        string `env:"TOTP_ISSUER" envDefault:"mfakit"`    // Issuer shown in authenticator apps
}

// LoadConfig parses the TOTP configuration from environment variables.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.EncryptionKey == "" {
		return Config{}, ErrEncryptionKeyNotSet
	}
	return cfg, nil
}

// Options converts the configured verification parameters into functional
// options accepted by VerifyAt and GenerateCodeAt.
func (c Config) Options() []Option {
	return []Option{
		WithDigits(c.Digits),
		WithPeriod(c.Period),
		WithSkew(c.Skew),
	}
}
