package webauthn

import (
	"time"

	"github.com/caarlos0/env/v11"
	_ "github.com/joho/godotenv/autoload" // Load .env file automatically
)

// Config holds the relying party identity and ceremony policy.
type Config struct {
	RPID          string        `env:"WEBAUTHN_RP_ID,required"`                  // Relying party id, a registrable domain suffix of the origins
	RPDisplayName string        `env:"WEBAUTHN_RP_DISPLAY_NAME" envDefault:""`   // Human-readable relying party name
	RPOrigins     []string      `env:"WEBAUTHN_RP_ORIGINS,required"`             // Allowed client origins, comma-separated
	ChallengeTTL  time.Duration `env:"WEBAUTHN_CHALLENGE_TTL" envDefault:"5m"`   // Ceremony challenge lifetime
	Timeout       time.Duration `env:"WEBAUTHN_CEREMONY_TIMEOUT" envDefault:"1m"` // Client-side timeout hint in credential options
}

// LoadConfig parses the WebAuthn configuration from environment variables.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// Validate ensures the relying party identity is usable.
func (c Config) Validate() error {
	if c.RPID == "" || len(c.RPOrigins) == 0 {
		return ErrConfigInvalid
	}
	if c.ChallengeTTL <= 0 {
		return ErrConfigInvalid
	}
	return nil
}
