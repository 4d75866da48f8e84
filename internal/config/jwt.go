package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
)

// JWTConfig holds configuration for the stub login token.
type JWTConfig struct {
	Secret          string `env:"JWT_SECRET"`
	ExpirationHours int    `env:"JWT_EXPIRATION_HOURS" envDefault:"24"`
}

// NewJWTConfig creates a new JWT configuration from environment variables.
// It reads JWT_SECRET (required) and JWT_EXPIRATION_HOURS (default: 24).
func NewJWTConfig() (*JWTConfig, error) {
	var cfg JWTConfig
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("invalid JWT settings: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// EphemeralJWTConfig returns a config with a random per-process secret.
// It is used when auth is disabled and JWT_SECRET is unset, so /login keeps
// working but tokens do not survive a restart.
func EphemeralJWTConfig() *JWTConfig {
	return &JWTConfig{
		Secret:          uuid.NewString() + uuid.NewString(),
		ExpirationHours: 24,
	}
}

// normalize validates the configuration.
func (c *JWTConfig) normalize() error {
	if c.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required but not set")
	}
	if c.ExpirationHours < 1 {
		return fmt.Errorf("JWT_EXPIRATION_HOURS must be at least 1 hour, got: %d", c.ExpirationHours)
	}
	return nil
}
