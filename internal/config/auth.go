package config

import (
	"fmt"
	"os"
	"time"
)

const (
	EnvAuthMode         = "VERISTAMP_AUTH_MODE"
	EnvAuthSigningKey   = "VERISTAMP_AUTH_SIGNING_KEY"
	EnvAuthTokenTTL     = "VERISTAMP_AUTH_TOKEN_TTL"
	EnvAuthOIDCIssuer   = "VERISTAMP_AUTH_OIDC_ISSUER"
	EnvAuthOIDCClientID = "VERISTAMP_AUTH_OIDC_CLIENT_ID"
)

// AuthConfig holds bearer-token verification settings. Mode "local" signs
// and verifies HS256 tokens with SigningKey; mode "oidc" verifies id tokens
// against an external provider.
type AuthConfig struct {
	Mode         string `toml:"mode"`
	SigningKey   string `toml:"signing_key"`
	TokenTTL     string `toml:"token_ttl"`
	OIDCIssuer   string `toml:"oidc_issuer"`
	OIDCClientID string `toml:"oidc_client_id"`
}

// TokenTTLDuration returns TokenTTL as a time.Duration.
func (c *AuthConfig) TokenTTLDuration() time.Duration {
	d, _ := time.ParseDuration(c.TokenTTL)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *AuthConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *AuthConfig) Merge(overlay *AuthConfig) {
	if overlay.Mode != "" {
		c.Mode = overlay.Mode
	}
	if overlay.SigningKey != "" {
		c.SigningKey = overlay.SigningKey
	}
	if overlay.TokenTTL != "" {
		c.TokenTTL = overlay.TokenTTL
	}
	if overlay.OIDCIssuer != "" {
		c.OIDCIssuer = overlay.OIDCIssuer
	}
	if overlay.OIDCClientID != "" {
		c.OIDCClientID = overlay.OIDCClientID
	}
}

func (c *AuthConfig) loadDefaults() {
	if c.Mode == "" {
		c.Mode = "local"
	}
	if c.TokenTTL == "" {
		c.TokenTTL = "24h"
	}
}

func (c *AuthConfig) loadEnv() {
	if v := os.Getenv(EnvAuthMode); v != "" {
		c.Mode = v
	}
	if v := os.Getenv(EnvAuthSigningKey); v != "" {
		c.SigningKey = v
	}
	if v := os.Getenv(EnvAuthTokenTTL); v != "" {
		c.TokenTTL = v
	}
	if v := os.Getenv(EnvAuthOIDCIssuer); v != "" {
		c.OIDCIssuer = v
	}
	if v := os.Getenv(EnvAuthOIDCClientID); v != "" {
		c.OIDCClientID = v
	}
}

func (c *AuthConfig) validate() error {
	switch c.Mode {
	case "local":
		if c.SigningKey == "" {
			return fmt.Errorf("signing_key required for local auth")
		}
	case "oidc":
		if c.OIDCIssuer == "" {
			return fmt.Errorf("oidc_issuer required for oidc auth")
		}
		if c.OIDCClientID == "" {
			return fmt.Errorf("oidc_client_id required for oidc auth")
		}
	default:
		return fmt.Errorf("unknown auth mode: %q", c.Mode)
	}
	if _, err := time.ParseDuration(c.TokenTTL); err != nil {
		return fmt.Errorf("invalid token_ttl: %w", err)
	}
	return nil
}
