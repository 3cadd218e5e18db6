package identity

import (
	"github.com/caarlos0/env/v11"
	"github.com/goliatone/go-errors"
)

// SimpleConfig is a Config implementation loadable from the environment.
// It is read once at process start and never mutated at runtime.
type SimpleConfig struct {
	SigningKey      string   `env:"IDENTITY_SIGNING_KEY"`
	SigningMethod   string   `env:"IDENTITY_SIGNING_METHOD" envDefault:"HS256"`
	ContextKey      string   `env:"IDENTITY_CONTEXT_KEY" envDefault:"user"`
	TokenExpiration int      `env:"IDENTITY_TOKEN_EXPIRATION" envDefault:"30"`
	Issuer          string   `env:"IDENTITY_ISSUER"`
	Audience        []string `env:"IDENTITY_AUDIENCE" envSeparator:","`
	TokenLookup     string   `env:"IDENTITY_TOKEN_LOOKUP" envDefault:"header:Authorization"`
	AuthScheme      string   `env:"IDENTITY_AUTH_SCHEME" envDefault:"Bearer"`
	MaxPageSize     int      `env:"IDENTITY_MAX_PAGE_SIZE" envDefault:"100"`
}

var _ Config = (*SimpleConfig)(nil)

// NewConfigFromEnv loads the configuration from environment variables.
// The signing key is the only required value.
func NewConfigFromEnv() (*SimpleConfig, error) {
	cfg := &SimpleConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.Wrap(err, errors.CategoryValidation, "failed to parse environment configuration")
	}

	if cfg.SigningKey == "" {
		return nil, errors.New("signing key is required", errors.CategoryValidation).
			WithTextCode("MISSING_SIGNING_KEY")
	}

	return cfg, nil
}

func (c *SimpleConfig) GetSigningKey() string {
	return c.SigningKey
}

func (c *SimpleConfig) GetSigningMethod() string {
	return c.SigningMethod
}

func (c *SimpleConfig) GetContextKey() string {
	return c.ContextKey
}

// GetTokenExpiration is the token TTL in minutes
func (c *SimpleConfig) GetTokenExpiration() int {
	return c.TokenExpiration
}

func (c *SimpleConfig) GetIssuer() string {
	return c.Issuer
}

func (c *SimpleConfig) GetAudience() []string {
	return c.Audience
}

func (c *SimpleConfig) GetTokenLookup() string {
	return c.TokenLookup
}

func (c *SimpleConfig) GetAuthScheme() string {
	return c.AuthScheme
}

func (c *SimpleConfig) GetMaxPageSize() int {
	return c.MaxPageSize
}
