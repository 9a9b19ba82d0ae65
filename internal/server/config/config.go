// Package config handles configuration for the server component,
// including defaults, a JSON/YAML file overlay, environment variables and
// command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds runtime settings for the gophtodo server. It is built once at
// start-up and treated as immutable afterwards.
//
// Fields:
//   - EndpointAddrHTTP: bind address for the REST API.
//   - DatabaseDSN: PostgreSQL DSN (pgx), DB_URL.
//   - JWTSecret / JWTAlgorithm: HMAC secret and algorithm for access tokens.
//   - RefreshTokenSecret: HMAC secret for refresh tokens; must differ from JWTSecret.
//   - AccessTokenValidityDuration / RefreshTokenValidityDuration: token lifetimes.
//   - LogLevel: debug, info, warn or error.
//   - CookieSecure: mark token cookies Secure (HTTPS deployments).
type Config struct {
	EndpointAddrHTTP             string
	DatabaseDSN                  string
	JWTSecret                    string
	JWTAlgorithm                 string
	RefreshTokenSecret           string
	AccessTokenValidityDuration  time.Duration
	RefreshTokenValidityDuration time.Duration
	LogLevel                     string
	CookieSecure                 bool
}

// Supported JWT signing algorithms.
var SupportedAlgorithms = []string{"HS256", "HS384", "HS512"}

// LoadDefaults populates Config with the non-secret defaults. The DSN and both
// secrets have no default and must be supplied.
func (c *Config) LoadDefaults() {
	c.EndpointAddrHTTP = ":8080"
	c.JWTAlgorithm = "HS256"
	c.AccessTokenValidityDuration = 60 * time.Minute
	c.RefreshTokenValidityDuration = 7 * 24 * time.Hour
	c.LogLevel = "info"
}

// Validate checks that all required settings are present and consistent.
func (c *Config) Validate() error {
	var errs []error

	if c.DatabaseDSN == "" {
		errs = append(errs, errors.New("DB_URL is required"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.RefreshTokenSecret == "" {
		errs = append(errs, errors.New("REFRESH_TOKEN_SECRET is required"))
	}
	if c.JWTSecret != "" && c.JWTSecret == c.RefreshTokenSecret {
		errs = append(errs, errors.New("JWT_SECRET and REFRESH_TOKEN_SECRET must differ"))
	}
	if !isSupportedAlgorithm(c.JWTAlgorithm) {
		errs = append(errs, fmt.Errorf("JWT_ALGORITHM %q is not supported (use one of %s)",
			c.JWTAlgorithm, strings.Join(SupportedAlgorithms, ", ")))
	}
	if c.AccessTokenValidityDuration < time.Second {
		errs = append(errs, errors.New("access token validity must be at least one second"))
	}
	if c.RefreshTokenValidityDuration < time.Second {
		errs = append(errs, errors.New("refresh token validity must be at least one second"))
	}

	return errors.Join(errs...)
}

func isSupportedAlgorithm(alg string) bool {
	for _, a := range SupportedAlgorithms {
		if a == alg {
			return true
		}
	}
	return false
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional config file, the environment and finally command-line
// flags. The result is validated.
func LoadConfig() (*Config, error) {
	return load(os.Args[1:], os.LookupEnv)
}

func load(args []string, lookup lookupFunc) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseFile(cfg, args); err != nil {
		return nil, fmt.Errorf("config file: %w", err)
	}
	if err := parseEnv(cfg, lookup); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, fmt.Errorf("flags: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
