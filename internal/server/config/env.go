package config

import (
	"fmt"
	"strconv"
	"time"
)

type lookupFunc func(key string) (string, bool)

// Environment variable names.
const (
	EnvDatabaseURL                = "DB_URL"
	EnvJWTSecret                  = "JWT_SECRET"
	EnvJWTAlgorithm               = "JWT_ALGORITHM"
	EnvJWTExpirationMinutes       = "JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenSecret         = "REFRESH_TOKEN_SECRET"
	EnvRefreshTokenExpirationDays = "REFRESH_TOKEN_EXPIRATION_DAYS"
	EnvHTTPAddress                = "HTTP_ADDRESS"
	EnvLogLevel                   = "LOG_LEVEL"
	EnvCookieSecure               = "COOKIE_SECURE"
)

// parseEnv overlays settings from environment variables. Token lifetimes are
// given in whole minutes (access) and days (refresh).
func parseEnv(config *Config, lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	str(EnvDatabaseURL, &config.DatabaseDSN)
	str(EnvJWTSecret, &config.JWTSecret)
	str(EnvJWTAlgorithm, &config.JWTAlgorithm)
	str(EnvRefreshTokenSecret, &config.RefreshTokenSecret)
	str(EnvHTTPAddress, &config.EndpointAddrHTTP)
	str(EnvLogLevel, &config.LogLevel)

	if v, ok := lookup(EnvJWTExpirationMinutes); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvJWTExpirationMinutes, err)
		}
		config.AccessTokenValidityDuration = time.Duration(n) * time.Minute
	}

	if v, ok := lookup(EnvRefreshTokenExpirationDays); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvRefreshTokenExpirationDays, err)
		}
		config.RefreshTokenValidityDuration = time.Duration(n) * 24 * time.Hour
	}

	if v, ok := lookup(EnvCookieSecure); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvCookieSecure, err)
		}
		config.CookieSecure = b
	}

	return nil
}
