// Package common contains shared constants and sentinel errors used across
// gophtodo components.
package common

// Token transport locations. Header names are used by API clients that
// manage tokens themselves, cookie names by browser sessions that rely on
// silent refresh.
const (
	AccessTokenHeaderName  = "access-token"
	RefreshTokenHeaderName = "refresh-token"

	AccessTokenCookieName  = "access_token"
	RefreshTokenCookieName = "refresh_token"
)
