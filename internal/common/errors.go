// Package common defines shared constants and sentinel errors used across
// the server layers of gophtodo. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors. A row owned by another user is reported as
	// ErrorNotFound as well.
	ErrorNotFound = errors.New("not found")
	ErrorConflict = errors.New("already exists")

	// Service-level errors.
	ErrorValidation         = errors.New("validation error")
	ErrorInvalidCredentials = errors.New("invalid credentials")
	ErrorWeakCredentials    = errors.New("weak credentials")
	ErrorUnauthenticated    = errors.New("unauthenticated")

	// Token errors (invalid signature, malformed payload, wrong type).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired = errors.New("token expired")
)
