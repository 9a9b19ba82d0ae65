// Package auth issues and validates the signed access and refresh tokens of
// the server.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/dmitrijs2005/gophtodo/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenType is the value of the "type" claim that tells access tokens and
// refresh tokens apart.
type TokenType string

const (
	AccessToken  TokenType = "access_token"
	RefreshToken TokenType = "refresh_token"
)

// Registered claim names set by the codec.
const (
	ClaimType      = "type"
	ClaimExpiresAt = "exp"
	ClaimIssuedAt  = "iat"
	ClaimID        = "jti"
)

// MinTTL is the shortest accepted token lifetime. Expiry is encoded with
// second precision, so anything shorter could be issued already expired.
const MinTTL = time.Second

// Claims is the decoded payload of a token.
type Claims map[string]any

// Type returns the token type claim, or "" if absent.
func (c Claims) Type() TokenType {
	s, _ := c[ClaimType].(string)
	return TokenType(s)
}

// String returns the string claim under key.
func (c Claims) String(key string) (string, bool) {
	s, ok := c[key].(string)
	return s, ok
}

// Int64 returns the integer claim under key. Both json.Number and float64
// representations are accepted.
func (c Claims) Int64(key string) (int64, bool) {
	switch v := c[key].(type) {
	case json.Number:
		n, err := v.Int64()
		return n, err == nil
	case float64:
		n := int64(v)
		return n, float64(n) == v
	case int64:
		return v, true
	case int:
		return int64(v), true
	}
	return 0, false
}

// Option configures a Codec.
type Option func(*Codec)

// WithClock replaces the time source used for issuing and validating tokens.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) { c.now = now }
}

// Codec signs and verifies compact JWS tokens with a single HMAC algorithm.
// It is safe for concurrent use.
type Codec struct {
	method *jwt.SigningMethodHMAC
	now    func() time.Time
}

// NewCodec returns a Codec for one of HS256, HS384 or HS512.
func NewCodec(algorithm string, opts ...Option) (*Codec, error) {
	method, ok := jwt.GetSigningMethod(algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q", algorithm)
	}

	c := &Codec{method: method, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Algorithm returns the name of the signing algorithm.
func (c *Codec) Algorithm() string {
	return c.method.Alg()
}

// Issue signs claims as a token of the given type valid for ttl.
// The exp, iat, jti and type claims are always set by the codec and
// override values of the same name in claims.
func (c *Codec) Issue(claims map[string]any, ttl time.Duration, typ TokenType, secret []byte) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("empty signing secret")
	}
	if ttl < MinTTL {
		return "", fmt.Errorf("token ttl %s is shorter than %s", ttl, MinTTL)
	}

	now := c.now()

	payload := jwt.MapClaims{}
	maps.Copy(payload, claims)
	payload[ClaimType] = string(typ)
	payload[ClaimIssuedAt] = jwt.NewNumericDate(now)
	payload[ClaimExpiresAt] = jwt.NewNumericDate(now.Add(ttl))
	payload[ClaimID] = uuid.NewString()

	token, err := jwt.NewWithClaims(c.method, payload).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return token, nil
}

// Decode verifies the signature and expiry of token and returns its claims.
//
// Every failure wraps common.ErrInvalidToken. An expired token, including one
// checked at exactly its expiry instant, additionally wraps
// common.ErrTokenExpired.
func (c *Codec) Decode(token string, secret []byte) (Claims, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: empty token", common.ErrInvalidToken)
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
		jwt.WithJSONNumber(),
	)

	claims := jwt.MapClaims{}
	_, err := parser.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %w", common.ErrInvalidToken, common.ErrTokenExpired)
		}
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidToken, err)
	}

	return Claims(claims), nil
}
