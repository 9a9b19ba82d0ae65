package auth

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophtodo/internal/common"
	"github.com/dmitrijs2005/gophtodo/internal/server/models"
)

// Claim names of the token payloads.
const (
	ClaimUserID   = "id"
	ClaimUserName = "username"

	ClaimRefreshUserID = "user_id"
)

// TokenTypeBearer is reported to clients alongside a token pair.
const TokenTypeBearer = "bearer"

// TokenPair is a freshly issued access token and refresh token.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// IssuerConfig holds the secrets and lifetimes of the issued tokens.
type IssuerConfig struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// Issuer mints and parses access/refresh token pairs. Access tokens carry the
// public projection of a user and refresh tokens only the user id. The two
// kinds are signed with different secrets so neither can stand in for the
// other.
type Issuer struct {
	codec *Codec
	cfg   IssuerConfig
}

// NewIssuer validates cfg and returns an Issuer signing with codec.
func NewIssuer(codec *Codec, cfg IssuerConfig) (*Issuer, error) {
	var errs []error
	if len(cfg.AccessSecret) == 0 {
		errs = append(errs, errors.New("access token secret is empty"))
	}
	if len(cfg.RefreshSecret) == 0 {
		errs = append(errs, errors.New("refresh token secret is empty"))
	}
	if len(cfg.AccessSecret) > 0 && bytes.Equal(cfg.AccessSecret, cfg.RefreshSecret) {
		errs = append(errs, errors.New("access and refresh token secrets must differ"))
	}
	if cfg.AccessTTL < MinTTL {
		errs = append(errs, fmt.Errorf("access token ttl must be at least %s", MinTTL))
	}
	if cfg.RefreshTTL < MinTTL {
		errs = append(errs, fmt.Errorf("refresh token ttl must be at least %s", MinTTL))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	return &Issuer{codec: codec, cfg: cfg}, nil
}

// GenerateAccessAndRefreshTokens mints a brand-new pair for user. Previously
// issued tokens stay valid until they expire.
func (i *Issuer) GenerateAccessAndRefreshTokens(user models.UserPublic) (TokenPair, error) {
	access, err := i.codec.Issue(map[string]any{
		ClaimUserID:   user.ID,
		ClaimUserName: user.UserName,
	}, i.cfg.AccessTTL, AccessToken, i.cfg.AccessSecret)
	if err != nil {
		return TokenPair{}, fmt.Errorf("issue access token: %w", err)
	}

	refresh, err := i.codec.Issue(map[string]any{
		ClaimRefreshUserID: user.ID,
	}, i.cfg.RefreshTTL, RefreshToken, i.cfg.RefreshSecret)
	if err != nil {
		return TokenPair{}, fmt.Errorf("issue refresh token: %w", err)
	}

	return TokenPair{AccessToken: access, RefreshToken: refresh, TokenType: TokenTypeBearer}, nil
}

// ParseAccessToken verifies an access token and returns the user snapshot it
// carries.
func (i *Issuer) ParseAccessToken(token string) (models.UserPublic, error) {
	claims, err := i.decode(token, i.cfg.AccessSecret, AccessToken)
	if err != nil {
		return models.UserPublic{}, err
	}

	name, ok := claims.String(ClaimUserName)
	if !ok || name == "" {
		return models.UserPublic{}, fmt.Errorf("%w: missing %s claim", common.ErrInvalidToken, ClaimUserName)
	}
	id, _ := claims.Int64(ClaimUserID)

	return models.UserPublic{ID: id, UserName: name}, nil
}

// ParseRefreshToken verifies a refresh token and returns the user id it
// carries.
func (i *Issuer) ParseRefreshToken(token string) (int64, error) {
	claims, err := i.decode(token, i.cfg.RefreshSecret, RefreshToken)
	if err != nil {
		return 0, err
	}

	id, ok := claims.Int64(ClaimRefreshUserID)
	if !ok {
		return 0, fmt.Errorf("%w: missing %s claim", common.ErrInvalidToken, ClaimRefreshUserID)
	}

	return id, nil
}

func (i *Issuer) decode(token string, secret []byte, typ TokenType) (Claims, error) {
	claims, err := i.codec.Decode(token, secret)
	if err != nil {
		return nil, err
	}
	if claims.Type() != typ {
		return nil, fmt.Errorf("%w: expected %s, got %q", common.ErrInvalidToken, typ, claims.Type())
	}
	return claims, nil
}
