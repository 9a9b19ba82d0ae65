package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophtodo/internal/common"
	"github.com/dmitrijs2005/gophtodo/internal/dbx"
	"github.com/dmitrijs2005/gophtodo/internal/server/auth"
	"github.com/dmitrijs2005/gophtodo/internal/server/models"
	"github.com/dmitrijs2005/gophtodo/internal/server/repositories/repomanager"
)

// PrincipalResolver turns the tokens presented with a request into the
// authenticated user. A resolved user always has its lists loaded; there is
// no anonymous principal.
type PrincipalResolver struct {
	store
	issuer *auth.Issuer
}

var errStaleAccessToken = errors.New("access token was issued to another account")

// NewPrincipalResolver constructs a PrincipalResolver.
func NewPrincipalResolver(tx dbx.Transactor, repos repomanager.RepositoryManager, issuer *auth.Issuer, opts ...Option) *PrincipalResolver {
	return &PrincipalResolver{store: newStore(tx, repos, opts), issuer: issuer}
}

// GetCurrentUser resolves an access token. A missing, invalid or expired
// token, a user that no longer exists, or a username now held by another
// account yields common.ErrorUnauthenticated.
func (r *PrincipalResolver) GetCurrentUser(ctx context.Context, accessToken string) (*models.User, error) {
	pub, err := r.parseAccessToken(accessToken)
	if err != nil {
		return nil, err
	}
	return r.userByAccessClaims(ctx, pub)
}

// ValidateRefreshToken resolves a refresh token. A missing, invalid or
// expired token, or a user that no longer exists, yields
// common.ErrorUnauthenticated.
func (r *PrincipalResolver) ValidateRefreshToken(ctx context.Context, refreshToken string) (*models.User, error) {
	return userByRefreshToken(ctx, r.store, r.issuer, refreshToken, true)
}

// ResolveWithRenewal resolves the access token and, if it is rejected, falls
// back once to the refresh token. A successful fallback mints a new token
// pair that the caller must hand back to the client. A storage error on the
// access path is returned as is; every failure on the fallback path,
// including storage errors, yields common.ErrorUnauthenticated.
func (r *PrincipalResolver) ResolveWithRenewal(ctx context.Context, accessToken, refreshToken string) (*models.User, *auth.TokenPair, error) {
	if pub, err := r.parseAccessToken(accessToken); err == nil {
		user, err := r.userByAccessClaims(ctx, pub)
		if err == nil || !errors.Is(err, common.ErrorUnauthenticated) {
			return user, nil, err
		}
	}

	user, err := r.ValidateRefreshToken(ctx, refreshToken)
	if err != nil {
		if !errors.Is(err, common.ErrorUnauthenticated) {
			err = fmt.Errorf("%w: %w", common.ErrorUnauthenticated, err)
		}
		return nil, nil, err
	}

	pair, err := r.issuer.GenerateAccessAndRefreshTokens(user.Public())
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", common.ErrorUnauthenticated, err)
	}

	return user, &pair, nil
}

func (r *PrincipalResolver) parseAccessToken(accessToken string) (models.UserPublic, error) {
	if accessToken == "" {
		return models.UserPublic{}, fmt.Errorf("%w: not authenticated", common.ErrorUnauthenticated)
	}

	pub, err := r.issuer.ParseAccessToken(accessToken)
	if err != nil {
		return models.UserPublic{}, fmt.Errorf("%w: invalid or expired access token: %w", common.ErrorUnauthenticated, err)
	}
	return pub, nil
}

// userByAccessClaims looks the user up by username. The stored id must
// match the token's id claim, since a username can pass to another account
// after a rename.
func (r *PrincipalResolver) userByAccessClaims(ctx context.Context, pub models.UserPublic) (*models.User, error) {
	return loadUser(ctx, r.store, func(ctx context.Context, tx dbx.DBTX) (*models.User, error) {
		user, err := r.repos.Users(tx).GetUserByLogin(ctx, pub.UserName)
		if err != nil {
			return nil, err
		}
		if user.ID != pub.ID {
			return nil, fmt.Errorf("%w: %w", common.ErrorUnauthenticated, errStaleAccessToken)
		}
		return user, nil
	}, true)
}

// userByRefreshToken resolves the user a refresh token was issued to.
func userByRefreshToken(ctx context.Context, s store, issuer *auth.Issuer, refreshToken string, withLists bool) (*models.User, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("%w: not authenticated", common.ErrorUnauthenticated)
	}

	userID, err := issuer.ParseRefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid or expired refresh token: %w", common.ErrorUnauthenticated, err)
	}

	return loadUser(ctx, s, func(ctx context.Context, tx dbx.DBTX) (*models.User, error) {
		return s.repos.Users(tx).GetByID(ctx, userID)
	}, withLists)
}

// loadUser runs find and, optionally, loads the user's lists in one read
// transaction. A missing user yields common.ErrorUnauthenticated.
func loadUser(ctx context.Context, s store, find func(context.Context, dbx.DBTX) (*models.User, error), withLists bool) (*models.User, error) {
	var user *models.User
	err := s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		user, err = find(ctx, tx)
		if err != nil {
			return err
		}
		if !withLists {
			return nil
		}
		user.Lists, err = s.repos.Lists(tx).ListByUser(ctx, user.ID)
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("%w: user no longer exists", common.ErrorUnauthenticated)
		}
		return nil, err
	}

	return user, nil
}
