package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophtodo/internal/common"
	"github.com/dmitrijs2005/gophtodo/internal/cryptox"
	"github.com/dmitrijs2005/gophtodo/internal/dbx"
	"github.com/dmitrijs2005/gophtodo/internal/server/auth"
	"github.com/dmitrijs2005/gophtodo/internal/server/models"
	"github.com/dmitrijs2005/gophtodo/internal/server/repositories/repomanager"
)

// UserService provides account operations:
//   - Register: create users with a hashed password
//   - Login: verify credentials and mint a token pair
//   - RefreshToken: exchange a refresh token for a new pair
//   - Update, Delete: manage the current user
type UserService struct {
	store
	issuer *auth.Issuer
}

// NewUserService constructs a UserService.
func NewUserService(tx dbx.Transactor, repos repomanager.RepositoryManager, issuer *auth.Issuer, opts ...Option) *UserService {
	return &UserService{store: newStore(tx, repos, opts), issuer: issuer}
}

// Register creates a user. A taken username yields common.ErrorConflict, a
// password failing the complexity policy common.ErrorWeakCredentials. The
// username is checked first.
func (s *UserService) Register(ctx context.Context, userName, password string) (*models.User, error) {
	userName = strings.TrimSpace(userName)
	if userName == "" {
		return nil, fmt.Errorf("%w: username is required", common.ErrorValidation)
	}

	var created *models.User
	err := s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repos.Users(tx)

		if err := ensureUserNameFree(ctx, repo, userName); err != nil {
			return err
		}
		if err := cryptox.ValidatePassword(password); err != nil {
			return err
		}

		hash, err := cryptox.HashPassword(password)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}

		created, err = repo.Create(ctx, &models.User{UserName: userName, PasswordHash: hash})
		if err != nil {
			return fmt.Errorf("error creating user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

// Login verifies the credentials and returns a fresh token pair. An unknown
// username yields common.ErrorNotFound, a wrong password
// common.ErrorInvalidCredentials.
func (s *UserService) Login(ctx context.Context, userName, password string) (auth.TokenPair, error) {
	var user *models.User
	err := s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		user, err = s.repos.Users(tx).GetUserByLogin(ctx, strings.TrimSpace(userName))
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return auth.TokenPair{}, fmt.Errorf("%w: invalid username", common.ErrorNotFound)
		}
		return auth.TokenPair{}, err
	}

	if !cryptox.VerifyPassword(password, user.PasswordHash) {
		return auth.TokenPair{}, fmt.Errorf("%w: invalid password", common.ErrorInvalidCredentials)
	}

	return s.issuer.GenerateAccessAndRefreshTokens(user.Public())
}

// RefreshToken validates refreshToken and mints a brand-new pair for its
// user. Any failure yields common.ErrorUnauthenticated.
func (s *UserService) RefreshToken(ctx context.Context, refreshToken string) (auth.TokenPair, error) {
	user, err := userByRefreshToken(ctx, s.store, s.issuer, refreshToken, false)
	if err != nil {
		return auth.TokenPair{}, err
	}

	pair, err := s.issuer.GenerateAccessAndRefreshTokens(user.Public())
	if err != nil {
		return auth.TokenPair{}, fmt.Errorf("%w: %w", common.ErrorUnauthenticated, err)
	}
	return pair, nil
}

// IssueTokens mints a fresh token pair for user, e.g. after a rename made
// the user's current access tokens unusable.
func (s *UserService) IssueTokens(user *models.User) (auth.TokenPair, error) {
	return s.issuer.GenerateAccessAndRefreshTokens(user.Public())
}

// Update applies a partial update to user. A new username must be free and a
// new password must satisfy the complexity policy.
func (s *UserService) Update(ctx context.Context, user *models.User, upd models.UserUpdate) (*models.User, error) {
	updated := *user

	if upd.UserName != nil {
		updated.UserName = strings.TrimSpace(*upd.UserName)
		if updated.UserName == "" {
			return nil, fmt.Errorf("%w: username must not be empty", common.ErrorValidation)
		}
	}

	err := s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repos.Users(tx)

		if updated.UserName != user.UserName {
			if err := ensureUserNameFree(ctx, repo, updated.UserName); err != nil {
				return err
			}
		}

		if upd.Password != nil {
			if err := cryptox.ValidatePassword(*upd.Password); err != nil {
				return err
			}
			hash, err := cryptox.HashPassword(*upd.Password)
			if err != nil {
				return fmt.Errorf("hash password: %w", err)
			}
			updated.PasswordHash = hash
		}

		if err := repo.Update(ctx, &updated); err != nil {
			return fmt.Errorf("error updating user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &updated, nil
}

// Delete removes the user with all of its lists and items.
func (s *UserService) Delete(ctx context.Context, userID int64) error {
	return s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repos.Users(tx).Delete(ctx, userID); err != nil {
			return fmt.Errorf("error deleting user: %w", err)
		}
		return nil
	})
}

type userLookup interface {
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
}

func ensureUserNameFree(ctx context.Context, repo userLookup, userName string) error {
	_, err := repo.GetUserByLogin(ctx, userName)
	switch {
	case err == nil:
		return fmt.Errorf("%w: user with the same username already exists", common.ErrorConflict)
	case errors.Is(err, common.ErrorNotFound):
		return nil
	default:
		return err
	}
}
