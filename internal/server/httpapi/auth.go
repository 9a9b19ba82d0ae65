package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophtodo/internal/common"
	"github.com/dmitrijs2005/gophtodo/internal/server/auth"
	"github.com/dmitrijs2005/gophtodo/internal/server/models"
)

// Token transports. Headers carry a token explicitly and never trigger a
// silent refresh; cookies do.
const (
	headerAuthorization = "Authorization"
	headerAccessToken   = common.AccessTokenHeaderName
	headerRefreshToken  = common.RefreshTokenHeaderName

	cookieAccessToken  = common.AccessTokenCookieName
	cookieRefreshToken = common.RefreshTokenCookieName

	bearerScheme = "Bearer"
)

type cookieSettings struct {
	accessTTL  time.Duration
	refreshTTL time.Duration
	secure     bool
}

func (c cookieSettings) cookie(name, value string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// set attaches both tokens of pair to the response as cookies.
func (c cookieSettings) set(w http.ResponseWriter, pair auth.TokenPair) {
	http.SetCookie(w, c.cookie(cookieAccessToken, pair.AccessToken, c.accessTTL))
	http.SetCookie(w, c.cookie(cookieRefreshToken, pair.RefreshToken, c.refreshTTL))
}

// clear expires both token cookies on the client.
func (c cookieSettings) clear(w http.ResponseWriter) {
	for _, name := range []string{cookieAccessToken, cookieRefreshToken} {
		ck := c.cookie(name, "", 0)
		ck.MaxAge = -1
		http.SetCookie(w, ck)
	}
}

// headerToken returns the access token sent in a header. ok reports whether
// the client chose the header transport at all, even with a malformed value.
func headerToken(r *http.Request) (token string, ok bool) {
	if h := r.Header.Get(headerAuthorization); h != "" {
		scheme, value, found := strings.Cut(h, " ")
		if !found || !strings.EqualFold(scheme, bearerScheme) {
			return "", true
		}
		return strings.TrimSpace(value), true
	}
	if h := r.Header.Get(headerAccessToken); h != "" {
		return h, true
	}
	return "", false
}

func cookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}

// authMiddleware resolves the authenticated user and stores it in the
// request context. Requests carrying a header token are resolved strictly.
// Otherwise the token cookies are used, and an unusable access cookie is
// renewed from the refresh cookie with the new pair set on the response.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var (
			user *models.User
			err  error
		)
		if token, ok := headerToken(r); ok {
			user, err = s.principals.GetCurrentUser(ctx, token)
		} else {
			var pair *auth.TokenPair
			user, pair, err = s.principals.ResolveWithRenewal(ctx,
				cookieValue(r, cookieAccessToken), cookieValue(r, cookieRefreshToken))
			if err == nil && pair != nil {
				s.cookies.set(w, *pair)
				s.logger.Debug(ctx, "session renewed", "user_id", user.ID, "request_id", requestID(r))
			}
		}
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(withUser(ctx, user)))
	})
}

func withUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, ctxKeyUser, user)
}

// UserFromContext returns the user resolved by the auth middleware.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(ctxKeyUser).(*models.User)
	return user, ok && user != nil
}

// currentUser is UserFromContext for handlers behind authMiddleware.
func currentUser(r *http.Request) *models.User {
	user, ok := UserFromContext(r.Context())
	if !ok {
		panic("httpapi: handler mounted outside authMiddleware")
	}
	return user
}
