// Package httpapi exposes the gophtodo REST API: registration and login,
// token refresh, the current user and the user's lists and list items.
//
// The server follows the same lifecycle as the rest of the application:
//
//	srv, err := httpapi.New(deps)
//	err = srv.Run(ctx) // returns after ctx is cancelled and requests drain
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophtodo/internal/logging"
	"github.com/dmitrijs2005/gophtodo/internal/server/auth"
	"github.com/dmitrijs2005/gophtodo/internal/server/models"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

const (
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 15 * time.Second
	writeTimeout      = 15 * time.Second
	idleTimeout       = 60 * time.Second
)

// UserService manages accounts and credentials.
type UserService interface {
	Register(ctx context.Context, userName, password string) (*models.User, error)
	Login(ctx context.Context, userName, password string) (auth.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (auth.TokenPair, error)
	Update(ctx context.Context, user *models.User, upd models.UserUpdate) (*models.User, error)
	IssueTokens(user *models.User) (auth.TokenPair, error)
	Delete(ctx context.Context, userID int64) error
}

// PrincipalResolver turns request tokens into the authenticated user.
type PrincipalResolver interface {
	GetCurrentUser(ctx context.Context, accessToken string) (*models.User, error)
	ResolveWithRenewal(ctx context.Context, accessToken, refreshToken string) (*models.User, *auth.TokenPair, error)
}

// ListService manages the lists of a user.
type ListService interface {
	Create(ctx context.Context, userID int64, name string, contents []string) (*models.List, error)
	Get(ctx context.Context, userID, listID int64) (*models.List, error)
	Search(ctx context.Context, userID int64, q models.Query) (*models.ListsPage, error)
	Update(ctx context.Context, userID, listID int64, upd models.ListUpdate) (*models.List, error)
	Delete(ctx context.Context, userID, listID int64) error
}

// ItemService manages the items of a user's list.
type ItemService interface {
	Create(ctx context.Context, userID, listID int64, contents []string) ([]*models.ListItem, error)
	Get(ctx context.Context, userID, listID, itemID int64) (*models.ListItem, error)
	Search(ctx context.Context, userID, listID int64, q models.Query) (*models.ItemsPage, error)
	Update(ctx context.Context, userID, listID, itemID int64, upd models.ItemUpdate) (*models.ListItem, error)
	Delete(ctx context.Context, userID, listID, itemID int64) error
}

// Deps holds the dependencies required by the API server.
//
// AccessTTL and RefreshTTL set the lifetime of the token cookies and should
// match the lifetimes the issuer signs into the tokens. CookieSecure marks
// those cookies Secure for HTTPS deployments.
type Deps struct {
	Address      string
	Logger       logging.Logger
	Users        UserService
	Principals   PrincipalResolver
	Lists        ListService
	Items        ItemService
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
	CookieSecure bool
}

// Server is the HTTP API server.
type Server struct {
	address    string
	logger     logging.Logger
	users      UserService
	principals PrincipalResolver
	lists      ListService
	items      ItemService
	cookies    cookieSettings
	metrics    *metrics
	handler    http.Handler
}

// New creates an API server. The server does not listen until Run is called.
func New(deps Deps) (*Server, error) {
	var errs []error
	if deps.Logger == nil {
		errs = append(errs, errors.New("logger is required"))
	}
	if deps.Users == nil {
		errs = append(errs, errors.New("user service is required"))
	}
	if deps.Principals == nil {
		errs = append(errs, errors.New("principal resolver is required"))
	}
	if deps.Lists == nil {
		errs = append(errs, errors.New("list service is required"))
	}
	if deps.Items == nil {
		errs = append(errs, errors.New("item service is required"))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	s := &Server{
		address:    deps.Address,
		logger:     deps.Logger.With("module", "http_server"),
		users:      deps.Users,
		principals: deps.Principals,
		lists:      deps.Lists,
		items:      deps.Items,
		cookies: cookieSettings{
			accessTTL:  deps.AccessTTL,
			refreshTTL: deps.RefreshTTL,
			secure:     deps.CookieSecure,
		},
		metrics: newMetrics(),
	}
	s.handler = s.buildRouter()

	return s, nil
}

// Handler returns the fully wired router.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run listens on the configured address and serves requests until ctx is
// cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.serve(ctx, listen)
}

func (s *Server) serve(ctx context.Context, listen net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	shutdownErr := make(chan error, 1)
	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
		defer cancel()
		shutdownErr <- srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return <-shutdownErr
}
