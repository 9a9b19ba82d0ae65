// Package server initializes and runs the gophtodo application: it loads the
// database, applies migrations, builds the token issuer and the services,
// and serves the REST API until SIGINT or SIGTERM.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/gophtodo/internal/dbx"
	"github.com/dmitrijs2005/gophtodo/internal/logging"
	"github.com/dmitrijs2005/gophtodo/internal/server/auth"
	"github.com/dmitrijs2005/gophtodo/internal/server/config"
	"github.com/dmitrijs2005/gophtodo/internal/server/httpapi"
	"github.com/dmitrijs2005/gophtodo/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophtodo/internal/server/services"
)

const dbPingTimeout = 5 * time.Second

// openDB opens the PostgreSQL pool through the pgx stdlib driver.
var openDB = func(dsn string) (*sql.DB, error) {
	return sql.Open("pgx", dsn)
}

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	http   *httpapi.Server
}

// NewApp connects to the database, migrates the schema and wires every
// layer. Logs are written as JSON to stdout.
func NewApp(c *config.Config) (*App, error) {
	return newApp(c, os.Stdout, repomanager.NewPostgresRepositoryManager())
}

func newApp(c *config.Config, logOut io.Writer, repos repomanager.RepositoryManager) (*App, error) {
	logger := logging.NewJSONLogger(logOut, c.LogLevel)

	db, err := openDB(c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), dbPingTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	if err := repos.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	srv, err := buildHTTPServer(c, logger, dbx.NewSQLTransactor(db, nil), repos)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &App{config: c, logger: logger, db: db, http: srv}, nil
}

// buildHTTPServer creates the token issuer, the services on top of tx and
// repos, and the REST server exposing them.
func buildHTTPServer(c *config.Config, logger logging.Logger, tx dbx.Transactor, repos repomanager.RepositoryManager) (*httpapi.Server, error) {
	codec, err := auth.NewCodec(c.JWTAlgorithm)
	if err != nil {
		return nil, fmt.Errorf("token codec error: %w", err)
	}
	logger.Info(context.Background(), "token codec configured", "algorithm", codec.Algorithm())

	issuer, err := auth.NewIssuer(codec, auth.IssuerConfig{
		AccessSecret:  []byte(c.JWTSecret),
		RefreshSecret: []byte(c.RefreshTokenSecret),
		AccessTTL:     c.AccessTokenValidityDuration,
		RefreshTTL:    c.RefreshTokenValidityDuration,
	})
	if err != nil {
		return nil, fmt.Errorf("token issuer error: %w", err)
	}

	return httpapi.New(httpapi.Deps{
		Address:      c.EndpointAddrHTTP,
		Logger:       logger,
		Users:        services.NewUserService(tx, repos, issuer),
		Principals:   services.NewPrincipalResolver(tx, repos, issuer),
		Lists:        services.NewListService(tx, repos),
		Items:        services.NewItemService(tx, repos),
		AccessTTL:    c.AccessTokenValidityDuration,
		RefreshTTL:   c.RefreshTokenValidityDuration,
		CookieSecure: c.CookieSecure,
	})
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigs
		signal.Stop(sigs)
		cancelFunc()
	}()
}

// Run serves the API until ctx is cancelled or a termination signal
// arrives, then closes the database.
func (app *App) Run(ctx context.Context) error {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "address", app.config.EndpointAddrHTTP)

	app.initSignalHandler(cancelFunc)

	err := app.http.Run(ctx)
	if err != nil {
		app.logger.Error(ctx, "HTTP server failed", "error", err)
	}

	if cerr := app.db.Close(); cerr != nil {
		app.logger.Error(ctx, "db close error", "error", cerr)
	}

	app.logger.Info(ctx, "App stopped")

	return err
}
