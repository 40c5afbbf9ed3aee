// Package server wires one worker of the account service (store, mailer,
// flows and HTTP API) and runs the primary process that supervises the
// workers.
package server

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/dmitrijs2005/swengineer/internal/dbx"
	"github.com/dmitrijs2005/swengineer/internal/logging"
	"github.com/dmitrijs2005/swengineer/internal/netx"
	"github.com/dmitrijs2005/swengineer/internal/server/config"
	"github.com/dmitrijs2005/swengineer/internal/server/mail"
	"github.com/dmitrijs2005/swengineer/internal/server/metrics"
	"github.com/dmitrijs2005/swengineer/internal/server/oauth"
	"github.com/dmitrijs2005/swengineer/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/swengineer/internal/server/rest"
	"github.com/dmitrijs2005/swengineer/internal/server/services"
)

// workerPool is the per-worker database pool.
var workerPool = dbx.PoolOptions{
	MaxOpenConns:    10,
	MaxIdleConns:    5,
	ConnMaxLifetime: 30 * time.Minute,
}

// seams for tests
var (
	openStore = repomanager.Open
	listen    = netx.Listen
)

// App is a single worker. Apart from an in-memory store handed in by the
// primary, workers share nothing in process.
type App struct {
	config    *config.Config
	logger    logging.Logger
	store     repomanager.RepositoryManager
	ownsStore bool
	server    *rest.Server
}

// NewApp opens its own store and builds a worker around it.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	store, err := openStore(ctx, c.DatabaseDSN, workerPool)
	if err != nil {
		return nil, fmt.Errorf("store init error: %w", err)
	}

	app, err := newApp(ctx, c, logger, store)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	app.ownsStore = true
	return app, nil
}

// newApp builds a worker on store. The caller keeps ownership of store.
func newApp(ctx context.Context, c *config.Config, logger logging.Logger, store repomanager.RepositoryManager) (*App, error) {
	mailer, err := mail.New(ctx, c, logger)
	if err != nil {
		return nil, fmt.Errorf("mailer init error: %w", err)
	}

	var google oauth.Provider
	if c.GoogleEnabled() {
		google = oauth.NewGoogle(c.GoogleClientID, c.GoogleClientSecret, c.APIURI)
	}

	accounts := services.NewAccountService(store, c, mailer, logger)

	srv := rest.NewServer(rest.Deps{
		Accounts:   accounts,
		Store:      store,
		Google:     google,
		Metrics:    metrics.New(),
		Logger:     logger,
		Production: c.IsProduction(),
	})

	return &App{config: c, logger: logger, store: store, server: srv}, nil
}

// Run serves HTTP on the shared address until ctx is cancelled. A store
// opened by NewApp is closed on return.
func (app *App) Run(ctx context.Context) error {
	if app.ownsStore {
		defer func() {
			if err := app.store.Close(); err != nil {
				app.logger.Error(ctx, "store close error", "error", err)
			}
		}()
	}

	ln, err := listen(ctx, app.config.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", app.config.HTTPAddr, err)
	}

	return app.Serve(ctx, ln)
}

// Serve is Run on an already bound listener.
func (app *App) Serve(ctx context.Context, ln net.Listener) error {
	return app.server.Serve(ctx, ln, rest.Timeouts{
		Read:     app.config.ReadTimeout,
		Write:    app.config.WriteTimeout,
		Idle:     app.config.IdleTimeout,
		Shutdown: app.config.ShutdownTimeout,
	})
}
