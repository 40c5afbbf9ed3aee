// Package rest serves the account API over HTTP: routing, JSON
// responses, the session cookie and the middleware chain.
package rest

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/dmitrijs2005/swengineer/internal/logging"
	"github.com/dmitrijs2005/swengineer/internal/server/auth"
	"github.com/dmitrijs2005/swengineer/internal/server/metrics"
	"github.com/dmitrijs2005/swengineer/internal/server/oauth"
	"github.com/dmitrijs2005/swengineer/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/swengineer/internal/server/services"
)

const defaultShutdownTimeout = 10 * time.Second

// Deps are the collaborators a Server is built from. Google may be nil,
// in which case the federated routes answer 404.
type Deps struct {
	Accounts   *services.AccountService
	Store      repomanager.RepositoryManager
	Google     oauth.Provider
	Metrics    *metrics.Metrics
	Logger     logging.Logger
	Production bool
}

type Server struct {
	router     *mux.Router
	accounts   *services.AccountService
	authn      *auth.Authenticator
	store      repomanager.RepositoryManager
	google     oauth.Provider
	metrics    *metrics.Metrics
	logger     logging.Logger
	production bool
}

func NewServer(d Deps) *Server {
	if d.Metrics == nil {
		d.Metrics = metrics.New()
	}
	if d.Logger == nil {
		d.Logger = logging.Discard()
	}
	s := &Server{
		accounts:   d.Accounts,
		authn:      auth.NewAuthenticator(d.Accounts.Sessions(), d.Store.Accounts()),
		store:      d.Store,
		google:     d.Google,
		metrics:    d.Metrics,
		logger:     d.Logger.With("module", "http_server"),
		production: d.Production,
	}
	s.router = s.routes()
	return s
}

// Handler returns the router wrapped in the request logging and panic
// recovery middleware.
func (s *Server) Handler() http.Handler {
	return s.logRequests(s.recoverer(s.router))
}

// Timeouts bound the lifetime of connections and of graceful shutdown.
type Timeouts struct {
	Read     time.Duration
	Write    time.Duration
	Idle     time.Duration
	Shutdown time.Duration
}

// Serve accepts connections on ln until ctx is cancelled, then drains
// in-flight requests for at most t.Shutdown.
func (s *Server) Serve(ctx context.Context, ln net.Listener, t Timeouts) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: t.Read,
		ReadTimeout:       t.Read,
		WriteTimeout:      t.Write,
		IdleTimeout:       t.Idle,
		MaxHeaderBytes:    1 << 20,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", ln.Addr().String())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info(ctx, "Stopping HTTP server...")

	timeout := t.Shutdown
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
