// Package app wires the hush server runtime: configuration, logging, storage,
// the HTTP API, realtime push and metrics.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"hush/cmd/identity"
	"hush/cmd/internal/access"
	"hush/cmd/internal/api"
	"hush/cmd/internal/auth/session"
	"hush/cmd/internal/realtime"
)

// App owns the server's dependencies and HTTP wiring.
type App struct {
	cfg Config
	log Logger

	stores  *Stores
	issuer  *session.Issuer
	hub     *realtime.Hub
	handler http.Handler
}

// New builds a fully wired App. The caller must Close it, or call Run, which
// closes it on return.
func New(ctx context.Context, cfg Config, log Logger) (*App, error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel, cfg.LogFormat)
	}
	if err := ValidateSecurityConfig(cfg, log); err != nil {
		return nil, err
	}

	stores, err := OpenStores(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	a, err := wire(cfg, log, stores)
	if err != nil {
		_ = stores.Close()
		return nil, err
	}
	return a, nil
}

func wire(cfg Config, log Logger, stores *Stores) (*App, error) {
	users, err := identity.NewService(stores.Users, cfg.Password)
	if err != nil {
		return nil, err
	}
	issuer, err := session.NewIssuer(cfg.Session)
	if err != nil {
		return nil, err
	}

	registry := newRegistry()
	hub := realtime.NewHub(log, realtime.NewMetrics(registry))
	gw, err := realtime.NewGateway(log, hub, issuer, cfg.Realtime)
	if err != nil {
		return nil, err
	}

	apiHandler, err := api.NewHandler(log, cfg.API, api.Deps{
		Credentials: users,
		Tokens:      issuer,
		Guard:       access.NewGuard(users, stores.Messages),
		Messages:    stores.Messages,
	}, api.WithNotifier(hub), api.WithMetrics(api.NewMetrics(registry)))
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	registerHTTP(mux, routes{
		cfg:      cfg,
		log:      log,
		stores:   stores,
		api:      apiHandler,
		ws:       gw,
		registry: registry,
	})

	var h http.Handler = mux
	h = WithSecurityHeaders(h)
	h = WithRequestLogging(h, log, NewHTTPMetrics(registry))
	h = WithRequestID(h)

	log.Info("app.wired", "backend", string(stores.Backend), "token_key", issuer.KeyID())

	return &App{
		cfg:     cfg,
		log:     log,
		stores:  stores,
		issuer:  issuer,
		hub:     hub,
		handler: h,
	}, nil
}

// Handler returns the root HTTP handler with all middleware applied.
func (a *App) Handler() http.Handler { return a.handler }

// Close releases storage.
func (a *App) Close() error { return a.stores.Close() }

// Run serves HTTP until ctx is cancelled or the listener fails, then shuts down
// gracefully and closes storage.
func (a *App) Run(ctx context.Context) error {
	defer func() {
		if err := a.Close(); err != nil {
			a.log.Error("store.close.fail", "err", err)
		}
	}()

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           a.handler,
		ReadHeaderTimeout: nonZeroDuration(a.cfg.ReadHeaderTimeout, 5*time.Second),
		ReadTimeout:       nonZeroDuration(a.cfg.ReadTimeout, 15*time.Second),
		WriteTimeout:      nonZeroDuration(a.cfg.WriteTimeout, 15*time.Second),
		IdleTimeout:       nonZeroDuration(a.cfg.IdleTimeout, 60*time.Second),
		MaxHeaderBytes:    nonZeroInt(a.cfg.MaxHeaderBytes, 1<<20),
	}

	a.log.Info("server.start", "addr", a.cfg.HTTPAddr, "backend", string(a.stores.Backend))

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info("server.stop", "reason", "context_done")
	case err := <-errCh:
		a.log.Error("server.fail", "err", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("server.shutdown.fail", "err", err)
		return err
	}

	a.log.Info("server.stopped")
	return nil
}

func nonZeroDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func nonZeroInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
