package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/postboard/postboard/internal/audit"
	"github.com/postboard/postboard/internal/auth"
	"github.com/postboard/postboard/internal/config"
	"github.com/postboard/postboard/internal/httpserver"
	"github.com/postboard/postboard/internal/migrations"
	"github.com/postboard/postboard/internal/observability"
	"github.com/postboard/postboard/internal/posts"
	"github.com/postboard/postboard/internal/session"
	"github.com/postboard/postboard/internal/storage"
)

type App struct {
	cfg     config.Config
	log     *slog.Logger
	server  *httpserver.Server
	handler http.Handler

	memSessions *session.MemoryStore
	closers     []func() error
}

type backend struct {
	accounts auth.AccountStore
	posts    posts.Store
	ready    func(ctx context.Context) error
	close    func() error
}

// New opens storage and the session store and wires every service into the
// HTTP server. A nil logger gets the default JSON logger at cfg.LogLevel.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = observability.NewLogger(cfg.LogLevel)
	}
	a := &App{cfg: cfg, log: logger}

	be, err := openBackend(ctx, cfg.Storage, logger)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, be.close)

	sessions, err := a.openSessions(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	hasher, err := auth.NewBcryptHasher(cfg.BcryptCost)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create password hasher: %w", err)
	}
	credentials, err := auth.NewCredentials(be.accounts, hasher)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create credential store: %w", err)
	}
	authService, err := auth.NewService(credentials, sessions, auth.ServiceConfig{SessionTTL: cfg.Session.TTL})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create auth service: %w", err)
	}
	postService, err := posts.NewService(be.posts, logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create post service: %w", err)
	}
	signer, err := session.NewSigner(cfg.Session.Secret)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create cookie signer: %w", err)
	}
	auditLogger, err := audit.Open(cfg.AuditLogFile)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	a.closers = append(a.closers, auditLogger.Close)

	deps := httpserver.Deps{
		Auth:          authService,
		Posts:         postService,
		Cookies:       signer,
		Audit:         auditLogger,
		Logger:        logger,
		CookieOptions: session.CookieOptions{Secure: cfg.Session.CookieSecure},
		Ready:         be.ready,

		TrustProxyHeaders: cfg.HTTP.TrustProxyHeaders,
	}
	a.server = httpserver.New(cfg.HTTP, deps)
	a.handler = a.server.Handler()
	return a, nil
}

func openBackend(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (backend, error) {
	if cfg.DatabaseURL != "" {
		db, err := storage.OpenSQL(ctx, cfg.DatabaseDriver, cfg.DatabaseURL)
		if err != nil {
			return backend{}, err
		}
		if err := migrations.Up(ctx, db); err != nil {
			_ = db.Close()
			return backend{}, err
		}
		if v, err := migrations.Version(ctx, db); err == nil {
			logger.Info("database schema ready", "driver", cfg.DatabaseDriver, "version", v)
		}

		accounts, err := auth.NewPostgresAccountStore(db)
		if err != nil {
			_ = db.Close()
			return backend{}, fmt.Errorf("create postgres account store: %w", err)
		}
		postStore, err := posts.NewPostgresStore(db)
		if err != nil {
			_ = db.Close()
			return backend{}, fmt.Errorf("create postgres post store: %w", err)
		}
		return backend{accounts: accounts, posts: postStore, ready: db.PingContext, close: db.Close}, nil
	}

	db, err := storage.OpenBadger(cfg.DataDir)
	if err != nil {
		return backend{}, err
	}
	accounts, err := auth.NewBadgerAccountStore(db)
	if err != nil {
		_ = db.Close()
		return backend{}, fmt.Errorf("create badger account store: %w", err)
	}
	postStore, err := posts.NewBadgerStore(db)
	if err != nil {
		_ = accounts.Close()
		_ = db.Close()
		return backend{}, fmt.Errorf("create badger post store: %w", err)
	}
	logger.Info("embedded store ready", "dir", cfg.DataDir)

	ready := func(context.Context) error {
		if db.IsClosed() {
			return errors.New("badger store is closed")
		}
		return nil
	}
	closeAll := func() error {
		// sequences must be released while the db is still open
		return errors.Join(accounts.Close(), postStore.Close(), db.Close())
	}
	return backend{accounts: accounts, posts: postStore, ready: ready, close: closeAll}, nil
}

func (a *App) openSessions(ctx context.Context) (session.Store, error) {
	if a.cfg.Session.RedisAddr != "" {
		client, err := session.NewRedisClient(ctx, a.cfg.Session.RedisAddr, a.cfg.Session.RedisPassword)
		if err != nil {
			return nil, fmt.Errorf("connect session redis: %w", err)
		}
		a.closers = append(a.closers, client.Close)
		a.log.Info("sessions stored in redis", "addr", a.cfg.Session.RedisAddr)
		return session.NewRedisStore(client), nil
	}
	a.memSessions = session.NewMemoryStore()
	return a.memSessions, nil
}

// Handler exposes the full HTTP handler chain.
func (a *App) Handler() http.Handler {
	return a.handler
}

func (a *App) Run(ctx context.Context) error {
	defer a.Close()

	if a.memSessions != nil {
		pruneCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go a.memSessions.RunPruner(pruneCtx, a.cfg.Session.PruneInterval)
	}

	errCh := make(chan error, 1)

	go func() {
		a.log.Info("http server starting", "addr", a.cfg.HTTP.Addr())
		errCh <- a.server.Start()
	}()

	select {
	case <-ctx.Done():
		a.log.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server exited: %w", err)
	}
}

// Close releases storage, Redis and the audit log. Run calls it on exit.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn("close resource failed", "error", err)
		}
	}
	a.closers = nil
}
