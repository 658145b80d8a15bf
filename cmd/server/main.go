package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"expense-api/internal/apperr"
	"expense-api/internal/auth"
	"expense-api/internal/config"
	"expense-api/internal/handlers"
	"expense-api/internal/logging"
	"expense-api/internal/metrics"
	"expense-api/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server.exit", "err", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()
	log := logging.NewLogger(os.Stdout, cfg.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	db, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	sessions := auth.NewSessionManager(db, cfg.SessionTTL)
	m := metrics.New()

	if err := bootstrapAdmin(ctx, db, sessions, cfg, log); err != nil {
		return err
	}

	h := handlers.NewHandlers(db, sessions, handlers.Options{
		CookieName:   cfg.SessionCookie,
		SecureCookie: cfg.SecureCookie,
		StaticDir:    cfg.StaticDir,
		Logger:       log,
		Metrics:      m,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           setupRouter(h, cfg.StaticDir, m, log, cfg.CORSOrigin),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go pruneSessions(ctx, sessions, cfg.SessionPruneInterval, m, log)

	errCh := make(chan error, 1)
	go func() {
		log.Info("server.listen", "addr", srv.Addr, "db_driver", db.Dialect())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("listen: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("server.shutdown")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("server.stopped")
	return nil
}

func openDB(ctx context.Context, cfg config.Config) (*storage.DB, error) {
	var (
		db  *storage.DB
		err error
	)
	switch cfg.DBDriver {
	case "postgres", "pgx":
		db, err = storage.Open(ctx, storage.Postgres, cfg.DBURL)
	default:
		db, err = storage.Open(ctx, storage.SQLite, cfg.DBPath)
	}
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.DBMaxConns)
	return db, nil
}

// bootstrapAdmin creates the configured admin account on a database with no users yet.
func bootstrapAdmin(ctx context.Context, db *storage.DB, sessions *auth.SessionManager, cfg config.Config, log *slog.Logger) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}
	username := cfg.AdminUser
	if username == "" {
		username = "admin"
	}

	n, err := db.UserCount(ctx)
	if err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}
	if n > 0 {
		log.Info("admin.skip", "users", n)
		return nil
	}

	user, err := sessions.Register(ctx, cfg.AdminEmail, username, cfg.AdminPassword)
	switch {
	case apperr.IsConflict(err):
		log.Info("admin.exists", "email", cfg.AdminEmail)
		return nil
	case err != nil:
		return fmt.Errorf("bootstrap admin: %w", err)
	}
	log.Info("admin.created", "user_id", user.ID)
	return nil
}

func pruneSessions(ctx context.Context, sessions *auth.SessionManager, every time.Duration, m *metrics.Metrics, log *slog.Logger) {
	if every <= 0 {
		return
	}
	t := time.NewTicker(every)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := sessions.Prune(ctx)
			if err != nil {
				log.Warn("session.prune.fail", "err", err)
				continue
			}
			m.ObservePruned(n)
			if n > 0 {
				log.Info("session.prune", "removed", n)
			}
		}
	}
}

func setupRouter(h *handlers.Handlers, staticDir string, m *metrics.Metrics, log *slog.Logger, corsOrigin string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(logging.WithRequestLogging(log))
	r.Use(m.Middleware)
	r.Use(middleware.Recoverer)
	r.Use(handlers.WithCORS(corsOrigin))

	if staticDir != "" {
		fs := http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir)))
		r.Handle("/static/*", fs)
	}
	if m != nil {
		r.Handle("/metrics", m.Handler())
	}

	h.Routes(r)
	return r
}
