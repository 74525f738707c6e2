package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/GlarosConsulting/atena-client/config"
	"github.com/GlarosConsulting/atena-client/internal/atena"
	"github.com/GlarosConsulting/atena-client/internal/dashboard"
	"github.com/GlarosConsulting/atena-client/internal/handlers"
	"github.com/GlarosConsulting/atena-client/internal/middleware"
	"github.com/GlarosConsulting/atena-client/internal/routes"
	"github.com/GlarosConsulting/atena-client/internal/session"
	"github.com/GlarosConsulting/atena-client/internal/warnings"
)

const (
	shutdownTimeout = 10 * time.Second
	purgeInterval   = 15 * time.Minute
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP gateway",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	setupLogger(cfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := atena.New(cfg.APIURL, cfg.APITimeout)
	if err != nil {
		return err
	}

	evaluator, err := newEvaluator(cfg)
	if err != nil {
		return err
	}

	var db *gorm.DB
	if cfg.DBURL != "" {
		if db, err = config.ConnectDB(cfg.DBURL); err != nil {
			return err
		}
	}

	store, err := newStore(ctx, cfg, db)
	if err != nil {
		return err
	}

	gate := session.NewGate(store, client, session.Options{
		TTL:             cfg.SessionTTL,
		RefreshInterval: cfg.UserRefreshInterval,
	})
	tokens := &middleware.Tokens{
		Secret: []byte(cfg.JWTSecret),
		TTL:    cfg.SessionTTL,
		Secure: cfg.SecureCookies,
	}
	svc := dashboard.NewService(client, evaluator)
	h, err := handlers.New(gate, tokens, client, svc, db)
	if err != nil {
		return fmt.Errorf("prepare handlers: %w", err)
	}
	go sweepSearches(ctx, svc, cfg.SessionTTL)

	if slogDebug(cfg) {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           routes.NewRouter(h),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		slog.Info("Gateway listening", "addr", cfg.HTTPAddr, "api", cfg.APIURL, "session_store", cfg.SessionStore)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Shutting down gateway")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func slogDebug(cfg config.Config) bool {
	return cfg.SlogLevel() == slog.LevelDebug
}

func newEvaluator(cfg config.Config) (*warnings.Evaluator, error) {
	rules := make([]warnings.Rule, 0, len(cfg.WarningRules))
	for _, r := range cfg.WarningRules {
		rules = append(rules, warnings.Rule{Name: r.Name, Expression: r.Expression})
	}
	return warnings.NewEvaluator(rules)
}

// newStore builds the configured session store. The database store also gets
// a background purge of expired sessions.
func newStore(ctx context.Context, cfg config.Config, db *gorm.DB) (session.Store, error) {
	switch cfg.SessionStore {
	case config.StoreRedis:
		rdb, err := config.ConnectRedis(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, err
		}
		go func() {
			<-ctx.Done()
			_ = rdb.Close()
		}()
		return session.NewRedisStore(rdb), nil
	case config.StoreDB:
		store, err := session.NewGormStore(db)
		if err != nil {
			return nil, err
		}
		go purgeSessions(ctx, store)
		return store, nil
	default:
		return session.NewMemoryStore(), nil
	}
}

// sweepSearches forgets the searches of sessions idle for longer than the
// session TTL, which covers sessions that expired without signing out.
func sweepSearches(ctx context.Context, svc *dashboard.Service, idle time.Duration) {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := svc.Sweep(idle); n > 0 {
				slog.Info("Dropped idle dashboard searches", "count", n)
			}
		}
	}
}

func purgeSessions(ctx context.Context, store *session.GormStore) {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := store.PurgeExpired(ctx)
			if err != nil {
				slog.Error("Failed to purge expired sessions", "error", err)
				continue
			}
			if n > 0 {
				slog.Info("Purged expired sessions", "count", n)
			}
		}
	}
}
