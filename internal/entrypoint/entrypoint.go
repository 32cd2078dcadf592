package entrypoint

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/mlutsenko/bookshelf/internal/auth"
	"github.com/mlutsenko/bookshelf/internal/config"
	http_controllers "github.com/mlutsenko/bookshelf/internal/http"
	"github.com/mlutsenko/bookshelf/internal/storage"
	"github.com/mlutsenko/bookshelf/internal/storage/factory"
	"github.com/mlutsenko/bookshelf/internal/storage/sqlstore"
	"github.com/mlutsenko/bookshelf/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// Serve runs the HTTP server until SIGINT/SIGTERM, then shuts it down
// within the configured timeout.
func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		logrus.Infof("Starting server at %s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("listen: %s", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server.
	// kill (no param) sends SIGTERM, kill -2 is SIGINT; SIGKILL can't be
	// caught so there is no point adding it.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Infof("Shutdown signal received, waiting up to %v", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop background work before the listener goes away
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		logrus.Fatalf("Server shutdown: %v", err)
	}

	logrus.Info("Server exiting")
}

// Run wires the selected storage backend, sessions, auth and the router,
// then serves until shutdown.
func Run(cfg *config.Config, version string) {
	logrus.Infof("Starting Bookshelf v%s (backend: %s)", version, cfg.Storage.Backend)

	ctx := context.Background()

	store, err := factory.Open(ctx, cfg)
	if err != nil {
		if errors.Is(err, storage.ErrUnavailable) {
			logrus.Fatalf("Storage backend %q is unreachable: %v", cfg.Storage.Backend, err)
		}
		logrus.Fatalf("Failed to initialize storage: %v", err)
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			logrus.Errorf("Error closing storage: %v", err)
		}
	}()

	// Sessions persist in the relational database when it is the active
	// backend; the other backends fall back to the in-memory store.
	var sqlDB *sql.DB
	if s, ok := store.(*sqlstore.Store); ok {
		sqlDB, err = s.SQLDB()
		if err != nil {
			logrus.Fatalf("Failed to get SQL DB for sessions: %v", err)
		}
	}

	sessionManager, err := auth.NewSessionManager(sqlDB, cfg.Auth)
	if err != nil {
		logrus.Fatalf("Failed to initialize session manager: %v", err)
	}

	authService := auth.NewService(store, cfg.Auth)
	if !authService.Enabled() {
		logrus.Warnf("Backend %q has no user support; accounts and reviews are disabled", cfg.Storage.Backend)
	}

	csrfSecret := resolveSecret(cfg.Auth.SessionSecret, "AUTH_SESSION_SECRET")

	if cfg.Auth.JWTSecret == "" {
		secret, err := auth.GenerateSessionSecret()
		if err != nil {
			logrus.Fatalf("Failed to generate JWT secret: %v", err)
		}
		cfg.Auth.JWTSecret = secret
		logrus.Warn("Generated JWT secret (set AUTH_JWT_SECRET to persist); issued tokens expire on restart")
	}

	routerCfg := http_controllers.RouterConfig{
		Store:          store,
		AuthService:    authService,
		SessionManager: sessionManager,
		CSRFSecret:     csrfSecret,
		SecureCookies:  cfg.Auth.SecureCookies,
		TemplatesPath:  cfg.UI.TemplatesPath,
		StaticPath:     cfg.UI.StaticPath,
		AuthConfig:     cfg.Auth,
		PageSize:       cfg.List.PageSize,
		Version:        version,
	}

	router := http_controllers.NewRouter(routerCfg)

	sweeper := tasks.NewReviewSweeper(store, cfg.ReviewSweep)
	if err := sweeper.Start(); err != nil {
		logrus.Fatalf("Failed to start review sweeper: %v", err)
	}

	onShutdown := func(ctx context.Context) {
		sweeper.Stop()
	}

	Serve(router, cfg, onShutdown)
}

// SweepReviews opens the configured backend, runs a single orphan-review
// sweep and reports the number of removed rows. Used by the one-shot CLI
// command.
func SweepReviews(cfg *config.Config) (int64, error) {
	ctx := context.Background()

	store, err := factory.Open(ctx, cfg)
	if err != nil {
		return 0, fmt.Errorf("initializing storage: %w", err)
	}
	defer store.Close(context.Background())

	sweeper := tasks.NewReviewSweeper(store, cfg.ReviewSweep)
	return sweeper.RunOnce(ctx)
}

// resolveSecret decodes a configured secret, accepting hex or raw bytes,
// and generates a fresh one when none is set.
func resolveSecret(configured, envName string) []byte {
	if configured != "" {
		if decoded, err := hex.DecodeString(configured); err == nil {
			return decoded
		}
		return []byte(configured)
	}

	secret, err := auth.GenerateSessionSecret()
	if err != nil {
		logrus.Fatalf("Failed to generate secret: %v", err)
	}
	decoded, _ := hex.DecodeString(secret)
	logrus.Warnf("Generated session secret (set %s to persist)", envName)
	return decoded
}
