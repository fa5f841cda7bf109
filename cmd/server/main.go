package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anonto42/wagwan/backend/internal/handlers"
	"github.com/anonto42/wagwan/backend/internal/repositories"
	"github.com/anonto42/wagwan/backend/internal/router"
	"github.com/anonto42/wagwan/backend/pkg/config"
	"github.com/anonto42/wagwan/backend/pkg/firebase"
	"github.com/anonto42/wagwan/backend/pkg/livekit"
	"github.com/anonto42/wagwan/backend/pkg/logger"
	"github.com/labstack/echo/v4"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		logger.Errorf("Server exited: %v", err)
		stop()
		os.Exit(1)
	}
}

// run serves until ctx is cancelled or the listener fails. Every deferred
// cleanup runs before it returns.
func run(ctx context.Context) error {
	// Load configuration
	cfg := config.Load()
	logger.Init(cfg.LogLevel)
	logger.Infof("Starting wagwan backend (%s)", cfg.Env)

	// Initialize database connections
	db, err := config.InitDB(cfg)
	if err != nil {
		return fmt.Errorf("initialize databases: %w", err)
	}
	defer db.CloseDB()

	if err := repositories.Migrate(db.Postgres); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	logger.Info("PostgreSQL migrations completed.")

	deps := router.Dependencies{
		Postgres:     db.Postgres,
		Redis:        db.Redis,
		UserCacheTTL: cfg.UserCacheTTL,
		TokenSigner:  livekit.NewTokenSigner(cfg.LivekitAPIKey, cfg.LivekitAPISecret, cfg.LivekitTokenTTL),
	}
	if db.Mongo != nil {
		deps.Mongo = db.Mongo.Database(cfg.MongoDatabase)
	}
	if cfg.LivekitAPIKey == "" || cfg.LivekitAPISecret == "" {
		logger.Warnf("LIVEKIT_API_KEY/LIVEKIT_API_SECRET not set, room tokens will fail")
	}

	// Initialize Firebase
	if cfg.FirebaseCredentialsPath != "" {
		firebaseApp, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath)
		if err != nil {
			return fmt.Errorf("initialize Firebase: %w", err)
		}
		deps.TokenVerifier = firebaseApp.AuthClient
	}

	e := echo.New()
	e.HideBanner = true
	e.Debug = !cfg.IsProduction()
	e.HTTPErrorHandler = handlers.HTTPErrorHandler

	config.SetupMiddleware(e)
	router.SetupRoutes(e, deps)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- e.Start(":" + cfg.Port)
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}
