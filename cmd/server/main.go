// Command server runs the maestros back-office API.
//
//	@title						Maestros API
//	@version					1.0
//	@description				Back-office ledger of maestros, their movements and users.
//	@BasePath					/
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	_ "github.com/biblioteca/maestros-api/docs"
	"github.com/biblioteca/maestros-api/internal/api"
	"github.com/biblioteca/maestros-api/internal/core/service"
	"github.com/biblioteca/maestros-api/internal/infrastructure/backend"
	"github.com/biblioteca/maestros-api/internal/infrastructure/queue"
	"github.com/biblioteca/maestros-api/internal/pkg/config"
	"github.com/biblioteca/maestros-api/internal/seed"
	"github.com/biblioteca/maestros-api/pkg/logger"
)

const (
	devJWTSecret    = "dev-secret-change-me"
	shutdownTimeout = 15 * time.Second
)

func main() {
	// .env is optional; real environment variables take precedence.
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "maestros-api",
	})

	if cfg.JWTSecret == "" {
		log.Warn().Msg("JWT_SECRET not set, using development secret")
		cfg.JWTSecret = devJWTSecret
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backends, err := backend.Build(ctx, cfg, logger.ForComponent("backend"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialise backends")
	}
	defer func() {
		if err := backends.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close backends")
		}
	}()

	if cfg.Seed.Enabled {
		accounts := seed.DemoAccounts(cfg.Seed.AdminEmail, cfg.Seed.AdminPassword, cfg.Seed.UserEmail, cfg.Seed.UserPassword)
		if err := seed.Users(ctx, backends.Store, accounts, logger.ForComponent("seed")); err != nil {
			log.Fatal().Err(err).Msg("failed to seed users")
		}
	}

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()
	dispatcher := queue.NewDispatcher(cfg.Workers.Count, backends.Publisher, logger.ForComponent("dispatcher"))
	dispatcher.Start(workerCtx)

	ledger := service.NewLedgerService(backends.Store, backends.Idempotency, dispatcher, logger.ForComponent("ledger"))
	auth := service.NewAuthService(backends.Store, cfg.JWTSecret, cfg.TokenTTL)

	e := api.NewRouter(api.Deps{
		Ledger:    ledger,
		Auth:      auth,
		JWTSecret: cfg.JWTSecret,
		Checks:    backends.Checks,
		Log:       logger.ForComponent("http"),
	})

	go func() {
		log.Info().Str("port", cfg.Port).Str("store", cfg.StoreBackend).Str("events", cfg.EventsBackend).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server stopped unexpectedly")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
	if err := dispatcher.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("pending events not published before shutdown")
	}
	log.Info().Msg("server exited")
}
