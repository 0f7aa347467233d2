package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/whowhywhen/whowhywhen/internal/alert"
	"github.com/whowhywhen/whowhywhen/internal/cache"
	"github.com/whowhywhen/whowhywhen/internal/config"
	"github.com/whowhywhen/whowhywhen/internal/database"
	"github.com/whowhywhen/whowhywhen/internal/observability"
	"github.com/whowhywhen/whowhywhen/internal/server"
)

func main() {
	_ = godotenv.Load()

	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := database.RunMigrations(ctx, cfg.Database.DSN()); err != nil {
		logger.Fatal().Err(err).Msg("migrations failed")
	}

	pool, err := database.NewPool(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("database pool")
	}
	defer pool.Close()

	queryCache, err := cache.New(ctx, cfg.Cache)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis cache")
	}

	nrApp, err := observability.NewApplication(cfg.Observability)
	if err != nil {
		logger.Fatal().Err(err).Msg("new relic")
	}

	srv := server.New(cfg, pool, queryCache, nrApp, logger)

	var sink alert.Sink
	if cfg.Alerting.WebhookURL != "" {
		sink = alert.NewWebhookSink(cfg.Alerting.WebhookURL)
	} else {
		sink = &alert.LogSink{Logger: logger}
	}
	evaluator := alert.NewEvaluator(srv.Alerts, srv.Logs, sink,
		time.Duration(cfg.Alerting.DeliveryTimeoutSeconds)*time.Second, logger)
	go evaluator.Run(ctx, time.Duration(cfg.Alerting.ScanIntervalMinutes)*time.Minute)

	logger.Info().Str("port", cfg.Server.Port).Str("env", cfg.Primary.Env).Msg("starting whowhywhen")
	if err := srv.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("server exited")
		os.Exit(1)
	}
	logger.Info().Msg("shutdown complete")
}
