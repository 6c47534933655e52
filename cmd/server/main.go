package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"txn-store/internal/api"
	"txn-store/internal/config"
	"txn-store/internal/logging"
	"txn-store/internal/service"
	"txn-store/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLogger := logging.New("local", "info")
		bootLogger.Fatal().Err(err).Msg("invalid configuration")
	}
	logger := logging.New(cfg.Env, cfg.LogLevel)
	if cfg.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	transactionRepo, health, closeBackend, err := openBackend(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("backend", cfg.StoreBackend).Msg("failed to open store backend")
	}
	defer closeBackend()

	transactionService := service.NewTransactionService(transactionRepo, logger)

	if cfg.PendingTTL > 0 {
		sweeper := worker.NewPendingSweeper(transactionRepo, cfg.PendingTTL, cfg.SweepInterval, logger)
		go sweeper.Run(ctx)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: api.NewRouter(transactionService, logger, api.RouterConfig{
			CORSOrigins: cfg.CORSOrigins,
			Health:      health,
		}),
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Str("backend", cfg.StoreBackend).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("server error")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}
