package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"budgetbuddy/internal/auth"
	"budgetbuddy/internal/backend"
	"budgetbuddy/internal/config"
	"budgetbuddy/internal/events"
	apphttp "budgetbuddy/internal/http"
	"budgetbuddy/internal/storage/file"
	"budgetbuddy/internal/storage/mongodb"
)

func main() {
	// Setup structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Local development convenience; a missing .env is fine.
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}
	if cfg.JWTSecret == config.DefaultJWTSecret {
		logger.Warn("JWT_SECRET is not set, using the development default; tokens are forgeable")
	}

	// The file store always opens; the document database is best
	// effort and probed again on every request.
	fallback := file.Open(cfg.DataFile)

	var (
		primary *mongodb.Store
		pinger  backend.Pinger
	)
	if p, err := mongodb.New(cfg.MongoURI, cfg.MongoDB, cfg.ProbeTimeout); err != nil {
		logger.Warn("Document database client unavailable, serving from file store only", "error", err)
	} else {
		primary = p
		pinger = p
		defer primary.Close(context.Background())
	}

	var store *backend.Selector
	if primary != nil {
		store = backend.NewSelector(primary, pinger, fallback, cfg.ProbeTimeout)
	} else {
		store = backend.NewSelector(nil, nil, fallback, cfg.ProbeTimeout)
	}

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)

	var publisher *events.Client
	if cfg.AMQPURL != "" {
		p, err := events.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Event broker unavailable, ledger events disabled", "error", err)
		} else {
			publisher = p
			defer publisher.Close()
			logger.Info("Ledger event publishing enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	srv := apphttp.NewServer(":"+cfg.Port, store, tokens, publisher)

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	// Graceful shutdown handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting budgetbuddy server", "port", cfg.Port, "data_file", cfg.DataFile, "primary_configured", primary != nil)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
