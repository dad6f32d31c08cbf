package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ceassist/internal/bootstrap"
	"ceassist/internal/config"
	"ceassist/internal/server"

	"github.com/rs/zerolog/log"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Setup logger
	logger := cfg.SetupLogger()
	log.Logger = logger

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize service")
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close service")
		}
	}()

	// Create and initialize server
	srv := server.New(cfg, app.Service, app.DB, logger)
	srv.Initialize()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("Server failed to start")
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("Graceful shutdown failed")
		}
	}
}
