package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"shopfront/internal/config"
	"shopfront/internal/log"
	"shopfront/internal/stubapi"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment)

	store := stubapi.NewStore()
	if cfg.Stub.Seed {
		if err := stubapi.Seed(store); err != nil {
			logger.Fatal().Err(err).Msg("seed failed")
		}
		logger.Info().Str("password", stubapi.SeedPassword).Msg("seeded demo accounts")
	}

	handlerSet := stubapi.NewHandlerSet(logger, cfg.Stub, store)
	httpServer := stubapi.NewHTTPServer(cfg, logger, handlerSet)

	janitor := stubapi.NewJanitor(store, cfg.Stub.CartTTL, logger)
	if err := janitor.Start(cfg.Stub.JanitorSpec); err != nil {
		logger.Error().Err(err).Msg("janitor start failed")
	}

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(logger, httpServer, janitor)
}

func waitForShutdown(logger zerolog.Logger, srv *stubapi.HTTPServer, janitor *stubapi.Janitor) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	janitor.Stop()

	logger.Info().Msg("server exited cleanly")
	os.Exit(0)
}
