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

	"github.com/joho/godotenv"

	"github.com/latoulicious/transpose/internal/config"
	"github.com/latoulicious/transpose/internal/handlers"
	"github.com/latoulicious/transpose/internal/log"
	"github.com/latoulicious/transpose/pkg/fetch"
	"github.com/latoulicious/transpose/pkg/pipeline"
	"github.com/latoulicious/transpose/pkg/reaper"
	"github.com/latoulicious/transpose/pkg/transform"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load environment variables from .env file when present; a missing
	// file is fine in containerised deployments.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log.Configure(log.Config{Mode: cfg.Mode})
	logger := log.WithComponent("main")

	pcfg := pipeline.DefaultConfig(cfg.TempDir)
	fetcher := fetch.NewClient(pcfg.FetchTimeout)
	transformer := transform.New(cfg.FFmpegPath, pcfg.TransformTimeout)

	manager, err := pipeline.NewManager(pcfg, fetcher, transformer)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build pipeline")
	}
	defer manager.Close()

	sweeper := reaper.New(cfg.TempDir, reaper.DefaultMaxAge)
	if err := sweeper.Start(reaper.DefaultSchedule); err != nil {
		logger.Fatal().Err(err).Msg("failed to start temp-file reaper")
	}
	defer sweeper.Stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handlers.NewServer(cfg, manager, fetcher).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().
			Str("event", "server.start").
			Int("port", cfg.Port).
			Str("mode", cfg.Mode).
			Str("temp_dir", cfg.TempDir).
			Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait here until CTRL-C or other term signal is received.
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	logger.Info().Str("event", "server.shutdown").Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}
