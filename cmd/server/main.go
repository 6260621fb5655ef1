// Package main runs the websocket query server. Clients send batches of
// "<KIND> <START> <END>" lines and receive the results in order. The server
// also exposes /metrics, /healthz and /status.
package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"fill-stats/internal/backend"
	"fill-stats/internal/config"
	"fill-stats/internal/logging"
	"fill-stats/internal/rangecache"
	"fill-stats/internal/source"
	"fill-stats/internal/wsapi"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Setup("info", "console")
		log.Fatal().Err(err).Msg("load config")
	}

	listenAddr := flag.String("listen-addr", cfg.Server.ListenAddr, "HTTP listen address")
	sourceType := flag.String("source", cfg.Source.Type, "Fill source: csv, postgres, or clickhouse")
	tradesPath := flag.String("trades", cfg.Source.TradesPath, "Path to trades.csv (csv source)")
	logFormat := flag.String("log-format", cfg.Logging.Format, "Log format: console or json")
	flag.Parse()

	cfg.Server.ListenAddr = *listenAddr
	cfg.Source.Type = *sourceType
	cfg.Source.TradesPath = *tradesPath
	cfg.Logging.Format = *logFormat

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	logger := log.With().Str("cmd", "server").Logger()

	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}
	logger.Info().Str("config", cfg.String()).Msg("starting")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, release, err := source.Open(ctx, cfg.Source, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("open fill source")
	}
	defer release()

	be := backend.New(store, backend.Options{LatencyPerSecond: &cfg.Backend.LatencyPerSecond, Logger: &logger})
	cache, err := rangecache.New(be, rangecache.Options{
		SlotSize:         cfg.Cache.SlotSize,
		Capacity:         cfg.Cache.Size,
		FetchConcurrency: cfg.Cache.FetchConcurrency,
		Logger:           &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("create cache")
	}

	srv := &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           wsapi.NewMux(wsapi.NewHandler(cache, &logger), cache),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Info().Str("signal", sig.String()).Msg("initiating graceful shutdown")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("graceful shutdown failed")
		}
		// Hijacked websocket connections are not tracked by Shutdown.
		cancel()
	}()

	logger.Info().Str("addr", cfg.Server.ListenAddr).Msg("listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server error")
	}

	stats := cache.Stats()
	logger.Info().
		Uint64("slot_hits", stats.SlotHits).
		Uint64("slot_misses", stats.SlotMisses).
		Uint64("evictions", stats.Evictions).
		Int64("backend_fetches", be.Fetches()).
		Msg("shutdown complete")
}
