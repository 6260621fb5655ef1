package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"fill-stats/internal/backend"
	"fill-stats/internal/config"
	"fill-stats/internal/engine"
	"fill-stats/internal/logging"
	"fill-stats/internal/observability"
	"fill-stats/internal/rangecache"
	"fill-stats/internal/source"
)

// fillstats reads "<KIND> <START> <END>" queries from stdin and prints one
// result per line to stdout, in input order.
func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Setup("info", "console")
		log.Fatal().Err(err).Msg("load config")
	}

	sourceType := flag.String("source", cfg.Source.Type, "Fill source: csv, postgres, or clickhouse")
	tradesPath := flag.String("trades", cfg.Source.TradesPath, "Path to trades.csv (csv source)")
	postgresDSN := flag.String("postgres-dsn", cfg.Source.PostgresDSN, "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", cfg.Source.ClickhouseDSN, "ClickHouse connection string")
	cacheSize := flag.Int("cache-size", cfg.Cache.Size, "Maximum number of cached slot buckets")
	latency := flag.Duration("latency", cfg.Backend.LatencyPerSecond, "Simulated backend latency per second of window")
	metricsAddr := flag.String("metrics-addr", cfg.Server.MetricsAddr, "Prometheus metrics HTTP address (empty to disable)")
	logLevel := flag.String("log-level", cfg.Logging.Level, "Log level")
	flag.Parse()

	cfg.Source.Type = *sourceType
	cfg.Source.TradesPath = *tradesPath
	cfg.Source.PostgresDSN = *postgresDSN
	cfg.Source.ClickhouseDSN = *clickhouseDSN
	cfg.Cache.Size = *cacheSize
	cfg.Backend.LatencyPerSecond = *latency
	cfg.Logging.Level = *logLevel

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	logger := log.With().Str("cmd", "fillstats").Logger()

	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}
	logger.Debug().Str("config", cfg.String()).Msg("starting")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			srv := &http.Server{Addr: *metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
			logger.Info().Str("addr", *metricsAddr).Msg("starting metrics server")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Msg("metrics server error")
			}
		}()
	}

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

	eng := engine.New(cache, engine.Options{Logger: &logger})
	if err := eng.Run(ctx, os.Stdin, os.Stdout); err != nil {
		logger.Error().Err(err).Msg("query run failed")
		release()
		os.Exit(1)
	}

	stats := cache.Stats()
	logger.Info().
		Uint64("slot_hits", stats.SlotHits).
		Uint64("slot_misses", stats.SlotMisses).
		Uint64("gap_fetches", stats.GapFetches).
		Uint64("evictions", stats.Evictions).
		Int64("backend_fetches", be.Fetches()).
		Msg("done")
}
