package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"fill-stats/internal/config"
	"fill-stats/internal/ingestion"
	"fill-stats/internal/logging"
	"fill-stats/internal/source"
	"fill-stats/internal/storage"
)

// ingest loads a trades.csv file into PostgreSQL or ClickHouse.
func main() {
	tradesPath := flag.String("trades", "./trades.csv", "Path to trades.csv")
	target := flag.String("target", config.SourcePostgres, "Target store: postgres or clickhouse")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("FILLSTATS_POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("FILLSTATS_CLICKHOUSE_DSN"), "ClickHouse connection string")
	batchSize := flag.Int("batch-size", 5000, "Fills per insert batch")
	appendFills := flag.Bool("append", false, "Load into a non-empty store; fills are never deduplicated")
	logLevel := flag.String("log-level", "info", "Log level")
	flag.Parse()

	logging.Setup(*logLevel, "console")
	logger := log.With().Str("cmd", "ingest").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, *tradesPath, *target, *postgresDSN, *clickhouseDSN, *batchSize, *appendFills); err != nil {
		logger.Fatal().Err(err).Msg("ingest failed")
	}
}

func run(ctx context.Context, logger zerolog.Logger, tradesPath, target, postgresDSN, clickhouseDSN string, batchSize int, appendFills bool) error {
	fills, report, err := ingestion.ReadCSVFile(tradesPath)
	if err != nil {
		return err
	}
	logger.Info().
		Str("path", tradesPath).
		Int("rows", report.Rows).
		Int("loaded", report.Loaded).
		Int("skipped", report.Skipped).
		Msg("read trades file")

	ingestion.SortFills(fills)

	store, release, err := openTarget(ctx, target, postgresDSN, clickhouseDSN, logger)
	if err != nil {
		return err
	}
	defer release()

	// Rows sharing a sequence number are distinct fills, so a reload would double count.
	if !appendFills {
		existing, err := store.Count(ctx)
		if err != nil {
			return fmt.Errorf("count fills: %w", err)
		}
		if existing > 0 {
			return fmt.Errorf("target already holds %d fills; pass --append to load anyway", existing)
		}
	}

	loader := ingestion.NewLoader(ingestion.LoaderOptions{
		Store:     store,
		BatchSize: batchSize,
		Logger:    &logger,
	})
	result, err := loader.Load(ctx, fills)
	if err != nil {
		return err
	}

	total, err := store.Count(ctx)
	if err != nil {
		return fmt.Errorf("count fills: %w", err)
	}

	logger.Info().
		Int("inserted", result.Inserted).
		Int("batches", result.Batches).
		Int("stored_total", total).
		Str("took", result.Duration.Round(time.Millisecond).String()).
		Msg("ingest complete")
	return nil
}

func openTarget(ctx context.Context, target, postgresDSN, clickhouseDSN string, logger zerolog.Logger) (storage.FillStore, func(), error) {
	cfg := config.SourceConfig{Type: target, PostgresDSN: postgresDSN, ClickhouseDSN: clickhouseDSN}
	switch target {
	case config.SourcePostgres:
		if postgresDSN == "" {
			return nil, nil, fmt.Errorf("--postgres-dsn is required for postgres target")
		}
	case config.SourceClickhouse:
		if clickhouseDSN == "" {
			return nil, nil, fmt.Errorf("--clickhouse-dsn is required for clickhouse target")
		}
	default:
		return nil, nil, fmt.Errorf("unknown target %q", target)
	}
	return source.Open(ctx, cfg, logger)
}
