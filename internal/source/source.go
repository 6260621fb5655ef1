// Package source opens the fill store selected by configuration.
package source

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"fill-stats/internal/config"
	"fill-stats/internal/ingestion"
	"fill-stats/internal/storage"
	chstore "fill-stats/internal/storage/clickhouse"
	"fill-stats/internal/storage/memory"
	"fill-stats/internal/storage/migrations"
	pgstore "fill-stats/internal/storage/postgres"
)

// Open returns the configured fill store and a function releasing it.
// A CSV source is read fully into memory; database sources are migrated first.
func Open(ctx context.Context, cfg config.SourceConfig, logger zerolog.Logger) (storage.FillStore, func(), error) {
	switch cfg.Type {
	case config.SourceCSV:
		store, err := LoadCSV(ctx, cfg.TradesPath, logger)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil

	case config.SourcePostgres:
		pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN, 0)
		if err != nil {
			return nil, nil, err
		}
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("postgres migrations: %w", err)
		}
		logger.Info().Msg("using postgres fill store")
		return pgstore.NewFillStore(pool), pool.Close, nil

	case config.SourceClickhouse:
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickhouseDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
		}
		logger.Info().Msg("using clickhouse fill store")
		return chstore.NewFillStore(conn), func() { _ = conn.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown source %q", cfg.Type)
	}
}

// LoadCSV reads path into a new in-memory store.
func LoadCSV(ctx context.Context, path string, logger zerolog.Logger) (*memory.FillStore, error) {
	fills, report, err := ingestion.ReadCSVFile(path)
	if err != nil {
		return nil, err
	}

	store := memory.NewFillStore()
	loader := ingestion.NewLoader(ingestion.LoaderOptions{Store: store, Logger: &logger})
	result, err := loader.Load(ctx, fills)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	logger.Info().
		Str("path", path).
		Int("rows", report.Rows).
		Int("skipped_rows", report.Skipped).
		Int("inserted", result.Inserted).
		Msg("loaded fills from csv")

	return store, nil
}
