package ingestion

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"fill-stats/internal/domain"
	"fill-stats/internal/storage"
)

// Loader writes fills into a FillStore in batches.
type Loader struct {
	store     storage.FillStore
	batchSize int
	logger    zerolog.Logger
}

// LoaderOptions contains configuration for creating a Loader.
type LoaderOptions struct {
	Store     storage.FillStore
	BatchSize int
	Logger    *zerolog.Logger
}

// NewLoader creates a new fill loader.
func NewLoader(opts LoaderOptions) *Loader {
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = 5000
	}

	logger := log.Logger
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	return &Loader{
		store:     opts.Store,
		batchSize: batchSize,
		logger:    logger.With().Str("component", "loader").Logger(),
	}
}

// LoadResult contains statistics from a load.
type LoadResult struct {
	Inserted int
	Batches  int
	Duration time.Duration
}

// Load inserts fills batch by batch. Every row is stored, including rows that
// share a sequence number with another fill.
func (l *Loader) Load(ctx context.Context, fills []*domain.Fill) (*LoadResult, error) {
	started := time.Now()
	result := &LoadResult{}

	SortFills(fills)

	for from := 0; from < len(fills); from += l.batchSize {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		to := min(from+l.batchSize, len(fills))
		if err := l.store.InsertBulk(ctx, fills[from:to]); err != nil {
			return result, fmt.Errorf("insert batch [%d:%d]: %w", from, to, err)
		}
		result.Inserted += to - from
		result.Batches++

		l.logger.Debug().Int("inserted", result.Inserted).Int("total", len(fills)).Msg("batch stored")
	}

	result.Duration = time.Since(started)
	return result, nil
}
