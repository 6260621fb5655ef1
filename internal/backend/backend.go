// Package backend is the slow fill lookup the range cache sits in front of.
//
// Fetch latency is proportional to the requested window: with the default
// 10µs per second, one day of data costs about one second.
package backend

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"fill-stats/internal/domain"
	"fill-stats/internal/observability"
	"fill-stats/internal/storage"
)

// Representable instant bounds in Unix seconds.
const (
	MinTimestamp = domain.MinTimestamp
	MaxTimestamp = domain.MaxTimestamp
)

// DefaultLatencyPerSecond is the delay charged per second of requested window.
const DefaultLatencyPerSecond = 10 * time.Microsecond

// ErrInvalidTimestamp is returned when a bound is not a representable instant.
var ErrInvalidTimestamp = domain.ErrInvalidTimestamp

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Backend serves fills from an immutable store with simulated latency.
type Backend struct {
	store            storage.FillStore
	latencyPerSecond time.Duration
	sleep            SleepFunc
	logger           zerolog.Logger

	fetches atomic.Int64
}

// Options configures a Backend.
type Options struct {
	// LatencyPerSecond defaults to DefaultLatencyPerSecond when nil.
	LatencyPerSecond *time.Duration
	// Sleep defaults to a context-aware timer.
	Sleep SleepFunc
	// Logger defaults to the global logger.
	Logger *zerolog.Logger
}

// New creates a Backend over store.
func New(store storage.FillStore, opts Options) *Backend {
	b := &Backend{
		store:            store,
		latencyPerSecond: DefaultLatencyPerSecond,
		sleep:            sleepContext,
		logger:           log.Logger,
	}
	if opts.LatencyPerSecond != nil {
		b.latencyPerSecond = *opts.LatencyPerSecond
	}
	if opts.Sleep != nil {
		b.sleep = opts.Sleep
	}
	if opts.Logger != nil {
		b.logger = *opts.Logger
	}
	b.logger = b.logger.With().Str("component", "backend").Logger()
	return b
}

// Fetch returns all fills with timestamp in (start, end].
// Fails with ErrInvalidTimestamp if either bound is out of range.
func (b *Backend) Fetch(ctx context.Context, start, end int64) (fills []*domain.Fill, err error) {
	b.fetches.Add(1)
	started := time.Now()
	defer func() {
		observability.RecordBackendFetch(domain.NewTimeRange(start, end).Length(), time.Since(started).Seconds(), err)
	}()

	if err := domain.NewTimeRange(start, end).Validate(); err != nil {
		return nil, fmt.Errorf("fetch (%d, %d]: %w", start, end, err)
	}

	if err := b.sleep(ctx, Latency(start, end, b.latencyPerSecond)); err != nil {
		return nil, fmt.Errorf("fetch (%d, %d]: %w", start, end, err)
	}

	fills, err = b.store.GetByTimeRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("fetch (%d, %d]: %w", start, end, err)
	}

	b.logger.Debug().
		Int64("start", start).
		Int64("end", end).
		Int("fills", len(fills)).
		Dur("took", time.Since(started)).
		Msg("fetched fills")

	return fills, nil
}

// Fetches returns the number of Fetch calls made so far, failed ones included.
func (b *Backend) Fetches() int64 {
	return b.fetches.Load()
}

// Latency returns the simulated cost of fetching (start, end].
// Inverted windows cost nothing. The result saturates instead of overflowing.
func Latency(start, end int64, perSecond time.Duration) time.Duration {
	if perSecond <= 0 {
		return 0
	}
	length := domain.NewTimeRange(start, end).Length()
	if length > uint64(math.MaxInt64/int64(perSecond)) {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(length) * perSecond
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
