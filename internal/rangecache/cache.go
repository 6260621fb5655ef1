// Package rangecache answers aggregate queries over time ranges while
// fetching from the backend only the parts no earlier query has fetched.
//
// Cached ranges are grouped into fixed-width slot buckets. Buckets are evicted
// whole, least recently used first. A single mutex guards the buckets and is
// never held across a backend fetch, so concurrent queries fetch in parallel
// and may occasionally fetch the same gap twice.
package rangecache

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hashicorp/golang-lru/v2/simplelru"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"fill-stats/internal/aggregate"
	"fill-stats/internal/domain"
	"fill-stats/internal/observability"
)

// Defaults.
const (
	DefaultSlotSize         int64 = 4500
	DefaultCapacity               = 10000
	DefaultFetchConcurrency       = 8
	DefaultMaxSlots               = 1 << 20
)

// ErrRangeTooWide is returned for queries spanning more than MaxSlots slots.
var ErrRangeTooWide = errors.New("range spans too many slots")

// Fetcher loads all fills with timestamp in (start, end].
type Fetcher interface {
	Fetch(ctx context.Context, start, end int64) ([]*domain.Fill, error)
}

// Options configures a Cache. Zero values select the defaults.
type Options struct {
	SlotSize         int64
	Capacity         int
	FetchConcurrency int
	MaxSlots         uint64
	Logger           *zerolog.Logger
}

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	SlotHits   uint64
	SlotMisses uint64
	GapFetches uint64
	Evictions  uint64
	Buckets    int
}

// Cache is a range-coalescing fill cache. It is safe for concurrent use.
type Cache struct {
	fetcher          Fetcher
	slotSize         int64
	fetchConcurrency int
	maxSlots         uint64
	logger           zerolog.Logger

	mu      sync.Mutex
	buckets *simplelru.LRU[int64, *bucket]
	stats   Stats
}

// New creates a Cache in front of fetcher.
func New(fetcher Fetcher, opts Options) (*Cache, error) {
	if fetcher == nil {
		return nil, errors.New("rangecache: nil fetcher")
	}

	c := &Cache{
		fetcher:          fetcher,
		slotSize:         DefaultSlotSize,
		fetchConcurrency: DefaultFetchConcurrency,
		maxSlots:         DefaultMaxSlots,
		logger:           log.Logger,
	}
	if opts.SlotSize > 0 {
		c.slotSize = opts.SlotSize
	}
	if opts.FetchConcurrency > 0 {
		c.fetchConcurrency = opts.FetchConcurrency
	}
	if opts.MaxSlots > 0 {
		c.maxSlots = opts.MaxSlots
	}
	if opts.Logger != nil {
		c.logger = *opts.Logger
	}
	c.logger = c.logger.With().Str("component", "rangecache").Logger()

	capacity := opts.Capacity
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	buckets, err := simplelru.NewLRU[int64, *bucket](capacity, c.onEvict)
	if err != nil {
		return nil, fmt.Errorf("rangecache: %w", err)
	}
	c.buckets = buckets

	return c, nil
}

// gap is an uncovered sub-range of one slot.
type gap struct {
	slot  int64
	rng   domain.TimeRange
	fills []*domain.Fill
}

// Resolve returns the aggregate of kind over r. The result equals computing
// the aggregate directly over every fill in r, whatever the cache holds.
// Bounds outside the representable instants fail even when r is empty.
// Any fetch failure aborts the query; gaps fetched before the failure stay cached.
func (c *Cache) Resolve(ctx context.Context, kind domain.QueryKind, r domain.TimeRange) (domain.Count, error) {
	total := kind.Zero()
	if err := r.Validate(); err != nil {
		return total, fmt.Errorf("resolve %s: %w", r, err)
	}
	if r.Empty() {
		return total, nil
	}
	if n := slotCount(r, c.slotSize); n > c.maxSlots {
		return total, fmt.Errorf("resolve %s: %d slots: %w", r, n, ErrRangeTooWide)
	}

	var (
		hits []segment
		gaps []*gap
	)
	for _, sub := range splitBySlot(r, c.slotSize) {
		slot := Slot(sub.Start, c.slotSize)
		h, g := c.plan(slot, sub)
		hits = append(hits, h...)
		for _, rng := range g {
			gaps = append(gaps, &gap{slot: slot, rng: rng})
		}
	}

	if err := c.fetchGaps(ctx, gaps); err != nil {
		return kind.Zero(), err
	}

	for _, h := range hits {
		total = total.Merge(aggregate.Compute(kind, h.fills, h.window))
	}
	for _, g := range gaps {
		total = total.Merge(aggregate.Compute(kind, g.fills, g.rng))
	}

	c.logger.Debug().
		Str("kind", string(kind)).
		Stringer("range", r).
		Int("cached_segments", len(hits)).
		Int("fetched_gaps", len(gaps)).
		Msg("resolved")

	return total, nil
}

// plan looks up the bucket of slot and decides which parts of sub are cached.
func (c *Cache) plan(slot int64, sub domain.TimeRange) ([]segment, []domain.TimeRange) {
	c.mu.Lock()
	defer c.mu.Unlock()

	b, ok := c.buckets.Get(slot)
	if !ok {
		c.stats.SlotMisses++
		observability.RecordSlotLookup(false)
		return nil, []domain.TimeRange{sub}
	}

	c.stats.SlotHits++
	observability.RecordSlotLookup(true)
	return b.reconcile(sub)
}

// fetchGaps fetches every gap without holding the lock and caches each one as it completes.
func (c *Cache) fetchGaps(ctx context.Context, gaps []*gap) error {
	if len(gaps) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.fetchConcurrency)

	for _, gp := range gaps {
		g.Go(func() error {
			fills, err := c.fetcher.Fetch(gctx, gp.rng.Start, gp.rng.End)
			if err != nil {
				return fmt.Errorf("fetch gap %s: %w", gp.rng, err)
			}
			gp.fills = fills
			c.insert(gp.slot, gp.rng, fills)
			return nil
		})
	}

	return g.Wait()
}

// insert caches fills fetched for exactly r, creating the bucket if needed.
func (c *Cache) insert(slot int64, r domain.TimeRange, fills []*domain.Fill) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stats.GapFetches++
	observability.RecordGapFetch()

	b, ok := c.buckets.Get(slot)
	if !ok {
		b = newBucket()
		c.buckets.Add(slot, b)
		observability.UpdateBucketCount(c.buckets.Len())
	}
	b.put(r, fills)
}

// onEvict runs under c.mu from within buckets.Add.
func (c *Cache) onEvict(slot int64, b *bucket) {
	c.stats.Evictions++
	observability.RecordEviction()
	c.logger.Debug().Int64("slot", slot).Int("ranges", len(b.ranges)).Msg("evicted bucket")
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.stats
	s.Buckets = c.buckets.Len()
	return s
}

// Len returns the number of slot buckets currently held.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buckets.Len()
}

// ranges returns the cached ranges of slot in order. Used by tests.
func (c *Cache) ranges(slot int64) []domain.TimeRange {
	c.mu.Lock()
	defer c.mu.Unlock()

	b, ok := c.buckets.Peek(slot)
	if !ok {
		return nil
	}
	return b.sortedRanges()
}
