package rangecache

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"fill-stats/internal/domain"
)

func tr(start, end int64) domain.TimeRange {
	return domain.NewTimeRange(start, end)
}

func windows(hits []segment) []domain.TimeRange {
	out := make([]domain.TimeRange, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.window)
	}
	return out
}

func TestBucket_Reconcile(t *testing.T) {
	tests := []struct {
		name   string
		cached []domain.TimeRange
		// stored ranges bypass put, so they may overlap each other
		stored   []domain.TimeRange
		query    domain.TimeRange
		wantHits []domain.TimeRange
		wantGaps []domain.TimeRange
	}{
		{
			name:     "empty bucket",
			query:    tr(10, 20),
			wantHits: []domain.TimeRange{},
			wantGaps: []domain.TimeRange{tr(10, 20)},
		},
		{
			name:     "contained",
			cached:   []domain.TimeRange{tr(0, 100)},
			query:    tr(10, 20),
			wantHits: []domain.TimeRange{tr(10, 20)},
		},
		{
			name:     "exact match",
			cached:   []domain.TimeRange{tr(10, 20)},
			query:    tr(10, 20),
			wantHits: []domain.TimeRange{tr(10, 20)},
		},
		{
			name:     "containing",
			cached:   []domain.TimeRange{tr(30, 40)},
			query:    tr(10, 50),
			wantHits: []domain.TimeRange{tr(30, 40)},
			wantGaps: []domain.TimeRange{tr(10, 30), tr(40, 50)},
		},
		{
			name:     "overlap before",
			cached:   []domain.TimeRange{tr(15, 30)},
			query:    tr(10, 20),
			wantHits: []domain.TimeRange{tr(15, 20)},
			wantGaps: []domain.TimeRange{tr(10, 15)},
		},
		{
			name:     "overlap after",
			cached:   []domain.TimeRange{tr(0, 15)},
			query:    tr(10, 20),
			wantHits: []domain.TimeRange{tr(10, 15)},
			wantGaps: []domain.TimeRange{tr(15, 20)},
		},
		{
			name:     "disjoint",
			cached:   []domain.TimeRange{tr(0, 10), tr(20, 30)},
			query:    tr(10, 20),
			wantHits: []domain.TimeRange{},
			wantGaps: []domain.TimeRange{tr(10, 20)},
		},
		{
			name:     "several containing",
			cached:   []domain.TimeRange{tr(60, 70), tr(20, 30)},
			query:    tr(10, 80),
			wantHits: []domain.TimeRange{tr(20, 30), tr(60, 70)},
			wantGaps: []domain.TimeRange{tr(10, 20), tr(30, 60), tr(70, 80)},
		},
		{
			name:     "overlap on both sides",
			cached:   []domain.TimeRange{tr(0, 15), tr(18, 40)},
			query:    tr(10, 20),
			wantHits: []domain.TimeRange{tr(10, 15), tr(18, 20)},
			wantGaps: []domain.TimeRange{tr(15, 18)},
		},
		{
			name:     "overlapping stored ranges cover query",
			stored:   []domain.TimeRange{tr(0, 15), tr(10, 30)},
			query:    tr(5, 25),
			wantHits: []domain.TimeRange{tr(5, 15), tr(15, 25)},
		},
		{
			name:     "overlapping stored ranges then gap",
			stored:   []domain.TimeRange{tr(0, 15), tr(10, 30)},
			query:    tr(12, 40),
			wantHits: []domain.TimeRange{tr(12, 15), tr(15, 30)},
			wantGaps: []domain.TimeRange{tr(30, 40)},
		},
		{
			name:     "overlapping stored ranges inside query",
			stored:   []domain.TimeRange{tr(10, 20), tr(15, 30)},
			query:    tr(0, 40),
			wantHits: []domain.TimeRange{tr(10, 20), tr(20, 30)},
			wantGaps: []domain.TimeRange{tr(0, 10), tr(30, 40)},
		},
		{
			name:     "chain of overlapping stored ranges",
			stored:   []domain.TimeRange{tr(0, 15), tr(10, 30), tr(25, 50)},
			query:    tr(5, 60),
			wantHits: []domain.TimeRange{tr(5, 15), tr(15, 30), tr(30, 50)},
			wantGaps: []domain.TimeRange{tr(50, 60)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newBucket()
			for _, r := range tt.cached {
				b.put(r, nil)
			}
			for _, r := range tt.stored {
				b.ranges[r] = nil
			}

			hits, gaps := b.reconcile(tt.query)

			assert.ElementsMatch(t, tt.wantHits, windows(hits))
			assert.ElementsMatch(t, tt.wantGaps, gaps)
			assertPartition(t, tt.query, append(windows(hits), gaps...))
		})
	}
}

// assertPartition checks that parts are pairwise disjoint and cover q exactly.
func assertPartition(t *testing.T, q domain.TimeRange, parts []domain.TimeRange) {
	t.Helper()

	var total uint64
	for i, a := range parts {
		assert.True(t, q.Covers(a), "part %s outside %s", a, q)
		total += a.Length()
		for _, b := range parts[i+1:] {
			overlap := min(a.End, b.End) - max(a.Start, b.Start)
			assert.LessOrEqual(t, overlap, int64(0), "parts %s and %s overlap", a, b)
		}
	}
	assert.Equal(t, q.Length(), total)
}

func TestBucket_ReconcileRandomOverlapping(t *testing.T) {
	rng := rand.New(rand.NewSource(11))

	for round := 0; round < 500; round++ {
		b := newBucket()
		stored := make([]domain.TimeRange, 0, 6)
		for i := 0; i < 1+rng.Intn(6); i++ {
			start := rng.Int63n(100)
			r := tr(start, start+1+rng.Int63n(40))
			// the marker fill identifies which stored range a segment reads from
			b.ranges[r] = []*domain.Fill{{SequenceNumber: uint64(len(stored))}}
			stored = append(stored, r)
		}

		start := rng.Int63n(120) - 10
		q := tr(start, start+1+rng.Int63n(60))
		hits, gaps := b.reconcile(q)

		assertPartition(t, q, append(windows(hits), gaps...))
		for _, h := range hits {
			src := stored[h.fills[0].SequenceNumber]
			assert.True(t, src.Covers(h.window), "segment %s read from %s", h.window, src)
		}
		for _, g := range gaps {
			for r := range b.ranges {
				assert.False(t, r.Covers(g), "gap %s already cached as %s", g, r)
			}
		}
	}
}

func TestBucket_Put(t *testing.T) {
	b := newBucket()

	assert.True(t, b.put(tr(10, 20), nil))
	assert.False(t, b.put(tr(12, 18), nil), "covered range is dropped")
	assert.True(t, b.put(tr(30, 40), nil))
	assert.True(t, b.put(tr(0, 50), nil), "covering range supersedes")

	assert.Equal(t, []domain.TimeRange{tr(0, 50)}, b.sortedRanges())
}
