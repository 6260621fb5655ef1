package rangecache

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fill-stats/internal/domain"
)

func TestSlot(t *testing.T) {
	tests := []struct {
		ts   int64
		want int64
	}{
		{0, 0},
		{1, 0},
		{4499, 0},
		{4500, 4500},
		{9001, 9000},
		{-1, -4500},
		{-4500, -4500},
		{-4501, -9000},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Slot(tt.ts, DefaultSlotSize), "Slot(%d)", tt.ts)
	}
}

func TestSplitBySlot(t *testing.T) {
	got := splitBySlot(domain.NewTimeRange(100, 10000), DefaultSlotSize)
	assert.Equal(t, []domain.TimeRange{
		{Start: 100, End: 4500},
		{Start: 4500, End: 9000},
		{Start: 9000, End: 10000},
	}, got)

	got = splitBySlot(domain.NewTimeRange(-5000, 10), DefaultSlotSize)
	assert.Equal(t, []domain.TimeRange{
		{Start: -5000, End: -4500},
		{Start: -4500, End: 0},
		{Start: 0, End: 10},
	}, got)

	assert.Nil(t, splitBySlot(domain.NewTimeRange(10, 10), DefaultSlotSize))
	assert.Nil(t, splitBySlot(domain.NewTimeRange(10, 5), DefaultSlotSize))
}

func TestSplitBySlot_WithinOneSlot(t *testing.T) {
	for _, sub := range splitBySlot(domain.NewTimeRange(-12345, 23456), DefaultSlotSize) {
		slot := Slot(sub.Start, DefaultSlotSize)
		assert.GreaterOrEqual(t, sub.Start, slot, "sub %s", sub)
		assert.LessOrEqual(t, sub.End, slot+DefaultSlotSize, "sub %s", sub)
	}
}

func TestSplitBySlot_NearMaxInt(t *testing.T) {
	r := domain.NewTimeRange(math.MaxInt64-10, math.MaxInt64)
	got := splitBySlot(r, DefaultSlotSize)
	require.NotEmpty(t, got)
	assert.Equal(t, r.End, got[len(got)-1].End)
}

func TestSlotCount(t *testing.T) {
	assert.Equal(t, uint64(0), slotCount(domain.NewTimeRange(5, 5), DefaultSlotSize))
	assert.Equal(t, uint64(1), slotCount(domain.NewTimeRange(0, 10), DefaultSlotSize))
	assert.Equal(t, uint64(3), slotCount(domain.NewTimeRange(100, 9100), DefaultSlotSize))
	assert.Greater(t, slotCount(domain.NewTimeRange(domain.MinTimestamp, domain.MaxTimestamp), DefaultSlotSize), uint64(DefaultMaxSlots))
}

func TestSlotCount_AlignedWidths(t *testing.T) {
	tests := []struct {
		r    domain.TimeRange
		want uint64
	}{
		{domain.NewTimeRange(0, 4500), 1},
		{domain.NewTimeRange(0, 4501), 2},
		{domain.NewTimeRange(0, 9000), 2},
		{domain.NewTimeRange(-4500, 0), 1},
		{domain.NewTimeRange(-4501, 0), 2},
		{domain.NewTimeRange(4499, 4500), 1},
		{domain.NewTimeRange(4500, 4501), 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, slotCount(tt.r, DefaultSlotSize), "%s", tt.r)
		assert.Len(t, splitBySlot(tt.r, DefaultSlotSize), int(tt.want), "%s", tt.r)
	}
}

func TestSlotCount_MatchesSplit(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 1000; i++ {
		size := 1 + rng.Int63n(50)
		start := rng.Int63n(2000) - 1000
		end := start + rng.Int63n(500)
		r := domain.NewTimeRange(start, end)
		assert.Equal(t, uint64(len(splitBySlot(r, size))), slotCount(r, size), "%s size %d", r, size)
	}
}
