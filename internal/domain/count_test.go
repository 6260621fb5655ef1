package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCount_MergeSameKind(t *testing.T) {
	c := Trades(3).Merge(Trades(4))
	assert.Equal(t, CountTrades, c.Kind())
	assert.Equal(t, uint64(7), c.TradeCount())

	v := Volume(1.5).Merge(Volume(2.25))
	assert.Equal(t, CountVolume, v.Kind())
	assert.InDelta(t, 3.75, v.VolumeValue(), 1e-12)
}

func TestCount_MergeMismatchPanics(t *testing.T) {
	assert.Panics(t, func() { Trades(1).Merge(Volume(1)) })
	assert.Panics(t, func() { Volume(1).Merge(Trades(1)) })
}

func TestCount_String(t *testing.T) {
	assert.Equal(t, "0", Count{}.String())
	assert.Equal(t, "42", Trades(42).String())
	assert.Equal(t, "20.000000", Volume(20).String())
	assert.Equal(t, "473024.288315", Volume(473024.2883149).String())
}

func TestQueryKind_Zero(t *testing.T) {
	assert.Equal(t, "0", QueryTakerTrades.Zero().String())
	assert.Equal(t, "0.000000", QueryTradingVolume.Zero().String())
	assert.True(t, QueryMarketSells.Valid())
	assert.False(t, QueryKind("X").Valid())
}

func TestTimeRange(t *testing.T) {
	r := NewTimeRange(50, 150)
	assert.False(t, r.Contains(50), "start is exclusive")
	assert.True(t, r.Contains(150), "end is inclusive")
	assert.Equal(t, uint64(100), r.Length())
	assert.True(t, NewTimeRange(10, 10).Empty())
	assert.Equal(t, uint64(0), NewTimeRange(20, 10).Length())
	assert.True(t, r.Covers(NewTimeRange(60, 150)))
	assert.False(t, r.Covers(NewTimeRange(40, 100)))
}

func TestTimeRange_Validate(t *testing.T) {
	assert.NoError(t, NewTimeRange(MinTimestamp, MaxTimestamp).Validate())
	assert.NoError(t, NewTimeRange(MaxTimestamp, MinTimestamp).Validate(), "inverted but representable")
	assert.ErrorIs(t, NewTimeRange(9999999999999999, 0).Validate(), ErrInvalidTimestamp)
	assert.ErrorIs(t, NewTimeRange(0, MinTimestamp-1).Validate(), ErrInvalidTimestamp)
}

func TestTimeRange_LengthFullSpan(t *testing.T) {
	assert.Equal(t, uint64(math.MaxUint64), NewTimeRange(math.MinInt64, math.MaxInt64).Length())
	assert.Equal(t, uint64(0), NewTimeRange(math.MaxInt64, math.MinInt64).Length())
}
