package aggregate

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"fill-stats/internal/domain"
)

func fill(seq uint64, ts int64, dir domain.Direction, price, qty string) *domain.Fill {
	return &domain.Fill{
		Timestamp:      ts,
		Direction:      dir,
		Price:          decimal.RequireFromString(price),
		Quantity:       decimal.RequireFromString(qty),
		SequenceNumber: seq,
	}
}

func sampleFills() []*domain.Fill {
	return []*domain.Fill{
		fill(1, 100, domain.DirectionBuy, "10", "2"),
		fill(2, 110, domain.DirectionSell, "11", "1"),
		fill(2, 110, domain.DirectionSell, "11", "1"), // same sequence number, counted once
		fill(3, 120, domain.DirectionNeutral, "12", "0.5"),
		fill(4, 150, domain.DirectionBuy, "1", "1"),
		fill(5, 50, domain.DirectionBuy, "100", "100"), // at the exclusive start
		fill(6, 151, domain.DirectionSell, "100", "100"),
	}
}

func TestTakerTrades(t *testing.T) {
	r := domain.NewTimeRange(50, 150)
	assert.Equal(t, uint64(4), TakerTrades(sampleFills(), r))
	assert.Equal(t, uint64(0), TakerTrades(nil, r))
}

func TestMarketBuysAndSells(t *testing.T) {
	r := domain.NewTimeRange(50, 150)
	assert.Equal(t, uint64(2), MarketBuys(sampleFills(), r))
	assert.Equal(t, uint64(1), MarketSells(sampleFills(), r))
}

func TestTradingVolume(t *testing.T) {
	r := domain.NewTimeRange(50, 150)
	// 10*2 + 11*1 + 11*1 (not deduplicated) + 12*0.5 + 1*1
	assert.InDelta(t, 49.0, TradingVolume(sampleFills(), r), 1e-9)
}

func TestCompute(t *testing.T) {
	fills := []*domain.Fill{fill(1, 100, domain.DirectionBuy, "10", "2")}
	r := domain.NewTimeRange(50, 150)

	assert.Equal(t, "20.000000", Compute(domain.QueryTradingVolume, fills, r).String())
	assert.Equal(t, "1", Compute(domain.QueryTakerTrades, fills, r).String())
	assert.Equal(t, "1", Compute(domain.QueryMarketBuys, fills, r).String())
	assert.Equal(t, "0", Compute(domain.QueryMarketSells, fills, r).String())
	assert.Equal(t, domain.CountTrades, Compute(domain.QueryKind("X"), fills, r).Kind())
}
