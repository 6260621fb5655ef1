// Package aggregate computes trade statistics over a slice of fills.
// All functions are pure and only consider fills whose timestamp lies in the given range.
package aggregate

import (
	"math"

	"fill-stats/internal/domain"
)

// TakerTrades counts distinct sequence numbers among fills in r.
func TakerTrades(fills []*domain.Fill, r domain.TimeRange) uint64 {
	return distinct(fills, r, func(*domain.Fill) bool { return true })
}

// MarketBuys counts distinct sequence numbers among buy fills in r.
func MarketBuys(fills []*domain.Fill, r domain.TimeRange) uint64 {
	return distinct(fills, r, func(f *domain.Fill) bool { return f.Direction == domain.DirectionBuy })
}

// MarketSells counts distinct sequence numbers among sell fills in r.
func MarketSells(fills []*domain.Fill, r domain.TimeRange) uint64 {
	return distinct(fills, r, func(f *domain.Fill) bool { return f.Direction == domain.DirectionSell })
}

// TradingVolume sums price * quantity over fills in r.
// Fills whose notional does not convert to a finite float64 are skipped.
// Volume is not deduplicated.
func TradingVolume(fills []*domain.Fill, r domain.TimeRange) float64 {
	var sum float64
	for _, f := range fills {
		if !r.Contains(f.Timestamp) {
			continue
		}
		v, _ := f.Notional().Float64()
		if math.IsInf(v, 0) || math.IsNaN(v) {
			continue
		}
		sum += v
	}
	return sum
}

// Compute dispatches to the aggregate selected by kind.
// Unknown kinds yield a zero trade count.
func Compute(kind domain.QueryKind, fills []*domain.Fill, r domain.TimeRange) domain.Count {
	switch kind {
	case domain.QueryTakerTrades:
		return domain.Trades(TakerTrades(fills, r))
	case domain.QueryMarketBuys:
		return domain.Trades(MarketBuys(fills, r))
	case domain.QueryMarketSells:
		return domain.Trades(MarketSells(fills, r))
	case domain.QueryTradingVolume:
		return domain.Volume(TradingVolume(fills, r))
	default:
		return domain.Trades(0)
	}
}

func distinct(fills []*domain.Fill, r domain.TimeRange, keep func(*domain.Fill) bool) uint64 {
	seen := make(map[uint64]struct{}, len(fills))
	for _, f := range fills {
		if r.Contains(f.Timestamp) && keep(f) {
			seen[f.SequenceNumber] = struct{}{}
		}
	}
	return uint64(len(seen))
}
