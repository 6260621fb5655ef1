package domain

import "github.com/shopspring/decimal"

// Direction is the taker side of a fill.
type Direction int8

// Direction constants. Values match the direction column of trades.csv.
const (
	DirectionSell    Direction = -1
	DirectionNeutral Direction = 0
	DirectionBuy     Direction = 1
)

// String returns the lowercase name of the direction.
func (d Direction) String() string {
	switch d {
	case DirectionBuy:
		return "buy"
	case DirectionSell:
		return "sell"
	default:
		return "neutral"
	}
}

// Fill represents one executed trade.
// Corresponds to the fills table in PostgreSQL and ClickHouse.
// Fills are immutable once loaded.
type Fill struct {
	Timestamp      int64           // Unix timestamp in seconds
	Direction      Direction       // taker side
	Price          decimal.Decimal // execution price
	Quantity       decimal.Decimal // executed quantity
	SequenceNumber uint64          // taker trade id, shared by every fill of the trade
}

// Notional returns price * quantity.
func (f *Fill) Notional() decimal.Decimal {
	return f.Price.Mul(f.Quantity)
}
