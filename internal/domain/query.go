package domain

// QueryKind selects the aggregate a query computes.
type QueryKind string

// Query kinds, keyed by their command letter.
const (
	QueryTakerTrades   QueryKind = "C"
	QueryMarketBuys    QueryKind = "B"
	QueryMarketSells   QueryKind = "S"
	QueryTradingVolume QueryKind = "V"
)

// Valid reports whether k is a known query kind.
func (k QueryKind) Valid() bool {
	switch k {
	case QueryTakerTrades, QueryMarketBuys, QueryMarketSells, QueryTradingVolume:
		return true
	}
	return false
}

// CountKind returns the kind of Count produced by queries of kind k.
func (k QueryKind) CountKind() CountKind {
	if k == QueryTradingVolume {
		return CountVolume
	}
	return CountTrades
}

// Zero returns the zero Count for queries of kind k.
func (k QueryKind) Zero() Count {
	if k.CountKind() == CountVolume {
		return Volume(0)
	}
	return Trades(0)
}

// Query is one parsed aggregate request.
type Query struct {
	Kind  QueryKind
	Range TimeRange
}
