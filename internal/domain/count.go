package domain

import "fmt"

// CountKind tags the value held by a Count.
type CountKind uint8

// Count kinds.
const (
	CountTrades CountKind = iota
	CountVolume
)

func (k CountKind) String() string {
	if k == CountVolume {
		return "volume"
	}
	return "trades"
}

// Count is an aggregate result: either a trade count or a traded volume.
// The zero value is a zero trade count.
type Count struct {
	kind   CountKind
	trades uint64
	volume float64
}

// Trades creates a trade-count Count.
func Trades(n uint64) Count {
	return Count{kind: CountTrades, trades: n}
}

// Volume creates a volume Count.
func Volume(v float64) Count {
	return Count{kind: CountVolume, volume: v}
}

// Kind returns the tag of c.
func (c Count) Kind() CountKind { return c.kind }

// TradeCount returns the trade count. Zero for volume counts.
func (c Count) TradeCount() uint64 { return c.trades }

// VolumeValue returns the volume. Zero for trade counts.
func (c Count) VolumeValue() float64 { return c.volume }

// Merge sums two counts of the same kind.
// Merging different kinds is a programming error and panics.
func (c Count) Merge(o Count) Count {
	if c.kind != o.kind {
		panic(fmt.Sprintf("domain: merge of %s count with %s count", c.kind, o.kind))
	}
	return Count{
		kind:   c.kind,
		trades: c.trades + o.trades,
		volume: c.volume + o.volume,
	}
}

// String formats trade counts as integers and volumes with 6 decimals.
func (c Count) String() string {
	if c.kind == CountVolume {
		return fmt.Sprintf("%.6f", c.volume)
	}
	return fmt.Sprintf("%d", c.trades)
}
