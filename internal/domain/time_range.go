package domain

import (
	"errors"
	"fmt"
)

// Representable instant bounds in Unix seconds.
const (
	MinTimestamp int64 = -8334632851200 // -262143-01-01T00:00:00Z
	MaxTimestamp int64 = 8210298412799  // +262142-12-31T23:59:59Z
)

// ErrInvalidTimestamp is returned when a bound is not a representable instant.
var ErrInvalidTimestamp = errors.New("invalid timestamp")

// ValidTimestamp reports whether ts lies within the representable bounds.
func ValidTimestamp(ts int64) bool {
	return ts >= MinTimestamp && ts <= MaxTimestamp
}

// TimeRange is the interval (Start, End] in Unix seconds.
// Start is exclusive and End is inclusive, matching backend fetch semantics.
type TimeRange struct {
	Start int64
	End   int64
}

// NewTimeRange creates a TimeRange.
func NewTimeRange(start, end int64) TimeRange {
	return TimeRange{Start: start, End: end}
}

// Empty reports whether the range contains no instant.
func (r TimeRange) Empty() bool {
	return r.Start >= r.End
}

// Validate fails with ErrInvalidTimestamp unless both bounds are representable.
// Inverted ranges with valid bounds pass.
func (r TimeRange) Validate() error {
	if !ValidTimestamp(r.Start) {
		return fmt.Errorf("start %d: %w", r.Start, ErrInvalidTimestamp)
	}
	if !ValidTimestamp(r.End) {
		return fmt.Errorf("end %d: %w", r.End, ErrInvalidTimestamp)
	}
	return nil
}

// Length returns End - Start, or 0 for empty ranges.
// It is computed in uint64 so the full int64 span does not overflow.
func (r TimeRange) Length() uint64 {
	if r.Empty() {
		return 0
	}
	return uint64(r.End) - uint64(r.Start)
}

// Contains reports whether ts falls in (Start, End].
func (r TimeRange) Contains(ts int64) bool {
	return ts > r.Start && ts <= r.End
}

// Covers reports whether o lies entirely inside r.
func (r TimeRange) Covers(o TimeRange) bool {
	return r.Start <= o.Start && o.End <= r.End
}

func (r TimeRange) String() string {
	return fmt.Sprintf("(%d, %d]", r.Start, r.End)
}
