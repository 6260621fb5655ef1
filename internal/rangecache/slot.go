package rangecache

import "fill-stats/internal/domain"

// Slot returns the bucket id of ts: floor(ts / size) * size.
func Slot(ts, size int64) int64 {
	q := ts / size
	if ts%size != 0 && ts < 0 {
		q--
	}
	return q * size
}

// slotCount returns how many sub-ranges splitBySlot yields for r: one per slot
// from Slot(Start) to Slot(End-1). The difference is taken in uint64 so it
// cannot overflow.
func slotCount(r domain.TimeRange, size int64) uint64 {
	if r.Empty() {
		return 0
	}
	first := uint64(Slot(r.Start, size))
	last := uint64(Slot(r.End-1, size))
	return (last-first)/uint64(size) + 1
}

// splitBySlot decomposes r into slot-aligned sub-ranges.
// Every sub-range (a, b] satisfies Slot(a) <= a < b <= Slot(a)+size, so all of
// its fills are stored under bucket Slot(a).
func splitBySlot(r domain.TimeRange, size int64) []domain.TimeRange {
	if r.Empty() {
		return nil
	}

	var out []domain.TimeRange
	for s := r.Start; s < r.End; {
		next := Slot(s, size) + size
		if next <= s || next > r.End {
			next = r.End
		}
		out = append(out, domain.NewTimeRange(s, next))
		s = next
	}
	return out
}
