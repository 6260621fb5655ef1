package rangecache

import (
	"sort"

	"fill-stats/internal/domain"
)

// bucket holds the ranges cached for one slot and the fills fetched for exactly each range.
type bucket struct {
	ranges map[domain.TimeRange][]*domain.Fill
}

func newBucket() *bucket {
	return &bucket{ranges: make(map[domain.TimeRange][]*domain.Fill)}
}

// sortedRanges returns the cached ranges ordered by (start, end).
func (b *bucket) sortedRanges() []domain.TimeRange {
	keys := make([]domain.TimeRange, 0, len(b.ranges))
	for r := range b.ranges {
		keys = append(keys, r)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Start != keys[j].Start {
			return keys[i].Start < keys[j].Start
		}
		return keys[i].End < keys[j].End
	})
	return keys
}

// put stores fills for r. A range already covered by a cached one is dropped,
// and cached ranges covered by r are superseded.
func (b *bucket) put(r domain.TimeRange, fills []*domain.Fill) bool {
	for existing := range b.ranges {
		if existing.Covers(r) {
			return false
		}
	}
	for existing := range b.ranges {
		if r.Covers(existing) {
			delete(b.ranges, existing)
		}
	}
	b.ranges[r] = fills
	return true
}

// segment is a part of a query answered from cached fills.
type segment struct {
	fills  []*domain.Fill
	window domain.TimeRange
}

// reconcile splits the query range q into segments answered from cached
// ranges and gaps that must be fetched.
//
// Ranges are visited in ascending start order and the remaining interval
// only ever shrinks, so the segments and gaps returned are pairwise disjoint
// and together cover q exactly.
func (b *bucket) reconcile(q domain.TimeRange) ([]segment, []domain.TimeRange) {
	var (
		hits []segment
		gaps []domain.TimeRange
	)
	s, e := q.Start, q.End

	for _, c := range b.sortedRanges() {
		if s >= e {
			break
		}
		fills := b.ranges[c]

		switch {
		case c.Start <= s && e <= c.End:
			// contained: the whole remainder is cached
			hits = append(hits, segment{fills, domain.NewTimeRange(s, e)})
			s = e

		case s <= c.Start && c.End <= e:
			// containing: no later range starts before c.Start, so the left side is a final gap
			hits = append(hits, segment{fills, c})
			if s < c.Start {
				gaps = append(gaps, domain.NewTimeRange(s, c.Start))
			}
			s = c.End

		case s <= c.Start && c.Start < e && e <= c.End:
			// overlap-before: query ends inside c
			hits = append(hits, segment{fills, domain.NewTimeRange(c.Start, e)})
			e = c.Start

		case c.Start <= s && s < c.End && c.End <= e:
			// overlap-after: query starts inside c
			hits = append(hits, segment{fills, domain.NewTimeRange(s, c.End)})
			s = c.End
		}
	}

	if s < e {
		gaps = append(gaps, domain.NewTimeRange(s, e))
	}
	return hits, gaps
}
