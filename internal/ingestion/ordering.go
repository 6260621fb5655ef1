package ingestion

import (
	"sort"

	"fill-stats/internal/domain"
)

// SortFills sorts fills in place by (timestamp, sequence_number).
func SortFills(fills []*domain.Fill) {
	sort.SliceStable(fills, func(i, j int) bool {
		if fills[i].Timestamp != fills[j].Timestamp {
			return fills[i].Timestamp < fills[j].Timestamp
		}
		return fills[i].SequenceNumber < fills[j].SequenceNumber
	})
}
