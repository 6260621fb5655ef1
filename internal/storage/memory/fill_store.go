package memory

import (
	"context"
	"sort"
	"sync"

	"fill-stats/internal/domain"
	"fill-stats/internal/storage"
)

// FillStore is an in-memory implementation of storage.FillStore.
// Fills are kept sorted by (timestamp, sequence_number) so range reads are a binary search.
// Several fills may share a sequence number; every one is kept.
type FillStore struct {
	mu    sync.RWMutex
	fills []*domain.Fill
}

// NewFillStore creates a new in-memory fill store.
func NewFillStore() *FillStore {
	return &FillStore{}
}

func fillLess(a, b *domain.Fill) bool {
	if a.Timestamp != b.Timestamp {
		return a.Timestamp < b.Timestamp
	}
	return a.SequenceNumber < b.SequenceNumber
}

// InsertBulk adds multiple fills atomically. A nil fill rejects the whole batch.
func (s *FillStore) InsertBulk(_ context.Context, fills []*domain.Fill) error {
	if len(fills) == 0 {
		return nil
	}

	batch := make([]*domain.Fill, 0, len(fills))
	for _, f := range fills {
		if f == nil {
			return storage.ErrInvalidInput
		}
		c := *f
		batch = append(batch, &c)
	}
	sort.SliceStable(batch, func(i, j int) bool { return fillLess(batch[i], batch[j]) })

	s.mu.Lock()
	defer s.mu.Unlock()

	// Loads arrive in time order, so the common case is a plain append.
	if n := len(s.fills); n == 0 || !fillLess(batch[0], s.fills[n-1]) {
		s.fills = append(s.fills, batch...)
		return nil
	}
	s.fills = merge(s.fills, batch)
	return nil
}

// merge combines two sorted slices, keeping existing fills first on ties.
func merge(existing, batch []*domain.Fill) []*domain.Fill {
	out := make([]*domain.Fill, 0, len(existing)+len(batch))
	i, j := 0, 0
	for i < len(existing) && j < len(batch) {
		if fillLess(batch[j], existing[i]) {
			out = append(out, batch[j])
			j++
		} else {
			out = append(out, existing[i])
			i++
		}
	}
	out = append(out, existing[i:]...)
	return append(out, batch[j:]...)
}

// GetByTimeRange retrieves fills with timestamp in (start, end], ordered by timestamp ASC.
// The returned fills are shared and must not be mutated.
func (s *FillStore) GetByTimeRange(_ context.Context, start, end int64) ([]*domain.Fill, error) {
	if start >= end {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	lo := sort.Search(len(s.fills), func(i int) bool { return s.fills[i].Timestamp > start })
	hi := sort.Search(len(s.fills), func(i int) bool { return s.fills[i].Timestamp > end })
	if lo >= hi {
		return nil, nil
	}

	result := make([]*domain.Fill, hi-lo)
	copy(result, s.fills[lo:hi])
	return result, nil
}

// Count returns the number of stored fills.
func (s *FillStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.fills), nil
}

var _ storage.FillStore = (*FillStore)(nil)
