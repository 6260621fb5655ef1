package storage

import (
	"context"

	"fill-stats/internal/domain"
)

// FillStore provides access to fills storage.
// Fills are append-only: once inserted a fill is never updated.
type FillStore interface {
	// InsertBulk adds multiple fills atomically. Fills sharing a sequence_number are all stored.
	InsertBulk(ctx context.Context, fills []*domain.Fill) error

	// GetByTimeRange retrieves fills with timestamp in (start, end], ordered by timestamp ASC.
	GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.Fill, error)

	// Count returns the number of stored fills.
	Count(ctx context.Context) (int, error)
}
