package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"fill-stats/internal/domain"
	"fill-stats/internal/observability"
	"fill-stats/internal/storage"
)

// FillStore implements storage.FillStore using ClickHouse.
type FillStore struct {
	conn *Conn
}

// NewFillStore creates a new FillStore.
func NewFillStore(conn *Conn) *FillStore {
	return &FillStore{conn: conn}
}

// Compile-time interface check.
var _ storage.FillStore = (*FillStore)(nil)

// InsertBulk adds multiple fills. Rows sharing a sequence_number are all kept.
func (s *FillStore) InsertBulk(ctx context.Context, fills []*domain.Fill) (err error) {
	if len(fills) == 0 {
		return nil
	}

	started := time.Now()
	defer func() {
		observability.RecordDBQuery("clickhouse", "insert_fills", time.Since(started).Seconds(), err)
	}()

	for _, f := range fills {
		if f == nil {
			return storage.ErrInvalidInput
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO fills (sequence_number, ts, direction, price, quantity)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, f := range fills {
		if err := batch.Append(f.SequenceNumber, f.Timestamp, int8(f.Direction), f.Price, f.Quantity); err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByTimeRange retrieves fills with timestamp in (start, end], ordered by timestamp ASC.
func (s *FillStore) GetByTimeRange(ctx context.Context, start, end int64) (result []*domain.Fill, err error) {
	if start >= end {
		return nil, nil
	}

	started := time.Now()
	defer func() {
		observability.RecordDBQuery("clickhouse", "get_fills_by_time_range", time.Since(started).Seconds(), err)
	}()

	query := `
		SELECT sequence_number, ts, direction, price, quantity
		FROM fills
		WHERE ts > ? AND ts <= ?
		ORDER BY ts ASC, sequence_number ASC
	`

	rows, err := s.conn.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("query by time range: %w", err)
	}
	defer rows.Close()

	return scanFills(rows)
}

// Count returns the number of stored fills.
func (s *FillStore) Count(ctx context.Context) (int, error) {
	var n uint64
	if err := s.conn.QueryRow(ctx, `SELECT count() FROM fills`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count fills: %w", err)
	}
	return int(n), nil
}

// scanFills scans multiple rows.
func scanFills(rows chRows) ([]*domain.Fill, error) {
	var fills []*domain.Fill

	for rows.Next() {
		var (
			f         domain.Fill
			direction int8
			price     decimal.Decimal
			quantity  decimal.Decimal
		)

		if err := rows.Scan(&f.SequenceNumber, &f.Timestamp, &direction, &price, &quantity); err != nil {
			return nil, fmt.Errorf("scan fill row: %w", err)
		}

		f.Direction = domain.Direction(direction)
		f.Price = price
		f.Quantity = quantity
		fills = append(fills, &f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fill rows: %w", err)
	}

	return fills, nil
}
