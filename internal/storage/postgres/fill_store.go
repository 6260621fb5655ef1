package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"fill-stats/internal/domain"
	"fill-stats/internal/observability"
	"fill-stats/internal/storage"
)

// FillStore implements storage.FillStore using PostgreSQL.
type FillStore struct {
	pool *Pool
}

// NewFillStore creates a new FillStore.
func NewFillStore(pool *Pool) *FillStore {
	return &FillStore{pool: pool}
}

// Compile-time interface check.
var _ storage.FillStore = (*FillStore)(nil)

const insertFillSQL = `
	INSERT INTO fills (sequence_number, ts, direction, price, quantity)
	VALUES ($1, $2, $3, $4::text::numeric, $5::text::numeric)
`

// InsertBulk adds multiple fills in one transaction. Rows sharing a sequence_number are all kept.
func (s *FillStore) InsertBulk(ctx context.Context, fills []*domain.Fill) (err error) {
	if len(fills) == 0 {
		return nil
	}

	started := time.Now()
	defer func() {
		observability.RecordDBQuery("postgres", "insert_fills", time.Since(started).Seconds(), err)
	}()

	batch := &pgx.Batch{}
	for _, f := range fills {
		if f == nil {
			return storage.ErrInvalidInput
		}
		batch.Queue(insertFillSQL,
			int64(f.SequenceNumber), f.Timestamp, int16(f.Direction),
			f.Price.String(), f.Quantity.String(),
		)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	results := tx.SendBatch(ctx, batch)
	for range fills {
		if _, execErr := results.Exec(); execErr != nil {
			results.Close()
			return fmt.Errorf("insert fill in bulk: %w", execErr)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
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
		observability.RecordDBQuery("postgres", "get_fills_by_time_range", time.Since(started).Seconds(), err)
	}()

	query := `
		SELECT sequence_number, ts, direction, price::text, quantity::text
		FROM fills
		WHERE ts > $1 AND ts <= $2
		ORDER BY ts ASC, sequence_number ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("get fills by time range: %w", err)
	}
	defer rows.Close()

	return scanFills(rows)
}

// Count returns the number of stored fills.
func (s *FillStore) Count(ctx context.Context) (int, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM fills`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count fills: %w", err)
	}
	return int(n), nil
}

// scanFills scans multiple rows into a slice of Fill.
func scanFills(rows pgx.Rows) ([]*domain.Fill, error) {
	var fills []*domain.Fill

	for rows.Next() {
		var (
			seq       int64
			direction int16
			price     string
			quantity  string
		)
		f := &domain.Fill{}

		if err := rows.Scan(&seq, &f.Timestamp, &direction, &price, &quantity); err != nil {
			return nil, fmt.Errorf("scan fill row: %w", err)
		}

		p, err := decimal.NewFromString(price)
		if err != nil {
			return nil, fmt.Errorf("parse fill %d price: %w", seq, err)
		}
		q, err := decimal.NewFromString(quantity)
		if err != nil {
			return nil, fmt.Errorf("parse fill %d quantity: %w", seq, err)
		}

		f.SequenceNumber = uint64(seq)
		f.Direction = domain.Direction(direction)
		f.Price = p
		f.Quantity = q
		fills = append(fills, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fill rows: %w", err)
	}

	return fills, nil
}
