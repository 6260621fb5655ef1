package ingestion

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fill-stats/internal/domain"
)

// TimeLayout is the layout of the time column in trades.csv (UTC).
const TimeLayout = "2006-01-02 15:04:05"

// Required trades.csv columns.
var csvColumns = []string{"time", "direction", "price", "quantity", "sequence_number"}

// CSVReport describes the outcome of reading a trades file.
type CSVReport struct {
	Rows    int // data rows read
	Loaded  int // rows converted to fills
	Skipped int // rows that failed to parse
}

// ReadCSVFile reads fills from the trades file at path.
func ReadCSVFile(path string) ([]*domain.Fill, CSVReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, CSVReport{}, fmt.Errorf("open trades file: %w", err)
	}
	defer f.Close()

	return ReadCSV(f)
}

// ReadCSV reads fills from r. The header row locates columns by name.
// Rows that fail to parse are skipped and counted in the report.
func ReadCSV(r io.Reader) ([]*domain.Fill, CSVReport, error) {
	var report CSVReport

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, report, fmt.Errorf("read csv header: empty input")
		}
		return nil, report, fmt.Errorf("read csv header: %w", err)
	}

	idx, err := columnIndex(header)
	if err != nil {
		return nil, report, err
	}

	var fills []*domain.Fill
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				report.Rows++
				report.Skipped++
				continue
			}
			return nil, report, fmt.Errorf("read csv row: %w", err)
		}

		report.Rows++
		fill, err := parseRecord(record, idx)
		if err != nil {
			report.Skipped++
			continue
		}
		fills = append(fills, fill)
		report.Loaded++
	}

	return fills, report, nil
}

func columnIndex(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, col := range csvColumns {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("csv header missing column %q", col)
		}
	}
	return idx, nil
}

func parseRecord(record []string, idx map[string]int) (*domain.Fill, error) {
	field := func(name string) (string, error) {
		i := idx[name]
		if i >= len(record) {
			return "", fmt.Errorf("missing %s", name)
		}
		return strings.TrimSpace(record[i]), nil
	}

	raw, err := field("time")
	if err != nil {
		return nil, err
	}
	ts, err := time.ParseInLocation(TimeLayout, raw, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("parse time: %w", err)
	}

	raw, err = field("direction")
	if err != nil {
		return nil, err
	}
	dir, err := strconv.ParseInt(raw, 10, 8)
	if err != nil {
		return nil, fmt.Errorf("parse direction: %w", err)
	}

	raw, err = field("price")
	if err != nil {
		return nil, err
	}
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, fmt.Errorf("parse price: %w", err)
	}

	raw, err = field("quantity")
	if err != nil {
		return nil, err
	}
	qty, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, fmt.Errorf("parse quantity: %w", err)
	}

	raw, err = field("sequence_number")
	if err != nil {
		return nil, err
	}
	seq, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse sequence_number: %w", err)
	}

	return &domain.Fill{
		Timestamp:      ts.Unix(),
		Direction:      domain.Direction(dir),
		Price:          price,
		Quantity:       qty,
		SequenceNumber: seq,
	}, nil
}
