// Package query parses line-oriented aggregate commands of the form
// "<KIND> <START_EPOCH_SECONDS> <END_EPOCH_SECONDS>".
package query

import (
	"fmt"
	"strconv"
	"strings"

	"fill-stats/internal/domain"
)

// ParseError reports a malformed command line.
type ParseError struct {
	Line   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse query %q: %s", e.Line, e.Reason)
}

// Parse parses one command line. Tokens after the end timestamp are ignored.
func Parse(line string) (domain.Query, error) {
	fields := strings.Fields(line)

	if len(fields) == 0 {
		return domain.Query{}, &ParseError{Line: line, Reason: "missing count"}
	}
	if len(fields) < 2 {
		return domain.Query{}, &ParseError{Line: line, Reason: "missing start timestamp"}
	}
	start, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return domain.Query{}, &ParseError{Line: line, Reason: fmt.Sprintf("failed to parse start timestamp: %v", err)}
	}
	if len(fields) < 3 {
		return domain.Query{}, &ParseError{Line: line, Reason: "missing end timestamp"}
	}
	end, err := strconv.ParseInt(fields[2], 10, 64)
	if err != nil {
		return domain.Query{}, &ParseError{Line: line, Reason: fmt.Sprintf("failed to parse end timestamp: %v", err)}
	}

	kind := domain.QueryKind(fields[0])
	if !kind.Valid() {
		return domain.Query{}, &ParseError{Line: line, Reason: fmt.Sprintf("invalid count request %q", fields[0])}
	}

	return domain.Query{Kind: kind, Range: domain.NewTimeRange(start, end)}, nil
}
