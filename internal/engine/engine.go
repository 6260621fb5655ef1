// Package engine runs aggregate queries concurrently and reports their
// results in submission order.
package engine

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"fill-stats/internal/domain"
	"fill-stats/internal/observability"
	"fill-stats/internal/query"
)

// Resolver computes one aggregate over a time range.
type Resolver interface {
	Resolve(ctx context.Context, kind domain.QueryKind, r domain.TimeRange) (domain.Count, error)
}

// Status is the terminal state of a submitted query.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusInvalid   Status = "invalid"
	StatusFailed    Status = "failed"
)

// Outcome is the result of one submitted line.
type Outcome struct {
	Line   string
	Query  domain.Query
	Status Status
	Count  domain.Count
	Err    error
}

// Printable reports whether the outcome produces an output line.
// Failed queries are dropped from the output.
func (o Outcome) Printable() bool {
	return o.Status != StatusFailed
}

// String is the output line for o. Unparseable queries print 0.
func (o Outcome) String() string {
	if o.Status == StatusInvalid {
		return "0"
	}
	return o.Count.String()
}

type handle struct {
	done    chan struct{}
	outcome Outcome
}

// Engine starts each submitted query immediately and joins them in order on Drain.
type Engine struct {
	resolver Resolver
	logger   zerolog.Logger

	mu      sync.Mutex
	pending []*handle
}

// Options configures an Engine.
type Options struct {
	Logger *zerolog.Logger
}

// New creates an Engine answering queries through resolver.
func New(resolver Resolver, opts Options) *Engine {
	e := &Engine{
		resolver: resolver,
		logger:   log.Logger,
	}
	if opts.Logger != nil {
		e.logger = *opts.Logger
	}
	e.logger = e.logger.With().Str("component", "engine").Logger()
	return e
}

// Submit parses line and starts resolving it in the background.
// It never blocks on the backend.
func (e *Engine) Submit(ctx context.Context, line string) {
	h := &handle{done: make(chan struct{})}

	e.mu.Lock()
	e.pending = append(e.pending, h)
	e.mu.Unlock()

	observability.AddPendingQueries(1)
	go func() {
		defer close(h.done)
		defer observability.AddPendingQueries(-1)
		h.outcome = e.run(ctx, line)
	}()
}

func (e *Engine) run(ctx context.Context, line string) Outcome {
	started := time.Now()
	out := Outcome{Line: line}

	q, err := query.Parse(line)
	if err != nil {
		e.logger.Error().Err(err).Str("line", line).Msg("invalid query")
		out.Status = StatusInvalid
		out.Err = err
		observability.RecordQuery("invalid", string(out.Status), time.Since(started).Seconds())
		return out
	}
	out.Query = q

	count, err := e.resolver.Resolve(ctx, q.Kind, q.Range)
	if err != nil {
		e.logger.Error().Err(err).Str("line", line).Msg("query failed")
		out.Status = StatusFailed
		out.Err = err
	} else {
		out.Status = StatusCompleted
		out.Count = count
	}

	observability.RecordQuery(string(q.Kind), string(out.Status), time.Since(started).Seconds())
	return out
}

// Pending returns the number of submitted queries not yet drained.
func (e *Engine) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.pending)
}

// Drain waits for every query submitted so far and returns their outcomes in
// submission order. If ctx is done first, the outcomes joined so far are
// returned with ctx's error; the rest stay pending.
func (e *Engine) Drain(ctx context.Context) ([]Outcome, error) {
	e.mu.Lock()
	pending := e.pending
	e.pending = nil
	e.mu.Unlock()

	outcomes := make([]Outcome, 0, len(pending))
	for i, h := range pending {
		select {
		case <-h.done:
			outcomes = append(outcomes, h.outcome)
		case <-ctx.Done():
			e.requeue(pending[i:])
			return outcomes, ctx.Err()
		}
	}
	return outcomes, nil
}

// requeue puts unjoined handles back in front of anything submitted since.
func (e *Engine) requeue(hs []*handle) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pending = append(append([]*handle(nil), hs...), e.pending...)
}

// DrainTo drains the engine and writes one line per printable outcome to w.
func (e *Engine) DrainTo(ctx context.Context, w io.Writer) error {
	outcomes, drainErr := e.Drain(ctx)

	bw := bufio.NewWriter(w)
	for _, o := range outcomes {
		if !o.Printable() {
			continue
		}
		if _, err := fmt.Fprintln(bw, o.String()); err != nil {
			return fmt.Errorf("write result: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush results: %w", err)
	}
	return drainErr
}

// Run submits every line read from r and writes the results to w in order.
func (e *Engine) Run(ctx context.Context, r io.Reader, w io.Writer) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		e.Submit(ctx, sc.Text())
	}
	scanErr := sc.Err()

	if err := e.DrainTo(ctx, w); err != nil {
		return err
	}
	if scanErr != nil {
		return fmt.Errorf("read queries: %w", scanErr)
	}
	return nil
}
