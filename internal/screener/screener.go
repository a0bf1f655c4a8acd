// Package screener runs the surge evaluation over a universe of symbols.
//
// Each symbol is collected and evaluated independently. Failures are kept
// per symbol as skipped outcomes and never abort the batch; only a failed
// Prepare (credentials, instrument dump) does.
package screener

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"SurgeScreener/internal/calculator"
	"SurgeScreener/internal/collector"
	"SurgeScreener/internal/config"
	"SurgeScreener/internal/model"
	"SurgeScreener/internal/strategy"
)

// Skip reasons.
const (
	ReasonUnknownSymbol = "unknown symbol"
	ReasonNoData        = "no data"
	ReasonNoBarsToday   = "no bars today"
	ReasonTimeout       = "timeout"
	ReasonFetchFailed   = "fetch failed"
)

// Observer receives per-symbol outcomes as they complete.
type Observer interface {
	ObserveOutcome(iv model.Interval, o model.Outcome)
}

// Screener is the batch driver.
type Screener struct {
	collector     *collector.Collector
	workers       int
	symbolTimeout time.Duration
	logger        *zap.Logger
	observer      Observer
	now           func() time.Time
}

// Option configures a Screener.
type Option func(*Screener)

// WithWorkers bounds the number of symbols fetched concurrently.
func WithWorkers(n int) Option {
	return func(s *Screener) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithSymbolTimeout limits collection time per symbol.
func WithSymbolTimeout(d time.Duration) Option {
	return func(s *Screener) {
		if d > 0 {
			s.symbolTimeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Screener) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithObserver registers an outcome observer.
func WithObserver(o Observer) Option {
	return func(s *Screener) { s.observer = o }
}

// WithClock overrides time.Now for AsOf defaults.
func WithClock(now func() time.Time) Option {
	return func(s *Screener) { s.now = now }
}

// New creates a Screener over col.
func New(col *collector.Collector, opts ...Option) *Screener {
	s := &Screener{
		collector:     col,
		workers:       4,
		symbolTimeout: 20 * time.Second,
		logger:        zap.NewNop(),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Request describes one batch.
type Request struct {
	Universe  []config.Symbol
	Interval  model.Interval
	Threshold float64
	AsOf      time.Time // zero means now
}

// Run evaluates every symbol of the universe. Outcomes keep universe order.
func (s *Screener) Run(ctx context.Context, req Request) (*model.Batch, error) {
	if req.Threshold <= 0 {
		return nil, fmt.Errorf("threshold must be positive, got %v", req.Threshold)
	}
	if req.AsOf.IsZero() {
		req.AsOf = s.now()
	}
	start := time.Now()

	if err := s.collector.Prepare(ctx); err != nil {
		return nil, err
	}

	outcomes := make([]model.Outcome, len(req.Universe))
	jobs := make(chan int)
	var wg sync.WaitGroup

	workers := s.workers
	if workers > len(req.Universe) {
		workers = len(req.Universe)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				outcomes[i] = s.evaluate(ctx, req.Universe[i], req.Interval, req.AsOf)
				if s.observer != nil {
					s.observer.ObserveOutcome(req.Interval, outcomes[i])
				}
			}
		}()
	}

feed:
	for i := range req.Universe {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	batch := &model.Batch{
		ID:        uuid.NewString(),
		AsOf:      req.AsOf,
		Interval:  req.Interval,
		Threshold: req.Threshold,
		Outcomes:  outcomes,
		Duration:  time.Since(start),
	}
	s.logger.Info("batch complete",
		zap.String("batch_id", batch.ID),
		zap.String("interval", string(req.Interval)),
		zap.Int("symbols", len(outcomes)),
		zap.Int("evaluated", batch.Evaluated()),
		zap.Int("skipped", len(outcomes)-batch.Evaluated()),
		zap.Duration("duration", batch.Duration))
	return batch, nil
}

func (s *Screener) evaluate(ctx context.Context, sym config.Symbol, iv model.Interval, asOf time.Time) model.Outcome {
	out := model.Outcome{Symbol: sym.Symbol, Sector: sym.Sector}

	symCtx, cancel := context.WithTimeout(ctx, s.symbolTimeout)
	defer cancel()

	series, err := s.collector.Collect(symCtx, sym.Symbol, iv, asOf)
	if err != nil {
		out.Skip = &model.Skip{Reason: skipReason(err), Detail: err.Error(), Err: err}
		s.logger.Warn("skipping symbol",
			zap.String("symbol", sym.Symbol),
			zap.String("reason", out.Skip.Reason),
			zap.Error(err))
		return out
	}

	res, ok := calculator.EvaluateSurge(series, asOf)
	if !ok {
		out.Skip = &model.Skip{Reason: ReasonNoBarsToday}
		s.logger.Debug("skipping symbol", zap.String("symbol", sym.Symbol), zap.String("reason", ReasonNoBarsToday))
		return out
	}
	out.Result = &res
	return out
}

func skipReason(err error) string {
	switch {
	case errors.Is(err, collector.ErrUnknownSymbol):
		return ReasonUnknownSymbol
	case errors.Is(err, collector.ErrNoData):
		return ReasonNoData
	case errors.Is(err, context.DeadlineExceeded):
		return ReasonTimeout
	default:
		return ReasonFetchFailed
	}
}

// Shockers returns the rows of batch reaching threshold, sorted by surge
// ratio descending. Equal ratios are ordered by symbol.
func Shockers(batch *model.Batch, threshold float64) []model.Row {
	var rows []model.Row
	for _, o := range batch.Outcomes {
		if !o.OK() {
			continue
		}
		if row, ok := strategy.Evaluate(*o.Result, o.Sector, threshold); ok {
			rows = append(rows, row)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].SurgeRatio != rows[j].SurgeRatio {
			return rows[i].SurgeRatio > rows[j].SurgeRatio
		}
		return rows[i].Symbol < rows[j].Symbol
	})
	return rows
}

// FilterSectors keeps rows whose sector is listed. Matching ignores case;
// an empty list keeps everything.
func FilterSectors(rows []model.Row, sectors []string) []model.Row {
	if len(sectors) == 0 {
		return rows
	}
	want := make(map[string]bool, len(sectors))
	for _, s := range sectors {
		want[strings.ToLower(strings.TrimSpace(s))] = true
	}
	var out []model.Row
	for _, r := range rows {
		if want[strings.ToLower(r.Sector)] {
			out = append(out, r)
		}
	}
	return out
}
