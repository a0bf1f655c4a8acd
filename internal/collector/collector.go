package collector

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"SurgeScreener/internal/model"
)

// Collector resolves symbols and fetches their series over the lookback window.
type Collector struct {
	Fetcher  Fetcher
	Lookback time.Duration
	Logger   *zap.Logger
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, lookbackDays int, logger *zap.Logger) *Collector {
	if lookbackDays <= 0 {
		lookbackDays = 7
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{
		Fetcher:  fetcher,
		Lookback: time.Duration(lookbackDays) * 24 * time.Hour,
		Logger:   logger,
	}
}

// Prepare delegates the once-per-batch setup to the fetcher.
func (c *Collector) Prepare(ctx context.Context) error {
	if err := c.Fetcher.Prepare(ctx); err != nil {
		return fmt.Errorf("%s prepare: %w", c.Fetcher.Name(), err)
	}
	return nil
}

// Collect fetches the series for symbol from asOf minus the lookback up to asOf.
func (c *Collector) Collect(ctx context.Context, symbol string, iv model.Interval, asOf time.Time) (model.SymbolSeries, error) {
	instrument, err := c.Fetcher.ResolveInstrument(ctx, symbol)
	if err != nil {
		return model.SymbolSeries{}, fmt.Errorf("resolve instrument: %w", err)
	}

	from := asOf.Add(-c.Lookback)
	bars, err := c.Fetcher.FetchBars(ctx, instrument, from, asOf, iv)
	if err != nil {
		return model.SymbolSeries{}, fmt.Errorf("fetch bars: %w", err)
	}
	c.Logger.Debug("collected series",
		zap.String("symbol", symbol),
		zap.String("instrument", instrument),
		zap.Int("bars", len(bars)))

	return model.SymbolSeries{Symbol: symbol, Interval: iv, Bars: bars}, nil
}
