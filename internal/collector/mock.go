package collector

import (
	"context"
	"fmt"
	"time"

	"SurgeScreener/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
// Instruments are the symbols themselves.
type MockFetcher struct {
	Bars       map[string][]model.Bar
	Errors     map[string]error
	PrepareErr error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) Prepare(_ context.Context) error { return m.PrepareErr }

func (m *MockFetcher) ResolveInstrument(_ context.Context, symbol string) (string, error) {
	if _, ok := m.Bars[symbol]; ok {
		return symbol, nil
	}
	if _, ok := m.Errors[symbol]; ok {
		return symbol, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownSymbol, symbol)
}

func (m *MockFetcher) FetchBars(ctx context.Context, instrument string, from, to time.Time, _ model.Interval) ([]model.Bar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err, ok := m.Errors[instrument]; ok {
		return nil, err
	}
	var out []model.Bar
	for _, b := range m.Bars[instrument] {
		if b.Time.Before(from) || b.Time.After(to) {
			continue
		}
		out = append(out, b)
	}
	if len(out) == 0 {
		return nil, ErrNoData
	}
	return out, nil
}

// GenerateSessionBars builds days of intraday bars ending on asOf's date.
// Each day runs from 09:15 in steps of iv up to 15:30; bars of the current
// day stop at asOf. Historical bars carry baseVolume, today's bars carry
// baseVolume*surge.
func GenerateSessionBars(asOf time.Time, days int, iv model.Interval, basePrice float64, baseVolume int64, surge float64) []model.Bar {
	step := iv.Duration()
	if step <= 0 || step >= 24*time.Hour {
		step = 15 * time.Minute
	}
	loc := asOf.Location()
	var bars []model.Bar
	for d := days - 1; d >= 0; d-- {
		day := asOf.AddDate(0, 0, -d)
		open := time.Date(day.Year(), day.Month(), day.Day(), 9, 15, 0, 0, loc)
		end := time.Date(day.Year(), day.Month(), day.Day(), 15, 30, 0, 0, loc)
		vol := baseVolume
		if d == 0 {
			end = asOf
			vol = int64(float64(baseVolume) * surge)
		}
		for t, i := open, 0; !t.After(end); t, i = t.Add(step), i+1 {
			p := basePrice * (1 + float64(i)*0.001)
			bars = append(bars, model.Bar{
				Time:   t,
				Open:   p,
				High:   p * 1.002,
				Low:    p * 0.998,
				Close:  p * 1.001,
				Volume: vol,
			})
		}
	}
	return bars
}
