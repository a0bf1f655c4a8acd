package collector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"SurgeScreener/internal/model"
)

type alpacaTrading interface {
	GetAccount() (*alpaca.Account, error)
	GetAsset(symbol string) (*alpaca.Asset, error)
}

type alpacaBars interface {
	GetBars(symbol string, req marketdata.GetBarsRequest) ([]marketdata.Bar, error)
}

// AlpacaFetcher implements Fetcher using the Alpaca trading and market data APIs.
type AlpacaFetcher struct {
	Trading alpacaTrading
	Data    alpacaBars
}

// NewAlpacaFetcher creates a fetcher. baseURL selects paper or live trading;
// dataURL may be empty for the default market data endpoint.
func NewAlpacaFetcher(apiKey, apiSecret, baseURL, dataURL string) *AlpacaFetcher {
	return &AlpacaFetcher{
		Trading: alpaca.NewClient(alpaca.ClientOpts{
			APIKey:    apiKey,
			APISecret: apiSecret,
			BaseURL:   baseURL,
		}),
		Data: marketdata.NewClient(marketdata.ClientOpts{
			APIKey:    apiKey,
			APISecret: apiSecret,
			BaseURL:   dataURL,
		}),
	}
}

func (f *AlpacaFetcher) Name() string { return "alpaca" }

// withContext runs fn and returns early when ctx ends first. The SDK calls
// are not cancellable, so fn keeps running in the background in that case.
func withContext[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := fn()
		ch <- result{v, err}
	}()
	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case r := <-ch:
		return r.v, r.err
	}
}

func mapAlpacaError(err error) error {
	var apiErr *alpaca.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %s", ErrAuth, apiErr.Message)
		case http.StatusNotFound, http.StatusUnprocessableEntity:
			return fmt.Errorf("%w: %s", ErrUnknownSymbol, apiErr.Message)
		}
	}
	return err
}

// Prepare verifies the credentials by loading the account.
func (f *AlpacaFetcher) Prepare(ctx context.Context) error {
	_, err := withContext(ctx, f.Trading.GetAccount)
	if err != nil {
		return fmt.Errorf("get account: %w", mapAlpacaError(err))
	}
	return nil
}

func (f *AlpacaFetcher) ResolveInstrument(ctx context.Context, symbol string) (string, error) {
	asset, err := withContext(ctx, func() (*alpaca.Asset, error) {
		return f.Trading.GetAsset(symbol)
	})
	if err != nil {
		return "", fmt.Errorf("get asset %s: %w", symbol, mapAlpacaError(err))
	}
	if asset.Status != alpaca.AssetActive {
		return "", fmt.Errorf("%w: %s is %s", ErrUnknownSymbol, symbol, asset.Status)
	}
	return asset.Symbol, nil
}

func alpacaTimeFrame(iv model.Interval) (marketdata.TimeFrame, error) {
	switch iv {
	case model.IntervalMinute:
		return marketdata.NewTimeFrame(1, marketdata.Min), nil
	case model.Interval3Minute:
		return marketdata.NewTimeFrame(3, marketdata.Min), nil
	case model.Interval5Minute:
		return marketdata.NewTimeFrame(5, marketdata.Min), nil
	case model.Interval10Minute:
		return marketdata.NewTimeFrame(10, marketdata.Min), nil
	case model.Interval15Minute:
		return marketdata.NewTimeFrame(15, marketdata.Min), nil
	case model.Interval30Minute:
		return marketdata.NewTimeFrame(30, marketdata.Min), nil
	case model.Interval60Minute:
		return marketdata.NewTimeFrame(1, marketdata.Hour), nil
	case model.IntervalDay:
		return marketdata.NewTimeFrame(1, marketdata.Day), nil
	default:
		return marketdata.TimeFrame{}, fmt.Errorf("unsupported interval %q", iv)
	}
}

func (f *AlpacaFetcher) FetchBars(ctx context.Context, instrument string, from, to time.Time, iv model.Interval) ([]model.Bar, error) {
	tf, err := alpacaTimeFrame(iv)
	if err != nil {
		return nil, err
	}
	raw, err := withContext(ctx, func() ([]marketdata.Bar, error) {
		return f.Data.GetBars(instrument, marketdata.GetBarsRequest{
			TimeFrame: tf,
			Start:     from,
			End:       to,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("get bars %s: %w", instrument, mapAlpacaError(err))
	}
	if len(raw) == 0 {
		return nil, ErrNoData
	}

	bars := make([]model.Bar, len(raw))
	for i, b := range raw {
		bars[i] = model.Bar{
			Time:   b.Timestamp,
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: int64(b.Volume),
		}
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}
