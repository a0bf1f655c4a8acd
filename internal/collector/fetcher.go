package collector

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"SurgeScreener/internal/model"
)

var (
	// ErrAuth means the provider rejected the credentials.
	ErrAuth = errors.New("authentication failed")
	// ErrUnknownSymbol means the ticker has no instrument on the exchange.
	ErrUnknownSymbol = errors.New("unknown symbol")
	// ErrNoData means the provider returned no bars for the window.
	ErrNoData = errors.New("no data")
)

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	// Prepare runs once per batch. A failure here aborts the batch.
	Prepare(ctx context.Context) error
	ResolveInstrument(ctx context.Context, symbol string) (string, error)
	FetchBars(ctx context.Context, instrument string, from, to time.Time, iv model.Interval) ([]model.Bar, error)
	Name() string
}

func newHTTPClient(proxyURL string, timeout time.Duration) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
