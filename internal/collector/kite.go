package collector

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"SurgeScreener/internal/model"
)

const kiteTimeLayout = "2006-01-02 15:04:05"

// KiteFetcher implements Fetcher using the Kite Connect REST API.
type KiteFetcher struct {
	BaseURL     string
	Exchange    string
	APIKey      string
	AccessToken string
	Client      *http.Client

	mu          sync.RWMutex
	instruments map[string]string // tradingsymbol -> instrument_token
}

// NewKiteFetcher creates a new fetcher with optional proxy support.
func NewKiteFetcher(baseURL, exchange, apiKey, accessToken, proxyURL string, timeout time.Duration) *KiteFetcher {
	return &KiteFetcher{
		BaseURL:     strings.TrimSuffix(baseURL, "/"),
		Exchange:    exchange,
		APIKey:      apiKey,
		AccessToken: accessToken,
		Client:      newHTTPClient(proxyURL, timeout),
	}
}

func (f *KiteFetcher) Name() string { return "kite" }

// kiteError is the JSON envelope Kite returns on failures.
type kiteError struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	ErrorType string `json:"error_type"`
}

func (f *KiteFetcher) get(ctx context.Context, endpoint string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Kite-Version", "3")
	req.Header.Set("Authorization", fmt.Sprintf("token %s:%s", f.APIKey, f.AccessToken))

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		var ke kiteError
		_ = json.Unmarshal(body, &ke)
		if resp.StatusCode == http.StatusForbidden || ke.ErrorType == "TokenException" {
			return nil, fmt.Errorf("%w: %s", ErrAuth, ke.Message)
		}
		return nil, fmt.Errorf("status %d, body: %s", resp.StatusCode, string(body))
	}
	return resp, nil
}

// Prepare downloads the instrument dump for the exchange. It doubles as the
// credential check: an invalid access token fails here.
func (f *KiteFetcher) Prepare(ctx context.Context) error {
	resp, err := f.get(ctx, fmt.Sprintf("%s/instruments/%s", f.BaseURL, url.PathEscape(f.Exchange)))
	if err != nil {
		return fmt.Errorf("fetch instruments: %w", err)
	}
	defer resp.Body.Close()

	instruments, err := parseInstruments(resp.Body)
	if err != nil {
		return fmt.Errorf("parse instruments: %w", err)
	}

	f.mu.Lock()
	f.instruments = instruments
	f.mu.Unlock()
	return nil
}

func parseInstruments(r io.Reader) (map[string]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		return nil, err
	}
	tokenCol, symbolCol := -1, -1
	for i, h := range header {
		switch strings.TrimSpace(h) {
		case "instrument_token":
			tokenCol = i
		case "tradingsymbol":
			symbolCol = i
		}
	}
	if tokenCol < 0 || symbolCol < 0 {
		return nil, fmt.Errorf("instrument dump lacks instrument_token/tradingsymbol columns")
	}

	out := make(map[string]string)
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if tokenCol >= len(rec) || symbolCol >= len(rec) {
			continue
		}
		sym := rec[symbolCol]
		if _, dup := out[sym]; !dup {
			out[sym] = rec[tokenCol]
		}
	}
	return out, nil
}

func (f *KiteFetcher) ResolveInstrument(_ context.Context, symbol string) (string, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.instruments == nil {
		return "", fmt.Errorf("instrument dump not loaded")
	}
	token, ok := f.instruments[symbol]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownSymbol, symbol)
	}
	return token, nil
}

// kiteHistory is the response structure of the historical candles endpoint.
type kiteHistory struct {
	Status string `json:"status"`
	Data   struct {
		Candles [][]interface{} `json:"candles"`
	} `json:"data"`
}

func toFloat(v interface{}) float64 {
	if v == nil {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case json.Number:
		f, _ := n.Float64()
		return f
	default:
		return 0
	}
}

func (f *KiteFetcher) FetchBars(ctx context.Context, instrument string, from, to time.Time, iv model.Interval) ([]model.Bar, error) {
	q := url.Values{}
	q.Set("from", from.Format(kiteTimeLayout))
	q.Set("to", to.Format(kiteTimeLayout))
	endpoint := fmt.Sprintf("%s/instruments/historical/%s/%s?%s",
		f.BaseURL, url.PathEscape(instrument), url.PathEscape(string(iv)), q.Encode())

	resp, err := f.get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("fetch bars: %w", err)
	}
	defer resp.Body.Close()

	var hist kiteHistory
	if err := json.NewDecoder(resp.Body).Decode(&hist); err != nil {
		return nil, fmt.Errorf("decode bars: %w", err)
	}
	if len(hist.Data.Candles) == 0 {
		return nil, ErrNoData
	}

	bars := make([]model.Bar, 0, len(hist.Data.Candles))
	for _, c := range hist.Data.Candles {
		if len(c) < 6 {
			continue
		}
		ts, ok := c[0].(string)
		if !ok {
			continue
		}
		t, err := parseKiteTime(ts)
		if err != nil {
			return nil, fmt.Errorf("parse candle time %q: %w", ts, err)
		}
		bars = append(bars, model.Bar{
			Time:   t,
			Open:   toFloat(c[1]),
			High:   toFloat(c[2]),
			Low:    toFloat(c[3]),
			Close:  toFloat(c[4]),
			Volume: int64(toFloat(c[5])),
		})
	}
	if len(bars) == 0 {
		return nil, ErrNoData
	}

	// Ensure chronological order
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

func parseKiteTime(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02T15:04:05-0700", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp")
}
