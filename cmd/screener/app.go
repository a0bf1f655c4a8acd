package main

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"SurgeScreener/internal/collector"
	"SurgeScreener/internal/config"
	"SurgeScreener/internal/logger"
	"SurgeScreener/internal/metrics"
	"SurgeScreener/internal/model"
	"SurgeScreener/internal/screener"
	"SurgeScreener/internal/secrets"
)

// app holds the components shared by every subcommand.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	screener *screener.Screener
}

func newApp(path string) (*app, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	log, err := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	fetcher, err := newFetcher(cfg)
	if err != nil {
		return nil, err
	}
	log.Info("data source", zap.String("provider", fetcher.Name()), zap.Int("symbols", len(cfg.Universe)))

	col := collector.NewCollector(fetcher, cfg.DataSource.LookbackDays, log.Named("collector"))
	sc := screener.New(col,
		screener.WithWorkers(cfg.Screener.Workers),
		screener.WithSymbolTimeout(cfg.Screener.SymbolTimeout),
		screener.WithLogger(log.Named("screener")),
		screener.WithObserver(metrics.Observer{}),
		screener.WithClock(func() time.Time { return time.Now().In(cfg.Location()) }),
	)
	return &app{cfg: cfg, logger: log, screener: sc}, nil
}

func newFetcher(cfg *config.Config) (collector.Fetcher, error) {
	ds := cfg.DataSource
	if ds.Provider == "mock" {
		return newMockFetcher(cfg), nil
	}

	creds, err := secrets.Load(cfg.Credentials.EnvFile, cfg.Credentials.EnvPrefix)
	if err != nil {
		return nil, fmt.Errorf("load credentials: %w", err)
	}

	switch ds.Provider {
	case "kite":
		if err := creds.Require("api_key", "access_token"); err != nil {
			return nil, err
		}
		return collector.NewKiteFetcher(ds.BaseURL, ds.Exchange, creds.APIKey, creds.AccessToken, cfg.Proxy, ds.Timeout), nil
	case "alpaca":
		if err := creds.Require("api_key", "api_secret"); err != nil {
			return nil, err
		}
		return collector.NewAlpacaFetcher(creds.APIKey, creds.APISecret, ds.BaseURL, ds.DataURL), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", ds.Provider)
	}
}

// newMockFetcher serves synthetic sessions so the service can run without
// credentials. Surge multipliers cycle through the universe.
func newMockFetcher(cfg *config.Config) *collector.MockFetcher {
	asOf := time.Now().In(cfg.Location())
	iv := cfg.Interval()
	bars := make(map[string][]model.Bar, len(cfg.Universe))
	for i, s := range cfg.Universe {
		surge := 0.5 + float64(i%8)*0.5
		bars[s.Symbol] = collector.GenerateSessionBars(asOf, cfg.DataSource.LookbackDays, iv, 100+float64(i)*10, 10000, surge)
	}
	return &collector.MockFetcher{Bars: bars}
}
