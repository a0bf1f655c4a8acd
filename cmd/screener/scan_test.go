package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"SurgeScreener/internal/config"
	"SurgeScreener/internal/secrets"
)

const mockConfig = `
data_source:
  provider: mock
  timezone: Asia/Kolkata
  lookback_days: 5
screener:
  threshold: 2.0
  interval: 15minute
  workers: 2
universe:
  - {symbol: INFY, sector: IT}
  - {symbol: TCS, sector: IT}
  - {symbol: HDFCBANK, sector: Banking}
logging:
  level: error
`

func TestScanCommand_Mock(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgFile, []byte(mockConfig), 0o644); err != nil {
		t.Fatal(err)
	}
	csvFile := filepath.Join(dir, "out.csv")

	var out bytes.Buffer
	rootCMD.SetOut(&out)
	rootCMD.SetArgs([]string{"scan", "--config", cfgFile, "--csv", csvFile, "--threshold", "1.5"})
	if err := rootCMD.Execute(); err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if !strings.Contains(out.String(), "evaluated") || !strings.Contains(out.String(), "Volume shockers") {
		t.Errorf("unexpected output:\n%s", out.String())
	}

	data, err := os.ReadFile(csvFile)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "Symbol,LTP,Today's Volume,7-Day Avg Volume,Surge Ratio,% Change\n") {
		t.Errorf("unexpected csv:\n%s", data)
	}
}

func TestNewFetcher_MissingCredentials(t *testing.T) {
	t.Setenv("KITE_API_KEY", "")
	t.Setenv("KITE_ACCESS_TOKEN", "")

	cfg := &config.Config{}
	cfg.DataSource.Provider = "kite"
	cfg.DataSource.BaseURL = "https://api.kite.trade"
	cfg.Credentials.EnvFile = filepath.Join(t.TempDir(), "missing.env")
	cfg.Credentials.EnvPrefix = "KITE"

	if _, err := newFetcher(cfg); !errors.Is(err, secrets.ErrMissingCredentials) {
		t.Fatalf("expected ErrMissingCredentials, got %v", err)
	}
}

func TestNewFetcher_Providers(t *testing.T) {
	t.Setenv("ALPACA_API_KEY", "key")
	t.Setenv("ALPACA_API_SECRET", "secret")

	cfg := &config.Config{}
	cfg.DataSource.Provider = "alpaca"
	cfg.Credentials.EnvPrefix = "ALPACA"
	f, err := newFetcher(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Name() != "alpaca" {
		t.Errorf("expected alpaca fetcher, got %s", f.Name())
	}

	cfg.DataSource.Provider = "bloomberg"
	if _, err := newFetcher(cfg); err == nil {
		t.Error("expected error for unknown provider")
	}
}
