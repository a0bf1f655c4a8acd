package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"SurgeScreener/internal/model"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadAndValidate(t *testing.T) {
	path := writeConfig(t, `
data_source:
  provider: kite
  base_url: "https://kite.example"
  timezone: Asia/Kolkata
  lookback_days: 10
  timeout: 15s
screener:
  threshold: 2.5
  interval: 5minute
  workers: 8
  symbol_timeout: 5s
universe:
  - symbol: INFY
    sector: IT
  - symbol: SBIN
    sector: Banking
schedule:
  refresh_cron: "0 */10 * * * *"
logging:
  level: debug
  format: text
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	if cfg.DataSource.BaseURL != "https://kite.example" {
		t.Errorf("unexpected base url: %s", cfg.DataSource.BaseURL)
	}
	if cfg.DataSource.Timeout != 15*time.Second {
		t.Errorf("unexpected timeout: %v", cfg.DataSource.Timeout)
	}
	if cfg.Screener.Threshold != 2.5 {
		t.Errorf("unexpected threshold: %f", cfg.Screener.Threshold)
	}
	if cfg.Interval() != model.Interval5Minute {
		t.Errorf("unexpected interval: %s", cfg.Interval())
	}
	if len(cfg.Universe) != 2 {
		t.Fatalf("expected 2 symbols, got %d", len(cfg.Universe))
	}
	if sym := cfg.Universe[1]; sym.Symbol != "SBIN" || sym.Sector != "Banking" {
		t.Errorf("expected SBIN in Banking, got %+v", sym)
	}
	if cfg.Credentials.EnvPrefix != "KITE" {
		t.Errorf("expected env prefix derived from provider, got %q", cfg.Credentials.EnvPrefix)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("missing file should not fail: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if cfg.Screener.Threshold != 2.0 {
		t.Errorf("expected default threshold 2.0, got %f", cfg.Screener.Threshold)
	}
	if cfg.Interval() != model.Interval15Minute {
		t.Errorf("expected default interval 15minute, got %s", cfg.Interval())
	}
	if cfg.DataSource.LookbackDays != 7 {
		t.Errorf("expected 7 lookback days, got %d", cfg.DataSource.LookbackDays)
	}
	if len(cfg.Universe) != len(DefaultUniverse) {
		t.Errorf("expected default universe, got %d symbols", len(cfg.Universe))
	}
	if cfg.Schedule.RefreshCron != "0 */5 * * * *" {
		t.Errorf("unexpected refresh cron: %s", cfg.Schedule.RefreshCron)
	}
	if cfg.Location().String() != "Asia/Kolkata" {
		t.Errorf("unexpected location: %s", cfg.Location())
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SCREENER_PROVIDER", "mock")
	t.Setenv("SCREENER_THRESHOLD", "3.5")
	t.Setenv("SCREENER_INTERVAL", "5minute")
	t.Setenv("SCREENER_SYMBOLS", "INFY:IT, SBIN:Banking ,ITC")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DataSource.Provider != "mock" {
		t.Errorf("expected mock provider, got %s", cfg.DataSource.Provider)
	}
	if cfg.Screener.Threshold != 3.5 {
		t.Errorf("expected threshold 3.5, got %f", cfg.Screener.Threshold)
	}
	if cfg.Screener.Interval != "5minute" {
		t.Errorf("expected 5minute, got %s", cfg.Screener.Interval)
	}
	want := []Symbol{{"INFY", "IT"}, {"SBIN", "Banking"}, {"ITC", ""}}
	if len(cfg.Universe) != len(want) {
		t.Fatalf("expected %d symbols, got %d", len(want), len(cfg.Universe))
	}
	for i, s := range want {
		if cfg.Universe[i] != s {
			t.Errorf("symbol %d: got %+v, want %+v", i, cfg.Universe[i], s)
		}
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"provider", func(c *Config) { c.DataSource.Provider = "yahoo" }},
		{"timezone", func(c *Config) { c.DataSource.Timezone = "Mars/Olympus" }},
		{"threshold", func(c *Config) { c.Screener.Threshold = -1 }},
		{"interval", func(c *Config) { c.Screener.Interval = "7minute" }},
		{"workers", func(c *Config) { c.Screener.Workers = -2 }},
		{"duplicate symbol", func(c *Config) { c.Universe = []Symbol{{Symbol: "TCS"}, {Symbol: "TCS"}} }},
		{"empty symbol", func(c *Config) { c.Universe = []Symbol{{Sector: "IT"}} }},
		{"log format", func(c *Config) { c.Logging.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
			if err != nil {
				t.Fatal(err)
			}
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Errorf("expected validation error for %s", tt.name)
			}
		})
	}
}

func TestLoadMalformed(t *testing.T) {
	path := writeConfig(t, "screener: [unterminated")
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}
