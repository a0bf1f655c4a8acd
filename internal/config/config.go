package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"

	"SurgeScreener/internal/model"
)

// Symbol is one entry of the screened universe.
type Symbol struct {
	Symbol string `yaml:"symbol"`
	Sector string `yaml:"sector"`
}

// Config holds all application configuration.
type Config struct {
	DataSource struct {
		Provider     string        `yaml:"provider"` // kite, alpaca or mock
		BaseURL      string        `yaml:"base_url"`
		DataURL      string        `yaml:"data_url"`
		Exchange     string        `yaml:"exchange"`
		Timezone     string        `yaml:"timezone"`
		LookbackDays int           `yaml:"lookback_days"`
		Timeout      time.Duration `yaml:"timeout"`
	} `yaml:"data_source"`
	Credentials struct {
		EnvFile   string `yaml:"env_file"`
		EnvPrefix string `yaml:"env_prefix"`
	} `yaml:"credentials"`
	Screener struct {
		Threshold     float64       `yaml:"threshold"`
		Interval      string        `yaml:"interval"`
		Workers       int           `yaml:"workers"`
		SymbolTimeout time.Duration `yaml:"symbol_timeout"`
	} `yaml:"screener"`
	Universe []Symbol `yaml:"universe"`
	Schedule struct {
		RefreshCron string `yaml:"refresh_cron"`
	} `yaml:"schedule"`
	Server struct {
		Addr        string `yaml:"addr"`
		MetricsAddr string `yaml:"metrics_addr"`
	} `yaml:"server"`
	Board struct {
		SnapshotFile string `yaml:"snapshot_file"`
	} `yaml:"board"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`
	Proxy string `yaml:"proxy"`
}

// DefaultUniverse is the NIFTY100 subset screened when no universe is configured.
var DefaultUniverse = []string{
	"ADANIENT", "ADANIPORTS", "APOLLOHOSP", "ASIANPAINT", "AXISBANK",
	"BAJAJ-AUTO", "BAJFINANCE", "BAJAJFINSV", "BPCL", "BHARTIARTL",
	"BRITANNIA", "CIPLA", "COALINDIA", "DIVISLAB", "DRREDDY",
	"EICHERMOT", "GRASIM", "HCLTECH", "HDFCBANK", "HDFCLIFE",
	"HEROMOTOCO", "HINDALCO", "HINDUNILVR", "ICICIBANK", "ITC",
	"INDUSINDBK", "INFY", "JSWSTEEL", "KOTAKBANK", "LT",
	"M&M", "MARUTI", "NTPC", "NESTLEIND", "ONGC",
	"POWERGRID", "RELIANCE", "SBILIFE", "SBIN", "SUNPHARMA",
	"TCS", "TATACONSUM", "TATAMOTORS", "TATASTEEL", "TECHM",
	"TITAN", "ULTRACEMCO", "UPL", "WIPRO",
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("SCREENER_PROVIDER"); v != "" {
		cfg.DataSource.Provider = v
	}
	if v := os.Getenv("SCREENER_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("SCREENER_TIMEZONE"); v != "" {
		cfg.DataSource.Timezone = v
	}
	if v := os.Getenv("SCREENER_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Screener.Threshold = f
		}
	}
	if v := os.Getenv("SCREENER_INTERVAL"); v != "" {
		cfg.Screener.Interval = v
	}
	if v := os.Getenv("SCREENER_SYMBOLS"); v != "" {
		cfg.Universe = parseSymbols(v)
	}
	if v := os.Getenv("SCREENER_REFRESH_CRON"); v != "" {
		cfg.Schedule.RefreshCron = v
	}
	if v := os.Getenv("SCREENER_SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("SCREENER_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}

	// Defaults
	if cfg.DataSource.Provider == "" {
		cfg.DataSource.Provider = "kite"
	}
	if cfg.DataSource.BaseURL == "" && cfg.DataSource.Provider == "kite" {
		cfg.DataSource.BaseURL = "https://api.kite.trade"
	}
	if cfg.DataSource.Exchange == "" {
		cfg.DataSource.Exchange = "NSE"
	}
	if cfg.DataSource.Timezone == "" {
		cfg.DataSource.Timezone = "Asia/Kolkata"
	}
	if cfg.DataSource.LookbackDays == 0 {
		cfg.DataSource.LookbackDays = 7
	}
	if cfg.DataSource.Timeout == 0 {
		cfg.DataSource.Timeout = 30 * time.Second
	}
	if cfg.Credentials.EnvFile == "" {
		cfg.Credentials.EnvFile = ".env"
	}
	if cfg.Credentials.EnvPrefix == "" {
		cfg.Credentials.EnvPrefix = strings.ToUpper(cfg.DataSource.Provider)
	}
	if cfg.Screener.Threshold == 0 {
		cfg.Screener.Threshold = 2.0
	}
	if cfg.Screener.Interval == "" {
		cfg.Screener.Interval = string(model.Interval15Minute)
	}
	if cfg.Screener.Workers == 0 {
		cfg.Screener.Workers = 4
	}
	if cfg.Screener.SymbolTimeout == 0 {
		cfg.Screener.SymbolTimeout = 20 * time.Second
	}
	if len(cfg.Universe) == 0 {
		for _, s := range DefaultUniverse {
			cfg.Universe = append(cfg.Universe, Symbol{Symbol: s})
		}
	}
	if cfg.Schedule.RefreshCron == "" {
		cfg.Schedule.RefreshCron = "0 */5 * * * *"
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Board.SnapshotFile == "" {
		cfg.Board.SnapshotFile = "data/board.json"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	return cfg, nil
}

// parseSymbols reads "SYM[:SECTOR],..." lists.
func parseSymbols(v string) []Symbol {
	var out []Symbol
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		sym, sector, _ := strings.Cut(part, ":")
		out = append(out, Symbol{Symbol: strings.TrimSpace(sym), Sector: strings.TrimSpace(sector)})
	}
	return out
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	switch c.DataSource.Provider {
	case "kite", "alpaca", "mock":
	default:
		return fmt.Errorf("data_source.provider must be one of: kite, alpaca, mock")
	}
	if c.DataSource.Provider == "kite" && c.DataSource.BaseURL == "" {
		return fmt.Errorf("data_source.base_url is required for kite")
	}
	if _, err := time.LoadLocation(c.DataSource.Timezone); err != nil {
		return fmt.Errorf("data_source.timezone: %w", err)
	}
	if c.DataSource.LookbackDays < 1 {
		return fmt.Errorf("data_source.lookback_days must be at least 1")
	}
	if c.Screener.Threshold <= 0 {
		return fmt.Errorf("screener.threshold must be positive")
	}
	if _, err := model.ParseInterval(c.Screener.Interval); err != nil {
		return fmt.Errorf("screener.interval: %w", err)
	}
	if c.Screener.Workers < 1 {
		return fmt.Errorf("screener.workers must be at least 1")
	}
	seen := make(map[string]bool, len(c.Universe))
	for _, s := range c.Universe {
		if s.Symbol == "" {
			return fmt.Errorf("universe entries need a symbol")
		}
		if seen[s.Symbol] {
			return fmt.Errorf("universe lists %s twice", s.Symbol)
		}
		seen[s.Symbol] = true
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("logging.format must be one of: json, text")
	}
	return nil
}

// Location returns the market timezone. Validate guarantees it resolves.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.DataSource.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// Interval returns the configured default bar interval.
func (c *Config) Interval() model.Interval {
	iv, err := model.ParseInterval(c.Screener.Interval)
	if err != nil {
		return model.Interval15Minute
	}
	return iv
}
