// Package config loads the YAML configuration shared by the CLI tools
// and the server.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"market-spread-lab/internal/domain"
)

// Config is the complete application configuration.
type Config struct {
	Scan      ScanConfig      `yaml:"scan"`
	Exchanges ExchangesConfig `yaml:"exchanges"`
	Storage   StorageConfig   `yaml:"storage"`
	Server    ServerConfig    `yaml:"server"`
}

// ScanConfig controls scan behavior.
type ScanConfig struct {
	Interval     string   `yaml:"interval"`       // candle interval (1m, 5m, 30m, 1h, 1d)
	Anchors      []string `yaml:"anchors"`        // anchor currencies, nil selects BTC and ETH
	Sort         string   `yaml:"sort"`           // ascending or descending
	Shuffle      bool     `yaml:"shuffle"`        // randomize market order
	Limit        int      `yaml:"limit"`          // max markets per scan, 0 means all
	MinVolumeUSD float64  `yaml:"min_volume_usd"` // ticker scan volume floor
	TopN         int      `yaml:"top_n"`          // report row cap, 0 means all
}

// ExchangesConfig holds per-venue endpoints. Empty URLs select the
// production endpoints.
type ExchangesConfig struct {
	BittrexURL   string  `yaml:"bittrex_url"`
	BinanceURL   string  `yaml:"binance_url"`
	CoinGeckoURL string  `yaml:"coingecko_url"`
	TickerWSURL  string  `yaml:"ticker_ws_url"`
	RateLimitRPS float64 `yaml:"rate_limit_rps"` // per-venue request rate, 0 keeps the default
}

// StorageConfig holds database DSNs. An empty DSN disables that backend
// and the tools fall back to in-memory stores.
type StorageConfig struct {
	PostgresDSN   string `yaml:"postgres_dsn"`
	ClickhouseDSN string `yaml:"clickhouse_dsn"`
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Addr string `yaml:"addr"` // listen address, defaults to :8080
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Scan: ScanConfig{
			Interval: string(domain.Interval30m),
			Sort:     string(domain.SortDescending),
		},
		Server: ServerConfig{Addr: ":8080"},
	}
}

// Load reads and validates a YAML configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate ensures the configuration is consistent.
func (c *Config) Validate() error {
	if _, err := domain.ParseInterval(c.Scan.Interval); err != nil {
		return err
	}
	if c.Scan.Sort != "" && !domain.SortDirection(c.Scan.Sort).Valid() {
		return fmt.Errorf("unknown sort direction %q", c.Scan.Sort)
	}
	if c.Scan.Limit < 0 {
		return fmt.Errorf("limit must not be negative")
	}
	if c.Scan.MinVolumeUSD < 0 {
		return fmt.Errorf("min_volume_usd must not be negative")
	}
	return nil
}

// Interval returns the parsed candle interval.
func (c *Config) Interval() domain.Interval {
	return domain.Interval(c.Scan.Interval)
}

// SortDirection returns the configured ranking direction, defaulting
// to descending.
func (c *Config) SortDirection() domain.SortDirection {
	if c.Scan.Sort == "" {
		return domain.SortDescending
	}
	return domain.SortDirection(c.Scan.Sort)
}
