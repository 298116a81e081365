package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Asset is one instrument of the investable universe.
type Asset struct {
	Symbol string `yaml:"symbol"`
	Name   string `yaml:"name"`
}

// Config holds all application configuration.
type Config struct {
	Universe   []Asset `yaml:"universe"`
	DataWindow struct {
		Start string `yaml:"start" env:"DATA_WINDOW_START"`
	} `yaml:"data_window"`
	PriceSource struct {
		BaseURL           string        `yaml:"base_url" env:"YAHOO_BASE_URL"`
		RequestsPerSecond float64       `yaml:"requests_per_second" env:"YAHOO_RPS"`
		Timeout           time.Duration `yaml:"timeout" env:"YAHOO_TIMEOUT"`
	} `yaml:"price_source"`
	Inflation struct {
		BaseURL  string        `yaml:"base_url" env:"FRED_BASE_URL"`
		SeriesID string        `yaml:"series_id" env:"FRED_SERIES_ID"`
		Timeout  time.Duration `yaml:"timeout" env:"FRED_TIMEOUT"`
	} `yaml:"inflation"`
	Optimizer struct {
		MaxIterations  int `yaml:"max_iterations" env:"OPTIMIZER_MAX_ITERATIONS"`
		MaxEvaluations int `yaml:"max_evaluations" env:"OPTIMIZER_MAX_EVALUATIONS"`
	} `yaml:"optimizer"`
	Cache struct {
		RedisAddr string        `yaml:"redis_addr" env:"REDIS_ADDR"`
		TTL       time.Duration `yaml:"ttl" env:"CACHE_TTL"`
	} `yaml:"cache"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path" env:"SQLITE_PATH"`
	} `yaml:"database"`
	Schedule struct {
		WarmCron string `yaml:"warm_cron" env:"CRON_WARM"`
	} `yaml:"schedule"`
	Metrics struct {
		Addr string `yaml:"addr" env:"METRICS_ADDR"`
	} `yaml:"metrics"`
	Log struct {
		Level string `yaml:"level" env:"LOG_LEVEL"`
		JSON  bool   `yaml:"json" env:"LOG_JSON"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy" env:"HTTPS_PROXY"`
}

// DefaultUniverse is the instrument set used when the config names none:
// an equity index, a secondary index, a commodity proxy and a fund proxy.
var DefaultUniverse = []Asset{
	{Symbol: "^NSEI", Name: "NIFTY 50"},
	{Symbol: "^BSESN", Name: "BSE SENSEX"},
	{Symbol: "GLD", Name: "SPDR Gold Shares"},
	{Symbol: "0P0001BB7Q.BO", Name: "Mutual fund proxy"},
}

// Load reads config from a YAML file, then applies environment variable overrides.
// A missing file is not an error.
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

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if len(c.Universe) == 0 {
		c.Universe = append([]Asset(nil), DefaultUniverse...)
	}
	if c.DataWindow.Start == "" {
		c.DataWindow.Start = "2010-01-01"
	}
	if c.PriceSource.BaseURL == "" {
		c.PriceSource.BaseURL = "https://query1.finance.yahoo.com"
	}
	if c.PriceSource.RequestsPerSecond == 0 {
		c.PriceSource.RequestsPerSecond = 2
	}
	if c.PriceSource.Timeout == 0 {
		c.PriceSource.Timeout = 30 * time.Second
	}
	if c.Inflation.BaseURL == "" {
		c.Inflation.BaseURL = "https://fred.stlouisfed.org"
	}
	if c.Inflation.SeriesID == "" {
		c.Inflation.SeriesID = "FPCPITOTLZGIND"
	}
	if c.Inflation.Timeout == 0 {
		c.Inflation.Timeout = 15 * time.Second
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = 12 * time.Hour
	}
	if c.Schedule.WarmCron == "" {
		c.Schedule.WarmCron = "0 0 6 * * *"
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9100"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if len(c.Universe) == 0 {
		return fmt.Errorf("universe must name at least one asset")
	}
	seen := make(map[string]bool, len(c.Universe))
	for i, a := range c.Universe {
		if a.Symbol == "" {
			return fmt.Errorf("universe[%d].symbol is required", i)
		}
		if seen[a.Symbol] {
			return fmt.Errorf("universe symbol %q is listed twice", a.Symbol)
		}
		seen[a.Symbol] = true
	}
	if _, err := c.WindowStart(); err != nil {
		return err
	}
	if c.PriceSource.RequestsPerSecond < 0 {
		return fmt.Errorf("price_source.requests_per_second must not be negative")
	}
	if c.Optimizer.MaxIterations < 0 || c.Optimizer.MaxEvaluations < 0 {
		return fmt.Errorf("optimizer limits must not be negative")
	}
	return nil
}

// Symbols returns the universe's asset identifiers in configured order.
func (c *Config) Symbols() []string {
	out := make([]string, len(c.Universe))
	for i, a := range c.Universe {
		out[i] = a.Symbol
	}
	return out
}

// WindowStart parses the start of the price-history window.
func (c *Config) WindowStart() (time.Time, error) {
	t, err := time.Parse("2006-01-02", c.DataWindow.Start)
	if err != nil {
		return time.Time{}, fmt.Errorf("data_window.start: %w", err)
	}
	return t, nil
}
