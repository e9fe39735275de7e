package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v10"
)

type Server struct {
	Port              string `json:"port" env:"PORT"`
	RequestTimeoutSec int    `json:"request_timeout_sec" env:"REQUEST_TIMEOUT_SEC"`
	CORSOrigin        string `json:"cors_origin" env:"CORS_ORIGIN"`
}

type Gateway struct {
	CacheTTLSeconds    int    `json:"cache_ttl_sec" env:"CACHE_TTL_SEC"`
	ProviderTimeoutSec int    `json:"provider_timeout_sec" env:"PROVIDER_TIMEOUT_SEC"`
	MarketOpenHour     int    `json:"market_open_hour" env:"MARKET_OPEN_HOUR"`
	MarketCloseHour    int    `json:"market_close_hour" env:"MARKET_CLOSE_HOUR"`
	// Timezone is an IANA name; empty means the process local zone.
	Timezone        string `json:"timezone" env:"MARKET_TIMEZONE"`
	DefaultPageSize int    `json:"default_page_size" env:"DEFAULT_PAGE_SIZE"`
	SearchPageSize  int    `json:"search_page_size" env:"SEARCH_PAGE_SIZE"`
}

type Yahoo struct {
	Enabled               bool   `json:"enabled" env:"YAHOO_ENABLED"`
	BaseURL               string `json:"base_url" env:"YAHOO_BASE_URL"`
	MaxRequestsPerMinute  int    `json:"max_requests_per_minute" env:"YAHOO_MAX_RPM"`
	Burst                 int    `json:"burst" env:"YAHOO_BURST"`
	MinRequestIntervalSec int    `json:"min_request_interval_sec" env:"YAHOO_MIN_INTERVAL_SEC"`
}

type FMP struct {
	Enabled               bool   `json:"enabled" env:"FMP_ENABLED"`
	APIKey                string `json:"api_key" env:"FMP_API_KEY"`
	BaseURL               string `json:"base_url" env:"FMP_BASE_URL"`
	MaxItemsPerRequest    int    `json:"max_items_per_request" env:"FMP_MAX_ITEMS_PER_REQUEST"`
	MaxConcurrency        int    `json:"max_concurrency" env:"FMP_MAX_CONCURRENCY"`
	MaxRequestsPerMinute  int    `json:"max_requests_per_minute" env:"FMP_MAX_RPM"`
	Burst                 int    `json:"burst" env:"FMP_BURST"`
	MinRequestIntervalSec int    `json:"min_request_interval_sec" env:"FMP_MIN_INTERVAL_SEC"`
	KeyInHeader           bool   `json:"key_in_header" env:"FMP_KEY_IN_HEADER"`
}

type Alpaca struct {
	Enabled   bool   `json:"enabled" env:"ALPACA_ENABLED"`
	APIKey    string `json:"api_key" env:"APCA_API_KEY_ID"`
	APISecret string `json:"api_secret" env:"APCA_API_SECRET_KEY"`
	BaseURL   string `json:"base_url" env:"APCA_API_DATA_URL"`
	Feed      string `json:"feed" env:"ALPACA_FEED"`
}

type Redis struct {
	// Addr enables the shared cache tier when set.
	Addr     string `json:"addr" env:"REDIS_ADDR"`
	Password string `json:"password" env:"REDIS_PASSWORD"`
	DB       int    `json:"db" env:"REDIS_DB"`
}

type Log struct {
	Level  string `json:"level" env:"LOG_LEVEL"`
	Format string `json:"format" env:"LOG_FORMAT"`
}

type Config struct {
	Server  Server  `json:"server"`
	Gateway Gateway `json:"gateway"`
	Yahoo   Yahoo   `json:"yahoo"`
	FMP     FMP     `json:"fmp"`
	Alpaca  Alpaca  `json:"alpaca"`
	Redis   Redis   `json:"redis"`
	Log     Log     `json:"log"`
}

func Default() Config {
	return Config{
		Server: Server{Port: "8080", RequestTimeoutSec: 15, CORSOrigin: "*"},
		Gateway: Gateway{
			CacheTTLSeconds:    60,
			ProviderTimeoutSec: 5,
			MarketOpenHour:     9,
			MarketCloseHour:    16,
			DefaultPageSize:    12,
			SearchPageSize:     10,
		},
		Yahoo: Yahoo{
			Enabled:              true,
			BaseURL:              "https://query1.finance.yahoo.com",
			MaxRequestsPerMinute: 60,
			Burst:                10,
		},
		FMP: FMP{
			Enabled:              true,
			APIKey:               "demo",
			BaseURL:              "https://financialmodelingprep.com/api",
			MaxItemsPerRequest:   50,
			MaxConcurrency:       2,
			MaxRequestsPerMinute: 5,
			Burst:                2,
		},
		Alpaca: Alpaca{
			Enabled: false,
			Feed:    "iex",
		},
		Log: Log{Level: "info", Format: "json"},
	}
}

// Load reads JSON config from path. If path is empty it tries ./config.json,
// and a missing file means defaults. Environment variables override both.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		if _, err := os.Stat("config.json"); err == nil {
			path = "config.json"
		}
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := json.Unmarshal(b, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config: %w", err)
			}
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects settings the gateway cannot run with.
func (c Config) Validate() error {
	g := c.Gateway
	if g.CacheTTLSeconds <= 0 {
		return fmt.Errorf("gateway.cache_ttl_sec must be positive, got %d", g.CacheTTLSeconds)
	}
	if g.MarketOpenHour < 0 || g.MarketCloseHour > 24 || g.MarketOpenHour >= g.MarketCloseHour {
		return fmt.Errorf("gateway market hours [%d,%d) are invalid", g.MarketOpenHour, g.MarketCloseHour)
	}
	if g.Timezone != "" {
		if _, err := time.LoadLocation(g.Timezone); err != nil {
			return fmt.Errorf("gateway.timezone: %w", err)
		}
	}
	if c.Alpaca.Enabled && (c.Alpaca.APIKey == "" || c.Alpaca.APISecret == "") {
		return errors.New("alpaca.enabled=true but APCA_API_KEY_ID/APCA_API_SECRET_KEY not set")
	}
	return nil
}

func (g Gateway) CacheTTL() time.Duration { return time.Duration(g.CacheTTLSeconds) * time.Second }

func (g Gateway) ProviderTimeout() time.Duration {
	return time.Duration(g.ProviderTimeoutSec) * time.Second
}

// Location resolves Timezone; Validate has already vetted the name.
func (g Gateway) Location() *time.Location {
	if g.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(g.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func (s Server) RequestTimeout() time.Duration {
	return time.Duration(s.RequestTimeoutSec) * time.Second
}
