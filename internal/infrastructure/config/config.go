package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	ProviderYFinance   = "yfinance"
	ProviderFinnhub    = "finnhub"
	ProviderTwelveData = "twelvedata"

	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverOracle   = "oracle"
)

type Config struct {
	ServerPort string
	ServerHost string
	LogLevel   string

	MarketDataProvider string
	YFinanceBaseURL    string
	FinnhubAPIKey      string
	TwelveDataAPIKey   string
	QuoteTimeout       time.Duration
	// QuoteRateLimit is requests per second across the process; 0 disables it.
	QuoteRateLimit int
	// MaxConcurrentQuotes bounds one portfolio refresh fan-out; 0 means unbounded.
	MaxConcurrentQuotes int

	// PriceRefreshInterval of 0 disables the background updater.
	PriceRefreshInterval time.Duration

	DBDriver string
	DBDSN    string
}

func Load() (*Config, error) {
	cfg := &Config{
		ServerPort:         getEnvOrDefault("SERVER_PORT", "8080"),
		ServerHost:         getEnvOrDefault("SERVER_HOST", "localhost"),
		LogLevel:           getEnvOrDefault("LOG_LEVEL", "info"),
		MarketDataProvider: strings.ToLower(getEnvOrDefault("MARKET_DATA_PROVIDER", ProviderYFinance)),
		YFinanceBaseURL:    getEnvOrDefault("YFINANCE_BASE_URL", "http://127.0.0.1:8000"),
		FinnhubAPIKey:      os.Getenv("FINNHUB_API_KEY"),
		TwelveDataAPIKey:   os.Getenv("TWELVE_DATA_API_KEY"),
		DBDriver:           strings.ToLower(getEnvOrDefault("DB_DRIVER", DriverMemory)),
		DBDSN:              os.Getenv("DB_DSN"),
	}

	switch cfg.MarketDataProvider {
	case ProviderYFinance:
	case ProviderFinnhub:
		if cfg.FinnhubAPIKey == "" {
			return nil, fmt.Errorf("FINNHUB_API_KEY environment variable is required for finnhub provider")
		}
	case ProviderTwelveData:
		if cfg.TwelveDataAPIKey == "" {
			return nil, fmt.Errorf("TWELVE_DATA_API_KEY environment variable is required for twelvedata provider")
		}
	default:
		return nil, fmt.Errorf("unsupported MARKET_DATA_PROVIDER: %s", cfg.MarketDataProvider)
	}

	switch cfg.DBDriver {
	case DriverMemory:
	case DriverPostgres, DriverOracle:
		if cfg.DBDSN == "" {
			return nil, fmt.Errorf("DB_DSN environment variable is required for %s driver", cfg.DBDriver)
		}
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER: %s", cfg.DBDriver)
	}

	var err error
	if cfg.QuoteTimeout, err = durationEnv("QUOTE_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	if cfg.PriceRefreshInterval, err = durationEnv("PRICE_REFRESH_INTERVAL", "60s"); err != nil {
		return nil, err
	}
	if cfg.QuoteRateLimit, err = intEnv("QUOTE_RATE_LIMIT", "0"); err != nil {
		return nil, err
	}
	if cfg.MaxConcurrentQuotes, err = intEnv("MAX_CONCURRENT_QUOTES", "0"); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Addr is the HTTP listen address.
func (c *Config) Addr() string {
	return c.ServerHost + ":" + c.ServerPort
}

// SlogLevel maps LogLevel to a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func durationEnv(key, defaultValue string) (time.Duration, error) {
	d, err := time.ParseDuration(getEnvOrDefault(key, defaultValue))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s: must not be negative", key)
	}
	return d, nil
}

func intEnv(key, defaultValue string) (int, error) {
	n, err := strconv.Atoi(getEnvOrDefault(key, defaultValue))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("invalid %s: must not be negative", key)
	}
	return n, nil
}
