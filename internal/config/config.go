// Package config loads fill-stats settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Fill sources.
const (
	SourceCSV        = "csv"
	SourcePostgres   = "postgres"
	SourceClickhouse = "clickhouse"
)

// Defaults.
const (
	DefaultSlotSize              = 4500
	DefaultCacheSize             = 10000
	DefaultFetchConcurrency      = 8
	DefaultFetchLatencyPerSecond = 10 * time.Microsecond
)

// Config holds all application configuration.
type Config struct {
	Source  SourceConfig
	Cache   CacheConfig
	Backend BackendConfig
	Logging LoggingConfig
	Server  ServerConfig
}

// SourceConfig selects where fills are loaded from.
type SourceConfig struct {
	Type          string
	TradesPath    string
	PostgresDSN   string
	ClickhouseDSN string
}

// CacheConfig sizes the range cache.
type CacheConfig struct {
	SlotSize         int64
	Size             int
	FetchConcurrency int
}

// BackendConfig tunes the simulated backend.
type BackendConfig struct {
	// LatencyPerSecond is the delay charged per second of requested window.
	LatencyPerSecond time.Duration
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string
	Format string
}

// ServerConfig holds listener addresses.
type ServerConfig struct {
	ListenAddr  string
	MetricsAddr string
}

// Load reads configuration from the environment, after loading .env if present.
func Load() (*Config, error) {
	_ = godotenv.Load() // .env is optional

	cfg := &Config{
		Source: SourceConfig{
			Type:          strings.ToLower(getEnvString("FILLSTATS_SOURCE", SourceCSV)),
			TradesPath:    getEnvString("FILLSTATS_TRADES_PATH", "./trades.csv"),
			PostgresDSN:   getEnvString("FILLSTATS_POSTGRES_DSN", ""),
			ClickhouseDSN: getEnvString("FILLSTATS_CLICKHOUSE_DSN", ""),
		},
		Cache: CacheConfig{
			SlotSize:         int64(getEnvInt("FILLSTATS_SLOT_SIZE", DefaultSlotSize)),
			Size:             getEnvInt("FILLSTATS_CACHE_SIZE", DefaultCacheSize),
			FetchConcurrency: getEnvInt("FILLSTATS_FETCH_CONCURRENCY", DefaultFetchConcurrency),
		},
		Backend: BackendConfig{
			LatencyPerSecond: getEnvDuration("FILLSTATS_FETCH_LATENCY_PER_SECOND", DefaultFetchLatencyPerSecond),
		},
		Logging: LoggingConfig{
			Level:  getEnvString("FILLSTATS_LOG_LEVEL", "info"),
			Format: getEnvString("FILLSTATS_LOG_FORMAT", "console"),
		},
		Server: ServerConfig{
			ListenAddr:  getEnvString("FILLSTATS_LISTEN_ADDR", ":8080"),
			MetricsAddr: getEnvString("FILLSTATS_METRICS_ADDR", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	switch c.Source.Type {
	case SourceCSV:
		if c.Source.TradesPath == "" {
			return fmt.Errorf("trades path required for csv source")
		}
	case SourcePostgres:
		if c.Source.PostgresDSN == "" {
			return fmt.Errorf("postgres dsn required for postgres source")
		}
	case SourceClickhouse:
		if c.Source.ClickhouseDSN == "" {
			return fmt.Errorf("clickhouse dsn required for clickhouse source")
		}
	default:
		return fmt.Errorf("unknown source %q", c.Source.Type)
	}

	if c.Cache.SlotSize <= 0 {
		return fmt.Errorf("invalid slot size: %d", c.Cache.SlotSize)
	}
	if c.Cache.Size <= 0 {
		return fmt.Errorf("invalid cache size: %d", c.Cache.Size)
	}
	if c.Cache.FetchConcurrency <= 0 {
		return fmt.Errorf("invalid fetch concurrency: %d", c.Cache.FetchConcurrency)
	}
	if c.Backend.LatencyPerSecond < 0 {
		return fmt.Errorf("invalid fetch latency: %s", c.Backend.LatencyPerSecond)
	}
	return nil
}

// String returns a safe string representation (without DSNs).
func (c *Config) String() string {
	return fmt.Sprintf(
		"Source{Type:%s}, Cache{Slot:%ds, Size:%d, FetchConcurrency:%d}, Backend{Latency:%s/s}",
		c.Source.Type, c.Cache.SlotSize, c.Cache.Size, c.Cache.FetchConcurrency, c.Backend.LatencyPerSecond,
	)
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
