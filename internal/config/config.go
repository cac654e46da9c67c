// Package config loads trader configuration from an optional JSON file with
// environment variable overrides.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the full trader configuration.
type Config struct {
	Trading TradingConfig `json:"trading"`
	Feed    FeedConfig    `json:"feed"`
	Storage StorageConfig `json:"storage"`
	Logging LoggingConfig `json:"logging"`
	Metrics MetricsConfig `json:"metrics"`
}

// TradingConfig holds the risk limits and cycle cadence. All values are
// read at cycle start; mid-cycle changes take effect on the next cycle.
type TradingConfig struct {
	MaxTradeAmountSOL   float64       `json:"max_trade_amount_sol"`
	MinTradeAmountSOL   float64       `json:"min_trade_amount_sol"`
	MaxConcurrentTrades int           `json:"max_concurrent_trades"`
	ProfitTargetPercent float64       `json:"profit_target_percent"`
	StopLossPercent     float64       `json:"stop_loss_percent"`
	MaxDailyTrades      int           `json:"max_daily_trades"`
	MinConfidence       float64       `json:"min_confidence"`
	DiscoveryInterval   time.Duration `json:"discovery_interval"`
	MonitorInterval     time.Duration `json:"monitor_interval"`
	MEVProtection       bool          `json:"mev_protection"`
}

// FeedConfig holds the market feed and new-token listener settings.
type FeedConfig struct {
	EnableNewTokenListener bool     `json:"enable_new_token_listener"`
	NewTokenListenerURL    string   `json:"new_token_listener_url"`
	BlacklistTokens        []string `json:"blacklist_tokens"`
}

// StorageConfig selects the persistence backends. UseMemory replaces both
// databases with in-memory stores.
type StorageConfig struct {
	UseMemory     bool   `json:"use_memory"`
	PostgresDSN   string `json:"postgres_dsn"`
	ClickHouseDSN string `json:"clickhouse_dsn"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `json:"level"`  // debug, info, warn, error
	Pretty bool   `json:"pretty"` // console writer instead of JSON
}

// MetricsConfig holds the Prometheus endpoint settings.
type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr"`
}

// Default returns the configuration with all defaults applied.
func Default() *Config {
	return &Config{
		Trading: TradingConfig{
			MaxTradeAmountSOL:   0.1,
			MinTradeAmountSOL:   0.01,
			MaxConcurrentTrades: 5,
			ProfitTargetPercent: 50,
			StopLossPercent:     20,
			MaxDailyTrades:      10,
			MinConfidence:       60,
			DiscoveryInterval:   5 * time.Minute,
			MonitorInterval:     time.Minute,
		},
		Feed: FeedConfig{
			NewTokenListenerURL: "wss://pumpportal.fun/api/data",
		},
		Storage: StorageConfig{
			UseMemory: true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Metrics: MetricsConfig{
			Addr: ":9090",
		},
	}
}

// Load reads the config file at path (missing file is not an error), applies
// environment overrides, and validates the result. An empty path skips the
// file step.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			if !os.IsNotExist(err) {
				return nil, err
			}
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations that would make the risk limits vacuous.
func (c *Config) Validate() error {
	t := c.Trading
	if t.MaxTradeAmountSOL <= 0 {
		return fmt.Errorf("config: max_trade_amount_sol must be positive, got %v", t.MaxTradeAmountSOL)
	}
	if t.MinTradeAmountSOL <= 0 || t.MinTradeAmountSOL > t.MaxTradeAmountSOL {
		return fmt.Errorf("config: min_trade_amount_sol must be in (0, %v], got %v", t.MaxTradeAmountSOL, t.MinTradeAmountSOL)
	}
	if t.MaxConcurrentTrades < 1 {
		return fmt.Errorf("config: max_concurrent_trades must be at least 1, got %d", t.MaxConcurrentTrades)
	}
	if t.MaxDailyTrades < 1 {
		return fmt.Errorf("config: max_daily_trades must be at least 1, got %d", t.MaxDailyTrades)
	}
	if t.ProfitTargetPercent <= 0 {
		return fmt.Errorf("config: profit_target_percent must be positive, got %v", t.ProfitTargetPercent)
	}
	if t.StopLossPercent <= 0 || t.StopLossPercent >= 100 {
		return fmt.Errorf("config: stop_loss_percent must be in (0, 100), got %v", t.StopLossPercent)
	}
	if t.MinConfidence < 0 || t.MinConfidence > 100 {
		return fmt.Errorf("config: min_confidence must be in [0, 100], got %v", t.MinConfidence)
	}
	if t.DiscoveryInterval <= 0 || t.MonitorInterval <= 0 {
		return fmt.Errorf("config: discovery_interval and monitor_interval must be positive")
	}
	return nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides. Environment
// values take precedence over both defaults and the config file.
func applyEnvOverrides(cfg *Config) {
	cfg.Trading.MaxTradeAmountSOL = getEnvFloatOrDefault("TRADER_MAX_TRADE_AMOUNT_SOL", cfg.Trading.MaxTradeAmountSOL)
	cfg.Trading.MinTradeAmountSOL = getEnvFloatOrDefault("TRADER_MIN_TRADE_AMOUNT_SOL", cfg.Trading.MinTradeAmountSOL)
	cfg.Trading.MaxConcurrentTrades = getEnvIntOrDefault("TRADER_MAX_CONCURRENT_TRADES", cfg.Trading.MaxConcurrentTrades)
	cfg.Trading.ProfitTargetPercent = getEnvFloatOrDefault("TRADER_PROFIT_TARGET_PERCENT", cfg.Trading.ProfitTargetPercent)
	cfg.Trading.StopLossPercent = getEnvFloatOrDefault("TRADER_STOP_LOSS_PERCENT", cfg.Trading.StopLossPercent)
	cfg.Trading.MaxDailyTrades = getEnvIntOrDefault("TRADER_MAX_DAILY_TRADES", cfg.Trading.MaxDailyTrades)
	cfg.Trading.MinConfidence = getEnvFloatOrDefault("TRADER_MIN_CONFIDENCE", cfg.Trading.MinConfidence)
	cfg.Trading.DiscoveryInterval = getEnvDurationOrDefault("TRADER_DISCOVERY_INTERVAL", cfg.Trading.DiscoveryInterval)
	cfg.Trading.MonitorInterval = getEnvDurationOrDefault("TRADER_MONITOR_INTERVAL", cfg.Trading.MonitorInterval)
	cfg.Trading.MEVProtection = getEnvBoolOrDefault("TRADER_MEV_PROTECTION", cfg.Trading.MEVProtection)

	cfg.Feed.EnableNewTokenListener = getEnvBoolOrDefault("TRADER_ENABLE_NEW_TOKEN_LISTENER", cfg.Feed.EnableNewTokenListener)
	cfg.Feed.NewTokenListenerURL = getEnvOrDefault("TRADER_NEW_TOKEN_LISTENER_URL", cfg.Feed.NewTokenListenerURL)
	if v := os.Getenv("TRADER_BLACKLIST_TOKENS"); v != "" {
		cfg.Feed.BlacklistTokens = splitList(v)
	}

	cfg.Storage.UseMemory = getEnvBoolOrDefault("TRADER_STORAGE_MEMORY", cfg.Storage.UseMemory)
	cfg.Storage.PostgresDSN = getEnvOrDefault("TRADER_POSTGRES_DSN", cfg.Storage.PostgresDSN)
	cfg.Storage.ClickHouseDSN = getEnvOrDefault("TRADER_CLICKHOUSE_DSN", cfg.Storage.ClickHouseDSN)

	cfg.Logging.Level = getEnvOrDefault("LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Pretty = getEnvBoolOrDefault("LOG_PRETTY", cfg.Logging.Pretty)

	cfg.Metrics.Enabled = getEnvBoolOrDefault("METRICS_ENABLED", cfg.Metrics.Enabled)
	cfg.Metrics.Addr = getEnvOrDefault("METRICS_ADDR", cfg.Metrics.Addr)
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
