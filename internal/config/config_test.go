package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Trading.MaxTradeAmountSOL != 0.1 {
		t.Errorf("MaxTradeAmountSOL = %v, want 0.1", cfg.Trading.MaxTradeAmountSOL)
	}
	if cfg.Trading.MaxConcurrentTrades != 5 {
		t.Errorf("MaxConcurrentTrades = %d, want 5", cfg.Trading.MaxConcurrentTrades)
	}
	if cfg.Trading.MaxDailyTrades != 10 {
		t.Errorf("MaxDailyTrades = %d, want 10", cfg.Trading.MaxDailyTrades)
	}
	if cfg.Trading.DiscoveryInterval != 5*time.Minute {
		t.Errorf("DiscoveryInterval = %v, want 5m", cfg.Trading.DiscoveryInterval)
	}
	if cfg.Trading.MonitorInterval != time.Minute {
		t.Errorf("MonitorInterval = %v, want 1m", cfg.Trading.MonitorInterval)
	}
	if cfg.Trading.MinConfidence != 60 {
		t.Errorf("MinConfidence = %v, want 60", cfg.Trading.MinConfidence)
	}
	if !cfg.Storage.UseMemory {
		t.Error("UseMemory default = false, want true")
	}
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{
		"trading": {
			"max_trade_amount_sol": 0.5,
			"min_trade_amount_sol": 0.05,
			"max_concurrent_trades": 3,
			"profit_target_percent": 80,
			"stop_loss_percent": 25,
			"max_daily_trades": 20,
			"min_confidence": 70,
			"discovery_interval": 120000000000,
			"monitor_interval": 30000000000
		},
		"feed": {
			"blacklist_tokens": ["mintX", "mintY"]
		}
	}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Trading.MaxTradeAmountSOL != 0.5 {
		t.Errorf("MaxTradeAmountSOL = %v, want 0.5", cfg.Trading.MaxTradeAmountSOL)
	}
	if cfg.Trading.MaxConcurrentTrades != 3 {
		t.Errorf("MaxConcurrentTrades = %d, want 3", cfg.Trading.MaxConcurrentTrades)
	}
	if cfg.Trading.DiscoveryInterval != 2*time.Minute {
		t.Errorf("DiscoveryInterval = %v, want 2m", cfg.Trading.DiscoveryInterval)
	}
	if len(cfg.Feed.BlacklistTokens) != 2 || cfg.Feed.BlacklistTokens[0] != "mintX" {
		t.Errorf("BlacklistTokens = %v", cfg.Feed.BlacklistTokens)
	}
	// Untouched sections keep defaults.
	if cfg.Metrics.Addr != ":9090" {
		t.Errorf("Metrics.Addr = %q, want :9090", cfg.Metrics.Addr)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Trading.MaxDailyTrades != 10 {
		t.Errorf("MaxDailyTrades = %d, want default 10", cfg.Trading.MaxDailyTrades)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("TRADER_MAX_TRADE_AMOUNT_SOL", "0.25")
	t.Setenv("TRADER_MAX_DAILY_TRADES", "7")
	t.Setenv("TRADER_DISCOVERY_INTERVAL", "90s")
	t.Setenv("TRADER_BLACKLIST_TOKENS", "mintA, mintB,mintC")
	t.Setenv("TRADER_ENABLE_NEW_TOKEN_LISTENER", "true")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Trading.MaxTradeAmountSOL != 0.25 {
		t.Errorf("MaxTradeAmountSOL = %v, want 0.25", cfg.Trading.MaxTradeAmountSOL)
	}
	if cfg.Trading.MaxDailyTrades != 7 {
		t.Errorf("MaxDailyTrades = %d, want 7", cfg.Trading.MaxDailyTrades)
	}
	if cfg.Trading.DiscoveryInterval != 90*time.Second {
		t.Errorf("DiscoveryInterval = %v, want 90s", cfg.Trading.DiscoveryInterval)
	}
	if len(cfg.Feed.BlacklistTokens) != 3 || cfg.Feed.BlacklistTokens[1] != "mintB" {
		t.Errorf("BlacklistTokens = %v", cfg.Feed.BlacklistTokens)
	}
	if !cfg.Feed.EnableNewTokenListener {
		t.Error("EnableNewTokenListener = false, want true")
	}
}

func TestValidate_Rejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero max trade amount", func(c *Config) { c.Trading.MaxTradeAmountSOL = 0 }},
		{"min above max", func(c *Config) { c.Trading.MinTradeAmountSOL = 1 }},
		{"zero concurrent trades", func(c *Config) { c.Trading.MaxConcurrentTrades = 0 }},
		{"zero daily trades", func(c *Config) { c.Trading.MaxDailyTrades = 0 }},
		{"negative profit target", func(c *Config) { c.Trading.ProfitTargetPercent = -1 }},
		{"stop loss over 100", func(c *Config) { c.Trading.StopLossPercent = 120 }},
		{"confidence out of range", func(c *Config) { c.Trading.MinConfidence = 150 }},
		{"zero monitor interval", func(c *Config) { c.Trading.MonitorInterval = 0 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate accepted an invalid config")
			}
		})
	}
}
