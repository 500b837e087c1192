package backtest

import (
	"errors"
	"testing"

	"github.com/newthinker/alphalab/internal/core"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.InitialCapital != 1_000_000 {
		t.Errorf("InitialCapital = %f, want 1000000", cfg.InitialCapital)
	}
	if cfg.LotSize != 100 {
		t.Errorf("LotSize = %d, want 100", cfg.LotSize)
	}
	if cfg.TradingDaysPerYear != 252 {
		t.Errorf("TradingDaysPerYear = %d, want 252", cfg.TradingDaysPerYear)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero capital", func(c *Config) { c.InitialCapital = 0 }},
		{"negative capital", func(c *Config) { c.InitialCapital = -1000 }},
		{"negative commission", func(c *Config) { c.Costs.CommissionRate = -0.01 }},
		{"negative slippage", func(c *Config) { c.SlippageRate = -0.001 }},
		{"slippage too large", func(c *Config) { c.SlippageRate = 0.1 }},
		{"zero lot size", func(c *Config) { c.LotSize = 0 }},
		{"negative price limit", func(c *Config) { c.PriceLimitRate = -0.1 }},
		{"price limit at one", func(c *Config) { c.PriceLimitRate = 1 }},
		{"negative signal gap", func(c *Config) { c.MinSignalGap = -1 }},
		{"negative risk free", func(c *Config) { c.RiskFreeRate = -0.01 }},
		{"risk free at one", func(c *Config) { c.RiskFreeRate = 1 }},
		{"zero trading days", func(c *Config) { c.TradingDaysPerYear = 0 }},
		{"zero extreme threshold", func(c *Config) { c.ExtremeReturnThreshold = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !errors.Is(err, core.ErrConfigInvalid) {
				t.Errorf("error = %v, want ErrConfigInvalid", err)
			}
		})
	}
}
