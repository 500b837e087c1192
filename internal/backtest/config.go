package backtest

import (
	"github.com/newthinker/alphalab/internal/core"
	"github.com/newthinker/alphalab/internal/execution"
)

// Config holds the simulation settings: capital, cost model, market
// microstructure and statistics calibration.
type Config struct {
	InitialCapital float64              `mapstructure:"initial_capital" json:"initial_capital"`
	Costs          execution.CostParams `mapstructure:"costs" json:"costs"`
	SlippageRate   float64              `mapstructure:"slippage_rate" json:"slippage_rate"`
	LotSize        int64                `mapstructure:"lot_size" json:"lot_size"`
	PriceLimitRate float64              `mapstructure:"price_limit_rate" json:"price_limit_rate"`

	// MinSignalGap suppresses a new entry within that many bars of the
	// previous trade. Zero disables the gate. Exits are never gated.
	MinSignalGap int `mapstructure:"min_signal_gap" json:"min_signal_gap"`

	RiskFreeRate       float64 `mapstructure:"risk_free_rate" json:"risk_free_rate"`
	TradingDaysPerYear int     `mapstructure:"trading_days_per_year" json:"trading_days_per_year"`

	// ExtremeReturnThreshold is the single-trade return magnitude, in
	// percent, above which a diagnostic warning is attached.
	ExtremeReturnThreshold float64 `mapstructure:"extreme_return_threshold" json:"extreme_return_threshold"`
}

// DefaultConfig returns the A-share market defaults: one million
// starting capital, 100-share lots, 0.03% commission with a 5 CNY
// floor, 0.1% sell-side stamp duty and the 10% daily price limit.
func DefaultConfig() Config {
	return Config{
		InitialCapital:         1_000_000,
		Costs:                  execution.DefaultCostParams(),
		SlippageRate:           0.001,
		LotSize:                100,
		PriceLimitRate:         0.1,
		MinSignalGap:           0,
		RiskFreeRate:           0.03,
		TradingDaysPerYear:     252,
		ExtremeReturnThreshold: 50,
	}
}

// Validate checks the configuration before a run.
func (c Config) Validate() error {
	if c.InitialCapital <= 0 {
		return core.WrapErrorf(core.ErrConfigInvalid, "initial_capital must be positive, got %f", c.InitialCapital)
	}
	if err := c.Costs.Validate(); err != nil {
		return core.WrapError(core.ErrConfigInvalid, err)
	}
	if c.SlippageRate < 0 || c.SlippageRate >= 0.1 {
		return core.WrapErrorf(core.ErrConfigInvalid, "slippage_rate must be in [0, 0.1), got %f", c.SlippageRate)
	}
	if c.LotSize < 1 {
		return core.WrapErrorf(core.ErrConfigInvalid, "lot_size must be at least 1, got %d", c.LotSize)
	}
	if c.PriceLimitRate < 0 || c.PriceLimitRate >= 1 {
		return core.WrapErrorf(core.ErrConfigInvalid, "price_limit_rate must be in [0, 1), got %f", c.PriceLimitRate)
	}
	if c.MinSignalGap < 0 {
		return core.WrapErrorf(core.ErrConfigInvalid, "min_signal_gap cannot be negative, got %d", c.MinSignalGap)
	}
	if c.RiskFreeRate < 0 || c.RiskFreeRate >= 1 {
		return core.WrapErrorf(core.ErrConfigInvalid, "risk_free_rate must be in [0, 1), got %f", c.RiskFreeRate)
	}
	if c.TradingDaysPerYear < 1 {
		return core.WrapErrorf(core.ErrConfigInvalid, "trading_days_per_year must be positive, got %d", c.TradingDaysPerYear)
	}
	if c.ExtremeReturnThreshold <= 0 {
		return core.WrapErrorf(core.ErrConfigInvalid, "extreme_return_threshold must be positive, got %f", c.ExtremeReturnThreshold)
	}
	return nil
}
