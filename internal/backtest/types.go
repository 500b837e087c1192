package backtest

import (
	"time"

	"github.com/newthinker/alphalab/internal/core"
	"github.com/newthinker/alphalab/internal/execution"
	"github.com/newthinker/alphalab/internal/market"
	"github.com/newthinker/alphalab/internal/money"
	"github.com/newthinker/alphalab/internal/strategy"
)

// Trade is one executed fill in the simulation ledger. IDs are
// monotonic from 1. A trade is immutable once appended; monetary
// fields carry canonical rounding (2-digit currency, 4-digit ratios).
type Trade struct {
	ID       int64       `json:"id"`
	Time     time.Time   `json:"time"`
	Side     core.Action `json:"side"`
	Detector string      `json:"detector"`
	Reason   string      `json:"reason"`

	SignalPrice money.Amount `json:"signal_price"`
	ExecPrice   money.Amount `json:"exec_price"`
	Quantity    int64        `json:"quantity"`
	Notional    money.Amount `json:"notional"`

	Lots  *execution.LotCalculation `json:"lots,omitempty"`
	Costs execution.CostBreakdown   `json:"costs"`

	CashBefore     money.Amount `json:"cash_before"`
	CashAfter      money.Amount `json:"cash_after"`
	PositionBefore int64        `json:"position_before"`
	PositionAfter  int64        `json:"position_after"`

	// Realized outcome, set on sells only. PnLPercent is a fraction of
	// the entry outlay; HoldingDays counts bars between entry and exit.
	PnL         money.Amount `json:"pnl"`
	PnLPercent  money.Amount `json:"pnl_percent"`
	HoldingDays int          `json:"holding_days"`

	// Forced marks the synthetic close of a position still open on the
	// last bar.
	Forced bool `json:"forced,omitempty"`
}

// IsWin reports whether a closed trade realized a profit.
func (t Trade) IsWin() bool {
	return t.Side == core.ActionSell && t.PnL.IsPositive()
}

// EquityPoint is the mark-to-market account state after one bar.
// Exactly one point is appended per simulated bar, in bar order.
type EquityPoint struct {
	Time     time.Time    `json:"time"`
	Cash     money.Amount `json:"cash"`
	Position int64        `json:"position"`
	Equity   money.Amount `json:"equity"`

	// DrawdownFromPeak is the fractional decline from the running
	// equity peak, 0 when at a new peak.
	DrawdownFromPeak money.Amount `json:"drawdown_from_peak"`
}

// BlockedSignal records an actionable signal that could not execute
// because the bar's market status forbade trading. Kept for audit.
type BlockedSignal struct {
	Index  int           `json:"index"`
	Time   time.Time     `json:"time"`
	Signal core.Signal   `json:"signal"`
	Status market.Status `json:"status"`
	Detail string        `json:"detail"`
}

// ReturnMetrics summarize the equity curve's earnings.
type ReturnMetrics struct {
	TotalReturn      float64      `json:"total_return"`
	AnnualizedReturn float64      `json:"annualized_return"`
	EndBalance       money.Amount `json:"end_balance"`
	TotalDays        int          `json:"total_days"`
	ProfitDays       int          `json:"profit_days"`
	LossDays         int          `json:"loss_days"`
}

// RiskMetrics summarize the equity curve's risk profile. Ratios are
// annualized by the configured trading-day count.
type RiskMetrics struct {
	MaxDrawdown         float64 `json:"max_drawdown"`
	MaxDrawdownDuration int     `json:"max_drawdown_duration"`
	Volatility          float64 `json:"volatility"`
	SharpeRatio         float64 `json:"sharpe_ratio"`
	SortinoRatio        float64 `json:"sortino_ratio"`
	ReturnDrawdownRatio float64 `json:"return_drawdown_ratio"`
}

// HistogramBucket is one bin of the round-trip return distribution.
// Buckets are fixed percent ranges, lower bound exclusive.
type HistogramBucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// TradingMetrics summarize the trade ledger.
type TradingMetrics struct {
	TotalTrades          int               `json:"total_trades"`
	RoundTrips           int               `json:"round_trips"`
	WinningTrades        int               `json:"winning_trades"`
	LosingTrades         int               `json:"losing_trades"`
	WinRate              float64           `json:"win_rate"`
	ProfitFactor         float64           `json:"profit_factor"`
	AvgWin               money.Amount      `json:"avg_win"`
	AvgLoss              money.Amount      `json:"avg_loss"`
	MaxConsecutiveWins   int               `json:"max_consecutive_wins"`
	MaxConsecutiveLosses int               `json:"max_consecutive_losses"`
	TotalCommission      money.Amount      `json:"total_commission"`
	TotalCosts           money.Amount      `json:"total_costs"`
	TotalTurnover        money.Amount      `json:"total_turnover"`
	ReturnHistogram      []HistogramBucket `json:"return_histogram,omitempty"`
}

// Diagnostic is a data-quality or plausibility warning attached to a
// result. Diagnostics never fail a run.
type Diagnostic struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Result holds the complete backtest output. It is terminal: never
// mutated after construction.
type Result struct {
	Config     Config               `json:"config"`
	Parameters *strategy.Parameters `json:"parameters,omitempty"`
	Detectors  []string             `json:"detectors,omitempty"`
	Policy     strategy.Policy      `json:"policy,omitempty"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Bars       int       `json:"bars"`
	FirstBar   time.Time `json:"first_bar"`
	LastBar    time.Time `json:"last_bar"`

	Trades         []Trade                  `json:"trades"`
	EquityCurve    []EquityPoint            `json:"equity_curve"`
	Signals        []strategy.IndexedSignal `json:"signals,omitempty"`
	BlockedSignals []BlockedSignal          `json:"blocked_signals,omitempty"`

	Returns     ReturnMetrics  `json:"returns"`
	Risk        RiskMetrics    `json:"risk"`
	Trading     TradingMetrics `json:"trading"`
	Diagnostics []Diagnostic   `json:"diagnostics,omitempty"`
}
