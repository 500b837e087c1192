package backtest

import (
	"fmt"

	"github.com/newthinker/alphalab/internal/core"
	"github.com/newthinker/alphalab/internal/market"
)

// Diagnostic codes. Diagnostics flag implausible or low-quality
// results for human review; they never fail the run.
const (
	DiagExtremeTradeReturn = "extreme_trade_return"
	DiagAbnormalBars       = "abnormal_bars"
	DiagNoTrades           = "no_trades"
	DiagPerfectWinRate     = "perfect_win_rate"
)

func diagnose(cfg Config, res *Result, classifications []market.Classification) []Diagnostic {
	var diags []Diagnostic

	for _, tr := range res.Trades {
		if tr.Side != core.ActionSell {
			continue
		}
		pct := tr.PnLPercent.Float64() * 100
		if pct > cfg.ExtremeReturnThreshold || pct < -cfg.ExtremeReturnThreshold {
			diags = append(diags, Diagnostic{
				Code: DiagExtremeTradeReturn,
				Message: fmt.Sprintf("trade %d returned %.2f%%, beyond the ±%.0f%% plausibility threshold",
					tr.ID, pct, cfg.ExtremeReturnThreshold),
			})
		}
	}

	var abnormal int
	for _, c := range classifications {
		if c.Status == market.StatusAbnormal {
			abnormal++
		}
	}
	if abnormal > 0 {
		diags = append(diags, Diagnostic{
			Code:    DiagAbnormalBars,
			Message: fmt.Sprintf("%d of %d bars have abnormal price data", abnormal, len(classifications)),
		})
	}

	if res.Trading.RoundTrips == 0 {
		diags = append(diags, Diagnostic{
			Code:    DiagNoTrades,
			Message: "no round trips completed; detectors never fired or every signal was blocked",
		})
	}

	if res.Trading.RoundTrips >= 5 && res.Trading.WinRate == 1 {
		diags = append(diags, Diagnostic{
			Code: DiagPerfectWinRate,
			Message: fmt.Sprintf("100%% win rate across %d round trips, check for look-ahead or overfitting",
				res.Trading.RoundTrips),
		})
	}

	return diags
}
