package backtest

import (
	"math"

	"github.com/newthinker/alphalab/internal/core"
	"github.com/newthinker/alphalab/internal/money"
)

// round4 applies the canonical 4-digit ratio rounding. Non-finite
// inputs collapse to 0.
func round4(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return money.FromFloat(x).Percent().Float64()
}

func buildReturnMetrics(cfg Config, curve []EquityPoint) ReturnMetrics {
	if len(curve) == 0 {
		return ReturnMetrics{}
	}

	initial := cfg.InitialCapital
	end := curve[len(curve)-1].Equity
	total := end.Float64()/initial - 1

	// Geometric annualization over the simulated span
	years := float64(len(curve)) / float64(cfg.TradingDaysPerYear)
	annualized := -1.0
	if base := 1 + total; base > 0 {
		annualized = math.Pow(base, 1/years) - 1
	}

	var profitDays, lossDays int
	prev := initial
	for _, pt := range curve {
		eq := pt.Equity.Float64()
		switch {
		case eq > prev:
			profitDays++
		case eq < prev:
			lossDays++
		}
		prev = eq
	}

	return ReturnMetrics{
		TotalReturn:      round4(total),
		AnnualizedReturn: round4(annualized),
		EndBalance:       end,
		TotalDays:        len(curve),
		ProfitDays:       profitDays,
		LossDays:         lossDays,
	}
}

func buildRiskMetrics(cfg Config, curve []EquityPoint, annualized float64) RiskMetrics {
	if len(curve) == 0 {
		return RiskMetrics{}
	}

	// Per-bar simple returns, the first measured against starting capital
	returns := make([]float64, len(curve))
	prev := cfg.InitialCapital
	for i, pt := range curve {
		eq := pt.Equity.Float64()
		if prev > 0 {
			returns[i] = eq/prev - 1
		}
		prev = eq
	}

	maxDD, duration := maxDrawdown(curve)

	days := float64(cfg.TradingDaysPerYear)
	rfPerBar := cfg.RiskFreeRate / days
	excess := make([]float64, len(returns))
	for i, r := range returns {
		excess[i] = r - rfPerBar
	}

	m := mean(excess)
	sd := stddev(excess, m)
	var sharpe float64
	if sd > 0 {
		sharpe = m / sd * math.Sqrt(days)
	}

	dd := downsideDev(excess)
	var sortino float64
	if dd > 0 {
		sortino = m / dd * math.Sqrt(days)
	}

	vol := stddev(returns, mean(returns)) * math.Sqrt(days)

	var returnDD float64
	if maxDD > 0 {
		returnDD = annualized / maxDD
	}

	return RiskMetrics{
		MaxDrawdown:         round4(maxDD),
		MaxDrawdownDuration: duration,
		Volatility:          round4(vol),
		SharpeRatio:         round4(sharpe),
		SortinoRatio:        round4(sortino),
		ReturnDrawdownRatio: round4(returnDD),
	}
}

// maxDrawdown finds the deepest fractional peak-to-trough decline of
// the equity curve and its length in bars.
func maxDrawdown(curve []EquityPoint) (float64, int) {
	var maxDD float64
	var duration int
	var peak float64
	peakIdx := 0

	for i, pt := range curve {
		eq := pt.Equity.Float64()
		if eq > peak {
			peak = eq
			peakIdx = i
		}
		if peak > 0 {
			if dd := (peak - eq) / peak; dd > maxDD {
				maxDD = dd
				duration = i - peakIdx
			}
		}
	}
	return maxDD, duration
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// stddev is the sample standard deviation.
func stddev(xs []float64, m float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	var v float64
	for _, x := range xs {
		v += (x - m) * (x - m)
	}
	return math.Sqrt(v / float64(len(xs)-1))
}

// downsideDev measures dispersion of negative excess returns only,
// normalized over the full sample.
func downsideDev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	var v float64
	for _, x := range xs {
		if x < 0 {
			v += x * x
		}
	}
	return math.Sqrt(v / float64(len(xs)))
}

// Return distribution buckets, in percent. bucketIndex finds the first
// bucket whose upper edge contains the value.
var (
	histogramEdges  = []float64{-10, -5, -2, 0, 2, 5, 10}
	histogramLabels = []string{
		"<=-10%", "-10%..-5%", "-5%..-2%", "-2%..0%",
		"0%..2%", "2%..5%", "5%..10%", ">10%",
	}
)

func bucketIndex(pct float64) int {
	for i, edge := range histogramEdges {
		if pct <= edge {
			return i
		}
	}
	return len(histogramEdges)
}

func buildTradingMetrics(trades []Trade) TradingMetrics {
	tm := TradingMetrics{TotalTrades: len(trades)}

	grossProfit := money.Zero()
	grossLoss := money.Zero()
	var streakWin, streakLoss int
	hist := make([]int, len(histogramLabels))

	for _, tr := range trades {
		tm.TotalCommission = tm.TotalCommission.Add(tr.Costs.Commission)
		tm.TotalCosts = tm.TotalCosts.Add(tr.Costs.Total)
		tm.TotalTurnover = tm.TotalTurnover.Add(tr.Notional)

		if tr.Side != core.ActionSell {
			continue
		}
		tm.RoundTrips++
		hist[bucketIndex(tr.PnLPercent.Float64()*100)]++

		if tr.IsWin() {
			tm.WinningTrades++
			grossProfit = grossProfit.Add(tr.PnL)
			streakWin++
			streakLoss = 0
			if streakWin > tm.MaxConsecutiveWins {
				tm.MaxConsecutiveWins = streakWin
			}
		} else {
			tm.LosingTrades++
			grossLoss = grossLoss.Add(tr.PnL)
			streakLoss++
			streakWin = 0
			if streakLoss > tm.MaxConsecutiveLosses {
				tm.MaxConsecutiveLosses = streakLoss
			}
		}
	}

	if tm.RoundTrips > 0 {
		tm.WinRate = round4(float64(tm.WinningTrades) / float64(tm.RoundTrips))
	}
	// Zero when there are no losing trades
	tm.ProfitFactor = round4(grossProfit.SafeDiv(grossLoss.Abs(), money.Zero()).Float64())
	if tm.WinningTrades > 0 {
		tm.AvgWin = grossProfit.SafeDiv(money.FromInt(int64(tm.WinningTrades)), money.Zero()).Currency()
	}
	if tm.LosingTrades > 0 {
		tm.AvgLoss = grossLoss.SafeDiv(money.FromInt(int64(tm.LosingTrades)), money.Zero()).Currency()
	}

	buckets := make([]HistogramBucket, len(histogramLabels))
	for i, label := range histogramLabels {
		buckets[i] = HistogramBucket{Label: label, Count: hist[i]}
	}
	tm.ReturnHistogram = buckets

	return tm
}
