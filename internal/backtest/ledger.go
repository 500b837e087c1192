package backtest

import (
	"github.com/newthinker/alphalab/internal/core"
	"github.com/newthinker/alphalab/internal/execution"
	"github.com/newthinker/alphalab/internal/money"
	"github.com/newthinker/alphalab/internal/strategy"
)

// ledger tracks cash and the single open position through a run. All
// balances are exact decimals; trades record canonically rounded
// copies.
type ledger struct {
	cfg      Config
	cash     money.Amount
	position int64
	trades   []Trade
	nextID   int64

	entryIndex  int
	entryPrice  money.Amount
	entryOutlay money.Amount
	peakClose   float64
}

func newLedger(cfg Config) *ledger {
	return &ledger{
		cfg:    cfg,
		cash:   money.FromFloat(cfg.InitialCapital),
		nextID: 1,
	}
}

func (l *ledger) hasPosition() bool {
	return l.position > 0
}

// observe tracks the highest close seen since entry, feeding the
// drawdown exit metric.
func (l *ledger) observe(close float64) {
	if close > l.peakClose {
		l.peakClose = close
	}
}

// positionMetrics builds the metrics map exit rules evaluate against.
// Percentage metrics are in percent units: 10 means +10%.
func (l *ledger) positionMetrics(index int, bar core.Bar) map[string]float64 {
	entry := l.entryPrice.Float64()
	var pnlPct float64
	if entry > 0 {
		pnlPct = (bar.Close - entry) / entry * 100
	}
	var drawdownPct float64
	if l.peakClose > 0 {
		drawdownPct = (l.peakClose - bar.Close) / l.peakClose * 100
	}
	return map[string]float64{
		strategy.MetricUnrealizedPnLPct: pnlPct,
		strategy.MetricHoldingDays:      float64(index - l.entryIndex),
		strategy.MetricDrawdownPct:      drawdownPct,
		strategy.MetricClose:            bar.Close,
		strategy.MetricEntryPrice:       entry,
	}
}

// buy opens a position with the full cash balance: slippage-adjusted
// price, lot-aligned quantity, shrunk lot by lot until the notional
// plus costs fit in cash. Returns false when not even one lot is
// affordable.
func (l *ledger) buy(index int, bar core.Bar, sig core.Signal) (Trade, bool) {
	price := execution.ApplySlippage(money.FromFloat(bar.Close), core.ActionBuy, l.cfg.SlippageRate)
	if !price.IsPositive() {
		return Trade{}, false
	}

	lots, err := execution.SizeLots(l.cash, price, l.cfg.LotSize)
	if err != nil || lots.ActualQuantity == 0 {
		return Trade{}, false
	}

	qty := lots.ActualQuantity
	var notional money.Amount
	var costs execution.CostBreakdown
	for qty > 0 {
		notional = price.MulInt(qty)
		costs = execution.Cost(notional, false, l.cfg.Costs)
		if !notional.Add(costs.Total).GreaterThan(l.cash) {
			break
		}
		qty -= l.cfg.LotSize
	}
	if qty <= 0 {
		return Trade{}, false
	}

	// Re-express the sizing against actual cash if costs shrank it
	lots.ActualLots = qty / l.cfg.LotSize
	lots.ActualQuantity = qty
	lots.RoundingLoss = l.cash.Sub(price.MulInt(qty)).Currency()
	lots.RoundingLossPercent = lots.RoundingLoss.SafeDiv(l.cash, money.Zero()).Percent()

	cashBefore := l.cash
	l.cash = l.cash.Sub(notional).Sub(costs.Total)
	l.position = qty
	l.entryIndex = index
	l.entryPrice = price
	l.entryOutlay = notional.Add(costs.Total)
	l.peakClose = bar.Close

	tr := Trade{
		ID:             l.nextID,
		Time:           bar.Time,
		Side:           core.ActionBuy,
		Detector:       sig.Detector,
		Reason:         sig.Reason,
		SignalPrice:    money.FromFloat(bar.Close).Currency(),
		ExecPrice:      price,
		Quantity:       qty,
		Notional:       notional.Currency(),
		Lots:           &lots,
		Costs:          costs,
		CashBefore:     cashBefore.Currency(),
		CashAfter:      l.cash.Currency(),
		PositionBefore: 0,
		PositionAfter:  qty,
	}
	l.nextID++
	l.trades = append(l.trades, tr)
	return tr, true
}

// sell closes the open position in full: proceeds minus costs are
// credited, realized PnL is measured against the entry outlay
// (notional plus entry costs).
func (l *ledger) sell(index int, bar core.Bar, sig core.Signal, forced bool) Trade {
	price := execution.ApplySlippage(money.FromFloat(bar.Close), core.ActionSell, l.cfg.SlippageRate)
	notional := price.MulInt(l.position)
	costs := execution.Cost(notional, true, l.cfg.Costs)
	proceeds := notional.Sub(costs.Total)

	cashBefore := l.cash
	l.cash = l.cash.Add(proceeds)

	pnl := proceeds.Sub(l.entryOutlay)
	pnlPct := pnl.SafeDiv(l.entryOutlay, money.Zero())

	tr := Trade{
		ID:             l.nextID,
		Time:           bar.Time,
		Side:           core.ActionSell,
		Detector:       sig.Detector,
		Reason:         sig.Reason,
		SignalPrice:    money.FromFloat(bar.Close).Currency(),
		ExecPrice:      price,
		Quantity:       l.position,
		Notional:       notional.Currency(),
		Costs:          costs,
		CashBefore:     cashBefore.Currency(),
		CashAfter:      l.cash.Currency(),
		PositionBefore: l.position,
		PositionAfter:  0,
		PnL:            pnl.Currency(),
		PnLPercent:     pnlPct.Percent(),
		HoldingDays:    index - l.entryIndex,
		Forced:         forced,
	}
	l.nextID++
	l.trades = append(l.trades, tr)

	l.position = 0
	l.entryIndex = 0
	l.entryPrice = money.Zero()
	l.entryOutlay = money.Zero()
	l.peakClose = 0
	return tr
}

// equity marks the account to the given close.
func (l *ledger) equity(close float64) money.Amount {
	if l.position == 0 {
		return l.cash
	}
	return l.cash.Add(money.FromFloat(close).MulInt(l.position))
}
