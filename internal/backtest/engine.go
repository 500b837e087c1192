package backtest

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/newthinker/alphalab/internal/core"
	"github.com/newthinker/alphalab/internal/market"
	"github.com/newthinker/alphalab/internal/money"
	"github.com/newthinker/alphalab/internal/strategy"
)

// State of the engine lifecycle.
type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// Engine replays a bar series against a detector set and produces an
// immutable Result. A run is single-threaded and deterministic: fixed
// (bars, parameters, config) always yields the identical trade ledger
// and equity curve.
type Engine struct {
	cfg      Config
	params   *strategy.Parameters
	resolver *strategy.Resolver
	exits    []strategy.ExitRule
	logger   *zap.Logger

	mu    sync.Mutex
	state State
}

// New creates an engine. The resolver decides which detectors run and
// how their signals combine.
func New(cfg Config, params *strategy.Parameters, resolver *strategy.Resolver, logger ...*zap.Logger) *Engine {
	var l *zap.Logger
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	} else {
		l = zap.NewNop()
	}
	return &Engine{
		cfg:      cfg,
		params:   params,
		resolver: resolver,
		logger:   l,
		state:    StateIdle,
	}
}

// SetExitRules installs position exit rules, evaluated in order on
// every bar while a position is open.
func (e *Engine) SetExitRules(rules []strategy.ExitRule) {
	e.exits = rules
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Engine) begin() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateRunning {
		return core.WrapErrorf(core.ErrExecutionBlocked, "engine is already running")
	}
	e.state = StateRunning
	return nil
}

func (e *Engine) finish(s State) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}

// Run validates everything up front, then replays the bars. Validation
// failures abort before any side effect; per-bar anomalies never abort,
// they are recorded as blocked signals or diagnostics.
func (e *Engine) Run(ctx context.Context, bars []core.Bar) (*Result, error) {
	startedAt := time.Now()
	if err := e.begin(); err != nil {
		return nil, err
	}
	fail := func(err error) (*Result, error) {
		e.finish(StateFailed)
		return nil, err
	}

	if e.resolver == nil {
		return fail(core.WrapErrorf(core.ErrInvalidInput, "engine has no resolver"))
	}
	if err := e.cfg.Validate(); err != nil {
		return fail(err)
	}
	if err := e.params.Validate(); err != nil {
		return fail(err)
	}
	for _, rule := range e.exits {
		if err := rule.Validate(); err != nil {
			return fail(err)
		}
	}
	if err := core.ValidateBars(bars); err != nil {
		return fail(err)
	}

	indicators, err := strategy.BuildIndicatorSet(bars, e.params)
	if err != nil {
		return fail(err)
	}
	classifications := market.ClassifyAll(bars, e.cfg.PriceLimitRate)

	led := newLedger(e.cfg)
	curve := make([]EquityPoint, 0, len(bars))
	var signals []strategy.IndexedSignal
	var blocked []BlockedSignal
	var peakEquity float64
	lastTrade := -(len(bars) + 1)

	for i, bar := range bars {
		select {
		case <-ctx.Done():
			e.finish(StateFailed)
			return nil, ctx.Err()
		default:
		}

		dctx := strategy.DetectContext{
			Params:      e.params,
			Bars:        bars,
			Indicators:  indicators,
			Index:       i,
			HasPosition: led.hasPosition(),
		}
		sig, fired := e.resolver.Resolve(dctx)

		// Exit rules outrank detector holds but never override a sell.
		if led.hasPosition() {
			led.observe(bar.Close)
			if !fired || sig.Action != core.ActionSell {
				if rule, ok := strategy.EvaluateExitRules(e.exits, led.positionMetrics(i, bar)); ok {
					sig = core.Signal{
						Action:   core.ActionSell,
						Strength: 1,
						Detector: "exit:" + rule.Name,
						Reason:   rule.Reason,
						Time:     bar.Time,
					}
					fired = true
				}
			}
		}

		if fired && sig.IsActionable() {
			signals = append(signals, strategy.IndexedSignal{Index: i, Signal: sig})
			cls := classifications[i]

			switch {
			case !cls.Tradable():
				blocked = append(blocked, BlockedSignal{
					Index:  i,
					Time:   bar.Time,
					Signal: sig,
					Status: cls.Status,
					Detail: cls.Detail,
				})
				e.logger.Debug("signal blocked",
					zap.Int("index", i),
					zap.String("action", string(sig.Action)),
					zap.String("status", string(cls.Status)),
				)

			case sig.Action == core.ActionBuy && !led.hasPosition():
				if i-lastTrade < e.cfg.MinSignalGap {
					e.logger.Debug("entry suppressed by signal gap",
						zap.Int("index", i),
						zap.Int("last_trade", lastTrade),
					)
					break
				}
				if tr, ok := led.buy(i, bar, sig); ok {
					lastTrade = i
					e.logger.Debug("position opened",
						zap.Int64("trade", tr.ID),
						zap.Int64("quantity", tr.Quantity),
						zap.String("exec_price", tr.ExecPrice.String()),
					)
				}

			case sig.Action == core.ActionSell && led.hasPosition():
				tr := led.sell(i, bar, sig, false)
				lastTrade = i
				e.logger.Debug("position closed",
					zap.Int64("trade", tr.ID),
					zap.String("pnl", tr.PnL.String()),
					zap.Int("holding_days", tr.HoldingDays),
				)
			}
		}

		// A position still open on the last bar is force-closed so the
		// ledger ends flat.
		if i == len(bars)-1 && led.hasPosition() {
			tr := led.sell(i, bar, core.Signal{
				Action:   core.ActionSell,
				Strength: 1,
				Detector: "engine",
				Reason:   "end_of_backtest",
				Time:     bar.Time,
			}, true)
			e.logger.Debug("position force-closed", zap.Int64("trade", tr.ID))
		}

		eq := led.equity(bar.Close)
		eqF := eq.Float64()
		if eqF > peakEquity {
			peakEquity = eqF
		}
		var dd float64
		if peakEquity > 0 {
			dd = (peakEquity - eqF) / peakEquity
		}
		curve = append(curve, EquityPoint{
			Time:             bar.Time,
			Cash:             led.cash.Currency(),
			Position:         led.position,
			Equity:           eq.Currency(),
			DrawdownFromPeak: money.FromFloat(dd).Percent(),
		})
	}

	res := &Result{
		Config:         e.cfg,
		Parameters:     e.params,
		Detectors:      e.resolver.Detectors(),
		Policy:         e.resolver.Policy(),
		StartedAt:      startedAt,
		FinishedAt:     time.Now(),
		Bars:           len(bars),
		FirstBar:       bars[0].Time,
		LastBar:        bars[len(bars)-1].Time,
		Trades:         led.trades,
		EquityCurve:    curve,
		Signals:        signals,
		BlockedSignals: blocked,
	}
	res.Returns = buildReturnMetrics(e.cfg, curve)
	res.Risk = buildRiskMetrics(e.cfg, curve, res.Returns.AnnualizedReturn)
	res.Trading = buildTradingMetrics(led.trades)
	res.Diagnostics = diagnose(e.cfg, res, classifications)

	e.finish(StateCompleted)
	e.logger.Info("backtest completed",
		zap.Int("bars", len(bars)),
		zap.Int("trades", len(led.trades)),
		zap.Int("blocked_signals", len(blocked)),
		zap.Float64("total_return", res.Returns.TotalReturn),
	)
	return res, nil
}
