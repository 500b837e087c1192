package rsi_reversal

import (
	"fmt"
	"math"

	"github.com/newthinker/alphalab/internal/core"
	"github.com/newthinker/alphalab/internal/strategy"
)

// Default zone boundaries.
const (
	DefaultOversold   = 30.0
	DefaultOverbought = 70.0
)

// RSIReversal flags the RSI leaving an extreme zone: crossing up out of
// oversold buys, crossing down out of overbought sells.
type RSIReversal struct{}

// New creates the detector.
func New() *RSIReversal {
	return &RSIReversal{}
}

func (r *RSIReversal) Name() string {
	return "rsi_reversal"
}

func (r *RSIReversal) Description() string {
	return "RSI reversal out of oversold/overbought zones"
}

// DefaultParams returns the parameters the detector and its indicator
// series read.
func DefaultParams() *strategy.Parameters {
	return strategy.NewParameters().
		Set("rsi_period", strategy.Param{Type: strategy.ParamInt, Value: strategy.DefaultRSIPeriod, Min: 2, Max: 60, HasRange: true}).
		Set("rsi_oversold", strategy.Param{Type: strategy.ParamFloat, Value: DefaultOversold, Min: 5, Max: 45, HasRange: true}).
		Set("rsi_overbought", strategy.Param{Type: strategy.ParamFloat, Value: DefaultOverbought, Min: 55, Max: 95, HasRange: true})
}

func (r *RSIReversal) Detect(ctx strategy.DetectContext) (core.Signal, bool) {
	curr := ctx.Value(strategy.KeyRSI)
	prev := ctx.PrevValue(strategy.KeyRSI)
	if math.IsNaN(curr) || math.IsNaN(prev) {
		return core.Signal{}, false
	}

	oversold := ctx.Params.FloatOr("rsi_oversold", DefaultOversold)
	overbought := ctx.Params.FloatOr("rsi_overbought", DefaultOverbought)
	bar := ctx.Bar()

	// Leaving the oversold zone upward
	if prev < oversold && curr >= oversold {
		return core.Signal{
			Action:   core.ActionBuy,
			Strength: r.strength(oversold - prev),
			Detector: r.Name(),
			Reason:   fmt.Sprintf("RSI recovered from oversold: %.1f -> %.1f (zone %.0f)", prev, curr, oversold),
			Snapshot: map[string]float64{"rsi": curr, "rsi_prev": prev},
			Time:     bar.Time,
		}, true
	}

	// Leaving the overbought zone downward
	if prev > overbought && curr <= overbought {
		return core.Signal{
			Action:   core.ActionSell,
			Strength: r.strength(prev - overbought),
			Detector: r.Name(),
			Reason:   fmt.Sprintf("RSI fell from overbought: %.1f -> %.1f (zone %.0f)", prev, curr, overbought),
			Snapshot: map[string]float64{"rsi": curr, "rsi_prev": prev},
			Time:     bar.Time,
		}, true
	}

	return core.Signal{}, false
}

// strength scales how deep inside the zone the RSI was before
// reversing, into 0.5-0.9.
func (r *RSIReversal) strength(depth float64) float64 {
	s := 0.5 + depth/50
	if s > 0.9 {
		s = 0.9
	}
	if s < 0.5 {
		s = 0.5
	}
	return s
}
