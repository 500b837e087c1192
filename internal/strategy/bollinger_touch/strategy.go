package bollinger_touch

import (
	"fmt"
	"math"

	"github.com/newthinker/alphalab/internal/core"
	"github.com/newthinker/alphalab/internal/strategy"
)

// BollingerTouch is a mean-reversion detector: a close at or below the
// lower band buys, a close at or above the upper band sells.
type BollingerTouch struct{}

// New creates the detector.
func New() *BollingerTouch {
	return &BollingerTouch{}
}

func (b *BollingerTouch) Name() string {
	return "bollinger_touch"
}

func (b *BollingerTouch) Description() string {
	return "Bollinger band touch (mean reversion)"
}

// DefaultParams returns the parameters the detector and its indicator
// series read.
func DefaultParams() *strategy.Parameters {
	return strategy.NewParameters().
		Set("boll_period", strategy.Param{Type: strategy.ParamInt, Value: strategy.DefaultBollPeriod, Min: 5, Max: 120, HasRange: true}).
		Set("boll_width", strategy.Param{Type: strategy.ParamFloat, Value: strategy.DefaultBollWidth, Min: 0.5, Max: 4, HasRange: true})
}

func (b *BollingerTouch) Detect(ctx strategy.DetectContext) (core.Signal, bool) {
	upper := ctx.Value(strategy.KeyBollUpper)
	lower := ctx.Value(strategy.KeyBollLower)
	middle := ctx.Value(strategy.KeyBollMiddle)
	if math.IsNaN(upper) || math.IsNaN(lower) || math.IsNaN(middle) {
		return core.Signal{}, false
	}

	// Collapsed bands carry no reversion information
	width := upper - lower
	if width <= 0 {
		return core.Signal{}, false
	}

	bar := ctx.Bar()
	close := bar.Close
	snapshot := map[string]float64{
		"close":       close,
		"boll_upper":  upper,
		"boll_middle": middle,
		"boll_lower":  lower,
	}

	if close <= lower {
		return core.Signal{
			Action:   core.ActionBuy,
			Strength: b.strength((lower - close) / width),
			Detector: b.Name(),
			Reason:   fmt.Sprintf("close %.2f touched lower band %.2f (middle %.2f)", close, lower, middle),
			Snapshot: snapshot,
			Time:     bar.Time,
		}, true
	}

	if close >= upper {
		return core.Signal{
			Action:   core.ActionSell,
			Strength: b.strength((close - upper) / width),
			Detector: b.Name(),
			Reason:   fmt.Sprintf("close %.2f touched upper band %.2f (middle %.2f)", close, upper, middle),
			Snapshot: snapshot,
			Time:     bar.Time,
		}, true
	}

	return core.Signal{}, false
}

// strength scales band penetration (as a fraction of band width) into
// 0.6-0.9; an exact touch scores 0.6.
func (b *BollingerTouch) strength(penetration float64) float64 {
	s := 0.6 + penetration
	if s > 0.9 {
		s = 0.9
	}
	if s < 0.6 {
		s = 0.6
	}
	return s
}
