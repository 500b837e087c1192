package ma_crossover

import (
	"fmt"
	"math"

	"github.com/newthinker/alphalab/internal/core"
	"github.com/newthinker/alphalab/internal/strategy"
)

// MACrossover flags fast/slow SMA crossings: a golden cross buys, a
// death cross sells.
type MACrossover struct{}

// New creates the detector.
func New() *MACrossover {
	return &MACrossover{}
}

func (m *MACrossover) Name() string {
	return "ma_crossover"
}

func (m *MACrossover) Description() string {
	return "fast/slow SMA crossover (golden and death crosses)"
}

// DefaultParams returns the parameters the detector and its indicator
// series read.
func DefaultParams() *strategy.Parameters {
	return strategy.NewParameters().
		Set("fast_period", strategy.Param{Type: strategy.ParamInt, Value: strategy.DefaultFastPeriod, Min: 2, Max: 60, HasRange: true}).
		Set("slow_period", strategy.Param{Type: strategy.ParamInt, Value: strategy.DefaultSlowPeriod, Min: 3, Max: 250, HasRange: true})
}

func (m *MACrossover) Detect(ctx strategy.DetectContext) (core.Signal, bool) {
	currFast := ctx.Value(strategy.KeySMAFast)
	prevFast := ctx.PrevValue(strategy.KeySMAFast)
	currSlow := ctx.Value(strategy.KeySMASlow)
	prevSlow := ctx.PrevValue(strategy.KeySMASlow)

	for _, v := range []float64{currFast, prevFast, currSlow, prevSlow} {
		if math.IsNaN(v) {
			return core.Signal{}, false
		}
	}

	fast := ctx.Params.IntOr("fast_period", strategy.DefaultFastPeriod)
	slow := ctx.Params.IntOr("slow_period", strategy.DefaultSlowPeriod)
	bar := ctx.Bar()

	// Golden cross: fast crosses above slow
	if prevFast <= prevSlow && currFast > currSlow {
		return core.Signal{
			Action:   core.ActionBuy,
			Strength: m.strength(currFast, currSlow),
			Detector: m.Name(),
			Reason:   fmt.Sprintf("golden cross: SMA%d (%.2f) crossed above SMA%d (%.2f)", fast, currFast, slow, currSlow),
			Snapshot: map[string]float64{"sma_fast": currFast, "sma_slow": currSlow},
			Time:     bar.Time,
		}, true
	}

	// Death cross: fast crosses below slow
	if prevFast >= prevSlow && currFast < currSlow {
		return core.Signal{
			Action:   core.ActionSell,
			Strength: m.strength(currFast, currSlow),
			Detector: m.Name(),
			Reason:   fmt.Sprintf("death cross: SMA%d (%.2f) crossed below SMA%d (%.2f)", fast, currFast, slow, currSlow),
			Snapshot: map[string]float64{"sma_fast": currFast, "sma_slow": currSlow},
			Time:     bar.Time,
		}, true
	}

	return core.Signal{}, false
}

// strength returns higher strength for larger divergence between the
// two averages, scaled into 0.5-0.9.
func (m *MACrossover) strength(fast, slow float64) float64 {
	if slow == 0 {
		return 0.5
	}
	diff := math.Abs((fast - slow) / slow)
	s := 0.5 + diff*10
	if s > 0.9 {
		s = 0.9
	}
	return s
}
