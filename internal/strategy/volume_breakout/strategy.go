package volume_breakout

import (
	"fmt"
	"math"

	"github.com/newthinker/alphalab/internal/core"
	"github.com/newthinker/alphalab/internal/strategy"
)

// Defaults for the breakout window and the volume confirmation.
const (
	DefaultLookback = 20
	DefaultMultiple = 2.0
)

// VolumeBreakout flags price breakouts confirmed by volume: the close
// exceeds the trailing high while volume runs a configurable multiple
// above its trailing average. Breakouts are entries only; the detector
// never sells.
type VolumeBreakout struct{}

// New creates the detector.
func New() *VolumeBreakout {
	return &VolumeBreakout{}
}

func (v *VolumeBreakout) Name() string {
	return "volume_breakout"
}

func (v *VolumeBreakout) Description() string {
	return "volume-confirmed breakout above the trailing high"
}

// DefaultParams returns the parameters the detector and its indicator
// series read.
func DefaultParams() *strategy.Parameters {
	return strategy.NewParameters().
		Set("volume_period", strategy.Param{Type: strategy.ParamInt, Value: strategy.DefaultVolumePeriod, Min: 5, Max: 120, HasRange: true}).
		Set("volume_multiple", strategy.Param{Type: strategy.ParamFloat, Value: DefaultMultiple, Min: 1.1, Max: 10, HasRange: true}).
		Set("breakout_lookback", strategy.Param{Type: strategy.ParamInt, Value: DefaultLookback, Min: 5, Max: 250, HasRange: true})
}

func (v *VolumeBreakout) Detect(ctx strategy.DetectContext) (core.Signal, bool) {
	lookback := ctx.Params.IntOr("breakout_lookback", DefaultLookback)
	if ctx.Index < lookback {
		return core.Signal{}, false
	}

	// The trailing volume average deliberately excludes the current
	// bar, so the spike itself cannot dilute the baseline.
	avgVol := ctx.PrevValue(strategy.KeyVolumeSMA)
	if math.IsNaN(avgVol) || avgVol <= 0 {
		return core.Signal{}, false
	}

	bar := ctx.Bar()
	ratio := float64(bar.Volume) / avgVol
	multiple := ctx.Params.FloatOr("volume_multiple", DefaultMultiple)
	if ratio < multiple {
		return core.Signal{}, false
	}

	trailingHigh := math.Inf(-1)
	for i := ctx.Index - lookback; i < ctx.Index; i++ {
		if h := ctx.Bars[i].High; h > trailingHigh {
			trailingHigh = h
		}
	}
	if bar.Close <= trailingHigh {
		return core.Signal{}, false
	}

	return core.Signal{
		Action:   core.ActionBuy,
		Strength: v.strength(ratio, multiple),
		Detector: v.Name(),
		Reason:   fmt.Sprintf("close %.2f broke the %d-bar high %.2f on %.1fx volume", bar.Close, lookback, trailingHigh, ratio),
		Snapshot: map[string]float64{
			"close":         bar.Close,
			"trailing_high": trailingHigh,
			"volume":        float64(bar.Volume),
			"volume_avg":    avgVol,
			"volume_ratio":  ratio,
		},
		Time: bar.Time,
	}, true
}

// strength scales how far volume exceeds the required multiple into
// 0.5-0.9; exactly meeting the multiple scores 0.5.
func (v *VolumeBreakout) strength(ratio, multiple float64) float64 {
	s := 0.5 + (ratio-multiple)/multiple*0.4
	if s > 0.9 {
		s = 0.9
	}
	if s < 0.5 {
		s = 0.5
	}
	return s
}
