package macd_histogram

import (
	"fmt"
	"math"

	"github.com/newthinker/alphalab/internal/core"
	"github.com/newthinker/alphalab/internal/strategy"
)

// MACDHistogram flags MACD histogram sign flips: negative-to-positive
// buys, positive-to-negative sells.
type MACDHistogram struct{}

// New creates the detector.
func New() *MACDHistogram {
	return &MACDHistogram{}
}

func (m *MACDHistogram) Name() string {
	return "macd_histogram"
}

func (m *MACDHistogram) Description() string {
	return "MACD histogram sign flip (momentum turn)"
}

// DefaultParams returns the parameters the detector and its indicator
// series read.
func DefaultParams() *strategy.Parameters {
	return strategy.NewParameters().
		Set("macd_fast", strategy.Param{Type: strategy.ParamInt, Value: strategy.DefaultMACDFast, Min: 2, Max: 50, HasRange: true}).
		Set("macd_slow", strategy.Param{Type: strategy.ParamInt, Value: strategy.DefaultMACDSlow, Min: 5, Max: 120, HasRange: true}).
		Set("macd_signal", strategy.Param{Type: strategy.ParamInt, Value: strategy.DefaultMACDSignal, Min: 2, Max: 60, HasRange: true})
}

func (m *MACDHistogram) Detect(ctx strategy.DetectContext) (core.Signal, bool) {
	curr := ctx.Value(strategy.KeyMACDHist)
	prev := ctx.PrevValue(strategy.KeyMACDHist)
	if math.IsNaN(curr) || math.IsNaN(prev) {
		return core.Signal{}, false
	}

	bar := ctx.Bar()
	snapshot := map[string]float64{
		"macd_hist": curr,
		"macd_dif":  ctx.Value(strategy.KeyMACDDIF),
		"macd_dea":  ctx.Value(strategy.KeyMACDDEA),
	}

	if prev <= 0 && curr > 0 {
		return core.Signal{
			Action:   core.ActionBuy,
			Strength: m.strength(curr, bar.Close),
			Detector: m.Name(),
			Reason:   fmt.Sprintf("MACD histogram flipped positive: %.4f -> %.4f", prev, curr),
			Snapshot: snapshot,
			Time:     bar.Time,
		}, true
	}

	if prev >= 0 && curr < 0 {
		return core.Signal{
			Action:   core.ActionSell,
			Strength: m.strength(curr, bar.Close),
			Detector: m.Name(),
			Reason:   fmt.Sprintf("MACD histogram flipped negative: %.4f -> %.4f", prev, curr),
			Snapshot: snapshot,
			Time:     bar.Time,
		}, true
	}

	return core.Signal{}, false
}

// strength scales histogram size relative to price into 0.5-0.9.
func (m *MACDHistogram) strength(hist, close float64) float64 {
	if close <= 0 {
		return 0.5
	}
	s := 0.5 + math.Abs(hist)/close*50
	if s > 0.9 {
		s = 0.9
	}
	return s
}
