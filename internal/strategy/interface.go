package strategy

import (
	"math"

	"github.com/newthinker/alphalab/internal/core"
)

// DetectContext carries everything a detector may read for one bar:
// the full bar series, the prepared indicator set, the bar index under
// evaluation and the current position state. Detectors are pure over
// this input.
type DetectContext struct {
	Params      *Parameters
	Bars        []core.Bar
	Indicators  IndicatorSet
	Index       int
	HasPosition bool
}

// Bar returns the bar under evaluation.
func (c DetectContext) Bar() core.Bar {
	return c.Bars[c.Index]
}

// Value returns the named indicator at the current index, or NaN when
// the series is missing or too short.
func (c DetectContext) Value(key string) float64 {
	series, ok := c.Indicators[key]
	if !ok || c.Index >= len(series) {
		return math.NaN()
	}
	return series[c.Index]
}

// PrevValue returns the named indicator at the previous index, or NaN
// on the first bar.
func (c DetectContext) PrevValue(key string) float64 {
	series, ok := c.Indicators[key]
	if !ok || c.Index < 1 || c.Index > len(series) {
		return math.NaN()
	}
	return series[c.Index-1]
}

// Detector inspects one bar of a prepared series and may emit a signal.
type Detector interface {
	Name() string
	Description() string
	Detect(ctx DetectContext) (core.Signal, bool)
}
