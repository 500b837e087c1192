package core

import (
	"math"
	"time"
)

// Timeframe identifies the bar interval of a series.
type Timeframe string

const (
	Timeframe1m Timeframe = "1m"
	Timeframe5m Timeframe = "5m"
	Timeframe1h Timeframe = "1h"
	Timeframe1d Timeframe = "1d"
	Timeframe1w Timeframe = "1w"
)

// Bar represents one OHLCV sample for a fixed time interval.
type Bar struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// IsFinite reports whether all price fields are finite numbers.
func (b Bar) IsFinite() bool {
	for _, v := range []float64{b.Open, b.High, b.Low, b.Close} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Action represents a trading signal action.
type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
	ActionHold Action = "hold"
)

// Signal represents a trading signal produced by a detector.
// Snapshot captures the indicator values that triggered it.
type Signal struct {
	Action   Action             `json:"action"`
	Strength float64            `json:"strength"`
	Detector string             `json:"detector"`
	Reason   string             `json:"reason"`
	Snapshot map[string]float64 `json:"snapshot,omitempty"`
	Time     time.Time          `json:"time"`
}

// IsActionable reports whether the signal requests a trade.
func (s Signal) IsActionable() bool {
	return s.Action == ActionBuy || s.Action == ActionSell
}

// ValidateBars checks a bar series before it enters the engine:
// non-empty, strictly ascending timestamps with no duplicates, all
// timestamps set, all price fields finite. Violations fail the whole
// series with ErrInvalidInput; per-bar anomalies such as OHLC ordering
// are left to the market status classifier.
func ValidateBars(bars []Bar) error {
	if len(bars) == 0 {
		return WrapErrorf(ErrInvalidInput, "empty bar series")
	}
	for i, b := range bars {
		if b.Time.IsZero() {
			return WrapErrorf(ErrInvalidInput, "bar %d has no timestamp", i)
		}
		if !b.IsFinite() {
			return WrapErrorf(ErrInvalidInput, "bar %d at %s has non-finite price", i, b.Time.Format("2006-01-02"))
		}
		if b.Volume < 0 {
			return WrapErrorf(ErrInvalidInput, "bar %d at %s has negative volume", i, b.Time.Format("2006-01-02"))
		}
		if i > 0 && !bars[i-1].Time.Before(b.Time) {
			return WrapErrorf(ErrInvalidInput, "bar %d at %s is not after previous bar %s",
				i, b.Time.Format(time.RFC3339), bars[i-1].Time.Format(time.RFC3339))
		}
	}
	return nil
}

// Closes extracts the close price series from bars.
func Closes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

// Volumes extracts the volume series from bars as floats.
func Volumes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = float64(b.Volume)
	}
	return out
}
