// Package market classifies per-bar trading status. A signal is acted
// on only when the bar is normal; everything else blocks execution.
package market

import (
	"fmt"

	"github.com/newthinker/alphalab/internal/core"
)

// Status represents the trading status of a single bar.
type Status string

const (
	StatusNormal    Status = "normal"
	StatusSuspended Status = "suspended"
	StatusLimitUp   Status = "limit_up"
	StatusLimitDown Status = "limit_down"
	StatusAbnormal  Status = "abnormal"
)

// limitTolerance widens the limit threshold so that closes a fraction
// below the exact limit price still count as limit moves.
const limitTolerance = 0.001

// comparisonEpsilon absorbs float64 rounding when a close sits exactly
// on the widened threshold.
const comparisonEpsilon = 1e-9

// Classification is the status of one bar with a human-readable detail.
type Classification struct {
	Status Status `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// Tradable reports whether orders can execute on a bar in this status.
func (c Classification) Tradable() bool {
	return c.Status == StatusNormal
}

// Classify determines the status of a bar given the previous close and
// the configured price limit rate. Suspension is checked first since
// suspended bars often carry placeholder prices, then data sanity, then
// limit moves. prevClose <= 0 (for example the first bar of a series)
// skips limit detection. limitRate <= 0 disables it.
func Classify(bar core.Bar, prevClose, limitRate float64) Classification {
	if bar.Volume == 0 {
		return Classification{Status: StatusSuspended, Detail: "zero volume"}
	}

	if detail, ok := abnormal(bar); ok {
		return Classification{Status: StatusAbnormal, Detail: detail}
	}

	if limitRate > 0 && prevClose > 0 {
		threshold := limitRate*(1-limitTolerance) - comparisonEpsilon
		change := (bar.Close - prevClose) / prevClose
		if change >= threshold {
			return Classification{
				Status: StatusLimitUp,
				Detail: fmt.Sprintf("close moved %+.4f against limit %.4f", change, limitRate),
			}
		}
		if change <= -threshold {
			return Classification{
				Status: StatusLimitDown,
				Detail: fmt.Sprintf("close moved %+.4f against limit %.4f", change, limitRate),
			}
		}
	}

	return Classification{Status: StatusNormal}
}

// ClassifyAll classifies every bar of a series, feeding each bar the
// previous close.
func ClassifyAll(bars []core.Bar, limitRate float64) []Classification {
	out := make([]Classification, len(bars))
	prevClose := 0.0
	for i, b := range bars {
		out[i] = Classify(b, prevClose, limitRate)
		prevClose = b.Close
	}
	return out
}

func abnormal(bar core.Bar) (string, bool) {
	if !bar.IsFinite() {
		return "non-finite price field", true
	}
	if bar.Open <= 0 || bar.High <= 0 || bar.Low <= 0 || bar.Close <= 0 {
		return "non-positive price field", true
	}
	if bar.High < bar.Open || bar.High < bar.Close || bar.High < bar.Low {
		return "high below another price field", true
	}
	if bar.Low > bar.Open || bar.Low > bar.Close {
		return "low above another price field", true
	}
	return "", false
}
