// Package indicator provides causal technical indicators over a price
// series. Every function returns a slice the same length as its input,
// with NaN at indices where the value is undefined, and the value at
// index i depends only on prices[0..i].
package indicator

import (
	"math"

	"github.com/newthinker/alphalab/internal/core"
)

// SMA calculates the Simple Moving Average over a trailing window.
// Indices below period-1 are NaN.
func SMA(prices []float64, period int) ([]float64, error) {
	if err := validate(prices, period); err != nil {
		return nil, err
	}

	result := warmup(len(prices), period-1)

	var sum float64
	for i, p := range prices {
		sum += p
		if i >= period {
			sum -= prices[i-period]
		}
		if i >= period-1 {
			result[i] = sum / float64(period)
		}
	}

	return result, nil
}

// EMA calculates the Exponential Moving Average seeded with the first
// price: EMA[0] = prices[0], EMA[i] = (prices[i]-EMA[i-1])*k + EMA[i-1]
// with k = 2/(period+1). Defined at every index.
func EMA(prices []float64, period int) ([]float64, error) {
	if err := validate(prices, period); err != nil {
		return nil, err
	}

	result := make([]float64, len(prices))
	multiplier := 2.0 / float64(period+1)

	ema := prices[0]
	result[0] = ema
	for i := 1; i < len(prices); i++ {
		ema = (prices[i]-ema)*multiplier + ema
		result[i] = ema
	}

	return result, nil
}

// validate rejects empty input and non-positive periods.
func validate(prices []float64, period int) error {
	if len(prices) == 0 {
		return core.WrapErrorf(core.ErrInvalidInput, "empty price series")
	}
	if period < 1 {
		return core.WrapErrorf(core.ErrInvalidInput, "period must be positive, got %d", period)
	}
	return nil
}

// warmup returns a slice of length n with the first k values set to NaN.
func warmup(n, k int) []float64 {
	result := make([]float64, n)
	for i := 0; i < k && i < n; i++ {
		result[i] = math.NaN()
	}
	return result
}
