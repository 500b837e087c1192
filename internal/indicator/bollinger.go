package indicator

import "math"

// BollingerResult holds the three band series, index-aligned with the input.
type BollingerResult struct {
	Middle []float64
	Upper  []float64
	Lower  []float64
}

// Bollinger calculates Bollinger Bands: middle is the SMA over period,
// the bands sit stdMult population standard deviations away. Indices
// below period-1 are NaN in all three series.
func Bollinger(prices []float64, period int, stdMult float64) (*BollingerResult, error) {
	middle, err := SMA(prices, period)
	if err != nil {
		return nil, err
	}

	upper := warmup(len(prices), period-1)
	lower := warmup(len(prices), period-1)

	for i := period - 1; i < len(prices); i++ {
		var variance float64
		for j := i - period + 1; j <= i; j++ {
			d := prices[j] - middle[i]
			variance += d * d
		}
		std := math.Sqrt(variance / float64(period))

		upper[i] = middle[i] + stdMult*std
		lower[i] = middle[i] - stdMult*std
	}

	return &BollingerResult{Middle: middle, Upper: upper, Lower: lower}, nil
}
