package indicator

// RSI calculates the Relative Strength Index using a simple (non-smoothed)
// rolling average of gains and losses over the trailing window. Indices
// below period hold the neutral sentinel 50. When the window has no
// losses the value is 100.
func RSI(prices []float64, period int) ([]float64, error) {
	if err := validate(prices, period); err != nil {
		return nil, err
	}

	result := make([]float64, len(prices))
	for i := 0; i < len(prices) && i < period; i++ {
		result[i] = 50
	}

	for i := period; i < len(prices); i++ {
		var gains, losses float64
		for j := i - period + 1; j <= i; j++ {
			change := prices[j] - prices[j-1]
			if change > 0 {
				gains += change
			} else {
				losses -= change
			}
		}

		avgGain := gains / float64(period)
		avgLoss := losses / float64(period)

		if avgLoss == 0 {
			result[i] = 100
			continue
		}
		rs := avgGain / avgLoss
		result[i] = 100 - 100/(1+rs)
	}

	return result, nil
}
