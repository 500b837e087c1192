package indicator

import "github.com/newthinker/alphalab/internal/core"

// MACDResult holds the three MACD series, index-aligned with the input.
type MACDResult struct {
	DIF       []float64 // fast EMA minus slow EMA
	DEA       []float64 // EMA of DIF over the signal period
	Histogram []float64 // (DIF - DEA) * 2
}

// MACD calculates Moving Average Convergence Divergence. With EMA seeded
// from the first price all three series are defined at every index.
func MACD(prices []float64, fastPeriod, slowPeriod, signalPeriod int) (*MACDResult, error) {
	if fastPeriod >= slowPeriod {
		return nil, errPeriodOrder(fastPeriod, slowPeriod)
	}

	fast, err := EMA(prices, fastPeriod)
	if err != nil {
		return nil, err
	}
	slow, err := EMA(prices, slowPeriod)
	if err != nil {
		return nil, err
	}

	dif := make([]float64, len(prices))
	for i := range prices {
		dif[i] = fast[i] - slow[i]
	}

	dea, err := EMA(dif, signalPeriod)
	if err != nil {
		return nil, err
	}

	hist := make([]float64, len(prices))
	for i := range prices {
		hist[i] = (dif[i] - dea[i]) * 2
	}

	return &MACDResult{DIF: dif, DEA: dea, Histogram: hist}, nil
}

func errPeriodOrder(fast, slow int) error {
	return core.WrapErrorf(core.ErrInvalidInput, "fast period %d must be below slow period %d", fast, slow)
}
