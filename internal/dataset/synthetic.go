package dataset

import (
	"math"
	"math/rand"
	"time"

	"github.com/newthinker/alphalab/internal/core"
)

// SyntheticConfig controls the seeded random-walk generator.
type SyntheticConfig struct {
	Bars       int       // number of trading days
	StartPrice float64   // first open
	Drift      float64   // per-bar expected return
	Volatility float64   // per-bar return standard deviation
	BaseVolume int64     // volume floor; actual volume jitters above it
	StartTime  time.Time // first bar close time
	Seed       int64     // rng seed; equal seeds give equal series
}

// DefaultSyntheticConfig returns a year of mildly trending daily bars.
func DefaultSyntheticConfig() SyntheticConfig {
	return SyntheticConfig{
		Bars:       252,
		StartPrice: 10.0,
		Drift:      0.0005,
		Volatility: 0.02,
		BaseVolume: 1_000_000,
		StartTime:  time.Date(2024, 1, 2, 15, 0, 0, 0, time.UTC),
		Seed:       42,
	}
}

// Synthetic generates a deterministic daily bar series by geometric
// random walk. Weekends are skipped; prices are rounded to cents.
// Non-positive config fields fall back to the defaults.
func Synthetic(cfg SyntheticConfig) []core.Bar {
	def := DefaultSyntheticConfig()
	if cfg.Bars <= 0 {
		cfg.Bars = def.Bars
	}
	if cfg.StartPrice <= 0 {
		cfg.StartPrice = def.StartPrice
	}
	if cfg.Volatility <= 0 {
		cfg.Volatility = def.Volatility
	}
	if cfg.BaseVolume <= 0 {
		cfg.BaseVolume = def.BaseVolume
	}
	if cfg.StartTime.IsZero() {
		cfg.StartTime = def.StartTime
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	bars := make([]core.Bar, cfg.Bars)

	price := cfg.StartPrice
	day := cfg.StartTime
	for i := range bars {
		ret := cfg.Drift + cfg.Volatility*rng.NormFloat64()
		next := math.Max(price*(1+ret), 0.01)

		high := math.Max(price, next) * (1 + 0.3*cfg.Volatility*math.Abs(rng.NormFloat64()))
		low := math.Min(price, next) * (1 - 0.3*cfg.Volatility*math.Abs(rng.NormFloat64()))
		low = math.Max(low, 0.01)

		bars[i] = core.Bar{
			Time:   day,
			Open:   roundCents(price),
			High:   roundCents(high),
			Low:    roundCents(low),
			Close:  roundCents(next),
			Volume: cfg.BaseVolume + rng.Int63n(cfg.BaseVolume/4+1),
		}

		price = next
		day = nextTradingDay(day)
	}

	return bars
}

func nextTradingDay(t time.Time) time.Time {
	t = t.AddDate(0, 0, 1)
	for t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		t = t.AddDate(0, 0, 1)
	}
	return t
}

// roundCents keeps generated prices on a realistic two-decimal tick.
// Rounding is monotonic, so OHLC ordering survives it.
func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
