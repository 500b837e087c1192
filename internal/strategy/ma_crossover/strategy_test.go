package ma_crossover

import (
	"testing"
	"time"

	"github.com/newthinker/alphalab/internal/core"
	"github.com/newthinker/alphalab/internal/strategy"
)

func TestMACrossover_ImplementsDetector(t *testing.T) {
	var _ strategy.Detector = (*MACrossover)(nil)
}

func TestMACrossover_Name(t *testing.T) {
	d := New()
	if d.Name() != "ma_crossover" {
		t.Errorf("expected 'ma_crossover', got '%s'", d.Name())
	}
}

// detectCtx builds a context over flat OHLC bars with a 2/4 SMA pair.
func detectCtx(t *testing.T, closes []float64, index int) strategy.DetectContext {
	t.Helper()

	base := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]core.Bar, len(closes))
	for i, c := range closes {
		bars[i] = core.Bar{Time: base.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c, Volume: 1000}
	}

	params := DefaultParams()
	if err := params.SetValue("fast_period", 2); err != nil {
		t.Fatalf("set fast_period: %v", err)
	}
	if err := params.SetValue("slow_period", 4); err != nil {
		t.Fatalf("set slow_period: %v", err)
	}

	set, err := strategy.BuildIndicatorSet(bars, params)
	if err != nil {
		t.Fatalf("build indicators: %v", err)
	}

	return strategy.DetectContext{Params: params, Bars: bars, Indicators: set, Index: index}
}

func TestMACrossover_GoldenCross(t *testing.T) {
	// Declining prices with a sharp recovery on the last bar.
	// At index 5: prevFast = (85+80)/2 = 82.5, prevSlow = (95+90+85+80)/4 = 87.5,
	// currFast = (80+120)/2 = 100, currSlow = (90+85+80+120)/4 = 93.75.
	// prevFast < prevSlow and currFast > currSlow: golden cross.
	closes := []float64{100, 95, 90, 85, 80, 120}

	sig, ok := New().Detect(detectCtx(t, closes, 5))
	if !ok {
		t.Fatal("expected a signal for golden cross")
	}
	if sig.Action != core.ActionBuy {
		t.Errorf("expected buy for golden cross, got %s", sig.Action)
	}
	if sig.Detector != "ma_crossover" {
		t.Errorf("expected detector name, got %q", sig.Detector)
	}
	if sig.Strength < 0.5 || sig.Strength > 0.9 {
		t.Errorf("strength %g outside [0.5, 0.9]", sig.Strength)
	}
	if sig.Snapshot["sma_fast"] != 100 || sig.Snapshot["sma_slow"] != 93.75 {
		t.Errorf("unexpected snapshot %v", sig.Snapshot)
	}
}

func TestMACrossover_DeathCross(t *testing.T) {
	// Rising prices with a sharp drop on the last bar.
	// At index 5: prevFast = (95+100)/2 = 97.5, prevSlow = (85+90+95+100)/4 = 92.5,
	// currFast = (100+60)/2 = 80, currSlow = (90+95+100+60)/4 = 86.25.
	closes := []float64{80, 85, 90, 95, 100, 60}

	sig, ok := New().Detect(detectCtx(t, closes, 5))
	if !ok {
		t.Fatal("expected a signal for death cross")
	}
	if sig.Action != core.ActionSell {
		t.Errorf("expected sell for death cross, got %s", sig.Action)
	}
}

func TestMACrossover_NoCross(t *testing.T) {
	// Steady uptrend: fast stays above slow, no crossing.
	closes := []float64{100, 101, 102, 103, 104, 105, 106}

	if _, ok := New().Detect(detectCtx(t, closes, 6)); ok {
		t.Error("expected no signal without a crossing")
	}
}

func TestMACrossover_SilentDuringWarmup(t *testing.T) {
	closes := []float64{100, 95, 90, 85, 80, 120}

	// Index 2 is inside the slow SMA warmup window.
	if _, ok := New().Detect(detectCtx(t, closes, 2)); ok {
		t.Error("expected no signal while the slow SMA is undefined")
	}
}
