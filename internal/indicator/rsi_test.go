package indicator

import (
	"math"
	"testing"
)

func TestRSI_NeutralSentinelBelowWindow(t *testing.T) {
	prices := []float64{1, 2, 3, 4, 5, 6}

	rsi, err := RSI(prices, 4)
	if err != nil {
		t.Fatalf("RSI failed: %v", err)
	}
	if len(rsi) != len(prices) {
		t.Fatalf("expected %d values, got %d", len(prices), len(rsi))
	}
	for i := 0; i < 4; i++ {
		if rsi[i] != 50 {
			t.Errorf("rsi[%d] = %f, want sentinel 50", i, rsi[i])
		}
	}
}

func TestRSI_AllGains(t *testing.T) {
	prices := []float64{1, 2, 3, 4, 5, 6, 7}

	rsi, err := RSI(prices, 3)
	if err != nil {
		t.Fatalf("RSI failed: %v", err)
	}
	for i := 3; i < len(prices); i++ {
		if rsi[i] != 100 {
			t.Errorf("rsi[%d] = %f, want 100 with no losses", i, rsi[i])
		}
	}
}

func TestRSI_AllLosses(t *testing.T) {
	prices := []float64{7, 6, 5, 4, 3, 2, 1}

	rsi, err := RSI(prices, 3)
	if err != nil {
		t.Fatalf("RSI failed: %v", err)
	}
	for i := 3; i < len(prices); i++ {
		if rsi[i] != 0 {
			t.Errorf("rsi[%d] = %f, want 0 with no gains", i, rsi[i])
		}
	}
}

func TestRSI_BalancedWindow(t *testing.T) {
	// Window diffs alternate +1/-1, so avgGain == avgLoss and RSI is 50.
	prices := []float64{1, 2, 1, 2, 1}

	rsi, err := RSI(prices, 2)
	if err != nil {
		t.Fatalf("RSI failed: %v", err)
	}
	for i := 2; i < len(prices); i++ {
		if math.Abs(rsi[i]-50) > 1e-9 {
			t.Errorf("rsi[%d] = %f, want 50", i, rsi[i])
		}
	}
}

func TestRSI_StaysInRange(t *testing.T) {
	prices := []float64{10, 12, 11, 13, 9, 14, 8, 15, 7, 16, 10, 11}

	rsi, err := RSI(prices, 4)
	if err != nil {
		t.Fatalf("RSI failed: %v", err)
	}
	for i, v := range rsi {
		if v < 0 || v > 100 {
			t.Errorf("rsi[%d] = %f out of [0,100]", i, v)
		}
	}
}
