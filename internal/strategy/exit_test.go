package strategy

import (
	"errors"
	"math"
	"testing"

	"github.com/newthinker/alphalab/internal/core"
)

func TestExitRule_Evaluate(t *testing.T) {
	tests := []struct {
		name    string
		expr    string
		metrics map[string]float64
		want    bool
	}{
		{
			name:    "take profit fires",
			expr:    "unrealized_pnl_pct >= 10",
			metrics: map[string]float64{MetricUnrealizedPnLPct: 12.5},
			want:    true,
		},
		{
			name:    "take profit holds",
			expr:    "unrealized_pnl_pct >= 10",
			metrics: map[string]float64{MetricUnrealizedPnLPct: 9.99},
			want:    false,
		},
		{
			name:    "stop loss with negative threshold",
			expr:    "unrealized_pnl_pct <= -5",
			metrics: map[string]float64{MetricUnrealizedPnLPct: -5.1},
			want:    true,
		},
		{
			name:    "holding window",
			expr:    "holding_days >= 30",
			metrics: map[string]float64{MetricHoldingDays: 30},
			want:    true,
		},
		{
			name:    "whitespace tolerated",
			expr:    "  drawdown_pct>8  ",
			metrics: map[string]float64{MetricDrawdownPct: 8.5},
			want:    true,
		},
		{
			name:    "unknown metric never fires",
			expr:    "velocity > 1",
			metrics: map[string]float64{MetricClose: 100},
			want:    false,
		},
		{
			name:    "malformed expression never fires",
			expr:    "unrealized_pnl_pct >>= 10",
			metrics: map[string]float64{MetricUnrealizedPnLPct: 50},
			want:    false,
		},
		{
			name:    "NaN metric never fires",
			expr:    "unrealized_pnl_pct != 0",
			metrics: map[string]float64{MetricUnrealizedPnLPct: math.NaN()},
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := ExitRule{Name: "test", Expr: tt.expr}
			if got := r.Evaluate(tt.metrics); got != tt.want {
				t.Errorf("Evaluate(%q) = %v, want %v", tt.expr, got, tt.want)
			}
		})
	}
}

func TestExitRule_Validate(t *testing.T) {
	good := ExitRule{Name: "stop_loss", Expr: "unrealized_pnl_pct <= -5"}
	if err := good.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, bad := range []ExitRule{
		{Name: "", Expr: "close > 1"},
		{Name: "broken", Expr: "close >"},
		{Name: "broken", Expr: "close is above 5"},
	} {
		if err := bad.Validate(); !errors.Is(err, core.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput for %+v, got %v", bad, err)
		}
	}
}

func TestEvaluateExitRules_FirstMatchWins(t *testing.T) {
	rules := []ExitRule{
		{Name: "first", Expr: "holding_days >= 10", Reason: "first"},
		{Name: "second", Expr: "holding_days >= 5", Reason: "second"},
	}

	metrics := map[string]float64{MetricHoldingDays: 12}
	fired, ok := EvaluateExitRules(rules, metrics)
	if !ok {
		t.Fatal("expected a rule to fire")
	}
	if fired.Name != "first" {
		t.Errorf("expected the first matching rule, got %q", fired.Name)
	}

	metrics[MetricHoldingDays] = 7
	fired, ok = EvaluateExitRules(rules, metrics)
	if !ok || fired.Name != "second" {
		t.Errorf("expected the second rule at 7 days, got ok=%v name=%q", ok, fired.Name)
	}

	metrics[MetricHoldingDays] = 1
	if _, ok := EvaluateExitRules(rules, metrics); ok {
		t.Error("expected no rule to fire")
	}
}

func TestDefaultExitRules(t *testing.T) {
	rules := DefaultExitRules(10, 5, 30)

	if len(rules) != 3 {
		t.Fatalf("expected 3 rules, got %d", len(rules))
	}
	for _, r := range rules {
		if err := r.Validate(); err != nil {
			t.Errorf("rule %q fails validation: %v", r.Name, err)
		}
	}

	// Stop loss triggers on a -6% position
	metrics := map[string]float64{
		MetricUnrealizedPnLPct: -6,
		MetricHoldingDays:      2,
	}
	fired, ok := EvaluateExitRules(rules, metrics)
	if !ok || fired.Name != "stop_loss" {
		t.Errorf("expected stop_loss, got ok=%v name=%q", ok, fired.Name)
	}

	// Take profit at +10%
	metrics[MetricUnrealizedPnLPct] = 10
	fired, ok = EvaluateExitRules(rules, metrics)
	if !ok || fired.Name != "take_profit" {
		t.Errorf("expected take_profit, got ok=%v name=%q", ok, fired.Name)
	}

	// Holding window exit on a flat position
	metrics[MetricUnrealizedPnLPct] = 0
	metrics[MetricHoldingDays] = 30
	fired, ok = EvaluateExitRules(rules, metrics)
	if !ok || fired.Name != "max_holding_days" {
		t.Errorf("expected max_holding_days, got ok=%v name=%q", ok, fired.Name)
	}
}
