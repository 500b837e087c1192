package money

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/newthinker/alphalab/internal/core"
)

func TestAmount_Arithmetic(t *testing.T) {
	a := FromFloat(0.1)
	b := FromFloat(0.2)

	// 0.1 + 0.2 is exactly 0.3 in decimal, unlike float64
	sum := a.Add(b)
	if sum.String() != "0.3" {
		t.Errorf("0.1 + 0.2 = %s, want 0.3", sum.String())
	}

	if got := FromInt(10).Sub(FromFloat(2.5)).String(); got != "7.5" {
		t.Errorf("10 - 2.5 = %s, want 7.5", got)
	}
	if got := FromFloat(1.5).Mul(FromInt(4)).String(); got != "6" {
		t.Errorf("1.5 * 4 = %s, want 6", got)
	}
	if got := FromFloat(2.5).MulInt(3).String(); got != "7.5" {
		t.Errorf("2.5 * 3 = %s, want 7.5", got)
	}
	if got := FromFloat(-1.25).Neg().String(); got != "1.25" {
		t.Errorf("neg(-1.25) = %s, want 1.25", got)
	}
	if got := FromFloat(-1.25).Abs().String(); got != "1.25" {
		t.Errorf("abs(-1.25) = %s, want 1.25", got)
	}
}

func TestAmount_Div(t *testing.T) {
	q, err := FromInt(10).Div(FromInt(4))
	if err != nil {
		t.Fatalf("Div failed: %v", err)
	}
	if q.String() != "2.5" {
		t.Errorf("10 / 4 = %s, want 2.5", q.String())
	}

	_, err = FromInt(1).Div(Zero())
	if err == nil {
		t.Fatal("expected division by zero error")
	}
	if !errors.Is(err, core.ErrDivisionByZero) {
		t.Errorf("expected DIVISION_BY_ZERO, got %v", err)
	}
}

func TestAmount_SafeDiv(t *testing.T) {
	fallback := FromInt(-1)

	got := FromInt(10).SafeDiv(Zero(), fallback)
	if !got.Equal(fallback) {
		t.Errorf("SafeDiv by zero = %s, want fallback %s", got, fallback)
	}

	got = FromInt(10).SafeDiv(FromInt(2), fallback)
	if got.String() != "5" {
		t.Errorf("10 / 2 = %s, want 5", got)
	}
}

func TestAmount_Comparisons(t *testing.T) {
	a := FromFloat(1.5)
	b := FromFloat(2.5)

	if a.Cmp(b) != -1 || b.Cmp(a) != 1 || a.Cmp(a) != 0 {
		t.Error("Cmp ordering wrong")
	}
	if !a.LessThan(b) || a.GreaterThan(b) {
		t.Error("LessThan/GreaterThan wrong")
	}
	if !a.Equal(FromFloat(1.5)) {
		t.Error("Equal wrong")
	}
	if !Zero().IsZero() || a.IsZero() {
		t.Error("IsZero wrong")
	}
	if !FromInt(-1).IsNegative() || a.IsNegative() {
		t.Error("IsNegative wrong")
	}
	if !a.IsPositive() || Zero().IsPositive() {
		t.Error("IsPositive wrong")
	}
}

func TestAmount_Rounding(t *testing.T) {
	tests := []struct {
		name string
		in   string
		fn   func(Amount) Amount
		want string
	}{
		{"currency rounds half up", "1.005", Amount.Currency, "1.01"},
		{"currency truncates below half", "1.004", Amount.Currency, "1"},
		{"currency keeps two digits", "130", Amount.Currency, "130"},
		{"percent rounds half up", "0.00005", Amount.Percent, "0.0001"},
		{"percent four digits", "0.123456", Amount.Percent, "0.1235"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := FromString(tt.in)
			if err != nil {
				t.Fatalf("FromString(%s) failed: %v", tt.in, err)
			}
			if got := tt.fn(a).String(); got != tt.want {
				t.Errorf("round(%s) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestAmount_FloorInt(t *testing.T) {
	if got := FromFloat(100.49).FloorInt(); got != 100 {
		t.Errorf("floor(100.49) = %d, want 100", got)
	}
	if got := FromFloat(100.99).FloorInt(); got != 100 {
		t.Errorf("floor(100.99) = %d, want 100", got)
	}
	if got := FromInt(100).FloorInt(); got != 100 {
		t.Errorf("floor(100) = %d, want 100", got)
	}
}

func TestFromString_Invalid(t *testing.T) {
	_, err := FromString("not a number")
	if err == nil {
		t.Fatal("expected parse error")
	}
	if !errors.Is(err, core.ErrInvalidInput) {
		t.Errorf("expected INVALID_INPUT, got %v", err)
	}
}

func TestMaxMin(t *testing.T) {
	a := FromInt(30)
	b := FromInt(5)

	if !Max(a, b).Equal(a) {
		t.Error("Max wrong")
	}
	if !Min(a, b).Equal(b) {
		t.Error("Min wrong")
	}
	if !Max(a, a).Equal(a) {
		t.Error("Max of equal values wrong")
	}
}

func TestAmount_JSON(t *testing.T) {
	type doc struct {
		Total Amount `json:"total"`
	}

	out, err := json.Marshal(doc{Total: FromFloat(130.5).Currency()})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(out) != `{"total":"130.5"}` {
		t.Errorf("unexpected JSON: %s", out)
	}

	var back doc
	if err := json.Unmarshal(out, &back); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if !back.Total.Equal(FromFloat(130.5)) {
		t.Errorf("round trip lost value: %s", back.Total)
	}
}
