// Package money provides exact decimal arithmetic for monetary and
// percentage values. Every monetary field in the engine is produced
// through Amount, never through raw float arithmetic, so derived values
// do not accumulate binary floating-point error.
package money

import (
	"github.com/shopspring/decimal"

	"github.com/newthinker/alphalab/internal/core"
)

// Amount is an immutable fixed-point decimal value.
type Amount struct {
	d decimal.Decimal
}

// Zero returns the zero amount.
func Zero() Amount {
	return Amount{}
}

// FromFloat converts a float64 to an Amount.
func FromFloat(f float64) Amount {
	return Amount{d: decimal.NewFromFloat(f)}
}

// FromInt converts an int64 to an Amount.
func FromInt(n int64) Amount {
	return Amount{d: decimal.NewFromInt(n)}
}

// FromString parses a decimal string.
func FromString(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, core.WrapError(core.ErrInvalidInput, err)
	}
	return Amount{d: d}, nil
}

// Add returns a + b.
func (a Amount) Add(b Amount) Amount {
	return Amount{d: a.d.Add(b.d)}
}

// Sub returns a - b.
func (a Amount) Sub(b Amount) Amount {
	return Amount{d: a.d.Sub(b.d)}
}

// Mul returns a * b.
func (a Amount) Mul(b Amount) Amount {
	return Amount{d: a.d.Mul(b.d)}
}

// MulInt returns a * n.
func (a Amount) MulInt(n int64) Amount {
	return Amount{d: a.d.Mul(decimal.NewFromInt(n))}
}

// Div returns a / b, or ErrDivisionByZero when b is zero.
func (a Amount) Div(b Amount) (Amount, error) {
	if b.d.IsZero() {
		return Amount{}, core.WrapErrorf(core.ErrDivisionByZero, "dividing %s by zero", a.d.String())
	}
	return Amount{d: a.d.Div(b.d)}, nil
}

// SafeDiv returns a / b, or fallback when b is zero. Callers use it
// wherever a zero divisor is foreseeable, such as empty-window statistics.
func (a Amount) SafeDiv(b, fallback Amount) Amount {
	if b.d.IsZero() {
		return fallback
	}
	return Amount{d: a.d.Div(b.d)}
}

// Neg returns -a.
func (a Amount) Neg() Amount {
	return Amount{d: a.d.Neg()}
}

// Abs returns the absolute value of a.
func (a Amount) Abs() Amount {
	return Amount{d: a.d.Abs()}
}

// Cmp compares a and b: -1 if a < b, 0 if equal, +1 if a > b.
func (a Amount) Cmp(b Amount) int {
	return a.d.Cmp(b.d)
}

// Equal reports a == b.
func (a Amount) Equal(b Amount) bool {
	return a.d.Equal(b.d)
}

// LessThan reports a < b.
func (a Amount) LessThan(b Amount) bool {
	return a.d.LessThan(b.d)
}

// GreaterThan reports a > b.
func (a Amount) GreaterThan(b Amount) bool {
	return a.d.GreaterThan(b.d)
}

// IsZero reports a == 0.
func (a Amount) IsZero() bool {
	return a.d.IsZero()
}

// IsNegative reports a < 0.
func (a Amount) IsNegative() bool {
	return a.d.IsNegative()
}

// IsPositive reports a > 0.
func (a Amount) IsPositive() bool {
	return a.d.IsPositive()
}

// Currency rounds to 2 decimal places, half up.
func (a Amount) Currency() Amount {
	return Amount{d: a.d.Round(2)}
}

// Percent rounds to 4 decimal places, half up. Used for ratio and
// percentage fields.
func (a Amount) Percent() Amount {
	return Amount{d: a.d.Round(4)}
}

// FloorInt returns the largest integer not greater than a.
func (a Amount) FloorInt() int64 {
	return a.d.Floor().IntPart()
}

// Float64 returns the nearest float64 representation.
func (a Amount) Float64() float64 {
	return a.d.InexactFloat64()
}

// String returns the decimal string form.
func (a Amount) String() string {
	return a.d.String()
}

// Max returns the larger of a and b.
func Max(a, b Amount) Amount {
	if a.Cmp(b) >= 0 {
		return a
	}
	return b
}

// Min returns the smaller of a and b.
func Min(a, b Amount) Amount {
	if a.Cmp(b) <= 0 {
		return a
	}
	return b
}

// MarshalJSON encodes the amount as a decimal string.
func (a Amount) MarshalJSON() ([]byte, error) {
	return a.d.MarshalJSON()
}

// UnmarshalJSON decodes a decimal string or JSON number.
func (a *Amount) UnmarshalJSON(data []byte) error {
	return a.d.UnmarshalJSON(data)
}
