// Package money provides an exact decimal amount type for ledger arithmetic.
//
// Amounts are backed by shopspring/decimal so that sums, differences and
// equal splits never pick up binary floating-point error. Division is only
// offered as DivMod, which returns the remainder explicitly.
package money

import (
	"database/sql/driver"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// DefaultPlaces is the number of fractional digits used when no currency is given.
const DefaultPlaces int32 = 2

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrTooPrecise    = errors.New("amount is finer than the currency's minor unit")
)

// Money is an exact decimal amount. The zero value is 0.
type Money struct {
	d decimal.Decimal
}

// Zero is the zero amount.
var Zero = Money{}

// New returns value × 10^exp, e.g. New(1234, -2) is 12.34.
func New(value int64, exp int32) Money {
	return Money{d: decimal.New(value, exp)}
}

// FromMinor converts an amount expressed in minor units (cents) to Money.
func FromMinor(units int64, places int32) Money {
	return Money{d: decimal.New(units, -places)}
}

// FromInt returns a whole-unit amount.
func FromInt(v int64) Money {
	return Money{d: decimal.NewFromInt(v)}
}

// FromDecimal wraps a decimal value.
func FromDecimal(d decimal.Decimal) Money {
	return Money{d: d}
}

// Parse reads a decimal string such as "12.34" or "-0.5".
func Parse(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return Money{d: d}, nil
}

// MustParse is like Parse but panics on malformed input.
func MustParse(s string) Money {
	m, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Money) Decimal() decimal.Decimal { return m.d }

func (m Money) Add(o Money) Money { return Money{d: m.d.Add(o.d)} }

func (m Money) Sub(o Money) Money { return Money{d: m.d.Sub(o.d)} }

func (m Money) MulInt(n int64) Money { return Money{d: m.d.Mul(decimal.NewFromInt(n))} }

func (m Money) Neg() Money { return Money{d: m.d.Neg()} }

func (m Money) Abs() Money { return Money{d: m.d.Abs()} }

// Sign returns -1, 0 or 1.
func (m Money) Sign() int { return m.d.Sign() }

func (m Money) Cmp(o Money) int { return m.d.Cmp(o.d) }

func (m Money) Equal(o Money) bool { return m.d.Equal(o.d) }

func (m Money) IsZero() bool { return m.d.IsZero() }

func (m Money) IsNegative() bool { return m.d.IsNegative() }

func (m Money) IsPositive() bool { return m.d.IsPositive() }

func (m Money) LessThan(o Money) bool { return m.d.LessThan(o.d) }

func (m Money) GreaterThan(o Money) bool { return m.d.GreaterThan(o.d) }

// Round rounds half away from zero to the given number of fractional digits.
func (m Money) Round(places int32) Money { return Money{d: m.d.Round(places)} }

// DivMod splits m into n equal parts truncated toward zero at the given
// number of fractional digits. The returned remainder r satisfies
// m == q*n + r and carries the same sign as m.
//
// DivMod panics if n <= 0.
func (m Money) DivMod(n int, places int32) (q, r Money) {
	if n <= 0 {
		panic(fmt.Sprintf("money: DivMod by %d", n))
	}
	quo, _ := m.d.QuoRem(decimal.NewFromInt(int64(n)), places)
	q = Money{d: quo}
	r = m.Sub(q.MulInt(int64(n)))
	return q, r
}

// Min returns the smaller of a and b.
func Min(a, b Money) Money {
	if a.Cmp(b) <= 0 {
		return a
	}
	return b
}

// Sum adds all amounts.
func Sum(ms ...Money) Money {
	total := Zero
	for _, m := range ms {
		total = total.Add(m)
	}
	return total
}

func (m Money) StringFixed(places int32) string { return m.d.StringFixed(places) }

// String renders the amount with DefaultPlaces fractional digits.
func (m Money) String() string { return m.d.StringFixed(DefaultPlaces) }

func (m Money) MarshalJSON() ([]byte, error) { return m.d.MarshalJSON() }

func (m *Money) UnmarshalJSON(b []byte) error { return m.d.UnmarshalJSON(b) }

// Value stores amounts as decimal text.
func (m Money) Value() (driver.Value, error) { return m.d.String(), nil }

func (m *Money) Scan(v any) error { return m.d.Scan(v) }
