package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Currency fixes the minor unit used for splits, tolerances and display.
type Currency struct {
	Code   string `toml:"code" json:"code"`
	Places int32  `toml:"places" json:"places"`
}

// DefaultCurrency has no code and two fractional digits.
var DefaultCurrency = Currency{Places: DefaultPlaces}

// Epsilon is one minor unit, the reconciliation and settlement tolerance.
func (c Currency) Epsilon() Money {
	return Money{d: decimal.New(1, -c.Places)}
}

// Split divides m across n parts at this currency's precision.
func (c Currency) Split(m Money, n int) (share, remainder Money) {
	return m.DivMod(n, c.Places)
}

// Round rounds m to the currency's minor unit.
func (c Currency) Round(m Money) Money {
	return m.Round(c.Places)
}

// Within reports whether |a-b| is at most one minor unit.
func (c Currency) Within(a, b Money) bool {
	return a.Sub(b).Abs().Cmp(c.Epsilon()) <= 0
}

// Format renders m with the currency's precision and code, e.g. "12.50 EUR".
func (c Currency) Format(m Money) string {
	s := m.StringFixed(c.Places)
	if code := strings.TrimSpace(c.Code); code != "" {
		return fmt.Sprintf("%s %s", s, code)
	}
	return s
}

// Exact reports an error wrapping ErrTooPrecise when m has digits below the
// currency's minor unit. Trailing zeros are fine: "10.500" is exact in EUR.
func (c Currency) Exact(m Money) error {
	if !m.Equal(m.Round(c.Places)) {
		return fmt.Errorf("%w: %s has more than %d fractional digits", ErrTooPrecise, m.d.String(), c.Places)
	}
	return nil
}

func (c Currency) Validate() error {
	if c.Places < 0 || c.Places > 8 {
		return fmt.Errorf("currency places must be between 0 and 8, got %d", c.Places)
	}
	return nil
}
