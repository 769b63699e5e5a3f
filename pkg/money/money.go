// Package money carries currency amounts as integer cents so that sums and
// rounding at two decimal places are exact.
package money

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
)

// Money is an amount in cents.
type Money int64

func FromCents(c int64) Money { return Money(c) }

// FromFloat converts a decimal amount, rounding half away from zero to the cent.
func FromFloat(f float64) Money {
	return Money(math.Round(f * 100))
}

// Parse reads a decimal string such as "19.99", "20" or "-0.5".
func Parse(s string) (Money, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("money: parse %q: %w", s, err)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("money: parse %q: not finite", s)
	}
	return FromFloat(f), nil
}

func (m Money) Cents() int64 { return int64(m) }

func (m Money) Mul(n int) Money { return m * Money(n) }

// Percent returns m*p/100 rounded half up to the cent. Only meaningful for
// non-negative amounts and rates.
func (m Money) Percent(p int64) Money {
	return Money((int64(m)*p + 50) / 100)
}

func (m Money) String() string {
	sign := ""
	c := int64(m)
	if c < 0 {
		sign = "-"
		c = -c
	}
	return fmt.Sprintf("%s%d.%02d", sign, c/100, c%100)
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Money) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	if len(b) == 0 || string(b) == "null" {
		*m = 0
		return nil
	}
	v, err := Parse(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}
