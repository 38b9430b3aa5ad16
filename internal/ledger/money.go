package ledger

import (
	"fmt"
	"strconv"
	"strings"

	dErrors "enroll/pkg/domain-errors"
)

// Cents is an amount in BRL minor units.
type Cents int64

// Div divides by n rounding half away from zero. n must be positive.
func (c Cents) Div(n int) Cents {
	d := Cents(n)
	q, r := c/d, c%d
	if r < 0 {
		r = -r
	}
	if 2*r >= d {
		if c < 0 {
			q--
		} else {
			q++
		}
	}
	return q
}

// Mul multiplies by n.
func (c Cents) Mul(n int) Cents { return c * Cents(n) }

// Float is the amount in currency units, for JSON and gateway payloads.
func (c Cents) Float() float64 { return float64(c) / 100 }

// String renders "450.00".
func (c Cents) String() string {
	sign := ""
	v := int64(c)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// ParseCents parses "450", "450.00", "64,29", "R$ 1.234,56" or "1,234.56".
// When both separators appear the rightmost one is the decimal separator.
func ParseCents(raw string) (Cents, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "R$")
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	if s == "" {
		return 0, dErrors.New(dErrors.CodeValidation, "empty amount")
	}

	dot, comma := strings.LastIndex(s, "."), strings.LastIndex(s, ",")
	switch {
	case dot >= 0 && comma >= 0 && comma > dot:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case dot >= 0 && comma >= 0:
		s = strings.ReplaceAll(s, ",", "")
	case comma >= 0:
		s = strings.Replace(s, ",", ".", 1)
	}

	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeValidation, fmt.Sprintf("invalid amount %q", raw))
	}

	var f int64
	switch {
	case len(frac) == 0:
	case len(frac) == 1:
		f, err = strconv.ParseInt(frac, 10, 64)
		f *= 10
	default:
		// third decimal rounds half up
		f, err = strconv.ParseInt(frac[:2], 10, 64)
		if err == nil && len(frac) > 2 && frac[2] >= '5' && frac[2] <= '9' {
			f++
		}
	}
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeValidation, fmt.Sprintf("invalid amount %q", raw))
	}

	total := Cents(w*100 + f)
	if neg {
		total = -total
	}
	return total, nil
}

// FromFloat converts a currency-unit float (as read from a numeric spreadsheet cell).
func FromFloat(v float64) Cents {
	if v < 0 {
		return -Cents(-v*100 + 0.5)
	}
	return Cents(v*100 + 0.5)
}
