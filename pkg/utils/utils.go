// Package utils provides display helpers for metric values.
package utils

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// FormatMoney formats an amount with two decimals and thousands separators,
// e.g. -12345.6 becomes "-12,345.60".
func FormatMoney(v float64) string {
	fixed := decimal.NewFromFloat(v).StringFixed(2)

	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign, fixed = "-", fixed[1:]
	}
	whole, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	b.WriteString(sign)
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}

// FormatPercent formats a value already expressed in percent.
func FormatPercent(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2) + "%"
}

// FormatRatio formats a dimensionless ratio. Values at or above ceiling are
// shown as "∞".
func FormatRatio(v, ceiling float64) string {
	if ceiling > 0 && v >= ceiling {
		return "∞"
	}
	return decimal.NewFromFloat(v).StringFixed(2)
}

// FormatStreak renders a signed streak as e.g. "3W", "2L" or "0".
func FormatStreak(n int) string {
	switch {
	case n > 0:
		return fmt.Sprintf("%dW", n)
	case n < 0:
		return fmt.Sprintf("%dL", -n)
	default:
		return "0"
	}
}

// FormatDays formats a day count, e.g. "1 day" or "12 days".
func FormatDays(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}
