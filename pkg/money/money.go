// Package money holds the USD rounding and formatting rules used in alert
// messages, recommendations and reports.
package money

import (
	"math"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// Round rounds half up to a whole dollar.
func Round(amount float64) float64 {
	return math.Floor(amount + 0.5)
}

// FormatUSD renders a whole-dollar, thousands-separated amount, e.g. $12,345.
func FormatUSD(amount float64) string {
	return "$" + humanize.Comma(int64(Round(amount)))
}

// FormatCents renders an amount with exactly two decimals, e.g. $12,345.67.
func FormatCents(amount float64) string {
	d := decimal.NewFromFloat(amount).Round(2)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	whole := d.Truncate(0)
	cents := d.Sub(whole).StringFixed(2) // "0.xx"
	return sign + "$" + humanize.Comma(whole.IntPart()) + cents[1:]
}

// Share returns amount * rate rounded to a whole dollar. The product is taken
// in decimal so 2000 * 0.15 is exactly 300.
func Share(amount, rate float64) float64 {
	return decimal.NewFromFloat(amount).
		Mul(decimal.NewFromFloat(rate)).
		Round(0).
		InexactFloat64()
}

// Percent returns part/whole*100, or 0 when whole is 0.
func Percent(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return part / whole * 100
}
