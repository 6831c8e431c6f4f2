// Package forecast projects monthly spend from daily totals.
package forecast

import (
	"math"

	"github.com/de-tools/spend-atlas/pkg/models/domain"
)

// Horizon is the number of days summed by LinearProjectionMonth.
const Horizon = 30

// Trend is an ordinary least-squares line y = Slope*x + Intercept.
type Trend struct {
	Slope     float64
	Intercept float64
}

func (t Trend) At(x float64) float64 {
	return t.Intercept + t.Slope*x
}

// Fit fits a line through the points (i+1, daily[i].AmountUSD).
// The denominator is floored at 1 so a single point yields a flat line.
func Fit(daily []domain.DailyTotal) Trend {
	n := float64(len(daily))
	if n == 0 {
		return Trend{}
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, d := range daily {
		x := float64(i + 1)
		sumX += x
		sumY += d.AmountUSD
		sumXY += x * d.AmountUSD
		sumXX += x * x
	}

	slope := (n*sumXY - sumX*sumY) / math.Max(1, n*sumXX-sumX*sumX)
	intercept := (sumY - slope*sumX) / n
	return Trend{Slope: slope, Intercept: intercept}
}

// LinearProjectionMonth sums the fitted trend over x = 1..Horizon, counted from
// the start of the input series rather than from its last point. Negative
// daily values are clamped to zero. Empty input returns 0.
func LinearProjectionMonth(daily []domain.DailyTotal) float64 {
	if len(daily) == 0 {
		return 0
	}

	trend := Fit(daily)
	var total float64
	for x := 1; x <= Horizon; x++ {
		total += math.Max(0, trend.At(float64(x)))
	}
	return total
}
