// Package aggregate reduces expense events into per-day, per-category and
// per-service totals. All functions are pure and never mutate their input.
package aggregate

import (
	"cmp"
	"math"
	"slices"

	"github.com/de-tools/spend-atlas/pkg/models/domain"
)

// Amount returns the event amount, treating non-finite values as 0.
func Amount(e domain.ExpenseEvent) float64 {
	if math.IsNaN(e.AmountUSD) || math.IsInf(e.AmountUSD, 0) {
		return 0
	}
	return e.AmountUSD
}

// Total sums all event amounts.
func Total(events []domain.ExpenseEvent) float64 {
	var sum float64
	for _, e := range events {
		sum += Amount(e)
	}
	return sum
}

// ByDay groups events by calendar day and returns totals in ascending day order.
func ByDay(events []domain.ExpenseEvent) []domain.DailyTotal {
	keys, sums := group(events, domain.ExpenseEvent.Day)

	out := make([]domain.DailyTotal, 0, len(keys))
	for _, k := range keys {
		out = append(out, domain.DailyTotal{Date: k, AmountUSD: sums[k]})
	}
	slices.SortFunc(out, func(a, b domain.DailyTotal) int {
		return cmp.Compare(a.Date, b.Date)
	})
	return out
}

// ByCategory returns category totals, largest first. Ties keep first-seen order.
func ByCategory(events []domain.ExpenseEvent) []domain.CategoryTotal {
	keys, sums := group(events, func(e domain.ExpenseEvent) domain.Category {
		return e.Category
	})

	out := make([]domain.CategoryTotal, 0, len(keys))
	for _, k := range keys {
		out = append(out, domain.CategoryTotal{Category: k, AmountUSD: sums[k]})
	}
	slices.SortStableFunc(out, func(a, b domain.CategoryTotal) int {
		return cmp.Compare(b.AmountUSD, a.AmountUSD)
	})
	return out
}

// ByService returns service totals, largest first. Ties keep first-seen order.
// Service names are compared verbatim.
func ByService(events []domain.ExpenseEvent) []domain.ServiceTotal {
	keys, sums := group(events, func(e domain.ExpenseEvent) string {
		return e.Service
	})

	out := make([]domain.ServiceTotal, 0, len(keys))
	for _, k := range keys {
		out = append(out, domain.ServiceTotal{Service: k, AmountUSD: sums[k]})
	}
	slices.SortStableFunc(out, func(a, b domain.ServiceTotal) int {
		return cmp.Compare(b.AmountUSD, a.AmountUSD)
	})
	return out
}

// CategoryAmount looks up a category total, 0 when absent.
func CategoryAmount(totals []domain.CategoryTotal, c domain.Category) float64 {
	for _, t := range totals {
		if t.Category == c {
			return t.AmountUSD
		}
	}
	return 0
}

// ServiceAmount looks up a service total, 0 when absent.
func ServiceAmount(totals []domain.ServiceTotal, service string) float64 {
	for _, t := range totals {
		if t.Service == service {
			return t.AmountUSD
		}
	}
	return 0
}

// group sums amounts per key and returns the keys in first-seen order.
func group[K comparable](events []domain.ExpenseEvent, key func(domain.ExpenseEvent) K) ([]K, map[K]float64) {
	sums := make(map[K]float64)
	var keys []K
	for _, e := range events {
		k := key(e)
		if _, seen := sums[k]; !seen {
			keys = append(keys, k)
		}
		sums[k] += Amount(e)
	}
	return keys, sums
}
