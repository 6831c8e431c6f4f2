package store

import "time"

// ExpenseRecord is one row of the expense_events table. Meta is stored as a
// JSON object.
type ExpenseRecord struct {
	ID           string
	Date         time.Time
	Service      string
	AmountUSD    float64
	Category     string
	PricingModel string
	MetaJSON     string
}
