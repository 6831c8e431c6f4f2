package domain

import "time"

// Snapshot is the full derived view set computed from one event collection.
// Every field reflects the same collection.
type Snapshot struct {
	Revision        uint64
	ComputedAt      time.Time
	Events          []ExpenseEvent
	Daily           []DailyTotal
	Categories      []CategoryTotal
	Services        []ServiceTotal
	MonthProjection float64
	Alerts          []Alert
	Recommendations []Recommendation
	TotalBudget     float64
}
