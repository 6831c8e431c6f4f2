package api

import "time"

// ExpenseEvent is the wire form of an expense. Date is an ISO-8601 string,
// either a full RFC 3339 timestamp or a bare calendar day.
type ExpenseEvent struct {
	ID           string               `json:"id"`
	Date         string               `json:"date"`
	Service      string               `json:"service"`
	AmountUSD    float64              `json:"amountUsd"`
	Category     string               `json:"category"`
	PricingModel string               `json:"pricingModel"`
	Meta         map[string]MetaValue `json:"meta,omitempty"`
}

type DailyTotal struct {
	Date      string  `json:"date"`
	AmountUSD float64 `json:"amountUsd"`
}

type CategoryTotal struct {
	Category  string  `json:"category"`
	AmountUSD float64 `json:"amountUsd"`
}

type ServiceTotal struct {
	Service   string  `json:"service"`
	AmountUSD float64 `json:"amountUsd"`
}

type Forecast struct {
	MonthProjection float64 `json:"monthProjection"`
	TotalBudget     float64 `json:"totalBudget"`
	OverBudget      bool    `json:"overBudget"`
}

type Snapshot struct {
	Revision        uint64           `json:"revision"`
	ComputedAt      time.Time        `json:"computedAt"`
	Events          []ExpenseEvent   `json:"events"`
	Daily           []DailyTotal     `json:"daily"`
	Categories      []CategoryTotal  `json:"categories"`
	Services        []ServiceTotal   `json:"services"`
	MonthProjection float64          `json:"monthProjection"`
	Alerts          []Alert          `json:"alerts"`
	Recommendations []Recommendation `json:"recommendations"`
	TotalBudget     float64          `json:"totalBudget"`
}

// ReplaceResult reports the outcome of replacing the event collection.
type ReplaceResult struct {
	Revision uint64   `json:"revision"`
	Accepted int      `json:"accepted"`
	Rejected int      `json:"rejected"`
	Errors   []string `json:"errors,omitempty"`
}

type ErrorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}
