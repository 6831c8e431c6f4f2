package domain

import "time"

// Report is a rendered view of a snapshot for terminal output
type Report struct {
	Title       string
	Period      TimePeriod
	Sections    []ReportSection
	TotalAmount float64
	Currency    string
}

// TimePeriod covers the first and last observed expense days
type TimePeriod struct {
	Start    time.Time
	End      time.Time
	Duration int // in days
}

type ReportSection struct {
	Title   string
	Summary []ReportSummary
	Details []ReportDetail
}

// ReportSummary is a single headline figure of a section, kept in insertion order
type ReportSummary struct {
	Key   string
	Value string
}

type ReportDetail struct {
	Name        string
	Value       string
	Unit        string
	Description string
}
