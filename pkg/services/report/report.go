// Package report turns a snapshot into the section/detail model rendered by
// the terminal reporter.
package report

import (
	"fmt"
	"time"

	"github.com/de-tools/spend-atlas/pkg/models/domain"
	"github.com/de-tools/spend-atlas/pkg/money"
	"github.com/de-tools/spend-atlas/pkg/services/budget"
	"github.com/de-tools/spend-atlas/pkg/services/insights"
)

const (
	Currency        = "USD"
	TopServiceCount = 5
)

// Build renders every figure the dashboard shows. now anchors the KPI windows.
func Build(snap *domain.Snapshot, budgets *budget.Registry, now time.Time) *domain.Report {
	summary := insights.Summarize(snap.Categories, snap.TotalBudget, snap.MonthProjection)

	return &domain.Report{
		Title:       "Spend Analysis",
		Period:      period(snap.Events),
		TotalAmount: summary.TotalSpend,
		Currency:    Currency,
		Sections: []domain.ReportSection{
			overview(snap, summary, now),
			categories(snap, budgets),
			services(snap),
			alerts(snap),
			recommendations(snap),
		},
	}
}

func period(events []domain.ExpenseEvent) domain.TimePeriod {
	if len(events) == 0 {
		return domain.TimePeriod{}
	}
	start, end := events[0].Date, events[0].Date
	for _, e := range events[1:] {
		if e.Date.Before(start) {
			start = e.Date
		}
		if e.Date.After(end) {
			end = e.Date
		}
	}
	first, _ := time.Parse(domain.DayLayout, start.Format(domain.DayLayout))
	last, _ := time.Parse(domain.DayLayout, end.Format(domain.DayLayout))
	return domain.TimePeriod{
		Start:    start,
		End:      end,
		Duration: int(last.Sub(first).Hours()/24) + 1,
	}
}

func overview(snap *domain.Snapshot, summary insights.SpendSummary, now time.Time) domain.ReportSection {
	kpis := insights.ComputeKPIs(snap, now)

	status := "on track"
	if kpis.OverBudget {
		status = "over budget"
	}
	return domain.ReportSection{
		Title: "Overview",
		Summary: []domain.ReportSummary{
			{Key: "Total spend", Value: money.FormatCents(summary.TotalSpend)},
			{Key: "Monthly budget", Value: money.FormatUSD(summary.TotalBudget)},
			{Key: "Projected month", Value: fmt.Sprintf("%s (%s)", money.FormatUSD(summary.MonthProjection), status)},
			{Key: "Last 30 days", Value: money.FormatCents(kpis.Last30DaysSpend)},
			{Key: "Last 90 days", Value: money.FormatCents(kpis.Last90DaysSpend)},
			{Key: "Budget usage (30d)", Value: fmt.Sprintf("%.1f%%", kpis.BudgetUsagePercent)},
			{Key: "Alerts", Value: fmt.Sprintf("%d (%d high)", kpis.AlertCount, kpis.HighAlertCount)},
		},
	}
}

func categories(snap *domain.Snapshot, budgets *budget.Registry) domain.ReportSection {
	section := domain.ReportSection{Title: "Budgets by Category"}
	for _, s := range insights.BudgetStatuses(snap.Categories, budgets) {
		section.Details = append(section.Details, domain.ReportDetail{
			Name:        string(s.Category),
			Value:       money.FormatCents(s.Spent),
			Unit:        Currency,
			Description: fmt.Sprintf("%.0f%% of %s (%s)", s.Percent, money.FormatUSD(s.Budget), s.Status),
		})
	}
	return section
}

func services(snap *domain.Snapshot) domain.ReportSection {
	section := domain.ReportSection{Title: "Top Services"}
	for _, s := range insights.TopServices(snap.Services, TopServiceCount) {
		section.Details = append(section.Details, domain.ReportDetail{
			Name:        fmt.Sprintf("%d. %s", s.Rank, s.Service),
			Value:       money.FormatCents(s.AmountUSD),
			Unit:        Currency,
			Description: fmt.Sprintf("%.1f%% of spend", s.Percent),
		})
	}
	return section
}

func alerts(snap *domain.Snapshot) domain.ReportSection {
	section := domain.ReportSection{Title: "Alerts"}
	for _, a := range snap.Alerts {
		section.Details = append(section.Details, domain.ReportDetail{
			Name:        a.ID,
			Value:       string(a.Severity),
			Description: a.Message,
		})
	}
	return section
}

func recommendations(snap *domain.Snapshot) domain.ReportSection {
	recs := insights.SortBySavings(snap.Recommendations)
	section := domain.ReportSection{
		Title: "Recommendations",
		Summary: []domain.ReportSummary{
			{Key: "Potential monthly savings", Value: money.FormatUSD(insights.TotalSavings(recs))},
		},
	}
	for _, r := range recs {
		value := "-"
		if r.PotentialSavings != nil {
			value = money.FormatUSD(*r.PotentialSavings)
		}
		section.Details = append(section.Details, domain.ReportDetail{
			Name:        r.Title,
			Value:       value,
			Unit:        Currency,
			Description: r.Description,
		})
	}
	return section
}
