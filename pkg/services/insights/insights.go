// Package insights computes the secondary dashboard figures derived from a
// snapshot: KPI tiles, budget utilisation buckets, savings rollups and AI
// token usage.
package insights

import (
	"cmp"
	"slices"
	"time"

	"github.com/de-tools/spend-atlas/pkg/models/domain"
	"github.com/de-tools/spend-atlas/pkg/money"
	"github.com/de-tools/spend-atlas/pkg/services/aggregate"
	"github.com/de-tools/spend-atlas/pkg/services/budget"
	"github.com/de-tools/spend-atlas/pkg/services/session"
)

const (
	ShortWindowDays = 30
	LongWindowDays  = 90

	CriticalPercent = 90.0
	HighPercent     = 75.0

	TokensMetaKey = "tokens"
)

type KPIs struct {
	Last30DaysSpend    float64
	Last90DaysSpend    float64
	BudgetUsagePercent float64
	MonthProjection    float64
	OverBudget         bool
	AlertCount         int
	HighAlertCount     int
}

// ComputeKPIs derives the headline tiles. Windows are relative to now.
func ComputeKPIs(snap *domain.Snapshot, now time.Time) KPIs {
	short := aggregate.Total(session.Trailing(snap.Events, now, ShortWindowDays))
	long := aggregate.Total(session.Trailing(snap.Events, now, LongWindowDays))

	high := 0
	for _, a := range snap.Alerts {
		if a.Severity == domain.SeverityHigh {
			high++
		}
	}

	return KPIs{
		Last30DaysSpend:    short,
		Last90DaysSpend:    long,
		BudgetUsagePercent: money.Percent(short, snap.TotalBudget),
		MonthProjection:    snap.MonthProjection,
		OverBudget:         snap.MonthProjection > snap.TotalBudget,
		AlertCount:         len(snap.Alerts),
		HighAlertCount:     high,
	}
}

type Status string

const (
	StatusOK       Status = "ok"
	StatusHigh     Status = "high"
	StatusCritical Status = "critical"
)

type BudgetStatus struct {
	Category domain.Category
	Spent    float64
	Budget   float64
	Percent  float64
	Status   Status
}

// BudgetStatuses buckets category utilisation (critical >= 90%, high >= 75%)
// and sorts by utilisation, highest first.
func BudgetStatuses(categories []domain.CategoryTotal, budgets *budget.Registry) []BudgetStatus {
	out := make([]BudgetStatus, 0, len(categories))
	for _, ct := range categories {
		ceiling, ok := budgets.Ceiling(ct.Category)
		if !ok {
			continue
		}
		pct := money.Percent(ct.AmountUSD, ceiling)

		status := StatusOK
		switch {
		case pct >= CriticalPercent:
			status = StatusCritical
		case pct >= HighPercent:
			status = StatusHigh
		}
		out = append(out, BudgetStatus{
			Category: ct.Category,
			Spent:    ct.AmountUSD,
			Budget:   ceiling,
			Percent:  pct,
			Status:   status,
		})
	}
	slices.SortStableFunc(out, func(a, b BudgetStatus) int {
		return cmp.Compare(b.Percent, a.Percent)
	})
	return out
}

type SpendSummary struct {
	TotalSpend      float64
	TotalBudget     float64
	PercentOfBudget float64
	Remaining       float64
	OverBy          float64
	MonthProjection float64
}

func Summarize(categories []domain.CategoryTotal, totalBudget, projection float64) SpendSummary {
	var total float64
	for _, c := range categories {
		total += c.AmountUSD
	}
	return SpendSummary{
		TotalSpend:      total,
		TotalBudget:     totalBudget,
		PercentOfBudget: money.Percent(total, totalBudget),
		Remaining:       max(0, totalBudget-total),
		OverBy:          max(0, total-totalBudget),
		MonthProjection: projection,
	}
}

// CriticalAlerts returns up to limit high-severity alerts in generation order
// and how many alerts were left out.
func CriticalAlerts(alerts []domain.Alert, limit int) ([]domain.Alert, int) {
	out := make([]domain.Alert, 0)
	for _, a := range alerts {
		if len(out) == limit {
			break
		}
		if a.Severity == domain.SeverityHigh {
			out = append(out, a)
		}
	}
	return out, len(alerts) - len(out)
}

type ServiceShare struct {
	Rank      int
	Service   string
	AmountUSD float64
	Percent   float64
}

// TopServices returns the first limit services with their share of total spend.
func TopServices(services []domain.ServiceTotal, limit int) []ServiceShare {
	var total float64
	for _, s := range services {
		total += s.AmountUSD
	}

	n := max(0, min(limit, len(services)))
	out := make([]ServiceShare, 0, n)
	for i, s := range services[:n] {
		out = append(out, ServiceShare{
			Rank:      i + 1,
			Service:   s.Service,
			AmountUSD: s.AmountUSD,
			Percent:   money.Percent(s.AmountUSD, total),
		})
	}
	return out
}

// SortBySavings returns a copy ordered by potential savings, highest first.
// Recommendations without a figure count as 0.
func SortBySavings(recs []domain.Recommendation) []domain.Recommendation {
	out := slices.Clone(recs)
	slices.SortStableFunc(out, func(a, b domain.Recommendation) int {
		return cmp.Compare(b.Savings(), a.Savings())
	})
	return out
}

func TotalSavings(recs []domain.Recommendation) float64 {
	var total float64
	for _, r := range recs {
		total += r.Savings()
	}
	return total
}

type TokenUsage struct {
	TotalTokens      float64
	TotalCost        float64
	CostPerMillion   float64
	ServiceBreakdown []domain.ServiceTotal
}

// AITokenUsage summarises AI Tokens / APIs events. Token counts come from the
// numeric "tokens" meta entry; events without it contribute cost only.
func AITokenUsage(events []domain.ExpenseEvent) TokenUsage {
	var ai []domain.ExpenseEvent
	var usage TokenUsage
	for _, e := range events {
		if e.Category != domain.CategoryAITokens {
			continue
		}
		ai = append(ai, e)
		usage.TotalCost += aggregate.Amount(e)
		if v, ok := e.Meta[TokensMetaKey]; ok {
			if tokens, ok := v.Float(); ok {
				usage.TotalTokens += tokens
			}
		}
	}
	if usage.TotalTokens > 0 {
		usage.CostPerMillion = usage.TotalCost / usage.TotalTokens * 1_000_000
	}
	usage.ServiceBreakdown = aggregate.ByService(ai)
	return usage
}
