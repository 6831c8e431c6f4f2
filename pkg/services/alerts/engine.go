// Package alerts derives budget, anomaly and plan warnings from aggregated spend.
package alerts

import (
	"fmt"
	"math"

	"github.com/de-tools/spend-atlas/pkg/models/domain"
	"github.com/de-tools/spend-atlas/pkg/money"
	"github.com/de-tools/spend-atlas/pkg/services/aggregate"
	"github.com/de-tools/spend-atlas/pkg/services/budget"
	"github.com/de-tools/spend-atlas/pkg/services/forecast"
)

const (
	CategoryWarnRatio  = 0.9
	AnomalyMinDays     = 7
	AnomalyStdDevs     = 2.0
	AIPlanHintSpendUSD = 3000.0
)

const (
	IDTotalBudget    = "a1"
	IDAnomaly        = "a2"
	IDAIPlan         = "a3"
	categoryIDPrefix = "cat-"
)

// Input is everything the rules look at. Rules never see raw events.
type Input struct {
	Daily      []domain.DailyTotal
	Categories []domain.CategoryTotal
	Projection float64
	Budgets    *budget.Registry
}

// Rule inspects the input and returns zero or more alerts.
type Rule func(in Input) []domain.Alert

// DefaultRules returns the built-in rules in evaluation order.
func DefaultRules() []Rule {
	return []Rule{
		TotalBudgetRule,
		CategoryBudgetRule,
		AnomalyRule,
		AIPlanRule,
	}
}

type Engine struct {
	budgets *budget.Registry
	rules   []Rule
}

// NewEngine builds an engine; with no rules it uses DefaultRules.
func NewEngine(budgets *budget.Registry, rules ...Rule) *Engine {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Engine{budgets: budgets, rules: rules}
}

// Generate aggregates events and evaluates every rule. Alerts are returned in
// rule order; there is no short-circuiting between rules.
func (e *Engine) Generate(events []domain.ExpenseEvent) []domain.Alert {
	daily := aggregate.ByDay(events)
	return e.Evaluate(Input{
		Daily:      daily,
		Categories: aggregate.ByCategory(events),
		Projection: forecast.LinearProjectionMonth(daily),
		Budgets:    e.budgets,
	})
}

// Evaluate runs the rules over precomputed aggregates.
func (e *Engine) Evaluate(in Input) []domain.Alert {
	out := make([]domain.Alert, 0)
	for _, rule := range e.rules {
		out = append(out, rule(in)...)
	}
	return out
}

func TotalBudgetRule(in Input) []domain.Alert {
	total := in.Budgets.Total()
	if in.Projection <= total {
		return nil
	}
	return []domain.Alert{{
		ID:       IDTotalBudget,
		Type:     domain.AlertTypeBudget,
		Severity: domain.SeverityHigh,
		Message: fmt.Sprintf("Projected month spend %s exceeds total budget %s",
			money.FormatUSD(in.Projection), money.FormatUSD(total)),
	}}
}

// CategoryBudgetRule fires above 90% of a ceiling: med up to and including
// 100%, high beyond it.
func CategoryBudgetRule(in Input) []domain.Alert {
	var out []domain.Alert
	for _, ct := range in.Categories {
		ceiling, ok := in.Budgets.Ceiling(ct.Category)
		if !ok || ct.AmountUSD <= ceiling*CategoryWarnRatio {
			continue
		}

		severity := domain.SeverityMedium
		if ct.AmountUSD > ceiling {
			severity = domain.SeverityHigh
		}
		out = append(out, domain.Alert{
			ID:       CategoryAlertID(ct.Category),
			Type:     domain.AlertTypeBudget,
			Severity: severity,
			Message: fmt.Sprintf("%s spending at %s (%.0f%% of budget)",
				ct.Category, money.FormatUSD(ct.AmountUSD), money.Round(money.Percent(ct.AmountUSD, ceiling))),
		})
	}
	return out
}

func CategoryAlertID(c domain.Category) string {
	return categoryIDPrefix + string(c)
}

// AnomalyRule flags the latest day when it exceeds mean + 2 population
// standard deviations. Needs at least AnomalyMinDays days.
func AnomalyRule(in Input) []domain.Alert {
	if len(in.Daily) < AnomalyMinDays {
		return nil
	}

	mean, std := meanStdDev(in.Daily)
	last := in.Daily[len(in.Daily)-1].AmountUSD
	if last <= mean+AnomalyStdDevs*std {
		return nil
	}
	return []domain.Alert{{
		ID:       IDAnomaly,
		Type:     domain.AlertTypeAnomaly,
		Severity: domain.SeverityMedium,
		Message:  "Latest daily spend is anomalously high vs baseline",
	}}
}

func AIPlanRule(in Input) []domain.Alert {
	if aggregate.CategoryAmount(in.Categories, domain.CategoryAITokens) <= AIPlanHintSpendUSD {
		return nil
	}
	return []domain.Alert{{
		ID:       IDAIPlan,
		Type:     domain.AlertTypePlan,
		Severity: domain.SeverityLow,
		Message:  "Consider enterprise AI token plan to reduce per-token cost",
	}}
}

func meanStdDev(daily []domain.DailyTotal) (float64, float64) {
	n := float64(len(daily))
	var sum float64
	for _, d := range daily {
		sum += d.AmountUSD
	}
	mean := sum / n

	var variance float64
	for _, d := range daily {
		diff := d.AmountUSD - mean
		variance += diff * diff
	}
	return mean, math.Sqrt(variance / n)
}
