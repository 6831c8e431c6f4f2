// Package recommendations turns per-service and per-category totals into
// cost-optimization suggestions with an estimated monthly saving.
package recommendations

import (
	"github.com/de-tools/spend-atlas/pkg/models/domain"
	"github.com/de-tools/spend-atlas/pkg/money"
	"github.com/de-tools/spend-atlas/pkg/services/aggregate"
)

type Input struct {
	Categories []domain.CategoryTotal
	Services   []domain.ServiceTotal
}

// Rule returns a recommendation or nil when it does not apply.
type Rule func(in Input) *domain.Recommendation

// Threshold describes a fixed-rate rule keyed by an exact category or service name.
type Threshold struct {
	ID          string
	Category    domain.Category // set for category rules
	Service     string          // set for service rules
	MinSpendUSD float64         // strictly greater than
	SavingsRate float64
	Title       string
	Description string
	Action      string
	Details     domain.RecommendationDetails
}

// Rule converts the threshold into a Rule.
func (t Threshold) Rule() Rule {
	return func(in Input) *domain.Recommendation {
		var spend float64
		if t.Service != "" {
			spend = aggregate.ServiceAmount(in.Services, t.Service)
		} else {
			spend = aggregate.CategoryAmount(in.Categories, t.Category)
		}
		if spend <= t.MinSpendUSD {
			return nil
		}

		savings := money.Share(spend, t.SavingsRate)
		details := t.Details
		details.Steps = append([]string(nil), t.Details.Steps...)
		return &domain.Recommendation{
			ID:               t.ID,
			Title:            t.Title,
			Description:      t.Description,
			PotentialSavings: &savings,
			Action:           t.Action,
			Details:          &details,
		}
	}
}

// DefaultRules returns the built-in rules in evaluation order.
func DefaultRules() []Rule {
	rules := make([]Rule, 0, len(builtin))
	for _, t := range builtin {
		rules = append(rules, t.Rule())
	}
	return rules
}

type Engine struct {
	rules []Rule
}

// NewEngine builds an engine; with no rules it uses DefaultRules.
func NewEngine(rules ...Rule) *Engine {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Engine{rules: rules}
}

func (e *Engine) Generate(events []domain.ExpenseEvent) []domain.Recommendation {
	return e.Evaluate(Input{
		Categories: aggregate.ByCategory(events),
		Services:   aggregate.ByService(events),
	})
}

// Evaluate runs every rule in order over precomputed totals.
func (e *Engine) Evaluate(in Input) []domain.Recommendation {
	out := make([]domain.Recommendation, 0)
	for _, rule := range e.rules {
		if rec := rule(in); rec != nil {
			out = append(out, *rec)
		}
	}
	return out
}
