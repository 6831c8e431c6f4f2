package adapters

import (
	"github.com/de-tools/spend-atlas/pkg/models/api"
	"github.com/de-tools/spend-atlas/pkg/models/domain"
	"github.com/de-tools/spend-atlas/pkg/services/insights"
)

func MapSnapshotDomainToApi(s *domain.Snapshot) api.Snapshot {
	return api.Snapshot{
		Revision:        s.Revision,
		ComputedAt:      s.ComputedAt,
		Events:          MapExpenseEventsDomainToApi(s.Events),
		Daily:           MapDailyTotalsDomainToApi(s.Daily),
		Categories:      MapCategoryTotalsDomainToApi(s.Categories),
		Services:        MapServiceTotalsDomainToApi(s.Services),
		MonthProjection: s.MonthProjection,
		Alerts:          MapAlertsDomainToApi(s.Alerts),
		Recommendations: MapRecommendationsDomainToApi(s.Recommendations),
		TotalBudget:     s.TotalBudget,
	}
}

func MapDailyTotalsDomainToApi(daily []domain.DailyTotal) []api.DailyTotal {
	res := make([]api.DailyTotal, 0, len(daily))
	for _, d := range daily {
		res = append(res, api.DailyTotal{Date: d.Date, AmountUSD: d.AmountUSD})
	}
	return res
}

func MapCategoryTotalsDomainToApi(categories []domain.CategoryTotal) []api.CategoryTotal {
	res := make([]api.CategoryTotal, 0, len(categories))
	for _, c := range categories {
		res = append(res, api.CategoryTotal{Category: string(c.Category), AmountUSD: c.AmountUSD})
	}
	return res
}

func MapServiceTotalsDomainToApi(services []domain.ServiceTotal) []api.ServiceTotal {
	res := make([]api.ServiceTotal, 0, len(services))
	for _, s := range services {
		res = append(res, api.ServiceTotal{Service: s.Service, AmountUSD: s.AmountUSD})
	}
	return res
}

func MapSeverityDomainToApi(s domain.Severity) api.Severity {
	switch s {
	case domain.SeverityMedium:
		return api.SeverityMedium
	case domain.SeverityHigh:
		return api.SeverityHigh
	default:
		return api.SeverityLow
	}
}

func MapAlertsDomainToApi(alerts []domain.Alert) []api.Alert {
	res := make([]api.Alert, 0, len(alerts))
	for _, a := range alerts {
		res = append(res, api.Alert{
			ID:       a.ID,
			Type:     string(a.Type),
			Severity: MapSeverityDomainToApi(a.Severity),
			Message:  a.Message,
		})
	}
	return res
}

func MapRecommendationDomainToApi(r domain.Recommendation) api.Recommendation {
	res := api.Recommendation{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Action:      r.Action,
	}
	if r.PotentialSavings != nil {
		v := *r.PotentialSavings
		res.PotentialSavings = &v
	}
	if r.Details != nil {
		res.Details = &api.RecommendationDetails{
			Impact:   r.Details.Impact,
			Steps:    append([]string(nil), r.Details.Steps...),
			Timeline: r.Details.Timeline,
		}
	}
	return res
}

func MapRecommendationsDomainToApi(recs []domain.Recommendation) []api.Recommendation {
	res := make([]api.Recommendation, 0, len(recs))
	for _, r := range recs {
		res = append(res, MapRecommendationDomainToApi(r))
	}
	return res
}

func MapBudgetStatusesDomainToApi(statuses []insights.BudgetStatus) []api.BudgetStatus {
	res := make([]api.BudgetStatus, 0, len(statuses))
	for _, s := range statuses {
		res = append(res, api.BudgetStatus{
			Category: string(s.Category),
			Spent:    s.Spent,
			Budget:   s.Budget,
			Percent:  s.Percent,
			Status:   string(s.Status),
		})
	}
	return res
}

func MapKPIsDomainToApi(k insights.KPIs) api.KPIs {
	return api.KPIs{
		Last30DaysSpend:    k.Last30DaysSpend,
		Last90DaysSpend:    k.Last90DaysSpend,
		BudgetUsagePercent: k.BudgetUsagePercent,
		MonthProjection:    k.MonthProjection,
		OverBudget:         k.OverBudget,
		AlertCount:         k.AlertCount,
		HighAlertCount:     k.HighAlertCount,
	}
}

func MapTokenUsageDomainToApi(u insights.TokenUsage) api.TokenUsage {
	return api.TokenUsage{
		TotalTokens:      u.TotalTokens,
		TotalCost:        u.TotalCost,
		CostPerMillion:   u.CostPerMillion,
		ServiceBreakdown: MapServiceTotalsDomainToApi(u.ServiceBreakdown),
	}
}
