package api

type BudgetStatus struct {
	Category string  `json:"category"`
	Spent    float64 `json:"spent"`
	Budget   float64 `json:"budget"`
	Percent  float64 `json:"percent"`
	Status   string  `json:"status"`
}

type Budgets struct {
	Ceilings []CategoryTotal `json:"ceilings"`
	Total    float64         `json:"total"`
	Statuses []BudgetStatus  `json:"statuses"`
}

type KPIs struct {
	Last30DaysSpend    float64 `json:"last30DaysSpend"`
	Last90DaysSpend    float64 `json:"last90DaysSpend"`
	BudgetUsagePercent float64 `json:"budgetUsagePercent"`
	MonthProjection    float64 `json:"monthProjection"`
	OverBudget         bool    `json:"overBudget"`
	AlertCount         int     `json:"alertCount"`
	HighAlertCount     int     `json:"highAlertCount"`
}

type TokenUsage struct {
	TotalTokens      float64        `json:"totalTokens"`
	TotalCost        float64        `json:"totalCost"`
	CostPerMillion   float64        `json:"costPerMillion"`
	ServiceBreakdown []ServiceTotal `json:"serviceBreakdown"`
}
