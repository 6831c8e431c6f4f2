package domain

type AlertType string

const (
	AlertTypeBudget  AlertType = "budget"
	AlertTypeAnomaly AlertType = "anomaly"
	AlertTypePlan    AlertType = "plan"
)

type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "med"
	SeverityHigh   Severity = "high"
)

type Alert struct {
	ID       string
	Type     AlertType
	Severity Severity
	Message  string
}

type RecommendationDetails struct {
	Impact   string
	Steps    []string
	Timeline string
}

type Recommendation struct {
	ID               string
	Title            string
	Description      string
	PotentialSavings *float64 // monthly, whole dollars
	Action           string
	Details          *RecommendationDetails
}

// Savings returns PotentialSavings or 0 when it is unset.
func (r Recommendation) Savings() float64 {
	if r.PotentialSavings == nil {
		return 0
	}
	return *r.PotentialSavings
}
