package api

type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "med"
	SeverityHigh   Severity = "high"
)

type Alert struct {
	ID       string   `json:"id"`
	Type     string   `json:"type"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

type RecommendationDetails struct {
	Impact   string   `json:"impact"`
	Steps    []string `json:"steps"`
	Timeline string   `json:"timeline"`
}

type Recommendation struct {
	ID               string                 `json:"id"`
	Title            string                 `json:"title"`
	Description      string                 `json:"description"`
	PotentialSavings *float64               `json:"potentialSavings,omitempty"`
	Action           string                 `json:"action,omitempty"`
	Details          *RecommendationDetails `json:"details,omitempty"`
}

type RecommendationList struct {
	Items        []Recommendation `json:"items"`
	TotalSavings float64          `json:"totalSavings"`
}
