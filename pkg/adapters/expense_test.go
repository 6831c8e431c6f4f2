package adapters

import (
	"testing"
	"time"

	"github.com/de-tools/spend-atlas/pkg/models/api"
	"github.com/de-tools/spend-atlas/pkg/models/domain"
	"github.com/de-tools/spend-atlas/pkg/models/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validApiEvent() api.ExpenseEvent {
	return api.ExpenseEvent{
		ID:           "exp-1",
		Date:         "2025-06-13T23:30:00-05:00",
		Service:      "OpenAI GPT-4",
		AmountUSD:    12.5,
		Category:     "AI Tokens / APIs",
		PricingModel: "usage",
		Meta:         map[string]api.MetaValue{"tokens": domain.NumberValue(12500)},
	}
}

func TestParseEventDate(t *testing.T) {
	tests := []struct {
		in      string
		day     string
		wantErr bool
	}{
		{in: "2025-06-13T10:00:00.000Z", day: "2025-06-13"},
		{in: "2025-06-13T23:30:00-05:00", day: "2025-06-13"},
		{in: "2025-06-13T08:00:00", day: "2025-06-13"},
		{in: "2025-06-13", day: "2025-06-13"},
		{in: "13/06/2025", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseEventDate(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidEvent)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.day, got.Format(domain.DayLayout))
		})
	}
}

func TestMapExpenseEventApiToDomain(t *testing.T) {
	got, err := MapExpenseEventApiToDomain(validApiEvent())

	require.NoError(t, err)
	assert.Equal(t, "exp-1", got.ID)
	assert.Equal(t, "2025-06-13", got.Day())
	assert.Equal(t, domain.CategoryAITokens, got.Category)
	assert.Equal(t, domain.PricingUsage, got.PricingModel)
	tokens, ok := got.Meta["tokens"].Float()
	assert.True(t, ok)
	assert.Equal(t, 12500.0, tokens)
}

func TestMapExpenseEventApiToDomain_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*api.ExpenseEvent)
	}{
		{"missing id", func(e *api.ExpenseEvent) { e.ID = "" }},
		{"missing date", func(e *api.ExpenseEvent) { e.Date = "" }},
		{"missing service", func(e *api.ExpenseEvent) { e.Service = "" }},
		{"bad date", func(e *api.ExpenseEvent) { e.Date = "yesterday" }},
		{"negative amount", func(e *api.ExpenseEvent) { e.AmountUSD = -1 }},
		{"unknown category", func(e *api.ExpenseEvent) { e.Category = "Food" }},
		{"unknown pricing model", func(e *api.ExpenseEvent) { e.PricingModel = "prepaid" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := validApiEvent()
			tt.mutate(&e)

			_, err := MapExpenseEventApiToDomain(e)

			assert.ErrorIs(t, err, ErrInvalidEvent)
		})
	}
}

func TestMapExpenseEventDomainToApi_KeepsOffset(t *testing.T) {
	in, err := MapExpenseEventApiToDomain(validApiEvent())
	require.NoError(t, err)

	got := MapExpenseEventDomainToApi(in)

	assert.Equal(t, "2025-06-13T23:30:00-05:00", got.Date)
	assert.Equal(t, "AI Tokens / APIs", got.Category)
}

func TestExpenseRecordMapping(t *testing.T) {
	event := domain.ExpenseEvent{
		ID:           "exp-2",
		Date:         time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		Service:      "GitHub",
		AmountUSD:    300,
		Category:     domain.CategoryThirdPartyTools,
		PricingModel: domain.PricingSeat,
		Meta:         domain.Meta{"seats": domain.NumberValue(6), "plan": domain.StringValue("team")},
	}

	record, err := MapExpenseEventDomainToStore(event)
	require.NoError(t, err)
	assert.JSONEq(t, `{"seats":6,"plan":"team"}`, record.MetaJSON)

	back, err := MapExpenseRecordStoreToDomain(record)
	require.NoError(t, err)
	assert.Equal(t, event, back)
}

func TestMapExpenseRecordStoreToDomain_Invalid(t *testing.T) {
	_, err := MapExpenseRecordStoreToDomain(store.ExpenseRecord{
		ID:           "x",
		Date:         time.Now(),
		Service:      "Stripe",
		Category:     "Third-Party Tools",
		PricingModel: "usage",
		MetaJSON:     "[1,2]",
	})
	assert.ErrorIs(t, err, ErrInvalidEvent)

	_, err = MapExpenseRecordStoreToDomain(store.ExpenseRecord{ID: "y"})
	assert.ErrorIs(t, err, ErrInvalidEvent)
}

func TestMapRecommendationDomainToApi_CopiesPointers(t *testing.T) {
	savings := 300.0
	rec := domain.Recommendation{
		ID:               "r2",
		PotentialSavings: &savings,
		Details:          &domain.RecommendationDetails{Steps: []string{"a"}},
	}

	got := MapRecommendationDomainToApi(rec)
	*got.PotentialSavings = 1
	got.Details.Steps[0] = "b"

	assert.Equal(t, 300.0, savings)
	assert.Equal(t, "a", rec.Details.Steps[0])
}
