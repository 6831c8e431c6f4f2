package recommendations

import (
	"testing"
	"time"

	"github.com/de-tools/spend-atlas/pkg/models/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func spend(service string, category domain.Category, amount float64) domain.ExpenseEvent {
	return domain.ExpenseEvent{
		ID:           service,
		Date:         time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		Service:      service,
		AmountUSD:    amount,
		Category:     category,
		PricingModel: domain.PricingUsage,
	}
}

func TestGenerate_EC2Rightsizing(t *testing.T) {
	got := NewEngine().Generate([]domain.ExpenseEvent{
		spend("AWS EC2", domain.CategoryInfrastructure, 1200),
		spend("AWS EC2", domain.CategoryInfrastructure, 800),
	})

	require.Len(t, got, 1)
	assert.Equal(t, IDRightsizeEC2, got[0].ID)
	assert.Equal(t, "Rightsize EC2 Instances", got[0].Title)
	assert.Equal(t, "View Instances", got[0].Action)
	require.NotNil(t, got[0].PotentialSavings)
	assert.Equal(t, 300.0, *got[0].PotentialSavings)
	require.NotNil(t, got[0].Details)
	assert.Len(t, got[0].Details.Steps, 5)
}

func TestGenerate_EmptyInput(t *testing.T) {
	got := NewEngine().Generate(nil)

	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestGenerate_AllRulesInOrder(t *testing.T) {
	got := NewEngine().Generate([]domain.ExpenseEvent{
		spend("MongoDB Atlas", domain.CategoryInfrastructure, 1000),
		spend("Vercel", domain.CategoryHostingDevOps, 600),
		spend("AWS EC2", domain.CategoryInfrastructure, 1600),
		spend("OpenAI GPT-4", domain.CategoryAITokens, 2000),
		spend("Anthropic Claude", domain.CategoryAITokens, 1000),
	})

	require.Len(t, got, 4)
	expected := []struct {
		id      string
		savings float64
	}{
		{IDEnterpriseAIPlan, 750},
		{IDRightsizeEC2, 240},
		{IDSeatAllocation, 120},
		{IDDatabaseTier, 300},
	}
	for i, e := range expected {
		assert.Equal(t, e.id, got[i].ID)
		assert.Equal(t, e.savings, got[i].Savings())
	}
}

func TestRules_Thresholds(t *testing.T) {
	tests := []struct {
		name  string
		in    Input
		rule  int
		fires bool
	}{
		{
			name:  "AI spend at threshold",
			in:    Input{Categories: []domain.CategoryTotal{{Category: domain.CategoryAITokens, AmountUSD: 2500}}},
			rule:  0,
			fires: false,
		},
		{
			name:  "AI spend above threshold",
			in:    Input{Categories: []domain.CategoryTotal{{Category: domain.CategoryAITokens, AmountUSD: 2500.5}}},
			rule:  0,
			fires: true,
		},
		{
			name:  "EC2 at threshold",
			in:    Input{Services: []domain.ServiceTotal{{Service: "AWS EC2", AmountUSD: 1500}}},
			rule:  1,
			fires: false,
		},
		{
			name:  "service match is case sensitive",
			in:    Input{Services: []domain.ServiceTotal{{Service: "vercel", AmountUSD: 5000}}},
			rule:  2,
			fires: false,
		},
		{
			name:  "MongoDB Atlas above threshold",
			in:    Input{Services: []domain.ServiceTotal{{Service: "MongoDB Atlas", AmountUSD: 800.01}}},
			rule:  3,
			fires: true,
		},
	}

	rules := DefaultRules()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rules[tt.rule](tt.in)
			if tt.fires {
				assert.NotNil(t, got)
			} else {
				assert.Nil(t, got)
			}
		})
	}
}

func TestThreshold_DetailsAreCopied(t *testing.T) {
	rule := builtin[1].Rule()
	in := Input{Services: []domain.ServiceTotal{{Service: "AWS EC2", AmountUSD: 2000}}}

	first := rule(in)
	first.Details.Steps[0] = "changed"
	second := rule(in)

	assert.NotEqual(t, "changed", second.Details.Steps[0])
}

func TestNewEngine_CustomRules(t *testing.T) {
	always := func(Input) *domain.Recommendation {
		return &domain.Recommendation{ID: "custom"}
	}

	got := NewEngine(always).Generate(nil)

	require.Len(t, got, 1)
	assert.Equal(t, "custom", got[0].ID)
	assert.Nil(t, got[0].PotentialSavings)
}
