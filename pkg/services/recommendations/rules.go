package recommendations

import "github.com/de-tools/spend-atlas/pkg/models/domain"

const (
	IDEnterpriseAIPlan = "r1"
	IDRightsizeEC2     = "r2"
	IDSeatAllocation   = "r3"
	IDDatabaseTier     = "r4"
)

var builtin = []Threshold{
	{
		ID:          IDEnterpriseAIPlan,
		Category:    domain.CategoryAITokens,
		MinSpendUSD: 2500,
		SavingsRate: 0.25,
		Title:       "Switch to Enterprise AI Plan",
		Description: "Your AI token usage suggests an enterprise plan would be more cost-effective",
		Action:      "Compare Plans",
		Details: domain.RecommendationDetails{
			Impact: "Enterprise AI plans typically offer 20-30% cost savings at scale, plus priority support and dedicated infrastructure.",
			Steps: []string{
				"Review current token usage patterns and peak demand",
				"Compare enterprise pricing tiers from multiple providers",
				"Calculate ROI based on your usage projections",
				"Schedule a demo with sales team for custom pricing",
				"Plan migration timeline with minimal service disruption",
			},
			Timeline: "Implementation: 1-2 weeks after approval",
		},
	},
	{
		ID:          IDRightsizeEC2,
		Service:     "AWS EC2",
		MinSpendUSD: 1500,
		SavingsRate: 0.15,
		Title:       "Rightsize EC2 Instances",
		Description: "Analysis shows potential for instance optimization during off-peak hours",
		Action:      "View Instances",
		Details: domain.RecommendationDetails{
			Impact: "Right-sizing instances can reduce EC2 costs by 15-40% while maintaining performance.",
			Steps: []string{
				"Analyze CloudWatch metrics for CPU, memory, and network utilization",
				"Identify over-provisioned instances running below 40% capacity",
				"Test workload on smaller instance types in staging environment",
				"Implement auto-scaling for variable workloads",
				"Schedule instances to stop during non-business hours",
			},
			Timeline: "Quick wins within 1 week, full optimization in 2-3 weeks",
		},
	},
	{
		ID:          IDSeatAllocation,
		Service:     "Vercel",
		MinSpendUSD: 500,
		SavingsRate: 0.2,
		Title:       "Optimize Seat Allocation",
		Description: "Review active seat usage to ensure optimal team plan",
		Action:      "Review Seats",
		Details: domain.RecommendationDetails{
			Impact: "Unused or underutilized seats can cost $20-50/month each. Regular audits keep you paying only for active team members.",
			Steps: []string{
				"Review last login dates for all users across platforms",
				"Identify inactive accounts (no activity in 30+ days)",
				"Contact team leads to confirm who needs continued access",
				"Remove or downgrade unused seats",
				"Set up quarterly access reviews",
			},
			Timeline: "Can be completed within 2-3 days",
		},
	},
	{
		ID:          IDDatabaseTier,
		Service:     "MongoDB Atlas",
		MinSpendUSD: 800,
		SavingsRate: 0.3,
		Title:       "Database Tier Optimization",
		Description: "Consider reserved capacity for predictable workloads",
		Action:      "View Options",
		Details: domain.RecommendationDetails{
			Impact: "Reserved capacity offers 30-50% savings for predictable database workloads.",
			Steps: []string{
				"Analyze database utilization trends over the past 3 months",
				"Identify stable workloads suitable for reserved capacity",
				"Compare 1-year vs 3-year reserved pricing options",
				"Calculate break-even point for your usage patterns",
				"Purchase reserved capacity during next billing cycle",
			},
			Timeline: "Savings begin immediately after reservation purchase",
		},
	},
}
