package insights

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/dvloznov/spending-insights/internal/domain"
)

// Synthesis constants.
const (
	// maxOpportunities caps how many opportunities become recommendations,
	// bounding cognitive load on the end user.
	maxOpportunities = 5

	// topCategoryThreshold triggers the extra budget recommendation for the
	// single highest-spending category.
	topCategoryThreshold = 100.0
	topCategoryReduction = 0.15
	topCategoryPriority  = 3
)

// Impact buckets derived purely from potential savings magnitude.
const (
	impactMediumFloor = 100.0
	impactHighFloor   = 500.0
)

// recommendationTraits are fixed per opportunity type, not computed from data.
type recommendationTraits struct {
	recType       domain.RecommendationType
	difficulty    domain.Difficulty
	confidence    float64
	estimatedTime string
	actionSteps   []string
}

var traitsByOpportunity = map[domain.OpportunityType]recommendationTraits{
	domain.OpportunitySubscription: {
		recType:       domain.RecommendationEliminateFee,
		difficulty:    domain.DifficultyEasy,
		confidence:    0.90,
		estimatedTime: "5 minutes",
		actionSteps: []string{
			"Review the subscription and decide whether you still use it regularly",
			"Log in to the provider's website and open the account settings page",
			"Cancel the subscription or downgrade to a cheaper plan",
		},
	},
	domain.OpportunityFee: {
		recType:       domain.RecommendationEliminateFee,
		difficulty:    domain.DifficultyMedium,
		confidence:    0.80,
		estimatedTime: "15 minutes",
		actionSteps: []string{
			"Call your bank and ask for the fee to be waived or refunded",
			"Ask about account types or balance minimums that avoid this fee",
			"Set up a low-balance alert so the fee does not recur",
		},
	},
	domain.OpportunityCategoryOverspend: {
		recType:       domain.RecommendationOptimize,
		difficulty:    domain.DifficultyMedium,
		confidence:    0.70,
		estimatedTime: "1 hour",
		actionSteps: []string{
			"Review every transaction in this category from the past month",
			"Identify the purchases you could reduce or replace with cheaper options",
			"Set a weekly spending limit for this category and track it",
		},
	},
	domain.OpportunityDuplicate: {
		recType:       domain.RecommendationSave,
		difficulty:    domain.DifficultyEasy,
		confidence:    0.95,
		estimatedTime: "10 minutes",
		actionSteps: []string{
			"Compare the flagged transactions against your receipts or order history",
			"Contact the merchant or your bank to dispute confirmed duplicates",
		},
	},
}

// SynthesizeRecommendations turns detected opportunities into a bounded,
// prioritized recommendation list, sorted descending by priority. The
// highest-saving opportunity receives the highest priority integer.
func SynthesizeRecommendations(opportunities []*domain.Opportunity, aggregates []domain.CategorySpending) []*domain.Recommendation {
	selected := opportunities
	if len(selected) > maxOpportunities {
		selected = selected[:maxOpportunities]
	}

	recommendations := make([]*domain.Recommendation, 0, len(selected)+1)
	for i, opp := range selected {
		traits := traitsByOpportunity[opp.Type]
		recommendations = append(recommendations, &domain.Recommendation{
			ID:                       uuid.NewString(),
			Type:                     traits.recType,
			Title:                    opp.Description,
			Description:              opp.Reasoning,
			PotentialSavings:         opp.PotentialSavings,
			Difficulty:               traits.difficulty,
			Priority:                 len(selected) - i,
			ActionSteps:              traits.actionSteps,
			Reasoning:                opp.Reasoning,
			Category:                 opp.Category,
			Confidence:               traits.confidence,
			EstimatedTimeToImplement: traits.estimatedTime,
			Impact:                   impactFor(opp.PotentialSavings),
		})
	}

	if extra := topCategoryRecommendation(aggregates); extra != nil {
		recommendations = append(recommendations, extra)
	}

	sort.SliceStable(recommendations, func(i, j int) bool {
		return recommendations[i].Priority > recommendations[j].Priority
	})
	return recommendations
}

// topCategoryRecommendation fires whenever the highest-spending category's
// period total exceeds the fixed threshold, independently of whether that
// category already produced an opportunity.
func topCategoryRecommendation(aggregates []domain.CategorySpending) *domain.Recommendation {
	if len(aggregates) == 0 {
		return nil
	}

	top := aggregates[0]
	if top.TotalAmount <= topCategoryThreshold {
		return nil
	}

	savings := topCategoryReduction * top.TotalAmount * weeksPerYear
	weeklyBudget := top.TotalAmount * (1 - topCategoryReduction)

	return &domain.Recommendation{
		ID:               uuid.NewString(),
		Type:             domain.RecommendationOptimize,
		Title:            fmt.Sprintf("Set a weekly budget for %s", top.Category),
		Description: fmt.Sprintf("%s is your highest spending category at $%.2f this period. A 15%% reduction would save $%.2f per year.",
			top.Category, top.TotalAmount, savings),
		PotentialSavings: savings,
		Difficulty:       domain.DifficultyEasy,
		Priority:         topCategoryPriority,
		ActionSteps: []string{
			fmt.Sprintf("Set a weekly budget of $%.2f for %s", weeklyBudget, top.Category),
			"Track your spending against the budget at the end of each week",
		},
		Reasoning: fmt.Sprintf("Your top category %s totaled $%.2f this period, above the $%.0f budget trigger.",
			top.Category, top.TotalAmount, topCategoryThreshold),
		Category:                 top.Category,
		Confidence:               0.8,
		EstimatedTimeToImplement: "30 minutes",
		Impact:                   impactFor(savings),
	}
}

// impactFor buckets a recommendation by savings magnitude.
func impactFor(potentialSavings float64) domain.Impact {
	switch {
	case potentialSavings < impactMediumFloor:
		return domain.ImpactLow
	case potentialSavings < impactHighFloor:
		return domain.ImpactMedium
	default:
		return domain.ImpactHigh
	}
}
