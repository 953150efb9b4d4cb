package domain

import (
	"time"
)

// OpportunityType identifies the signal that produced a savings opportunity.
type OpportunityType string

const (
	OpportunitySubscription      OpportunityType = "subscription"
	OpportunityFee               OpportunityType = "fee"
	OpportunityCategoryOverspend OpportunityType = "category_overspend"
	OpportunityDuplicate         OpportunityType = "duplicate"
)

// Difficulty estimates how hard a recommendation is to act on.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Opportunity is a detected avoidable or reducible cost. Opportunities are
// transient: they exist between detection and recommendation synthesis and
// are never persisted.
type Opportunity struct {
	Type             OpportunityType `json:"type"`
	Description      string          `json:"description"`
	PotentialSavings float64         `json:"potentialSavings"`
	Difficulty       Difficulty      `json:"difficulty"`
	Category         string          `json:"category,omitempty"`
	Transactions     []*Transaction  `json:"transactions"`
	Reasoning        string          `json:"reasoning"`
}

// RecommendationType classifies the action a recommendation asks for.
type RecommendationType string

const (
	RecommendationSave         RecommendationType = "save"
	RecommendationInvest       RecommendationType = "invest"
	RecommendationEliminateFee RecommendationType = "eliminate_fee"
	RecommendationOptimize     RecommendationType = "optimize"
)

// Impact buckets a recommendation by the size of its potential savings.
type Impact string

const (
	ImpactLow    Impact = "low"
	ImpactMedium Impact = "medium"
	ImpactHigh   Impact = "high"
)

// Recommendation is a prioritized, user-facing actionable suggestion.
// Higher Priority means more urgent.
type Recommendation struct {
	ID                       string             `json:"id"`
	Type                     RecommendationType `json:"type"`
	Title                    string             `json:"title"`
	Description              string             `json:"description"`
	PotentialSavings         float64            `json:"potentialSavings"`
	Difficulty               Difficulty         `json:"difficulty"`
	Priority                 int                `json:"priority"`
	ActionSteps              []string           `json:"actionSteps"`
	Reasoning                string             `json:"reasoning"`
	Category                 string             `json:"category,omitempty"`
	Confidence               float64            `json:"confidence"`
	EstimatedTimeToImplement string             `json:"estimatedTimeToImplement"`
	Impact                   Impact             `json:"impact"`
}

// Insight is the periodic analysis record for one user and one period.
// The generator is the only component that creates or overwrites insights;
// ImplementedActions is the one field mutated after creation.
type Insight struct {
	ID                 string             `json:"id"`
	UserID             string             `json:"userId"`
	PeriodKey          string             `json:"periodKey"`
	PeriodStart        time.Time          `json:"periodStart"`
	PeriodEnd          time.Time          `json:"periodEnd"`
	TotalSpent         float64            `json:"totalSpent"`
	TopCategories      []CategorySpending `json:"topCategories"`
	Recommendations    []*Recommendation  `json:"recommendations"`
	PotentialSavings   float64            `json:"potentialSavings"`
	ImplementedActions []string           `json:"implementedActions"`
	GeneratedAt        time.Time          `json:"generatedAt"`
	TransactionCount   int                `json:"transactionCount"`
}
