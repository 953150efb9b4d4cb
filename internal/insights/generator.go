package insights

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/dvloznov/spending-insights/internal/classify"
	"github.com/dvloznov/spending-insights/internal/domain"
	"github.com/dvloznov/spending-insights/internal/logger"
	"github.com/dvloznov/spending-insights/internal/store"
)

// NoTransactionsMessage is returned when a period holds no data. The state
// is retriable: the next invocation will try again.
const NoTransactionsMessage = "No transactions found for the specified week"

// maxConcurrentUsers bounds the all-users fan-out.
const maxConcurrentUsers = 4

// GenerateResult is the outcome of one generation attempt.
type GenerateResult struct {
	Success   bool            `json:"success"`
	Generated bool            `json:"generated"`
	Insight   *domain.Insight `json:"insight,omitempty"`
	Message   string          `json:"message"`
}

// Generator coordinates period-scoped transaction retrieval, idempotent
// insight generation, and persistence. It is the only component that creates
// or overwrites insights.
type Generator struct {
	transactions *store.TransactionStore
	insights     *store.InsightStore
	classifier   classify.Classifier
	log          zerolog.Logger
}

// NewGenerator creates an insight generator. The classifier is used to fill
// in categories for transactions that were stored unclassified.
func NewGenerator(transactions *store.TransactionStore, insights *store.InsightStore, classifier classify.Classifier, log zerolog.Logger) *Generator {
	return &Generator{
		transactions: transactions,
		insights:     insights,
		classifier:   classifier,
		log:          log,
	}
}

// Generate produces the insight for (userID, periodKey). Without
// forceRegenerate an existing insight is returned unchanged, with no
// recomputation and no write. An empty periodKey selects the current week.
//
// Store failures propagate to the caller; a period with no transactions is
// a non-error result that stays retriable.
func (g *Generator) Generate(ctx context.Context, userID, periodKey string, forceRegenerate bool) (*GenerateResult, error) {
	if userID == "" {
		return nil, fmt.Errorf("Generate: user ID is required")
	}
	if periodKey == "" {
		periodKey = domain.PeriodOf(time.Now().UTC())
	}

	log := logger.ForUser(g.log, userID, periodKey)

	if !forceRegenerate {
		existing, err := g.insights.GetInsight(ctx, userID, periodKey)
		if err == nil {
			log.Debug().Msg("Returning previously generated insight")
			return &GenerateResult{
				Success:   true,
				Generated: false,
				Insight:   existing,
				Message:   "Insight already generated for this period",
			}, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("Generate: checking for existing insight: %w", err)
		}
	}

	txs, err := g.transactions.ListByUserPeriod(ctx, userID, periodKey)
	if err != nil {
		return nil, fmt.Errorf("Generate: listing transactions: %w", err)
	}
	if len(txs) == 0 {
		log.Info().Msg("No transactions in period, skipping generation")
		return &GenerateResult{
			Success: false,
			Message: NoTransactionsMessage,
		}, nil
	}

	g.classifyUncategorized(ctx, txs)

	insight, err := g.buildInsight(userID, periodKey, txs)
	if err != nil {
		return nil, fmt.Errorf("Generate: %w", err)
	}

	if err := g.insights.PutInsight(ctx, insight); err != nil {
		return nil, fmt.Errorf("Generate: persisting insight: %w", err)
	}

	log.Info().
		Int("transactions", insight.TransactionCount).
		Int("recommendations", len(insight.Recommendations)).
		Float64("potential_savings", insight.PotentialSavings).
		Msg("Generated insight")

	return &GenerateResult{
		Success:   true,
		Generated: true,
		Insight:   insight,
		Message:   "Insight generated successfully",
	}, nil
}

// classifyUncategorized fills in categories for transactions stored without
// one. Classifier implementations substitute deterministic results on
// failure, so a non-nil error here means a broken classifier contract and is
// only logged.
func (g *Generator) classifyUncategorized(ctx context.Context, txs []*domain.Transaction) {
	for _, tx := range txs {
		if tx.Category != "" {
			continue
		}
		result, err := g.classifier.Classify(ctx, tx)
		if err != nil {
			g.log.Warn().Err(err).Str("transaction_id", tx.ID).Msg("Classifier returned error, leaving transaction uncategorized")
			continue
		}
		tx.Category = result.Category
		tx.Subcategory = result.Subcategory
		tx.Confidence = result.Confidence
		tx.IsRecurring = result.IsRecurring
		if tx.MerchantName == "" {
			tx.MerchantName = result.MerchantName
		}
	}
}

// buildInsight runs detection and synthesis over the period's transactions.
func (g *Generator) buildInsight(userID, periodKey string, txs []*domain.Transaction) (*domain.Insight, error) {
	start, end, err := domain.PeriodBounds(periodKey)
	if err != nil {
		return nil, err
	}

	aggregates := ComputeCategorySpending(txs)
	opportunities := DetectOpportunities(txs, aggregates)
	recommendations := SynthesizeRecommendations(opportunities, aggregates)

	var totalSpent float64
	for _, tx := range txs {
		if tx.TransactionType == domain.TransactionTypeDebit {
			totalSpent += tx.Amount
		}
	}

	var potentialSavings float64
	for _, rec := range recommendations {
		potentialSavings += rec.PotentialSavings
	}

	topCategories := aggregates
	if len(topCategories) > 5 {
		topCategories = topCategories[:5]
	}

	return &domain.Insight{
		ID:                 uuid.NewString(),
		UserID:             userID,
		PeriodKey:          periodKey,
		PeriodStart:        start,
		PeriodEnd:          end,
		TotalSpent:         totalSpent,
		TopCategories:      topCategories,
		Recommendations:    recommendations,
		PotentialSavings:   potentialSavings,
		ImplementedActions: []string{},
		GeneratedAt:        time.Now().UTC(),
		TransactionCount:   len(txs),
	}, nil
}

// MarkActionImplemented records that the user completed a recommendation.
// This is the one permitted post-creation mutation of an insight.
func (g *Generator) MarkActionImplemented(ctx context.Context, userID, periodKey, recommendationID string) (*domain.Insight, error) {
	if userID == "" || periodKey == "" || recommendationID == "" {
		return nil, fmt.Errorf("MarkActionImplemented: user ID, period key and recommendation ID are required")
	}

	insight, err := g.insights.GetInsight(ctx, userID, periodKey)
	if err != nil {
		return nil, fmt.Errorf("MarkActionImplemented: %w", err)
	}

	found := false
	for _, rec := range insight.Recommendations {
		if rec.ID == recommendationID {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("MarkActionImplemented: recommendation %s not in insight: %w", recommendationID, store.ErrValidation)
	}

	for _, done := range insight.ImplementedActions {
		if done == recommendationID {
			return insight, nil
		}
	}

	insight.ImplementedActions = append(insight.ImplementedActions, recommendationID)
	if err := g.insights.PutInsight(ctx, insight); err != nil {
		return nil, fmt.Errorf("MarkActionImplemented: persisting insight: %w", err)
	}
	return insight, nil
}

// GenerateForAllUsers fans generation out across every user with
// transactions in the period. Per-user failures are collected, not fatal to
// the other users.
func (g *Generator) GenerateForAllUsers(ctx context.Context, periodKey string, forceRegenerate bool) (int, error) {
	if periodKey == "" {
		periodKey = domain.PeriodOf(time.Now().UTC())
	}

	users, err := g.transactions.ListUsersInPeriod(ctx, periodKey)
	if err != nil {
		return 0, fmt.Errorf("GenerateForAllUsers: listing users: %w", err)
	}

	grp, grpCtx := errgroup.WithContext(ctx)
	grp.SetLimit(maxConcurrentUsers)

	generated := make(chan string, len(users))
	for _, userID := range users {
		grp.Go(func() error {
			result, err := g.Generate(grpCtx, userID, periodKey, forceRegenerate)
			if err != nil {
				return fmt.Errorf("user %s: %w", userID, err)
			}
			if result.Generated {
				generated <- userID
			}
			return nil
		})
	}

	err = grp.Wait()
	close(generated)

	count := 0
	for range generated {
		count++
	}
	if err != nil {
		return count, fmt.Errorf("GenerateForAllUsers: %w", err)
	}
	return count, nil
}
