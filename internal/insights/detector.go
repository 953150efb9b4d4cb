package insights

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/dvloznov/spending-insights/internal/domain"
)

// Savings formulas and thresholds. The period figure is treated as weekly
// when annualizing overspend.
const (
	// OverspendThreshold is the per-category period total above which a
	// category counts as overspent.
	OverspendThreshold = 200.0

	monthsPerYear = 12
	weeksPerYear  = 52

	overspendReduction  = 0.20
	duplicateKeyDescLen = 20
)

var subscriptionKeywords = []string{
	"subscription", "netflix", "spotify", "hulu", "disney", "pandora", "apple music", "monthly",
}

var feeKeywords = []string{
	"fee", "fees", "charge", "overdraft", "penalty", "interest",
}

// DetectOpportunities scans the period's transactions and category
// aggregates for the four avoidable-cost signals. Each signal is computed
// independently over the full set; results are sorted descending by
// potential savings.
func DetectOpportunities(txs []*domain.Transaction, aggregates []domain.CategorySpending) []*domain.Opportunity {
	var opportunities []*domain.Opportunity

	opportunities = append(opportunities, detectSubscriptions(txs)...)
	opportunities = append(opportunities, detectFees(txs)...)
	opportunities = append(opportunities, detectOverspending(aggregates)...)
	if dup := detectDuplicates(txs); dup != nil {
		opportunities = append(opportunities, dup)
	}

	sort.SliceStable(opportunities, func(i, j int) bool {
		return opportunities[i].PotentialSavings > opportunities[j].PotentialSavings
	})
	return opportunities
}

// detectSubscriptions flags recurring transactions whose description matches
// subscription vocabulary. Savings assume the monthly amount recurs all year.
func detectSubscriptions(txs []*domain.Transaction) []*domain.Opportunity {
	var result []*domain.Opportunity
	for _, tx := range txs {
		if !tx.IsRecurring {
			continue
		}
		lower := strings.ToLower(tx.Description)
		if !containsAny(lower, subscriptionKeywords) {
			continue
		}

		annual := tx.Amount * monthsPerYear
		result = append(result, &domain.Opportunity{
			Type:             domain.OpportunitySubscription,
			Description:      fmt.Sprintf("Recurring subscription: %s", tx.MerchantName),
			PotentialSavings: annual,
			Difficulty:       domain.DifficultyEasy,
			Category:         tx.Category,
			Transactions:     []*domain.Transaction{tx},
			Reasoning: fmt.Sprintf("A recurring charge of $%.2f at %s adds up to $%.2f per year if left in place.",
				tx.Amount, tx.MerchantName, annual),
		})
	}
	return result
}

// detectFees flags transactions whose category or description matches fee
// vocabulary. Keywords match whole words only, so "coffee" never matches
// "fee". Savings assume the fee recurs monthly regardless of its actual
// frequency.
func detectFees(txs []*domain.Transaction) []*domain.Opportunity {
	var result []*domain.Opportunity
	for _, tx := range txs {
		categoryLower := strings.ToLower(tx.Category)
		descriptionLower := strings.ToLower(tx.Description)
		if !containsAnyWord(categoryLower, feeKeywords) && !containsAnyWord(descriptionLower, feeKeywords) {
			continue
		}

		annual := tx.Amount * monthsPerYear
		result = append(result, &domain.Opportunity{
			Type:             domain.OpportunityFee,
			Description:      fmt.Sprintf("Avoidable fee: %s", tx.Description),
			PotentialSavings: annual,
			Difficulty:       domain.DifficultyMedium,
			Category:         tx.Category,
			Transactions:     []*domain.Transaction{tx},
			Reasoning: fmt.Sprintf("A $%.2f fee paid monthly costs $%.2f per year. Most bank fees can be avoided or waived.",
				tx.Amount, annual),
		})
	}
	return result
}

// detectOverspending flags categories whose period total exceeds the fixed
// threshold. A 20% reduction is annualized as if the period figure recurs
// weekly.
func detectOverspending(aggregates []domain.CategorySpending) []*domain.Opportunity {
	var result []*domain.Opportunity
	for _, agg := range aggregates {
		if agg.TotalAmount <= OverspendThreshold {
			continue
		}

		annual := overspendReduction * agg.TotalAmount * weeksPerYear
		result = append(result, &domain.Opportunity{
			Type:             domain.OpportunityCategoryOverspend,
			Description:      fmt.Sprintf("High spending in %s", agg.Category),
			PotentialSavings: annual,
			Difficulty:       domain.DifficultyMedium,
			Category:         agg.Category,
			Reasoning: fmt.Sprintf("You spent $%.2f on %s this period. Cutting 20%% would save $%.2f over a year.",
				agg.TotalAmount, agg.Category, annual),
		})
	}
	return result
}

// detectDuplicates flags every transaction beyond the first occurrence of an
// identical (amount, date, first 20 chars of description) key. All flagged
// duplicates roll up into a single opportunity.
func detectDuplicates(txs []*domain.Transaction) *domain.Opportunity {
	seen := make(map[string]bool)
	var flagged []*domain.Transaction
	var total float64

	for _, tx := range txs {
		key := duplicateKey(tx)
		if seen[key] {
			flagged = append(flagged, tx)
			total += tx.Amount
			continue
		}
		seen[key] = true
	}

	if len(flagged) == 0 {
		return nil
	}

	return &domain.Opportunity{
		Type:             domain.OpportunityDuplicate,
		Description:      fmt.Sprintf("%d possible duplicate charges", len(flagged)),
		PotentialSavings: total,
		Difficulty:       domain.DifficultyEasy,
		Transactions:     flagged,
		Reasoning: fmt.Sprintf("Found %d transactions with identical amount, date, and description totaling $%.2f. These may be duplicate charges worth disputing.",
			len(flagged), total),
	}
}

func duplicateKey(tx *domain.Transaction) string {
	desc := tx.Description
	if len(desc) > duplicateKeyDescLen {
		desc = desc[:duplicateKeyDescLen]
	}
	return fmt.Sprintf("%.2f|%s|%s", tx.Amount, tx.Date.Format("2006-01-02"), desc)
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// containsAnyWord matches keywords against whole words, split on anything
// that is not a letter.
func containsAnyWord(s string, keywords []string) bool {
	words := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	for _, w := range words {
		for _, kw := range keywords {
			if w == kw {
				return true
			}
		}
	}
	return false
}
