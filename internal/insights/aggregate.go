// Package insights turns a period's classified transactions into a ranked,
// explainable set of money-saving recommendations bundled into an insight
// record.
package insights

import (
	"sort"

	"github.com/dvloznov/spending-insights/internal/domain"
)

// ComputeCategorySpending aggregates debit transactions by category.
// Results are sorted descending by total amount, and PercentOfTotal sums to
// 100 across all categories (within rounding).
func ComputeCategorySpending(txs []*domain.Transaction) []domain.CategorySpending {
	totals := make(map[string]*domain.CategorySpending)
	var grandTotal float64

	for _, tx := range txs {
		if tx.TransactionType != domain.TransactionTypeDebit {
			continue
		}
		category := tx.Category
		if category == "" {
			category = "Other"
		}

		agg, ok := totals[category]
		if !ok {
			agg = &domain.CategorySpending{Category: category}
			totals[category] = agg
		}
		agg.TotalAmount += tx.Amount
		agg.TransactionCount++
		grandTotal += tx.Amount
	}

	result := make([]domain.CategorySpending, 0, len(totals))
	for _, agg := range totals {
		agg.AverageAmount = agg.TotalAmount / float64(agg.TransactionCount)
		if grandTotal > 0 {
			agg.PercentOfTotal = agg.TotalAmount / grandTotal * 100
		}
		result = append(result, *agg)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].TotalAmount != result[j].TotalAmount {
			return result[i].TotalAmount > result[j].TotalAmount
		}
		return result[i].Category < result[j].Category
	})
	return result
}
