package insights

import (
	"math"
	"testing"

	"github.com/dvloznov/spending-insights/internal/domain"
)

func debit(category string, amount float64) *domain.Transaction {
	return &domain.Transaction{
		Category:        category,
		Amount:          amount,
		TransactionType: domain.TransactionTypeDebit,
	}
}

func TestComputeCategorySpending(t *testing.T) {
	txs := []*domain.Transaction{
		debit("Dining", 40),
		debit("Dining", 60),
		debit("Groceries", 150),
		debit("", 50),
		{Category: "Income", Amount: 2500, TransactionType: domain.TransactionTypeCredit},
	}

	got := ComputeCategorySpending(txs)

	if len(got) != 3 {
		t.Fatalf("len = %d, want 3 (credits excluded): %+v", len(got), got)
	}

	// Sorted descending by total.
	if got[0].Category != "Groceries" || got[0].TotalAmount != 150 {
		t.Errorf("top category = %+v, want Groceries 150", got[0])
	}
	if got[1].Category != "Dining" || got[1].TotalAmount != 100 {
		t.Errorf("second category = %+v, want Dining 100", got[1])
	}
	if got[2].Category != "Other" || got[2].TotalAmount != 50 {
		t.Errorf("uncategorized bucket = %+v, want Other 50", got[2])
	}

	if got[1].TransactionCount != 2 || got[1].AverageAmount != 50 {
		t.Errorf("Dining count/avg = %d/%v, want 2/50", got[1].TransactionCount, got[1].AverageAmount)
	}

	var pctSum float64
	for _, agg := range got {
		pctSum += agg.PercentOfTotal
	}
	if math.Abs(pctSum-100) > 1e-9 {
		t.Errorf("PercentOfTotal sum = %v, want 100", pctSum)
	}
}

func TestComputeCategorySpendingEmpty(t *testing.T) {
	if got := ComputeCategorySpending(nil); len(got) != 0 {
		t.Errorf("len = %d, want 0", len(got))
	}

	// Credit-only input yields no spending aggregates.
	credits := []*domain.Transaction{
		{Category: "Income", Amount: 100, TransactionType: domain.TransactionTypeCredit},
	}
	if got := ComputeCategorySpending(credits); len(got) != 0 {
		t.Errorf("len = %d, want 0 for credit-only input", len(got))
	}
}

func TestComputeCategorySpendingTieBreak(t *testing.T) {
	txs := []*domain.Transaction{
		debit("Zeta", 50),
		debit("Alpha", 50),
	}

	got := ComputeCategorySpending(txs)
	if got[0].Category != "Alpha" || got[1].Category != "Zeta" {
		t.Errorf("equal totals should sort by name: %+v", got)
	}
}
