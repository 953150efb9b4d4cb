package classify

import (
	"context"
	"testing"

	"github.com/dvloznov/spending-insights/internal/domain"
)

func TestRuleClassifierCategories(t *testing.T) {
	tests := []struct {
		name            string
		description     string
		wantCategory    string
		wantSubcategory string
		wantConfidence  float64
	}{
		{"groceries", "WHOLE FOODS MARKET #123", "Groceries", "Supermarket", 0.70},
		{"transportation", "SHELL OIL 5551234", "Transportation", "Fuel", 0.70},
		{"dining", "STARBUCKS COFFEE SEATTLE", "Dining", "Restaurants", 0.70},
		{"entertainment", "NETFLIX.COM", "Entertainment", "Subscriptions", 0.70},
		{"shopping", "AMAZON MKTPLACE", "Shopping", "", 0.70},
		{"utilities", "COMCAST CABLE", "Utilities", "", 0.70},
		{"fees", "OVERDRAFT ITEM", "Fees", "Bank Fees", 0.70},
		{"no match", "ACME WIDGETS LLC", "Other", "", 0.50},
	}

	c := NewRuleClassifier()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Classify(context.Background(), &domain.Transaction{Description: tt.description})
			if err != nil {
				t.Fatalf("Classify: %v", err)
			}
			if got.Category != tt.wantCategory {
				t.Errorf("Category = %q, want %q", got.Category, tt.wantCategory)
			}
			if got.Subcategory != tt.wantSubcategory {
				t.Errorf("Subcategory = %q, want %q", got.Subcategory, tt.wantSubcategory)
			}
			if got.Confidence != tt.wantConfidence {
				t.Errorf("Confidence = %v, want %v", got.Confidence, tt.wantConfidence)
			}
			if got.Reasoning == "" {
				t.Error("expected non-empty reasoning")
			}
		})
	}
}

func TestRuleClassifierFeeKeywordsMatchWholeWords(t *testing.T) {
	tests := []struct {
		name        string
		description string
		want        string
	}{
		{"toffee is not a fee", "TOFFEE SHOP DOWNTOWN", "Other"},
		{"pinterest is not interest", "PINTEREST ADS 1234", "Other"},
		{"bare fee word", "RETURNED ITEM FEE", "Fees"},
		{"service charge phrase", "MONTHLY SERVICE CHARGE", "Fees"},
	}

	c := NewRuleClassifier()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Classify(context.Background(), &domain.Transaction{Description: tt.description})
			if err != nil {
				t.Fatalf("Classify: %v", err)
			}
			if got.Category != tt.want {
				t.Errorf("Category = %q, want %q", got.Category, tt.want)
			}
		})
	}
}

func TestRuleClassifierRecurring(t *testing.T) {
	tests := []struct {
		description string
		want        bool
	}{
		{"NETFLIX.COM", true},
		{"SPOTIFY PREMIUM", true},
		{"GOLD'S GYM MEMBERSHIP", true},
		{"MONTHLY STORAGE RENTAL", true},
		{"WHOLE FOODS MARKET", false},
		{"ATM WITHDRAWAL", false},
	}

	c := NewRuleClassifier()
	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			got, err := c.Classify(context.Background(), &domain.Transaction{Description: tt.description})
			if err != nil {
				t.Fatalf("Classify: %v", err)
			}
			if got.IsRecurring != tt.want {
				t.Errorf("IsRecurring = %v, want %v", got.IsRecurring, tt.want)
			}
		})
	}
}

func TestRuleClassifierMerchantName(t *testing.T) {
	c := NewRuleClassifier()

	// An already-extracted merchant name is kept.
	got, err := c.Classify(context.Background(), &domain.Transaction{
		Description:  "POS DEBIT STARBUCKS",
		MerchantName: "STARBUCKS",
	})
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if got.MerchantName != "STARBUCKS" {
		t.Errorf("MerchantName = %q, want STARBUCKS", got.MerchantName)
	}

	// Otherwise it is derived from the description.
	got, err = c.Classify(context.Background(), &domain.Transaction{Description: "ACH NETFLIX.COM"})
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if got.MerchantName != "NETFLIX.COM" {
		t.Errorf("MerchantName = %q, want NETFLIX.COM", got.MerchantName)
	}
}

func TestKnownCategories(t *testing.T) {
	known := KnownCategories()

	want := []string{"Groceries", "Transportation", "Dining", "Entertainment", "Shopping", "Utilities", "Fees", "Other"}
	if len(known) != len(want) {
		t.Fatalf("KnownCategories len = %d, want %d: %v", len(known), len(want), known)
	}
	for i, name := range want {
		if known[i] != name {
			t.Errorf("KnownCategories[%d] = %q, want %q", i, known[i], name)
		}
	}
}
