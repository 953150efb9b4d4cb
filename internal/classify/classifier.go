// Package classify assigns a category, recurrence flag, and confidence to
// parsed transactions. The rule-based classifier is always available and
// fully self-sufficient; an optional Gemini-backed classifier may run first
// but silently falls back to the rules on any failure.
package classify

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/dvloznov/spending-insights/internal/domain"
)

// Classification is the result of classifying one transaction.
type Classification struct {
	Category     string  `json:"category"`
	Subcategory  string  `json:"subcategory,omitempty"`
	Confidence   float64 `json:"confidence"`
	IsRecurring  bool    `json:"isRecurring"`
	MerchantName string  `json:"merchantName"`
	Reasoning    string  `json:"reasoning"`
}

// Classifier assigns a classification to a transaction. Implementations must
// not leak upstream failures: a classifier either succeeds or substitutes a
// deterministic result.
type Classifier interface {
	Classify(ctx context.Context, tx *domain.Transaction) (*Classification, error)
}

// Fixed confidence values for the rule-based classifier.
const (
	keywordConfidence = 0.70
	defaultConfidence = 0.50
)

// CategoryOther is assigned when no keyword rule matches.
const CategoryOther = "Other"

// categoryRule couples a category with the lower-cased keywords that select it.
// Rules are evaluated in order; the first keyword hit wins. wholeWord rules
// match keywords only as complete words, so "toffee" never matches "fee".
type categoryRule struct {
	category    string
	subcategory string
	keywords    []string
	wholeWord   bool
}

var rules = []categoryRule{
	{"Groceries", "Supermarket", []string{"grocery", "groceries", "supermarket", "whole foods", "trader joe", "kroger", "safeway", "aldi", "costco"}, false},
	{"Transportation", "Fuel", []string{"gas", "fuel", "shell", "chevron", "exxon", "uber", "lyft", "parking", "transit", "toll"}, false},
	{"Dining", "Restaurants", []string{"restaurant", "cafe", "coffee", "starbucks", "mcdonald", "pizza", "doordash", "grubhub", "diner", "bar & grill"}, false},
	{"Entertainment", "Subscriptions", []string{"netflix", "spotify", "hulu", "disney", "subscription", "movie", "cinema", "game", "steam"}, false},
	{"Shopping", "", []string{"amazon", "target", "walmart", "store", "mall", "outlet"}, false},
	{"Utilities", "", []string{"electric", "water", "internet", "utility", "utilities", "comcast", "verizon", "at&t", "phone bill"}, false},
	{"Fees", "Bank Fees", []string{"fee", "fees", "charge", "overdraft", "interest", "penalty", "service charge"}, true},
}

var recurringKeywords = []string{
	"subscription", "monthly", "membership", "netflix", "spotify", "hulu", "disney", "gym",
}

// RuleClassifier is the mandatory deterministic classifier. It has no
// external dependencies and never fails.
type RuleClassifier struct{}

// NewRuleClassifier creates the deterministic keyword classifier.
func NewRuleClassifier() *RuleClassifier {
	return &RuleClassifier{}
}

// Classify inspects the lower-cased description for category keywords.
func (c *RuleClassifier) Classify(ctx context.Context, tx *domain.Transaction) (*Classification, error) {
	lower := strings.ToLower(tx.Description)

	result := &Classification{
		Category:     CategoryOther,
		Confidence:   defaultConfidence,
		IsRecurring:  isRecurring(lower),
		MerchantName: merchantName(tx),
		Reasoning:    "no category keywords matched; assigned default category",
	}

	for _, rule := range rules {
		for _, kw := range rule.keywords {
			if matchesKeyword(lower, kw, rule.wholeWord) {
				result.Category = rule.category
				result.Subcategory = rule.subcategory
				result.Confidence = keywordConfidence
				result.Reasoning = fmt.Sprintf("description matched keyword %q for category %s", kw, rule.category)
				return result, nil
			}
		}
	}

	return result, nil
}

// matchesKeyword checks a single keyword against a lower-cased description.
// Multi-word keywords fall back to a substring match even in whole-word mode
// since word splitting cannot represent them.
func matchesKeyword(lower, keyword string, wholeWord bool) bool {
	if !wholeWord || strings.Contains(keyword, " ") {
		return strings.Contains(lower, keyword)
	}
	for _, w := range strings.FieldsFunc(lower, func(r rune) bool { return !unicode.IsLetter(r) }) {
		if w == keyword {
			return true
		}
	}
	return false
}

func isRecurring(lowerDescription string) bool {
	for _, kw := range recurringKeywords {
		if strings.Contains(lowerDescription, kw) {
			return true
		}
	}
	return false
}

func merchantName(tx *domain.Transaction) string {
	if tx.MerchantName != "" {
		return tx.MerchantName
	}
	return ExtractMerchantName(tx.Description)
}

// KnownCategories returns the category names the rule taxonomy can produce,
// including the default. Used to validate AI-produced categories.
func KnownCategories() []string {
	names := make([]string, 0, len(rules)+1)
	for _, rule := range rules {
		names = append(names, rule.category)
	}
	return append(names, CategoryOther)
}

// Ensure RuleClassifier implements the Classifier interface.
var _ Classifier = (*RuleClassifier)(nil)
