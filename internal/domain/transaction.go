package domain

import (
	"time"
)

// TransactionType distinguishes money leaving an account from money entering it.
type TransactionType string

const (
	// TransactionTypeDebit is money out (purchases, fees, withdrawals).
	TransactionTypeDebit TransactionType = "debit"
	// TransactionTypeCredit is money in (deposits, refunds, payroll).
	TransactionTypeCredit TransactionType = "credit"
)

// Transaction is one classified, sanitized transaction ready to be stored.
// Amount is always non-negative; TransactionType carries the direction.
// Description has been through PII redaction; OriginalDescription keeps the
// verbatim statement text for audit.
type Transaction struct {
	ID                  string          `json:"id"`
	UserID              string          `json:"userId"`
	Amount              float64         `json:"amount"`
	Description         string          `json:"description"`
	OriginalDescription string          `json:"originalDescription"`
	Category            string          `json:"category"`
	Subcategory         string          `json:"subcategory,omitempty"`
	Date                time.Time       `json:"date"`
	Account             string          `json:"account"`
	IsRecurring         bool            `json:"isRecurring"`
	Confidence          float64         `json:"confidence"`
	MerchantName        string          `json:"merchantName"`
	TransactionType     TransactionType `json:"transactionType"`
}

// CategorySpending is a per-category aggregate over one period. It is derived
// from the period's transactions and never persisted on its own.
type CategorySpending struct {
	Category         string  `json:"category"`
	TotalAmount      float64 `json:"totalAmount"`
	TransactionCount int     `json:"transactionCount"`
	AverageAmount    float64 `json:"averageAmount"`
	PercentOfTotal   float64 `json:"percentOfTotal"`
}
