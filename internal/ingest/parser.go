// Package ingest turns raw delimited statement text into classified,
// sanitized transactions and persists them.
package ingest

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dvloznov/spending-insights/internal/classify"
	"github.com/dvloznov/spending-insights/internal/domain"
	"github.com/dvloznov/spending-insights/internal/pii"
)

// ParseResult is the outcome of parsing one CSV document. TotalRows counts
// data rows (header excluded); a malformed row is reported in Errors and
// excluded from Transactions without aborting the rest of the batch.
type ParseResult struct {
	Transactions   []*domain.Transaction `json:"transactions"`
	Errors         []RowError            `json:"errors"`
	TotalRows      int                   `json:"totalRows"`
	SuccessfulRows int                   `json:"successfulRows"`
}

// columnMap holds resolved header column indexes. -1 means the column is
// absent.
type columnMap struct {
	date        int
	description int
	amount      int
	account     int
	category    int
	txType      int
}

// headerSynonyms maps each logical column to the substrings that identify it,
// matched case-insensitively against header cells.
var headerSynonyms = map[string][]string{
	"date":        {"date"},
	"description": {"description", "memo"},
	"amount":      {"amount", "debit", "credit"},
	"account":     {"account"},
	"category":    {"category"},
	"type":        {"type"},
}

// Parse converts raw CSV content into per-row-validated transactions for the
// given user. Parsing aborts with a single error only for an empty input or
// an unresolvable header; every other failure is row-local.
func Parse(content, userID string) *ParseResult {
	result := &ParseResult{
		Transactions: []*domain.Transaction{},
		Errors:       []RowError{},
	}

	lines := splitLines(content)
	if len(lines) == 0 {
		result.Errors = append(result.Errors, RowError{
			Row:      0,
			Error:    "CSV content is empty",
			Severity: SeverityError,
		})
		return result
	}

	header := tokenizeLine(lines[0])
	cols, missing := resolveHeaders(header)
	if len(missing) > 0 {
		result.Errors = append(result.Errors, RowError{
			Row:      1,
			Value:    lines[0],
			Error:    fmt.Sprintf("could not resolve required columns: %s", strings.Join(missing, ", ")),
			Severity: SeverityError,
		})
		return result
	}

	for i, line := range lines[1:] {
		lineNo := i + 2 // header is line 1
		if strings.TrimSpace(line) == "" {
			continue
		}
		result.TotalRows++

		tx, rowErr := parseRow(line, lineNo, cols, userID)
		if rowErr != nil {
			result.Errors = append(result.Errors, *rowErr)
			continue
		}
		result.Transactions = append(result.Transactions, tx)
		result.SuccessfulRows++
	}

	return result
}

// parseRow validates and converts one data row. A failure in any required
// field produces a RowError naming the row, field, and offending value.
func parseRow(line string, lineNo int, cols columnMap, userID string) (*domain.Transaction, *RowError) {
	fields := tokenizeLine(line)

	field := func(idx int) string {
		if idx < 0 || idx >= len(fields) {
			return ""
		}
		return strings.TrimSpace(fields[idx])
	}

	dateStr := field(cols.date)
	if dateStr == "" {
		return nil, &RowError{Row: lineNo, Field: "date", Error: "missing date value", Severity: SeverityError}
	}
	date, err := parseDate(dateStr)
	if err != nil {
		return nil, &RowError{Row: lineNo, Field: "date", Value: dateStr, Error: err.Error(), Severity: SeverityError}
	}

	description := field(cols.description)
	if description == "" {
		return nil, &RowError{Row: lineNo, Field: "description", Error: "missing description value", Severity: SeverityError}
	}

	amountStr := field(cols.amount)
	if amountStr == "" {
		return nil, &RowError{Row: lineNo, Field: "amount", Error: "missing amount value", Severity: SeverityError}
	}
	amount, err := parseAmount(amountStr)
	if err != nil {
		return nil, &RowError{Row: lineNo, Field: "amount", Value: amountStr, Error: err.Error(), Severity: SeverityError}
	}

	account := field(cols.account)
	if account == "" {
		account = "unknown"
	}

	txType := inferTransactionType(field(cols.txType), amount)

	sanitized := pii.Sanitize(description)

	return &domain.Transaction{
		ID:                  uuid.NewString(),
		UserID:              userID,
		Amount:              math.Abs(amount),
		Description:         sanitized.RedactedText,
		OriginalDescription: description,
		Category:            field(cols.category),
		Date:                date,
		Account:             account,
		MerchantName:        classify.ExtractMerchantName(description),
		TransactionType:     txType,
	}, nil
}

// resolveHeaders maps header cells to logical columns by case-insensitive
// substring match. Returns the names of required columns that could not be
// resolved.
func resolveHeaders(header []string) (columnMap, []string) {
	cols := columnMap{date: -1, description: -1, amount: -1, account: -1, category: -1, txType: -1}

	find := func(logical string) int {
		for i, cell := range header {
			lower := strings.ToLower(strings.TrimSpace(cell))
			for _, syn := range headerSynonyms[logical] {
				if strings.Contains(lower, syn) {
					return i
				}
			}
		}
		return -1
	}

	cols.date = find("date")
	cols.description = find("description")
	cols.amount = find("amount")
	cols.account = find("account")
	cols.category = find("category")
	cols.txType = find("type")

	var missing []string
	if cols.date == -1 {
		missing = append(missing, "date")
	}
	if cols.description == -1 {
		missing = append(missing, "description")
	}
	if cols.amount == -1 {
		missing = append(missing, "amount")
	}
	return cols, missing
}

// tokenizeLine splits one CSV line, honoring quoted fields, escaped quotes
// ("") and commas inside quotes.
func tokenizeLine(line string) []string {
	var fields []string
	var current strings.Builder
	inQuotes := false

	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '"':
			if inQuotes && i+1 < len(line) && line[i+1] == '"' {
				current.WriteByte('"')
				i++
			} else {
				inQuotes = !inQuotes
			}
		case c == ',' && !inQuotes:
			fields = append(fields, current.String())
			current.Reset()
		default:
			current.WriteByte(c)
		}
	}
	fields = append(fields, current.String())
	return fields
}

func splitLines(content string) []string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil
	}
	return strings.Split(strings.ReplaceAll(trimmed, "\r\n", "\n"), "\n")
}

// parseDate accepts MM/DD/YYYY, M/D/YYYY and YYYY-MM-DD. For slash-delimited
// dates a 4-digit third segment means the first segment is the month.
func parseDate(s string) (time.Time, error) {
	if strings.Contains(s, "-") {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return time.Time{}, fmt.Errorf("unparseable date %q, expected YYYY-MM-DD", s)
		}
		return t, nil
	}

	if strings.Contains(s, "/") {
		parts := strings.Split(s, "/")
		if len(parts) == 3 && len(parts[2]) == 4 {
			t, err := time.Parse("1/2/2006", s)
			if err != nil {
				return time.Time{}, fmt.Errorf("unparseable date %q, expected MM/DD/YYYY", s)
			}
			return t, nil
		}
		return time.Time{}, fmt.Errorf("unparseable date %q, expected a 4-digit year", s)
	}

	return time.Time{}, fmt.Errorf("unparseable date %q", s)
}

// parseAmount strips currency symbols, commas, and whitespace before parsing.
// A leading minus sign is accepted; malformed numerics are rejected.
func parseAmount(s string) (float64, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '$', '£', '€', ',', ' ', '\t':
			return -1
		}
		return r
	}, s)

	if cleaned == "" {
		return 0, fmt.Errorf("unparseable amount %q", s)
	}

	amount, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable amount %q", s)
	}
	return amount, nil
}

// inferTransactionType applies an explicit type hint when present, otherwise
// falls back to the sign of the parsed amount.
func inferTransactionType(hint string, amount float64) domain.TransactionType {
	if hint != "" {
		lower := strings.ToLower(hint)
		if strings.Contains(lower, "credit") || strings.Contains(lower, "deposit") {
			return domain.TransactionTypeCredit
		}
		if strings.Contains(lower, "debit") || strings.Contains(lower, "withdrawal") {
			return domain.TransactionTypeDebit
		}
	}
	if amount < 0 {
		return domain.TransactionTypeDebit
	}
	return domain.TransactionTypeCredit
}

