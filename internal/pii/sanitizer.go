// Package pii detects and redacts sensitive identifying data in free-text
// transaction descriptions before they are stored.
package pii

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
)

// EntityType identifies the class of sensitive data found in text.
type EntityType string

const (
	EntityCardNumber  EntityType = "card_number"
	EntityBankAccount EntityType = "bank_account"
	EntitySSN         EntityType = "ssn"
	EntityPhone       EntityType = "phone"
	EntityEmail       EntityType = "email"
	EntityAddress     EntityType = "address"
)

// Match records one redacted entity. Start and End are byte offsets into the
// original (pre-redaction) string.
type Match struct {
	Type        EntityType `json:"type"`
	Original    string     `json:"original"`
	Replacement string     `json:"replacement"`
	Start       int        `json:"start"`
	End         int        `json:"end"`
}

// Result is the outcome of sanitizing one string. OriginalText always equals
// the input exactly; RedactedText has every detected entity replaced.
type Result struct {
	OriginalText   string  `json:"originalText"`
	RedactedText   string  `json:"redactedText"`
	RedactedFields []Match `json:"redactedFields"`
}

// entityPattern couples a detection pattern with its replacement rule.
type entityPattern struct {
	entity  EntityType
	re      *regexp.Regexp
	replace func(match string) string
}

// Patterns are evaluated strictly in this order. Card patterns must come
// before the bank account pattern: a 16-digit run satisfies both, and the
// earlier pattern claims the span.
var patterns = []entityPattern{
	{
		entity:  EntityCardNumber,
		re:      regexp.MustCompile(`\b\d{4}[-\s.]?\d{4}[-\s.]?\d{4}[-\s.]?\d{4}\b`),
		replace: maskCardNumber,
	},
	{
		// 15-digit Amex grouping (4-6-5).
		entity:  EntityCardNumber,
		re:      regexp.MustCompile(`\b\d{4}[-\s.]?\d{6}[-\s.]?\d{5}\b`),
		replace: maskCardNumber,
	},
	{
		entity:  EntityBankAccount,
		re:      regexp.MustCompile(`\b\d{8,17}\b`),
		replace: maskAccountNumber,
	},
	{
		entity:  EntitySSN,
		re:      regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),
		replace: func(string) string { return "***-**-XXXX" },
	},
	{
		entity:  EntityPhone,
		re:      regexp.MustCompile(`\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}\b`),
		replace: maskPhoneNumber,
	},
	{
		entity:  EntityEmail,
		re:      regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`),
		replace: func(string) string { return "[EMAIL_REDACTED]" },
	},
	{
		entity:  EntityAddress,
		re:      regexp.MustCompile(`(?i)\b\d+\s+(?:[A-Za-z]+\s+){1,4}(?:Street|Ave|Road|Drive|Lane|Blvd|Way|Court)\b`),
		replace: func(string) string { return "[ADDRESS_REDACTED]" },
	},
}

// Sanitize redacts every recognized entity in text. Running Sanitize on
// already-redacted output produces no further matches.
func Sanitize(text string) Result {
	matches := findMatches(text)

	if len(matches) == 0 {
		return Result{
			OriginalText:   text,
			RedactedText:   text,
			RedactedFields: []Match{},
		}
	}

	// Splice replacements left to right; matches are non-overlapping and
	// sorted by start offset.
	var b strings.Builder
	last := 0
	for _, m := range matches {
		b.WriteString(text[last:m.Start])
		b.WriteString(m.Replacement)
		last = m.End
	}
	b.WriteString(text[last:])

	return Result{
		OriginalText:   text,
		RedactedText:   b.String(),
		RedactedFields: matches,
	}
}

// findMatches scans text with every pattern in priority order. A span claimed
// by an earlier pattern is never re-matched by a later one.
func findMatches(text string) []Match {
	var matches []Match

	for _, p := range patterns {
		for _, loc := range p.re.FindAllStringIndex(text, -1) {
			if overlapsAny(matches, loc[0], loc[1]) {
				continue
			}
			original := text[loc[0]:loc[1]]
			matches = append(matches, Match{
				Type:        p.entity,
				Original:    original,
				Replacement: p.replace(original),
				Start:       loc[0],
				End:         loc[1],
			})
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Start < matches[j].Start
	})
	return matches
}

func overlapsAny(matches []Match, start, end int) bool {
	for _, m := range matches {
		if start < m.End && end > m.Start {
			return true
		}
	}
	return false
}

// maskCardNumber keeps only the last 4 digits: ****-****-****-1234.
func maskCardNumber(match string) string {
	digits := digitsOnly(match)
	return "****-****-****-" + digits[len(digits)-4:]
}

// maskAccountNumber keeps only the last 4 digits: ****6789.
func maskAccountNumber(match string) string {
	digits := digitsOnly(match)
	return "****" + digits[len(digits)-4:]
}

// maskPhoneNumber preserves the area code: 555-***-****.
func maskPhoneNumber(match string) string {
	digits := digitsOnly(match)
	return digits[:3] + "-***-****"
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ContainsSensitiveData reports whether text has at least one recognized
// entity.
func ContainsSensitiveData(text string) bool {
	for _, p := range patterns {
		if p.re.MatchString(text) {
			return true
		}
	}
	return false
}

// RiskScore returns a score in [0,1] proportional to match density per 100
// characters. Two or more matches per 100 characters saturates at 1.
func RiskScore(text string) float64 {
	if len(text) == 0 {
		return 0
	}
	count := len(findMatches(text))
	if count == 0 {
		return 0
	}
	density := float64(count) / (float64(len(text)) / 100.0)
	return math.Min(1.0, density/2.0)
}

// ValidateRedaction re-scans redacted output and fails if any raw entity
// pattern still matches. Used as a self-check after sanitizing, not as a
// blocking gate.
func ValidateRedaction(redactedText string) error {
	remaining := findMatches(redactedText)
	if len(remaining) == 0 {
		return nil
	}

	types := make([]string, 0, len(remaining))
	for _, m := range remaining {
		types = append(types, string(m.Type))
	}
	return fmt.Errorf("ValidateRedaction: %d unredacted entities remain: %s",
		len(remaining), strings.Join(types, ", "))
}
