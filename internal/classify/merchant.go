package classify

import (
	"regexp"
	"strings"
)

var (
	methodTokens    = map[string]bool{"DEBIT": true, "CREDIT": true, "ACH": true, "CHECK": true, "ATM": true, "POS": true}
	trailingDateRe  = regexp.MustCompile(`\s+\d{1,2}[/-]\d{1,2}([/-]\d{2,4})?$`)
	locationMarkers = []string{" in ", " at ", " on "}
)

// ExtractMerchantName strips transaction-method prefixes and trailing
// date-like suffixes, then truncates at the first location marker.
func ExtractMerchantName(description string) string {
	name := strings.TrimSpace(description)

	// Leading method tokens: "POS DEBIT STARBUCKS" -> "STARBUCKS".
	for {
		first, rest, found := strings.Cut(name, " ")
		if !found || !methodTokens[strings.ToUpper(first)] {
			break
		}
		name = strings.TrimSpace(rest)
	}

	name = trailingDateRe.ReplaceAllString(name, "")

	lower := strings.ToLower(name)
	cut := len(name)
	for _, marker := range locationMarkers {
		if idx := strings.Index(lower, marker); idx != -1 && idx < cut {
			cut = idx
		}
	}

	return strings.TrimSpace(name[:cut])
}
