package classify

import "testing"

func TestExtractMerchantName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"POS DEBIT STARBUCKS #123 01/05", "STARBUCKS #123"},
		{"ACH NETFLIX.COM", "NETFLIX.COM"},
		{"Dinner at Luigi's in Rome", "Dinner"},
		{"WHOLE FOODS MARKET", "WHOLE FOODS MARKET"},
		{"CHECK 104 05/12/2026", "104"},
		{"  SPOTIFY  ", "SPOTIFY"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ExtractMerchantName(tt.input); got != tt.want {
				t.Errorf("ExtractMerchantName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
