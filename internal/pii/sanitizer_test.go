package pii

import (
	"strings"
	"testing"
)

func TestSanitizeEntities(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		want     string
		wantType EntityType
	}{
		{
			name:     "card number with dashes",
			input:    "Payment card 1234-5678-9012-3456 declined",
			want:     "Payment card ****-****-****-3456 declined",
			wantType: EntityCardNumber,
		},
		{
			name:     "card number with spaces",
			input:    "CARD 1234 5678 9012 3456",
			want:     "CARD ****-****-****-3456",
			wantType: EntityCardNumber,
		},
		{
			name:     "amex grouping",
			input:    "AMEX 3782 822463 10005 charge",
			want:     "AMEX ****-****-****-0005 charge",
			wantType: EntityCardNumber,
		},
		{
			name:     "bank account number",
			input:    "Transfer to account 123456789",
			want:     "Transfer to account ****6789",
			wantType: EntityBankAccount,
		},
		{
			name:     "ssn",
			input:    "SSN 123-45-6789 on file",
			want:     "SSN ***-**-XXXX on file",
			wantType: EntitySSN,
		},
		{
			name:     "phone keeps area code",
			input:    "Call 555-123-4567 for support",
			want:     "Call 555-***-**** for support",
			wantType: EntityPhone,
		},
		{
			name:     "phone with parentheses",
			input:    "Contact (555) 123-4567",
			want:     "Contact 555-***-****",
			wantType: EntityPhone,
		},
		{
			name:     "email",
			input:    "Receipt sent to john.doe@example.com today",
			want:     "Receipt sent to [EMAIL_REDACTED] today",
			wantType: EntityEmail,
		},
		{
			name:     "street address",
			input:    "Delivery to 123 Main Street scheduled",
			want:     "Delivery to [ADDRESS_REDACTED] scheduled",
			wantType: EntityAddress,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Sanitize(tt.input)
			if got.RedactedText != tt.want {
				t.Errorf("RedactedText = %q, want %q", got.RedactedText, tt.want)
			}
			if got.OriginalText != tt.input {
				t.Errorf("OriginalText = %q, want input preserved", got.OriginalText)
			}
			if len(got.RedactedFields) != 1 {
				t.Fatalf("RedactedFields len = %d, want 1", len(got.RedactedFields))
			}
			if got.RedactedFields[0].Type != tt.wantType {
				t.Errorf("entity type = %q, want %q", got.RedactedFields[0].Type, tt.wantType)
			}
		})
	}
}

func TestSanitizeCardWinsOverAccount(t *testing.T) {
	// A 16-digit run satisfies both the card and account patterns; the card
	// pattern is evaluated first and claims the span.
	got := Sanitize("Charge on 1234567890123456")
	if got.RedactedText != "Charge on ****-****-****-3456" {
		t.Errorf("RedactedText = %q", got.RedactedText)
	}
	if got.RedactedFields[0].Type != EntityCardNumber {
		t.Errorf("entity type = %q, want card_number", got.RedactedFields[0].Type)
	}
}

func TestSanitizeMultipleEntities(t *testing.T) {
	got := Sanitize("Pay 1234-5678-9012-3456 or wire to 99887766, questions: help@bank.com")

	if len(got.RedactedFields) != 3 {
		t.Fatalf("RedactedFields len = %d, want 3", len(got.RedactedFields))
	}
	want := "Pay ****-****-****-3456 or wire to ****7766, questions: [EMAIL_REDACTED]"
	if got.RedactedText != want {
		t.Errorf("RedactedText = %q, want %q", got.RedactedText, want)
	}

	// Matches come back sorted by position.
	for i := 1; i < len(got.RedactedFields); i++ {
		if got.RedactedFields[i].Start < got.RedactedFields[i-1].End {
			t.Errorf("matches overlap or unsorted: %+v", got.RedactedFields)
		}
	}
}

func TestSanitizeNoEntities(t *testing.T) {
	input := "STARBUCKS COFFEE #1234 SEATTLE WA"

	// Short digit runs are not account numbers.
	got := Sanitize(input)
	if got.RedactedText != input {
		t.Errorf("RedactedText = %q, want unchanged", got.RedactedText)
	}
	if len(got.RedactedFields) != 0 {
		t.Errorf("RedactedFields len = %d, want 0", len(got.RedactedFields))
	}
}

func TestSanitizeIdempotent(t *testing.T) {
	inputs := []string{
		"Card 1234-5678-9012-3456",
		"SSN 123-45-6789",
		"Phone 555-123-4567",
		"Email me@example.com at 123 Oak Lane",
		"Account 12345678901",
	}

	for _, input := range inputs {
		first := Sanitize(input)
		second := Sanitize(first.RedactedText)
		if len(second.RedactedFields) != 0 {
			t.Errorf("Sanitize(%q) output %q still matched: %+v", input, first.RedactedText, second.RedactedFields)
		}
		if second.RedactedText != first.RedactedText {
			t.Errorf("second pass changed text: %q -> %q", first.RedactedText, second.RedactedText)
		}
	}
}

func TestContainsSensitiveData(t *testing.T) {
	if !ContainsSensitiveData("ssn 123-45-6789") {
		t.Error("expected sensitive data to be detected")
	}
	if ContainsSensitiveData("GROCERY OUTLET #42") {
		t.Error("expected clean text to pass")
	}
}

func TestRiskScore(t *testing.T) {
	if got := RiskScore(""); got != 0 {
		t.Errorf("empty text score = %v, want 0", got)
	}
	if got := RiskScore("nothing sensitive here"); got != 0 {
		t.Errorf("clean text score = %v, want 0", got)
	}

	// One match in a short string saturates the density cap.
	if got := RiskScore("Call 555-123-4567"); got != 1.0 {
		t.Errorf("dense text score = %v, want 1.0", got)
	}

	// One match diluted across 200 characters: density 0.5 -> score 0.25.
	diluted := "Call 555-123-4567 " + strings.Repeat("x", 182)
	if got := RiskScore(diluted); got != 0.25 {
		t.Errorf("diluted text score = %v, want 0.25", got)
	}
}

func TestValidateRedaction(t *testing.T) {
	clean := Sanitize("Card 1234-5678-9012-3456 and SSN 123-45-6789").RedactedText
	if err := ValidateRedaction(clean); err != nil {
		t.Errorf("ValidateRedaction(%q) = %v, want nil", clean, err)
	}

	if err := ValidateRedaction("raw card 1234-5678-9012-3456"); err == nil {
		t.Error("expected error for unredacted text")
	}
}
