package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"github.com/dvloznov/spending-insights/internal/domain"
)

// GeminiConfig bounds the AI classification call. Zero values are replaced
// with safe defaults.
type GeminiConfig struct {
	Model      string
	Timeout    time.Duration
	MaxRetries int
}

// GeminiClassifier attempts an AI classification and unconditionally
// delegates to the deterministic fallback on any failure: timeout, transport
// error, malformed response, or an unknown category. Classify never returns
// an error the caller has to handle.
type GeminiClassifier struct {
	cfg      GeminiConfig
	fallback Classifier
	log      zerolog.Logger
}

// NewGeminiClassifier wraps the fallback classifier with a Gemini-backed
// attempt. The fallback must never be nil.
func NewGeminiClassifier(cfg GeminiConfig, fallback Classifier, log zerolog.Logger) *GeminiClassifier {
	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-flash"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &GeminiClassifier{cfg: cfg, fallback: fallback, log: log}
}

// Classify tries the model within the configured timeout and retry budget,
// then falls back. The fallback path is synchronous and cannot block
// indefinitely.
func (c *GeminiClassifier) Classify(ctx context.Context, tx *domain.Transaction) (*Classification, error) {
	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		result, err := c.classifyOnce(ctx, tx)
		if err == nil {
			return result, nil
		}
		lastErr = err
	}

	c.log.Debug().
		Err(lastErr).
		Str("merchant", tx.MerchantName).
		Msg("AI classification failed, using rule classifier")

	return c.fallback.Classify(ctx, tx)
}

func (c *GeminiClassifier) classifyOnce(ctx context.Context, tx *domain.Transaction) (*Classification, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	client, err := genai.NewClient(attemptCtx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("classifyOnce: create genai client: %w", err)
	}

	prompt := buildClassificationPrompt(tx)
	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}

	resp, err := client.Models.GenerateContent(attemptCtx, c.cfg.Model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("classifyOnce: generate content: %w", err)
	}

	rawText := resp.Text()
	if rawText == "" {
		return nil, fmt.Errorf("classifyOnce: empty response from model")
	}

	return parseModelClassification(cleanModelJSON(rawText), tx)
}

// buildClassificationPrompt asks for a strict JSON object constrained to the
// rule taxonomy so results stay comparable with the fallback's.
func buildClassificationPrompt(tx *domain.Transaction) string {
	return "You are a financial transaction classifier.\n\n" +
		"Task:\n" +
		"- Classify the transaction below into exactly one of the predefined categories.\n" +
		"- Output STRICT JSON only (no comments, no extra text).\n" +
		"- Output a single JSON object.\n\n" +
		"The object must have these fields:\n" +
		"- \"category\": string (one of: " + strings.Join(KnownCategories(), ", ") + ")\n" +
		"- \"subcategory\": string or null\n" +
		"- \"confidence\": number between 0 and 1\n" +
		"- \"is_recurring\": boolean\n" +
		"- \"reasoning\": string, one short sentence\n\n" +
		"Transaction:\n" +
		fmt.Sprintf("- description: %q\n", tx.Description) +
		fmt.Sprintf("- merchant: %q\n", tx.MerchantName) +
		fmt.Sprintf("- amount: %.2f\n", tx.Amount) +
		"\nReturn ONLY valid raw JSON.\n" +
		"Do NOT wrap the response in code fences.\n" +
		"Output must begin with \"{\" and end with \"}\".\n"
}

// parseModelClassification decodes and validates the model output. An
// unknown category counts as a failure so the fallback runs instead.
func parseModelClassification(clean string, tx *domain.Transaction) (*Classification, error) {
	var parsed struct {
		Category    string  `json:"category"`
		Subcategory *string `json:"subcategory"`
		Confidence  float64 `json:"confidence"`
		IsRecurring bool    `json:"is_recurring"`
		Reasoning   string  `json:"reasoning"`
	}
	if err := json.Unmarshal([]byte(clean), &parsed); err != nil {
		return nil, fmt.Errorf("parseModelClassification: unmarshal JSON: %w", err)
	}

	if !isKnownCategory(parsed.Category) {
		return nil, fmt.Errorf("parseModelClassification: unknown category %q", parsed.Category)
	}

	confidence := parsed.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	result := &Classification{
		Category:     parsed.Category,
		Confidence:   confidence,
		IsRecurring:  parsed.IsRecurring,
		MerchantName: merchantName(tx),
		Reasoning:    parsed.Reasoning,
	}
	if parsed.Subcategory != nil {
		result.Subcategory = strings.TrimSpace(*parsed.Subcategory)
	}
	return result, nil
}

func isKnownCategory(category string) bool {
	for _, name := range KnownCategories() {
		if strings.EqualFold(name, category) {
			return true
		}
	}
	return false
}

// cleanModelJSON strips Markdown fences and surrounding junk if the model
// ignored the formatting instructions.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}

	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}

	s = strings.TrimSpace(s)

	// Keep only from the first '{' to the last '}' if junk remains.
	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}

	return s
}

// Ensure GeminiClassifier implements the Classifier interface.
var _ Classifier = (*GeminiClassifier)(nil)
