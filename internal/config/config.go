package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration. Values are read once at startup
// and passed explicitly into constructors; pipeline stages never consult the
// environment themselves.
type Config struct {
	// Port is the HTTP server port.
	Port string

	// GCSBucket is the bucket holding uploaded CSV statements. Empty
	// disables GCS-based ingestion.
	GCSBucket string

	// BigQueryProject and BigQueryDataset locate the persistent store.
	// Empty project selects the in-memory store.
	BigQueryProject string
	BigQueryDataset string

	// AIEnabled turns on the Gemini-backed classifier. The rule-based
	// classifier always remains the fallback.
	AIEnabled    bool
	GeminiModel  string
	AITimeout    time.Duration
	AIMaxRetries int
}

// Load reads configuration from the environment. A .env file is loaded if
// present; a missing file is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		GCSBucket:       os.Getenv("GCS_BUCKET"),
		BigQueryProject: os.Getenv("BIGQUERY_PROJECT"),
		BigQueryDataset: getEnv("BIGQUERY_DATASET", "insights"),
		GeminiModel:     getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		AITimeout:       10 * time.Second,
		AIMaxRetries:    2,
	}

	if v := os.Getenv("AI_CLASSIFIER_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("Load: invalid AI_CLASSIFIER_ENABLED %q: %w", v, err)
		}
		cfg.AIEnabled = enabled
	}

	if v := os.Getenv("AI_TIMEOUT_SECONDS"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil || secs <= 0 {
			return nil, fmt.Errorf("Load: invalid AI_TIMEOUT_SECONDS %q", v)
		}
		cfg.AITimeout = time.Duration(secs) * time.Second
	}

	if v := os.Getenv("AI_MAX_RETRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("Load: invalid AI_MAX_RETRIES %q", v)
		}
		cfg.AIMaxRetries = n
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
