package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/spending-insights/internal/classify"
	"github.com/dvloznov/spending-insights/internal/config"
	"github.com/dvloznov/spending-insights/internal/gcs"
	"github.com/dvloznov/spending-insights/internal/ingest"
	"github.com/dvloznov/spending-insights/internal/logger"
	"github.com/dvloznov/spending-insights/internal/store"
	storebq "github.com/dvloznov/spending-insights/internal/store/bigquery"
	storemem "github.com/dvloznov/spending-insights/internal/store/inmemory"
)

func main() {
	// Initialize structured logger
	log := logger.New()

	// Parse CLI flags
	var (
		userID   = flag.String("user", "", "User the statement belongs to")
		filePath = flag.String("file", "", "Local CSV statement file")
		gcsURI   = flag.String("gcs-uri", "", "GCS URI of the statement CSV (e.g. gs://bucket/file.csv)")
	)
	flag.Parse()

	if *userID == "" {
		log.Fatal().Msg("Error: --user is required")
	}
	if (*filePath == "") == (*gcsURI == "") {
		log.Fatal().Msg("Error: exactly one of --file or --gcs-uri is required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Create context with timeout so CLI doesn't hang
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	var content []byte
	if *filePath != "" {
		content, err = os.ReadFile(*filePath)
		if err != nil {
			log.Fatal().Err(err).Str("file", *filePath).Msg("Failed to read statement file")
		}
	} else {
		content, err = gcs.Download(ctx, *gcsURI)
		if err != nil {
			log.Fatal().Err(err).Str("gcs_uri", *gcsURI).Msg("Failed to download statement")
		}
	}

	var kv store.KeyValueStore
	if cfg.BigQueryProject != "" {
		bq, err := storebq.NewStore(ctx, cfg.BigQueryProject, cfg.BigQueryDataset)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create BigQuery store")
		}
		defer bq.Close()
		kv = bq
	} else {
		kv = storemem.NewStore()
		log.Warn().Msg("No BigQuery project configured - using in-memory store, results will not persist")
	}

	ingestor := ingest.NewIngestor(buildClassifier(cfg, log), store.NewTransactionStore(kv), log)

	result, err := ingestor.IngestCSV(ctx, *userID, string(content))
	if err != nil {
		log.Fatal().Err(err).Msg("Ingestion failed")
	}

	log.Info().
		Int("processed", result.ProcessedCount).
		Int("errors", len(result.Errors)).
		Msg("Ingestion finished")

	if !result.Success {
		log.Fatal().Str("message", result.Message).Msg("Ingestion completed with failures")
	}
	fmt.Println("Ingestion completed successfully.")
}

// buildClassifier wires the rule-based classifier, wrapped by the Gemini
// classifier when AI classification is enabled.
func buildClassifier(cfg *config.Config, log zerolog.Logger) classify.Classifier {
	rules := classify.NewRuleClassifier()
	if !cfg.AIEnabled {
		return rules
	}
	return classify.NewGeminiClassifier(classify.GeminiConfig{
		Model:      cfg.GeminiModel,
		Timeout:    cfg.AITimeout,
		MaxRetries: cfg.AIMaxRetries,
	}, rules, log)
}
