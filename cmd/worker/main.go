package main

import (
	"context"
	"flag"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/spending-insights/internal/classify"
	"github.com/dvloznov/spending-insights/internal/config"
	"github.com/dvloznov/spending-insights/internal/insights"
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
		userID   = flag.String("user", "", "User to generate the insight for")
		period   = flag.String("period", "", "ISO week period key (e.g. 2026-W35); empty means the current week")
		allUsers = flag.Bool("all-users", false, "Generate insights for every user with data in the period")
		force    = flag.Bool("force", false, "Regenerate even if an insight already exists")
	)
	flag.Parse()

	if *userID == "" && !*allUsers {
		log.Fatal().Msg("Error: either --user or --all-users is required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

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
		log.Warn().Msg("No BigQuery project configured - using in-memory store")
	}

	txStore := store.NewTransactionStore(kv)
	insightStore := store.NewInsightStore(kv)
	generator := insights.NewGenerator(txStore, insightStore, buildClassifier(cfg, log), log)

	if *allUsers {
		count, err := generator.GenerateForAllUsers(ctx, *period, *force)
		if err != nil {
			log.Fatal().Err(err).Int("generated", count).Msg("Fan-out generation failed")
		}
		log.Info().Int("generated", count).Msg("Fan-out generation completed")
		return
	}

	result, err := generator.Generate(ctx, *userID, *period, *force)
	if err != nil {
		log.Fatal().Err(err).Msg("Generation failed")
	}

	log.Info().
		Bool("success", result.Success).
		Bool("generated", result.Generated).
		Str("message", result.Message).
		Msg("Generation completed")
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
