package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/spending-insights/internal/api/handlers"
	"github.com/dvloznov/spending-insights/internal/api/middleware"
	"github.com/dvloznov/spending-insights/internal/classify"
	"github.com/dvloznov/spending-insights/internal/config"
	"github.com/dvloznov/spending-insights/internal/ingest"
	"github.com/dvloznov/spending-insights/internal/insights"
	"github.com/dvloznov/spending-insights/internal/jobs"
	jobsmem "github.com/dvloznov/spending-insights/internal/jobs/inmemory"
	"github.com/dvloznov/spending-insights/internal/logger"
	"github.com/dvloznov/spending-insights/internal/store"
	storebq "github.com/dvloznov/spending-insights/internal/store/bigquery"
	storemem "github.com/dvloznov/spending-insights/internal/store/inmemory"
)

func main() {
	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if cfg.GCSBucket == "" {
		log.Warn().Msg("No GCS bucket configured - GCS-based ingestion will be disabled")
	}

	ctx := context.Background()

	// Select the key-value backend. BigQuery when a project is configured,
	// in-memory otherwise.
	var kv store.KeyValueStore
	if cfg.BigQueryProject != "" {
		bq, err := storebq.NewStore(ctx, cfg.BigQueryProject, cfg.BigQueryDataset)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create BigQuery store")
		}
		defer bq.Close()
		kv = bq
		log.Info().Str("project", cfg.BigQueryProject).Str("dataset", cfg.BigQueryDataset).Msg("Using BigQuery store")
	} else {
		kv = storemem.NewStore()
		log.Warn().Msg("No BigQuery project configured - using in-memory store")
	}

	txStore := store.NewTransactionStore(kv)
	insightStore := store.NewInsightStore(kv)

	classifier := buildClassifier(cfg, log)

	ingestor := ingest.NewIngestor(classifier, txStore, log)
	generator := insights.NewGenerator(txStore, insightStore, classifier, log)

	// Initialize job infrastructure
	jobStore := jobsmem.NewStore()
	jobQueue := jobsmem.NewQueue(100, jobStore)

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	jobHandler := func(ctx context.Context, job jobs.Job) error {
		genJob, ok := job.(*jobs.GenerateInsightJob)
		if !ok {
			return fmt.Errorf("unexpected job type: %T", job)
		}

		log.Info().
			Str("job_id", genJob.JobID).
			Str("user_id", genJob.UserID).
			Str("period", genJob.PeriodKey).
			Msg("Processing generation job")

		if genJob.UserID == "" {
			count, err := generator.GenerateForAllUsers(ctx, genJob.PeriodKey, genJob.ForceRegenerate)
			if err != nil {
				return err
			}
			log.Info().Str("job_id", genJob.JobID).Int("generated", count).Msg("Fan-out generation completed")
			return nil
		}

		result, err := generator.Generate(ctx, genJob.UserID, genJob.PeriodKey, genJob.ForceRegenerate)
		if err != nil {
			return err
		}
		log.Info().
			Str("job_id", genJob.JobID).
			Bool("generated", result.Generated).
			Str("message", result.Message).
			Msg("Generation job completed")
		return nil
	}

	go func() {
		log.Info().Msg("Starting job worker")
		if err := jobQueue.Start(workerCtx, jobHandler); err != nil {
			log.Error().Err(err).Msg("Job worker stopped with error")
		}
	}()

	// Initialize handlers
	ingestHandler := handlers.NewIngestHandler(ingestor, cfg.GCSBucket, log)
	insightsHandler := handlers.NewInsightsHandler(generator, insightStore, jobQueue, log)
	jobsHandler := handlers.NewJobsHandler(jobStore, log)

	// Create router
	mux := http.NewServeMux()

	mux.HandleFunc("/api/ingest", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			ingestHandler.IngestCSV(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/insights", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			insightsHandler.Get(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/insights/list", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			insightsHandler.List(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/insights/generate", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			insightsHandler.Generate(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/insights/generate-async", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			insightsHandler.GenerateAsync(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/insights/actions", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			insightsHandler.MarkAction(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/jobs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobsHandler.ListJobs(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/jobs/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobID := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
			if jobID == "" {
				middleware.WriteError(w, http.StatusBadRequest, "Job ID is required")
				return
			}
			jobsHandler.GetJob(w, r, jobID)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Apply middleware
	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(mux),
			),
		),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	cancelWorker()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}

	if err := jobQueue.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close job queue")
	}

	log.Info().Msg("Server exited")
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
