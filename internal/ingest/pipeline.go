package ingest

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dvloznov/spending-insights/internal/classify"
	"github.com/dvloznov/spending-insights/internal/domain"
	"github.com/dvloznov/spending-insights/internal/store"
)

// PipelineStep represents a single step in the ingestion pipeline.
type PipelineStep interface {
	Execute(ctx context.Context, state *PipelineState) error
}

// PipelineState holds the shared state across all pipeline steps.
type PipelineState struct {
	UserID     string
	RawCSV     string
	Parsed     *ParseResult
	Classified []*domain.Transaction
	Persisted  int

	// persistErrors collects per-record write failures; one record's
	// failure never aborts the batch.
	persistErrors []RowError
}

// ParseStep tokenizes and validates the raw CSV.
type ParseStep struct{}

func (s *ParseStep) Execute(ctx context.Context, state *PipelineState) error {
	state.Parsed = Parse(state.RawCSV, state.UserID)
	return nil
}

// ClassifyStep assigns category, recurrence, and confidence to every parsed
// transaction. Classifier implementations fall back internally, so an error
// here is a contract violation and fails the batch.
type ClassifyStep struct {
	Classifier classify.Classifier
}

func (s *ClassifyStep) Execute(ctx context.Context, state *PipelineState) error {
	classified := make([]*domain.Transaction, 0, len(state.Parsed.Transactions))
	for _, tx := range state.Parsed.Transactions {
		result, err := s.Classifier.Classify(ctx, tx)
		if err != nil {
			return fmt.Errorf("ClassifyStep: classify transaction %s: %w", tx.ID, err)
		}

		// An explicit category column on the row wins over the classifier.
		if tx.Category == "" {
			tx.Category = result.Category
			tx.Subcategory = result.Subcategory
		}
		tx.Confidence = result.Confidence
		tx.IsRecurring = result.IsRecurring
		if tx.MerchantName == "" {
			tx.MerchantName = result.MerchantName
		}
		classified = append(classified, tx)
	}
	state.Classified = classified
	return nil
}

// PersistStep writes transactions individually so one record's failure does
// not prevent or corrupt the others.
type PersistStep struct {
	Store *store.TransactionStore
	Log   zerolog.Logger
}

func (s *PersistStep) Execute(ctx context.Context, state *PipelineState) error {
	for _, tx := range state.Classified {
		if err := s.Store.PutTransaction(ctx, tx); err != nil {
			s.Log.Error().Err(err).Str("transaction_id", tx.ID).Msg("Failed to persist transaction")
			state.persistErrors = append(state.persistErrors, RowError{
				Field:    "persistence",
				Value:    tx.ID,
				Error:    err.Error(),
				Severity: SeverityError,
			})
			continue
		}
		state.Persisted++
	}
	return nil
}

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	steps []PipelineStep
}

// NewPipeline creates a new pipeline with the given steps.
func NewPipeline(steps ...PipelineStep) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs all steps in the pipeline sequentially.
func (p *Pipeline) Execute(ctx context.Context, state *PipelineState) error {
	for i, step := range p.steps {
		if err := step.Execute(ctx, state); err != nil {
			return fmt.Errorf("pipeline step %d failed: %w", i+1, err)
		}
	}
	return nil
}

// Ingestor runs the standard parse, classify, persist pipeline for CSV
// statements.
type Ingestor struct {
	classifier classify.Classifier
	txStore    *store.TransactionStore
	log        zerolog.Logger
}

// NewIngestor creates the CSV ingestion pipeline runner.
func NewIngestor(classifier classify.Classifier, txStore *store.TransactionStore, log zerolog.Logger) *Ingestor {
	return &Ingestor{classifier: classifier, txStore: txStore, log: log}
}

// IngestCSV parses, classifies, and persists one CSV document for a user.
// It always returns a structured envelope, including under partial row
// failure; a missing user ID fails before any I/O.
func (i *Ingestor) IngestCSV(ctx context.Context, userID, content string) (*IngestResult, error) {
	if userID == "" {
		return nil, fmt.Errorf("IngestCSV: user ID is required")
	}

	state := &PipelineState{UserID: userID, RawCSV: content}
	pipeline := NewPipeline(
		&ParseStep{},
		&ClassifyStep{Classifier: i.classifier},
		&PersistStep{Store: i.txStore, Log: i.log},
	)

	if err := pipeline.Execute(ctx, state); err != nil {
		return nil, fmt.Errorf("IngestCSV: %w", err)
	}

	allErrors := append(append([]RowError{}, state.Parsed.Errors...), state.persistErrors...)

	success := state.Persisted > 0
	if state.Parsed.TotalRows == 0 && len(allErrors) == 0 {
		// Header-only file: nothing to process, nothing failed.
		success = true
	}

	result := &IngestResult{
		Success:        success,
		ProcessedCount: state.Persisted,
		Errors:         allErrors,
	}

	switch {
	case state.Parsed.TotalRows == 0 && len(state.Parsed.Errors) > 0:
		result.Message = state.Parsed.Errors[0].Error
	case len(allErrors) > 0:
		result.Message = fmt.Sprintf("Processed %d of %d rows with %d errors",
			state.Persisted, state.Parsed.TotalRows, len(allErrors))
	default:
		result.Message = fmt.Sprintf("Processed %d transactions", state.Persisted)
	}

	i.log.Info().
		Str("user_id", userID).
		Int("total_rows", state.Parsed.TotalRows).
		Int("persisted", state.Persisted).
		Int("errors", len(allErrors)).
		Msg("CSV ingestion completed")

	return result, nil
}
