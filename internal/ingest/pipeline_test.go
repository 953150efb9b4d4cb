package ingest_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/spending-insights/internal/classify"
	"github.com/dvloznov/spending-insights/internal/domain"
	"github.com/dvloznov/spending-insights/internal/ingest"
	"github.com/dvloznov/spending-insights/internal/store"
	"github.com/dvloznov/spending-insights/internal/store/inmemory"
)

func newTestIngestor() (*ingest.Ingestor, *store.TransactionStore) {
	txStore := store.NewTransactionStore(inmemory.NewStore())
	return ingest.NewIngestor(classify.NewRuleClassifier(), txStore, zerolog.Nop()), txStore
}

func TestIngestCSVHappyPath(t *testing.T) {
	ingestor, txStore := newTestIngestor()

	csv := strings.Join([]string{
		"Date,Description,Amount",
		"2026-01-05,STARBUCKS COFFEE,-4.50",
		"2026-01-06,NETFLIX.COM,-15.99",
	}, "\n")

	result, err := ingestor.IngestCSV(context.Background(), "user-1", csv)
	if err != nil {
		t.Fatalf("IngestCSV: %v", err)
	}
	if !result.Success {
		t.Errorf("Success = false: %+v", result)
	}
	if result.ProcessedCount != 2 {
		t.Errorf("ProcessedCount = %d, want 2", result.ProcessedCount)
	}
	if len(result.Errors) != 0 {
		t.Errorf("Errors = %+v", result.Errors)
	}
	if result.Message != "Processed 2 transactions" {
		t.Errorf("Message = %q", result.Message)
	}

	// Transactions come back classified and persisted.
	period := domain.PeriodOf(time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC))
	txs, err := txStore.ListByUserPeriod(context.Background(), "user-1", period)
	if err != nil {
		t.Fatalf("ListByUserPeriod: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("persisted = %d, want 2", len(txs))
	}
	for _, tx := range txs {
		if tx.Category == "" {
			t.Errorf("transaction %s not classified", tx.ID)
		}
		if tx.Confidence == 0 {
			t.Errorf("transaction %s has no confidence", tx.ID)
		}
	}
}

func TestIngestCSVPartialFailure(t *testing.T) {
	ingestor, _ := newTestIngestor()

	csv := strings.Join([]string{
		"Date,Description,Amount",
		"2026-01-05,GOOD ROW,-10.00",
		"bad-date,BROKEN ROW,-5.00",
	}, "\n")

	result, err := ingestor.IngestCSV(context.Background(), "user-1", csv)
	if err != nil {
		t.Fatalf("IngestCSV: %v", err)
	}
	if !result.Success {
		t.Error("partial failure with persisted rows should still succeed")
	}
	if result.ProcessedCount != 1 {
		t.Errorf("ProcessedCount = %d, want 1", result.ProcessedCount)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("Errors = %+v, want 1", result.Errors)
	}
	if result.Message != "Processed 1 of 2 rows with 1 errors" {
		t.Errorf("Message = %q", result.Message)
	}
}

func TestIngestCSVEmptyContent(t *testing.T) {
	ingestor, _ := newTestIngestor()

	result, err := ingestor.IngestCSV(context.Background(), "user-1", "")
	if err != nil {
		t.Fatalf("IngestCSV: %v", err)
	}
	if result.Success {
		t.Error("Success = true for empty content")
	}
	if result.Message != "CSV content is empty" {
		t.Errorf("Message = %q", result.Message)
	}
}

func TestIngestCSVHeaderOnly(t *testing.T) {
	ingestor, _ := newTestIngestor()

	result, err := ingestor.IngestCSV(context.Background(), "user-1", "Date,Description,Amount")
	if err != nil {
		t.Fatalf("IngestCSV: %v", err)
	}
	if !result.Success {
		t.Error("header-only file should succeed with zero rows")
	}
	if result.ProcessedCount != 0 {
		t.Errorf("ProcessedCount = %d, want 0", result.ProcessedCount)
	}
}

func TestIngestCSVRequiresUserID(t *testing.T) {
	ingestor, _ := newTestIngestor()
	if _, err := ingestor.IngestCSV(context.Background(), "", "Date,Description,Amount"); err == nil {
		t.Error("expected error for missing user ID")
	}
}
