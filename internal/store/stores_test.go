package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dvloznov/spending-insights/internal/domain"
	"github.com/dvloznov/spending-insights/internal/store"
	"github.com/dvloznov/spending-insights/internal/store/inmemory"
)

func testTx(id, userID string, date time.Time) *domain.Transaction {
	return &domain.Transaction{
		ID:              id,
		UserID:          userID,
		Description:     "TEST MERCHANT",
		Amount:          10,
		Date:            date,
		TransactionType: domain.TransactionTypeDebit,
	}
}

func TestTransactionStoreRoundTrip(t *testing.T) {
	txStore := store.NewTransactionStore(inmemory.NewStore())
	ctx := context.Background()

	inWeek := time.Date(2026, 1, 7, 0, 0, 0, 0, time.UTC)
	nextWeek := inWeek.AddDate(0, 0, 7)
	period := domain.PeriodOf(inWeek)

	for _, tx := range []*domain.Transaction{
		testTx("b", "user-1", inWeek),
		testTx("a", "user-1", inWeek),
		testTx("c", "user-1", nextWeek),
		testTx("d", "user-2", inWeek),
	} {
		if err := txStore.PutTransaction(ctx, tx); err != nil {
			t.Fatalf("PutTransaction(%s): %v", tx.ID, err)
		}
	}

	got, err := txStore.ListByUserPeriod(ctx, "user-1", period)
	if err != nil {
		t.Fatalf("ListByUserPeriod: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2 (other week and other user excluded)", len(got))
	}
	// Ordered by transaction ID via the sort key.
	if got[0].ID != "a" || got[1].ID != "b" {
		t.Errorf("order = %q, %q", got[0].ID, got[1].ID)
	}

	empty, err := txStore.ListByUserPeriod(ctx, "user-1", "1999-W01")
	if err != nil {
		t.Fatalf("ListByUserPeriod empty: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("len = %d, want 0", len(empty))
	}
}

func TestTransactionStoreValidation(t *testing.T) {
	txStore := store.NewTransactionStore(inmemory.NewStore())
	ctx := context.Background()

	err := txStore.PutTransaction(ctx, &domain.Transaction{UserID: "user-1"})
	if !errors.Is(err, store.ErrValidation) {
		t.Errorf("missing ID: err = %v, want ErrValidation", err)
	}

	err = txStore.PutTransaction(ctx, &domain.Transaction{ID: "a"})
	if !errors.Is(err, store.ErrValidation) {
		t.Errorf("missing user: err = %v, want ErrValidation", err)
	}
}

func TestListUsersInPeriod(t *testing.T) {
	txStore := store.NewTransactionStore(inmemory.NewStore())
	ctx := context.Background()

	inWeek := time.Date(2026, 1, 7, 0, 0, 0, 0, time.UTC)
	period := domain.PeriodOf(inWeek)

	for _, tx := range []*domain.Transaction{
		testTx("a", "zoe", inWeek),
		testTx("b", "adam", inWeek),
		testTx("c", "adam", inWeek),
		testTx("d", "eve", inWeek.AddDate(0, 0, 7)),
	} {
		if err := txStore.PutTransaction(ctx, tx); err != nil {
			t.Fatalf("PutTransaction: %v", err)
		}
	}

	users, err := txStore.ListUsersInPeriod(ctx, period)
	if err != nil {
		t.Fatalf("ListUsersInPeriod: %v", err)
	}
	if len(users) != 2 || users[0] != "adam" || users[1] != "zoe" {
		t.Errorf("users = %v, want [adam zoe]", users)
	}
}

func TestInsightStoreRoundTrip(t *testing.T) {
	insightStore := store.NewInsightStore(inmemory.NewStore())
	ctx := context.Background()

	if _, err := insightStore.GetInsight(ctx, "user-1", "2026-W02"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound before write", err)
	}

	insight := &domain.Insight{
		ID:        "ins-1",
		UserID:    "user-1",
		PeriodKey: "2026-W02",
	}
	if err := insightStore.PutInsight(ctx, insight); err != nil {
		t.Fatalf("PutInsight: %v", err)
	}

	got, err := insightStore.GetInsight(ctx, "user-1", "2026-W02")
	if err != nil {
		t.Fatalf("GetInsight: %v", err)
	}
	if got.ID != "ins-1" {
		t.Errorf("ID = %q", got.ID)
	}

	// Put replaces for the same (user, period).
	insight.ID = "ins-2"
	if err := insightStore.PutInsight(ctx, insight); err != nil {
		t.Fatalf("PutInsight replace: %v", err)
	}
	got, err = insightStore.GetInsight(ctx, "user-1", "2026-W02")
	if err != nil {
		t.Fatalf("GetInsight after replace: %v", err)
	}
	if got.ID != "ins-2" {
		t.Errorf("ID = %q, want ins-2", got.ID)
	}
}

func TestInsightStoreValidation(t *testing.T) {
	insightStore := store.NewInsightStore(inmemory.NewStore())

	err := insightStore.PutInsight(context.Background(), &domain.Insight{UserID: "user-1"})
	if !errors.Is(err, store.ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
}

func TestListInsights(t *testing.T) {
	kv := inmemory.NewStore()
	insightStore := store.NewInsightStore(kv)
	txStore := store.NewTransactionStore(kv)
	ctx := context.Background()

	// A transaction in the same partition must not leak into the listing.
	if err := txStore.PutTransaction(ctx, testTx("a", "user-1", time.Date(2026, 1, 7, 0, 0, 0, 0, time.UTC))); err != nil {
		t.Fatalf("PutTransaction: %v", err)
	}

	for _, period := range []string{"2026-W03", "2026-W01", "2026-W02"} {
		err := insightStore.PutInsight(ctx, &domain.Insight{ID: period, UserID: "user-1", PeriodKey: period})
		if err != nil {
			t.Fatalf("PutInsight(%s): %v", period, err)
		}
	}

	got, err := insightStore.ListInsights(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListInsights: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	for i, want := range []string{"2026-W01", "2026-W02", "2026-W03"} {
		if got[i].PeriodKey != want {
			t.Errorf("got[%d].PeriodKey = %q, want %q", i, got[i].PeriodKey, want)
		}
	}
}
