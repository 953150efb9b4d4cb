package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/dvloznov/spending-insights/internal/domain"
)

// Key layout:
//
//	partition key  USER#<userID>
//	sort key       TX#<periodKey>#<transactionID>   transactions
//	sort key       INSIGHT#<periodKey>              insights
//	secondary key  PERIOD#<periodKey>               transactions, cross-user
//
// The composite scheme lives here and only here; adapters treat keys as
// opaque strings.

const (
	userKeyPrefix    = "USER#"
	txKeyPrefix      = "TX#"
	insightKeyPrefix = "INSIGHT#"
	periodKeyPrefix  = "PERIOD#"
)

// TransactionStore persists and retrieves transactions on top of a
// KeyValueStore.
type TransactionStore struct {
	kv KeyValueStore
}

// NewTransactionStore creates a transaction repository over the given backend.
func NewTransactionStore(kv KeyValueStore) *TransactionStore {
	return &TransactionStore{kv: kv}
}

// PutTransaction writes a single transaction.
func (s *TransactionStore) PutTransaction(ctx context.Context, tx *domain.Transaction) error {
	if tx.ID == "" || tx.UserID == "" {
		return fmt.Errorf("PutTransaction: missing id or user id: %w", ErrValidation)
	}

	payload, err := json.Marshal(tx)
	if err != nil {
		return fmt.Errorf("PutTransaction: marshal: %w", err)
	}

	period := domain.PeriodOf(tx.Date)
	rec := &Record{
		PartitionKey: userKeyPrefix + tx.UserID,
		SortKey:      txKeyPrefix + period + "#" + tx.ID,
		SecondaryKey: periodKeyPrefix + period,
		Payload:      payload,
	}

	if err := s.kv.Put(ctx, rec); err != nil {
		return fmt.Errorf("PutTransaction: put %s: %w", tx.ID, err)
	}
	return nil
}

// ListByUserPeriod returns all of a user's transactions in the given period,
// ordered by transaction ID.
func (s *TransactionStore) ListByUserPeriod(ctx context.Context, userID, periodKey string) ([]*domain.Transaction, error) {
	recs, err := s.kv.QueryByPrefix(ctx, userKeyPrefix+userID, txKeyPrefix+periodKey+"#")
	if err != nil {
		return nil, fmt.Errorf("ListByUserPeriod: query: %w", err)
	}

	txs := make([]*domain.Transaction, 0, len(recs))
	for _, rec := range recs {
		var tx domain.Transaction
		if err := json.Unmarshal(rec.Payload, &tx); err != nil {
			return nil, fmt.Errorf("ListByUserPeriod: unmarshal %s: %w", rec.SortKey, err)
		}
		txs = append(txs, &tx)
	}
	return txs, nil
}

// ListUsersInPeriod returns the distinct user IDs with at least one
// transaction in the period. Used by the worker to fan out generation.
func (s *TransactionStore) ListUsersInPeriod(ctx context.Context, periodKey string) ([]string, error) {
	recs, err := s.kv.QueryBySecondaryKey(ctx, periodKeyPrefix+periodKey)
	if err != nil {
		return nil, fmt.Errorf("ListUsersInPeriod: query: %w", err)
	}

	seen := make(map[string]bool)
	var users []string
	for _, rec := range recs {
		var tx domain.Transaction
		if err := json.Unmarshal(rec.Payload, &tx); err != nil {
			return nil, fmt.Errorf("ListUsersInPeriod: unmarshal %s: %w", rec.SortKey, err)
		}
		if !seen[tx.UserID] {
			seen[tx.UserID] = true
			users = append(users, tx.UserID)
		}
	}
	sort.Strings(users)
	return users, nil
}
