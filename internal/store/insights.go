package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dvloznov/spending-insights/internal/domain"
)

// InsightStore persists and retrieves insights on top of a KeyValueStore.
// There is at most one insight per (user, period); Put replaces.
type InsightStore struct {
	kv KeyValueStore
}

// NewInsightStore creates an insight repository over the given backend.
func NewInsightStore(kv KeyValueStore) *InsightStore {
	return &InsightStore{kv: kv}
}

// GetInsight returns the stored insight for (userID, periodKey) or ErrNotFound.
func (s *InsightStore) GetInsight(ctx context.Context, userID, periodKey string) (*domain.Insight, error) {
	rec, err := s.kv.Get(ctx, userKeyPrefix+userID, insightKeyPrefix+periodKey)
	if err != nil {
		return nil, fmt.Errorf("GetInsight: get %s/%s: %w", userID, periodKey, err)
	}

	var insight domain.Insight
	if err := json.Unmarshal(rec.Payload, &insight); err != nil {
		return nil, fmt.Errorf("GetInsight: unmarshal: %w", err)
	}
	return &insight, nil
}

// PutInsight writes an insight, overwriting any prior record for its
// (user, period) key. Concurrent forced regenerations race benignly:
// last write wins.
func (s *InsightStore) PutInsight(ctx context.Context, insight *domain.Insight) error {
	if insight.UserID == "" || insight.PeriodKey == "" {
		return fmt.Errorf("PutInsight: missing user id or period key: %w", ErrValidation)
	}

	payload, err := json.Marshal(insight)
	if err != nil {
		return fmt.Errorf("PutInsight: marshal: %w", err)
	}

	rec := &Record{
		PartitionKey: userKeyPrefix + insight.UserID,
		SortKey:      insightKeyPrefix + insight.PeriodKey,
		SecondaryKey: periodKeyPrefix + insight.PeriodKey,
		Payload:      payload,
	}

	if err := s.kv.Put(ctx, rec); err != nil {
		return fmt.Errorf("PutInsight: put %s/%s: %w", insight.UserID, insight.PeriodKey, err)
	}
	return nil
}

// ListInsights returns all stored insights for a user, ordered by period key.
func (s *InsightStore) ListInsights(ctx context.Context, userID string) ([]*domain.Insight, error) {
	recs, err := s.kv.QueryByPrefix(ctx, userKeyPrefix+userID, insightKeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("ListInsights: query: %w", err)
	}

	insights := make([]*domain.Insight, 0, len(recs))
	for _, rec := range recs {
		var insight domain.Insight
		if err := json.Unmarshal(rec.Payload, &insight); err != nil {
			return nil, fmt.Errorf("ListInsights: unmarshal %s: %w", rec.SortKey, err)
		}
		insights = append(insights, &insight)
	}
	return insights, nil
}
