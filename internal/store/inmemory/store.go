package inmemory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/dvloznov/spending-insights/internal/store"
)

// Store is an in-memory implementation of store.KeyValueStore.
// It is safe for concurrent use. Data is lost on restart - production
// deployments use the BigQuery-backed adapter.
type Store struct {
	mu sync.RWMutex

	// partition key -> sort key -> record
	partitions map[string]map[string]*store.Record

	// secondary key -> composite (pk + "\x00" + sk) -> record
	secondary map[string]map[string]*store.Record
}

// NewStore creates an empty in-memory key-value store.
func NewStore() *Store {
	return &Store{
		partitions: make(map[string]map[string]*store.Record),
		secondary:  make(map[string]map[string]*store.Record),
	}
}

// Get implements store.KeyValueStore.
func (s *Store) Get(ctx context.Context, partitionKey, sortKey string) (*store.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.partitions[partitionKey][sortKey]
	if !ok {
		return nil, store.ErrNotFound
	}
	return copyRecord(rec), nil
}

// Put implements store.KeyValueStore. An existing record with the same keys
// is replaced, and its old secondary index entry removed.
func (s *Store) Put(ctx context.Context, rec *store.Record) error {
	if rec.PartitionKey == "" || rec.SortKey == "" {
		return store.ErrValidation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.partitions[rec.PartitionKey][rec.SortKey]; ok && prev.SecondaryKey != "" {
		delete(s.secondary[prev.SecondaryKey], compositeKey(prev))
	}

	stored := copyRecord(rec)
	if s.partitions[rec.PartitionKey] == nil {
		s.partitions[rec.PartitionKey] = make(map[string]*store.Record)
	}
	s.partitions[rec.PartitionKey][rec.SortKey] = stored

	if stored.SecondaryKey != "" {
		if s.secondary[stored.SecondaryKey] == nil {
			s.secondary[stored.SecondaryKey] = make(map[string]*store.Record)
		}
		s.secondary[stored.SecondaryKey][compositeKey(stored)] = stored
	}

	return nil
}

// QueryByPrefix implements store.KeyValueStore. Results are ordered by
// sort key.
func (s *Store) QueryByPrefix(ctx context.Context, partitionKey, sortKeyPrefix string) ([]*store.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*store.Record
	for sk, rec := range s.partitions[partitionKey] {
		if strings.HasPrefix(sk, sortKeyPrefix) {
			result = append(result, copyRecord(rec))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].SortKey < result[j].SortKey
	})
	return result, nil
}

// QueryBySecondaryKey implements store.KeyValueStore. Results are ordered by
// partition then sort key.
func (s *Store) QueryBySecondaryKey(ctx context.Context, secondaryKey string) ([]*store.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*store.Record
	for _, rec := range s.secondary[secondaryKey] {
		result = append(result, copyRecord(rec))
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].PartitionKey != result[j].PartitionKey {
			return result[i].PartitionKey < result[j].PartitionKey
		}
		return result[i].SortKey < result[j].SortKey
	})
	return result, nil
}

func compositeKey(rec *store.Record) string {
	return rec.PartitionKey + "\x00" + rec.SortKey
}

// copyRecord clones a record so callers cannot mutate stored state.
func copyRecord(rec *store.Record) *store.Record {
	cp := *rec
	cp.Payload = append([]byte(nil), rec.Payload...)
	return &cp
}

// Ensure Store implements the KeyValueStore interface.
var _ store.KeyValueStore = (*Store)(nil)
