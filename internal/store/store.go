package store

import (
	"context"
)

// Record is one stored row. The key scheme (what goes into each key) is owned
// by the typed repositories in this package; adapters only move records.
type Record struct {
	// PartitionKey groups records that are read together, e.g. one user.
	PartitionKey string

	// SortKey orders records within a partition and supports prefix queries.
	SortKey string

	// SecondaryKey is an optional cross-partition index value.
	SecondaryKey string

	// Payload is the JSON-encoded entity.
	Payload []byte
}

// KeyValueStore is the persistence contract. Implementations live in the
// inmemory and bigquery subpackages; pipeline code never sees key encoding
// or backend details.
type KeyValueStore interface {
	// Get returns the record at (partitionKey, sortKey) or ErrNotFound.
	Get(ctx context.Context, partitionKey, sortKey string) (*Record, error)

	// Put writes a record, replacing any existing record with the same keys.
	Put(ctx context.Context, rec *Record) error

	// QueryByPrefix returns all records in a partition whose sort key starts
	// with the given prefix, ordered by sort key.
	QueryByPrefix(ctx context.Context, partitionKey, sortKeyPrefix string) ([]*Record, error)

	// QueryBySecondaryKey returns all records with the given secondary key,
	// across partitions.
	QueryBySecondaryKey(ctx context.Context, secondaryKey string) ([]*Record, error)
}
