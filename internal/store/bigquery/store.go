package bigquery

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"

	"github.com/dvloznov/spending-insights/internal/store"
)

const recordsTable = "records"

// recordRow mirrors the insights.records table schema.
type recordRow struct {
	PartitionKey string    `bigquery:"partition_key"`
	SortKey      string    `bigquery:"sort_key"`
	SecondaryKey string    `bigquery:"secondary_key"`
	Payload      string    `bigquery:"payload"`
	UpdatedTS    time.Time `bigquery:"updated_ts"`
}

// Store is a BigQuery-backed implementation of store.KeyValueStore.
// All records live in a single table keyed by (partition_key, sort_key),
// with secondary_key available for cross-partition queries.
type Store struct {
	client    *bigquery.Client
	datasetID string
}

// NewStore creates a BigQuery-backed store for the given project and dataset.
func NewStore(ctx context.Context, projectID, datasetID string) (*Store, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewStore: bigquery client: %w", err)
	}
	return &Store{client: client, datasetID: datasetID}, nil
}

// Close releases the underlying BigQuery client.
func (s *Store) Close() error {
	return s.client.Close()
}

// Get implements store.KeyValueStore.
func (s *Store) Get(ctx context.Context, partitionKey, sortKey string) (*store.Record, error) {
	q := s.client.Query(fmt.Sprintf(`
		SELECT partition_key, sort_key, secondary_key, payload, updated_ts
		FROM %s.%s
		WHERE partition_key = @partition_key
		  AND sort_key = @sort_key
		LIMIT 1
	`, s.datasetID, recordsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "partition_key", Value: partitionKey},
		{Name: "sort_key", Value: sortKey},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("Get: query read: %w", classifyError(err))
	}

	var row recordRow
	err = it.Next(&row)
	if err == iterator.Done {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("Get: iter next: %w", classifyError(err))
	}

	return toRecord(&row), nil
}

// Put implements store.KeyValueStore. A MERGE replaces any existing record
// with the same keys in one statement.
func (s *Store) Put(ctx context.Context, rec *store.Record) error {
	if rec.PartitionKey == "" || rec.SortKey == "" {
		return store.ErrValidation
	}

	q := s.client.Query(fmt.Sprintf(`
		MERGE %s.%s T
		USING (
			SELECT
				@partition_key AS partition_key,
				@sort_key AS sort_key,
				@secondary_key AS secondary_key,
				@payload AS payload,
				@updated_ts AS updated_ts
		) S
		ON T.partition_key = S.partition_key AND T.sort_key = S.sort_key
		WHEN MATCHED THEN UPDATE SET
			secondary_key = S.secondary_key,
			payload = S.payload,
			updated_ts = S.updated_ts
		WHEN NOT MATCHED THEN INSERT (partition_key, sort_key, secondary_key, payload, updated_ts)
		VALUES (S.partition_key, S.sort_key, S.secondary_key, S.payload, S.updated_ts)
	`, s.datasetID, recordsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "partition_key", Value: rec.PartitionKey},
		{Name: "sort_key", Value: rec.SortKey},
		{Name: "secondary_key", Value: rec.SecondaryKey},
		{Name: "payload", Value: string(rec.Payload)},
		{Name: "updated_ts", Value: time.Now().UTC()},
	}

	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("Put: running merge: %w", classifyError(err))
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("Put: waiting for job: %w", classifyError(err))
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("Put: job error: %w", classifyError(err))
	}

	return nil
}

// QueryByPrefix implements store.KeyValueStore.
func (s *Store) QueryByPrefix(ctx context.Context, partitionKey, sortKeyPrefix string) ([]*store.Record, error) {
	q := s.client.Query(fmt.Sprintf(`
		SELECT partition_key, sort_key, secondary_key, payload, updated_ts
		FROM %s.%s
		WHERE partition_key = @partition_key
		  AND STARTS_WITH(sort_key, @sort_key_prefix)
		ORDER BY sort_key
	`, s.datasetID, recordsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "partition_key", Value: partitionKey},
		{Name: "sort_key_prefix", Value: sortKeyPrefix},
	}

	return s.readAll(ctx, q, "QueryByPrefix")
}

// QueryBySecondaryKey implements store.KeyValueStore.
func (s *Store) QueryBySecondaryKey(ctx context.Context, secondaryKey string) ([]*store.Record, error) {
	q := s.client.Query(fmt.Sprintf(`
		SELECT partition_key, sort_key, secondary_key, payload, updated_ts
		FROM %s.%s
		WHERE secondary_key = @secondary_key
		ORDER BY partition_key, sort_key
	`, s.datasetID, recordsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "secondary_key", Value: secondaryKey},
	}

	return s.readAll(ctx, q, "QueryBySecondaryKey")
}

func (s *Store) readAll(ctx context.Context, q *bigquery.Query, op string) ([]*store.Record, error) {
	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: query read: %w", op, classifyError(err))
	}

	var recs []*store.Record
	for {
		var row recordRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: iter next: %w", op, classifyError(err))
		}
		recs = append(recs, toRecord(&row))
	}
	return recs, nil
}

func toRecord(row *recordRow) *store.Record {
	return &store.Record{
		PartitionKey: row.PartitionKey,
		SortKey:      row.SortKey,
		SecondaryKey: row.SecondaryKey,
		Payload:      []byte(row.Payload),
	}
}

// classifyError maps backend errors onto the typed store error surface so
// callers never have to inspect googleapi codes.
func classifyError(err error) error {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return err
	}

	switch apiErr.Code {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %v", store.ErrNotFound, err)
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %v", store.ErrValidation, err)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %v", store.ErrThroughputExceeded, err)
	case http.StatusConflict, http.StatusPreconditionFailed:
		return fmt.Errorf("%w: %v", store.ErrConditionalCheckFailed, err)
	default:
		return err
	}
}

// Ensure Store implements the KeyValueStore interface.
var _ store.KeyValueStore = (*Store)(nil)
