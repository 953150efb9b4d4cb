package store

import (
	"errors"
)

// Store failures are classified into a small typed surface so callers can
// branch with errors.Is instead of matching on backend-specific error text.
var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("store: record not found")

	// ErrValidation indicates the record or key was rejected by the backend.
	ErrValidation = errors.New("store: validation failed")

	// ErrThroughputExceeded indicates the backend is throttling writes or reads.
	ErrThroughputExceeded = errors.New("store: throughput exceeded")

	// ErrConditionalCheckFailed indicates a conditional write lost to a
	// concurrent update.
	ErrConditionalCheckFailed = errors.New("store: conditional check failed")
)
