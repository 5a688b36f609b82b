// Package archive stores raw feed payloads so a collection run can be
// audited or replayed after the upstream feed has moved on.
package archive

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound   = errors.New("snapshot not found")
	ErrInvalidKey = errors.New("invalid snapshot key")
)

// Snapshot describes one archived feed payload.
type Snapshot struct {
	Key      string    `json:"key"`
	Size     int64     `json:"size"`
	StoredAt time.Time `json:"stored_at"`
}

// Archiver persists raw feed documents keyed by source and capture time.
type Archiver interface {
	// Store saves a payload under the given key, replacing any previous
	// snapshot with the same key.
	Store(ctx context.Context, key string, data []byte) error

	// Retrieve returns the payload stored under the given key.
	Retrieve(ctx context.Context, key string) ([]byte, error)

	// List returns snapshots whose key starts with the given prefix,
	// ordered by key.
	List(ctx context.Context, prefix string) ([]Snapshot, error)

	// Close releases any resources held by the archive.
	Close() error
}

// ArchiveError carries the failed operation and key alongside the cause.
type ArchiveError struct {
	Op        string
	Key       string
	Err       error
	Retryable bool
}

func (e *ArchiveError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("archive %s failed for key %q: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("archive %s failed: %v", e.Op, e.Err)
}

func (e *ArchiveError) Unwrap() error {
	return e.Err
}

func newArchiveError(op, key string, err error, retryable bool) *ArchiveError {
	return &ArchiveError{Op: op, Key: key, Err: err, Retryable: retryable}
}

// IsNotFound returns true if the error indicates a missing snapshot
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsRetryable returns true if the failed operation may succeed when
// attempted again.
func IsRetryable(err error) bool {
	var archiveErr *ArchiveError
	if errors.As(err, &archiveErr) {
		return archiveErr.Retryable
	}
	return false
}
