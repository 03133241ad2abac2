package store

import (
	"context"
	"fmt"
	"sync"

	"logshelf/internal/models"
)

// MemoryStore keeps records in process memory. Used for tests and for running
// the service without a database.
type MemoryStore struct {
	mu      sync.RWMutex
	records []models.LogRecord
	closed  bool
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// ReplaceLogRecords swaps in a copy of records.
func (m *MemoryStore) ReplaceLogRecords(ctx context.Context, records []models.LogRecord) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	next := make([]models.LogRecord, len(records))
	copy(next, records)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, errClosed
	}
	m.records = next
	return int64(len(next)), nil
}

// ListLogRecords returns a copy of the stored records.
func (m *MemoryStore) ListLogRecords(ctx context.Context) ([]models.LogRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, errClosed
	}
	out := make([]models.LogRecord, len(m.records))
	copy(out, m.records)
	return out, nil
}

// Ping reports whether the store is still open.
func (m *MemoryStore) Ping(_ context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return errClosed
	}
	return nil
}

// Close marks the store closed; later calls fail with ErrPersistence.
func (m *MemoryStore) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
}

var errClosed = fmt.Errorf("%w: memory store closed", ErrPersistence)

var _ Store = (*MemoryStore)(nil)
