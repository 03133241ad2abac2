package producer

import (
	"context"
	"log"
	"sync"

	"logshelf/internal/models"
)

// MockProducer records published batches in memory instead of sending them.
// Used when Kafka is disabled (brokers: ["mock://local"]) and in tests.
type MockProducer struct {
	logger *log.Logger

	mu      sync.Mutex
	batches [][]models.LogRecord
	err     error
	closed  bool
}

// NewMockProducer creates a MockProducer.
func NewMockProducer(logger *log.Logger) *MockProducer {
	logger.Println("[MockProducer] Kafka disabled, published records stay in memory")
	return &MockProducer{logger: logger}
}

// FailWith makes every following PublishBatch return err (nil restores success).
func (m *MockProducer) FailWith(err error) {
	m.mu.Lock()
	m.err = err
	m.mu.Unlock()
}

// PublishBatch stores a copy of records.
func (m *MockProducer) PublishBatch(ctx context.Context, records []models.LogRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		m.logger.Printf("[MockProducer] Rejecting batch of %d records: %v", len(records), m.err)
		return m.err
	}

	batch := make([]models.LogRecord, len(records))
	copy(batch, records)
	m.batches = append(m.batches, batch)
	m.logger.Printf("[MockProducer] Published batch of %d records", len(records))
	return nil
}

// Batches returns every batch published so far.
func (m *MockProducer) Batches() [][]models.LogRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]models.LogRecord, len(m.batches))
	copy(out, m.batches)
	return out
}

// Close marks the producer closed.
func (m *MockProducer) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	m.logger.Println("[MockProducer] Closing...")
	return nil
}

var _ Producer = (*MockProducer)(nil)
