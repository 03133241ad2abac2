package consumer

import (
	"context"
	"log"
	"sync"

	"logshelf/internal/models"
)

// MockConsumer replays a fixed set of records. NACKed records are re-queued.
type MockConsumer struct {
	logger   *log.Logger
	messages chan *models.LogRecord

	mu     sync.Mutex
	acked  int
	closed bool
}

// NewMockConsumer creates a MockConsumer preloaded with records.
func NewMockConsumer(records []models.LogRecord, logger *log.Logger) *MockConsumer {
	mc := &MockConsumer{
		logger:   logger,
		messages: make(chan *models.LogRecord, len(records)+5),
	}
	for i := range records {
		rec := records[i]
		mc.messages <- &rec
	}
	logger.Printf("[MockConsumer] Loaded %d records", len(records))
	return mc
}

// Consume reads the next queued record.
func (m *MockConsumer) Consume(ctx context.Context) (*models.LogRecord, func(success bool), error) {
	select {
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	case rec, ok := <-m.messages:
		if !ok {
			return nil, nil, ErrClosed
		}

		ackCallback := func(success bool) {
			m.mu.Lock()
			defer m.mu.Unlock()
			if success {
				m.acked++
				return
			}
			if m.closed {
				m.logger.Printf("[MockConsumer] NACK after close, dropping record from %s", rec.Logger)
				return
			}
			select {
			case m.messages <- rec:
			default:
				m.logger.Printf("[MockConsumer] Warning: Failed to re-queue record (channel full?)")
			}
		}
		return rec, ackCallback, nil
	}
}

// Acked returns how many records were acknowledged.
func (m *MockConsumer) Acked() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.acked
}

// Close stops accepting re-queues; records already queued are still delivered.
func (m *MockConsumer) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.messages)
	}
	return nil
}

var _ Consumer = (*MockConsumer)(nil)
