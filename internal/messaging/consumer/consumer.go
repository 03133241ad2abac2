package consumer

import (
	"context"
	"errors"

	"logshelf/internal/models"
)

// ErrClosed is returned by Consume once the consumer has been closed and drained.
var ErrClosed = errors.New("consumer closed")

// Consumer reads log records published after ingestion passes.
type Consumer interface {
	// Consume blocks until a record is received or the context is cancelled.
	// It returns the record, an acknowledgement callback, and any error that occurred.
	// ack(true) commits the offset; ack(false) leaves it for redelivery.
	Consume(ctx context.Context) (rec *models.LogRecord, ack func(success bool), err error)

	// Close gracefully shuts down the consumer connection.
	Close() error
}
