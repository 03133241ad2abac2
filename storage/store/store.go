package store

import (
	"context"
	"errors"
	"fmt"
	"log"

	"logshelf/config"
	"logshelf/internal/models"
)

// ErrPersistence wraps every failure of the storage backend.
var ErrPersistence = errors.New("persistence failure")

// Store is the ingestion/query boundary for assembled log records.
//
// ReplaceLogRecords uses full-replace semantics: a pass removes whatever the
// previous pass stored and inserts its own records, atomically. Storing the
// same file twice therefore leaves the same rows behind. A failed call leaves
// the previous contents untouched.
type Store interface {
	// ReplaceLogRecords persists one ingestion pass, in order, and returns the number of rows stored.
	ReplaceLogRecords(ctx context.Context, records []models.LogRecord) (int64, error)

	// ListLogRecords returns every stored record in pass order.
	ListLogRecords(ctx context.Context) ([]models.LogRecord, error)

	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases backend resources.
	Close()
}

// Open creates the store selected by cfg.Driver.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *log.Logger) (Store, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		logger.Println("Using in-memory store, records are lost on restart")
		return NewMemoryStore(), nil
	case config.DriverPostgres, "":
		return NewPostgresStore(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
}
