package store

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"logshelf/config"
	"logshelf/internal/models"
)

var logColumns = []string{"position", "timestamp", "severity", "logger", "message"}

// PostgresStore implements Store on a pgx connection pool.
type PostgresStore struct {
	pool   *pgxpool.Pool
	table  pgx.Identifier
	logger *log.Logger
}

// NewPostgresStore connects to PostgreSQL and, when cfg.CreateTable is set,
// creates the log table if it does not exist yet.
func NewPostgresStore(ctx context.Context, cfg config.DatabaseConfig, logger *log.Logger) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("%w: parse database DSN: %w", ErrPersistence, err)
	}
	poolCfg.MaxConns = int32(cfg.MaxConnections)
	poolCfg.MinConns = int32(cfg.MinConnections)

	if d, err := time.ParseDuration(cfg.MaxIdleTime); err == nil {
		poolCfg.MaxConnIdleTime = d
	} else {
		logger.Printf("Warning: Invalid max_idle_time '%s', keeping pool default", cfg.MaxIdleTime)
	}
	if d, err := time.ParseDuration(cfg.MaxLifetime); err == nil {
		poolCfg.MaxConnLifetime = d
	} else {
		logger.Printf("Warning: Invalid max_lifetime '%s', keeping pool default", cfg.MaxLifetime)
	}

	pool, err := pgxpool.ConnectConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("%w: connect to database: %w", ErrPersistence, err)
	}

	s := &PostgresStore{
		pool:   pool,
		table:  pgx.Identifier{cfg.Table},
		logger: logger,
	}

	if err := s.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	if cfg.CreateTable {
		if err := s.createTable(ctx); err != nil {
			pool.Close()
			return nil, err
		}
	}

	logger.Printf("PostgreSQL store ready (table %s, max_conns=%d, min_conns=%d)", s.table.Sanitize(), cfg.MaxConnections, cfg.MinConnections)
	return s, nil
}

func (s *PostgresStore) createTable(ctx context.Context) error {
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	position    BIGINT      NOT NULL,
	"timestamp" TIMESTAMPTZ NOT NULL,
	severity    TEXT        NOT NULL,
	logger      TEXT        NOT NULL,
	message     TEXT        NOT NULL
)`, s.table.Sanitize())

	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("%w: create table %s: %w", ErrPersistence, s.table.Sanitize(), err)
	}
	return nil
}

// ReplaceLogRecords deletes the previous pass and bulk-inserts records in a
// single transaction. Concurrent passes are serialized on a transaction-scoped
// advisory lock keyed by the table name; readers keep seeing the previous pass
// until commit.
func (s *PostgresStore) ReplaceLogRecords(ctx context.Context, records []models.LogRecord) (int64, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: begin transaction: %w", ErrPersistence, err)
	}
	// No-op after a successful commit
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", s.table.Sanitize()); err != nil {
		return 0, fmt.Errorf("%w: acquire ingestion lock: %w", ErrPersistence, err)
	}

	if _, err := tx.Exec(ctx, "DELETE FROM "+s.table.Sanitize()); err != nil {
		return 0, fmt.Errorf("%w: clear previous pass: %w", ErrPersistence, err)
	}

	rows := make([][]interface{}, len(records))
	for i, r := range records {
		rows[i] = []interface{}{int64(i), r.Timestamp.UTC(), r.Severity, r.Logger, r.Message}
	}

	copied, err := tx.CopyFrom(ctx, s.table, logColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, fmt.Errorf("%w: copy %d records: %w", ErrPersistence, len(records), err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("%w: commit transaction: %w", ErrPersistence, err)
	}
	return copied, nil
}

// ListLogRecords returns all rows ordered by their position in the pass.
func (s *PostgresStore) ListLogRecords(ctx context.Context) ([]models.LogRecord, error) {
	query := fmt.Sprintf(`SELECT "timestamp", severity, logger, message FROM %s ORDER BY position`, s.table.Sanitize())

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: query log records: %w", ErrPersistence, err)
	}
	defer rows.Close()

	records := make([]models.LogRecord, 0)
	for rows.Next() {
		var r models.LogRecord
		if err := rows.Scan(&r.Timestamp, &r.Severity, &r.Logger, &r.Message); err != nil {
			return nil, fmt.Errorf("%w: scan log record: %w", ErrPersistence, err)
		}
		r.Timestamp = r.Timestamp.UTC()
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate log records: %w", ErrPersistence, err)
	}
	return records, nil
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("%w: ping database: %w", ErrPersistence, err)
	}
	return nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() {
	s.logger.Println("Closing PostgreSQL connection pool...")
	s.pool.Close()
}

var _ Store = (*PostgresStore)(nil) // Compile-time interface check
