package store

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"logshelf/config"
	"logshelf/internal/models"
)

func sampleRecords() []models.LogRecord {
	ts := time.Date(2022, 3, 16, 1, 25, 11, 194e6, time.UTC)
	return []models.LogRecord{
		{Timestamp: ts, Severity: "DEBUG", Logger: "a.b", Message: "first"},
		{Timestamp: ts.Add(-time.Hour), Severity: "ERROR", Logger: "c.d", Message: "second"},
	}
}

func TestMemoryStoreReplaceIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	for i := 0; i < 2; i++ {
		n, err := s.ReplaceLogRecords(ctx, sampleRecords())
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
	}

	got, err := s.ListLogRecords(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleRecords(), got)
}

func TestMemoryStoreReplaceDropsPreviousPass(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.ReplaceLogRecords(ctx, sampleRecords())
	require.NoError(t, err)
	_, err = s.ReplaceLogRecords(ctx, sampleRecords()[:1])
	require.NoError(t, err)

	got, err := s.ListLogRecords(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestMemoryStoreCopiesRecords(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	in := sampleRecords()
	_, err := s.ReplaceLogRecords(ctx, in)
	require.NoError(t, err)
	in[0].Message = "mutated"

	got, err := s.ListLogRecords(ctx)
	require.NoError(t, err)
	assert.Equal(t, "first", got[0].Message)

	got[1].Message = "mutated"
	again, err := s.ListLogRecords(ctx)
	require.NoError(t, err)
	assert.Equal(t, "second", again[1].Message)
}

func TestMemoryStoreEmptyListIsNotNil(t *testing.T) {
	got, err := NewMemoryStore().ListLogRecords(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestMemoryStoreClosed(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	s.Close()

	_, err := s.ReplaceLogRecords(ctx, sampleRecords())
	assert.ErrorIs(t, err, ErrPersistence)
	_, err = s.ListLogRecords(ctx)
	assert.ErrorIs(t, err, ErrPersistence)
	assert.ErrorIs(t, s.Ping(ctx), ErrPersistence)
}

func TestOpenSelectsDriver(t *testing.T) {
	logger := log.New(io.Discard, "", 0)

	st, err := Open(context.Background(), config.DatabaseConfig{Driver: config.DriverMemory}, logger)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, st)

	_, err = Open(context.Background(), config.DatabaseConfig{Driver: "sqlite"}, logger)
	assert.Error(t, err)
}
