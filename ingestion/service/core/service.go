package service

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"logshelf/ingestion/parser"
	"logshelf/ingestion/source"
	"logshelf/internal/messaging/producer"
	"logshelf/internal/models"
	"logshelf/storage/store"

	"github.com/google/uuid"
)

// IngestResult summarizes one ingestion pass
type IngestResult struct {
	PassID              string
	Lines               int
	Stored              int64
	MalformedTimestamps int
	DroppedLines        int
	Queued              int
	Duration            time.Duration
}

// Service ties the log file, the assembler and the store together
type Service struct {
	store     store.Store
	source    *source.FileSource
	assembler *parser.Assembler
	publisher *Publisher
	logger    *log.Logger

	// passMu serializes ingestion passes within the process
	passMu sync.Mutex
}

// NewService creates a new Service instance. A nil producer disables publishing.
func NewService(s store.Store, src *source.FileSource, p producer.Producer, l *log.Logger,
	batchSize int, batchTimeout time.Duration, flushChannelBuffer int) *Service {

	svc := &Service{
		store:     s,
		source:    src,
		assembler: parser.NewAssembler(parser.NewParser(), l),
		logger:    l,
	}
	if p != nil {
		svc.publisher = NewPublisher(batchSize, batchTimeout, flushChannelBuffer, p, l)
	}
	return svc
}

// StoreLogs reads the whole log file, assembles it into records and replaces the
// stored records with them. Nothing is persisted unless the file was read to the
// end without error.
func (s *Service) StoreLogs(ctx context.Context) (*IngestResult, error) {
	s.passMu.Lock()
	defer s.passMu.Unlock()

	start := time.Now()
	passID := uuid.NewString()

	reader, err := s.source.Open()
	if err != nil {
		return nil, fmt.Errorf("pass %s: %w", passID, err)
	}
	defer reader.Close()

	res, err := s.assembler.Assemble(ctx, reader)
	if err != nil {
		return nil, fmt.Errorf("pass %s: %w", passID, err)
	}

	stored, err := s.store.ReplaceLogRecords(ctx, res.Records)
	if err != nil {
		return nil, fmt.Errorf("pass %s: %w", passID, err)
	}

	result := &IngestResult{
		PassID:              passID,
		Lines:               res.Lines,
		Stored:              stored,
		MalformedTimestamps: res.Count(parser.EventMalformedTimestamp),
		DroppedLines:        res.Count(parser.EventUnattachableContinuation),
		Duration:            time.Since(start),
	}

	if s.publisher != nil {
		s.publisher.Submit(res.Records)
		result.Queued = len(res.Records)
	}

	s.logger.Printf("Service: pass %s stored %d records from %d lines (malformed timestamps: %d, dropped lines: %d) in %v",
		passID, stored, result.Lines, result.MalformedTimestamps, result.DroppedLines, result.Duration)

	return result, nil
}

// ListLogs returns every stored record in file order
func (s *Service) ListLogs(ctx context.Context) ([]models.LogRecord, error) {
	return s.store.ListLogRecords(ctx)
}

// Ping checks the store
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Stats returns the publisher counters; zero when publishing is disabled
func (s *Service) Stats() PublisherStats {
	if s.publisher == nil {
		return PublisherStats{}
	}
	return s.publisher.Stats()
}

// Close gracefully shuts down the service
func (s *Service) Close() {
	if s.publisher != nil {
		s.publisher.Close()
	}
}
