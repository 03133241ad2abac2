package producer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/segmentio/kafka-go"

	"logshelf/config"
	"logshelf/internal/models"
)

// KafkaProducer implements the Producer interface
type KafkaProducer struct {
	writer    *kafka.Writer
	logger    *log.Logger
	topic     string
	batchSize int
}

// NewKafkaProducer creates a new KafkaProducer
func NewKafkaProducer(cfg config.KafkaProducerConfig, logger *log.Logger) (*KafkaProducer, error) {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" {
		return nil, errors.New("kafka producer configuration incomplete: both brokers and topic are required")
	}

	// Set defaults for batch settings if not configured
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 100 // Default batch size
	}

	batchTimeout := cfg.BatchTimeout
	if batchTimeout == 0 {
		batchTimeout = 100 * time.Millisecond // Default batch timeout
	}

	batchBytes := cfg.BatchBytes
	if batchBytes == 0 {
		batchBytes = 5 * 1024 * 1024 // Default 5MB
	}

	// Parse required_acks setting
	var requiredAcks kafka.RequiredAcks
	switch cfg.RequiredAcks {
	case "none":
		requiredAcks = kafka.RequireNone
	case "one":
		requiredAcks = kafka.RequireOne
	case "all":
		requiredAcks = kafka.RequireAll
	default:
		requiredAcks = kafka.RequireOne // Default to wait for leader
	}

	// Set async default if not configured
	asyncMode := cfg.Async
	if !cfg.Async && cfg.RequiredAcks == "" {
		asyncMode = true // Default to async mode
	}

	// Set timeouts if not configured
	writeTimeout := cfg.WriteTimeout
	if writeTimeout == 0 {
		writeTimeout = 5 * time.Second
	}

	readTimeout := cfg.ReadTimeout
	if readTimeout == 0 {
		readTimeout = 5 * time.Second
	}

	// Configure Kafka Writer
	w := &kafka.Writer{
		Addr:     kafka.TCP(cfg.Brokers...),
		Topic:    cfg.Topic,
		Balancer: &kafka.Hash{}, // Same logger, same partition

		BatchSize:    batchSize,
		BatchTimeout: batchTimeout,
		BatchBytes:   int64(batchBytes),

		// Reliability settings
		RequiredAcks: requiredAcks,
		Async:        asyncMode,

		// Performance settings
		WriteTimeout: writeTimeout,
		ReadTimeout:  readTimeout,

		// Error handling
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			logger.Printf("Kafka Writer Error: "+msg, args...)
		}),
	}

	logger.Printf("Kafka producer created, connected to Brokers: %v, Topic: %s", cfg.Brokers, cfg.Topic)

	return &KafkaProducer{
		writer:    w,
		logger:    logger,
		topic:     cfg.Topic,
		batchSize: batchSize,
	}, nil
}

// PublishBatch sends log records in chunks of batchSize, keyed by logger name so
// records of one component land on one partition in order
func (p *KafkaProducer) PublishBatch(ctx context.Context, records []models.LogRecord) error {
	for start := 0; start < len(records); start += p.batchSize {
		end := start + p.batchSize
		if end > len(records) {
			end = len(records)
		}

		kafkaMsgs := make([]kafka.Message, 0, end-start)
		for _, rec := range records[start:end] {
			msgBytes, err := json.Marshal(rec)
			if err != nil {
				return fmt.Errorf("failed to serialize log record (logger: %s): %w", rec.Logger, err)
			}
			kafkaMsgs = append(kafkaMsgs, kafka.Message{
				Key:   []byte(rec.Logger),
				Value: msgBytes,
				Time:  rec.Timestamp,
			})
		}

		if err := p.writer.WriteMessages(ctx, kafkaMsgs...); err != nil {
			p.logger.Printf("Failed to send Kafka messages in batch (offset: %d, count: %d): %v", start, len(kafkaMsgs), err)
			return fmt.Errorf("failed to batch write to Kafka buffer: %w", err)
		}
	}

	p.logger.Printf("Successfully added %d Kafka messages to send queue (Topic: %s)", len(records), p.topic)
	return nil
}

// Close closes the producer
func (p *KafkaProducer) Close() error {
	p.logger.Println("Closing Kafka producer (and flushing buffer)...")
	return p.writer.Close() // Close will attempt to send remaining messages in buffer
}

var _ Producer = (*KafkaProducer)(nil) // Compile-time interface check
