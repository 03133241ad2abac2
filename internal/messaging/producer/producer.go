package producer

import (
	"context"
	"log"

	"logshelf/config"
	"logshelf/internal/models"
)

// Producer defines the interface for publishing stored log records downstream
type Producer interface {
	// PublishBatch sends log records, in order, to the configured topic
	PublishBatch(ctx context.Context, records []models.LogRecord) error

	// Close closes the producer connection
	Close() error
}

// New returns a KafkaProducer when brokers are configured and a MockProducer otherwise
func New(cfg config.KafkaProducerConfig, logger *log.Logger) (Producer, error) {
	if !cfg.Enabled() {
		return NewMockProducer(logger), nil
	}
	return NewKafkaProducer(cfg, logger)
}
