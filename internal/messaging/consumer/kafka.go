package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"logshelf/config"
	"logshelf/internal/models"

	"github.com/segmentio/kafka-go"
)

// KafkaConsumer implements the Consumer interface on the records topic
type KafkaConsumer struct {
	reader *kafka.Reader
	logger *log.Logger
}

// NewKafkaConsumer creates a new KafkaConsumer instance
func NewKafkaConsumer(cfg config.KafkaConsumerConfig, logger *log.Logger) (*KafkaConsumer, error) {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" || cfg.GroupID == "" {
		return nil, errors.New("incomplete kafka configuration: brokers, topic, group_id are all required")
	}

	readerConfig := kafka.ReaderConfig{
		Brokers:           cfg.Brokers,
		GroupID:           cfg.GroupID,
		Topic:             cfg.Topic,
		MinBytes:          1,
		MaxBytes:          10e6,            // 10MB
		MaxWait:           1 * time.Second, // Max wait time for message fetch
		SessionTimeout:    cfg.SessionTimeout,
		HeartbeatInterval: cfg.HeartbeatInterval,
		StartOffset:       kafka.FirstOffset,
	}

	switch cfg.AutoOffsetReset {
	case "latest":
		readerConfig.StartOffset = kafka.LastOffset
	case "earliest", "":
		readerConfig.StartOffset = kafka.FirstOffset
	default:
		logger.Printf("Warning: Unknown auto_offset_reset '%s', using earliest", cfg.AutoOffsetReset)
	}

	r := kafka.NewReader(readerConfig)

	logger.Printf("Kafka consumer created, connected to Brokers: %v, Topic: %s, GroupID: %s", cfg.Brokers, cfg.Topic, cfg.GroupID)

	return &KafkaConsumer{
		reader: r,
		logger: logger,
	}, nil
}

// Consume implements the Consumer interface by reading messages from Kafka
func (k *KafkaConsumer) Consume(ctx context.Context) (*models.LogRecord, func(success bool), error) {
	kafkaMsg, err := k.reader.FetchMessage(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}
		return nil, nil, err
	}

	var rec models.LogRecord
	if err := json.Unmarshal(kafkaMsg.Value, &rec); err != nil {
		k.logger.Printf("Kafka consumer: Failed to deserialize message (Offset: %d): %v. Message will be discarded.", kafkaMsg.Offset, err)
		_ = k.reader.CommitMessages(ctx, kafkaMsg) // Commit offset to avoid blocking
		return nil, nil, fmt.Errorf("message deserialization failed: %w", err)
	}

	ackCallback := func(success bool) {
		if !success {
			k.logger.Printf("Kafka consumer: NACK received for offset %d. Offset will not be committed.", kafkaMsg.Offset)
			return
		}
		if err := k.reader.CommitMessages(context.Background(), kafkaMsg); err != nil {
			k.logger.Printf("Kafka consumer: Failed to commit offset %d: %v", kafkaMsg.Offset, err)
		}
	}

	return &rec, ackCallback, nil
}

// Close implements the Consumer interface by closing the Kafka reader
func (k *KafkaConsumer) Close() error {
	k.logger.Println("Closing Kafka consumer...")
	return k.reader.Close()
}

// Ensure KafkaConsumer implements the Consumer interface
var _ Consumer = (*KafkaConsumer)(nil)
