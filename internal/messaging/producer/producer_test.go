package producer

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"logshelf/config"
	"logshelf/internal/models"
)

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestMockProducerKeepsBatches(t *testing.T) {
	p := NewMockProducer(discardLogger())
	recs := []models.LogRecord{{Timestamp: time.Unix(0, 0).UTC(), Severity: "INFO", Logger: "a", Message: "m"}}

	require.NoError(t, p.PublishBatch(context.Background(), recs))
	recs[0].Message = "changed"

	batches := p.Batches()
	require.Len(t, batches, 1)
	assert.Equal(t, "m", batches[0][0].Message)
}

func TestMockProducerFailWith(t *testing.T) {
	p := NewMockProducer(discardLogger())
	boom := errors.New("broker down")
	p.FailWith(boom)

	assert.ErrorIs(t, p.PublishBatch(context.Background(), nil), boom)
	assert.Empty(t, p.Batches())

	p.FailWith(nil)
	assert.NoError(t, p.PublishBatch(context.Background(), nil))
}

func TestNewKafkaProducerRequiresBrokersAndTopic(t *testing.T) {
	_, err := NewKafkaProducer(config.KafkaProducerConfig{Topic: "t"}, discardLogger())
	require.Error(t, err)

	_, err = NewKafkaProducer(config.KafkaProducerConfig{Brokers: []string{"localhost:9092"}}, discardLogger())
	require.Error(t, err)
}

func TestNewKafkaProducerDefaults(t *testing.T) {
	p, err := NewKafkaProducer(config.KafkaProducerConfig{Brokers: []string{"localhost:9092"}, Topic: "log-records"}, discardLogger())
	require.NoError(t, err)
	defer p.Close()

	assert.Equal(t, 100, p.batchSize)
	assert.Equal(t, "log-records", p.writer.Topic)
	assert.True(t, p.writer.Async)
	assert.Equal(t, 5*time.Second, p.writer.WriteTimeout)
}

func TestNewSelectsProducer(t *testing.T) {
	p, err := New(config.KafkaProducerConfig{Brokers: []string{config.MockBroker}}, discardLogger())
	require.NoError(t, err)
	assert.IsType(t, &MockProducer{}, p)

	p, err = New(config.KafkaProducerConfig{Brokers: []string{"localhost:9092"}, Topic: "log-records"}, discardLogger())
	require.NoError(t, err)
	assert.IsType(t, &KafkaProducer{}, p)
	assert.NoError(t, p.Close())
}
