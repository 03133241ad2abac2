package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// SourceConfig defines where the log file is read from
type SourceConfig struct {
	Path         string `yaml:"path"`           // Log file to ingest on every pass
	MaxLineBytes int    `yaml:"max_line_bytes"` // Longest accepted physical line
}

// SetDefaults sets reasonable default values for the source configuration
func (c *SourceConfig) SetDefaults() {
	if c.MaxLineBytes <= 0 {
		c.MaxLineBytes = 1 << 20
		fmt.Printf("Warning: source.max_line_bytes not set or invalid, defaulting to %d\n", c.MaxLineBytes)
	}
}

// KafkaProducerConfig defines configuration for the Kafka producer that
// publishes records after each committed pass
type KafkaProducerConfig struct {
	Brokers []string `yaml:"brokers"` // Empty or ["mock://local"] disables Kafka
	Topic   string   `yaml:"topic"`

	// Batch processing settings
	BatchSize    int           `yaml:"batch_size"`
	BatchTimeout time.Duration `yaml:"batch_timeout"`
	BatchBytes   int           `yaml:"batch_bytes"`

	// Reliability settings
	RequiredAcks string `yaml:"required_acks"`
	Async        bool   `yaml:"async"`

	// Performance settings
	WriteTimeout time.Duration `yaml:"write_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
}

// MockBroker selects the in-process producer instead of Kafka.
const MockBroker = "mock://local"

// Enabled reports whether a real Kafka cluster is configured.
func (c *KafkaProducerConfig) Enabled() bool {
	return len(c.Brokers) > 0 && c.Brokers[0] != MockBroker
}

// KafkaConsumerConfig defines configuration for following the records topic
type KafkaConsumerConfig struct {
	Brokers           []string      `yaml:"brokers"`            // e.g., ["kafka1:9092", "kafka2:9092"]
	Topic             string        `yaml:"topic"`              // Topic to consume from
	GroupID           string        `yaml:"group_id"`           // Consumer group ID
	SessionTimeout    time.Duration `yaml:"session_timeout"`    // Kafka session timeout
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"` // Kafka heartbeat interval
	AutoOffsetReset   string        `yaml:"auto_offset_reset"`  // earliest/latest
	RetryDelay        time.Duration `yaml:"retry_delay"`        // Delay after a failed fetch
}

// SetDefaults sets reasonable default values for Kafka consumer configuration
func (c *KafkaConsumerConfig) SetDefaults() {
	if c.SessionTimeout <= 0 {
		c.SessionTimeout = 30 * time.Second
	}
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = 3 * time.Second
	}
	if c.AutoOffsetReset == "" {
		c.AutoOffsetReset = "earliest"
		fmt.Printf("Warning: kafka_consumer.auto_offset_reset not set, defaulting to %s\n", c.AutoOffsetReset)
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = 5 * time.Second
	}
}

// PublisherConfig defines how committed records are batched for the producer
type PublisherConfig struct {
	BatchSize          int           `yaml:"batch_size"`           // Records per flushed batch
	BatchTimeout       time.Duration `yaml:"batch_timeout"`        // Flush interval for partial batches
	FlushChannelBuffer int           `yaml:"flush_channel_buffer"` // Batches queued ahead of the producer
}

// SetDefaults sets reasonable default values for publisher configuration
func (c *PublisherConfig) SetDefaults() {
	if c.BatchSize <= 0 {
		c.BatchSize = 500
		fmt.Printf("Warning: publisher.batch_size not set or invalid, defaulting to %d\n", c.BatchSize)
	}
	if c.BatchTimeout <= 0 {
		c.BatchTimeout = 100 * time.Millisecond
	}
	if c.FlushChannelBuffer <= 0 {
		c.FlushChannelBuffer = 16
	}
}

// HttpServerConfig defines HTTP server configuration
type HttpServerConfig struct {
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	MaxHeaderBytes int           `yaml:"max_header_bytes"`
}

// SetDefaults sets reasonable default values for HTTP server configuration
func (c *HttpServerConfig) SetDefaults() {
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 5 * time.Second
	}
	if c.WriteTimeout == 0 {
		// A pass over a large file runs inside the request
		c.WriteTimeout = 60 * time.Second
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60 * time.Second
	}
	if c.MaxHeaderBytes == 0 {
		c.MaxHeaderBytes = 1 << 20 // 1 MB
	}
}

// CORSConfig defines which browser origins may call the HTTP API
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"` // "*" allows any origin
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
	MaxAge         int      `yaml:"max_age"` // Preflight cache, seconds
}

// SetDefaults sets reasonable default values for CORS configuration
func (c *CORSConfig) SetDefaults() {
	if len(c.AllowedMethods) == 0 {
		c.AllowedMethods = []string{"GET", "POST", "OPTIONS"}
	}
	if len(c.AllowedHeaders) == 0 {
		c.AllowedHeaders = []string{"Content-Type"}
	}
	if c.MaxAge == 0 {
		c.MaxAge = 600
	}
}

// IngestionConfig defines all configuration required for the ingestion service
type IngestionConfig struct {
	HttpListenAddr string `yaml:"http_listen_addr"`
	GrpcListenAddr string `yaml:"grpc_listen_addr"`

	Source        SourceConfig        `yaml:"source"`
	Database      DatabaseConfig      `yaml:"database"`
	KafkaProducer KafkaProducerConfig `yaml:"kafka_producer"`
	KafkaConsumer KafkaConsumerConfig `yaml:"kafka_consumer"`
	Publisher     PublisherConfig     `yaml:"publisher"`
	HttpServer    HttpServerConfig    `yaml:"http_server"`
	CORS          CORSConfig          `yaml:"cors"`
}

// SetDefaults applies defaults to every section
func (c *IngestionConfig) SetDefaults() {
	c.Source.SetDefaults()
	c.Database.SetDefaults()
	c.KafkaConsumer.SetDefaults()
	c.Publisher.SetDefaults()
	c.HttpServer.SetDefaults()
	c.CORS.SetDefaults()
}

// Validate checks the settings the service cannot start without
func (c *IngestionConfig) Validate() error {
	if c.Source.Path == "" {
		return fmt.Errorf("configuration error: source.path is required")
	}
	if c.HttpListenAddr == "" && c.GrpcListenAddr == "" {
		return fmt.Errorf("configuration error: at least one of http_listen_addr or grpc_listen_addr must be configured")
	}
	if c.KafkaProducer.Enabled() && c.KafkaProducer.Topic == "" {
		return fmt.Errorf("configuration error: kafka_producer.topic is required when brokers are set")
	}
	if err := c.Database.Validate(); err != nil {
		return fmt.Errorf("database configuration error: %w", err)
	}
	return nil
}

// LoadIngestionConfig loads ingestion service configuration from the specified YAML file path
func LoadIngestionConfig(path string) (*IngestionConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read ingestion config file '%s': %w", path, err)
	}

	var cfg IngestionConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse ingestion YAML config file: %w", err)
	}

	cfg.SetDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
