package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, IngestionConfigFile)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadIngestionConfigAppliesDefaults(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `
http_listen_addr: ":3000"
source:
  path: "/var/log/app.log"
database:
  dsn: "postgres://localhost/logs"
kafka_producer:
  brokers: ["mock://local"]
  batch_timeout: 250ms
`)

	cfg, err := LoadIngestionConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/log/app.log", cfg.Source.Path)
	assert.Equal(t, 1<<20, cfg.Source.MaxLineBytes)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, "logs", cfg.Database.Table)
	assert.Equal(t, 10, cfg.Database.MaxConnections)
	assert.Equal(t, "1h", cfg.Database.MaxIdleTime)
	assert.Equal(t, 250*time.Millisecond, cfg.KafkaProducer.BatchTimeout)
	assert.False(t, cfg.KafkaProducer.Enabled())
	assert.Equal(t, 500, cfg.Publisher.BatchSize)
	assert.Equal(t, 100*time.Millisecond, cfg.Publisher.BatchTimeout)
	assert.Equal(t, 60*time.Second, cfg.HttpServer.WriteTimeout)
	assert.Equal(t, []string{"GET", "POST", "OPTIONS"}, cfg.CORS.AllowedMethods)
}

func TestLoadIngestionConfigValidation(t *testing.T) {
	cases := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing source path",
			content: "http_listen_addr: \":3000\"\ndatabase:\n  driver: memory\n",
			wantErr: "source.path is required",
		},
		{
			name:    "no listener",
			content: "source:\n  path: a.log\ndatabase:\n  driver: memory\n",
			wantErr: "http_listen_addr or grpc_listen_addr",
		},
		{
			name:    "missing dsn",
			content: "grpc_listen_addr: \":3001\"\nsource:\n  path: a.log\n",
			wantErr: "database DSN is required",
		},
		{
			name:    "unknown driver",
			content: "grpc_listen_addr: \":3001\"\nsource:\n  path: a.log\ndatabase:\n  driver: sqlite\n",
			wantErr: "unsupported database driver",
		},
		{
			name:    "kafka without topic",
			content: "grpc_listen_addr: \":3001\"\nsource:\n  path: a.log\ndatabase:\n  driver: memory\nkafka_producer:\n  brokers: [\"kafka:9092\"]\n",
			wantErr: "kafka_producer.topic is required",
		},
		{
			name:    "min above max connections",
			content: "grpc_listen_addr: \":3001\"\nsource:\n  path: a.log\ndatabase:\n  dsn: x\n  max_connections: 2\n  min_connections: 5\n",
			wantErr: "cannot be greater than max_connections",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), tc.content)
			_, err := LoadIngestionConfig(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestLoadIngestionConfigMemoryDriverNeedsNoDSN(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "http_listen_addr: \":3000\"\nsource:\n  path: a.log\ndatabase:\n  driver: memory\n")
	cfg, err := LoadIngestionConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, cfg.Database.Driver)
}

func TestLoadConfigFromDirectory(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "http_listen_addr: \":3000\"\nsource:\n  path: a.log\ndatabase:\n  driver: memory\n")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	require.NotNil(t, cfg.Ingestion)
	assert.Equal(t, ":3000", cfg.Ingestion.HttpListenAddr)

	_, err = LoadConfig(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ingestion config not found")
}

func TestShippedDefaultsFileLoads(t *testing.T) {
	cfg, err := LoadConfig(".")
	require.NoError(t, err)
	assert.Equal(t, "logs", cfg.Ingestion.Database.Table)
	assert.Equal(t, []string{"http://localhost:8080"}, cfg.Ingestion.CORS.AllowedOrigins)
}
