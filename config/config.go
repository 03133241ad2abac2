package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// IngestionConfigFile is the file LoadConfig looks for in the config directory.
const IngestionConfigFile = "ingestion.defaults.yml"

// Config represents the complete application configuration
type Config struct {
	Ingestion *IngestionConfig
}

// LoadConfig loads all configuration files from a directory
func LoadConfig(configDir string) (*Config, error) {
	absDir, err := filepath.Abs(configDir)
	if err != nil {
		return nil, fmt.Errorf("unable to get absolute path of config directory: %w", err)
	}

	ingestionPath := filepath.Join(absDir, IngestionConfigFile)
	if _, err := os.Stat(ingestionPath); err != nil {
		return nil, fmt.Errorf("ingestion config not found in '%s': %w", absDir, err)
	}

	ingestionCfg, err := LoadIngestionConfig(ingestionPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load ingestion config: %w", err)
	}

	return &Config{Ingestion: ingestionCfg}, nil
}
