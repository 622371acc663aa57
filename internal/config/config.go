// ABOUTME: Centralized configuration for the fault diagnosis service
// ABOUTME: Loads from environment variables with validation and defaults
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds all configuration for the fault diagnosis engine.
type Config struct {
	// Data paths
	DataDir      string
	SnapshotPath string
	CSVPath      string

	// OpenAI settings
	OpenAIKey      string
	EmbeddingModel string
	EmbedBatch     int
	Timeout        time.Duration
	MaxRetries     int
	RetryDelay     time.Duration

	// Server settings
	ListenAddr  string
	DefaultTopK int
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	dataDir := getEnv("FAULTFINDER_DATA_DIR", "data")

	cfg := &Config{
		DataDir:        dataDir,
		SnapshotPath:   getEnv("FAULTFINDER_SNAPSHOT", filepath.Join(dataDir, "indices", "snapshot.json")),
		CSVPath:        getEnv("FAULTS_CSV", filepath.Join(dataDir, "faults.csv")),
		OpenAIKey:      os.Getenv("OPENAI_API_KEY"),
		EmbeddingModel: getEnv("EMBED_MODEL", "text-embedding-3-small"),
		EmbedBatch:     getEnvInt("EMBED_BATCH", 64),
		Timeout:        getEnvDuration("OPENAI_TIMEOUT", 30*time.Second),
		MaxRetries:     getEnvInt("OPENAI_MAX_RETRIES", 3),
		RetryDelay:     getEnvDuration("OPENAI_RETRY_DELAY", 2*time.Second),
		ListenAddr:     getEnv("FAULTFINDER_LISTEN", ":8080"),
		DefaultTopK:    getEnvInt("FAULTFINDER_TOP_K", 10),
	}

	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	if c.MaxRetries < 0 || c.MaxRetries > 10 {
		return fmt.Errorf("OPENAI_MAX_RETRIES must be 0-10, got %d", c.MaxRetries)
	}
	if c.EmbedBatch < 1 {
		return fmt.Errorf("EMBED_BATCH must be positive, got %d", c.EmbedBatch)
	}
	if c.DefaultTopK < 1 || c.DefaultTopK > 50 {
		return fmt.Errorf("FAULTFINDER_TOP_K must be 1-50, got %d", c.DefaultTopK)
	}
	return nil
}

// Helper functions
func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
