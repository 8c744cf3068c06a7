// Package config provides configuration management for Napp.
// Service settings are loaded from environment variables with the NAPP_
// prefix, with sensible defaults for everything; the source catalog
// (which feeds to poll) lives in a YAML file loaded separately by
// LoadSources.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/napphq/napp/internal/source"
)

// Config holds all service configuration settings.
type Config struct {
	Server   ServerConfig
	Storage  StorageConfig
	NLP      NLPConfig
	Ingest   IngestConfig
	Security SecurityConfig
	Backup   BackupConfig
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port int    // Server port (default: 6565)
	Host string // Server host (default: 127.0.0.1)
}

// StorageConfig contains database and storage configuration.
type StorageConfig struct {
	StorageEngine string // Storage engine type: sqlite, postgres (default: sqlite)
	DataPath      string // Path to data directory for sqlite (default: ./data)
	PostgresDSN   string // Postgres connection string, used when StorageEngine is postgres
}

// NLPConfig contains the NLP sidecar configuration. When ServiceURL is empty
// the built-in term classifier and headline extractor are used instead.
type NLPConfig struct {
	ServiceURL     string        // NLP service base URL (default: empty, built-in fallback)
	RequestTimeout time.Duration // Per-request timeout (default: 5s)
	RequestsPerSec int           // Client-side rate limit (default: 20)
}

// IngestConfig contains ingestion loop tuning.
type IngestConfig struct {
	NewsInterval  time.Duration // News polling interval (default: 5m)
	TrendInterval time.Duration // Trend polling interval (default: 10m)
	Retention     time.Duration // Active event window (default: 72h)

	ArticleMinOverlap int // Keyword overlap threshold for articles (default: 3)
	TrendMinOverlap   int // Keyword overlap threshold for trends (default: 5)
}

// SecurityConfig contains security and authentication settings.
type SecurityConfig struct {
	SecurityMode string // Security mode: development, production (default: development)
	APIToken     string // API authentication token
}

// BackupConfig contains automated backup settings (sqlite engine only).
type BackupConfig struct {
	Enabled  bool          // Enable automatic backups (default: false)
	Interval time.Duration // Interval between backups (default: 24h)
	Path     string        // Backup directory (default: ./backups)
	Verify   bool          // Verify backups after creation (default: true)
}

// SourcesFile is the shape of the YAML source catalog: the news feeds to
// poll plus the optional social trend endpoint.
type SourcesFile struct {
	Sources []source.Config       `yaml:"sources"`
	Trends  source.TrendAPIConfig `yaml:"trends"`
}

// LoadConfig loads configuration from environment variables with sensible
// defaults. All environment variables use the NAPP_ prefix.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: getEnvInt("NAPP_PORT", 6565),
			Host: getEnv("NAPP_HOST", "127.0.0.1"),
		},
		Storage: StorageConfig{
			StorageEngine: getEnv("NAPP_STORAGE_ENGINE", "sqlite"),
			DataPath:      getEnv("NAPP_DATA_PATH", "./data"),
			PostgresDSN:   getEnv("NAPP_POSTGRES_DSN", ""),
		},
		NLP: NLPConfig{
			ServiceURL:     getEnv("NAPP_NLP_URL", ""),
			RequestTimeout: getEnvDuration("NAPP_NLP_TIMEOUT", 5*time.Second),
			RequestsPerSec: getEnvInt("NAPP_NLP_RATE", 20),
		},
		Ingest: IngestConfig{
			NewsInterval:      getEnvDuration("NAPP_NEWS_INTERVAL", 5*time.Minute),
			TrendInterval:     getEnvDuration("NAPP_TREND_INTERVAL", 10*time.Minute),
			Retention:         getEnvDuration("NAPP_EVENT_RETENTION", 72*time.Hour),
			ArticleMinOverlap: getEnvInt("NAPP_ARTICLE_MIN_OVERLAP", 3),
			TrendMinOverlap:   getEnvInt("NAPP_TREND_MIN_OVERLAP", 5),
		},
		Security: SecurityConfig{
			SecurityMode: getEnv("NAPP_SECURITY_MODE", "development"),
			APIToken:     getEnv("NAPP_API_TOKEN", ""),
		},
		Backup: BackupConfig{
			Enabled:  getEnvBool("NAPP_BACKUP_ENABLED", false),
			Interval: getEnvDuration("NAPP_BACKUP_INTERVAL", 24*time.Hour),
			Path:     getEnv("NAPP_BACKUP_PATH", "./backups"),
			Verify:   getEnvBool("NAPP_BACKUP_VERIFY", true),
		},
	}

	if cfg.Storage.StorageEngine == "postgres" && cfg.Storage.PostgresDSN == "" {
		return nil, fmt.Errorf("config: NAPP_POSTGRES_DSN is required when NAPP_STORAGE_ENGINE=postgres")
	}

	return cfg, nil
}

// LoadSources reads the YAML source catalog at path. ${VAR} references are
// expanded from the environment first, so API keys stay out of the file.
func LoadSources(path string) (*SourcesFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read sources file %s: %w", path, err)
	}
	data = []byte(os.ExpandEnv(string(data)))

	var sf SourcesFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("config: failed to parse sources file %s: %w", path, err)
	}
	return &sf, nil
}

// getEnv retrieves a string environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns a default value.
// If the environment variable exists but cannot be parsed as an integer,
// it returns the default value.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvBool retrieves a boolean environment variable or returns a default value.
// It recognizes "true", "1", "yes" as true and "false", "0", "no" as false (case-insensitive).
// If the environment variable exists but cannot be parsed as a boolean,
// it returns the default value.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		switch value {
		case "true", "1", "yes", "True", "TRUE", "Yes", "YES":
			return true
		case "false", "0", "no", "False", "FALSE", "No", "NO":
			return false
		}
	}
	return defaultValue
}

// getEnvDuration retrieves a duration environment variable (Go duration
// syntax, e.g. "5m") or returns a default value. If the environment variable
// exists but cannot be parsed, it returns the default value.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
