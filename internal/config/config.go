package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Search    SearchConfig    `yaml:"search"`
	Import    ImportConfig    `yaml:"import"`
	Uploads   UploadsConfig   `yaml:"uploads"`
	Cleanup   CleanupConfig   `yaml:"cleanup"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Logging   LoggingConfig   `yaml:"logging"`
	Timezone  string          `yaml:"timezone"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// DatabaseConfig contains database settings
type DatabaseConfig struct {
	Type     string         `yaml:"type"`
	MySQL    MySQLConfig    `yaml:"mysql"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// MySQLConfig contains MySQL connection settings
type MySQLConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// PostgresConfig contains PostgreSQL connection settings
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
}

// SearchConfig contains search engine settings
type SearchConfig struct {
	Meilisearch MeilisearchConfig `yaml:"meilisearch"`
}

// MeilisearchConfig contains Meilisearch connection settings
type MeilisearchConfig struct {
	Host   string `yaml:"host"`
	APIKey string `yaml:"api_key"`
	Index  string `yaml:"index"`
}

// ImportConfig contains CSV import settings
type ImportConfig struct {
	MaxRows       int     `yaml:"max_rows"`
	MinPrice      float64 `yaml:"min_price"`
	MaxPrice      float64 `yaml:"max_price"`
	RequireImages bool    `yaml:"require_images"`
	StrictMode    bool    `yaml:"strict_mode"`
}

// UploadsConfig contains image upload settings
type UploadsConfig struct {
	Dir             string `yaml:"dir"`
	MaxUploadMB     int    `yaml:"max_upload_mb"`
	WorkerInterval  int    `yaml:"worker_interval_seconds"`
	WorkerBatchSize int    `yaml:"worker_batch_size"`
}

// CleanupConfig contains retention settings for soft-deleted listings
type CleanupConfig struct {
	Enabled       bool `yaml:"enabled"`
	RetentionDays int  `yaml:"retention_days"`
}

// SchedulerConfig contains cron job settings
type SchedulerConfig struct {
	Enabled           bool   `yaml:"enabled"`
	ReindexTime       string `yaml:"reindex_time"`
	ExportSnapshotDir string `yaml:"export_snapshot_dir"`
}

// RateLimitConfig contains rate limiting settings for imports and uploads
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requests_per_minute"`
	RequestsPerHour   int  `yaml:"requests_per_hour"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level       string `yaml:"level"`
	LogRequests bool   `yaml:"log_requests"`
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           8080,
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Database: DatabaseConfig{
			Type: "mysql",
		},
		Import: ImportConfig{
			MaxRows:       1000,
			MinPrice:      1,
			MaxPrice:      1_000_000_000,
			RequireImages: false,
			StrictMode:    false,
		},
		Uploads: UploadsConfig{
			Dir:             "uploads",
			MaxUploadMB:     25,
			WorkerInterval:  10,
			WorkerBatchSize: 5,
		},
		Cleanup: CleanupConfig{
			Enabled:       true,
			RetentionDays: 30,
		},
		Scheduler: SchedulerConfig{
			Enabled:           false,
			ReindexTime:       "02:00",
			ExportSnapshotDir: "exports",
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerMinute: 30,
			RequestsPerHour:   600,
		},
		Logging: LoggingConfig{
			Level:       "info",
			LogRequests: true,
		},
		Timezone: "Africa/Nairobi",
	}
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(filepath string) (*Config, error) {
	// Start with default config
	config := DefaultConfig()

	// If file doesn't exist, return default config
	if _, err := os.Stat(filepath); os.IsNotExist(err) {
		return config, nil
	}

	// Read file
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// GetWorkerInterval returns the image worker poll interval as a duration
func (c *UploadsConfig) GetWorkerInterval() time.Duration {
	return time.Duration(c.WorkerInterval) * time.Second
}

// MaxUploadBytes returns the upload size cap in bytes
func (c *UploadsConfig) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) * 1024 * 1024
}

// Retention returns the soft-delete retention window as a duration
func (c *CleanupConfig) Retention() time.Duration {
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}
