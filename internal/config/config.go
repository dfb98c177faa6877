/**
 * Configuration for the outline worker
 *
 * Loads configuration from environment variables matching .env
 */

package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
)

// Config holds worker configuration
type Config struct {
	// Redis configuration (service mode)
	RedisURL  string
	QueueName string

	// PostgreSQL configuration; empty disables database persistence
	DatabaseURL string

	// Worker pool configuration
	WorkerPoolSize    int
	ProcessingTimeout int // per-document timeout in milliseconds

	// Page renderer configuration
	PdftoppmPath string
	RenderDPI    int

	// OCR configuration
	OCRLanguages []string

	// Batch mode directories
	InputDir  string
	OutputDir string

	// Temporary directory for rendered page images
	TempDir string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		RedisURL:          getEnvOrDefault("REDIS_URL", "redis://localhost:6379"),
		QueueName:         getEnvOrDefault("QUEUE_NAME", "outline:jobs"),
		DatabaseURL:       getEnvOrDefault("DATABASE_URL", ""),
		WorkerPoolSize:    getEnvAsIntOrDefault("WORKER_POOL_SIZE", DefaultPoolSize()),
		ProcessingTimeout: getEnvAsIntOrDefault("PROCESSING_TIMEOUT", 300000), // 5 minutes
		PdftoppmPath:      getEnvOrDefault("PDFTOPPM_PATH", "/usr/bin/pdftoppm"),
		RenderDPI:         getEnvAsIntOrDefault("RENDER_DPI", 108), // 1.5x the 72dpi page grid
		OCRLanguages:      getEnvAsListOrDefault("OCR_LANGUAGES", []string{"eng"}),
		InputDir:          getEnvOrDefault("INPUT_DIR", "/app/input"),
		OutputDir:         getEnvOrDefault("OUTPUT_DIR", "/app/output"),
		TempDir:           getEnvOrDefault("TEMP_DIR", os.TempDir()),
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// DefaultPoolSize bounds the worker pool to avoid oversubscription and the
// memory cost of holding many page images and engine instances at once.
func DefaultPoolSize() int {
	cores := runtime.NumCPU()
	if cores > 8 {
		return 8
	}
	if cores < 1 {
		return 1
	}
	return cores
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.QueueName == "" {
		return fmt.Errorf("QUEUE_NAME is required")
	}

	if c.WorkerPoolSize < 1 || c.WorkerPoolSize > 64 {
		return fmt.Errorf("WORKER_POOL_SIZE must be between 1 and 64, got %d", c.WorkerPoolSize)
	}

	if c.ProcessingTimeout < 1000 {
		return fmt.Errorf("PROCESSING_TIMEOUT must be at least 1000ms, got %d", c.ProcessingTimeout)
	}

	if c.RenderDPI < 36 || c.RenderDPI > 600 {
		return fmt.Errorf("RENDER_DPI must be between 36 and 600, got %d", c.RenderDPI)
	}

	if len(c.OCRLanguages) == 0 {
		return fmt.Errorf("OCR_LANGUAGES must name at least one language")
	}

	return nil
}

// getEnvOrDefault gets environment variable or returns default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsIntOrDefault gets environment variable as int or returns default
func getEnvAsIntOrDefault(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsListOrDefault gets a comma-separated environment variable or
// returns default
func getEnvAsListOrDefault(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	parts := strings.Split(valueStr, ",")
	values := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			values = append(values, p)
		}
	}
	if len(values) == 0 {
		return defaultValue
	}
	return values
}
