package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	yaml "gopkg.in/yaml.v3"
)

type Config struct {
	Port string

	// Auth (empty disables API-key checks)
	APIKey string

	// Splitting
	DefaultMaxLen int

	// Upload limits
	MaxUploadBytes int64

	// Parsing
	PDFFallbackPdftotext bool

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Job state
	JobTTL time.Duration

	// Webhook delivery (empty URL disables delivery)
	WebhookURL     string
	WebhookAPIKey  string
	WebhookTimeout time.Duration
}

// FileConfig is the optional YAML configuration file schema. Environment
// variables take precedence over file values.
type FileConfig struct {
	Port          string `yaml:"port"`
	APIKey        string `yaml:"apiKey"`
	DefaultMaxLen int    `yaml:"defaultMaxLen"`

	Webhook struct {
		URL     string        `yaml:"url"`
		APIKey  string        `yaml:"apiKey"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"webhook"`

	Workers struct {
		Count     int `yaml:"count"`
		QueueSize int `yaml:"queueSize"`
	} `yaml:"workers"`
}

// Load builds the configuration from the optional YAML file named by
// MSGSPLIT_CONFIG, then environment variables, then defaults.
func Load() Config {
	var fc FileConfig
	if path := os.Getenv("MSGSPLIT_CONFIG"); path != "" {
		if data, err := os.ReadFile(path); err == nil {
			_ = yaml.Unmarshal(data, &fc)
		}
	}

	cfg := Config{
		Port: envOr("PORT", or(fc.Port, "8090")),

		APIKey: envOr("MSGSPLIT_API_KEY", fc.APIKey),

		DefaultMaxLen: envInt("DEFAULT_MAX_LEN", orInt(fc.DefaultMaxLen, 4096)),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),

		WorkerCount:  envInt("WORKER_COUNT", orInt(fc.Workers.Count, 4)),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", orInt(fc.Workers.QueueSize, 100)),

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),

		WebhookURL:     envOr("WEBHOOK_URL", fc.Webhook.URL),
		WebhookAPIKey:  envOr("WEBHOOK_API_KEY", fc.Webhook.APIKey),
		WebhookTimeout: envDuration("WEBHOOK_TIMEOUT", orDur(fc.Webhook.Timeout, 30*time.Second)),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}
	if cfg.WebhookTimeout <= 0 {
		cfg.WebhookTimeout = 30 * time.Second
	}

	return cfg
}

func (c Config) Validate() error {
	if c.DefaultMaxLen <= 0 {
		return fmt.Errorf("DEFAULT_MAX_LEN must be positive, got %d", c.DefaultMaxLen)
	}
	if c.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	return nil
}

func or(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}

func orInt(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}

func orDur(v, fallback time.Duration) time.Duration {
	if v > 0 {
		return v
	}
	return fallback
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
