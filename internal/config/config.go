// Package config provides configuration loading from environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Static errors for configuration validation.
var (
	// ErrReplicateTokenRequired is returned when REPLICATE_API_TOKEN is not set.
	ErrReplicateTokenRequired = errors.New("config: REPLICATE_API_TOKEN is required")
	// ErrPikapiTokenRequired is returned when PIKAPI_BEARER_TOKEN is not set.
	ErrPikapiTokenRequired = errors.New("config: PIKAPI_BEARER_TOKEN is required")
	// ErrGameAPIKeyRequired is returned when GAME_API_KEY is not set.
	ErrGameAPIKeyRequired = errors.New("config: GAME_API_KEY is required")
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	Port int `env:"PORT, default=8080" json:"port"`

	// Replicate (captioning) settings
	ReplicateAPIToken string `env:"REPLICATE_API_TOKEN, required" json:"-"` // Masked in JSON
	ReplicateModelID  string `env:"REPLICATE_MODEL_ID, default=pharmapsychotic/clip-interrogator:8151e1c9f47e696fa316146a2e35812ccf79cfc9eba05b11c7f450155102af70" json:"replicate_model_id"`
	CaptionTimeoutSec int    `env:"CAPTION_TIMEOUT_SEC, default=120" json:"caption_timeout_sec"`

	// Pika (video generation) settings
	PikapiBaseURL     string `env:"PIKAPI_BASE_URL, default=https://api.pikapikapika.io/web" json:"pikapi_base_url"`
	PikapiBearerToken string `env:"PIKAPI_BEARER_TOKEN, required" json:"-"` // Masked in JSON

	// Callback settings
	CallbackAPIURL string `env:"CALLBACK_API_URL, default=https://game-api.virtuals.io/requests" json:"callback_api_url"`
	GameAPIKey     string `env:"GAME_API_KEY, required" json:"-"` // Masked in JSON

	// Polling settings. The remote video job has a known minimum
	// processing time, so the first status check is delayed.
	InitialWaitSec  int `env:"INITIAL_WAIT_TIME, default=300" json:"initial_wait_sec"`
	MaxCheckSec     int `env:"MAX_CHECK_TIME, default=420" json:"max_check_sec"`
	PollIntervalSec int `env:"POLL_INTERVAL_SEC, default=10" json:"poll_interval_sec"`

	// Spool settings
	TempDir string `env:"TEMP_DIR, default=/tmp/i2v" json:"temp_dir"`

	// Optional S3 archival settings
	S3Bucket           string `env:"S3_BUCKET" json:"s3_bucket,omitempty"`
	S3Region           string `env:"S3_REGION" json:"s3_region,omitempty"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID" json:"-"`     // Masked in JSON
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" json:"-"` // Masked in JSON

	// Logging settings
	LogFormat string `env:"LOG_FORMAT, default=text" json:"log_format"` // "json" or "text"
	LogLevel  string `env:"LOG_LEVEL, default=info" json:"log_level"`   // "debug", "info", "warn", "error"
}

// ArchiveEnabled returns true if S3 archival configuration is provided.
func (c *Config) ArchiveEnabled() bool {
	return c.S3Bucket != "" && c.S3Region != ""
}

// InitialWait returns the delay before the first status check.
func (c *Config) InitialWait() time.Duration {
	return time.Duration(c.InitialWaitSec) * time.Second
}

// MaxCheckTime returns the maximum duration spent checking job status.
func (c *Config) MaxCheckTime() time.Duration {
	return time.Duration(c.MaxCheckSec) * time.Second
}

// PollInterval returns the fixed delay between status checks.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSec) * time.Second
}

// CaptionTimeout returns the overall deadline for one caption attempt.
func (c *Config) CaptionTimeout() time.Duration {
	return time.Duration(c.CaptionTimeoutSec) * time.Second
}

// Load reads configuration from environment variables using go-envconfig.
// It returns an error if required variables are not set.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := envconfig.Process(context.Background(), cfg); err != nil {
		// Map envconfig errors to our domain errors for required fields
		if strings.Contains(err.Error(), "REPLICATE_API_TOKEN") {
			return nil, ErrReplicateTokenRequired
		}
		if strings.Contains(err.Error(), "PIKAPI_BEARER_TOKEN") {
			return nil, ErrPikapiTokenRequired
		}
		if strings.Contains(err.Error(), "GAME_API_KEY") {
			return nil, ErrGameAPIKeyRequired
		}
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration is present.
func (c *Config) Validate() error {
	if c.ReplicateAPIToken == "" {
		return ErrReplicateTokenRequired
	}
	if c.PikapiBearerToken == "" {
		return ErrPikapiTokenRequired
	}
	if c.GameAPIKey == "" {
		return ErrGameAPIKeyRequired
	}
	return nil
}

// NewLogger creates a structured logger based on the configuration.
// When LogFormat is "json", it outputs JSON logs suitable for production.
// Otherwise, it outputs human-readable text logs.
func (c *Config) NewLogger() *slog.Logger {
	level := parseLogLevel(c.LogLevel)

	var handler slog.Handler
	if strings.ToLower(c.LogFormat) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}

	return slog.New(handler)
}

// String returns a string representation of the config with sensitive values masked.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Port: %d, ReplicateModelID: %s, PikapiBaseURL: %s, CallbackAPIURL: %s, InitialWaitSec: %d, MaxCheckSec: %d, PollIntervalSec: %d, TempDir: %s, S3Bucket: %s, S3Region: %s, LogFormat: %s, LogLevel: %s}",
		c.Port,
		c.ReplicateModelID,
		c.PikapiBaseURL,
		c.CallbackAPIURL,
		c.InitialWaitSec,
		c.MaxCheckSec,
		c.PollIntervalSec,
		c.TempDir,
		c.S3Bucket,
		c.S3Region,
		c.LogFormat,
		c.LogLevel,
	)
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
