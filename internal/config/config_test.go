package config

import (
	"bytes"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setRequiredEnv sets the three required tokens so Load can succeed.
func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("REPLICATE_API_TOKEN", "test-replicate-token")
	t.Setenv("PIKAPI_BEARER_TOKEN", "test-pika-token")
	t.Setenv("GAME_API_KEY", "test-game-key")
}

func TestLoad_RequiredVariables(t *testing.T) {
	// Clear all environment variables
	clearEnv := func() {
		os.Unsetenv("PORT")
		os.Unsetenv("REPLICATE_API_TOKEN")
		os.Unsetenv("REPLICATE_MODEL_ID")
		os.Unsetenv("CAPTION_TIMEOUT_SEC")
		os.Unsetenv("PIKAPI_BASE_URL")
		os.Unsetenv("PIKAPI_BEARER_TOKEN")
		os.Unsetenv("CALLBACK_API_URL")
		os.Unsetenv("GAME_API_KEY")
		os.Unsetenv("INITIAL_WAIT_TIME")
		os.Unsetenv("MAX_CHECK_TIME")
		os.Unsetenv("POLL_INTERVAL_SEC")
		os.Unsetenv("TEMP_DIR")
		os.Unsetenv("S3_BUCKET")
		os.Unsetenv("S3_REGION")
		os.Unsetenv("AWS_ACCESS_KEY_ID")
		os.Unsetenv("AWS_SECRET_ACCESS_KEY")
		os.Unsetenv("LOG_FORMAT")
		os.Unsetenv("LOG_LEVEL")
	}

	t.Run("missing REPLICATE_API_TOKEN returns error", func(t *testing.T) {
		clearEnv()
		t.Setenv("PIKAPI_BEARER_TOKEN", "pika-token")
		t.Setenv("GAME_API_KEY", "game-key")

		_, err := Load()
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrReplicateTokenRequired)
	})

	t.Run("missing PIKAPI_BEARER_TOKEN returns error", func(t *testing.T) {
		clearEnv()
		t.Setenv("REPLICATE_API_TOKEN", "replicate-token")
		t.Setenv("GAME_API_KEY", "game-key")

		_, err := Load()
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrPikapiTokenRequired)
	})

	t.Run("missing GAME_API_KEY returns error", func(t *testing.T) {
		clearEnv()
		t.Setenv("REPLICATE_API_TOKEN", "replicate-token")
		t.Setenv("PIKAPI_BEARER_TOKEN", "pika-token")

		_, err := Load()
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrGameAPIKeyRequired)
	})

	t.Run("all required variables present succeeds", func(t *testing.T) {
		clearEnv()
		t.Setenv("REPLICATE_API_TOKEN", "replicate-token")
		t.Setenv("PIKAPI_BEARER_TOKEN", "pika-token")
		t.Setenv("GAME_API_KEY", "game-key")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "replicate-token", cfg.ReplicateAPIToken)
		assert.Equal(t, "pika-token", cfg.PikapiBearerToken)
		assert.Equal(t, "game-key", cfg.GameAPIKey)
	})
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "pharmapsychotic/clip-interrogator:8151e1c9f47e696fa316146a2e35812ccf79cfc9eba05b11c7f450155102af70", cfg.ReplicateModelID)
	assert.Equal(t, 120, cfg.CaptionTimeoutSec)
	assert.Equal(t, "https://api.pikapikapika.io/web", cfg.PikapiBaseURL)
	assert.Equal(t, "https://game-api.virtuals.io/requests", cfg.CallbackAPIURL)
	assert.Equal(t, 300, cfg.InitialWaitSec)
	assert.Equal(t, 420, cfg.MaxCheckSec)
	assert.Equal(t, 10, cfg.PollIntervalSec)
	assert.Equal(t, "/tmp/i2v", cfg.TempDir)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_CustomValues(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "3000")
	t.Setenv("REPLICATE_MODEL_ID", "owner/model:deadbeef")
	t.Setenv("CAPTION_TIMEOUT_SEC", "60")
	t.Setenv("PIKAPI_BASE_URL", "https://pika.example.com/api")
	t.Setenv("CALLBACK_API_URL", "https://callbacks.example.com/requests")
	t.Setenv("INITIAL_WAIT_TIME", "5")
	t.Setenv("MAX_CHECK_TIME", "30")
	t.Setenv("POLL_INTERVAL_SEC", "2")
	t.Setenv("TEMP_DIR", "/custom/spool")
	t.Setenv("S3_BUCKET", "my-bucket")
	t.Setenv("S3_REGION", "us-east-1")
	t.Setenv("AWS_ACCESS_KEY_ID", "access-key")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "secret-key")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, "owner/model:deadbeef", cfg.ReplicateModelID)
	assert.Equal(t, 60, cfg.CaptionTimeoutSec)
	assert.Equal(t, "https://pika.example.com/api", cfg.PikapiBaseURL)
	assert.Equal(t, "https://callbacks.example.com/requests", cfg.CallbackAPIURL)
	assert.Equal(t, 5, cfg.InitialWaitSec)
	assert.Equal(t, 30, cfg.MaxCheckSec)
	assert.Equal(t, 2, cfg.PollIntervalSec)
	assert.Equal(t, "/custom/spool", cfg.TempDir)
	assert.Equal(t, "my-bucket", cfg.S3Bucket)
	assert.Equal(t, "us-east-1", cfg.S3Region)
	assert.Equal(t, "access-key", cfg.AWSAccessKeyID)
	assert.Equal(t, "secret-key", cfg.AWSSecretAccessKey)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_InvalidIntegerDefaults(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "not-a-number")
	t.Setenv("MAX_CHECK_TIME", "invalid")

	// go-envconfig returns an error when parsing fails
	_, err := Load()
	require.Error(t, err)
}

func TestConfig_ArchiveEnabled(t *testing.T) {
	tests := []struct {
		name     string
		bucket   string
		region   string
		expected bool
	}{
		{"both set", "bucket", "region", true},
		{"only bucket", "bucket", "", false},
		{"only region", "", "region", false},
		{"neither set", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				S3Bucket: tt.bucket,
				S3Region: tt.region,
			}
			assert.Equal(t, tt.expected, cfg.ArchiveEnabled())
		})
	}
}

func TestConfig_DurationGetters(t *testing.T) {
	cfg := &Config{
		InitialWaitSec:    300,
		MaxCheckSec:       420,
		PollIntervalSec:   10,
		CaptionTimeoutSec: 120,
	}

	assert.Equal(t, 300*time.Second, cfg.InitialWait())
	assert.Equal(t, 420*time.Second, cfg.MaxCheckTime())
	assert.Equal(t, 10*time.Second, cfg.PollInterval())
	assert.Equal(t, 120*time.Second, cfg.CaptionTimeout())
}

func TestConfig_String(t *testing.T) {
	cfg := &Config{
		Port:              8080,
		ReplicateAPIToken: "secret-replicate",
		ReplicateModelID:  "owner/model:abc123",
		PikapiBaseURL:     "https://api.pikapikapika.io/web",
		PikapiBearerToken: "secret-pika",
		CallbackAPIURL:    "https://game-api.virtuals.io/requests",
		GameAPIKey:        "secret-game",
		InitialWaitSec:    300,
		MaxCheckSec:       420,
		PollIntervalSec:   10,
		TempDir:           "/tmp/i2v",
		LogFormat:         "json",
		LogLevel:          "info",
	}

	str := cfg.String()

	// Should contain non-sensitive values
	assert.Contains(t, str, "8080")
	assert.Contains(t, str, "owner/model:abc123")
	assert.Contains(t, str, "https://api.pikapikapika.io/web")

	// Should NOT contain sensitive values
	assert.NotContains(t, str, "secret-replicate")
	assert.NotContains(t, str, "secret-pika")
	assert.NotContains(t, str, "secret-game")
}

func TestConfig_NewLogger_JSON(t *testing.T) {
	cfg := &Config{
		LogFormat: "json",
		LogLevel:  "info",
	}

	logger := cfg.NewLogger()
	require.NotNil(t, logger)

	// Capture output to verify it's JSON
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, nil)
	testLogger := slog.New(handler)
	testLogger.Info("test message")

	// Should have JSON structure
	assert.Contains(t, buf.String(), `"msg"`)
	assert.Contains(t, buf.String(), "test message")
}

func TestConfig_NewLogger_Text(t *testing.T) {
	cfg := &Config{
		LogFormat: "text",
		LogLevel:  "debug",
	}

	logger := cfg.NewLogger()
	require.NotNil(t, logger)
	// Just verify it returns a valid logger
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"ERROR", slog.LevelError},
		{"unknown", slog.LevelInfo}, // defaults to info
		{"", slog.LevelInfo},        // defaults to info
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLogLevel(tt.input))
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		cfg := &Config{
			ReplicateAPIToken: "replicate",
			PikapiBearerToken: "pika",
			GameAPIKey:        "game",
		}
		err := cfg.Validate()
		assert.NoError(t, err)
	})

	t.Run("missing replicate token", func(t *testing.T) {
		cfg := &Config{
			PikapiBearerToken: "pika",
			GameAPIKey:        "game",
		}
		err := cfg.Validate()
		assert.ErrorIs(t, err, ErrReplicateTokenRequired)
	})

	t.Run("missing pika token", func(t *testing.T) {
		cfg := &Config{
			ReplicateAPIToken: "replicate",
			GameAPIKey:        "game",
		}
		err := cfg.Validate()
		assert.ErrorIs(t, err, ErrPikapiTokenRequired)
	})

	t.Run("missing game API key", func(t *testing.T) {
		cfg := &Config{
			ReplicateAPIToken: "replicate",
			PikapiBearerToken: "pika",
		}
		err := cfg.Validate()
		assert.ErrorIs(t, err, ErrGameAPIKeyRequired)
	})
}
