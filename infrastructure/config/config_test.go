package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable LoadConfig reads so the host environment
// cannot leak into a test
func clearEnv(t *testing.T) {
	for _, key := range []string{
		"CONFIG_FILE", "PORT", "SERVER_ADDRESS", "ENVIRONMENT", "DEBUG_ERRORS",
		"STORE_URI", "AWS_REGION", "BULK_INSERT_CONCURRENCY",
		"GEMINI_API_KEY", "GEMINI_MODEL", "GENERATOR_BASE_URL", "GENERATE_RATE_LIMIT", "GENERATOR_TIMEOUT",
		"SECRETS_FILE", "WATCH_SECRETS_FILE", "AWS_LAMBDA_FUNCTION_NAME", "IS_LAMBDA",
		"LOG_LEVEL", "ENABLE_TRACING", "OTEL_EXPORTER_OTLP_ENDPOINT", "ENABLE_XRAY", "CORS_ORIGINS",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.ServerAddress)
	assert.Equal(t, "dynamodb://vocabulary", cfg.StoreURI)
	assert.Equal(t, 90*time.Second, cfg.GeneratorTimeout)
	assert.Equal(t, ".env", cfg.SecretsFile)
	assert.Equal(t, 8, cfg.BulkInsertConcurrency)
	assert.False(t, cfg.IsLambda)
	assert.Empty(t, cfg.CORSOrigins)
	assert.Equal(t, "development", cfg.Environment)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "8081")
	t.Setenv("STORE_URI", "bolt://data/vocabulary.db")
	t.Setenv("GEMINI_API_KEY", "AIza-env")
	t.Setenv("GENERATOR_TIMEOUT", "45s")
	t.Setenv("CORS_ORIGINS", "http://localhost:5173, https://vocab.example.com")
	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "collocation-api")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":8081", cfg.ServerAddress)
	assert.Equal(t, "bolt://data/vocabulary.db", cfg.StoreURI)
	assert.Equal(t, "AIza-env", cfg.GeminiAPIKey)
	assert.Equal(t, 45*time.Second, cfg.GeneratorTimeout)
	assert.Equal(t, []string{"http://localhost:5173", "https://vocab.example.com"}, cfg.CORSOrigins)
	assert.True(t, cfg.IsLambda)
}

func TestLoadConfigFileOverlay(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
environment: production
store_uri: dynamodb://vocabulary-prod?region=ap-southeast-1
generator_timeout: 2m
cors_origins:
  - https://vocab.example.com
log_level: warn
`), 0600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("LOG_LEVEL", "error")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "dynamodb://vocabulary-prod?region=ap-southeast-1", cfg.StoreURI)
	assert.Equal(t, 2*time.Minute, cfg.GeneratorTimeout)
	assert.Equal(t, []string{"https://vocab.example.com"}, cfg.CORSOrigins)
	assert.Equal(t, "error", cfg.LogLevel, "environment wins over the file")
	assert.Equal(t, ":3000", cfg.ServerAddress, "defaults survive the overlay")
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad duration", map[string]string{"GENERATOR_TIMEOUT": "soon"}},
		{"bad log level", map[string]string{"LOG_LEVEL": "verbose"}},
		{"zero concurrency", map[string]string{"BULK_INSERT_CONCURRENCY": "0"}},
		{"malformed concurrency", map[string]string{"BULK_INSERT_CONCURRENCY": "eight"}},
		{"malformed rate limit", map[string]string{"GENERATE_RATE_LIMIT": "abc"}},
		{"missing config file", map[string]string{"CONFIG_FILE": "/nonexistent/config.yaml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("TEST_LIMIT", "")
	n, err := getEnvInt("TEST_LIMIT", 10)
	require.NoError(t, err)
	assert.Equal(t, 10, n)

	t.Setenv("TEST_LIMIT", "0")
	n, err = getEnvInt("TEST_LIMIT", 10)
	require.NoError(t, err)
	assert.Zero(t, n, "zero is kept, not replaced by the default")

	t.Setenv("TEST_LIMIT", "abc")
	_, err = getEnvInt("TEST_LIMIT", 10)
	assert.ErrorContains(t, err, "invalid TEST_LIMIT")
}

func TestGetEnvDuration(t *testing.T) {
	t.Setenv("TEST_TIMEOUT", "1500")
	d, err := getEnvDuration("TEST_TIMEOUT", time.Second)
	require.NoError(t, err)
	assert.Equal(t, 1500*time.Millisecond, d)

	t.Setenv("TEST_TIMEOUT", "0")
	d, err = getEnvDuration("TEST_TIMEOUT", time.Second)
	require.NoError(t, err)
	assert.Zero(t, d, "zero disables the timeout")
}
