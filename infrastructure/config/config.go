package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string `yaml:"server_address"`
	Environment   string `yaml:"environment"`
	Debug         bool   `yaml:"debug"`

	// Record store
	StoreURI              string `yaml:"store_uri"`
	AWSRegion             string `yaml:"aws_region"`
	BulkInsertConcurrency int    `yaml:"bulk_insert_concurrency"`

	// Generator
	GeminiAPIKey      string        `yaml:"gemini_api_key"`
	GeminiModel       string        `yaml:"gemini_model"`
	GeneratorTimeout  time.Duration `yaml:"generator_timeout"`
	GeneratorBaseURL  string        `yaml:"generator_base_url"`
	GenerateRateLimit int           `yaml:"generate_rate_limit"` // per client per minute, 0 disables

	// Runtime secrets
	SecretsFile      string `yaml:"secrets_file"`
	WatchSecretsFile bool   `yaml:"watch_secrets_file"`

	// Lambda configuration
	IsLambda           bool   `yaml:"-"`
	LambdaFunctionName string `yaml:"-"`

	// Logging
	LogLevel string `yaml:"log_level"`

	// Observability and HTTP
	EnableTracing bool     `yaml:"enable_tracing"`
	OTLPEndpoint  string   `yaml:"otlp_endpoint"`
	EnableXRay    bool     `yaml:"enable_xray"`
	CORSOrigins   []string `yaml:"cors_origins"`
}

// Defaults returns the configuration used when nothing else is set
func Defaults() *Config {
	return &Config{
		ServerAddress:         ":3000",
		Environment:           "development",
		StoreURI:              "dynamodb://vocabulary",
		AWSRegion:             "us-east-1",
		BulkInsertConcurrency: 8,
		GeminiModel:           "gemini-2.0-flash",
		GeneratorTimeout:      90 * time.Second,
		GenerateRateLimit:     10,
		SecretsFile:           ".env",
		LogLevel:              "info",
		OTLPEndpoint:          "localhost:4317",
	}
}

// LoadConfig loads configuration from defaults, an optional YAML file named
// by CONFIG_FILE, and environment variables, in increasing priority.
func LoadConfig() (*Config, error) {
	cfg := Defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	if port := os.Getenv("PORT"); port != "" {
		c.ServerAddress = ":" + port
	}
	c.ServerAddress = getEnv("SERVER_ADDRESS", c.ServerAddress)
	c.Environment = getEnv("ENVIRONMENT", c.Environment)
	c.Debug = getEnvBool("DEBUG_ERRORS", c.Debug)

	c.StoreURI = getEnv("STORE_URI", c.StoreURI)
	c.AWSRegion = getEnv("AWS_REGION", c.AWSRegion)
	concurrency, err := getEnvInt("BULK_INSERT_CONCURRENCY", c.BulkInsertConcurrency)
	if err != nil {
		return err
	}
	c.BulkInsertConcurrency = concurrency

	c.GeminiAPIKey = getEnv("GEMINI_API_KEY", c.GeminiAPIKey)
	c.GeminiModel = getEnv("GEMINI_MODEL", c.GeminiModel)
	c.GeneratorBaseURL = getEnv("GENERATOR_BASE_URL", c.GeneratorBaseURL)
	rateLimit, err := getEnvInt("GENERATE_RATE_LIMIT", c.GenerateRateLimit)
	if err != nil {
		return err
	}
	c.GenerateRateLimit = rateLimit
	timeout, err := getEnvDuration("GENERATOR_TIMEOUT", c.GeneratorTimeout)
	if err != nil {
		return err
	}
	c.GeneratorTimeout = timeout

	c.SecretsFile = getEnv("SECRETS_FILE", c.SecretsFile)
	c.WatchSecretsFile = getEnvBool("WATCH_SECRETS_FILE", c.WatchSecretsFile)

	c.LambdaFunctionName = getEnv("AWS_LAMBDA_FUNCTION_NAME", "")
	c.IsLambda = getEnvBool("IS_LAMBDA", c.LambdaFunctionName != "")

	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.EnableTracing = getEnvBool("ENABLE_TRACING", c.EnableTracing)
	c.OTLPEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", c.OTLPEndpoint)
	c.EnableXRay = getEnvBool("ENABLE_XRAY", c.EnableXRay)
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		c.CORSOrigins = splitList(origins)
	}
	return nil
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if c.ServerAddress == "" {
		return fmt.Errorf("SERVER_ADDRESS must not be empty")
	}
	if c.StoreURI == "" {
		return fmt.Errorf("STORE_URI is required")
	}
	if c.BulkInsertConcurrency < 1 {
		return fmt.Errorf("BULK_INSERT_CONCURRENCY must be positive, got %d", c.BulkInsertConcurrency)
	}
	if c.GeneratorTimeout < 0 {
		return fmt.Errorf("GENERATOR_TIMEOUT must not be negative")
	}
	if c.GenerateRateLimit < 0 {
		return fmt.Errorf("GENERATE_RATE_LIMIT must not be negative")
	}
	if c.GeminiModel == "" {
		return fmt.Errorf("GEMINI_MODEL must not be empty")
	}
	if c.SecretsFile == "" {
		return fmt.Errorf("SECRETS_FILE must not be empty")
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error; got %q", c.LogLevel)
	}

	return nil
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	intVal, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return intVal, nil
}

// getEnvDuration parses a duration such as "90s"; a bare number is taken
// as milliseconds
func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	if ms, err := strconv.Atoi(value); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return d, nil
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
