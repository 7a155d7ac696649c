package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the tripdex service configuration.
type Config struct {
	HTTP        HTTPConfig        `yaml:"http"`
	Auth        AuthConfig        `yaml:"auth"`
	Logging     LoggingConfig     `yaml:"logging"`
	Embedding   EmbeddingConfig   `yaml:"embedding"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Cache       CacheConfig       `yaml:"cache"`
	Catalog     CatalogConfig     `yaml:"catalog"`
	NATS        NATSConfig        `yaml:"nats"`
	Indexing    IndexingConfig    `yaml:"indexing"`
	Tracing     TracingConfig     `yaml:"tracing"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error (default: determined by env)
	Format string `yaml:"format"` // json, console (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// EmbeddingConfig holds the embedding provider settings.
type EmbeddingConfig struct {
	Provider   string  `yaml:"provider"`
	APIKey     string  `yaml:"api_key"`
	BaseURL    string  `yaml:"base_url"`
	Model      string  `yaml:"model"`
	Dimensions int     `yaml:"dimensions"`
	TimeoutSec int     `yaml:"timeout_sec"`
	RateLimit  float64 `yaml:"rate_limit_rps"` // 0 = unlimited
	RateBurst  int     `yaml:"rate_burst"`
	MaxBatch   int     `yaml:"max_batch_size"`
	CacheTTLH  int     `yaml:"cache_ttl_hours"` // 0 = no expiry
}

// VectorStoreConfig holds the vector store settings.
type VectorStoreConfig struct {
	Driver         string `yaml:"driver"` // qdrant, memory (default: qdrant)
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	APIKey         string `yaml:"api_key"`
	UseTLS         bool   `yaml:"use_tls"`
	Collection     string `yaml:"collection"`
	TimeoutSec     int    `yaml:"timeout_sec"`
	ReadinessRetry int    `yaml:"readiness_retry_sec"`
}

// CacheConfig holds the optional Redis settings. Empty addrs disable the cache
// and the durable retry queue.
type CacheConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// Enabled reports whether Redis is configured.
func (c CacheConfig) Enabled() bool { return len(c.Addrs) > 0 }

// CatalogConfig holds the optional catalog database settings.
type CatalogConfig struct {
	DSN      string `yaml:"dsn"`
	PageSize int    `yaml:"page_size"`
}

// Enabled reports whether the catalog reader is configured.
func (c CatalogConfig) Enabled() bool { return c.DSN != "" }

// NATSConfig holds the catalog notification settings. Empty url disables the subscriber.
type NATSConfig struct {
	URL        string `yaml:"url"`
	Subject    string `yaml:"subject"`
	QueueGroup string `yaml:"queue_group"`
}

// Enabled reports whether the subscriber is configured.
func (c NATSConfig) Enabled() bool { return c.URL != "" }

// TracingConfig holds OpenTelemetry span export settings.
// Trace context is propagated even when export is disabled.
type TracingConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Endpoint    string  `yaml:"endpoint"` // OTLP/HTTP collector host:port
	Insecure    bool    `yaml:"insecure"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

// IndexingConfig holds the asynchronous indexing settings.
type IndexingConfig struct {
	Workers         int `yaml:"workers"`
	QueueSize       int `yaml:"queue_size"`
	JobTimeoutSec   int `yaml:"job_timeout_sec"`
	RetryBaseMs     int `yaml:"retry_base_backoff_ms"`
	RetryMaxSec     int `yaml:"retry_max_backoff_sec"`
	HealIntervalSec int `yaml:"heal_interval_sec"`
	HealBatch       int `yaml:"heal_batch"`
	// ReindexTimeoutMin bounds a full rebuild.
	ReindexTimeoutMin int `yaml:"reindex_timeout_min"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}

	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-3-small"
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = 1536
	}
	if c.Embedding.TimeoutSec <= 0 {
		c.Embedding.TimeoutSec = 30
	}
	if c.Embedding.RateLimit > 0 && c.Embedding.RateBurst <= 0 {
		c.Embedding.RateBurst = 1
	}
	if c.Embedding.MaxBatch <= 0 {
		c.Embedding.MaxBatch = 256
	}

	if c.VectorStore.Driver == "" {
		c.VectorStore.Driver = "qdrant"
	}
	if c.VectorStore.Host == "" {
		c.VectorStore.Host = "localhost"
	}
	if c.VectorStore.Port <= 0 {
		c.VectorStore.Port = 6334
	}
	if c.VectorStore.Collection == "" {
		c.VectorStore.Collection = "destinations"
	}
	if c.VectorStore.TimeoutSec <= 0 {
		c.VectorStore.TimeoutSec = 10
	}
	if c.VectorStore.ReadinessRetry <= 0 {
		c.VectorStore.ReadinessRetry = 5
	}

	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 10
	}
	if c.Catalog.PageSize <= 0 {
		c.Catalog.PageSize = 100
	}
	if c.NATS.Subject == "" {
		c.NATS.Subject = "catalog.destinations.*"
	}
	if c.NATS.QueueGroup == "" {
		c.NATS.QueueGroup = "tripdex-indexer"
	}

	if c.Indexing.Workers <= 0 {
		c.Indexing.Workers = 4
	}
	if c.Indexing.QueueSize <= 0 {
		c.Indexing.QueueSize = 1024
	}
	if c.Indexing.JobTimeoutSec <= 0 {
		c.Indexing.JobTimeoutSec = 30
	}
	if c.Indexing.RetryBaseMs <= 0 {
		c.Indexing.RetryBaseMs = 1000
	}
	if c.Indexing.RetryMaxSec <= 0 {
		c.Indexing.RetryMaxSec = 600
	}
	if c.Indexing.HealIntervalSec <= 0 {
		c.Indexing.HealIntervalSec = 30
	}
	if c.Indexing.HealBatch <= 0 {
		c.Indexing.HealBatch = 50
	}
	if c.Indexing.ReindexTimeoutMin <= 0 {
		c.Indexing.ReindexTimeoutMin = 30
	}

	if c.Tracing.SampleRatio == 0 {
		c.Tracing.SampleRatio = 1
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.VectorStore.Driver {
	case "qdrant", "memory":
	default:
		return fmt.Errorf("vector_store.driver must be \"qdrant\" or \"memory\", got %q", c.VectorStore.Driver)
	}
	if c.VectorStore.Port > 65535 {
		return fmt.Errorf("vector_store.port must be between 1 and 65535, got %d", c.VectorStore.Port)
	}
	if c.Embedding.Provider != "openai" {
		return fmt.Errorf("embedding.provider must be \"openai\", got %q", c.Embedding.Provider)
	}
	if c.Embedding.APIKey == "" {
		return fmt.Errorf("embedding.api_key is required")
	}
	if c.Embedding.RateLimit < 0 {
		return fmt.Errorf("embedding.rate_limit_rps must not be negative")
	}
	if c.Embedding.CacheTTLH < 0 {
		return fmt.Errorf("embedding.cache_ttl_hours must not be negative")
	}
	if c.Indexing.RetryMaxSec*1000 < c.Indexing.RetryBaseMs {
		return fmt.Errorf("indexing.retry_max_backoff_sec must not be below the base backoff")
	}
	if c.Tracing.Enabled && c.Tracing.Endpoint == "" {
		return fmt.Errorf("tracing.endpoint is required when tracing is enabled")
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		return fmt.Errorf("tracing.sample_ratio must be between 0 and 1, got %v", c.Tracing.SampleRatio)
	}
	return nil
}

// VectorStoreTimeout returns the per-call vector store deadline.
func (c *Config) VectorStoreTimeout() time.Duration {
	return time.Duration(c.VectorStore.TimeoutSec) * time.Second
}

// EmbeddingTimeout returns the per-call embedding deadline.
func (c *Config) EmbeddingTimeout() time.Duration {
	return time.Duration(c.Embedding.TimeoutSec) * time.Second
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
