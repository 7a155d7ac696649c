package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	cfg := Config{
		HTTP:      HTTPConfig{Port: 8080},
		Embedding: EmbeddingConfig{APIKey: "test-key"},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_OK(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantMsg string
	}{
		{"port zero", func(c *Config) { c.HTTP.Port = 0 }, "http.port"},
		{"port too high", func(c *Config) { c.HTTP.Port = 70000 }, "http.port"},
		{"driver", func(c *Config) { c.VectorStore.Driver = "milvus" }, `vector_store.driver must be "qdrant" or "memory", got "milvus"`},
		{"vector store port", func(c *Config) { c.VectorStore.Port = 99999 }, "vector_store.port"},
		{"provider", func(c *Config) { c.Embedding.Provider = "nebius" }, "embedding.provider"},
		{"api key", func(c *Config) { c.Embedding.APIKey = "" }, "embedding.api_key is required"},
		{"rate", func(c *Config) { c.Embedding.RateLimit = -1 }, "rate_limit_rps"},
		{"cache ttl", func(c *Config) { c.Embedding.CacheTTLH = -1 }, "cache_ttl_hours"},
		{"backoff", func(c *Config) {
			c.Indexing.RetryBaseMs = 5000
			c.Indexing.RetryMaxSec = 1
		}, "retry_max_backoff_sec"},
		{"tracing endpoint", func(c *Config) { c.Tracing.Enabled = true }, "tracing.endpoint"},
		{"sample ratio", func(c *Config) { c.Tracing.SampleRatio = 1.5 }, "tracing.sample_ratio"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error = %q, want substring %q", err, tt.wantMsg)
			}
		})
	}
}

func TestValidate_MemoryDriver(t *testing.T) {
	cfg := validConfig()
	cfg.VectorStore.Driver = "memory"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("ReadTimeoutSec = %d, want 10", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.Embedding.Model != "text-embedding-3-small" || cfg.Embedding.Dimensions != 1536 {
		t.Errorf("embedding defaults: %+v", cfg.Embedding)
	}
	if cfg.Embedding.RateBurst != 0 {
		t.Errorf("burst must stay unset without a rate, got %d", cfg.Embedding.RateBurst)
	}
	if cfg.VectorStore.Driver != "qdrant" || cfg.VectorStore.Port != 6334 || cfg.VectorStore.Collection != "destinations" {
		t.Errorf("vector store defaults: %+v", cfg.VectorStore)
	}
	if cfg.Catalog.PageSize != 100 {
		t.Errorf("PageSize = %d, want 100", cfg.Catalog.PageSize)
	}
	if cfg.NATS.Subject != "catalog.destinations.*" || cfg.NATS.QueueGroup != "tripdex-indexer" {
		t.Errorf("nats defaults: %+v", cfg.NATS)
	}
	if cfg.Indexing.Workers != 4 || cfg.Indexing.QueueSize != 1024 || cfg.Indexing.HealBatch != 50 ||
		cfg.Indexing.ReindexTimeoutMin != 30 {
		t.Errorf("indexing defaults: %+v", cfg.Indexing)
	}
	if cfg.Tracing.Enabled || cfg.Tracing.SampleRatio != 1 {
		t.Errorf("tracing defaults: %+v", cfg.Tracing)
	}
	if cfg.Cache.Enabled() || cfg.Catalog.Enabled() || cfg.NATS.Enabled() {
		t.Error("optional components must be disabled by default")
	}
	if cfg.VectorStoreTimeout() != 10*time.Second || cfg.EmbeddingTimeout() != 30*time.Second {
		t.Errorf("timeouts: %v %v", cfg.VectorStoreTimeout(), cfg.EmbeddingTimeout())
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		Embedding:   EmbeddingConfig{Dimensions: 768, RateLimit: 5, RateBurst: 10},
		VectorStore: VectorStoreConfig{Driver: "memory", Collection: "trips"},
		Indexing:    IndexingConfig{Workers: 16},
	}
	cfg.ApplyDefaults()

	if cfg.Embedding.Dimensions != 768 || cfg.Embedding.RateBurst != 10 {
		t.Errorf("embedding overridden: %+v", cfg.Embedding)
	}
	if cfg.VectorStore.Driver != "memory" || cfg.VectorStore.Collection != "trips" {
		t.Errorf("vector store overridden: %+v", cfg.VectorStore)
	}
	if cfg.Indexing.Workers != 16 {
		t.Errorf("Workers = %d, want 16", cfg.Indexing.Workers)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("TRIPDEX_TEST_KEY", "sk-123")

	in := "key: ${TRIPDEX_TEST_KEY}\nurl: ${TRIPDEX_TEST_UNSET:-nats://localhost:4222}\nempty: ${TRIPDEX_TEST_UNSET}"
	got := string(expandEnvVars([]byte(in)))
	want := "key: sk-123\nurl: nats://localhost:4222\nempty: "
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestLoad_Local(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load("local")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Embedding.APIKey != "sk-test" {
		t.Errorf("api key not expanded: %q", cfg.Embedding.APIKey)
	}
	if cfg.HTTP.Port == 0 || cfg.VectorStore.Driver == "" {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestLoad_Missing(t *testing.T) {
	if _, err := Load("does-not-exist"); err == nil {
		t.Fatal("expected error for missing config")
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("ENV", "")
	if GetEnv() != "local" {
		t.Errorf("default env = %q", GetEnv())
	}
	t.Setenv("ENV", "prod")
	if GetEnv() != "prod" {
		t.Errorf("env = %q", GetEnv())
	}
}
