package tripdex

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	driver     string // "qdrant" or "memory"
	host       string
	port       int
	apiKey     string
	useTLS     bool
	collection string
	timeout    time.Duration

	embedder   Embedder
	vectorSize int

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithQdrant configures the client to store vectors in a Qdrant instance.
func WithQdrant(host string, port int, apiKey string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = driverQdrant
		c.host = host
		c.port = port
		c.apiKey = apiKey
	})
}

// WithTLS enables TLS on the Qdrant gRPC connection.
func WithTLS() Option {
	return optionFunc(func(c *clientConfig) {
		c.useTLS = true
	})
}

// WithMemoryStore keeps vectors in process memory. Contents are lost on Close.
func WithMemoryStore() Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = driverMemory
	})
}

// WithCollection overrides the collection name. Default: "destinations".
func WithCollection(name string) Option {
	return optionFunc(func(c *clientConfig) {
		c.collection = name
	})
}

// WithStoreTimeout bounds every vector store call. Default: 10s.
func WithStoreTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.timeout = d
	})
}

// WithEmbedder sets the text embedding provider. Required.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithVectorSize sets the embedding dimension the collection is created with.
// Must match the Embedder output. Default: 1536.
func WithVectorSize(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.vectorSize = n
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
