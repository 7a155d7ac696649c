package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	natsgo "github.com/nats-io/nats.go"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/tripdex/internal/config"
	"github.com/kailas-cloud/tripdex/internal/db"
	"github.com/kailas-cloud/tripdex/internal/db/memory"
	dbQdrant "github.com/kailas-cloud/tripdex/internal/db/qdrant"
	dbRedis "github.com/kailas-cloud/tripdex/internal/db/redis"
	"github.com/kailas-cloud/tripdex/internal/domain"
	logpkg "github.com/kailas-cloud/tripdex/internal/logger"
	"github.com/kailas-cloud/tripdex/internal/metrics"
	"github.com/kailas-cloud/tripdex/internal/repository/catalog"
	"github.com/kailas-cloud/tripdex/internal/repository/embcache"
	"github.com/kailas-cloud/tripdex/internal/repository/retryqueue"
	"github.com/kailas-cloud/tripdex/internal/tracing"
	chiTransport "github.com/kailas-cloud/tripdex/internal/transport/chi"
	natsTransport "github.com/kailas-cloud/tripdex/internal/transport/nats"
	openaiEmb "github.com/kailas-cloud/tripdex/internal/transport/openai"
	"github.com/kailas-cloud/tripdex/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/tripdex/internal/usecase/health"
	"github.com/kailas-cloud/tripdex/internal/usecase/indexing"
	"github.com/kailas-cloud/tripdex/internal/usecase/lifecycle"
	searchuc "github.com/kailas-cloud/tripdex/internal/usecase/search"
	"github.com/kailas-cloud/tripdex/internal/version"
)

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, logpkg.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting tripdex",
		zap.String("build", version.String()),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("vector_store", cfg.VectorStore.Driver),
		zap.Bool("cache", cfg.Cache.Enabled()),
		zap.Bool("catalog", cfg.Catalog.Enabled()),
		zap.Bool("nats", cfg.NATS.Enabled()),
	)

	// Registered explicitly (no init()).
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterIndexingMetrics()
	metrics.RegisterSearchMetrics()
	metrics.RegisterHTTPMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(ctx, tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		Endpoint:    cfg.Tracing.Endpoint,
		Insecure:    cfg.Tracing.Insecure,
		SampleRatio: cfg.Tracing.SampleRatio,
		Env:         env,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to set up tracing", zap.Error(err))
	}

	vectors, err := newVectorStore(cfg)
	if err != nil {
		logger.Fatal("Failed to create vector store", zap.Error(err))
	}
	defer func() { _ = vectors.Close() }()

	// Redis is optional: it backs the embedding cache and the durable retry queue.
	var redisStore *dbRedis.Store
	if cfg.Cache.Enabled() {
		redisStore, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Password: cfg.Cache.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create redis store", zap.Error(err))
		}
		defer redisStore.Close()
		if err := redisStore.WaitForReady(ctx, time.Duration(cfg.Cache.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Redis not ready", zap.Error(err))
		}
		logger.Info("Connected to redis")
	}

	var catalogRepo *catalog.Repo
	if cfg.Catalog.Enabled() {
		catalogRepo, err = catalog.Connect(ctx, cfg.Catalog.DSN)
		if err != nil {
			logger.Fatal("Failed to connect to catalog", zap.Error(err))
		}
		defer catalogRepo.Close()
		logger.Info("Connected to catalog")
	}

	embedder := buildEmbedder(cfg, redisStore, logger)
	logger.Info("Embedder created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	// The service keeps serving health and trip types while the collection is unreachable.
	manager := lifecycle.New(vectors, cfg.Embedding.Dimensions, logger)
	if err := manager.EnsureReady(ctx); err != nil {
		logger.Warn("Collection not ready, retrying in background", zap.Error(err))
		go manager.Watch(ctx, time.Duration(cfg.VectorStore.ReadinessRetry)*time.Second)
	}

	indexer := indexing.New(vectors, embedder, manager, logger)
	dispatcher := indexing.NewDispatcher(indexer, indexing.DispatcherConfig{
		Workers:    cfg.Indexing.Workers,
		QueueSize:  cfg.Indexing.QueueSize,
		JobTimeout: time.Duration(cfg.Indexing.JobTimeoutSec) * time.Second,
	}, logger)

	// Healing needs both the durable queue and the catalog to refetch records from.
	var queue *retryqueue.Queue
	if redisStore != nil && catalogRepo != nil {
		queue = retryqueue.New(redisStore, retryqueue.Config{
			BaseBackoff: time.Duration(cfg.Indexing.RetryBaseMs) * time.Millisecond,
			MaxBackoff:  time.Duration(cfg.Indexing.RetryMaxSec) * time.Second,
		})
		dispatcher.WithRetry(queue)
	}
	if catalogRepo != nil {
		indexer.WithCatalog(catalogRepo, cfg.Catalog.PageSize).
			WithReindexTimeout(time.Duration(cfg.Indexing.ReindexTimeoutMin) * time.Minute)
		dispatcher.WithCatalog(catalogRepo)
	}
	dispatcher.Start()

	if queue != nil {
		healer := indexing.NewHealer(queue, catalogRepo, indexer,
			time.Duration(cfg.Indexing.HealIntervalSec)*time.Second, cfg.Indexing.HealBatch, logger)
		go healer.Run(ctx)
	}

	var subscriber *natsTransport.Subscriber
	var natsConn *natsgo.Conn
	if cfg.NATS.Enabled() {
		natsConn, err = natsTransport.Connect(cfg.NATS.URL, logger)
		if err != nil {
			logger.Fatal("Failed to connect to NATS", zap.Error(err))
		}
		defer natsConn.Close()
		subscriber = natsTransport.NewSubscriber(natsConn, natsTransport.Config{
			Subject:    cfg.NATS.Subject,
			QueueGroup: cfg.NATS.QueueGroup,
		}, dispatcher, logger)
		if err := subscriber.Start(); err != nil {
			logger.Fatal("Failed to subscribe to catalog events", zap.Error(err))
		}
	}

	searchSvc := searchuc.New(vectors, embedder, manager)

	healthSvc := healthuc.New(vectors, manager, embedder)
	if redisStore != nil {
		healthSvc.WithCache(redisStore)
	}
	if catalogRepo != nil {
		healthSvc.WithCatalog(catalogRepo)
	}

	server := chiTransport.NewServer(searchSvc, indexer, manager, dispatcher, healthSvc, logger)
	handler := otelhttp.NewHandler(server.Router(chiTransport.RouterConfig{APIKeys: cfg.Auth.APIKeys}), "tripdex",
		otelhttp.WithFilter(func(r *http.Request) bool { return r.URL.Path != "/health" && r.URL.Path != "/metrics" }),
	)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		ReadHeaderTimeout: time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during HTTP shutdown", zap.Error(err))
	}
	if subscriber != nil {
		if err := subscriber.Drain(); err != nil {
			logger.Error("Error draining NATS subscription", zap.Error(err))
		}
	}
	if err := dispatcher.Stop(shutdownCtx); err != nil {
		logger.Error("Error stopping dispatcher", zap.Error(err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error("Error flushing spans", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

func newVectorStore(cfg config.Config) (db.VectorStore, error) {
	switch cfg.VectorStore.Driver {
	case "memory":
		return memory.NewStore(cfg.VectorStore.Collection), nil
	default:
		s, err := dbQdrant.NewStore(dbQdrant.Config{
			Host:       cfg.VectorStore.Host,
			Port:       cfg.VectorStore.Port,
			APIKey:     cfg.VectorStore.APIKey,
			UseTLS:     cfg.VectorStore.UseTLS,
			Collection: cfg.VectorStore.Collection,
			Timeout:    cfg.VectorStoreTimeout(),
		})
		if err != nil {
			return nil, fmt.Errorf("qdrant: %w", err)
		}
		return s, nil
	}
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Instrumented.
func buildEmbedder(cfg config.Config, cache *dbRedis.Store, logger *zap.Logger) *embedding.InstrumentedEmbedder {
	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Embedding.Provider,
		Logger:     logger,
	})

	var inner domain.Embedder = base
	if cache != nil {
		inner = embcache.New(base, cache, metrics.EmbeddingCacheTotal, logger,
			embcache.WithModel(cfg.Embedding.Model),
			embcache.WithTTL(time.Duration(cfg.Embedding.CacheTTLH)*time.Hour),
		)
	}

	return embedding.NewInstrumentedEmbedder(inner, cfg.Embedding.Provider, cfg.Embedding.Model, logger,
		embedding.WithTimeout(cfg.EmbeddingTimeout()),
		embedding.WithRateLimit(cfg.Embedding.RateLimit, cfg.Embedding.RateBurst),
		embedding.WithMaxBatchSize(cfg.Embedding.MaxBatch),
	)
}
