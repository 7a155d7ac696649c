// Package chi exposes the search, indexing and health operations over HTTP.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/tripdex/internal/domain"
	"github.com/kailas-cloud/tripdex/internal/domain/descriptor"
	"github.com/kailas-cloud/tripdex/internal/domain/destination"
	"github.com/kailas-cloud/tripdex/internal/domain/search/request"
	"github.com/kailas-cloud/tripdex/internal/domain/search/result"
	"github.com/kailas-cloud/tripdex/internal/metrics"
	healthuc "github.com/kailas-cloud/tripdex/internal/usecase/health"
	"github.com/kailas-cloud/tripdex/internal/usecase/indexing"
	searchuc "github.com/kailas-cloud/tripdex/internal/usecase/search"
)

const maxBodyBytes = 1 << 20

// headerEmbeddingTokens reports the embedding tokens spent on a request.
const headerEmbeddingTokens = "X-Embedding-Tokens"

// Searcher runs semantic and similarity searches.
type Searcher interface {
	Search(ctx context.Context, query string, c request.Criteria) (searchuc.Response, error)
	FindSimilar(ctx context.Context, nativeID string, limit int) ([]result.Result, error)
	TripTypes() []descriptor.TripType
}

// Reindexer rebuilds the whole index from the catalog.
type Reindexer interface {
	ReindexAll(ctx context.Context) (indexing.ReindexReport, error)
}

// StatsReader describes the collection.
type StatsReader interface {
	Stats(ctx context.Context) (domain.CollectionInfo, error)
}

// JobSubmitter accepts asynchronous indexing jobs.
type JobSubmitter interface {
	Submit(job indexing.Job) bool
}

// HealthChecker aggregates component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// Server holds the HTTP handlers.
type Server struct {
	search  Searcher
	reindex Reindexer
	stats   StatsReader
	jobs    JobSubmitter
	health  HealthChecker
	logger  *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(
	search Searcher,
	reindex Reindexer,
	stats StatsReader,
	jobs JobSubmitter,
	health HealthChecker,
	logger *zap.Logger,
) *Server {
	return &Server{
		search:  search,
		reindex: reindex,
		stats:   stats,
		jobs:    jobs,
		health:  health,
		logger:  logger,
	}
}

// RouterConfig configures the middleware stack.
type RouterConfig struct {
	APIKeys []string
}

// Router builds the chi router with the full middleware stack.
func (s *Server) Router(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(s.logger))
	r.Use(BearerAuthMiddleware(cfg.APIKeys))
	r.Use(metrics.Middleware())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, CodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeBadRequest, "method not allowed")
	})

	r.Route("/search", func(r chi.Router) {
		r.Post("/semantic", s.SemanticSearch)
		r.Get("/similar/{id}", s.SimilarSearch)
		r.Post("/index", s.Reindex)
		r.Get("/stats", s.Stats)
		r.Get("/trip-types", s.TripTypes)
	})
	r.Put("/destinations/{id}/index", s.IndexDestination)
	r.Delete("/destinations/{id}/index", s.RemoveDestination)
	r.Get("/health", s.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// SemanticSearch handles POST /search/semantic.
func (s *Server) SemanticSearch(w http.ResponseWriter, r *http.Request) {
	var req SemanticSearchRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	resp, err := s.search.Search(ctx, req.Query, req.criteria())
	if err != nil {
		handleDomainError(w, r, err)
		return
	}

	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, searchResponse(resp))
}

// SimilarSearch handles GET /search/similar/{id}.
func (s *Server) SimilarSearch(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, CodeValidationFailed, "limit must be an integer")
			return
		}
		limit = n
	}

	results, err := s.search.FindSimilar(r.Context(), chi.URLParam(r, "id"), limit)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, SimilarResponse{
		Results: hitsFromResults(results),
		Total:   len(results),
	})
}

// Reindex handles POST /search/index.
func (s *Server) Reindex(w http.ResponseWriter, r *http.Request) {
	ctx, usage := domain.NewContextWithUsage(r.Context())
	report, err := s.reindex.ReindexAll(ctx)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}

	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, ReindexResponse{
		Indexed: report.Indexed,
		Batches: report.Batches,
		Skipped: report.Skipped,
	})
}

// Stats handles GET /search/stats.
func (s *Server) Stats(w http.ResponseWriter, r *http.Request) {
	info, err := s.stats.Stats(r.Context())
	if err != nil {
		handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, statsResponse(info))
}

// TripTypes handles GET /search/trip-types.
func (s *Server) TripTypes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, tripTypesResponse(s.search.TripTypes()))
}

// IndexDestination handles PUT /destinations/{id}/index.
// The body may carry the full record; otherwise it is fetched from the catalog.
func (s *Server) IndexDestination(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))

	var rec *destination.Record
	var body destination.Record
	switch err := decodeBody(r, &body); {
	case errors.Is(err, io.EOF):
	case err != nil:
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	default:
		if body.ID == "" {
			body.ID = id
		}
		if body.ID != id {
			writeError(w, http.StatusBadRequest, CodeValidationFailed, "record id does not match path id")
			return
		}
		rec = &body
	}

	s.submit(w, r, indexing.Job{Op: indexing.OpUpsert, NativeID: id, Record: rec})
}

// RemoveDestination handles DELETE /destinations/{id}/index.
func (s *Server) RemoveDestination(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	s.submit(w, r, indexing.Job{Op: indexing.OpRemove, NativeID: id})
}

func (s *Server) submit(w http.ResponseWriter, r *http.Request, job indexing.Job) {
	if job.NativeID == "" {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "destination id is required")
		return
	}
	if !s.jobs.Submit(job) {
		writeError(w, http.StatusServiceUnavailable, CodeQueueUnavailable, "indexing queue unavailable")
		return
	}
	w.Header().Set("Location", r.URL.Path)
	writeJSON(w, http.StatusAccepted, IndexJobResponse{ID: job.NativeID, Status: "accepted"})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	status := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, HealthResponse{Status: string(report.Status), Checks: checks})
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v) //nolint:wrapcheck // reported to the client as is
}

func setEmbeddingHeaders(w http.ResponseWriter, usage *domain.EmbeddingUsage) {
	if tokens, used := usage.Snapshot(); used {
		w.Header().Set(headerEmbeddingTokens, strconv.Itoa(tokens))
	}
}
