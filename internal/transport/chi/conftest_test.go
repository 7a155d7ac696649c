package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/tripdex/internal/domain"
	"github.com/kailas-cloud/tripdex/internal/domain/descriptor"
	"github.com/kailas-cloud/tripdex/internal/domain/search/request"
	"github.com/kailas-cloud/tripdex/internal/domain/search/result"
	healthuc "github.com/kailas-cloud/tripdex/internal/usecase/health"
	"github.com/kailas-cloud/tripdex/internal/usecase/indexing"
	searchuc "github.com/kailas-cloud/tripdex/internal/usecase/search"
)

type fakeSearcher struct {
	resp       searchuc.Response
	similar    []result.Result
	err        error
	gotQuery   string
	gotCrit    request.Criteria
	gotID      string
	gotLimit   int
	panicQuery bool
	tokens     int
}

func (f *fakeSearcher) Search(ctx context.Context, query string, c request.Criteria) (searchuc.Response, error) {
	if f.panicQuery {
		panic("boom")
	}
	f.gotQuery, f.gotCrit = query, c
	if f.tokens > 0 {
		domain.UsageFromContext(ctx).AddTokens(f.tokens)
	}
	return f.resp, f.err
}

func (f *fakeSearcher) FindSimilar(_ context.Context, id string, limit int) ([]result.Result, error) {
	f.gotID, f.gotLimit = id, limit
	return f.similar, f.err
}

func (f *fakeSearcher) TripTypes() []descriptor.TripType { return descriptor.TripTypes() }

type fakeReindexer struct {
	report indexing.ReindexReport
	err    error
}

func (f *fakeReindexer) ReindexAll(context.Context) (indexing.ReindexReport, error) {
	return f.report, f.err
}

type fakeStats struct {
	info domain.CollectionInfo
	err  error
}

func (f *fakeStats) Stats(context.Context) (domain.CollectionInfo, error) { return f.info, f.err }

type fakeJobs struct {
	mu     sync.Mutex
	reject bool
	jobs   []indexing.Job
}

func (f *fakeJobs) Submit(job indexing.Job) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.reject {
		return false
	}
	f.jobs = append(f.jobs, job)
	return true
}

type fakeHealth struct {
	report healthuc.Report
}

func (f *fakeHealth) Check(context.Context) healthuc.Report { return f.report }

type testServer struct {
	search  *fakeSearcher
	reindex *fakeReindexer
	stats   *fakeStats
	jobs    *fakeJobs
	health  *fakeHealth
	handler http.Handler
}

func newTestServer(t *testing.T, apiKeys ...string) *testServer {
	t.Helper()
	ts := &testServer{
		search:  &fakeSearcher{},
		reindex: &fakeReindexer{},
		stats:   &fakeStats{},
		jobs:    &fakeJobs{},
		health:  &fakeHealth{report: healthuc.Report{Status: healthuc.Healthy, Checks: map[string]healthuc.CheckResult{}}},
	}
	srv := NewServer(ts.search, ts.reindex, ts.stats, ts.jobs, ts.health, zap.NewNop())
	ts.handler = srv.Router(RouterConfig{APIKeys: apiKeys})
	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader = http.NoBody
	switch b := body.(type) {
	case nil:
	case string:
		r = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatal(err)
		}
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rr.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}
