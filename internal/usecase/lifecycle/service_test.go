package lifecycle

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/tripdex/internal/domain"
)

type fakeStore struct {
	ensureErrs  []error // consumed one per call, then nil
	ensureCalls atomic.Int32
	recreateErr error
	lastSpec    domain.CollectionSpec
	info        domain.CollectionInfo
	infoErr     error
}

func (f *fakeStore) EnsureCollection(_ context.Context, spec domain.CollectionSpec) error {
	n := int(f.ensureCalls.Add(1))
	f.lastSpec = spec
	if n <= len(f.ensureErrs) {
		return f.ensureErrs[n-1]
	}
	return nil
}

func (f *fakeStore) RecreateCollection(_ context.Context, spec domain.CollectionSpec) error {
	f.lastSpec = spec
	return f.recreateErr
}

func (f *fakeStore) Info(_ context.Context) (domain.CollectionInfo, error) {
	return f.info, f.infoErr
}

func TestEnsureReady(t *testing.T) {
	store := &fakeStore{}
	m := New(store, 1536, zap.NewNop())

	if m.Ready() {
		t.Fatal("gate must start closed")
	}
	if err := m.EnsureReady(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !m.Ready() {
		t.Error("gate must open after EnsureReady")
	}
	if store.lastSpec.VectorSize != 1536 || store.lastSpec.Distance != domain.DistanceCosine {
		t.Errorf("unexpected spec: %+v", store.lastSpec)
	}
	if len(store.lastSpec.Fields) != 10 {
		t.Errorf("expected 10 field indexes, got %d", len(store.lastSpec.Fields))
	}

	if err := m.EnsureReady(context.Background()); err != nil {
		t.Fatalf("second EnsureReady must be a no-op: %v", err)
	}
}

func TestFields_Kinds(t *testing.T) {
	kinds := map[string]domain.FieldKind{}
	for _, f := range Fields() {
		kinds[f.Name] = f.Kind
	}
	want := map[string]domain.FieldKind{
		"country": domain.FieldKeyword, "native_id": domain.FieldKeyword, "trip_types": domain.FieldKeyword,
		"price": domain.FieldFloat, "rating": domain.FieldFloat,
		"available": domain.FieldBool, "location": domain.FieldGeo,
	}
	for name, kind := range want {
		if kinds[name] != kind {
			t.Errorf("%s kind = %q, want %q", name, kinds[name], kind)
		}
	}
}

func TestEnsureReady_Failure(t *testing.T) {
	store := &fakeStore{ensureErrs: []error{domain.ErrVectorStoreUnavailable}}
	m := New(store, 1536, zap.NewNop())

	err := m.EnsureReady(context.Background())
	if !errors.Is(err, domain.ErrVectorStoreUnavailable) {
		t.Fatalf("expected ErrVectorStoreUnavailable, got %v", err)
	}
	if m.Ready() {
		t.Error("gate must stay closed on failure")
	}
}

func TestEnsureReady_InvalidSize(t *testing.T) {
	m := New(&fakeStore{}, 0, zap.NewNop())
	if err := m.EnsureReady(context.Background()); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestWatch_RetriesUntilReady(t *testing.T) {
	store := &fakeStore{ensureErrs: []error{domain.ErrVectorStoreUnavailable, domain.ErrVectorStoreUnavailable}}
	m := New(store, 8, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	m.Watch(ctx, 5*time.Millisecond)

	if !m.Ready() {
		t.Fatal("Watch must return once the collection is ready")
	}
	if store.ensureCalls.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", store.ensureCalls.Load())
	}
}

func TestWatch_StopsOnCancel(t *testing.T) {
	store := &fakeStore{ensureErrs: make([]error, 1000)}
	for i := range store.ensureErrs {
		store.ensureErrs[i] = domain.ErrVectorStoreUnavailable
	}
	m := New(store, 8, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		m.Watch(ctx, 5*time.Millisecond)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Watch must return on context cancel")
	}
	if m.Ready() {
		t.Error("gate must stay closed")
	}
}

func TestRecreate(t *testing.T) {
	store := &fakeStore{}
	m := New(store, 8, zap.NewNop())

	if err := m.Recreate(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !m.Ready() {
		t.Error("gate must open after Recreate")
	}

	store.recreateErr = domain.ErrVectorStoreUnavailable
	if err := m.Recreate(context.Background()); !errors.Is(err, domain.ErrVectorStoreUnavailable) {
		t.Fatalf("expected ErrVectorStoreUnavailable, got %v", err)
	}
	if m.Ready() {
		t.Error("gate must close after a failed Recreate")
	}
}

func TestStats(t *testing.T) {
	info := domain.CollectionInfo{Name: "destinations", PointCount: 3, VectorSize: 8, Distance: "cosine", Status: domain.CollectionReady}
	m := New(&fakeStore{info: info}, 8, zap.NewNop())

	got, err := m.Stats(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != info {
		t.Errorf("Stats() = %+v, want %+v", got, info)
	}

	m = New(&fakeStore{infoErr: domain.ErrVectorStoreUnavailable}, 8, zap.NewNop())
	if _, err := m.Stats(context.Background()); !errors.Is(err, domain.ErrVectorStoreUnavailable) {
		t.Errorf("expected ErrVectorStoreUnavailable, got %v", err)
	}
}
