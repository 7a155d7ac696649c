// Package lifecycle owns the destination collection: its schema, its
// creation at startup and the readiness gate consulted by the pipelines.
package lifecycle

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/tripdex/internal/domain"
	"github.com/kailas-cloud/tripdex/internal/domain/point"
)

// Fields returns the payload indexes every destination collection carries.
func Fields() []domain.FieldIndex {
	return []domain.FieldIndex{
		{Name: point.FieldCountry, Kind: domain.FieldKeyword},
		{Name: point.FieldCity, Kind: domain.FieldKeyword},
		{Name: point.FieldCategories, Kind: domain.FieldKeyword},
		{Name: point.FieldActivities, Kind: domain.FieldKeyword},
		{Name: point.FieldTripTypes, Kind: domain.FieldKeyword},
		{Name: point.FieldNativeID, Kind: domain.FieldKeyword},
		{Name: point.FieldPrice, Kind: domain.FieldFloat},
		{Name: point.FieldRating, Kind: domain.FieldFloat},
		{Name: point.FieldAvailable, Kind: domain.FieldBool},
		{Name: point.FieldLocation, Kind: domain.FieldGeo},
	}
}

// Manager creates the collection and tracks whether it is usable.
type Manager struct {
	store  Store
	spec   domain.CollectionSpec
	ready  atomic.Bool
	logger *zap.Logger
}

// New creates a lifecycle manager for a collection of vectorSize-dimensional cosine vectors.
func New(store Store, vectorSize int, logger *zap.Logger) *Manager {
	return &Manager{
		store: store,
		spec: domain.CollectionSpec{
			VectorSize: vectorSize,
			Distance:   domain.DistanceCosine,
			Fields:     Fields(),
		},
		logger: logger,
	}
}

// Spec returns the collection definition.
func (m *Manager) Spec() domain.CollectionSpec { return m.spec }

// EnsureReady creates the collection and its indexes when absent, then opens the gate.
func (m *Manager) EnsureReady(ctx context.Context) error {
	if err := m.spec.Validate(); err != nil {
		return err
	}
	if err := m.store.EnsureCollection(ctx, m.spec); err != nil {
		return fmt.Errorf("ensure collection: %w", err)
	}
	if !m.ready.Swap(true) {
		m.logger.Info("Collection ready", zap.Int("vector_size", m.spec.VectorSize))
	}
	return nil
}

// Ready reports whether the collection is known to exist.
func (m *Manager) Ready() bool { return m.ready.Load() }

// Watch retries EnsureReady every interval until it succeeds or ctx ends.
func (m *Manager) Watch(ctx context.Context, interval time.Duration) {
	if m.Ready() {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := m.EnsureReady(ctx)
			if err == nil {
				return
			}
			m.logger.Warn("Collection not ready, retrying",
				zap.Duration("interval", interval),
				zap.Error(err),
			)
		}
	}
}

// Recreate drops and rebuilds an empty collection. The gate stays closed on failure.
func (m *Manager) Recreate(ctx context.Context) error {
	if err := m.spec.Validate(); err != nil {
		return err
	}
	if err := m.store.RecreateCollection(ctx, m.spec); err != nil {
		m.ready.Store(false)
		return fmt.Errorf("recreate collection: %w", err)
	}
	m.ready.Store(true)
	m.logger.Info("Collection recreated", zap.Int("vector_size", m.spec.VectorSize))
	return nil
}

// Stats returns the collection snapshot.
func (m *Manager) Stats(ctx context.Context) (domain.CollectionInfo, error) {
	info, err := m.store.Info(ctx)
	if err != nil {
		return domain.CollectionInfo{}, fmt.Errorf("collection info: %w", err)
	}
	return info, nil
}
