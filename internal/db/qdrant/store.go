// Package qdrant implements the vector store on the Qdrant gRPC API.
package qdrant

import (
	"context"
	"fmt"
	"time"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/kailas-cloud/tripdex/internal/db"
	"github.com/kailas-cloud/tripdex/internal/domain"
	"github.com/kailas-cloud/tripdex/internal/domain/point"
	"github.com/kailas-cloud/tripdex/internal/domain/search/filter"
)

// Compile-time check: Store implements db.VectorStore.
var _ db.VectorStore = (*Store)(nil)

const defaultPort = 6334

// api is the subset of *pb.Client the store calls.
//
//nolint:interfacebloat // mirrors the SDK surface used
type api interface {
	CollectionExists(ctx context.Context, name string) (bool, error)
	CreateCollection(ctx context.Context, req *pb.CreateCollection) error
	DeleteCollection(ctx context.Context, name string) error
	CreateFieldIndex(ctx context.Context, req *pb.CreateFieldIndexCollection) (*pb.UpdateResult, error)
	GetCollectionInfo(ctx context.Context, name string) (*pb.CollectionInfo, error)
	Upsert(ctx context.Context, req *pb.UpsertPoints) (*pb.UpdateResult, error)
	Delete(ctx context.Context, req *pb.DeletePoints) (*pb.UpdateResult, error)
	Get(ctx context.Context, req *pb.GetPoints) ([]*pb.RetrievedPoint, error)
	Query(ctx context.Context, req *pb.QueryPoints) ([]*pb.ScoredPoint, error)
	HealthCheck(ctx context.Context) (*pb.HealthCheckReply, error)
	Close() error
}

// Config holds connection parameters for a Qdrant store.
type Config struct {
	Host       string
	Port       int
	APIKey     string
	UseTLS     bool
	Collection string
	// Timeout bounds every gRPC call. Zero leaves deadlines to the caller.
	Timeout time.Duration
}

// Store is a single Qdrant collection.
type Store struct {
	client     api
	collection string
	timeout    time.Duration
}

// NewStore creates a Qdrant store. The gRPC connection is established lazily.
func NewStore(cfg Config) (*Store, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("host is required")
	}
	if cfg.Collection == "" {
		return nil, fmt.Errorf("collection is required")
	}
	port := cfg.Port
	if port == 0 {
		port = defaultPort
	}

	client, err := pb.NewClient(&pb.Config{
		Host:                   cfg.Host,
		Port:                   port,
		APIKey:                 cfg.APIKey,
		UseTLS:                 cfg.UseTLS,
		SkipCompatibilityCheck: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return &Store{client: client, collection: cfg.Collection, timeout: cfg.Timeout}, nil
}

// Collection returns the bound collection name.
func (s *Store) Collection() string { return s.collection }

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	if _, err := s.client.HealthCheck(ctx); err != nil {
		return unavailable("health check", err)
	}
	return nil
}

// Close releases the gRPC connections.
func (s *Store) Close() error {
	return s.client.Close()
}

// EnsureCollection creates the collection if absent and any payload index it is missing.
func (s *Store) EnsureCollection(ctx context.Context, spec domain.CollectionSpec) error {
	if err := spec.Validate(); err != nil {
		return err
	}
	exists, err := s.collectionExists(ctx)
	if err != nil {
		return err
	}
	if !exists {
		return s.create(ctx, spec)
	}
	return s.ensureIndexes(ctx, spec)
}

// RecreateCollection drops the collection if present and creates it empty.
func (s *Store) RecreateCollection(ctx context.Context, spec domain.CollectionSpec) error {
	if err := spec.Validate(); err != nil {
		return err
	}
	exists, err := s.collectionExists(ctx)
	if err != nil {
		return err
	}
	if exists {
		cctx, cancel := s.withTimeout(ctx)
		err := s.client.DeleteCollection(cctx, s.collection)
		cancel()
		if err != nil {
			return unavailable("delete collection", err)
		}
	}
	return s.create(ctx, spec)
}

func (s *Store) collectionExists(ctx context.Context) (bool, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return false, unavailable("collection exists", err)
	}
	return exists, nil
}

func (s *Store) create(ctx context.Context, spec domain.CollectionSpec) error {
	cctx, cancel := s.withTimeout(ctx)
	err := s.client.CreateCollection(cctx, &pb.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: pb.NewVectorsConfig(&pb.VectorParams{
			Size:     uint64(spec.VectorSize),
			Distance: pb.Distance_Cosine,
		}),
	})
	cancel()
	if err != nil && status.Code(err) != codes.AlreadyExists {
		return unavailable("create collection", err)
	}

	for _, f := range spec.Fields {
		if err := s.createIndex(ctx, f); err != nil {
			return err
		}
	}
	return nil
}

// ensureIndexes creates the spec fields absent from the collection's payload schema.
// A create that failed halfway leaves an existing collection without some of them.
func (s *Store) ensureIndexes(ctx context.Context, spec domain.CollectionSpec) error {
	cctx, cancel := s.withTimeout(ctx)
	info, err := s.client.GetCollectionInfo(cctx, s.collection)
	cancel()
	if err != nil {
		return unavailable("collection info", err)
	}

	schema := info.GetPayloadSchema()
	for _, f := range spec.Fields {
		if _, ok := schema[f.Name]; ok {
			continue
		}
		if err := s.createIndex(ctx, f); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) createIndex(ctx context.Context, f domain.FieldIndex) error {
	ft, ok := fieldTypes[f.Kind]
	if !ok {
		return fmt.Errorf("field %q: unsupported index kind %q: %w", f.Name, f.Kind, domain.ErrInvalidInput)
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	_, err := s.client.CreateFieldIndex(ctx, &pb.CreateFieldIndexCollection{
		CollectionName: s.collection,
		Wait:           pb.PtrOf(true),
		FieldName:      f.Name,
		FieldType:      pb.PtrOf(ft),
	})
	if err != nil {
		return unavailable("create field index "+f.Name, err)
	}
	return nil
}

var fieldTypes = map[domain.FieldKind]pb.FieldType{
	domain.FieldKeyword: pb.FieldType_FieldTypeKeyword,
	domain.FieldFloat:   pb.FieldType_FieldTypeFloat,
	domain.FieldBool:    pb.FieldType_FieldTypeBool,
	domain.FieldGeo:     pb.FieldType_FieldTypeGeo,
}

// Upsert writes whole points, replacing any existing point with the same id.
func (s *Store) Upsert(ctx context.Context, points []point.Point) error {
	if len(points) == 0 {
		return nil
	}
	structs := make([]*pb.PointStruct, 0, len(points))
	for i := range points {
		ps, err := toPointStruct(points[i])
		if err != nil {
			return fmt.Errorf("point %s: %w", points[i].ID, err)
		}
		structs = append(structs, ps)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	_, err := s.client.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: s.collection,
		Wait:           pb.PtrOf(true),
		Points:         structs,
	})
	if err != nil {
		return unavailable(fmt.Sprintf("upsert %d points", len(points)), err)
	}
	return nil
}

// Delete removes points by id. Missing ids are ignored.
func (s *Store) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	_, err := s.client.Delete(ctx, &pb.DeletePoints{
		CollectionName: s.collection,
		Wait:           pb.PtrOf(true),
		Points:         pb.NewPointsSelectorIDs(toPointIDs(ids)),
	})
	if err != nil {
		return unavailable(fmt.Sprintf("delete %d points", len(ids)), err)
	}
	return nil
}

// Retrieve returns a single point with its payload.
func (s *Store) Retrieve(ctx context.Context, id string, withVector bool) (point.Point, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	res, err := s.client.Get(ctx, &pb.GetPoints{
		CollectionName: s.collection,
		Ids:            []*pb.PointId{pb.NewID(id)},
		WithPayload:    pb.NewWithPayload(true),
		WithVectors:    pb.NewWithVectors(withVector),
	})
	if err != nil {
		return point.Point{}, unavailable("retrieve", err)
	}
	if len(res) == 0 {
		return point.Point{}, fmt.Errorf("point %s: %w", id, domain.ErrNotFound)
	}
	r := res[0]
	return point.Point{
		ID:      r.GetId().GetUuid(),
		Vector:  denseVector(r.GetVectors()),
		Payload: point.FromMap(fromValueMap(r.GetPayload())),
	}, nil
}

// Search returns the nearest points by cosine similarity, best first.
func (s *Store) Search(
	ctx context.Context, vector []float32, filters filter.Expression, limit int,
) ([]point.Scored, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive: %w", domain.ErrInvalidInput)
	}
	req := &pb.QueryPoints{
		CollectionName: s.collection,
		Query:          pb.NewQueryDense(vector),
		Limit:          pb.PtrOf(uint64(limit)),
		WithPayload:    pb.NewWithPayload(true),
	}
	if !filters.IsEmpty() {
		req.Filter = toFilter(filters)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	hits, err := s.client.Query(ctx, req)
	if err != nil {
		return nil, unavailable("search", err)
	}

	out := make([]point.Scored, 0, len(hits))
	for _, h := range hits {
		out = append(out, point.Scored{
			Point: point.Point{
				ID:      h.GetId().GetUuid(),
				Payload: point.FromMap(fromValueMap(h.GetPayload())),
			},
			Score: h.GetScore(),
		})
	}
	return out, nil
}

// Info returns point count, vector parameters and status of the collection.
func (s *Store) Info(ctx context.Context) (domain.CollectionInfo, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	info, err := s.client.GetCollectionInfo(ctx, s.collection)
	if err != nil {
		return domain.CollectionInfo{}, unavailable("collection info", err)
	}
	params := info.GetConfig().GetParams().GetVectorsConfig().GetParams()
	return domain.CollectionInfo{
		Name:       s.collection,
		PointCount: info.GetPointsCount(),
		VectorSize: int(params.GetSize()),
		Distance:   distanceName(params.GetDistance()),
		Status:     collectionStatus(info.GetStatus()),
	}, nil
}

func collectionStatus(st pb.CollectionStatus) domain.CollectionStatus {
	switch st {
	case pb.CollectionStatus_Green:
		return domain.CollectionReady
	case pb.CollectionStatus_Yellow, pb.CollectionStatus_Grey:
		return domain.CollectionOptimizing
	case pb.CollectionStatus_Red:
		return domain.CollectionError
	default:
		return domain.CollectionUnknown
	}
}

func distanceName(d pb.Distance) string {
	switch d {
	case pb.Distance_Cosine:
		return domain.DistanceCosine
	case pb.Distance_Euclid:
		return "euclid"
	case pb.Distance_Dot:
		return "dot"
	case pb.Distance_Manhattan:
		return "manhattan"
	default:
		return "unknown"
	}
}

// withTimeout bounds one gRPC call by the store timeout.
func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

// unavailable wraps a transport error. InvalidArgument from the server is a caller error.
func unavailable(op string, err error) error {
	if status.Code(err) == codes.InvalidArgument {
		return fmt.Errorf("qdrant %s: %w: %w", op, domain.ErrInvalidInput, err)
	}
	return fmt.Errorf("qdrant %s: %w: %w", op, domain.ErrVectorStoreUnavailable, err)
}
