package domain

import "fmt"

// KeyPrefix is the default Redis key namespace.
const KeyPrefix = "tripdex:"

// CollectionStatus is the caller-facing state of the vector collection.
type CollectionStatus string

// Collection states.
const (
	CollectionReady      CollectionStatus = "ready"
	CollectionOptimizing CollectionStatus = "optimizing"
	CollectionError      CollectionStatus = "error"
	CollectionUnknown    CollectionStatus = "unknown"
)

// FieldKind is a payload index type.
type FieldKind string

// Payload index kinds supported by the vector store.
const (
	FieldKeyword FieldKind = "keyword"
	FieldFloat   FieldKind = "float"
	FieldBool    FieldKind = "bool"
	FieldGeo     FieldKind = "geo"
)

// FieldIndex declares a filterable payload field.
type FieldIndex struct {
	Name string
	Kind FieldKind
}

// DistanceCosine is the only similarity metric the collection is created with.
const DistanceCosine = "cosine"

// CollectionSpec describes the vector collection to create.
// The collection name is bound by the store configuration.
type CollectionSpec struct {
	VectorSize int
	Distance   string
	Fields     []FieldIndex
}

// Validate checks the vector size and distance metric.
func (s CollectionSpec) Validate() error {
	if s.VectorSize <= 0 {
		return fmt.Errorf("vector size must be positive: %w", ErrInvalidInput)
	}
	if s.Distance != DistanceCosine {
		return fmt.Errorf("unsupported distance %q: %w", s.Distance, ErrInvalidInput)
	}
	return nil
}

// CollectionInfo is a snapshot of the collection state.
type CollectionInfo struct {
	Name       string
	PointCount uint64
	VectorSize int
	Distance   string
	Status     CollectionStatus
}
