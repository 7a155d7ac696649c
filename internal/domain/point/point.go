// Package point defines the vector point: its derived id, its payload schema
// and the scored search hit.
package point

import "github.com/kailas-cloud/tripdex/internal/domain/destination"

// Point is a vector store entry. It is always written whole.
type Point struct {
	ID      string
	Vector  []float32
	Payload Payload
}

// New builds the point for a catalog record and its embedding.
func New(r destination.Record, vector []float32) Point {
	return Point{
		ID:      ID(r.ID),
		Vector:  vector,
		Payload: FromRecord(r),
	}
}

// Scored is a search hit with its similarity score.
type Scored struct {
	Point
	Score float32
}
