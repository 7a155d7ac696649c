package result

import (
	"math"

	"github.com/kailas-cloud/tripdex/internal/domain/point"
)

// Result is a single search hit.
type Result struct {
	payload point.Payload
	score   float32
}

// New creates a search result.
func New(payload point.Payload, score float32) Result {
	return Result{payload: payload, score: score}
}

// FromScored converts a vector store hit.
func FromScored(s point.Scored) Result {
	return New(s.Payload, s.Score)
}

// Payload returns the stored destination fields.
func (r *Result) Payload() point.Payload { return r.payload }

// Score returns the raw similarity score.
func (r *Result) Score() float32 { return r.score }

// Relevance returns the score as an integer percentage in [0, 100].
func (r *Result) Relevance() int {
	return Relevance(r.score)
}

// Relevance maps a similarity score to round(score*100), clamped to [0, 100].
func Relevance(score float32) int {
	pct := int(math.Round(float64(score) * 100))
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}
