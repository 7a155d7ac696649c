package request

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/tripdex/internal/domain"
	"github.com/kailas-cloud/tripdex/internal/domain/point"
	"github.com/kailas-cloud/tripdex/internal/domain/search/filter"
)

// DefaultSimilarLimit is the default number of similar destinations.
const DefaultSimilarLimit = 5

// SimilarRequest is a validated "find similar" query.
type SimilarRequest struct {
	nativeID string
	limit    int
	filters  filter.Expression
}

// NewSimilar validates the source id and builds the self-exclusion filter.
func NewSimilar(nativeID string, limit int) (SimilarRequest, error) {
	nativeID = strings.TrimSpace(nativeID)
	if nativeID == "" {
		return SimilarRequest{}, fmt.Errorf("destination id is required: %w", domain.ErrInvalidInput)
	}
	if limit < 0 {
		return SimilarRequest{}, fmt.Errorf("limit must not be negative: %w", domain.ErrInvalidInput)
	}
	if limit == 0 {
		limit = DefaultSimilarLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	self, err := filter.NewMatch(point.FieldNativeID, nativeID)
	if err != nil {
		return SimilarRequest{}, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	filters, err := filter.NewExpression(nil, []filter.Condition{self})
	if err != nil {
		return SimilarRequest{}, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}

	return SimilarRequest{nativeID: nativeID, limit: limit, filters: filters}, nil
}

// NativeID returns the catalog id of the source destination.
func (r *SimilarRequest) NativeID() string { return r.nativeID }

// Limit returns the maximum results to return.
func (r *SimilarRequest) Limit() int { return r.limit }

// Filters returns the self-exclusion filter.
func (r *SimilarRequest) Filters() filter.Expression { return r.filters }
