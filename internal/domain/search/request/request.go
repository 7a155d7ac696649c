package request

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/tripdex/internal/domain"
	"github.com/kailas-cloud/tripdex/internal/domain/point"
	"github.com/kailas-cloud/tripdex/internal/domain/search/filter"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search query length.
	MaxQueryLength = 4096
	DefaultLimit   = 10
	MaxLimit       = 100
	MaxRating      = 5
)

// Near restricts results to a circle around a point.
type Near struct {
	Lat     float64
	Lon     float64
	RadiusM float64
}

// Criteria are the optional structured constraints of a search.
// Nil pointers and empty strings mean "not supplied".
type Criteria struct {
	TripType      string
	PriceMin      *float64
	PriceMax      *float64
	Country       string
	City          string
	MinRating     *float64
	AvailableOnly *bool
	Near          *Near
	Limit         int
}

// Request is a validated semantic search query.
type Request struct {
	query         string
	tripType      string
	availableOnly bool
	limit         int
	filters       filter.Expression
}

// New validates the query and criteria and builds the payload filter.
// Defaults: available-only true, limit 10. Limit is clamped to MaxLimit.
func New(query string, c Criteria) (Request, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Request{}, fmt.Errorf("query is required: %w", domain.ErrInvalidInput)
	}
	if len(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("query too long (max %d chars): %w", MaxQueryLength, domain.ErrInvalidInput)
	}
	if err := c.validate(); err != nil {
		return Request{}, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}

	availableOnly := true
	if c.AvailableOnly != nil {
		availableOnly = *c.AvailableOnly
	}

	limit := c.Limit
	if limit == 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	filters, err := c.expression(availableOnly)
	if err != nil {
		return Request{}, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}

	return Request{
		query:         query,
		tripType:      strings.TrimSpace(c.TripType),
		availableOnly: availableOnly,
		limit:         limit,
		filters:       filters,
	}, nil
}

func (c Criteria) validate() error {
	if c.Limit < 0 {
		return fmt.Errorf("limit must not be negative")
	}
	if c.PriceMin != nil && *c.PriceMin < 0 {
		return fmt.Errorf("price_min must not be negative")
	}
	if c.PriceMax != nil && *c.PriceMax < 0 {
		return fmt.Errorf("price_max must not be negative")
	}
	if c.PriceMin != nil && c.PriceMax != nil && *c.PriceMin > *c.PriceMax {
		return fmt.Errorf("price_min must not exceed price_max")
	}
	if c.MinRating != nil && (*c.MinRating < 0 || *c.MinRating > MaxRating) {
		return fmt.Errorf("min_rating must be between 0 and %d", MaxRating)
	}
	return nil
}

// expression builds the must clauses in a fixed order. Absent criteria add nothing.
func (c Criteria) expression(availableOnly bool) (filter.Expression, error) {
	var must []filter.Condition
	add := func(cond filter.Condition, err error) error {
		if err != nil {
			return err
		}
		must = append(must, cond)
		return nil
	}

	if availableOnly {
		if err := add(filter.NewMatchBool(point.FieldAvailable, true)); err != nil {
			return filter.Expression{}, err
		}
	}
	if tt := strings.TrimSpace(c.TripType); tt != "" {
		if err := add(filter.NewMatchAny(point.FieldTripTypes, tt)); err != nil {
			return filter.Expression{}, err
		}
	}
	if country := strings.TrimSpace(c.Country); country != "" {
		if err := add(filter.NewMatch(point.FieldCountry, country)); err != nil {
			return filter.Expression{}, err
		}
	}
	if city := strings.TrimSpace(c.City); city != "" {
		if err := add(filter.NewMatch(point.FieldCity, city)); err != nil {
			return filter.Expression{}, err
		}
	}
	if c.PriceMin != nil || c.PriceMax != nil {
		r, err := filter.NewRangeFilter(nil, c.PriceMin, nil, c.PriceMax)
		if err != nil {
			return filter.Expression{}, err
		}
		if err := add(filter.NewRange(point.FieldPrice, r)); err != nil {
			return filter.Expression{}, err
		}
	}
	if c.MinRating != nil {
		r, err := filter.NewRangeFilter(nil, c.MinRating, nil, nil)
		if err != nil {
			return filter.Expression{}, err
		}
		if err := add(filter.NewRange(point.FieldRating, r)); err != nil {
			return filter.Expression{}, err
		}
	}
	if c.Near != nil {
		g, err := filter.NewGeoRadiusFilter(c.Near.Lat, c.Near.Lon, c.Near.RadiusM)
		if err != nil {
			return filter.Expression{}, err
		}
		if err := add(filter.NewGeoRadius(point.FieldLocation, g)); err != nil {
			return filter.Expression{}, err
		}
	}

	return filter.NewExpression(must, nil)
}

// Query returns the trimmed search text.
func (r *Request) Query() string { return r.query }

// TripType returns the selected trip category, empty if none.
func (r *Request) TripType() string { return r.tripType }

// AvailableOnly reports whether unavailable destinations are excluded.
func (r *Request) AvailableOnly() bool { return r.availableOnly }

// Limit returns the maximum results to return.
func (r *Request) Limit() int { return r.limit }

// Filters returns the payload filter.
func (r *Request) Filters() filter.Expression { return r.filters }
