package filter

import (
	"fmt"

	"github.com/kailas-cloud/tripdex/internal/domain/geo"
)

// MaxConditionsPerGroup is the maximum number of conditions per filter group.
const MaxConditionsPerGroup = 32

// Expression is a structured filter: every must condition holds and no must_not condition holds.
type Expression struct {
	must    []Condition
	mustNot []Condition
}

// NewExpression validates and creates a filter Expression.
func NewExpression(must, mustNot []Condition) (Expression, error) {
	if len(must) > MaxConditionsPerGroup {
		return Expression{}, fmt.Errorf("too many must conditions (max %d)", MaxConditionsPerGroup)
	}
	if len(mustNot) > MaxConditionsPerGroup {
		return Expression{}, fmt.Errorf("too many must_not conditions (max %d)", MaxConditionsPerGroup)
	}
	return Expression{must: must, mustNot: mustNot}, nil
}

// Must returns the must conditions.
func (e Expression) Must() []Condition { return e.must }

// MustNot returns the must-not conditions.
func (e Expression) MustNot() []Condition { return e.mustNot }

// IsEmpty reports whether the expression has no conditions.
func (e Expression) IsEmpty() bool {
	return len(e.must) == 0 && len(e.mustNot) == 0
}

// Kind is the type of a filter condition.
type Kind int

// Condition kinds.
const (
	KindMatch Kind = iota + 1
	KindMatchBool
	KindMatchAny
	KindRange
	KindGeoRadius
)

// Condition is a single filter clause on a payload key.
type Condition struct {
	kind      Kind
	key       string
	match     string
	matchBool bool
	anyOf     []string
	rangeExpr *Range
	geo       *GeoRadius
}

// NewMatch creates an exact keyword match condition.
func NewMatch(key, match string) (Condition, error) {
	if key == "" {
		return Condition{}, fmt.Errorf("filter key is required")
	}
	if match == "" {
		return Condition{}, fmt.Errorf("match value is required for key %q", key)
	}
	return Condition{kind: KindMatch, key: key, match: match}, nil
}

// NewMatchBool creates an exact boolean match condition.
func NewMatchBool(key string, value bool) (Condition, error) {
	if key == "" {
		return Condition{}, fmt.Errorf("filter key is required")
	}
	return Condition{kind: KindMatchBool, key: key, matchBool: value}, nil
}

// NewMatchAny matches payload lists sharing at least one value with anyOf.
func NewMatchAny(key string, anyOf ...string) (Condition, error) {
	if key == "" {
		return Condition{}, fmt.Errorf("filter key is required")
	}
	if len(anyOf) == 0 {
		return Condition{}, fmt.Errorf("at least one value is required for key %q", key)
	}
	vals := make([]string, len(anyOf))
	copy(vals, anyOf)
	return Condition{kind: KindMatchAny, key: key, anyOf: vals}, nil
}

// NewRange creates a numeric range condition.
func NewRange(key string, r Range) (Condition, error) {
	if key == "" {
		return Condition{}, fmt.Errorf("filter key is required")
	}
	return Condition{kind: KindRange, key: key, rangeExpr: &r}, nil
}

// NewGeoRadius matches geo payloads within radius meters of a center.
func NewGeoRadius(key string, g GeoRadius) (Condition, error) {
	if key == "" {
		return Condition{}, fmt.Errorf("filter key is required")
	}
	return Condition{kind: KindGeoRadius, key: key, geo: &g}, nil
}

// Kind returns the condition type.
func (c Condition) Kind() Kind { return c.kind }

// Key returns the field name.
func (c Condition) Key() string { return c.key }

// Match returns the exact match value.
func (c Condition) Match() string { return c.match }

// MatchBool returns the boolean match value.
func (c Condition) MatchBool() bool { return c.matchBool }

// AnyOf returns the match-any values.
func (c Condition) AnyOf() []string { return c.anyOf }

// Range returns the numeric range expression.
func (c Condition) Range() *Range { return c.rangeExpr }

// Geo returns the geo radius expression.
func (c Condition) Geo() *GeoRadius { return c.geo }

// Range is a numeric range with gt/gte/lt/lte boundaries.
type Range struct {
	gt  *float64
	gte *float64
	lt  *float64
	lte *float64
}

// NewRangeFilter validates and creates a Range.
// At least one boundary required. gt/gte and lt/lte are mutually exclusive.
func NewRangeFilter(gt, gte, lt, lte *float64) (Range, error) {
	if gt == nil && gte == nil && lt == nil && lte == nil {
		return Range{}, fmt.Errorf("at least one range boundary is required")
	}
	if gt != nil && gte != nil {
		return Range{}, fmt.Errorf("cannot specify both gt and gte")
	}
	if lt != nil && lte != nil {
		return Range{}, fmt.Errorf("cannot specify both lt and lte")
	}
	return Range{gt: gt, gte: gte, lt: lt, lte: lte}, nil
}

// GT returns the lower exclusive bound.
func (r Range) GT() *float64 { return r.gt }

// GTE returns the lower inclusive bound.
func (r Range) GTE() *float64 { return r.gte }

// LT returns the upper exclusive bound.
func (r Range) LT() *float64 { return r.lt }

// LTE returns the upper inclusive bound.
func (r Range) LTE() *float64 { return r.lte }

// Contains reports whether v satisfies every boundary.
func (r Range) Contains(v float64) bool {
	if r.gt != nil && v <= *r.gt {
		return false
	}
	if r.gte != nil && v < *r.gte {
		return false
	}
	if r.lt != nil && v >= *r.lt {
		return false
	}
	if r.lte != nil && v > *r.lte {
		return false
	}
	return true
}

// GeoRadius is a circle on the earth surface.
type GeoRadius struct {
	lat     float64
	lon     float64
	radiusM float64
}

// NewGeoRadiusFilter validates and creates a GeoRadius.
func NewGeoRadiusFilter(lat, lon, radiusM float64) (GeoRadius, error) {
	if !geo.ValidateCoordinates(lat, lon) {
		return GeoRadius{}, fmt.Errorf("coordinates (%v, %v) out of range", lat, lon)
	}
	if radiusM <= 0 {
		return GeoRadius{}, fmt.Errorf("radius must be positive")
	}
	return GeoRadius{lat: lat, lon: lon, radiusM: radiusM}, nil
}

// Lat returns the center latitude.
func (g GeoRadius) Lat() float64 { return g.lat }

// Lon returns the center longitude.
func (g GeoRadius) Lon() float64 { return g.lon }

// RadiusMeters returns the radius in meters.
func (g GeoRadius) RadiusMeters() float64 { return g.radiusM }

// Contains reports whether (lat, lon) lies inside the circle.
func (g GeoRadius) Contains(lat, lon float64) bool {
	return geo.WithinRadius(g.lat, g.lon, lat, lon, g.radiusM)
}
