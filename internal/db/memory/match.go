package memory

import (
	"slices"

	"github.com/kailas-cloud/tripdex/internal/domain/search/filter"
)

func matches(payload map[string]any, e filter.Expression) bool {
	for _, c := range e.Must() {
		if !matchCondition(payload, c) {
			return false
		}
	}
	for _, c := range e.MustNot() {
		if matchCondition(payload, c) {
			return false
		}
	}
	return true
}

// matchCondition follows Qdrant semantics: a keyword condition on a list field
// matches when any element matches.
func matchCondition(payload map[string]any, c filter.Condition) bool {
	v, ok := payload[c.Key()]
	if !ok {
		return false
	}
	switch c.Kind() {
	case filter.KindMatch:
		return slices.Contains(keywords(v), c.Match())
	case filter.KindMatchBool:
		b, ok := v.(bool)
		return ok && b == c.MatchBool()
	case filter.KindMatchAny:
		for _, kw := range keywords(v) {
			if slices.Contains(c.AnyOf(), kw) {
				return true
			}
		}
		return false
	case filter.KindRange:
		f, ok := v.(float64)
		return ok && c.Range().Contains(f)
	case filter.KindGeoRadius:
		loc, ok := v.(map[string]any)
		if !ok {
			return false
		}
		lat, latOK := loc["lat"].(float64)
		lon, lonOK := loc["lon"].(float64)
		return latOK && lonOK && c.Geo().Contains(lat, lon)
	default:
		return false
	}
}

func keywords(v any) []string {
	switch t := v.(type) {
	case string:
		return []string{t}
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
