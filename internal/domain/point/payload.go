package point

import (
	"slices"

	"github.com/kailas-cloud/tripdex/internal/domain/destination"
)

// Payload field keys. Writers and readers share these names.
const (
	FieldNativeID    = "native_id"
	FieldName        = "name"
	FieldCity        = "city"
	FieldCountry     = "country"
	FieldDescription = "description"
	FieldPrice       = "price"
	FieldActivities  = "activities"
	FieldCategories  = "categories"
	FieldTripTypes   = "trip_types"
	FieldRating      = "rating"
	FieldAvailable   = "available"
	FieldMainImage   = "main_image"
	FieldLocation    = "location"
)

// GeoPoint is the payload form of a location (vector store geo format).
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Payload is the denormalized snapshot stored with every point.
type Payload struct {
	NativeID    string    `json:"native_id"`
	Name        string    `json:"name"`
	City        string    `json:"city"`
	Country     string    `json:"country"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Activities  []string  `json:"activities"`
	Categories  []string  `json:"categories"`
	TripTypes   []string  `json:"trip_types"`
	Rating      float64   `json:"rating"`
	Available   bool      `json:"available"`
	MainImage   string    `json:"main_image,omitempty"`
	Location    *GeoPoint `json:"location,omitempty"`
}

// FromRecord projects a catalog record onto the payload schema.
func FromRecord(r destination.Record) Payload {
	p := Payload{
		NativeID:    r.ID,
		Name:        r.Name,
		City:        r.City,
		Country:     r.Country,
		Description: r.Description,
		Price:       r.Price,
		Activities:  cloneList(r.Activities),
		Categories:  cloneList(r.Categories),
		TripTypes:   cloneList(r.TripTypes),
		Rating:      r.Rating,
		Available:   r.Available,
		MainImage:   r.MainImage,
	}
	if r.Location != nil {
		p.Location = &GeoPoint{Lat: r.Location.Lat, Lon: r.Location.Lon}
	}
	return p
}

// Map renders the payload as a store-neutral map. Lists are []any.
func (p Payload) Map() map[string]any {
	m := map[string]any{
		FieldNativeID:    p.NativeID,
		FieldName:        p.Name,
		FieldCity:        p.City,
		FieldCountry:     p.Country,
		FieldDescription: p.Description,
		FieldPrice:       p.Price,
		FieldActivities:  toAnyList(p.Activities),
		FieldCategories:  toAnyList(p.Categories),
		FieldTripTypes:   toAnyList(p.TripTypes),
		FieldRating:      p.Rating,
		FieldAvailable:   p.Available,
		FieldMainImage:   p.MainImage,
	}
	if p.Location != nil {
		m[FieldLocation] = map[string]any{"lat": p.Location.Lat, "lon": p.Location.Lon}
	}
	return m
}

// FromMap parses a store map back into a Payload. Unknown keys are ignored.
func FromMap(m map[string]any) Payload {
	p := Payload{
		NativeID:    asString(m[FieldNativeID]),
		Name:        asString(m[FieldName]),
		City:        asString(m[FieldCity]),
		Country:     asString(m[FieldCountry]),
		Description: asString(m[FieldDescription]),
		Price:       asFloat(m[FieldPrice]),
		Activities:  asStringList(m[FieldActivities]),
		Categories:  asStringList(m[FieldCategories]),
		TripTypes:   asStringList(m[FieldTripTypes]),
		Rating:      asFloat(m[FieldRating]),
		MainImage:   asString(m[FieldMainImage]),
	}
	if b, ok := m[FieldAvailable].(bool); ok {
		p.Available = b
	}
	if loc, ok := m[FieldLocation].(map[string]any); ok {
		p.Location = &GeoPoint{Lat: asFloat(loc["lat"]), Lon: asFloat(loc["lon"])}
	}
	return p
}

func cloneList(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	return slices.Clone(in)
}

func toAnyList(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case int32:
		return float64(n)
	case uint64:
		return float64(n)
	default:
		return 0
	}
}

func asStringList(v any) []string {
	switch l := v.(type) {
	case []string:
		return cloneList(l)
	case []any:
		if len(l) == 0 {
			return nil
		}
		out := make([]string, 0, len(l))
		for _, item := range l {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
