package tripdex

import (
	"github.com/kailas-cloud/tripdex/internal/domain"
	"github.com/kailas-cloud/tripdex/internal/domain/descriptor"
	"github.com/kailas-cloud/tripdex/internal/domain/destination"
	"github.com/kailas-cloud/tripdex/internal/domain/point"
	"github.com/kailas-cloud/tripdex/internal/domain/search/request"
	"github.com/kailas-cloud/tripdex/internal/domain/search/result"
	searchuc "github.com/kailas-cloud/tripdex/internal/usecase/search"
)

// Location is a geographic position.
type Location struct {
	Lat     float64
	Lon     float64
	Address string
}

// Destination is a catalog record to index.
type Destination struct {
	ID          string
	Name        string
	City        string
	Country     string
	Description string
	Price       float64
	Activities  []string
	Categories  []string
	TripTypes   []string
	Rating      float64
	Available   bool
	MainImage   string
	Location    *Location
}

// Near restricts results to RadiusM meters around a point.
type Near struct {
	Lat     float64
	Lon     float64
	RadiusM float64
}

// Criteria are optional search constraints. Nil pointers and empty strings are ignored.
// AvailableOnly defaults to true; Limit defaults to 10 and is capped at 100.
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

// Float returns a pointer to v, for optional Criteria fields.
func Float(v float64) *float64 { return &v }

// Bool returns a pointer to v, for optional Criteria fields.
func Bool(v bool) *bool { return &v }

// Hit is a single search result.
type Hit struct {
	ID          string
	Name        string
	City        string
	Country     string
	Description string
	Price       float64
	Activities  []string
	Categories  []string
	TripTypes   []string
	Rating      float64
	Available   bool
	MainImage   string
	Location    *Location
	Score       float32
	// Relevance is Score as a percentage in [0, 100].
	Relevance int
}

// SearchResult is the outcome of a semantic search.
type SearchResult struct {
	Hits          []Hit
	Query         string
	EnrichedQuery string
	Total         int
}

// Stats describes the collection.
type Stats struct {
	Collection string
	Points     uint64
	VectorSize int
	Distance   string
	Status     string
}

// TripType is a trip category usable as Criteria.TripType.
type TripType struct {
	ID          string
	Name        string
	Description string
	Keywords    []string
}

func toRecord(d Destination) destination.Record {
	rec := destination.Record{
		ID:          d.ID,
		Name:        d.Name,
		City:        d.City,
		Country:     d.Country,
		Description: d.Description,
		Price:       d.Price,
		Activities:  d.Activities,
		Categories:  d.Categories,
		TripTypes:   d.TripTypes,
		Rating:      d.Rating,
		Available:   d.Available,
		MainImage:   d.MainImage,
	}
	if d.Location != nil {
		rec.Location = &destination.Location{Lat: d.Location.Lat, Lon: d.Location.Lon, Address: d.Location.Address}
	}
	return rec
}

func toCriteria(c Criteria) request.Criteria {
	rc := request.Criteria{
		TripType:      c.TripType,
		PriceMin:      c.PriceMin,
		PriceMax:      c.PriceMax,
		Country:       c.Country,
		City:          c.City,
		MinRating:     c.MinRating,
		AvailableOnly: c.AvailableOnly,
		Limit:         c.Limit,
	}
	if c.Near != nil {
		rc.Near = &request.Near{Lat: c.Near.Lat, Lon: c.Near.Lon, RadiusM: c.Near.RadiusM}
	}
	return rc
}

func fromResult(r result.Result) Hit {
	p := r.Payload()
	h := Hit{
		ID:          p.NativeID,
		Name:        p.Name,
		City:        p.City,
		Country:     p.Country,
		Description: p.Description,
		Price:       p.Price,
		Activities:  p.Activities,
		Categories:  p.Categories,
		TripTypes:   p.TripTypes,
		Rating:      p.Rating,
		Available:   p.Available,
		MainImage:   p.MainImage,
		Score:       r.Score(),
		Relevance:   r.Relevance(),
	}
	if p.Location != nil {
		h.Location = fromGeo(p.Location)
	}
	return h
}

func fromGeo(g *point.GeoPoint) *Location {
	return &Location{Lat: g.Lat, Lon: g.Lon}
}

func fromResults(rs []result.Result) []Hit {
	hits := make([]Hit, len(rs))
	for i := range rs {
		hits[i] = fromResult(rs[i])
	}
	return hits
}

func fromResponse(resp searchuc.Response) SearchResult {
	return SearchResult{
		Hits:          fromResults(resp.Results),
		Query:         resp.Query,
		EnrichedQuery: resp.EnrichedQuery,
		Total:         resp.Total,
	}
}

func fromInfo(info domain.CollectionInfo) Stats {
	return Stats{
		Collection: info.Name,
		Points:     info.PointCount,
		VectorSize: info.VectorSize,
		Distance:   info.Distance,
		Status:     string(info.Status),
	}
}

func fromTripTypes(tts []descriptor.TripType) []TripType {
	out := make([]TripType, len(tts))
	for i, tt := range tts {
		out[i] = TripType{ID: tt.ID, Name: tt.Name, Description: tt.Description, Keywords: tt.Keywords}
	}
	return out
}
