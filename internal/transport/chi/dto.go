package chi

import (
	"github.com/kailas-cloud/tripdex/internal/domain"
	"github.com/kailas-cloud/tripdex/internal/domain/descriptor"
	"github.com/kailas-cloud/tripdex/internal/domain/search/request"
	"github.com/kailas-cloud/tripdex/internal/domain/search/result"
	searchuc "github.com/kailas-cloud/tripdex/internal/usecase/search"
)

// ErrorCode is a machine-readable error code.
type ErrorCode string

// Error codes returned in ErrorResponse.
const (
	CodeBadRequest             ErrorCode = "bad_request"
	CodeValidationFailed       ErrorCode = "validation_failed"
	CodeUnauthorized           ErrorCode = "unauthorized"
	CodeNotFound               ErrorCode = "not_found"
	CodeNotIndexed             ErrorCode = "not_indexed"
	CodeEmbeddingUnavailable   ErrorCode = "embedding_unavailable"
	CodeRateLimited            ErrorCode = "rate_limited"
	CodeVectorStoreUnavailable ErrorCode = "vector_store_unavailable"
	CodeCatalogUnavailable     ErrorCode = "catalog_unavailable"
	CodeQueueUnavailable       ErrorCode = "queue_unavailable"
	CodeInternalError          ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// NearRequest is a geo-radius constraint.
type NearRequest struct {
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	RadiusM float64 `json:"radius_m"`
}

// SemanticSearchRequest is the body of POST /search/semantic.
type SemanticSearchRequest struct {
	Query         string       `json:"query"`
	TripType      string       `json:"trip_type,omitempty"`
	PriceMin      *float64     `json:"price_min,omitempty"`
	PriceMax      *float64     `json:"price_max,omitempty"`
	Country       string       `json:"country,omitempty"`
	City          string       `json:"city,omitempty"`
	MinRating     *float64     `json:"min_rating,omitempty"`
	AvailableOnly *bool        `json:"available_only,omitempty"`
	Near          *NearRequest `json:"near,omitempty"`
	Limit         int          `json:"limit,omitempty"`
}

func (r SemanticSearchRequest) criteria() request.Criteria {
	c := request.Criteria{
		TripType:      r.TripType,
		PriceMin:      r.PriceMin,
		PriceMax:      r.PriceMax,
		Country:       r.Country,
		City:          r.City,
		MinRating:     r.MinRating,
		AvailableOnly: r.AvailableOnly,
		Limit:         r.Limit,
	}
	if r.Near != nil {
		c.Near = &request.Near{Lat: r.Near.Lat, Lon: r.Near.Lon, RadiusM: r.Near.RadiusM}
	}
	return c
}

// Location is a destination coordinate.
type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// DestinationHit is a search result.
type DestinationHit struct {
	ID          string    `json:"id"`
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
	Location    *Location `json:"location,omitempty"`
	Score       float32   `json:"score"`
	Relevance   int       `json:"relevance"`
}

// SemanticSearchResponse is the body of a successful semantic search.
type SemanticSearchResponse struct {
	Results       []DestinationHit `json:"results"`
	Query         string           `json:"query"`
	EnrichedQuery string           `json:"enriched_query"`
	Total         int              `json:"total"`
}

// SimilarResponse is the body of a successful similarity search.
type SimilarResponse struct {
	Results []DestinationHit `json:"results"`
	Total   int              `json:"total"`
}

// ReindexResponse reports a completed rebuild.
type ReindexResponse struct {
	Indexed int `json:"indexed"`
	Batches int `json:"batches"`
	Skipped int `json:"skipped"`
}

// StatsResponse describes the collection.
type StatsResponse struct {
	Collection string `json:"collection"`
	PointCount uint64 `json:"point_count"`
	VectorSize int    `json:"vector_size"`
	Distance   string `json:"distance"`
	Status     string `json:"status"`
}

// TripTypeItem is one entry of the trip-type table.
type TripTypeItem struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords"`
}

// TripTypesResponse lists the supported trip types.
type TripTypesResponse struct {
	TripTypes []TripTypeItem `json:"trip_types"`
}

// IndexJobResponse acknowledges an accepted indexing job.
type IndexJobResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func hitsFromResults(results []result.Result) []DestinationHit {
	hits := make([]DestinationHit, len(results))
	for i := range results {
		hits[i] = hitFromResult(&results[i])
	}
	return hits
}

func hitFromResult(r *result.Result) DestinationHit {
	p := r.Payload()
	h := DestinationHit{
		ID:          p.NativeID,
		Name:        p.Name,
		City:        p.City,
		Country:     p.Country,
		Description: p.Description,
		Price:       p.Price,
		Activities:  nonNil(p.Activities),
		Categories:  nonNil(p.Categories),
		TripTypes:   nonNil(p.TripTypes),
		Rating:      p.Rating,
		Available:   p.Available,
		MainImage:   p.MainImage,
		Score:       r.Score(),
		Relevance:   r.Relevance(),
	}
	if p.Location != nil {
		h.Location = &Location{Lat: p.Location.Lat, Lon: p.Location.Lon}
	}
	return h
}

func searchResponse(resp searchuc.Response) SemanticSearchResponse {
	return SemanticSearchResponse{
		Results:       hitsFromResults(resp.Results),
		Query:         resp.Query,
		EnrichedQuery: resp.EnrichedQuery,
		Total:         resp.Total,
	}
}

func statsResponse(info domain.CollectionInfo) StatsResponse {
	return StatsResponse{
		Collection: info.Name,
		PointCount: info.PointCount,
		VectorSize: info.VectorSize,
		Distance:   info.Distance,
		Status:     string(info.Status),
	}
}

func tripTypesResponse(tts []descriptor.TripType) TripTypesResponse {
	items := make([]TripTypeItem, len(tts))
	for i, tt := range tts {
		items[i] = TripTypeItem{ID: tt.ID, Name: tt.Name, Description: tt.Description, Keywords: tt.Keywords}
	}
	return TripTypesResponse{TripTypes: items}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
