// Package destination holds the catalog record as the search core sees it.
// Records are owned by the catalog; the core only reads them.
package destination

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/tripdex/internal/domain"
	"github.com/kailas-cloud/tripdex/internal/domain/geo"
)

// Location is the geographic position of a destination.
type Location struct {
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Address string  `json:"address,omitempty"`
}

// Validate checks coordinate bounds.
func (l Location) Validate() error {
	if !geo.ValidateCoordinates(l.Lat, l.Lon) {
		return fmt.Errorf("coordinates (%v, %v) out of range: %w", l.Lat, l.Lon, domain.ErrInvalidInput)
	}
	return nil
}

// Record is a catalog destination.
type Record struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	City        string    `json:"city"`
	Country     string    `json:"country"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Activities  []string  `json:"activities,omitempty"`
	Categories  []string  `json:"categories,omitempty"`
	TripTypes   []string  `json:"trip_types,omitempty"`
	Rating      float64   `json:"rating"`
	Available   bool      `json:"available"`
	MainImage   string    `json:"main_image,omitempty"`
	Location    *Location `json:"location,omitempty"`
}

// Validate rejects records that cannot be indexed.
func (r *Record) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return fmt.Errorf("destination id is required: %w", domain.ErrInvalidInput)
	}
	if r.Location != nil {
		if err := r.Location.Validate(); err != nil {
			return fmt.Errorf("destination %s: %w", r.ID, err)
		}
	}
	return nil
}
