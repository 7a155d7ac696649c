// Package descriptor renders catalog records and user queries into the text
// that gets embedded. Output must be stable: any drift changes the vectors.
package descriptor

import (
	"strings"

	"github.com/kailas-cloud/tripdex/internal/domain/destination"
)

const (
	partSep = ". "
	listSep = ", "
)

// RecordText renders a record in fixed field order, skipping empty fields.
func RecordText(r destination.Record) string {
	var parts []string
	add := func(label, value string) {
		if v := strings.TrimSpace(value); v != "" {
			parts = append(parts, label+": "+v)
		}
	}
	addList := func(label string, values []string) {
		if v := joinNonBlank(values); v != "" {
			parts = append(parts, label+": "+v)
		}
	}

	add("Name", r.Name)
	add("City", r.City)
	add("Country", r.Country)
	add("Description", r.Description)
	addList("Activities", r.Activities)
	addList("Categories", r.Categories)
	addList("Trip types", r.TripTypes)

	return strings.Join(parts, partSep)
}

// QueryText appends the trip type's synonym phrase to the raw query.
// Unknown or empty trip types leave the query as is.
func QueryText(rawQuery, tripType string) string {
	q := strings.TrimSpace(rawQuery)
	tt, ok := LookupTripType(tripType)
	if !ok {
		return q
	}
	return q + partSep + tt.Expansion
}

func joinNonBlank(values []string) string {
	kept := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			kept = append(kept, v)
		}
	}
	return strings.Join(kept, listSep)
}
