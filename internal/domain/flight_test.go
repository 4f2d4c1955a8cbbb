package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewSearchRequest_Defaults(t *testing.T) {
	r := NewSearchRequest("ICN", "LAX", time.Date(2025, 1, 2, 15, 0, 0, 0, time.UTC), "")
	assert.Equal(t, 1, r.Adults)
	assert.Equal(t, 0, r.Children)
	assert.Equal(t, 0, r.Infants)
	assert.Equal(t, DefaultProvider, r.Provider)
	assert.Equal(t, 1, r.TotalPassengers())
	assert.False(t, r.IsRoundTrip())
	assert.Equal(t, time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), r.DepartureDate)
	assert.NoError(t, r.Validate())
}

func TestSearchRequest_Validate(t *testing.T) {
	base := NewSearchRequest("ICN", "LAX", time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), "AMADEUS")
	sameDay := base.DepartureDate

	tests := []struct {
		name   string
		mutate func(*SearchRequest)
	}{
		{"same route", func(r *SearchRequest) { r.Destination = "ICN" }},
		{"missing origin", func(r *SearchRequest) { r.Origin = "" }},
		{"return same day", func(r *SearchRequest) { r.ReturnDate = &sameDay }},
		{"no adults", func(r *SearchRequest) { r.Adults = 0 }},
		{"too many infants", func(r *SearchRequest) { r.Infants = 3 }},
		{"too many passengers", func(r *SearchRequest) { r.Adults = 6; r.Children = 4 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := base
			tt.mutate(&r)
			assert.ErrorIs(t, r.Validate(), ErrInvalidSearch)
		})
	}
}

func TestErrorSearchResponse(t *testing.T) {
	req := NewSearchRequest("ICN", "LAX", time.Now(), "AMADEUS")
	resp := ErrorSearchResponse(req, errors.New("boom"), time.Now())
	assert.Equal(t, SearchStatusError, resp.Status)
	assert.Equal(t, "boom", resp.Message)
	assert.NotNil(t, resp.Offers)
	assert.Empty(t, resp.Offers)
}
