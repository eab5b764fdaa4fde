package models

import (
	"time"

	"github.com/mr1hm/go-hazard-watch/internal/geo"
)

// HazardEvent is an earthquake normalized from the seismic feed. Pointer
// fields are optional provenance values passed through from the origin feed.
type HazardEvent struct {
	ID           string    `json:"id"`         // feed id, unique within one snapshot
	OccurredAt   time.Time `json:"occurredAt"` // origin time
	UpdatedAt    time.Time `json:"updatedAt"`  // last revision upstream
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	DepthKm      float64   `json:"depthKm"` // negative above sea level
	Magnitude    float64   `json:"magnitude"`
	Place        string    `json:"place"`
	Title        string    `json:"title,omitempty"`
	TsunamiFlag  bool      `json:"tsunamiFlag"`
	Significance int       `json:"significance"`

	MagnitudeType string   `json:"magnitudeType,omitempty"`
	Source        string   `json:"source,omitempty"` // network that produced the preferred solution
	Status        string   `json:"status,omitempty"` // automatic, reviewed, deleted
	Type          string   `json:"type,omitempty"`   // earthquake, quarry blast, ...
	Alert         string   `json:"alert,omitempty"`  // PAGER level
	Felt          *int     `json:"felt,omitempty"`
	CDI           *float64 `json:"cdi,omitempty"`
	MMI           *float64 `json:"mmi,omitempty"`
	Timezone      *int     `json:"tz,omitempty"`
	URL           string   `json:"url,omitempty"`
	Detail        string   `json:"detail,omitempty"`
	Code          string   `json:"code,omitempty"`
	IDs           string   `json:"ids,omitempty"`
	Sources       string   `json:"sources,omitempty"`
	Types         string   `json:"types,omitempty"`
	Stations      *int     `json:"nst,omitempty"`
	Dmin          *float64 `json:"dmin,omitempty"`
	RMS           *float64 `json:"rms,omitempty"`
	Gap           *float64 `json:"gap,omitempty"`
}

func (e *HazardEvent) Point() geo.Point {
	return geo.Point{Lat: e.Latitude, Lon: e.Longitude}
}

// FeltRadiusKm is the estimated radius within which the event was perceptible.
func (e *HazardEvent) FeltRadiusKm() float64 {
	return geo.FeltRadiusKm(e.Magnitude)
}
