package models

import "github.com/paulmach/orb"

// PlateBoundary is one tectonic boundary polyline, [lon, lat] ordered.
type PlateBoundary struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Type        string         `json:"type"`
	Coordinates orb.LineString `json:"coordinates"`
}

type NuclearPlant struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Country   string  `json:"country"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}
