package models

import "time"

const (
	UnitsMetric   = "metric"
	UnitsImperial = "imperial"

	TimeFormat12h = "12h"
	TimeFormat24h = "24h"
)

// Preferences is the per-installation settings record. It is persisted as a
// whole on every change.
type Preferences struct {
	Units            string `json:"units"`
	TimeFormat       string `json:"timeFormat"`
	PollingFrequency int64  `json:"pollingFrequency"` // milliseconds

	FeedTimeRange      string `json:"feedTimeRange"`
	FeedMagnitudeRange string `json:"feedMagnitudeRange"`

	ShowTsunamiAlerts   bool `json:"showTsunamiAlerts"`
	ShowVolcanoes       bool `json:"showVolcanoes"`
	ShowPlateBoundaries bool `json:"showPlateBoundaries"`
	ShowNuclearPlants   bool `json:"showNuclearPlants"`

	NotificationsEnabled bool    `json:"notificationsEnabled"`
	NotifyMinMagnitude   float64 `json:"notifyMinMagnitude"`
	NotifyTsunami        bool    `json:"notifyTsunami"`
	QuietHoursEnabled    bool    `json:"quietHoursEnabled"`
	QuietHoursStart      string  `json:"quietHoursStart"` // HH:MM local
	QuietHoursEnd        string  `json:"quietHoursEnd"`

	LastUpdated time.Time `json:"lastUpdated"`
}

func (p Preferences) PollInterval() time.Duration {
	return time.Duration(p.PollingFrequency) * time.Millisecond
}

type SavedPlace struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Latitude      float64   `json:"latitude"`
	Longitude     float64   `json:"longitude"`
	RadiusKm      float64   `json:"radius"`
	MinMagnitude  float64   `json:"minMagnitude"`
	AlertsEnabled bool      `json:"alertsEnabled"`
	CreatedAt     time.Time `json:"createdAt"`
}

// MapLayer is a runtime toggle for one entity kind on the map.
type MapLayer struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Type    string `json:"type"`
	Enabled bool   `json:"enabled"`
}
