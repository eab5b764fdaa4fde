// Package notify computes which events deserve the user's attention under
// their preferences and saved places, and publishes the resulting notices to
// stream subscribers. Delivering them to a device is left to the consumer.
package notify

import (
	"fmt"
	"time"

	"github.com/mr1hm/go-hazard-watch/internal/geo"
	"github.com/mr1hm/go-hazard-watch/internal/models"
	"github.com/mr1hm/go-hazard-watch/internal/preferences"
)

type Kind string

const (
	KindSignificant Kind = "significant"
	KindTsunami     Kind = "tsunami"
	KindNearPlace   Kind = "near_place"
)

type Notice struct {
	ID         string    `json:"id"`
	Kind       Kind      `json:"kind"`
	EventID    string    `json:"eventId"`
	PlaceID    string    `json:"placeId,omitempty"`
	Title      string    `json:"title"`
	Message    string    `json:"message"`
	Magnitude  float64   `json:"magnitude"`
	DistanceKm *float64  `json:"distanceKm,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Evaluate returns the notices one event triggers. Nothing is returned when
// notifications are off or now falls inside quiet hours.
func Evaluate(e models.HazardEvent, prefs models.Preferences, places []models.SavedPlace, now time.Time) []Notice {
	if !prefs.NotificationsEnabled || InQuietHours(prefs, now) {
		return nil
	}

	var notices []Notice
	if e.Magnitude >= prefs.NotifyMinMagnitude {
		notices = append(notices, Notice{
			ID:        fmt.Sprintf("%s:%s", KindSignificant, e.ID),
			Kind:      KindSignificant,
			EventID:   e.ID,
			Title:     fmt.Sprintf("M%.1f earthquake", e.Magnitude),
			Message:   e.Place,
			Magnitude: e.Magnitude,
			CreatedAt: now,
		})
	}
	if prefs.NotifyTsunami && e.TsunamiFlag {
		notices = append(notices, Notice{
			ID:        fmt.Sprintf("%s:%s", KindTsunami, e.ID),
			Kind:      KindTsunami,
			EventID:   e.ID,
			Title:     "Tsunami potential",
			Message:   fmt.Sprintf("M%.1f %s was flagged for tsunami potential", e.Magnitude, e.Place),
			Magnitude: e.Magnitude,
			CreatedAt: now,
		})
	}

	for _, p := range places {
		if !p.AlertsEnabled || e.Magnitude < p.MinMagnitude {
			continue
		}
		d := geo.HaversineKm(p.Latitude, p.Longitude, e.Latitude, e.Longitude)
		if d > p.RadiusKm {
			continue
		}
		notices = append(notices, Notice{
			ID:         fmt.Sprintf("%s:%s:%s", KindNearPlace, e.ID, p.ID),
			Kind:       KindNearPlace,
			EventID:    e.ID,
			PlaceID:    p.ID,
			Title:      fmt.Sprintf("M%.1f near %s", e.Magnitude, p.Name),
			Message:    fmt.Sprintf("%s, %s from %s", e.Place, formatDistance(d, prefs.Units), p.Name),
			Magnitude:  e.Magnitude,
			DistanceKm: &d,
			CreatedAt:  now,
		})
	}
	return notices
}

// InQuietHours reports whether now's wall clock falls in [start, end). The
// window wraps midnight when end is before start; equal bounds are empty.
func InQuietHours(prefs models.Preferences, now time.Time) bool {
	if !prefs.QuietHoursEnabled {
		return false
	}
	start, err := preferences.ParseClock(prefs.QuietHoursStart)
	if err != nil {
		return false
	}
	end, err := preferences.ParseClock(prefs.QuietHoursEnd)
	if err != nil {
		return false
	}

	m := now.Hour()*60 + now.Minute()
	switch {
	case start == end:
		return false
	case start < end:
		return m >= start && m < end
	default:
		return m >= start || m < end
	}
}

func formatDistance(km float64, units string) string {
	if units == models.UnitsImperial {
		return fmt.Sprintf("%.0f mi", geo.ConvertDistance(km, units))
	}
	return fmt.Sprintf("%.0f km", km)
}
