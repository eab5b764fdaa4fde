package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mr1hm/go-hazard-watch/internal/models"
	"github.com/mr1hm/go-hazard-watch/internal/preferences"
)

func kinds(notices []Notice) []Kind {
	out := make([]Kind, len(notices))
	for i, n := range notices {
		out[i] = n.Kind
	}
	return out
}

func TestEvaluate(t *testing.T) {
	now := time.Date(2025, 8, 1, 14, 0, 0, 0, time.UTC)
	prefs := preferences.Defaults() // notify >= 5.0, tsunami on

	sf := models.SavedPlace{ID: "p-sf", Name: "San Francisco", Latitude: 37.77, Longitude: -122.42, RadiusKm: 100, MinMagnitude: 3, AlertsEnabled: true}
	muted := models.SavedPlace{ID: "p-muted", Name: "Oakland", Latitude: 37.80, Longitude: -122.27, RadiusKm: 100, AlertsEnabled: false}
	strict := models.SavedPlace{ID: "p-strict", Name: "San Jose", Latitude: 37.33, Longitude: -121.89, RadiusKm: 200, MinMagnitude: 6, AlertsEnabled: true}
	places := []models.SavedPlace{sf, muted, strict}

	t.Run("small nearby quake", func(t *testing.T) {
		e := models.HazardEvent{ID: "nc1", Magnitude: 3.4, Latitude: 37.9, Longitude: -122.3, Place: "Berkeley"}
		got := Evaluate(e, prefs, places, now)
		require.Len(t, got, 1)
		assert.Equal(t, KindNearPlace, got[0].Kind)
		assert.Equal(t, "p-sf", got[0].PlaceID)
		assert.Equal(t, "near_place:nc1:p-sf", got[0].ID)
		require.NotNil(t, got[0].DistanceKm)
		assert.Less(t, *got[0].DistanceKm, 100.0)
		assert.Contains(t, got[0].Message, "km from San Francisco")
	})

	t.Run("large distant tsunami quake", func(t *testing.T) {
		e := models.HazardEvent{ID: "us1", Magnitude: 7.8, Latitude: 38.3, Longitude: 142.4, TsunamiFlag: true, Place: "off Honshu"}
		got := Evaluate(e, prefs, places, now)
		assert.Equal(t, []Kind{KindSignificant, KindTsunami}, kinds(got))
		assert.Equal(t, "M7.8 earthquake", got[0].Title)
	})

	t.Run("tsunami notices disabled", func(t *testing.T) {
		p := prefs
		p.NotifyTsunami = false
		e := models.HazardEvent{ID: "us1", Magnitude: 7.8, Latitude: 38.3, Longitude: 142.4, TsunamiFlag: true}
		assert.Equal(t, []Kind{KindSignificant}, kinds(Evaluate(e, p, nil, now)))
	})

	t.Run("notifications disabled", func(t *testing.T) {
		p := prefs
		p.NotificationsEnabled = false
		e := models.HazardEvent{ID: "big", Magnitude: 8, Latitude: 37.77, Longitude: -122.42}
		assert.Empty(t, Evaluate(e, p, places, now))
	})

	t.Run("quiet hours", func(t *testing.T) {
		p := prefs
		p.QuietHoursEnabled = true
		p.QuietHoursStart = "13:00"
		p.QuietHoursEnd = "15:00"
		e := models.HazardEvent{ID: "big", Magnitude: 8}
		assert.Empty(t, Evaluate(e, p, nil, now))
	})

	t.Run("imperial distance", func(t *testing.T) {
		p := prefs
		p.Units = models.UnitsImperial
		e := models.HazardEvent{ID: "nc2", Magnitude: 3.4, Latitude: 37.9, Longitude: -122.3, Place: "Berkeley"}
		got := Evaluate(e, p, []models.SavedPlace{sf}, now)
		require.Len(t, got, 1)
		assert.Contains(t, got[0].Message, "mi from San Francisco")
	})
}

func TestInQuietHours(t *testing.T) {
	at := func(h, m int) time.Time { return time.Date(2025, 1, 1, h, m, 0, 0, time.UTC) }
	prefs := func(start, end string) models.Preferences {
		p := preferences.Defaults()
		p.QuietHoursEnabled = true
		p.QuietHoursStart = start
		p.QuietHoursEnd = end
		return p
	}

	tests := []struct {
		name  string
		prefs models.Preferences
		now   time.Time
		want  bool
	}{
		{"same day inside", prefs("09:00", "17:00"), at(12, 0), true},
		{"same day end exclusive", prefs("09:00", "17:00"), at(17, 0), false},
		{"same day start inclusive", prefs("09:00", "17:00"), at(9, 0), true},
		{"wrap late evening", prefs("22:00", "07:00"), at(23, 30), true},
		{"wrap early morning", prefs("22:00", "07:00"), at(6, 59), true},
		{"wrap outside", prefs("22:00", "07:00"), at(12, 0), false},
		{"empty window", prefs("08:00", "08:00"), at(8, 0), false},
		{"disabled", preferences.Defaults(), at(23, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InQuietHours(tt.prefs, tt.now))
		})
	}
}
