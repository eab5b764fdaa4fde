package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mr1hm/go-hazard-watch/internal/models"
	"github.com/mr1hm/go-hazard-watch/internal/observability"
	"github.com/mr1hm/go-hazard-watch/internal/preferences"
)

type staticPrefs models.Preferences

func (p staticPrefs) Current() models.Preferences { return models.Preferences(p) }

type placeList struct {
	places []models.SavedPlace
	err    error
}

func (l placeList) List(context.Context) ([]models.SavedPlace, error) { return l.places, l.err }

func receive(t *testing.T, ch <-chan Notice) Notice {
	t.Helper()
	select {
	case n := <-ch:
		return n
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for notice")
		return Notice{}
	}
}

func TestNotifier_PublishesNotices(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC))
	b := NewBroadcaster()
	defer b.Close()
	id, ch := b.Subscribe()
	defer b.Unsubscribe(id)

	home := models.SavedPlace{ID: "home", Name: "Home", Latitude: 35.68, Longitude: 139.69, RadiusKm: 300, AlertsEnabled: true}
	n := NewNotifier(staticPrefs(preferences.Defaults()), placeList{places: []models.SavedPlace{home}}, b, clock, observability.NewMetricsForTesting(), 2, 10)
	n.Start(context.Background())

	n.ObserveEvents([]models.HazardEvent{
		{ID: "tiny", Magnitude: 1.0, Latitude: -40, Longitude: 170},
		{ID: "tokyo", Magnitude: 4.2, Latitude: 35.9, Longitude: 140.1, Place: "Chiba"},
	})
	n.Stop()

	got := receive(t, ch)
	assert.Equal(t, "near_place:tokyo:home", got.ID)
	assert.Equal(t, clock.Now(), got.CreatedAt)

	select {
	case extra := <-ch:
		t.Fatalf("unexpected notice %s", extra.ID)
	default:
	}
}

func TestNotifier_PlaceListFailureStillNotifiesThresholds(t *testing.T) {
	b := NewBroadcaster()
	defer b.Close()
	id, ch := b.Subscribe()
	defer b.Unsubscribe(id)

	n := NewNotifier(staticPrefs(preferences.Defaults()), placeList{err: errors.New("db closed")}, b, nil, nil, 1, 4)
	n.Start(context.Background())
	n.ObserveEvents([]models.HazardEvent{{ID: "big", Magnitude: 6.6}})
	n.Stop()

	got := receive(t, ch)
	require.Equal(t, KindSignificant, got.Kind)
}
