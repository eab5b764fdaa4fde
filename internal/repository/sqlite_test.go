package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mr1hm/go-hazard-watch/internal/models"
)

func setupTestDB(t *testing.T) *SQLiteDB {
	t.Helper()
	db, err := NewSQLiteDB(":memory:")
	require.NoError(t, err, "failed to create test db")
	t.Cleanup(func() { db.Close() })
	return db
}

// backends runs fn against every Store implementation.
func backends(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Run("sqlite", func(t *testing.T) { fn(t, setupTestDB(t)) })
	t.Run("memory", func(t *testing.T) { fn(t, NewMemoryStore()) })
}

func event(id string, occurred time.Time, mag float64) models.HazardEvent {
	return models.HazardEvent{ID: id, OccurredAt: occurred.UTC(), Magnitude: mag, Latitude: 35, Longitude: 139, Place: "test " + id}
}

func eventIDs(events []models.HazardEvent) []string {
	ids := make([]string, len(events))
	for i, e := range events {
		ids[i] = e.ID
	}
	return ids
}

func TestStore_UpsertAndListEvents(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		base := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
		felt := 42

		first := event("a", base, 3.0)
		first.Felt = &felt
		require.NoError(t, s.UpsertEvents(ctx, []models.HazardEvent{
			first,
			event("b", base.Add(2*time.Hour), 5.0),
			event("c", base.Add(time.Hour), 4.0),
		}, base))

		got, err := s.ListEvents(ctx, EventQuery{})
		require.NoError(t, err)
		assert.Equal(t, []string{"b", "c", "a"}, eventIDs(got))
		require.NotNil(t, got[2].Felt)
		assert.Equal(t, 42, *got[2].Felt)
		assert.Equal(t, first.OccurredAt, got[2].OccurredAt)

		// upsert replaces by id
		require.NoError(t, s.UpsertEvents(ctx, []models.HazardEvent{event("a", base, 3.3)}, base))
		n, err := s.CountEvents(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, n)

		got, err = s.ListEvents(ctx, EventQuery{})
		require.NoError(t, err)
		assert.Equal(t, 3.3, got[2].Magnitude)
	})
}

func TestStore_ListEventsFilters(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		base := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)

		require.NoError(t, s.UpsertEvents(ctx, []models.HazardEvent{
			event("old-big", base, 6.0),
			event("new-small", base.Add(3*time.Hour), 2.0),
		}, base))
		require.NoError(t, s.UpsertEvents(ctx, []models.HazardEvent{
			event("new-big", base.Add(4*time.Hour), 5.0),
		}, base.Add(time.Hour)))

		minTime := base.Add(time.Hour)
		got, err := s.ListEvents(ctx, EventQuery{MinTime: &minTime})
		require.NoError(t, err)
		assert.Equal(t, []string{"new-big", "new-small"}, eventIDs(got))

		minMag := 4.5
		got, err = s.ListEvents(ctx, EventQuery{MinMagnitude: &minMag})
		require.NoError(t, err)
		assert.Equal(t, []string{"new-big", "old-big"}, eventIDs(got))

		got, err = s.ListEvents(ctx, EventQuery{CachedAfter: base.Add(30 * time.Minute)})
		require.NoError(t, err)
		assert.Equal(t, []string{"new-big"}, eventIDs(got))
	})
}

func TestStore_DeleteEventsCachedBefore(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		base := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)

		require.NoError(t, s.UpsertEvents(ctx, []models.HazardEvent{event("stale", base, 3)}, base))
		require.NoError(t, s.UpsertEvents(ctx, []models.HazardEvent{event("fresh", base, 3)}, base.Add(73*time.Hour)))

		n, err := s.DeleteEventsCachedBefore(ctx, base.Add(time.Hour))
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		got, err := s.ListEvents(ctx, EventQuery{})
		require.NoError(t, err)
		assert.Equal(t, []string{"fresh"}, eventIDs(got))
	})
}

func TestStore_Preferences(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		p, err := s.LoadPreferences(ctx)
		require.NoError(t, err)
		assert.Nil(t, p, "first run has no preferences")

		want := models.Preferences{
			Units:            models.UnitsImperial,
			PollingFrequency: 60000,
			QuietHoursStart:  "22:00",
			LastUpdated:      time.Date(2025, 2, 1, 8, 0, 0, 0, time.UTC),
		}
		require.NoError(t, s.SavePreferences(ctx, want))

		want.Units = models.UnitsMetric
		require.NoError(t, s.SavePreferences(ctx, want))

		p, err = s.LoadPreferences(ctx)
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.Equal(t, want, *p)
	})
}

func TestStore_Places(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		base := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

		home := models.SavedPlace{ID: "2", Name: "Home", Latitude: 37.77, Longitude: -122.42, RadiusKm: 100, MinMagnitude: 3, AlertsEnabled: true, CreatedAt: base.Add(time.Minute)}
		work := models.SavedPlace{ID: "1", Name: "Work", Latitude: 37.33, Longitude: -121.89, RadiusKm: 50, MinMagnitude: 4, CreatedAt: base}

		require.NoError(t, s.AddPlace(ctx, home))
		require.NoError(t, s.AddPlace(ctx, work))
		assert.Error(t, s.AddPlace(ctx, work), "duplicate id")

		got, err := s.GetPlace(ctx, "2")
		require.NoError(t, err)
		assert.Equal(t, home, *got)

		list, err := s.ListPlaces(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "Work", list[0].Name)

		require.NoError(t, s.DeletePlace(ctx, "1"))
		assert.ErrorIs(t, s.DeletePlace(ctx, "1"), ErrNotFound)

		_, err = s.GetPlace(ctx, "1")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestSQLiteDB_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hazard.db")
	ctx := context.Background()

	db, err := NewSQLiteDB(path)
	require.NoError(t, err)
	require.NoError(t, db.UpsertEvents(ctx, []models.HazardEvent{event("kept", time.Now(), 4)}, time.Now()))
	require.NoError(t, db.Close())

	db, err = NewSQLiteDB(path)
	require.NoError(t, err)
	defer db.Close()

	n, err := db.CountEvents(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSQLiteDB_UseAfterClosePanics(t *testing.T) {
	db, err := NewSQLiteDB(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.Close())
	require.NoError(t, db.Close(), "second close is a no-op")

	assert.Panics(t, func() {
		_, _ = db.CountEvents(context.Background())
	})
}

func TestSQLiteDB_ZeroValuePanics(t *testing.T) {
	var db SQLiteDB
	assert.Panics(t, func() {
		_, _ = db.LoadPreferences(context.Background())
	})
}
