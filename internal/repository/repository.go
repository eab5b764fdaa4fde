// Package repository is the persistence collaborator behind the event cache,
// the preferences store and the saved-places book. Two backends implement
// Store: SQLite for durable installs and an in-memory map for tests and
// ephemeral runs.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/mr1hm/go-hazard-watch/internal/models"
)

var ErrNotFound = errors.New("not found")

// EventQuery selects cached events. Zero values impose no constraint.
type EventQuery struct {
	CachedAfter  time.Time
	MinTime      *time.Time
	MinMagnitude *float64
}

type EventRepository interface {
	// UpsertEvents writes the batch atomically, stamping every row with cachedAt.
	UpsertEvents(ctx context.Context, events []models.HazardEvent, cachedAt time.Time) error
	// ListEvents returns matches ordered by occurrence time, newest first.
	ListEvents(ctx context.Context, q EventQuery) ([]models.HazardEvent, error)
	DeleteEventsCachedBefore(ctx context.Context, cutoff time.Time) (int64, error)
	CountEvents(ctx context.Context) (int, error)
}

type PreferencesRepository interface {
	// LoadPreferences returns nil with no error when nothing was ever saved.
	LoadPreferences(ctx context.Context) (*models.Preferences, error)
	SavePreferences(ctx context.Context, p models.Preferences) error
}

type PlaceRepository interface {
	AddPlace(ctx context.Context, p models.SavedPlace) error
	GetPlace(ctx context.Context, id string) (*models.SavedPlace, error)
	// ListPlaces orders by creation time, oldest first.
	ListPlaces(ctx context.Context) ([]models.SavedPlace, error)
	DeletePlace(ctx context.Context, id string) error
}

type Store interface {
	EventRepository
	PreferencesRepository
	PlaceRepository
	Close() error
}
