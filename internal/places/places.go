// Package places manages the user's saved locations.
package places

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/mr1hm/go-hazard-watch/internal/models"
	"github.com/mr1hm/go-hazard-watch/internal/repository"
)

var ErrInvalidPlace = errors.New("invalid place")

// NewPlace is the user-supplied part of a SavedPlace.
type NewPlace struct {
	Name          string  `json:"name"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	RadiusKm      float64 `json:"radius"`
	MinMagnitude  float64 `json:"minMagnitude"`
	AlertsEnabled bool    `json:"alertsEnabled"`
}

func (p NewPlace) validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidPlace)
	}
	if math.IsNaN(p.Latitude) || p.Latitude < -90 || p.Latitude > 90 {
		return fmt.Errorf("%w: latitude out of range", ErrInvalidPlace)
	}
	if math.IsNaN(p.Longitude) || p.Longitude < -180 || p.Longitude > 180 {
		return fmt.Errorf("%w: longitude out of range", ErrInvalidPlace)
	}
	if !(p.RadiusKm > 0) || math.IsInf(p.RadiusKm, 0) {
		return fmt.Errorf("%w: radius must be positive", ErrInvalidPlace)
	}
	if math.IsNaN(p.MinMagnitude) || p.MinMagnitude < 0 {
		return fmt.Errorf("%w: minMagnitude must not be negative", ErrInvalidPlace)
	}
	return nil
}

type Book struct {
	repo  repository.PlaceRepository
	clock clockwork.Clock
}

func NewBook(repo repository.PlaceRepository, clock clockwork.Clock) *Book {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Book{
		repo:  repo,
		clock: clock,
	}
}

// Add stores a new place with id "<unix millis>-<8 hex chars>".
func (b *Book) Add(ctx context.Context, p NewPlace) (models.SavedPlace, error) {
	if err := p.validate(); err != nil {
		return models.SavedPlace{}, err
	}

	now := b.clock.Now().UTC()
	place := models.SavedPlace{
		ID:            newID(now.UnixMilli()),
		Name:          strings.TrimSpace(p.Name),
		Latitude:      p.Latitude,
		Longitude:     p.Longitude,
		RadiusKm:      p.RadiusKm,
		MinMagnitude:  p.MinMagnitude,
		AlertsEnabled: p.AlertsEnabled,
		CreatedAt:     now,
	}
	if err := b.repo.AddPlace(ctx, place); err != nil {
		return models.SavedPlace{}, err
	}
	return place, nil
}

func newID(millis int64) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%d-%s", millis, suffix)
}

func (b *Book) List(ctx context.Context) ([]models.SavedPlace, error) {
	return b.repo.ListPlaces(ctx)
}

func (b *Book) Get(ctx context.Context, id string) (models.SavedPlace, error) {
	p, err := b.repo.GetPlace(ctx, id)
	if err != nil {
		return models.SavedPlace{}, err
	}
	return *p, nil
}

func (b *Book) Delete(ctx context.Context, id string) error {
	return b.repo.DeletePlace(ctx, id)
}
