package ingestion

import (
	"context"
	"slices"

	"github.com/mr1hm/go-hazard-watch/internal/models"
)

// PlateBoundaries returns the boundary set, fetching it at most once per TTL.
func (m *Manager) PlateBoundaries(ctx context.Context) []models.PlateBoundary {
	if m.src.Plates == nil {
		return []models.PlateBoundary{}
	}
	data := loadStatic(ctx, &m.flight, "static:plates", &m.plates, m.clock.Now(), m.src.Plates.FetchPlateBoundaries)
	return slices.Clone(data)
}

// NuclearPlants returns the plant list, fetching it at most once per TTL.
func (m *Manager) NuclearPlants(ctx context.Context) []models.NuclearPlant {
	if m.src.Nuclear == nil {
		return []models.NuclearPlant{}
	}
	data := loadStatic(ctx, &m.flight, "static:nuclear", &m.nuclear, m.clock.Now(), m.src.Nuclear.FetchNuclearPlants)
	return slices.Clone(data)
}
