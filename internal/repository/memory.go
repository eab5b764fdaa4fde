package repository

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/mr1hm/go-hazard-watch/internal/models"
)

type cachedEvent struct {
	event    models.HazardEvent
	cachedAt time.Time
}

// MemoryStore keeps everything in process memory. Nothing survives a restart.
type MemoryStore struct {
	mu     sync.RWMutex
	events map[string]cachedEvent
	prefs  *models.Preferences
	places map[string]models.SavedPlace
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		events: make(map[string]cachedEvent),
		places: make(map[string]models.SavedPlace),
	}
}

func (m *MemoryStore) UpsertEvents(ctx context.Context, events []models.HazardEvent, cachedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range events {
		m.events[e.ID] = cachedEvent{event: e, cachedAt: cachedAt}
	}
	return nil
}

func (m *MemoryStore) ListEvents(ctx context.Context, q EventQuery) ([]models.HazardEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	events := make([]models.HazardEvent, 0, len(m.events))
	for _, c := range m.events {
		if !q.CachedAfter.IsZero() && c.cachedAt.Before(q.CachedAfter) {
			continue
		}
		if q.MinTime != nil && c.event.OccurredAt.Before(*q.MinTime) {
			continue
		}
		if q.MinMagnitude != nil && c.event.Magnitude < *q.MinMagnitude {
			continue
		}
		events = append(events, c.event)
	}

	slices.SortFunc(events, func(a, b models.HazardEvent) int {
		if c := b.OccurredAt.Compare(a.OccurredAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return events, nil
}

func (m *MemoryStore) DeleteEventsCachedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, c := range m.events {
		if c.cachedAt.Before(cutoff) {
			delete(m.events, id)
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) CountEvents(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.events), nil
}

func (m *MemoryStore) LoadPreferences(ctx context.Context) (*models.Preferences, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.prefs == nil {
		return nil, nil
	}
	p := *m.prefs
	return &p, nil
}

func (m *MemoryStore) SavePreferences(ctx context.Context, p models.Preferences) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prefs = &p
	return nil
}

func (m *MemoryStore) AddPlace(ctx context.Context, p models.SavedPlace) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.places[p.ID]; exists {
		return fmt.Errorf("error adding place %s: duplicate id", p.ID)
	}
	m.places[p.ID] = p
	return nil
}

func (m *MemoryStore) GetPlace(ctx context.Context, id string) (*models.SavedPlace, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.places[id]
	if !ok {
		return nil, fmt.Errorf("place %s: %w", id, ErrNotFound)
	}
	return &p, nil
}

func (m *MemoryStore) ListPlaces(ctx context.Context) ([]models.SavedPlace, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	places := make([]models.SavedPlace, 0, len(m.places))
	for _, p := range m.places {
		places = append(places, p)
	}
	slices.SortFunc(places, func(a, b models.SavedPlace) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return places, nil
}

func (m *MemoryStore) DeletePlace(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.places[id]; !ok {
		return fmt.Errorf("place %s: %w", id, ErrNotFound)
	}
	delete(m.places, id)
	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}
