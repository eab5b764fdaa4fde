package preferences

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/mr1hm/go-hazard-watch/internal/models"
)

var ErrUnknownLayer = errors.New("unknown map layer")

const (
	LayerEarthquakes = "earthquakes"
	LayerTsunami     = "tsunami"
	LayerVolcanoes   = "volcanoes"
	LayerPlates      = "plates"
	LayerNuclear     = "nuclear"
	LayerFeltRadius  = "felt-radius"
)

func defaultLayers() []models.MapLayer {
	return []models.MapLayer{
		{ID: LayerEarthquakes, Name: "Earthquakes", Type: "earthquake", Enabled: true},
		{ID: LayerTsunami, Name: "Tsunami Alerts", Type: "tsunami", Enabled: true},
		{ID: LayerVolcanoes, Name: "Volcanoes", Type: "volcano", Enabled: true},
		{ID: LayerPlates, Name: "Plate Boundaries", Type: "plate", Enabled: true},
		{ID: LayerNuclear, Name: "Nuclear Plants", Type: "nuclear", Enabled: false},
		{ID: LayerFeltRadius, Name: "Felt Radius", Type: "overlay", Enabled: true},
	}
}

// Layers is the map layer toggle set. It lives only for the process; every
// start begins from the defaults.
type Layers struct {
	mu     sync.RWMutex
	layers []models.MapLayer
}

func NewLayers() *Layers {
	return &Layers{layers: defaultLayers()}
}

func (l *Layers) List() []models.MapLayer {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.layers)
}

func (l *Layers) Get(id string) (models.MapLayer, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	i := l.index(id)
	if i < 0 {
		return models.MapLayer{}, fmt.Errorf("layer %s: %w", id, ErrUnknownLayer)
	}
	return l.layers[i], nil
}

func (l *Layers) Toggle(id string, enabled bool) (models.MapLayer, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	i := l.index(id)
	if i < 0 {
		return models.MapLayer{}, fmt.Errorf("layer %s: %w", id, ErrUnknownLayer)
	}
	l.layers[i].Enabled = enabled
	return l.layers[i], nil
}

// index must be called with l.mu held.
func (l *Layers) index(id string) int {
	return slices.IndexFunc(l.layers, func(m models.MapLayer) bool { return m.ID == id })
}
