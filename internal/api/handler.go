package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mr1hm/go-hazard-watch/internal/aggregate"
	"github.com/mr1hm/go-hazard-watch/internal/geo"
	"github.com/mr1hm/go-hazard-watch/internal/ingestion"
	"github.com/mr1hm/go-hazard-watch/internal/models"
	"github.com/mr1hm/go-hazard-watch/internal/notify"
	"github.com/mr1hm/go-hazard-watch/internal/places"
	"github.com/mr1hm/go-hazard-watch/internal/preferences"
	"github.com/mr1hm/go-hazard-watch/internal/sources"
)

// Feeds is the read side of the refresh manager.
type Feeds interface {
	Events() []models.HazardEvent
	Significant() []models.HazardEvent
	Recent() []models.HazardEvent
	TsunamiAlerts() []models.TsunamiAlert
	Warnings() []models.VolcanoWarning
	PlateBoundaries(ctx context.Context) []models.PlateBoundary
	NuclearPlants(ctx context.Context) []models.NuclearPlant
	Status() ingestion.Status
	Refresh(ctx context.Context) error
}

type PreferenceStore interface {
	Current() models.Preferences
	Save(ctx context.Context, patch preferences.Patch) (models.Preferences, error)
}

type PlaceBook interface {
	Add(ctx context.Context, p places.NewPlace) (models.SavedPlace, error)
	List(ctx context.Context) ([]models.SavedPlace, error)
	Delete(ctx context.Context, id string) error
}

type LayerSet interface {
	List() []models.MapLayer
	Get(id string) (models.MapLayer, error)
	Toggle(id string, enabled bool) (models.MapLayer, error)
}

type Deps struct {
	Feeds    Feeds
	Prefs    PreferenceStore
	Places   PlaceBook
	Layers   LayerSet
	Notices  *notify.Broadcaster
	Gatherer prometheus.Gatherer
	Clock    clockwork.Clock
}

type Handler struct {
	feeds    Feeds
	prefs    PreferenceStore
	places   PlaceBook
	layers   LayerSet
	notices  *notify.Broadcaster
	gatherer prometheus.Gatherer
	clock    clockwork.Clock
}

func NewHandler(d Deps) *Handler {
	if d.Clock == nil {
		d.Clock = clockwork.NewRealClock()
	}
	if d.Gatherer == nil {
		d.Gatherer = prometheus.DefaultGatherer
	}
	return &Handler{
		feeds:    d.Feeds,
		prefs:    d.Prefs,
		places:   d.Places,
		layers:   d.Layers,
		notices:  d.Notices,
		gatherer: d.Gatherer,
		clock:    d.Clock,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.health)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})))

	api := r.Group("/api")

	api.GET("/earthquakes", h.getEarthquakes)
	api.GET("/earthquakes/significant", h.getSignificant)
	api.GET("/earthquakes/recent", h.getRecent)
	api.GET("/earthquakes/clusters", h.getClusters)
	api.GET("/earthquakes/:id", h.getEarthquake)

	api.GET("/tsunami", h.getTsunami)
	api.GET("/volcanoes", h.getVolcanoes)
	api.GET("/volcanoes/warnings", h.getWarnings)
	api.GET("/volcanoes/:id", h.getVolcano)
	api.GET("/plates", h.getPlates)
	api.GET("/nuclear-plants", h.getNuclearPlants)

	api.GET("/status", h.getStatus)
	api.GET("/status/stream", h.streamStatus)
	api.POST("/refresh", h.refresh)

	api.GET("/preferences", h.getPreferences)
	api.PATCH("/preferences", h.patchPreferences)
	api.GET("/places", h.listPlaces)
	api.POST("/places", h.addPlace)
	api.DELETE("/places/:id", h.deletePlace)
	api.GET("/layers", h.listLayers)
	api.GET("/layers/:id", h.getLayer)
	api.PATCH("/layers/:id", h.toggleLayer)
	api.GET("/notices/stream", h.streamNotices)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) getEarthquakes(c *gin.Context) {
	criteria, err := parseCriteria(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	field, dir, err := aggregate.ParseSort(c.DefaultQuery("sort", "time"), c.DefaultQuery("order", "desc"))
	if err != nil {
		badRequest(c, err)
		return
	}
	limit, err := intQuery(c, "limit")
	if err != nil {
		badRequest(c, err)
		return
	}

	events := aggregate.FilterEvents(h.feeds.Events(), criteria)
	events = aggregate.SortEvents(events, field, dir, criteria.Reference)
	events = aggregate.Limit(events, limit)

	if c.Query("format") == "geojson" {
		writeGeoJSON(c, eventsToGeoJSON(events))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"events": events,
		"count":  len(events),
	})
}

func (h *Handler) getSignificant(c *gin.Context) {
	events := h.feeds.Significant()
	c.JSON(http.StatusOK, gin.H{"events": events, "count": len(events)})
}

func (h *Handler) getRecent(c *gin.Context) {
	events := h.feeds.Recent()
	c.JSON(http.StatusOK, gin.H{"events": events, "count": len(events)})
}

type clusterResponse struct {
	Latitude     float64  `json:"latitude"`
	Longitude    float64  `json:"longitude"`
	Count        int      `json:"count"`
	MaxMagnitude float64  `json:"maxMagnitude"`
	EventIDs     []string `json:"eventIds"`
}

func (h *Handler) getClusters(c *gin.Context) {
	cells := geo.Cluster(h.feeds.Events(), func(e models.HazardEvent) geo.Point { return e.Point() })

	out := make([]clusterResponse, 0, len(cells))
	for _, cell := range cells {
		cr := clusterResponse{
			Latitude:     cell.Key.Lat,
			Longitude:    cell.Key.Lon,
			Count:        cell.Count,
			MaxMagnitude: cell.Members[0].Magnitude,
		}
		for _, e := range cell.Members {
			cr.MaxMagnitude = max(cr.MaxMagnitude, e.Magnitude)
			cr.EventIDs = append(cr.EventIDs, e.ID)
		}
		out = append(out, cr)
	}
	c.JSON(http.StatusOK, gin.H{"clusters": out, "cellDegrees": geo.ClusterCellDegrees})
}

func (h *Handler) getEarthquake(c *gin.Context) {
	e, ok := aggregate.Find(h.feeds.Events(), c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "earthquake not found"})
		return
	}

	ref, err := parseReference(c)
	if err != nil {
		badRequest(c, err)
		return
	}

	units := h.prefs.Current().Units
	resp := gin.H{
		"event":        e,
		"feltRadius":   geo.ConvertDistance(e.FeltRadiusKm(), units),
		"units":        units,
		"significant":  aggregate.IsSignificant(&e),
		"tsunamiAlert": e.TsunamiFlag,
	}
	if ref != nil {
		resp["distance"] = geo.ConvertDistance(geo.DistanceKm(*ref, e.Point()), units)
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) getTsunami(c *gin.Context) {
	alerts := h.feeds.TsunamiAlerts()
	c.JSON(http.StatusOK, gin.H{"alerts": alerts, "count": len(alerts)})
}

func (h *Handler) getVolcanoes(c *gin.Context) {
	volcanoes := sources.Volcanoes()
	switch category := models.VolcanoCategory(c.Query("category")); category {
	case "":
	case models.VolcanoCategoryActive, models.VolcanoCategorySuper:
		volcanoes = aggregate.VolcanoesByCategory(volcanoes, category)
	default:
		badRequest(c, fmt.Errorf("unknown category: %q", category))
		return
	}
	c.JSON(http.StatusOK, gin.H{"volcanoes": volcanoes, "count": len(volcanoes)})
}

// getVolcano returns one catalog entry with any current warning for it.
func (h *Handler) getVolcano(c *gin.Context) {
	v, ok := sources.VolcanoByID(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "volcano not found"})
		return
	}

	warnings := []models.VolcanoWarning{}
	for _, w := range h.feeds.Warnings() {
		if w.VolcanoID == v.ID {
			warnings = append(warnings, w)
		}
	}
	c.JSON(http.StatusOK, gin.H{"volcano": v, "warnings": warnings})
}

func (h *Handler) getWarnings(c *gin.Context) {
	warnings := h.feeds.Warnings()
	c.JSON(http.StatusOK, gin.H{"warnings": warnings, "count": len(warnings)})
}

func (h *Handler) getPlates(c *gin.Context) {
	boundaries := h.feeds.PlateBoundaries(c.Request.Context())
	if c.Query("format") == "geojson" {
		writeGeoJSON(c, platesToGeoJSON(boundaries))
		return
	}
	c.JSON(http.StatusOK, gin.H{"boundaries": boundaries, "count": len(boundaries)})
}

func (h *Handler) getNuclearPlants(c *gin.Context) {
	plants := h.feeds.NuclearPlants(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"plants": plants, "count": len(plants)})
}

func (h *Handler) getStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.feeds.Status())
}

// refresh always answers with the post-refresh status; a failed seismic
// fetch is reported alongside it.
func (h *Handler) refresh(c *gin.Context) {
	err := h.feeds.Refresh(c.Request.Context())
	resp := gin.H{"status": h.feeds.Status()}
	if err != nil {
		resp["error"] = err.Error()
	}
	c.JSON(http.StatusOK, resp)
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func parseCriteria(c *gin.Context) (aggregate.Criteria, error) {
	var cr aggregate.Criteria
	var err error

	fields := []struct {
		key string
		dst **float64
	}{
		{"min_magnitude", &cr.MinMagnitude},
		{"max_magnitude", &cr.MaxMagnitude},
		{"min_depth", &cr.MinDepthKm},
		{"max_depth", &cr.MaxDepthKm},
		{"radius", &cr.MaxDistanceKm},
	}
	for _, f := range fields {
		if *f.dst, err = floatQuery(c, f.key); err != nil {
			return aggregate.Criteria{}, err
		}
	}

	if cr.Reference, err = parseReference(c); err != nil {
		return aggregate.Criteria{}, err
	}
	if cr.MaxDistanceKm != nil && cr.Reference == nil {
		return aggregate.Criteria{}, errors.New("radius requires lat and lon")
	}

	if s := c.Query("significant"); s != "" {
		if cr.SignificantOnly, err = strconv.ParseBool(s); err != nil {
			return aggregate.Criteria{}, fmt.Errorf("invalid significant: %q", s)
		}
	}
	return cr, nil
}

// parseReference reads an optional lat/lon pair; giving only one is an error.
func parseReference(c *gin.Context) (*geo.Point, error) {
	lat, err := floatQuery(c, "lat")
	if err != nil {
		return nil, err
	}
	lon, err := floatQuery(c, "lon")
	if err != nil {
		return nil, err
	}
	switch {
	case lat == nil && lon == nil:
		return nil, nil
	case lat == nil || lon == nil:
		return nil, errors.New("lat and lon must be given together")
	case *lat < -90 || *lat > 90 || *lon < -180 || *lon > 180:
		return nil, errors.New("lat/lon out of range")
	}
	return &geo.Point{Lat: *lat, Lon: *lon}, nil
}

func floatQuery(c *gin.Context, key string) (*float64, error) {
	s := strings.TrimSpace(c.Query(key))
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %q", key, s)
	}
	return &f, nil
}

func intQuery(c *gin.Context, key string) (int, error) {
	s := strings.TrimSpace(c.Query(key))
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return n, nil
}
