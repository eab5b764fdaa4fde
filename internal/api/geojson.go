package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/mr1hm/go-hazard-watch/internal/models"
)

const geoJSONContentType = "application/geo+json"

func eventsToGeoJSON(events []models.HazardEvent) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, e := range events {
		f := geojson.NewFeature(orb.Point{e.Longitude, e.Latitude})
		f.ID = e.ID
		f.Properties = geojson.Properties{
			"id":           e.ID,
			"magnitude":    e.Magnitude,
			"depth":        e.DepthKm,
			"place":        e.Place,
			"title":        e.Title,
			"time":         e.OccurredAt.UnixMilli(),
			"tsunami":      e.TsunamiFlag,
			"significance": e.Significance,
			"feltRadius":   e.FeltRadiusKm(),
			"url":          e.URL,
		}
		fc.Append(f)
	}
	return fc
}

func platesToGeoJSON(boundaries []models.PlateBoundary) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, b := range boundaries {
		f := geojson.NewFeature(b.Coordinates)
		f.ID = b.ID
		f.Properties = geojson.Properties{
			"name": b.Name,
			"type": b.Type,
		}
		fc.Append(f)
	}
	return fc
}

func writeGeoJSON(c *gin.Context, fc *geojson.FeatureCollection) {
	body, err := fc.MarshalJSON()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to encode geojson"})
		return
	}
	c.Data(http.StatusOK, geoJSONContentType, body)
}
