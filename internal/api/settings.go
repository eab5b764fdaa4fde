package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mr1hm/go-hazard-watch/internal/places"
	"github.com/mr1hm/go-hazard-watch/internal/preferences"
	"github.com/mr1hm/go-hazard-watch/internal/repository"
)

func (h *Handler) getPreferences(c *gin.Context) {
	c.JSON(http.StatusOK, h.prefs.Current())
}

func (h *Handler) patchPreferences(c *gin.Context) {
	var patch preferences.Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err)
		return
	}

	prefs, err := h.prefs.Save(c.Request.Context(), patch)
	if errors.Is(err, preferences.ErrInvalidPatch) {
		badRequest(c, err)
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save preferences"})
		return
	}
	c.JSON(http.StatusOK, prefs)
}

func (h *Handler) listPlaces(c *gin.Context) {
	saved, err := h.places.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list places"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"places": saved, "count": len(saved)})
}

func (h *Handler) addPlace(c *gin.Context) {
	var req places.NewPlace
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	place, err := h.places.Add(c.Request.Context(), req)
	if errors.Is(err, places.ErrInvalidPlace) {
		badRequest(c, err)
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save place"})
		return
	}
	c.JSON(http.StatusCreated, place)
}

func (h *Handler) deletePlace(c *gin.Context) {
	err := h.places.Delete(c.Request.Context(), c.Param("id"))
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "place not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete place"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) listLayers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"layers": h.layers.List()})
}

func (h *Handler) getLayer(c *gin.Context) {
	layer, err := h.layers.Get(c.Param("id"))
	if errors.Is(err, preferences.ErrUnknownLayer) {
		c.JSON(http.StatusNotFound, gin.H{"error": "layer not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load layer"})
		return
	}
	c.JSON(http.StatusOK, layer)
}

type toggleRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

func (h *Handler) toggleLayer(c *gin.Context) {
	var req toggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	layer, err := h.layers.Toggle(c.Param("id"), *req.Enabled)
	if errors.Is(err, preferences.ErrUnknownLayer) {
		c.JSON(http.StatusNotFound, gin.H{"error": "layer not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to toggle layer"})
		return
	}
	c.JSON(http.StatusOK, layer)
}
