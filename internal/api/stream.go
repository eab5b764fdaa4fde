package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mr1hm/go-hazard-watch/internal/notify"
)

const statusTick = time.Second

func sseHeaders(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
}

// streamStatus pushes the status snapshot once a second so clients can show
// the refresh countdown without polling.
func (h *Handler) streamStatus(c *gin.Context) {
	ctx := c.Request.Context()
	ticker := h.clock.NewTicker(statusTick)
	defer ticker.Stop()

	sseHeaders(c)
	c.SSEvent("status", h.feeds.Status())
	c.Writer.Flush()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			c.SSEvent("status", h.feeds.Status())
			c.Writer.Flush()
		}
	}
}

// streamNotices accepts ?kinds=significant,tsunami and ?place=<id> to narrow
// what the subscriber receives.
func (h *Handler) streamNotices(c *gin.Context) {
	var filter notify.Filter
	if raw := c.Query("kinds"); raw != "" {
		kinds, err := notify.ParseKinds(strings.Split(raw, ","))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		filter.Kinds = kinds
	}
	filter.PlaceID = c.Query("place")

	ctx := c.Request.Context()
	id, notices := h.notices.SubscribeFiltered(filter)
	defer h.notices.Unsubscribe(id)

	slog.Debug("notice stream opened", "subscriber", id)

	sseHeaders(c)
	c.Writer.WriteHeaderNow()
	c.Writer.Flush()

	for {
		select {
		case <-ctx.Done():
			slog.Debug("notice stream closed", "subscriber", id)
			return
		case n, ok := <-notices:
			if !ok {
				return
			}
			c.SSEvent(string(n.Kind), n)
			c.Writer.Flush()
		}
	}
}
