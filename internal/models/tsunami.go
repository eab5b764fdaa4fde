package models

import (
	"time"

	"github.com/paulmach/orb/geojson"
)

const (
	TsunamiSourceNOAA = "NOAA"
	TsunamiSourceUSGS = "USGS"
	TsunamiSourceInfo = "PHIVOLCS"
)

// TsunamiAlert is one alert from any tsunami provider. IDs carry a provider
// prefix ("noaa-", "usgs-", "ph-info-") so they never collide across sources.
// Severity, certainty and urgency keep each provider's own vocabulary.
type TsunamiAlert struct {
	ID              string            `json:"id"`
	Title           string            `json:"title"`
	AreaDescription string            `json:"areaDescription"`
	Description     string            `json:"description"`
	SentAt          *time.Time        `json:"sentAt"`
	Severity        string            `json:"severity"`
	Certainty       string            `json:"certainty"`
	Urgency         string            `json:"urgency"`
	Geometry        *geojson.Geometry `json:"geometry"` // Point or Polygon, may be nil
	Source          string            `json:"source"`
}

// SentUnixMilli orders alerts; a missing sentAt counts as the epoch.
func (a *TsunamiAlert) SentUnixMilli() int64 {
	if a.SentAt == nil {
		return 0
	}
	return a.SentAt.UnixMilli()
}
