package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/mr1hm/go-hazard-watch/internal/models"
	"github.com/mr1hm/go-hazard-watch/internal/observability"
)

type usgsResponse struct {
	Type     string            `json:"type"`
	Features []json.RawMessage `json:"features"`
}

type usgsFeature struct {
	ID         string         `json:"id"`
	Properties usgsProperties `json:"properties"`
	Geometry   *usgsGeometry  `json:"geometry"`
}

type usgsProperties struct {
	Mag     *float64 `json:"mag"`
	Place   string   `json:"place"`
	Time    *int64   `json:"time"`    // unix millis
	Updated *int64   `json:"updated"` // unix millis
	Tz      *int     `json:"tz"`
	URL     string   `json:"url"`
	Detail  string   `json:"detail"`
	Felt    *int     `json:"felt"`
	CDI     *float64 `json:"cdi"`
	MMI     *float64 `json:"mmi"`
	Alert   string   `json:"alert"`
	Status  string   `json:"status"`
	Tsunami int      `json:"tsunami"` // 0 or 1
	Sig     int      `json:"sig"`
	Net     string   `json:"net"`
	Code    string   `json:"code"`
	IDs     string   `json:"ids"`
	Sources string   `json:"sources"`
	Types   string   `json:"types"`
	Nst     *int     `json:"nst"`
	Dmin    *float64 `json:"dmin"`
	RMS     *float64 `json:"rms"`
	Gap     *float64 `json:"gap"`
	MagType string   `json:"magType"`
	Type    string   `json:"type"`
	Title   string   `json:"title"`
}

type usgsGeometry struct {
	Coordinates []float64 `json:"coordinates"` // [lon, lat, depth]
}

var (
	errMissingID          = errors.New("missing id")
	errMissingMagnitude   = errors.New("missing or non-finite magnitude")
	errMissingCoordinates = errors.New("missing or non-finite coordinates")
)

// USGS reads the USGS earthquake summary feeds. It is the primary hazard
// source, so unlike the other adapters it returns its errors.
type USGS struct {
	fetcher *Fetcher
	baseURL string
}

func NewUSGS(fetcher *Fetcher, baseURL string) *USGS {
	return &USGS{
		fetcher: fetcher,
		baseURL: baseURL,
	}
}

func (u *USGS) FetchEarthquakes(ctx context.Context, feed Feed) ([]models.HazardEvent, error) {
	body, err := u.fetcher.get(ctx, request{url: feed.URL(u.baseURL), wantJSON: true})
	if err != nil {
		u.fetcher.observe(SourceUSGS, observability.OutcomeError, ParseReport{})
		return nil, fmt.Errorf("usgs %s: %w", feed, err)
	}

	events, report, err := ParseEarthquakes(body)
	u.fetcher.observe(SourceUSGS, outcomeOf(err), report)
	if err != nil {
		return nil, fmt.Errorf("usgs %s: %w", feed, err)
	}

	return events, nil
}

// ParseEarthquakes decodes a USGS FeatureCollection. Features without an id,
// a finite magnitude or finite coordinates are dropped, as are repeated ids.
// Only an undecodable envelope is an error.
func ParseEarthquakes(body []byte) ([]models.HazardEvent, ParseReport, error) {
	var data usgsResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, ParseReport{}, fmt.Errorf("error decoding feature collection: %w", err)
	}

	var report ParseReport
	seen := make(map[string]struct{}, len(data.Features))
	events := make([]models.HazardEvent, 0, len(data.Features))

	for i, raw := range data.Features {
		e, err := parseEarthquake(raw)
		if err != nil {
			slog.Debug("dropping earthquake feature", "index", i, "error", err)
			report.Dropped++
			continue
		}
		if _, dup := seen[e.ID]; dup {
			report.Dropped++
			continue
		}
		seen[e.ID] = struct{}{}
		events = append(events, e)
	}
	report.Kept = len(events)

	return events, report, nil
}

func parseEarthquake(raw json.RawMessage) (models.HazardEvent, error) {
	var f usgsFeature
	if err := json.Unmarshal(raw, &f); err != nil {
		return models.HazardEvent{}, err
	}
	if f.ID == "" {
		return models.HazardEvent{}, errMissingID
	}

	p := f.Properties
	if p.Mag == nil || !finite(*p.Mag) {
		return models.HazardEvent{}, errMissingMagnitude
	}
	if f.Geometry == nil || len(f.Geometry.Coordinates) < 2 {
		return models.HazardEvent{}, errMissingCoordinates
	}
	lon, lat := f.Geometry.Coordinates[0], f.Geometry.Coordinates[1]
	if !finite(lat) || !finite(lon) || math.Abs(lat) > 90 || math.Abs(lon) > 180 {
		return models.HazardEvent{}, errMissingCoordinates
	}

	var depth float64
	if len(f.Geometry.Coordinates) > 2 && finite(f.Geometry.Coordinates[2]) {
		depth = f.Geometry.Coordinates[2]
	}

	e := models.HazardEvent{
		ID:            f.ID,
		Latitude:      lat,
		Longitude:     lon,
		DepthKm:       depth,
		Magnitude:     *p.Mag,
		Place:         p.Place,
		Title:         p.Title,
		TsunamiFlag:   p.Tsunami == 1,
		Significance:  p.Sig,
		MagnitudeType: p.MagType,
		Source:        p.Net,
		Status:        p.Status,
		Type:          p.Type,
		Alert:         p.Alert,
		Felt:          p.Felt,
		CDI:           p.CDI,
		MMI:           p.MMI,
		Timezone:      p.Tz,
		URL:           p.URL,
		Detail:        p.Detail,
		Code:          p.Code,
		IDs:           p.IDs,
		Sources:       p.Sources,
		Types:         p.Types,
		Stations:      p.Nst,
		Dmin:          p.Dmin,
		RMS:           p.RMS,
		Gap:           p.Gap,
	}
	if p.Time != nil {
		e.OccurredAt = time.UnixMilli(*p.Time).UTC()
	}
	if p.Updated != nil {
		e.UpdatedAt = time.UnixMilli(*p.Updated).UTC()
	}

	return e, nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func outcomeOf(err error) string {
	if err != nil {
		return observability.OutcomeError
	}
	return observability.OutcomeSuccess
}
