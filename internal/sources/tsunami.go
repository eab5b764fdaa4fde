package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/mr1hm/go-hazard-watch/internal/models"
	"github.com/mr1hm/go-hazard-watch/internal/observability"
)

const (
	noaaPrefix    = "noaa-"
	usgsPrefix    = "usgs-"
	phInfoPrefix  = "ph-info-"
	geoJSONAccept = "application/geo+json"
)

type noaaFeature struct {
	ID         string          `json:"id"`
	Geometry   json.RawMessage `json:"geometry"`
	Properties noaaProperties  `json:"properties"`
}

type noaaProperties struct {
	ID          string `json:"id"`
	AreaDesc    string `json:"areaDesc"`
	Sent        string `json:"sent"`
	Severity    string `json:"severity"`
	Certainty   string `json:"certainty"`
	Urgency     string `json:"urgency"`
	Event       string `json:"event"`
	Headline    string `json:"headline"`
	Description string `json:"description"`
}

// NOAA reads tsunami products from the NWS alerts API. Failures are logged
// and yield no alerts.
type NOAA struct {
	fetcher *Fetcher
	url     string
}

func NewNOAA(fetcher *Fetcher, alertsURL string) *NOAA {
	return &NOAA{
		fetcher: fetcher,
		url:     alertsURL,
	}
}

func (n *NOAA) FetchTsunamiAlerts(ctx context.Context) []models.TsunamiAlert {
	u, err := url.Parse(n.url)
	if err != nil {
		slog.Warn("invalid tsunami alerts url", "source", SourceNOAA, "error", err)
		return []models.TsunamiAlert{}
	}
	q := u.Query()
	q.Set("event", "Tsunami")
	u.RawQuery = q.Encode()

	body, err := n.fetcher.get(ctx, request{url: u.String(), accept: geoJSONAccept, wantJSON: true})
	if err != nil {
		n.fetcher.observe(SourceNOAA, observability.OutcomeError, ParseReport{})
		slog.Warn("tsunami alerts fetch failed", "source", SourceNOAA, "error", err)
		return []models.TsunamiAlert{}
	}

	alerts, report, err := ParseNOAAAlerts(body)
	n.fetcher.observe(SourceNOAA, outcomeOf(err), report)
	if err != nil {
		slog.Warn("tsunami alerts parse failed", "source", SourceNOAA, "error", err)
		return []models.TsunamiAlert{}
	}
	return alerts
}

// ParseNOAAAlerts maps NWS alert features to TsunamiAlerts. Features without
// an id are dropped; unusable geometry is cleared rather than dropping the
// alert.
func ParseNOAAAlerts(body []byte) ([]models.TsunamiAlert, ParseReport, error) {
	var data featureCollection
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, ParseReport{}, fmt.Errorf("error decoding alert collection: %w", err)
	}

	var report ParseReport
	alerts := make([]models.TsunamiAlert, 0, len(data.Features))
	for _, raw := range data.Features {
		var f noaaFeature
		if err := json.Unmarshal(raw, &f); err != nil {
			report.Dropped++
			continue
		}
		id := f.Properties.ID
		if id == "" {
			id = f.ID
		}
		if id == "" {
			report.Dropped++
			continue
		}

		p := f.Properties
		title := p.Headline
		if title == "" {
			title = p.Event
		}

		alerts = append(alerts, models.TsunamiAlert{
			ID:              noaaPrefix + id,
			Title:           title,
			AreaDescription: p.AreaDesc,
			Description:     p.Description,
			SentAt:          parseSent(p.Sent),
			Severity:        p.Severity,
			Certainty:       p.Certainty,
			Urgency:         p.Urgency,
			Geometry:        alertGeometry(f.Geometry),
			Source:          models.TsunamiSourceNOAA,
		})
	}
	report.Kept = len(alerts)

	return alerts, report, nil
}

// DerivedTsunami treats recent significant earthquakes that USGS flagged with
// tsunami=1 as tsunami alerts.
type DerivedTsunami struct {
	fetcher *Fetcher
	url     string
}

func NewDerivedTsunami(fetcher *Fetcher, significantURL string) *DerivedTsunami {
	return &DerivedTsunami{
		fetcher: fetcher,
		url:     significantURL,
	}
}

func (d *DerivedTsunami) FetchTsunamiAlerts(ctx context.Context) []models.TsunamiAlert {
	body, err := d.fetcher.get(ctx, request{url: d.url, wantJSON: true})
	if err != nil {
		d.fetcher.observe(SourceDerivedTsunami, observability.OutcomeError, ParseReport{})
		slog.Warn("tsunami alerts fetch failed", "source", SourceDerivedTsunami, "error", err)
		return []models.TsunamiAlert{}
	}

	events, report, err := ParseEarthquakes(body)
	d.fetcher.observe(SourceDerivedTsunami, outcomeOf(err), report)
	if err != nil {
		slog.Warn("tsunami alerts parse failed", "source", SourceDerivedTsunami, "error", err)
		return []models.TsunamiAlert{}
	}

	return DeriveTsunamiAlerts(events)
}

// DeriveTsunamiAlerts keeps the tsunami-flagged events and projects them.
func DeriveTsunamiAlerts(events []models.HazardEvent) []models.TsunamiAlert {
	alerts := make([]models.TsunamiAlert, 0)
	for _, e := range events {
		if !e.TsunamiFlag {
			continue
		}
		sent := e.OccurredAt
		alerts = append(alerts, models.TsunamiAlert{
			ID:              usgsPrefix + e.ID,
			Title:           fmt.Sprintf("Tsunami Potential - M%.1f %s", e.Magnitude, e.Place),
			AreaDescription: e.Place,
			Description: fmt.Sprintf("M%.1f earthquake at %.1f km depth was flagged by USGS as having tsunami potential. Follow guidance from local authorities.",
				e.Magnitude, e.DepthKm),
			SentAt:    &sent,
			Severity:  TsunamiSeverity(e.Magnitude),
			Certainty: "Possible",
			Urgency:   "Immediate",
			Geometry:  geojson.NewGeometry(orb.Point{e.Longitude, e.Latitude}),
			Source:    models.TsunamiSourceUSGS,
		})
	}
	return alerts
}

// TsunamiSeverity buckets a magnitude into the derived-alert vocabulary.
func TsunamiSeverity(magnitude float64) string {
	switch {
	case magnitude >= 7.5:
		return "Extreme"
	case magnitude >= 7.0:
		return "Severe"
	default:
		return "Moderate"
	}
}

// InfoTsunami serves the fixed informational record pointing at PHIVOLCS.
type InfoTsunami struct{}

func (InfoTsunami) FetchTsunamiAlerts(context.Context) []models.TsunamiAlert {
	return []models.TsunamiAlert{{
		ID:              phInfoPrefix + "phivolcs",
		Title:           "PHIVOLCS Tsunami Information",
		AreaDescription: "Philippines",
		Description:     "Official tsunami information and bulletins for the Philippines are issued by PHIVOLCS (https://www.phivolcs.dost.gov.ph).",
		Severity:        "Unknown",
		Certainty:       "Unknown",
		Urgency:         "Unknown",
		Source:          models.TsunamiSourceInfo,
	}}
}

func parseSent(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}

func alertGeometry(raw json.RawMessage) *geojson.Geometry {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	g, err := geojson.UnmarshalGeometry(raw)
	if err != nil {
		return nil
	}
	switch g.Coordinates.(type) {
	case orb.Point, orb.Polygon, orb.MultiPolygon:
		return g
	default:
		return nil
	}
}
