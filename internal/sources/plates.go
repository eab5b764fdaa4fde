package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/mr1hm/go-hazard-watch/internal/models"
	"github.com/mr1hm/go-hazard-watch/internal/observability"
)

// Plates reads a static-hosted GeoJSON collection of plate boundary lines.
// Static hosts often label JSON as text/plain, so content type is not checked.
type Plates struct {
	fetcher *Fetcher
	url     string
}

func NewPlates(fetcher *Fetcher, platesURL string) *Plates {
	return &Plates{
		fetcher: fetcher,
		url:     platesURL,
	}
}

func (p *Plates) FetchPlateBoundaries(ctx context.Context) []models.PlateBoundary {
	body, err := p.fetcher.get(ctx, request{url: p.url})
	if err != nil {
		p.fetcher.observe(SourcePlates, observability.OutcomeError, ParseReport{})
		slog.Warn("plate boundaries fetch failed", "source", SourcePlates, "error", err)
		return []models.PlateBoundary{}
	}

	boundaries, report, err := ParsePlateBoundaries(body)
	p.fetcher.observe(SourcePlates, outcomeOf(err), report)
	if err != nil {
		slog.Warn("plate boundaries parse failed", "source", SourcePlates, "error", err)
		return []models.PlateBoundary{}
	}
	return boundaries
}

// ParsePlateBoundaries keeps LineString features and splits MultiLineStrings
// into one boundary per part. Anything else is dropped.
func ParsePlateBoundaries(body []byte) ([]models.PlateBoundary, ParseReport, error) {
	var data featureCollection
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, ParseReport{}, fmt.Errorf("error decoding boundary collection: %w", err)
	}

	var report ParseReport
	boundaries := make([]models.PlateBoundary, 0, len(data.Features))
	for i, raw := range data.Features {
		f, err := geojson.UnmarshalFeature(raw)
		if err != nil || f.Geometry == nil {
			report.Dropped++
			continue
		}

		id := featureID(f, i)
		name := f.Properties.MustString("Name", "")
		kind := f.Properties.MustString("Type", "")
		if kind == "" {
			kind = "boundary"
		}

		switch g := f.Geometry.(type) {
		case orb.LineString:
			if len(g) < 2 {
				report.Dropped++
				continue
			}
			boundaries = append(boundaries, models.PlateBoundary{ID: id, Name: name, Type: kind, Coordinates: g})
		case orb.MultiLineString:
			for n, line := range g {
				if len(line) < 2 {
					continue
				}
				boundaries = append(boundaries, models.PlateBoundary{
					ID:          fmt.Sprintf("%s-%d", id, n),
					Name:        name,
					Type:        kind,
					Coordinates: line,
				})
			}
		default:
			report.Dropped++
		}
	}
	report.Kept = len(boundaries)

	return boundaries, report, nil
}

func featureID(f *geojson.Feature, index int) string {
	switch id := f.ID.(type) {
	case string:
		if id != "" {
			return id
		}
	case float64:
		return fmt.Sprintf("plate-%d", int64(id))
	}
	return fmt.Sprintf("plate-%d", index)
}
