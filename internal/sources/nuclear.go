package sources

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/mr1hm/go-hazard-watch/internal/models"
	"github.com/mr1hm/go-hazard-watch/internal/observability"
)

// Nuclear reads nuclear plant locations from a static CSV. It never fails:
// any problem yields the built-in fallback list.
type Nuclear struct {
	fetcher *Fetcher
	url     string
	timeout time.Duration
}

func NewNuclear(fetcher *Fetcher, csvURL string, timeout time.Duration) *Nuclear {
	return &Nuclear{
		fetcher: fetcher,
		url:     csvURL,
		timeout: timeout,
	}
}

func (n *Nuclear) FetchNuclearPlants(ctx context.Context) []models.NuclearPlant {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	body, err := n.fetcher.get(ctx, request{url: n.url})
	if err != nil {
		n.fetcher.observe(SourceNuclear, observability.OutcomeFallback, ParseReport{})
		slog.Warn("nuclear plants fetch failed, using fallback", "source", SourceNuclear, "error", err)
		return FallbackNuclearPlants()
	}

	plants, report, err := ParseNuclearPlants(string(body))
	if err != nil {
		n.fetcher.observe(SourceNuclear, observability.OutcomeFallback, report)
		slog.Warn("nuclear plants parse failed, using fallback", "source", SourceNuclear, "error", err)
		return FallbackNuclearPlants()
	}

	n.fetcher.observe(SourceNuclear, observability.OutcomeSuccess, report)
	return plants
}

// ParseNuclearPlants reads a CSV whose first line is a header. Columns are
// found by case-insensitive substring ("lat", "lon", "name", "country"),
// first match wins. Rows whose coordinates are not finite and nonzero are
// dropped; zero surviving rows is ErrNoRecords.
func ParseNuclearPlants(body string) ([]models.NuclearPlant, ParseReport, error) {
	r := csv.NewReader(strings.NewReader(body))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, ParseReport{}, fmt.Errorf("error reading header: %w", err)
	}

	latIdx := columnIndex(header, "lat")
	lonIdx := columnIndex(header, "lon")
	nameIdx := columnIndex(header, "name")
	countryIdx := columnIndex(header, "country")

	var report ParseReport
	var plants []models.NuclearPlant
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			report.Dropped++
			continue
		}
		if err != nil {
			return nil, report, fmt.Errorf("error reading row: %w", err)
		}

		lat := floatField(row, latIdx)
		lon := floatField(row, lonIdx)
		if !finite(lat) || !finite(lon) || lat == 0 || lon == 0 {
			report.Dropped++
			continue
		}

		plants = append(plants, models.NuclearPlant{
			ID:        fmt.Sprintf("nuclear-%d", len(plants)+1),
			Name:      field(row, nameIdx),
			Country:   field(row, countryIdx),
			Latitude:  lat,
			Longitude: lon,
		})
	}
	report.Kept = len(plants)

	if len(plants) == 0 {
		return nil, report, ErrNoRecords
	}
	return plants, report, nil
}

func columnIndex(header []string, needle string) int {
	return slices.IndexFunc(header, func(h string) bool {
		return strings.Contains(strings.ToLower(h), needle)
	})
}

func field(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func floatField(row []string, idx int) float64 {
	s := field(row, idx)
	if s == "" {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

var fallbackNuclearPlants = []models.NuclearPlant{
	{ID: "fallback-1", Name: "Kashiwazaki-Kariwa", Country: "Japan", Latitude: 37.4286, Longitude: 138.5978},
	{ID: "fallback-2", Name: "Bruce", Country: "Canada", Latitude: 44.3253, Longitude: -81.5994},
	{ID: "fallback-3", Name: "Zaporizhzhia", Country: "Ukraine", Latitude: 47.5119, Longitude: 34.5856},
	{ID: "fallback-4", Name: "Hanul", Country: "South Korea", Latitude: 37.0928, Longitude: 129.3839},
	{ID: "fallback-5", Name: "Taishan", Country: "China", Latitude: 21.9181, Longitude: 112.9825},
	{ID: "fallback-6", Name: "Gravelines", Country: "France", Latitude: 51.0153, Longitude: 2.1361},
	{ID: "fallback-7", Name: "Palo Verde", Country: "United States", Latitude: 33.3881, Longitude: -112.8617},
	{ID: "fallback-8", Name: "Kori", Country: "South Korea", Latitude: 35.3203, Longitude: 129.2908},
	{ID: "fallback-9", Name: "Fukushima Daini", Country: "Japan", Latitude: 37.3161, Longitude: 141.0250},
	{ID: "fallback-10", Name: "Tianwan", Country: "China", Latitude: 34.6869, Longitude: 119.4597},
	{ID: "fallback-11", Name: "Cattenom", Country: "France", Latitude: 49.4158, Longitude: 6.2181},
	{ID: "fallback-12", Name: "Leningrad", Country: "Russia", Latitude: 59.8333, Longitude: 29.0333},
	{ID: "fallback-13", Name: "Barakah", Country: "United Arab Emirates", Latitude: 23.9528, Longitude: 52.2603},
	{ID: "fallback-14", Name: "Kudankulam", Country: "India", Latitude: 8.1681, Longitude: 77.7128},
	{ID: "fallback-15", Name: "Koeberg", Country: "South Africa", Latitude: -33.6764, Longitude: 18.4319},
}

// FallbackNuclearPlants returns a copy of the built-in 15-plant list.
func FallbackNuclearPlants() []models.NuclearPlant {
	return slices.Clone(fallbackNuclearPlants)
}
