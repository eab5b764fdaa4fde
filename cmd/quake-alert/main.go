// Command quake-alert fetches the seismic feed once and prints significant
// earthquakes nearest a location first.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"

	"github.com/mr1hm/go-hazard-watch/internal/aggregate"
	"github.com/mr1hm/go-hazard-watch/internal/config"
	"github.com/mr1hm/go-hazard-watch/internal/geo"
	"github.com/mr1hm/go-hazard-watch/internal/logging"
	"github.com/mr1hm/go-hazard-watch/internal/models"
	"github.com/mr1hm/go-hazard-watch/internal/sources"
)

func main() {
	_ = godotenv.Load()

	lat := flag.Float64("lat", 0, "reference latitude")
	lon := flag.Float64("lon", 0, "reference longitude")
	feedTime := flag.String("time", "week", "feed window: hour, day, week or month")
	feedMag := flag.String("mag", "4.5", "feed magnitude floor: significant, 4.5, 2.5, 1.0 or all")
	units := flag.String("units", models.UnitsMetric, "distance units: metric or imperial")
	limit := flag.Int("limit", 20, "maximum events to print, 0 for all")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	logging.Setup(cfg.Logging.Level, "text")

	feed, err := sources.ParseFeed(*feedTime, *feedMag)
	if err != nil {
		logging.Fatalf("invalid feed: %v", err)
	}

	timeout := cfg.Sources.HTTPTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	usgs := sources.NewUSGS(sources.NewFetcher(&http.Client{}, nil), cfg.Sources.SeismicBaseURL)
	events, err := usgs.FetchEarthquakes(ctx, feed)
	if err != nil {
		logging.Fatalf("fetch failed: %v", err)
	}

	ref := geo.Point{Lat: *lat, Lon: *lon}
	significant := aggregate.DeriveSignificant(events)
	significant = aggregate.SortEvents(significant, aggregate.SortByDistance, aggregate.Ascending, &ref)
	significant = aggregate.Limit(significant, *limit)

	slog.Debug("fetched feed", "feed", feed.String(), "events", len(events), "significant", len(significant))

	unit := "km"
	if *units == models.UnitsImperial {
		unit = "mi"
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "MAG\tDISTANCE (%s)\tFELT RADIUS (%s)\tTIME (UTC)\tPLACE\n", unit, unit)
	for _, e := range significant {
		fmt.Fprintf(w, "%.1f\t%.0f\t%.0f\t%s\t%s\n",
			e.Magnitude,
			geo.ConvertDistance(geo.DistanceKm(ref, e.Point()), *units),
			geo.ConvertDistance(e.FeltRadiusKm(), *units),
			e.OccurredAt.Format(time.DateTime),
			e.Place,
		)
	}
	if err := w.Flush(); err != nil {
		logging.Fatalf("write failed: %v", err)
	}
	if len(significant) == 0 {
		fmt.Printf("no significant earthquakes in %s\n", feed)
	}
}
