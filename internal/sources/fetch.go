// Package sources holds one adapter per upstream hazard provider. Each
// adapter fetches a provider payload and maps it onto the canonical models;
// malformed records are dropped and counted rather than failing the fetch.
package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mr1hm/go-hazard-watch/internal/observability"
)

var (
	ErrUnexpectedStatus      = errors.New("unexpected status code")
	ErrUnexpectedContentType = errors.New("unexpected content type")
	ErrEmptyBody             = errors.New("empty response body")
	ErrNoRecords             = errors.New("no valid records")
)

// Source names used in logs and metric labels.
const (
	SourceUSGS           = "usgs"
	SourceNOAA           = "noaa"
	SourceDerivedTsunami = "usgs_tsunami"
	SourcePlates         = "plates"
	SourceNuclear        = "nuclear"
)

// featureCollection is a GeoJSON FeatureCollection whose features are decoded
// one at a time so a bad record can be dropped without failing the payload.
type featureCollection struct {
	Features []json.RawMessage `json:"features"`
}

// ParseReport counts what normalization kept and dropped from one payload.
type ParseReport struct {
	Kept    int
	Dropped int
}

// Fetcher performs the HTTP GETs shared by all adapters and records their
// outcomes.
type Fetcher struct {
	client  *http.Client
	metrics *observability.Metrics
}

// NewFetcher wraps client; a nil client uses a zero http.Client, which has
// no overall timeout.
func NewFetcher(client *http.Client, metrics *observability.Metrics) *Fetcher {
	if client == nil {
		client = &http.Client{}
	}
	return &Fetcher{
		client:  client,
		metrics: metrics,
	}
}

type request struct {
	url      string
	accept   string
	wantJSON bool
}

func (f *Fetcher) get(ctx context.Context, r request) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	if r.accept != "" {
		req.Header.Set("Accept", r.accept)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error doing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %d - status: %s", ErrUnexpectedStatus, resp.StatusCode, resp.Status)
	}

	if r.wantJSON {
		ct := strings.ToLower(resp.Header.Get("Content-Type"))
		if !strings.Contains(ct, "json") {
			return nil, fmt.Errorf("%w: %q", ErrUnexpectedContentType, ct)
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading resp.Body: %w", err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, ErrEmptyBody
	}

	return body, nil
}

func (f *Fetcher) observe(source, outcome string, report ParseReport) {
	if report.Dropped > 0 {
		slog.Debug("dropped malformed records", "source", source, "dropped", report.Dropped, "kept", report.Kept)
	}
	if f.metrics == nil {
		return
	}
	f.metrics.FetchTotal.WithLabelValues(source, outcome).Inc()
	if report.Dropped > 0 {
		f.metrics.RecordsDropped.WithLabelValues(source).Add(float64(report.Dropped))
	}
}
