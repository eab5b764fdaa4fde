package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mr1hm/go-hazard-watch/internal/observability"
)

const usgsFixture = `{
  "type": "FeatureCollection",
  "metadata": {"generated": 1700000000000, "count": 6},
  "features": [
    {"type": "Feature", "id": "us7000abcd",
     "properties": {"mag": 6.1, "place": "45 km SSW of Hualien City, Taiwan", "time": 1700000000000, "updated": 1700000100000,
       "tz": null, "felt": 120, "cdi": 5.2, "mmi": 6.4, "alert": "yellow", "status": "reviewed", "tsunami": 1, "sig": 720,
       "net": "us", "code": "7000abcd", "ids": ",us7000abcd,", "sources": ",us,", "types": ",origin,",
       "nst": 88, "dmin": 0.4, "rms": 0.9, "gap": 35, "magType": "mww", "type": "earthquake", "title": "M 6.1 - Taiwan"},
     "geometry": {"type": "Point", "coordinates": [121.5, 23.8, 12.3]}},
    {"type": "Feature", "id": "nc73000001",
     "properties": {"mag": 2.7, "place": "5 km N of The Geysers, CA", "time": 1699990000000, "tsunami": 0, "sig": 112, "net": "nc"},
     "geometry": {"type": "Point", "coordinates": [-122.75, 38.82]}},
    {"type": "Feature", "id": "",
     "properties": {"mag": 3.0, "time": 1699990000000},
     "geometry": {"type": "Point", "coordinates": [10, 10, 5]}},
    {"type": "Feature", "id": "nomag",
     "properties": {"mag": null, "time": 1699990000000},
     "geometry": {"type": "Point", "coordinates": [10, 10, 5]}},
    {"type": "Feature", "id": "badlat",
     "properties": {"mag": 4.0, "time": 1699990000000},
     "geometry": {"type": "Point", "coordinates": [10, 95, 5]}},
    {"type": "Feature", "id": "us7000abcd",
     "properties": {"mag": 6.0, "time": 1700000000000},
     "geometry": {"type": "Point", "coordinates": [121.5, 23.8, 12.3]}}
  ]
}`

func TestParseEarthquakes(t *testing.T) {
	events, report, err := ParseEarthquakes([]byte(usgsFixture))
	require.NoError(t, err)

	assert.Equal(t, ParseReport{Kept: 2, Dropped: 4}, report)
	require.Len(t, events, 2)

	e := events[0]
	assert.Equal(t, "us7000abcd", e.ID)
	assert.Equal(t, 6.1, e.Magnitude)
	assert.Equal(t, 23.8, e.Latitude)
	assert.Equal(t, 121.5, e.Longitude)
	assert.Equal(t, 12.3, e.DepthKm)
	assert.True(t, e.TsunamiFlag)
	assert.Equal(t, 720, e.Significance)
	assert.Equal(t, "us", e.Source)
	assert.Equal(t, "mww", e.MagnitudeType)
	assert.Equal(t, time.UnixMilli(1700000000000).UTC(), e.OccurredAt)
	assert.Equal(t, time.UnixMilli(1700000100000).UTC(), e.UpdatedAt)
	require.NotNil(t, e.Felt)
	assert.Equal(t, 120, *e.Felt)
	require.NotNil(t, e.Stations)
	assert.Equal(t, 88, *e.Stations)
	assert.Nil(t, e.Timezone)

	second := events[1]
	assert.Equal(t, "nc73000001", second.ID)
	assert.Zero(t, second.DepthKm, "missing depth defaults to zero")
	assert.False(t, second.TsunamiFlag)
	assert.Nil(t, second.Felt)
	assert.Zero(t, second.UpdatedAt)
}

func TestParseEarthquakes_InvalidEnvelope(t *testing.T) {
	_, _, err := ParseEarthquakes([]byte(`not json`))
	assert.Error(t, err)
}

func TestParseEarthquakes_EmptyCollection(t *testing.T) {
	events, report, err := ParseEarthquakes([]byte(`{"type":"FeatureCollection","features":[]}`))
	require.NoError(t, err)
	assert.Empty(t, events)
	assert.NotNil(t, events)
	assert.Zero(t, report.Dropped)
}

func newUSGSServer(t *testing.T, handler http.HandlerFunc) *USGS {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewUSGS(NewFetcher(srv.Client(), observability.NewMetricsForTesting()), srv.URL)
}

func TestUSGS_FetchEarthquakes(t *testing.T) {
	var gotPath string
	usgs := newUSGSServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(usgsFixture))
	})

	events, err := usgs.FetchEarthquakes(context.Background(), Feed{Time: TimeRangeWeek, Magnitude: Magnitude45})
	require.NoError(t, err)
	assert.Len(t, events, 2)
	assert.Equal(t, "/4.5_week.geojson", gotPath)
}

func TestUSGS_FetchEarthquakes_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantErr error
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			wantErr: ErrUnexpectedStatus,
		},
		{
			name: "html content type",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/html")
				_, _ = w.Write([]byte("<html>maintenance</html>"))
			},
			wantErr: ErrUnexpectedContentType,
		},
		{
			name: "empty body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
			},
			wantErr: ErrEmptyBody,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			usgs := newUSGSServer(t, tt.handler)
			events, err := usgs.FetchEarthquakes(context.Background(), DefaultFeed())
			require.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, events)
		})
	}
}

func TestUSGS_FetchEarthquakes_ContextCancelled(t *testing.T) {
	usgs := newUSGSServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(usgsFixture))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := usgs.FetchEarthquakes(ctx, DefaultFeed())
	require.ErrorIs(t, err, context.Canceled)
}
