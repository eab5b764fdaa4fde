package sources

import (
	"fmt"
	"strings"
)

// TimeRange selects the window of the seismic summary feed.
type TimeRange string

const (
	TimeRangeHour  TimeRange = "hour"
	TimeRangeDay   TimeRange = "day"
	TimeRangeWeek  TimeRange = "week"
	TimeRangeMonth TimeRange = "month"
)

// MagnitudeRange selects the magnitude floor of the seismic summary feed.
type MagnitudeRange string

const (
	MagnitudeSignificant MagnitudeRange = "significant"
	Magnitude45          MagnitudeRange = "4.5"
	Magnitude25          MagnitudeRange = "2.5"
	Magnitude10          MagnitudeRange = "1.0"
	MagnitudeAll         MagnitudeRange = "all"
)

// Feed is one cell of the upstream endpoint matrix.
type Feed struct {
	Time      TimeRange
	Magnitude MagnitudeRange
}

func DefaultFeed() Feed {
	return Feed{Time: TimeRangeDay, Magnitude: Magnitude25}
}

func ParseFeed(timeRange, magnitudeRange string) (Feed, error) {
	f := Feed{Time: TimeRange(timeRange), Magnitude: MagnitudeRange(magnitudeRange)}
	switch f.Time {
	case TimeRangeHour, TimeRangeDay, TimeRangeWeek, TimeRangeMonth:
	default:
		return Feed{}, fmt.Errorf("unknown time range: %q", timeRange)
	}
	switch f.Magnitude {
	case MagnitudeSignificant, Magnitude45, Magnitude25, Magnitude10, MagnitudeAll:
	default:
		return Feed{}, fmt.Errorf("unknown magnitude range: %q", magnitudeRange)
	}
	return f, nil
}

// URL builds {base}/{magnitudeRange}_{timeRange}.geojson.
func (f Feed) URL(base string) string {
	return fmt.Sprintf("%s/%s_%s.geojson", strings.TrimRight(base, "/"), f.Magnitude, f.Time)
}

func (f Feed) String() string {
	return string(f.Magnitude) + "_" + string(f.Time)
}
