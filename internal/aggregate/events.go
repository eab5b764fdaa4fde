package aggregate

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/mr1hm/go-hazard-watch/internal/geo"
	"github.com/mr1hm/go-hazard-watch/internal/models"
)

type SortField string

const (
	SortByTime      SortField = "time"
	SortByMagnitude SortField = "magnitude"
	SortByDepth     SortField = "depth"
	SortByDistance  SortField = "distance"
)

type SortDirection string

const (
	Ascending  SortDirection = "asc"
	Descending SortDirection = "desc"
)

func ParseSort(field, direction string) (SortField, SortDirection, error) {
	f := SortField(field)
	switch f {
	case SortByTime, SortByMagnitude, SortByDepth, SortByDistance:
	default:
		return "", "", fmt.Errorf("unknown sort field: %q", field)
	}
	d := SortDirection(direction)
	switch d {
	case Ascending, Descending:
	default:
		return "", "", fmt.Errorf("unknown sort direction: %q", direction)
	}
	return f, d, nil
}

// SortEvents returns a stably sorted copy. Sorting by distance without a
// reference point leaves the order unchanged.
func SortEvents(events []models.HazardEvent, field SortField, dir SortDirection, ref *geo.Point) []models.HazardEvent {
	out := slices.Clone(events)
	if out == nil {
		out = []models.HazardEvent{}
	}

	var key func(e *models.HazardEvent) float64
	switch field {
	case SortByTime:
		key = func(e *models.HazardEvent) float64 { return float64(e.OccurredAt.UnixMilli()) }
	case SortByMagnitude:
		key = func(e *models.HazardEvent) float64 { return e.Magnitude }
	case SortByDepth:
		key = func(e *models.HazardEvent) float64 { return e.DepthKm }
	case SortByDistance:
		if ref == nil {
			return out
		}
		key = func(e *models.HazardEvent) float64 { return geo.DistanceKm(*ref, e.Point()) }
	default:
		return out
	}

	slices.SortStableFunc(out, func(a, b models.HazardEvent) int {
		c := cmp.Compare(key(&a), key(&b))
		if dir == Descending {
			return -c
		}
		return c
	})
	return out
}

// Criteria bounds are all optional; a nil bound imposes nothing. MaxDistanceKm
// is ignored without a Reference.
type Criteria struct {
	MinMagnitude    *float64
	MaxMagnitude    *float64
	MinDepthKm      *float64
	MaxDepthKm      *float64
	MaxDistanceKm   *float64
	Reference       *geo.Point
	SignificantOnly bool
}

func FilterEvents(events []models.HazardEvent, c Criteria) []models.HazardEvent {
	return filter(events, c.matches)
}

func (c Criteria) matches(e *models.HazardEvent) bool {
	if c.MinMagnitude != nil && e.Magnitude < *c.MinMagnitude {
		return false
	}
	if c.MaxMagnitude != nil && e.Magnitude > *c.MaxMagnitude {
		return false
	}
	if c.MinDepthKm != nil && e.DepthKm < *c.MinDepthKm {
		return false
	}
	if c.MaxDepthKm != nil && e.DepthKm > *c.MaxDepthKm {
		return false
	}
	if c.MaxDistanceKm != nil && c.Reference != nil && geo.DistanceKm(*c.Reference, e.Point()) > *c.MaxDistanceKm {
		return false
	}
	if c.SignificantOnly && !IsSignificant(e) {
		return false
	}
	return true
}
