package geo

import (
	"math"
	"sort"
)

// EarthRadiusKm is the mean Earth radius used for great-circle distances.
const EarthRadiusKm = 6371.0

const kmPerMile = 1.609344

// ClusterCellDegrees is the grid size used by ClusterKey.
const ClusterCellDegrees = 0.5

type Point struct {
	Lat float64 `json:"latitude"`
	Lon float64 `json:"longitude"`
}

// HaversineKm returns the great-circle distance between two WGS84 points.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := toRadians(lat1)
	lat2Rad := toRadians(lat2)
	deltaLat := toRadians(lat2 - lat1)
	deltaLon := toRadians(lon2 - lon1)

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)

	// rounding near antipodes can push a just past 1
	a = math.Min(1, math.Max(0, a))
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

// DistanceKm is HaversineKm for two Points.
func DistanceKm(a, b Point) float64 {
	return HaversineKm(a.Lat, a.Lon, b.Lat, b.Lon)
}

// FeltRadiusKm estimates how far from the epicenter shaking is perceptible.
func FeltRadiusKm(magnitude float64) float64 {
	switch {
	case magnitude < 3:
		return 10
	case magnitude < 4:
		return 30
	case magnitude < 5:
		return 100
	case magnitude < 6:
		return 200
	case magnitude < 7:
		return 400
	case magnitude < 8:
		return 800
	default:
		return 1000
	}
}

// ClusterKey snaps a coordinate to the nearest cell of a fixed 0.5° grid.
func ClusterKey(lat, lon float64) Point {
	return Point{
		Lat: roundTo(lat, ClusterCellDegrees),
		Lon: roundTo(lon, ClusterCellDegrees),
	}
}

// ConvertDistance expresses km in the given unit system ("imperial" means miles).
func ConvertDistance(km float64, units string) float64 {
	if units == "imperial" {
		return km / kmPerMile
	}
	return km
}

// Cell is one occupied grid cell produced by Cluster.
type Cell[T any] struct {
	Key     Point `json:"key"`
	Count   int   `json:"count"`
	Members []T   `json:"members"`
}

// Cluster buckets items by ClusterKey. Cells come back largest first; ties
// are ordered by latitude then longitude so output is deterministic.
func Cluster[T any](items []T, locate func(T) Point) []Cell[T] {
	index := make(map[Point]int)
	var cells []Cell[T]

	for _, item := range items {
		p := locate(item)
		key := ClusterKey(p.Lat, p.Lon)
		i, ok := index[key]
		if !ok {
			i = len(cells)
			index[key] = i
			cells = append(cells, Cell[T]{Key: key})
		}
		cells[i].Count++
		cells[i].Members = append(cells[i].Members, item)
	}

	sort.SliceStable(cells, func(i, j int) bool {
		if cells[i].Count != cells[j].Count {
			return cells[i].Count > cells[j].Count
		}
		if cells[i].Key.Lat != cells[j].Key.Lat {
			return cells[i].Key.Lat < cells[j].Key.Lat
		}
		return cells[i].Key.Lon < cells[j].Key.Lon
	})
	return cells
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

func roundTo(v, step float64) float64 {
	r := math.Round(v/step) * step
	if r == 0 {
		return 0 // normalise -0
	}
	return r
}
