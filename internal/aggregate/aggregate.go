// Package aggregate turns adapter output into the views consumers read:
// merged tsunami alerts, significant and recent events, volcano warnings,
// and sorted or filtered event lists. Every function is pure and returns a
// new slice.
package aggregate

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/mr1hm/go-hazard-watch/internal/models"
)

const (
	SignificanceThreshold = 600
	SignificantMagnitude  = 5.5
	RecentWindow          = time.Hour
)

// MergeTsunamiSources concatenates the lists, keeps the first alert seen for
// each id and orders the result newest first. Alerts without a sent time
// sort as the epoch.
func MergeTsunamiSources(lists ...[]models.TsunamiAlert) []models.TsunamiAlert {
	var n int
	for _, l := range lists {
		n += len(l)
	}

	seen := make(map[string]struct{}, n)
	merged := make([]models.TsunamiAlert, 0, n)
	for _, l := range lists {
		for _, a := range l {
			if _, dup := seen[a.ID]; dup {
				continue
			}
			seen[a.ID] = struct{}{}
			merged = append(merged, a)
		}
	}

	slices.SortStableFunc(merged, func(a, b models.TsunamiAlert) int {
		return cmp.Compare(b.SentUnixMilli(), a.SentUnixMilli())
	})
	return merged
}

func IsSignificant(e *models.HazardEvent) bool {
	return e.Significance >= SignificanceThreshold || e.Magnitude >= SignificantMagnitude
}

func DeriveSignificant(events []models.HazardEvent) []models.HazardEvent {
	return filter(events, func(e *models.HazardEvent) bool { return IsSignificant(e) })
}

// DeriveRecent keeps events that occurred within the hour before now.
func DeriveRecent(events []models.HazardEvent, now time.Time) []models.HazardEvent {
	cutoff := now.Add(-RecentWindow)
	return filter(events, func(e *models.HazardEvent) bool { return !e.OccurredAt.Before(cutoff) })
}

var alertRank = map[models.AlertLevel]int{
	models.AlertLevelWarning:  0,
	models.AlertLevelWatch:    1,
	models.AlertLevelAdvisory: 2,
	models.AlertLevelNormal:   3,
}

// DeriveWarnings projects every volcano above normal into a warning, most
// severe first. Ties keep catalog order.
func DeriveWarnings(volcanoes []models.Volcano) []models.VolcanoWarning {
	warnings := make([]models.VolcanoWarning, 0)
	for _, v := range volcanoes {
		switch v.AlertLevel {
		case models.AlertLevelWarning, models.AlertLevelWatch, models.AlertLevelAdvisory:
		default:
			continue
		}

		desc := v.ActivitySummary
		if desc == "" {
			desc = fmt.Sprintf("%s is at alert level %s. Status: %s.", v.Name, v.AlertLevel, v.Status)
		}
		warnings = append(warnings, models.VolcanoWarning{
			ID:           "warning-" + v.ID,
			VolcanoID:    v.ID,
			VolcanoName:  v.Name,
			Country:      v.Country,
			Latitude:     v.Latitude,
			Longitude:    v.Longitude,
			AlertLevel:   v.AlertLevel,
			ActivityType: v.Status,
			Description:  desc,
		})
	}

	slices.SortStableFunc(warnings, func(a, b models.VolcanoWarning) int {
		return cmp.Compare(alertRank[a.AlertLevel], alertRank[b.AlertLevel])
	})
	return warnings
}

func VolcanoesByCategory(volcanoes []models.Volcano, category models.VolcanoCategory) []models.Volcano {
	out := make([]models.Volcano, 0)
	for _, v := range volcanoes {
		if v.Category == category {
			out = append(out, v)
		}
	}
	return out
}

func Find(events []models.HazardEvent, id string) (models.HazardEvent, bool) {
	i := slices.IndexFunc(events, func(e models.HazardEvent) bool { return e.ID == id })
	if i < 0 {
		return models.HazardEvent{}, false
	}
	return events[i], true
}

// Limit returns at most n leading events; n <= 0 means no limit.
func Limit(events []models.HazardEvent, n int) []models.HazardEvent {
	if n <= 0 || n >= len(events) {
		return events
	}
	return events[:n]
}

func filter(events []models.HazardEvent, keep func(*models.HazardEvent) bool) []models.HazardEvent {
	out := make([]models.HazardEvent, 0)
	for i := range events {
		if keep(&events[i]) {
			out = append(out, events[i])
		}
	}
	return out
}
