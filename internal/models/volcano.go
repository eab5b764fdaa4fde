package models

type VolcanoCategory string

const (
	VolcanoCategoryActive VolcanoCategory = "active"
	VolcanoCategorySuper  VolcanoCategory = "super"
)

type AlertLevel string

const (
	AlertLevelNormal   AlertLevel = "normal"
	AlertLevelAdvisory AlertLevel = "advisory"
	AlertLevelWatch    AlertLevel = "watch"
	AlertLevelWarning  AlertLevel = "warning"
)

// Volcano is a catalog entry. The catalog is a versioned constant; entries
// are never created or mutated at runtime.
type Volcano struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	Country          string          `json:"country"`
	Region           string          `json:"region"`
	Latitude         float64         `json:"latitude"`
	Longitude        float64         `json:"longitude"`
	ElevationM       int             `json:"elevation"`
	Type             string          `json:"type"`
	Status           string          `json:"status"`
	LastEruptionDate string          `json:"lastEruptionDate"`
	AlertLevel       AlertLevel      `json:"alertLevel"`
	ActivitySummary  string          `json:"activitySummary,omitempty"`
	Category         VolcanoCategory `json:"category"`
}

// VolcanoWarning is derived from a Volcano whose alert level is elevated.
type VolcanoWarning struct {
	ID           string     `json:"id"`
	VolcanoID    string     `json:"volcanoId"`
	VolcanoName  string     `json:"volcanoName"`
	Country      string     `json:"country"`
	Latitude     float64    `json:"latitude"`
	Longitude    float64    `json:"longitude"`
	AlertLevel   AlertLevel `json:"alertLevel"`
	ActivityType string     `json:"activityType"`
	Description  string     `json:"description"`
}
