package weather

import (
	"time"
)

// Location represents a logical place for which we track weather.
// City must be provided; Country is an optional ISO 3166-1 alpha-2 code.
type Location struct {
	City    string `json:"city"`
	Country string `json:"country,omitempty"`
}

// Key returns a canonical string key for logging and indexing this location.
func (l Location) Key() string {
	if l.Country == "" {
		return l.City
	}
	return l.City + ":" + l.Country
}

// Observation is a single normalized reading returned by a provider.
type Observation struct {
	City        string    `json:"city"`
	Country     string    `json:"country,omitempty"`
	ObservedAt  time.Time `json:"observedAt"` // always UTC
	Temperature float64   `json:"temperatureC"`
	Humidity    float64   `json:"humidityPercent"`
	Pressure    float64   `json:"pressureHpa"`
	Visibility  float64   `json:"visibilityM"`
}

// QualityFlag classifies how trustworthy a silver row is.
type QualityFlag string

const (
	QualityValid   QualityFlag = "valid"
	QualitySuspect QualityFlag = "suspect"
	QualityInvalid QualityFlag = "invalid"
)

// BronzeRecord is one raw fetch as stored in the bronze layer.
// Bronze rows are append-only; they are never mutated or deleted.
type BronzeRecord struct {
	ID          int64     `json:"id"`
	City        string    `json:"city"`
	Country     string    `json:"country,omitempty"`
	ObservedAt  time.Time `json:"observedAt"`
	Temperature float64   `json:"temperatureC"`
	Humidity    float64   `json:"humidityPercent"`
	Pressure    float64   `json:"pressureHpa"`
	Visibility  float64   `json:"visibilityM"`
	FetchedAt   time.Time `json:"fetchedAt"`
}

// SilverRecord is the canonical deduplicated observation for (city, observedAt).
// SourceFetchedAt identifies the bronze fetch the row currently reflects.
type SilverRecord struct {
	City            string      `json:"city"`
	Country         string      `json:"country,omitempty"`
	ObservedAt      time.Time   `json:"observedAt"`
	Temperature     float64     `json:"temperatureC"`
	Humidity        float64     `json:"humidityPercent"`
	Pressure        float64     `json:"pressureHpa"`
	Visibility      float64     `json:"visibilityM"`
	SourceFetchedAt time.Time   `json:"sourceFetchedAt"`
	QualityFlag     QualityFlag `json:"qualityFlag"`
	QualityNotes    string      `json:"qualityNotes,omitempty"`
}

// GoldRecord is a daily aggregate per (city, date), recomputed in full
// from silver on every orchestrator tick.
type GoldRecord struct {
	City           string  `json:"city"`
	Date           string  `json:"date"` // YYYY-MM-DD
	AvgTemperature float64 `json:"avgTemperatureC"`
	MinTemperature float64 `json:"minTemperatureC"`
	MaxTemperature float64 `json:"maxTemperatureC"`
	AvgHumidity    float64 `json:"avgHumidityPercent"`
	AvgPressure    float64 `json:"avgPressureHpa"`
	AvgVisibility  float64 `json:"avgVisibilityM"`
	TotalReadings  int     `json:"totalReadings"`
	ValidReadings  int     `json:"validReadings"`
}

// MartRecord is the reporting projection of gold used by dashboards.
type MartRecord struct {
	City             string  `json:"city"`
	Date             string  `json:"date"`
	MaxTemperature   float64 `json:"maxTemperatureC"`
	MinTemperature   float64 `json:"minTemperatureC"`
	TemperatureRange float64 `json:"temperatureRangeC"`
	TotalReadings    int     `json:"totalReadings"`
}

// TransformationRun is one audit entry for a pipeline stage execution.
type TransformationRun struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	City             string    `json:"city"`
	RunAt            time.Time `json:"runAt"`
	RecordsProcessed int       `json:"recordsProcessed"`
	Status           string    `json:"status"` // success | failed
	Error            string    `json:"error,omitempty"`
}
