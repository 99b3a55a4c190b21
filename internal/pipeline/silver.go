package pipeline

import (
	"context"
	"fmt"
	"strings"

	"weather-lakehouse/internal/weather"
)

// Temperature and humidity sanity bounds for quality flagging.
const (
	tempHardMin = -50.0
	tempHardMax = 60.0
	tempSoftMin = -30.0
	tempSoftMax = 50.0
)

// TransformSilver promotes new or changed bronze rows for a city into silver.
// Per observation time the most recent fetch wins; rows whose latest fetch is
// already reflected in silver are skipped, so a re-run with no new bronze data
// upserts zero rows. Returns the number of rows upserted.
func (p *Pipeline) TransformSilver(ctx context.Context, city string) (int, error) {
	candidates, err := p.store.SilverCandidates(ctx, city)
	if err != nil {
		return 0, &weather.TransformError{Stage: "silver", City: city, Err: err}
	}
	if len(candidates) == 0 {
		return 0, nil
	}

	recs := make([]weather.SilverRecord, 0, len(candidates))
	for _, b := range candidates {
		flag, notes := validateObservation(b)
		recs = append(recs, weather.SilverRecord{
			City:            b.City,
			Country:         b.Country,
			ObservedAt:      b.ObservedAt,
			Temperature:     b.Temperature,
			Humidity:        b.Humidity,
			Pressure:        b.Pressure,
			Visibility:      b.Visibility,
			SourceFetchedAt: b.FetchedAt,
			QualityFlag:     flag,
			QualityNotes:    notes,
		})
	}

	n, err := p.store.UpsertSilver(ctx, recs)
	if err != nil {
		return 0, &weather.TransformError{Stage: "silver", City: city, Err: err}
	}
	return n, nil
}

// validateObservation applies the sanity rules carried over from the bronze
// layer review process: readings stay queryable but get flagged.
func validateObservation(b weather.BronzeRecord) (weather.QualityFlag, string) {
	flag := weather.QualityValid
	var issues []string

	switch {
	case b.Temperature < tempHardMin || b.Temperature > tempHardMax:
		flag = weather.QualityInvalid
		issues = append(issues, fmt.Sprintf("temperature %.1f outside range (%.0f to %.0f)", b.Temperature, tempHardMin, tempHardMax))
	case b.Temperature < tempSoftMin || b.Temperature > tempSoftMax:
		flag = weather.QualitySuspect
		issues = append(issues, fmt.Sprintf("temperature %.1f is extreme but possible", b.Temperature))
	}

	if b.Humidity < 0 || b.Humidity > 100 {
		flag = weather.QualityInvalid
		issues = append(issues, fmt.Sprintf("humidity %.1f outside range (0 to 100)", b.Humidity))
	}

	return flag, strings.Join(issues, "; ")
}
