package weather

import (
	"context"
)

// Provider abstracts an upstream weather data source (e.g. OpenWeatherMap,
// WeatherAPI). A Fetch performs exactly one upstream call; failed fetches are
// not retried here, the scheduler simply tries again on its next interval.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, loc Location) (Observation, error)
}
