// Package pipeline implements the medallion transformations: provider fetch
// into bronze, bronze to silver deduplication, silver to gold daily
// aggregation, the gold to reporting-mart projection, and the hot-day
// analytics projection of silver. Every stage is idempotent; correctness
// under concurrent scheduler/orchestrator ticks relies on upsert semantics,
// not locking.
package pipeline

import (
	"context"
	"time"

	"weather-lakehouse/internal/store"
	"weather-lakehouse/internal/weather"
)

// Pipeline wires one provider and one store into the stage operations.
type Pipeline struct {
	provider weather.Provider
	store    *store.Store
	now      func() time.Time
}

func New(provider weather.Provider, st *store.Store) *Pipeline {
	return &Pipeline{
		provider: provider,
		store:    st,
		now:      time.Now,
	}
}

// Ingest fetches the current observation for a location and appends it to
// bronze. Provider failures propagate as *weather.ProviderError; storage
// failures are wrapped in *weather.IngestionError.
func (p *Pipeline) Ingest(ctx context.Context, loc weather.Location) (weather.BronzeRecord, error) {
	obs, err := p.provider.Fetch(ctx, loc)
	if err != nil {
		return weather.BronzeRecord{}, err
	}

	rec := weather.BronzeRecord{
		City:        obs.City,
		Country:     obs.Country,
		ObservedAt:  obs.ObservedAt,
		Temperature: obs.Temperature,
		Humidity:    obs.Humidity,
		Pressure:    obs.Pressure,
		Visibility:  obs.Visibility,
		FetchedAt:   p.now().UTC(),
	}

	stored, err := p.store.InsertBronze(ctx, rec)
	if err != nil {
		return weather.BronzeRecord{}, &weather.IngestionError{City: obs.City, Err: err}
	}
	return stored, nil
}
