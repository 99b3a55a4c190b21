package pipeline

import (
	"context"

	"weather-lakehouse/internal/weather"
)

// RefreshMart projects the gold rows of a city into the reporting mart.
// Runs after AggregateGold in the orchestrator tick; idempotent like the
// other stages. Returns the number of rows upserted.
func (p *Pipeline) RefreshMart(ctx context.Context, city string) (int, error) {
	recs, err := p.store.MartSource(ctx, city)
	if err != nil {
		return 0, &weather.TransformError{Stage: "mart", City: city, Err: err}
	}
	if len(recs) == 0 {
		return 0, nil
	}

	n, err := p.store.UpsertMart(ctx, recs)
	if err != nil {
		return 0, &weather.TransformError{Stage: "mart", City: city, Err: err}
	}
	return n, nil
}
