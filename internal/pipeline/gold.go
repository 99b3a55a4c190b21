package pipeline

import (
	"context"

	"weather-lakehouse/internal/weather"
)

// AggregateGold recomputes the daily aggregates for a city from silver and
// upserts one row per (city, date). The recompute always covers the full
// silver history, so a late correction to a past date is reflected on the
// next run. Returns the number of rows upserted.
func (p *Pipeline) AggregateGold(ctx context.Context, city string) (int, error) {
	aggs, err := p.store.DailyAggregates(ctx, city)
	if err != nil {
		return 0, &weather.TransformError{Stage: "gold", City: city, Err: err}
	}
	if len(aggs) == 0 {
		return 0, nil
	}

	n, err := p.store.UpsertGold(ctx, aggs)
	if err != nil {
		return 0, &weather.TransformError{Stage: "gold", City: city, Err: err}
	}
	return n, nil
}
