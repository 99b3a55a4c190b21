package pipeline

import (
	"context"

	"weather-lakehouse/internal/weather"
)

// Hot-day threshold in degrees Celsius.
const hotDayTemperature = 30.0

// RefreshAnalytics projects hot-day silver rows (temperature above the
// threshold, not flagged invalid) into the analytics table. Like the other
// downstream stages it recomputes from its source layer and upserts, so a
// re-run with unchanged silver rewrites the same rows. Returns the number of
// rows upserted.
func (p *Pipeline) RefreshAnalytics(ctx context.Context, city string) (int, error) {
	recs, err := p.store.AnalyticsSource(ctx, city, hotDayTemperature)
	if err != nil {
		return 0, &weather.TransformError{Stage: "analytics", City: city, Err: err}
	}
	if len(recs) == 0 {
		return 0, nil
	}

	n, err := p.store.UpsertAnalytics(ctx, recs)
	if err != nil {
		return 0, &weather.TransformError{Stage: "analytics", City: city, Err: err}
	}
	return n, nil
}
