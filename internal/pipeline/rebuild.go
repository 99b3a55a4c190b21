package pipeline

import (
	"context"
	"log/slog"

	"weather-lakehouse/internal/weather"
)

// RebuildSilver clears the silver layer and its run history, then re-runs the
// silver transform for every city present in bronze. Silver is derived data,
// so a rebuild is always safe; use it after a bronze correction or when the
// silver layer is suspect. Returns the total number of rows recreated.
func (p *Pipeline) RebuildSilver(ctx context.Context) (int, error) {
	deleted, err := p.store.DeleteAllSilver(ctx)
	if err != nil {
		return 0, &weather.TransformError{Stage: "silver", City: "*", Err: err}
	}
	if err := p.store.DeleteRuns(ctx, "bronze_to_silver"); err != nil {
		return 0, &weather.TransformError{Stage: "silver", City: "*", Err: err}
	}
	slog.Info("silver layer cleared", "deleted", deleted)

	cities, err := p.store.DistinctCities(ctx)
	if err != nil {
		return 0, &weather.TransformError{Stage: "silver", City: "*", Err: err}
	}

	total := 0
	for _, city := range cities {
		n, err := p.TransformSilver(ctx, city)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}
