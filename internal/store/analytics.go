package store

import (
	"context"
	_ "embed"
	"log/slog"
	"time"

	"weather-lakehouse/internal/weather"
)

//go:embed sql/select-analytics-source.sql
var selectAnalyticsSourceSQL string

//go:embed sql/upsert-analytics.sql
var upsertAnalyticsSQL string

// AnalyticsSource returns the silver rows of a city whose temperature exceeds
// the given threshold. Rows flagged invalid are excluded; a sensor glitch is
// not a hot day.
func (s *Store) AnalyticsSource(ctx context.Context, city string, minTemperature float64) ([]weather.SilverRecord, error) {
	rows, err := s.db.QueryContext(ctx, selectAnalyticsSourceSQL, city, minTemperature)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close analytics rows", "error", err)
		}
	}()
	return scanSilverRows(rows)
}

// UpsertAnalytics writes the given rows into the analytics table in one
// transaction, keyed on (city, observed_at). Returns the number of rows
// written.
func (s *Store) UpsertAnalytics(ctx context.Context, recs []weather.SilverRecord) (int, error) {
	if len(recs) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := formatFetchedAt(time.Now())
	for _, rec := range recs {
		if _, err := tx.ExecContext(ctx, upsertAnalyticsSQL,
			rec.City,
			rec.Country,
			formatObservedAt(rec.ObservedAt),
			rec.Temperature,
			rec.Humidity,
			rec.Pressure,
			rec.Visibility,
			now,
		); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(recs), nil
}
