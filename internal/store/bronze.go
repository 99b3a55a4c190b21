package store

import (
	"context"
	_ "embed"
	"log/slog"
	"time"

	"weather-lakehouse/internal/weather"
)

//go:embed sql/insert-bronze.sql
var insertBronzeSQL string

//go:embed sql/get-bronze-history.sql
var getBronzeHistorySQL string

//go:embed sql/get-distinct-cities.sql
var getDistinctCitiesSQL string

// InsertBronze appends one raw fetch. Always an insert, never an upsert;
// repeated fetches for the same observation time are kept for audit.
func (s *Store) InsertBronze(ctx context.Context, rec weather.BronzeRecord) (weather.BronzeRecord, error) {
	res, err := s.db.ExecContext(ctx, insertBronzeSQL,
		rec.City,
		rec.Country,
		formatObservedAt(rec.ObservedAt),
		rec.Temperature,
		rec.Humidity,
		rec.Pressure,
		rec.Visibility,
		formatFetchedAt(rec.FetchedAt),
	)
	if err != nil {
		return weather.BronzeRecord{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return weather.BronzeRecord{}, err
	}
	rec.ID = id
	rec.ObservedAt = rec.ObservedAt.UTC().Truncate(time.Second)
	return rec, nil
}

// BronzeHistory returns every raw fetch for a city ordered by observation
// time, then fetch time.
func (s *Store) BronzeHistory(ctx context.Context, city string) ([]weather.BronzeRecord, error) {
	rows, err := s.db.QueryContext(ctx, getBronzeHistorySQL, city)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close bronze rows", "error", err)
		}
	}()

	var out []weather.BronzeRecord
	for rows.Next() {
		var rec weather.BronzeRecord
		var observedAt, fetchedAt string
		if err := rows.Scan(&rec.ID, &rec.City, &rec.Country, &observedAt,
			&rec.Temperature, &rec.Humidity, &rec.Pressure, &rec.Visibility, &fetchedAt); err != nil {
			return nil, err
		}
		if rec.ObservedAt, err = parseTimestamp(observedAt); err != nil {
			return nil, err
		}
		if rec.FetchedAt, err = parseTimestamp(fetchedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// DistinctCities lists every city present in bronze. The orchestrator uses
// this to enumerate transform targets.
func (s *Store) DistinctCities(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, getDistinctCitiesSQL)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close cities rows", "error", err)
		}
	}()

	var out []string
	for rows.Next() {
		var city string
		if err := rows.Scan(&city); err != nil {
			return nil, err
		}
		out = append(out, city)
	}
	return out, rows.Err()
}
