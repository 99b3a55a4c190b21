package store

import (
	"context"
	"database/sql"
	_ "embed"
	"log/slog"

	"weather-lakehouse/internal/weather"
)

//go:embed sql/select-daily-aggregates.sql
var selectDailyAggregatesSQL string

//go:embed sql/upsert-gold.sql
var upsertGoldSQL string

//go:embed sql/get-gold-daily.sql
var getGoldDailySQL string

//go:embed sql/select-mart-source.sql
var selectMartSourceSQL string

//go:embed sql/upsert-mart.sql
var upsertMartSQL string

// DailyAggregates computes avg/min/max per calendar date for a city directly
// from silver. The full history is always recomputed so a late silver
// correction for a past date is picked up on the next run.
func (s *Store) DailyAggregates(ctx context.Context, city string) ([]weather.GoldRecord, error) {
	rows, err := s.db.QueryContext(ctx, selectDailyAggregatesSQL, city)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close aggregate rows", "error", err)
		}
	}()
	return scanGoldRows(rows)
}

// UpsertGold writes daily aggregates in one transaction, keyed on (city, date).
func (s *Store) UpsertGold(ctx context.Context, recs []weather.GoldRecord) (int, error) {
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

	for _, rec := range recs {
		if _, err := tx.ExecContext(ctx, upsertGoldSQL,
			rec.City,
			rec.Date,
			rec.AvgTemperature,
			rec.MinTemperature,
			rec.MaxTemperature,
			rec.AvgHumidity,
			rec.AvgPressure,
			rec.AvgVisibility,
			rec.TotalReadings,
			rec.ValidReadings,
		); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(recs), nil
}

// GoldDaily returns the stored daily aggregates for a city.
func (s *Store) GoldDaily(ctx context.Context, city string) ([]weather.GoldRecord, error) {
	rows, err := s.db.QueryContext(ctx, getGoldDailySQL, city)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close gold rows", "error", err)
		}
	}()
	return scanGoldRows(rows)
}

// MartSource projects gold rows for a city into reporting-mart shape.
func (s *Store) MartSource(ctx context.Context, city string) ([]weather.MartRecord, error) {
	rows, err := s.db.QueryContext(ctx, selectMartSourceSQL, city)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close mart source rows", "error", err)
		}
	}()

	var out []weather.MartRecord
	for rows.Next() {
		var rec weather.MartRecord
		if err := rows.Scan(&rec.City, &rec.Date, &rec.MaxTemperature,
			&rec.MinTemperature, &rec.TemperatureRange, &rec.TotalReadings); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// UpsertMart writes reporting-mart rows, keyed on (city, date).
func (s *Store) UpsertMart(ctx context.Context, recs []weather.MartRecord) (int, error) {
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

	for _, rec := range recs {
		if _, err := tx.ExecContext(ctx, upsertMartSQL,
			rec.City,
			rec.Date,
			rec.MaxTemperature,
			rec.MinTemperature,
			rec.TemperatureRange,
			rec.TotalReadings,
		); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(recs), nil
}

func scanGoldRows(rows *sql.Rows) ([]weather.GoldRecord, error) {
	var out []weather.GoldRecord
	for rows.Next() {
		var rec weather.GoldRecord
		if err := rows.Scan(&rec.City, &rec.Date,
			&rec.AvgTemperature, &rec.MinTemperature, &rec.MaxTemperature,
			&rec.AvgHumidity, &rec.AvgPressure, &rec.AvgVisibility,
			&rec.TotalReadings, &rec.ValidReadings); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
