package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"log/slog"
	"time"

	"weather-lakehouse/internal/weather"
)

//go:embed sql/select-silver-candidates.sql
var selectSilverCandidatesSQL string

//go:embed sql/upsert-silver.sql
var upsertSilverSQL string

//go:embed sql/get-silver-history.sql
var getSilverHistorySQL string

//go:embed sql/get-latest-silver.sql
var getLatestSilverSQL string

//go:embed sql/delete-silver.sql
var deleteSilverSQL string

// SilverCandidates returns, for each observation time of the city, the bronze
// row with the greatest fetched_at that is not yet reflected in silver.
// Running the silver transform twice with no new bronze data therefore yields
// an empty candidate set.
func (s *Store) SilverCandidates(ctx context.Context, city string) ([]weather.BronzeRecord, error) {
	rows, err := s.db.QueryContext(ctx, selectSilverCandidatesSQL, city)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close candidate rows", "error", err)
		}
	}()

	var out []weather.BronzeRecord
	for rows.Next() {
		var rec weather.BronzeRecord
		var observedAt, fetchedAt string
		if err := rows.Scan(&rec.City, &rec.Country, &observedAt,
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

// UpsertSilver writes the given silver rows in one transaction, keyed on
// (city, observed_at). Returns the number of rows written.
func (s *Store) UpsertSilver(ctx context.Context, recs []weather.SilverRecord) (int, error) {
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
		if _, err := tx.ExecContext(ctx, upsertSilverSQL,
			rec.City,
			rec.Country,
			formatObservedAt(rec.ObservedAt),
			rec.Temperature,
			rec.Humidity,
			rec.Pressure,
			rec.Visibility,
			formatFetchedAt(rec.SourceFetchedAt),
			string(rec.QualityFlag),
			rec.QualityNotes,
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

// SilverHistory returns the canonical records for a city ordered by
// observation time.
func (s *Store) SilverHistory(ctx context.Context, city string) ([]weather.SilverRecord, error) {
	rows, err := s.db.QueryContext(ctx, getSilverHistorySQL, city)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close silver rows", "error", err)
		}
	}()
	return scanSilverRows(rows)
}

// LatestSilver returns the most recent canonical record for a city.
func (s *Store) LatestSilver(ctx context.Context, city string) (weather.SilverRecord, error) {
	row := s.db.QueryRowContext(ctx, getLatestSilverSQL, city)

	rec, err := scanSilverRow(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return weather.SilverRecord{}, ErrNotFound
	}
	return rec, err
}

// DeleteAllSilver clears the silver table. Only the rebuild path uses this;
// silver is derived data and is reconstructed from bronze immediately after.
func (s *Store) DeleteAllSilver(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, deleteSilverSQL)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanSilverRows(rows *sql.Rows) ([]weather.SilverRecord, error) {
	var out []weather.SilverRecord
	for rows.Next() {
		rec, err := scanSilverRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanSilverRow(scan func(dest ...any) error) (weather.SilverRecord, error) {
	var rec weather.SilverRecord
	var observedAt, sourceFetchedAt, flag string
	if err := scan(&rec.City, &rec.Country, &observedAt,
		&rec.Temperature, &rec.Humidity, &rec.Pressure, &rec.Visibility,
		&sourceFetchedAt, &flag, &rec.QualityNotes); err != nil {
		return weather.SilverRecord{}, err
	}
	var err error
	if rec.ObservedAt, err = parseTimestamp(observedAt); err != nil {
		return weather.SilverRecord{}, err
	}
	if rec.SourceFetchedAt, err = parseTimestamp(sourceFetchedAt); err != nil {
		return weather.SilverRecord{}, err
	}
	rec.QualityFlag = weather.QualityFlag(flag)
	return rec, nil
}
