// Package store provides the SQLite-backed repositories for the bronze,
// silver, gold, reporting and analytics tables. All derived-layer writes are
// upserts so every operation is safe to re-run.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned when no data is available for a given city.
	ErrNotFound = errors.New("no weather data for city")
)

// Timestamp formats. observed_at is stored at whole-second precision;
// fetched_at keeps fixed-width milliseconds so lexicographic MAX() in SQL
// matches chronological order.
const (
	observedAtFormat = "2006-01-02T15:04:05Z07:00"
	fetchedAtFormat  = "2006-01-02T15:04:05.000Z07:00"
)

// Store bundles all table access over one shared *sql.DB.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle for health checks.
func (s *Store) DB() *sql.DB {
	return s.db
}

func formatObservedAt(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(observedAtFormat)
}

func formatFetchedAt(t time.Time) string {
	return t.UTC().Format(fetchedAtFormat)
}

func parseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}
