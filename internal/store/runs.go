package store

import (
	"context"
	_ "embed"

	"weather-lakehouse/internal/weather"
)

//go:embed sql/insert-run.sql
var insertRunSQL string

//go:embed sql/delete-runs.sql
var deleteRunsSQL string

// RecordRun appends one transformation audit entry.
func (s *Store) RecordRun(ctx context.Context, run weather.TransformationRun) error {
	_, err := s.db.ExecContext(ctx, insertRunSQL,
		run.ID,
		run.Name,
		run.City,
		formatFetchedAt(run.RunAt),
		run.RecordsProcessed,
		run.Status,
		run.Error,
	)
	return err
}

// DeleteRuns removes the audit history for one transformation name. Used by
// the silver rebuild so the rebuilt layer starts with a clean history.
func (s *Store) DeleteRuns(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx, deleteRunsSQL, name)
	return err
}
