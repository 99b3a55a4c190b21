// Package scheduler runs the periodic ingestion loop: every interval, fetch
// and store the current observation for each configured city.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"weather-lakehouse/internal/weather"
)

// Ingestor is the single pipeline operation the scheduler drives.
type Ingestor interface {
	Ingest(ctx context.Context, loc weather.Location) (weather.BronzeRecord, error)
}

// Scheduler periodically ingests weather data for configured locations.
// Cities are processed sequentially within a tick; a failure for one city is
// logged and never blocks the others. Missed ticks are not backfilled.
type Scheduler struct {
	scheduler   *gocron.Scheduler
	ingestor    Ingestor
	locations   []weather.Location
	interval    time.Duration
	fetchWindow time.Duration
}

// New creates a new Scheduler.
func New(locations []weather.Location, interval time.Duration, ingestor Ingestor) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler:   s,
		ingestor:    ingestor,
		locations:   locations,
		interval:    interval,
		fetchWindow: 30 * time.Second,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if len(s.locations) == 0 {
		slog.Info("scheduler: no locations configured; nothing to schedule")
		return nil
	}

	interval := s.interval
	if interval <= 0 {
		interval = 15 * time.Minute
	}

	_, err := s.scheduler.Every(interval).Do(func() {
		s.RunOnce(context.Background())
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// RunOnce executes a single fetch tick across all configured locations.
func (s *Scheduler) RunOnce(ctx context.Context) {
	slog.Info("scheduler: running weather fetch job", "locations", len(s.locations))

	var ok, failed int
	for _, loc := range s.locations {
		fetchCtx, cancel := context.WithTimeout(ctx, s.fetchWindow)
		rec, err := s.ingestor.Ingest(fetchCtx, loc)
		cancel()

		if err != nil {
			failed++
			slog.Error("scheduler: fetch failed", "location", loc.Key(), "error", err)
			continue
		}
		ok++
		slog.Debug("scheduler: stored bronze record",
			"location", loc.Key(), "id", rec.ID, "observedAt", rec.ObservedAt)
	}

	slog.Info("scheduler: completed weather fetch job", "ok", ok, "failed", failed)
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
