// Package orchestrator runs the periodic transform loop. Each tick enumerates
// the cities present in bronze and runs the silver, gold, mart and analytics
// stages for each city in that order. Cities are independent: a failure in
// one city's stages is recorded and logged, and the loop proceeds to the next
// city.
package orchestrator

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/google/uuid"

	"weather-lakehouse/internal/weather"
)

// Stage names as recorded in transformation_runs.
const (
	StageSilver    = "bronze_to_silver"
	StageGold      = "silver_to_gold"
	StageMart      = "gold_to_mart"
	StageAnalytics = "silver_to_analytics"
)

// Transformer exposes the per-city pipeline stages in execution order.
type Transformer interface {
	TransformSilver(ctx context.Context, city string) (int, error)
	AggregateGold(ctx context.Context, city string) (int, error)
	RefreshMart(ctx context.Context, city string) (int, error)
	RefreshAnalytics(ctx context.Context, city string) (int, error)
}

// Registry lists transform targets and records stage outcomes.
type Registry interface {
	DistinctCities(ctx context.Context) ([]string, error)
	RecordRun(ctx context.Context, run weather.TransformationRun) error
}

// Orchestrator drives the transform stages on a fixed interval, independent
// of the fetch scheduler. Coordination with the scheduler happens only
// through the shared database; all stage writes are idempotent upserts, so a
// bronze row racing in mid-tick is simply picked up on the next tick.
type Orchestrator struct {
	scheduler   *gocron.Scheduler
	transformer Transformer
	registry    Registry
	interval    time.Duration
	tickWindow  time.Duration
}

// New creates a new Orchestrator.
func New(transformer Transformer, registry Registry, interval time.Duration) *Orchestrator {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Orchestrator{
		scheduler:   s,
		transformer: transformer,
		registry:    registry,
		interval:    interval,
		tickWindow:  5 * time.Minute,
	}
}

// Start schedules the periodic transform job and starts the scheduler.
func (o *Orchestrator) Start() error {
	interval := o.interval
	if interval <= 0 {
		interval = time.Hour
	}

	_, err := o.scheduler.Every(interval).Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), o.tickWindow)
		defer cancel()
		o.RunOnce(ctx)
	})
	if err != nil {
		return err
	}

	o.scheduler.StartAsync()
	return nil
}

// RunOnce executes one transform tick across every city present in bronze.
func (o *Orchestrator) RunOnce(ctx context.Context) {
	cities, err := o.registry.DistinctCities(ctx)
	if err != nil {
		slog.Error("orchestrator: list cities failed", "error", err)
		return
	}
	if len(cities) == 0 {
		slog.Debug("orchestrator: no cities in bronze yet")
		return
	}

	slog.Info("orchestrator: running transform job", "cities", len(cities))

	for _, city := range cities {
		o.runCity(ctx, city)
	}

	slog.Info("orchestrator: completed transform job")
}

// runCity runs silver, then gold, then mart and analytics for one city. The
// downstream stages depend on silver being current, so the first stage
// failure aborts the remaining stages for this city only.
func (o *Orchestrator) runCity(ctx context.Context, city string) {
	stages := []struct {
		name string
		run  func(context.Context, string) (int, error)
	}{
		{StageSilver, o.transformer.TransformSilver},
		{StageGold, o.transformer.AggregateGold},
		{StageMart, o.transformer.RefreshMart},
		{StageAnalytics, o.transformer.RefreshAnalytics},
	}

	for _, stage := range stages {
		n, err := stage.run(ctx, city)
		o.record(ctx, stage.name, city, n, err)
		if err != nil {
			slog.Error("orchestrator: stage failed",
				"stage", stage.name, "city", city, "error", err)
			return
		}
		slog.Debug("orchestrator: stage complete",
			"stage", stage.name, "city", city, "upserted", n)
	}
}

func (o *Orchestrator) record(ctx context.Context, stage, city string, n int, stageErr error) {
	run := weather.TransformationRun{
		ID:               uuid.NewString(),
		Name:             stage,
		City:             city,
		RunAt:            time.Now().UTC(),
		RecordsProcessed: n,
		Status:           "success",
	}
	if stageErr != nil {
		run.Status = "failed"
		run.Error = stageErr.Error()
	}
	if err := o.registry.RecordRun(ctx, run); err != nil {
		slog.Error("orchestrator: record run failed",
			"stage", stage, "city", city, "error", err)
	}
}

// Stop stops the orchestrator and cancels any future jobs.
func (o *Orchestrator) Stop() {
	if o.scheduler != nil {
		o.scheduler.Stop()
	}
}
