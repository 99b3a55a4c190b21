package scheduler

import (
	"context"
	"testing"
	"time"

	"weather-lakehouse/internal/weather"
)

type fakeIngestor struct {
	failFor map[string]bool
	calls   []string
}

func (f *fakeIngestor) Ingest(_ context.Context, loc weather.Location) (weather.BronzeRecord, error) {
	f.calls = append(f.calls, loc.City)
	if f.failFor[loc.City] {
		return weather.BronzeRecord{}, &weather.ProviderError{Provider: "fake", Status: 500, Message: "boom"}
	}
	return weather.BronzeRecord{ID: 1, City: loc.City, ObservedAt: time.Now()}, nil
}

func TestRunOnce_AllLocations(t *testing.T) {
	in := &fakeIngestor{}
	s := New([]weather.Location{
		{City: "Sydney", Country: "AU"},
		{City: "Brisbane", Country: "AU"},
	}, time.Minute, in)

	s.RunOnce(context.Background())

	if len(in.calls) != 2 {
		t.Fatalf("ingest calls: got %d, want 2", len(in.calls))
	}
	if in.calls[0] != "Sydney" || in.calls[1] != "Brisbane" {
		t.Errorf("call order: got %v", in.calls)
	}
}

func TestRunOnce_FailureDoesNotBlockOtherCities(t *testing.T) {
	in := &fakeIngestor{failFor: map[string]bool{"Sydney": true}}
	s := New([]weather.Location{
		{City: "Sydney", Country: "AU"},
		{City: "Brisbane", Country: "AU"},
		{City: "Perth", Country: "AU"},
	}, time.Minute, in)

	s.RunOnce(context.Background())

	if len(in.calls) != 3 {
		t.Fatalf("ingest calls: got %d, want 3 (failure must not stop the tick)", len(in.calls))
	}
}

func TestStart_NoLocationsIsNoop(t *testing.T) {
	in := &fakeIngestor{}
	s := New(nil, time.Minute, in)

	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()

	if len(in.calls) != 0 {
		t.Errorf("expected no ingest calls, got %d", len(in.calls))
	}
}
