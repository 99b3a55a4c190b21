package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	_ "github.com/mattn/go-sqlite3"

	"weather-lakehouse/internal/db/migrate"
	"weather-lakehouse/internal/pipeline"
	"weather-lakehouse/internal/store"
	"weather-lakehouse/internal/weather"
)

type stubProvider struct {
	obs map[string]weather.Observation
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Fetch(_ context.Context, loc weather.Location) (weather.Observation, error) {
	obs, ok := s.obs[loc.City]
	if !ok {
		return weather.Observation{}, &weather.ProviderError{Provider: "stub", Status: 404, Message: "city not found"}
	}
	return obs, nil
}

func setupApp(t *testing.T, provider weather.Provider) (*fiber.App, *store.Store) {
	t.Helper()
	conn, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	conn.SetMaxOpenConns(1)
	if err := migrate.Run(conn); err != nil {
		_ = conn.Close()
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if err := conn.Close(); err != nil {
			t.Errorf("close db: %v", err)
		}
	})

	st := store.New(conn)
	app := fiber.New()
	RegisterRoutes(app, pipeline.New(provider, st), st)
	return app, st
}

func seedBronze(t *testing.T, st *store.Store, city string, observed, fetched time.Time, temp float64) {
	t.Helper()
	_, err := st.InsertBronze(context.Background(), weather.BronzeRecord{
		City:        city,
		Country:     "AU",
		ObservedAt:  observed,
		Temperature: temp,
		Humidity:    60,
		Pressure:    1013,
		Visibility:  10000,
		FetchedAt:   fetched,
	})
	if err != nil {
		t.Fatalf("seed bronze: %v", err)
	}
}

func TestFetchCity_Created(t *testing.T) {
	observed := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	app, _ := setupApp(t, &stubProvider{obs: map[string]weather.Observation{
		"Sydney": {City: "Sydney", Country: "AU", ObservedAt: observed, Temperature: 23, Humidity: 58},
	}})

	req := httptest.NewRequest("POST", "/weather/fetch/Sydney", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("status: got %d, want 201", resp.StatusCode)
	}

	var rec weather.BronzeRecord
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec.ID == 0 {
		t.Error("expected assigned row ID")
	}
	if rec.Temperature != 23 {
		t.Errorf("temperature: got %v, want 23", rec.Temperature)
	}
}

func TestFetchCity_UnknownCityIs404(t *testing.T) {
	app, _ := setupApp(t, &stubProvider{})

	req := httptest.NewRequest("POST", "/weather/fetch/Atlantis", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Errorf("status: got %d, want 404", resp.StatusCode)
	}
}

func TestHistory_SilverIsDefault(t *testing.T) {
	app, st := setupApp(t, &stubProvider{})
	ctx := context.Background()

	observed := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	// Two fetches of the same observation: bronze keeps both, silver keeps one.
	seedBronze(t, st, "Paris", observed, observed.Add(10*time.Hour), 5)
	seedBronze(t, st, "Paris", observed, observed.Add(10*time.Hour+5*time.Minute), 6)
	if _, err := pipeline.New(&stubProvider{}, st).TransformSilver(ctx, "Paris"); err != nil {
		t.Fatalf("TransformSilver: %v", err)
	}

	req := httptest.NewRequest("GET", "/weather/history/Paris", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status: got %d, want 200", resp.StatusCode)
	}
	var body struct {
		Layer   string                 `json:"layer"`
		Count   int                    `json:"count"`
		Records []weather.SilverRecord `json:"records"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Layer != "silver" {
		t.Errorf("layer: got %s, want silver", body.Layer)
	}
	if body.Count != 1 {
		t.Fatalf("count: got %d, want 1", body.Count)
	}
	if body.Records[0].Temperature != 6 {
		t.Errorf("temperature: got %v, want 6", body.Records[0].Temperature)
	}

	// The raw audit trail remains reachable with ?layer=bronze.
	req = httptest.NewRequest("GET", "/weather/history/Paris?layer=bronze", nil)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	var bronzeBody struct {
		Layer string `json:"layer"`
		Count int    `json:"count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&bronzeBody); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if bronzeBody.Layer != "bronze" || bronzeBody.Count != 2 {
		t.Errorf("bronze history: got layer=%s count=%d, want bronze/2", bronzeBody.Layer, bronzeBody.Count)
	}
}

func TestHistory_InvalidLayerIs400(t *testing.T) {
	app, _ := setupApp(t, &stubProvider{})

	req := httptest.NewRequest("GET", "/weather/history/Paris?layer=platinum", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("status: got %d, want 400", resp.StatusCode)
	}
}

func TestLatest_EmptyCityIs404(t *testing.T) {
	app, _ := setupApp(t, &stubProvider{})

	req := httptest.NewRequest("GET", "/weather/latest/Nowhere", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Errorf("status: got %d, want 404", resp.StatusCode)
	}
}

func TestDaily_ReturnsGoldAggregates(t *testing.T) {
	app, st := setupApp(t, &stubProvider{})
	ctx := context.Background()

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	fetched := base.Add(24 * time.Hour)
	seedBronze(t, st, "Darwin", base.Add(1*time.Hour), fetched, 28)
	seedBronze(t, st, "Darwin", base.Add(13*time.Hour), fetched, 36)

	pipe := pipeline.New(&stubProvider{}, st)
	if _, err := pipe.TransformSilver(ctx, "Darwin"); err != nil {
		t.Fatalf("TransformSilver: %v", err)
	}
	if _, err := pipe.AggregateGold(ctx, "Darwin"); err != nil {
		t.Fatalf("AggregateGold: %v", err)
	}

	req := httptest.NewRequest("GET", "/weather/daily/Darwin", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status: got %d, want 200", resp.StatusCode)
	}
	var body struct {
		Count   int                  `json:"count"`
		Records []weather.GoldRecord `json:"records"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Count != 1 {
		t.Fatalf("count: got %d, want 1", body.Count)
	}
	g := body.Records[0]
	if g.Date != "2025-01-01" {
		t.Errorf("date: got %s, want 2025-01-01", g.Date)
	}
	if g.AvgTemperature != 32 || g.MinTemperature != 28 || g.MaxTemperature != 36 {
		t.Errorf("aggregates: got avg=%v min=%v max=%v", g.AvgTemperature, g.MinTemperature, g.MaxTemperature)
	}
}

func TestSilverRebuild(t *testing.T) {
	app, st := setupApp(t, &stubProvider{})
	ctx := context.Background()

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	seedBronze(t, st, "Sydney", base, base.Add(10*time.Hour), 20)
	if _, err := pipeline.New(&stubProvider{}, st).TransformSilver(ctx, "Sydney"); err != nil {
		t.Fatalf("TransformSilver: %v", err)
	}

	req := httptest.NewRequest("POST", "/api/v1/admin/silver/rebuild", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status: got %d, want 200", resp.StatusCode)
	}
	var body struct {
		Rebuilt int `json:"rebuilt"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Rebuilt != 1 {
		t.Errorf("rebuilt: got %d, want 1", body.Rebuilt)
	}
}
