package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"weather-lakehouse/internal/weather"
)

const defaultWeatherAPIURL = "https://api.weatherapi.com/v1/current.json"

// WeatherAPIProvider implements the weather.Provider interface for WeatherAPI.com.
type WeatherAPIProvider struct {
	name    string
	apiKey  string
	baseURL string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

func NewWeatherAPIProvider(client *http.Client, apiKey string) *WeatherAPIProvider {
	return &WeatherAPIProvider{
		name:    "weatherapi",
		apiKey:  apiKey,
		baseURL: defaultWeatherAPIURL,
		client:  client,
		circuit: newCircuit("weatherapi"),
	}
}

func (p *WeatherAPIProvider) Name() string {
	return p.name
}

// WithBaseURL overrides the upstream endpoint. Used in tests.
func (p *WeatherAPIProvider) WithBaseURL(u string) *WeatherAPIProvider {
	p.baseURL = u
	return p
}

func (p *WeatherAPIProvider) Fetch(ctx context.Context, loc weather.Location) (weather.Observation, error) {
	if p.apiKey == "" {
		return weather.Observation{}, &weather.ProviderError{
			Provider: p.name,
			Message:  "api key is not configured",
		}
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("key", p.apiKey)
		// WeatherAPI uses "q" for location; it accepts "city,country".
		q := loc.City
		if loc.Country != "" {
			q = fmt.Sprintf("%s,%s", loc.City, loc.Country)
		}
		values.Set("q", q)

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequest(ctx, p.client, p.circuit, p.name, buildRequest)
	if err != nil {
		return weather.Observation{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		Location struct {
			Name           string `json:"name"`
			Country        string `json:"country"`
			LocaltimeEpoch int64  `json:"localtime_epoch"`
		} `json:"location"`
		Current struct {
			LastUpdatedEpoch int64   `json:"last_updated_epoch"`
			TempC            float64 `json:"temp_c"`
			Humidity         float64 `json:"humidity"`
			PressureMb       float64 `json:"pressure_mb"`
			VisKm            float64 `json:"vis_km"`
		} `json:"current"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.Observation{}, &weather.ProviderError{
			Provider: p.name,
			Status:   resp.StatusCode,
			Message:  "malformed payload",
			Err:      err,
		}
	}

	epoch := payload.Current.LastUpdatedEpoch
	if epoch == 0 {
		epoch = payload.Location.LocaltimeEpoch
	}
	ts := time.Now().UTC()
	if epoch != 0 {
		ts = time.Unix(epoch, 0).UTC()
	}

	city := payload.Location.Name
	if city == "" {
		city = loc.City
	}

	return weather.Observation{
		City:        city,
		Country:     loc.Country,
		ObservedAt:  ts,
		Temperature: payload.Current.TempC,
		Humidity:    payload.Current.Humidity,
		// WeatherAPI reports pressure in millibars (1 mb == 1 hPa) and
		// visibility in kilometres.
		Pressure:   payload.Current.PressureMb,
		Visibility: payload.Current.VisKm * 1000,
	}, nil
}
