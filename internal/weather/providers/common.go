package providers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"weather-lakehouse/internal/weather"
)

var errNoHTTPClient = errors.New("http client not configured")

func newCircuit(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})
}

// doRequest executes a single HTTP request through the circuit breaker.
// There is deliberately no retry loop: a failed fetch is reported to the
// caller and retried naturally on the next scheduled interval.
func doRequest(
	ctx context.Context,
	client *http.Client,
	cb *gobreaker.CircuitBreaker,
	providerName string,
	buildRequest func() (*http.Request, error),
) (*http.Response, error) {
	if client == nil {
		return nil, errNoHTTPClient
	}

	req, err := buildRequest()
	if err != nil {
		return nil, err
	}
	req = req.WithContext(ctx)

	result, err := cb.Execute(func() (interface{}, error) {
		resp, execErr := client.Do(req)
		if execErr != nil {
			return nil, execErr
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			_ = resp.Body.Close()
			return nil, &weather.ProviderError{
				Provider: providerName,
				Status:   resp.StatusCode,
				Message:  string(body),
			}
		}

		return resp, nil
	})
	if err != nil {
		var pe *weather.ProviderError
		if errors.As(err, &pe) {
			return nil, pe
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, &weather.ProviderError{
				Provider: providerName,
				Message:  "circuit breaker open",
				Err:      err,
			}
		}
		return nil, &weather.ProviderError{
			Provider: providerName,
			Message:  err.Error(),
			Err:      err,
		}
	}

	resp, ok := result.(*http.Response)
	if !ok {
		return nil, fmt.Errorf("unexpected result type from circuit breaker")
	}
	return resp, nil
}
