package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kjstillabower/airlytics/internal/circuitbreaker"
	"github.com/kjstillabower/airlytics/internal/observability"
)

// WeatherClient calls GET {base}/weather/{region}.
type WeatherClient struct {
	base    *url.URL
	client  *http.Client
	breaker *circuitbreaker.Breaker
}

// NewWeatherClient returns a client for the weather lookup service at baseURL.
func NewWeatherClient(baseURL string, timeout time.Duration) (*WeatherClient, error) {
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	return &WeatherClient{base: base, client: newHTTPClient(timeout)}, nil
}

// SetCircuitBreaker guards lookups with cb. Pass nil to disable.
func (c *WeatherClient) SetCircuitBreaker(cb *circuitbreaker.Breaker) {
	c.breaker = cb
}

type weatherResponse struct {
	Temperature json.RawMessage `json:"temperature"`
	Error       string          `json:"error"`
}

// Temperature returns the numeric temperature field. A missing, null or
// non-numeric field is reported as ErrTemperatureMissing.
func (c *WeatherClient) Temperature(ctx context.Context, region string) (float64, error) {
	if c.breaker == nil {
		return c.callAPI(ctx, region)
	}
	var celsius float64
	err := c.breaker.Call(ctx, func() error {
		var callErr error
		celsius, callErr = c.callAPI(ctx, region)
		return callErr
	})
	return celsius, err
}

func (c *WeatherClient) callAPI(ctx context.Context, region string) (float64, error) {
	endpoint := c.base.JoinPath("weather", region).String()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	setCorrelationID(ctx, req)

	resp, err := c.client.Do(req)
	if err != nil {
		observability.WeatherAPICallsTotal.WithLabelValues("error").Inc()
		return 0, fmt.Errorf("%w: %w", ErrTransport, unwrapURLError(err))
	}
	defer resp.Body.Close()

	observability.WeatherAPICallsTotal.WithLabelValues(statusLabel(resp.StatusCode)).Inc()
	if err := checkStatus(resp); err != nil {
		return 0, err
	}

	var body weatherResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return parseTemperature(body)
}

func parseTemperature(body weatherResponse) (float64, error) {
	raw := strings.TrimSpace(string(body.Temperature))
	if raw == "" || raw == "null" {
		if body.Error != "" {
			return 0, fmt.Errorf("%w: %s", ErrTemperatureMissing, body.Error)
		}
		return 0, ErrTemperatureMissing
	}
	var celsius float64
	if err := json.Unmarshal(body.Temperature, &celsius); err != nil {
		return 0, fmt.Errorf("%w: non-numeric value %s", ErrTemperatureMissing, raw)
	}
	return celsius, nil
}

// IsMissingTemperature reports whether err only means the service had no reading.
// Such errors do not count against the circuit breaker.
func IsMissingTemperature(err error) bool {
	return errors.Is(err, ErrTemperatureMissing)
}
