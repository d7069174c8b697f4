package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/kjstillabower/airlytics/internal/models"
	"github.com/kjstillabower/airlytics/internal/observability"
)

// PredictionClient calls POST {base}/predict. It never retries.
type PredictionClient struct {
	endpoint string
	client   *http.Client
}

// NewPredictionClient returns a client for the prediction service at baseURL.
// timeout of zero means no client-side deadline.
func NewPredictionClient(baseURL string, timeout time.Duration) (*PredictionClient, error) {
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	return &PredictionClient{
		endpoint: base.JoinPath("predict").String(),
		client:   newHTTPClient(timeout),
	}, nil
}

// Predict posts req and decodes the response body as-is. Any non-2xx status is an error.
func (c *PredictionClient) Predict(ctx context.Context, req models.PredictionRequest) (models.PredictionResult, error) {
	start := time.Now()

	body, err := json.Marshal(req)
	if err != nil {
		return models.PredictionResult{}, fmt.Errorf("encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return models.PredictionResult{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	setCorrelationID(ctx, httpReq)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		observability.PredictionAPICallsTotal.WithLabelValues("error").Inc()
		observability.PredictionAPIDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		return models.PredictionResult{}, fmt.Errorf("%w: %w", ErrTransport, unwrapURLError(err))
	}
	defer resp.Body.Close()

	status := statusLabel(resp.StatusCode)
	observability.PredictionAPICallsTotal.WithLabelValues(status).Inc()
	observability.PredictionAPIDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())

	if err := checkStatus(resp); err != nil {
		return models.PredictionResult{}, err
	}

	var result models.PredictionResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return models.PredictionResult{}, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return result, nil
}

// unwrapURLError drops the *url.Error wrapper so the message does not repeat the endpoint.
func unwrapURLError(err error) error {
	if uerr, ok := err.(*url.Error); ok && uerr.Err != nil {
		return uerr.Err
	}
	return err
}
