package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kjstillabower/airlytics/internal/models"
	"github.com/kjstillabower/airlytics/internal/observability"
	"github.com/kjstillabower/airlytics/internal/traffic"
)

func TestMiddleware_CorrelationIDGenerated(t *testing.T) {
	var seen string
	router := mux.NewRouter()
	router.Use(CorrelationIDMiddleware(zap.NewNop()))
	router.HandleFunc("/view", func(w http.ResponseWriter, r *http.Request) {
		seen, _ = r.Context().Value("correlation_id").(string)
		if _, ok := r.Context().Value("logger").(*zap.Logger); !ok {
			t.Error("logger missing from request context")
		}
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/view", nil))

	if w.Header().Get("X-Correlation-ID") == "" {
		t.Error("X-Correlation-ID header missing")
	}
	if seen != w.Header().Get("X-Correlation-ID") {
		t.Errorf("context correlation_id = %q, header = %q", seen, w.Header().Get("X-Correlation-ID"))
	}
}

func TestMiddleware_CorrelationIDPropagated(t *testing.T) {
	f := newFixture(t, &mockPredictor{}, &mockFetcher{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/view", nil)
	req.Header.Set("X-Correlation-ID", "client-provided-id")
	w := httptest.NewRecorder()
	f.router().ServeHTTP(w, req)

	if got := w.Header().Get("X-Correlation-ID"); got != "client-provided-id" {
		t.Errorf("X-Correlation-ID = %q, want client-provided-id", got)
	}
}

// TestMiddleware_MetricsUsesRouteTemplate verifies that path parameters are
// collapsed into the route template label.
func TestMiddleware_MetricsUsesRouteTemplate(t *testing.T) {
	f := newFixture(t, &mockPredictor{}, &mockFetcher{celsius: 25}, nil)
	counter := observability.HTTPRequestsTotal.WithLabelValues(http.MethodPut, "/region/{region}", "2xx")
	before := testutil.ToFloat64(counter)

	for _, region := range []string{"Delhi", "Kochi"} {
		w := httptest.NewRecorder()
		f.router().ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/region/"+region, nil))
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
	}

	if got := testutil.ToFloat64(counter) - before; got != 2 {
		t.Errorf("httpRequestsTotal{route=/region/{region}} delta = %v, want 2", got)
	}
}

func TestMiddleware_MetricsRecordsNonOK(t *testing.T) {
	f := newFixture(t, &mockPredictor{}, &mockFetcher{}, nil)
	counter := observability.HTTPRequestsTotal.WithLabelValues(http.MethodPost, "/predict", "4xx")
	before := testutil.ToFloat64(counter)

	w := httptest.NewRecorder()
	f.router().ServeHTTP(w, postForm(nil))

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if got := testutil.ToFloat64(counter) - before; got != 1 {
		t.Errorf("httpRequestsTotal{4xx} delta = %v, want 1", got)
	}
}

func TestMiddleware_MetricsTracksInFlight(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	router := mux.NewRouter()
	router.Use(MetricsMiddleware)
	router.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		<-release
	})

	before := InFlightCount()
	done := make(chan struct{})
	go func() {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/slow", nil))
		close(done)
	}()

	<-entered
	if got := InFlightCount() - before; got != 1 {
		t.Errorf("in-flight delta = %d, want 1", got)
	}
	close(release)
	<-done

	if got := InFlightCount() - before; got != 0 {
		t.Errorf("in-flight delta after completion = %d, want 0", got)
	}
	if before == 0 {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := WaitForInFlight(ctx, time.Millisecond); err != nil {
			t.Errorf("WaitForInFlight() error = %v", err)
		}
	}
}

func TestTimeoutMiddleware_SetsDeadline(t *testing.T) {
	var hasDeadline bool
	h := TimeoutMiddleware(50 * time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hasDeadline = r.Context().Deadline()
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPut, "/region/Delhi", nil))
	if !hasDeadline {
		t.Error("request context has no deadline")
	}
}

func TestTimeoutMiddleware_ZeroDisables(t *testing.T) {
	var hasDeadline bool
	h := TimeoutMiddleware(0)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hasDeadline = r.Context().Deadline()
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPut, "/region/Delhi", nil))
	if hasDeadline {
		t.Error("zero timeout should not set a deadline")
	}
}

func TestRateLimitMiddleware_Returns429WhenExceeded(t *testing.T) {
	f := newFixture(t, &mockPredictor{result: models.PredictionResult{PredictedAQI: 10}}, &mockFetcher{}, nil)
	tracker := traffic.New(nil, 0)
	router := NewRouter(f.handler, zap.NewNop(), RouterConfig{PredictLimiter: rate.NewLimiter(1, 2), Traffic: tracker})
	denied := testutil.ToFloat64(observability.RateLimitDeniedTotal)

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, postForm(validForm()))

		if i < 2 {
			if w.Code != http.StatusAccepted {
				t.Errorf("request %d: status = %d, want 202", i, w.Code)
			}
			continue
		}
		if w.Code != http.StatusTooManyRequests {
			t.Errorf("request %d: status = %d, want 429", i, w.Code)
		}
		var errResp struct {
			Error struct {
				Code      string `json:"code"`
				RequestID string `json:"requestId"`
			} `json:"error"`
		}
		if err := json.NewDecoder(w.Body).Decode(&errResp); err != nil {
			t.Fatalf("decode 429 response: %v", err)
		}
		if errResp.Error.Code != "RATE_LIMITED" {
			t.Errorf("error.code = %q, want RATE_LIMITED", errResp.Error.Code)
		}
		if errResp.Error.RequestID == "" {
			t.Error("error.requestId missing")
		}
	}
	if got := testutil.ToFloat64(observability.RateLimitDeniedTotal) - denied; got != 1 {
		t.Errorf("rateLimitDeniedTotal delta = %v, want 1", got)
	}
	if got := tracker.DenialCount(time.Minute); got != 1 {
		t.Errorf("tracker.DenialCount() = %d, want 1", got)
	}
}

func TestRateLimitMiddleware_OnlyGuardsPredict(t *testing.T) {
	f := newFixture(t, &mockPredictor{}, &mockFetcher{}, nil)
	router := NewRouter(f.handler, zap.NewNop(), RouterConfig{PredictLimiter: rate.NewLimiter(0, 0)})

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/view", nil))
		if w.Code != http.StatusOK {
			t.Errorf("GET /view status = %d, want 200", w.Code)
		}
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, postForm(validForm()))
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("POST /predict status = %d, want 429", w.Code)
	}
}

func TestRateLimitMiddleware_NilLimiterPassesThrough(t *testing.T) {
	called := false
	h := RateLimitMiddleware(nil, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/predict", nil))
	if !called {
		t.Error("nil limiter should allow")
	}
}

func TestRouter_MetricsEndpoint(t *testing.T) {
	f := newFixture(t, &mockPredictor{}, &mockFetcher{}, nil)
	w := httptest.NewRecorder()
	f.router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	f := newFixture(t, &mockPredictor{}, &mockFetcher{}, nil)
	w := httptest.NewRecorder()
	f.router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/predict", nil))

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /predict status = %d, want 405", w.Code)
	}
}
