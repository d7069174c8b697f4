package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// TestMetrics_Usable verifies that all Prometheus metrics can be used without
// panic, ensuring label dimensions match usage across client, controller, temperature and http packages.
func TestMetrics_Usable(t *testing.T) {
	HTTPRequestsTotal.WithLabelValues("POST", "/predict", "2xx").Inc()
	HTTPRequestDuration.WithLabelValues("GET", "/region/{region}").Observe(0.01)
	PredictionAPICallsTotal.WithLabelValues("success").Inc()
	PredictionAPIDuration.WithLabelValues("server_error").Observe(0.2)
	PredictionOutcomesTotal.WithLabelValues("superseded").Inc()
	ValidationFailuresTotal.WithLabelValues("pm25").Inc()
	LifecyclePhase.Set(1)
	LoadingMessageRotationsTotal.Inc()
	WeatherAPICallsTotal.WithLabelValues("error").Inc()
	TemperatureLookupsTotal.WithLabelValues("cleared").Inc()
	ThemeTogglesTotal.WithLabelValues("light").Inc()
	RecordCircuitBreakerTransition("weather_api", "closed", "open", 2)
	RateLimitDeniedTotal.Inc()
}

// TestMetricsHandler_ServesPrometheusFormat verifies that MetricsHandler serves
// Prometheus text exposition format with correct HTTP status and metric output.
func TestMetricsHandler_ServesPrometheusFormat(t *testing.T) {
	HTTPRequestsTotal.WithLabelValues("GET", "/view", "2xx").Inc()
	PredictionOutcomesTotal.WithLabelValues("success").Inc()
	handler := MetricsHandler()
	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("MetricsHandler status = %d, want 200", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "httpRequestsTotal") {
		t.Error("MetricsHandler response should contain metric output")
	}
	if !strings.Contains(body, "predictionOutcomesTotal") {
		t.Error("MetricsHandler response should contain prediction metrics")
	}
}
