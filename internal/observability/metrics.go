package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry *prometheus.Registry

	// HTTP request rate. Watch for: sudden drops (service down) or spikes (traffic surge).
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTP request latency per request.
	HTTPRequestDuration *prometheus.HistogramVec

	// Concurrent requests in flight.
	HTTPRequestsInFlight prometheus.Gauge

	// Prediction service calls by status label (success, client_error, server_error, error).
	PredictionAPICallsTotal *prometheus.CounterVec

	// Prediction service latency. Free-tier backends cold start; expect a long p99.
	PredictionAPIDuration *prometheus.HistogramVec

	// Completed submissions by outcome (success, error, superseded).
	PredictionOutcomesTotal *prometheus.CounterVec

	// Submissions rejected before any network call, by form field.
	ValidationFailuresTotal *prometheus.CounterVec

	// Current controller phase (0 idle, 1 loading, 2 success, 3 error).
	LifecyclePhase prometheus.Gauge

	// Loading message rotations. Should stop moving as soon as loading ends.
	LoadingMessageRotationsTotal prometheus.Counter

	// Weather service calls by status label.
	WeatherAPICallsTotal *prometheus.CounterVec

	// Temperature lookups by outcome (stored, cleared).
	TemperatureLookupsTotal *prometheus.CounterVec

	// Theme toggles by resulting preference.
	ThemeTogglesTotal *prometheus.CounterVec

	// Weather breaker transitions and current state (0 closed, 1 half-open, 2 open).
	CircuitBreakerTransitionsTotal *prometheus.CounterVec
	CircuitBreakerState            *prometheus.GaugeVec

	// Rate limit denials on /predict.
	RateLimitDeniedTotal prometheus.Counter
)

func init() {
	registry = prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "httpRequestsTotal",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "statusCode"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "httpRequestDurationSeconds",
			Help:    "HTTP request latency in seconds (per request)",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "httpRequestsInFlight",
			Help: "Number of HTTP requests currently being served",
		},
	)
	PredictionAPICallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "predictionApiCallsTotal",
			Help: "Total number of prediction service calls",
		},
		[]string{"status"},
	)
	PredictionAPIDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "predictionApiDurationSeconds",
			Help:    "Prediction service latency in seconds (per request)",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"status"},
	)
	PredictionOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "predictionOutcomesTotal",
			Help: "Completed submissions by outcome; superseded responses are discarded",
		},
		[]string{"outcome"},
	)
	ValidationFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "validationFailuresTotal",
			Help: "Form submissions rejected before the network call, by field",
		},
		[]string{"field"},
	)
	LifecyclePhase = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "lifecyclePhase",
			Help: "Current request lifecycle phase (0 idle, 1 loading, 2 success, 3 error)",
		},
	)
	LoadingMessageRotationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "loadingMessageRotationsTotal",
			Help: "Total number of loading message rotations",
		},
	)
	WeatherAPICallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weatherApiCallsTotal",
			Help: "Total number of weather lookup calls",
		},
		[]string{"status"},
	)
	TemperatureLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "temperatureLookupsTotal",
			Help: "Temperature lookups by outcome (stored, cleared)",
		},
		[]string{"outcome"},
	)
	ThemeTogglesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "themeTogglesTotal",
			Help: "Theme toggles by resulting preference",
		},
		[]string{"theme"},
	)
	CircuitBreakerTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuitBreakerTransitionsTotal",
			Help: "Circuit breaker state transitions",
		},
		[]string{"component", "from", "to"},
	)
	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuitBreakerState",
			Help: "Circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
		[]string{"component"},
	)
	RateLimitDeniedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rateLimitDeniedTotal",
			Help: "Total number of requests denied by rate limiter (429)",
		},
	)

	registry.MustRegister(
		HTTPRequestsTotal, HTTPRequestDuration, HTTPRequestsInFlight,
		PredictionAPICallsTotal, PredictionAPIDuration, PredictionOutcomesTotal,
		ValidationFailuresTotal, LifecyclePhase, LoadingMessageRotationsTotal,
		WeatherAPICallsTotal, TemperatureLookupsTotal,
		ThemeTogglesTotal,
		CircuitBreakerTransitionsTotal, CircuitBreakerState,
		RateLimitDeniedTotal,
	)
}

// RecordCircuitBreakerTransition counts a breaker state change and updates the state gauge.
func RecordCircuitBreakerTransition(component, from, to string, toValue float64) {
	CircuitBreakerTransitionsTotal.WithLabelValues(component, from, to).Inc()
	CircuitBreakerState.WithLabelValues(component).Set(toValue)
}

// MetricsHandler returns an http.Handler that serves application and runtime metrics.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
