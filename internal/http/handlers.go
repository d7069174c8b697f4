package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/kjstillabower/airlytics/internal/controller"
	"github.com/kjstillabower/airlytics/internal/lifecycle"
	"github.com/kjstillabower/airlytics/internal/payload"
	"github.com/kjstillabower/airlytics/internal/service"
	"github.com/kjstillabower/airlytics/internal/traffic"
)

// maxFormBytes caps the /predict body.
const maxFormBytes = 64 << 10

// HealthConfig holds optional dependency checks for the health handler.
type HealthConfig struct {
	// Traffic, when set, supplies the prediction error rate and rate-limit denials.
	Traffic *traffic.Tracker
	// DegradedWindow and DegradedErrorPct mark the prediction service degraded
	// once at least DegradedErrorPct percent of outcomes in the window failed.
	DegradedWindow   time.Duration
	DegradedErrorPct int
	// ThemePing, when set, checks theme store reachability. Used when backend is memcached.
	ThemePing func() error
	// WeatherBreakerState, when set, reports the weather lookup breaker state.
	WeatherBreakerState func() string
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	dashboard        *service.Dashboard
	healthConfig     *HealthConfig
	logger           *zap.Logger
	healthStatusMu   sync.Mutex
	healthStatusPrev string
}

// NewHandler returns a new Handler.
func NewHandler(dashboard *service.Dashboard, healthConfig *HealthConfig, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		dashboard:    dashboard,
		healthConfig: healthConfig,
		logger:       logger,
	}
}

// GetRegions handles GET /regions.
func (h *Handler) GetRegions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"regions": h.dashboard.Regions()})
}

// PostPredict handles POST /predict. Accepts a URL-encoded form or a JSON object
// with the same field names.
func (h *Handler) PostPredict(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	form, err := readForm(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}

	gen, view, err := h.dashboard.Submit(r.Context(), form)
	var verr *payload.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error": map[string]string{
				"code":      "INVALID_FIELD",
				"field":     verr.Field,
				"message":   verr.Error(),
				"requestId": correlationID(r),
			},
		})
		return
	case errors.Is(err, controller.ErrClosed):
		writeError(w, r, http.StatusServiceUnavailable, "SHUTTING_DOWN", "Service is shutting down")
		return
	case err != nil:
		writeError(w, r, http.StatusInternalServerError, "INTERNAL", "Unable to start prediction")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"generation": gen,
		"view":       view,
	})
}

// GetView handles GET /view.
func (h *Handler) GetView(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.dashboard.View())
}

// PostReset handles POST /reset. Returns 409 while a prediction is loading.
func (h *Handler) PostReset(w http.ResponseWriter, r *http.Request) {
	if !h.dashboard.Reset() {
		writeError(w, r, http.StatusConflict, "LOADING", "A prediction is in progress")
		return
	}
	writeJSON(w, http.StatusOK, h.dashboard.View())
}

// PutRegion handles PUT /region/{region}. The lookup never fails the request;
// an unavailable reading is returned as null.
func (h *Handler) PutRegion(w http.ResponseWriter, r *http.Request) {
	region := strings.TrimSpace(mux.Vars(r)["region"])
	if !payload.IsSupportedRegion(region) {
		writeError(w, r, http.StatusBadRequest, "INVALID_REGION", "unsupported region: "+region)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"region":      region,
		"temperature": h.dashboard.SelectRegion(r.Context(), region),
	})
}

// GetTheme handles GET /theme.
func (h *Handler) GetTheme(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"theme": h.dashboard.Theme()})
}

// PostThemeToggle handles POST /theme/toggle.
func (h *Handler) PostThemeToggle(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"theme": h.dashboard.ToggleTheme(r.Context())})
}

// healthResult holds the computed health status and metadata for logging.
type healthResult struct {
	status     string
	statusCode int
	reason     string
}

// computeHealthStatus evaluates, in order: shutting-down or starting (503),
// prediction error rate over threshold (degraded, still 200 since the
// dashboard keeps serving), healthy.
func (h *Handler) computeHealthStatus() healthResult {
	if status := lifecycle.Status(); status != lifecycle.StatusHealthy {
		return healthResult{status, http.StatusServiceUnavailable, "lifecycle"}
	}
	if h.healthConfig != nil && h.healthConfig.Traffic != nil &&
		h.healthConfig.DegradedWindow > 0 && h.healthConfig.DegradedErrorPct > 0 {
		failed, total := h.healthConfig.Traffic.ErrorRate(h.healthConfig.DegradedWindow)
		if total > 0 && failed*100 >= h.healthConfig.DegradedErrorPct*total {
			return healthResult{"degraded", http.StatusOK, "prediction_error_rate"}
		}
	}
	return healthResult{lifecycle.StatusHealthy, http.StatusOK, ""}
}

// GetHealth handles GET /health.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	result := h.computeHealthStatus()
	status, statusCode := result.status, result.statusCode

	h.healthStatusMu.Lock()
	if prev := h.healthStatusPrev; prev != "" && prev != status {
		h.logger.Info("health status transition",
			zap.String("previous_status", prev),
			zap.String("current_status", status),
			zap.String("reason", result.reason))
	}
	h.healthStatusPrev = status
	h.healthStatusMu.Unlock()

	checks := make(map[string]string)
	if h.healthConfig != nil && h.healthConfig.ThemePing != nil {
		if h.healthConfig.ThemePing() == nil {
			checks["themeStore"] = "healthy"
		} else {
			checks["themeStore"] = "unhealthy"
		}
	}
	if h.healthConfig != nil && h.healthConfig.WeatherBreakerState != nil {
		checks["weatherBreaker"] = h.healthConfig.WeatherBreakerState()
	}
	if status == "degraded" {
		checks["predictionApi"] = "unhealthy"
	} else if h.healthConfig != nil && h.healthConfig.Traffic != nil {
		checks["predictionApi"] = "healthy"
	}

	now := time.Now()
	body := map[string]interface{}{
		"status":    status,
		"service":   "airlytics",
		"version":   "dev",
		"checks":    checks,
		"uptime":    lifecycle.Uptime(now).Truncate(time.Second).String(),
		"timestamp": now.UTC().Format(time.RFC3339),
	}
	if h.healthConfig != nil && h.healthConfig.Traffic != nil && h.healthConfig.DegradedWindow > 0 {
		body["rateLimitDenials"] = h.healthConfig.Traffic.DenialCount(h.healthConfig.DegradedWindow)
	}
	writeJSON(w, statusCode, body)
}

// readForm returns the submitted fields. JSON numbers and strings are both
// accepted; other JSON types are kept as text so the builder rejects them.
func readForm(r *http.Request) (url.Values, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "application/json" {
		if err := r.ParseForm(); err != nil {
			return nil, fmt.Errorf("parse form: %w", err)
		}
		return r.PostForm, nil
	}

	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	var body map[string]interface{}
	if err := dec.Decode(&body); err != nil {
		return nil, fmt.Errorf("decode JSON body: %w", err)
	}
	form := make(url.Values, len(body))
	for k, v := range body {
		switch val := v.(type) {
		case nil:
		case string:
			form.Set(k, val)
		case json.Number:
			form.Set(k, val.String())
		default:
			form.Set(k, fmt.Sprint(val))
		}
	}
	return form, nil
}

// writeJSON writes a JSON response with the specified HTTP status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func correlationID(r *http.Request) string {
	if v, ok := r.Context().Value("correlation_id").(string); ok {
		return v
	}
	return ""
}

// writeError writes an error response in the standard error format with code, message,
// and requestId (correlation ID) if available in request context.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{
			"code":      code,
			"message":   message,
			"requestId": correlationID(r),
		},
	})
}
