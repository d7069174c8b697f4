package http

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kjstillabower/airlytics/internal/observability"
	"github.com/kjstillabower/airlytics/internal/traffic"
)

// RouterConfig holds per-route middleware settings.
type RouterConfig struct {
	// PredictLimiter throttles POST /predict. Nil disables limiting.
	PredictLimiter *rate.Limiter
	// Traffic, when set, records rate-limit denials.
	Traffic *traffic.Tracker
	// RegionTimeout bounds the temperature lookup behind PUT /region/{region}.
	RegionTimeout time.Duration
}

// NewRouter registers every route on a gorilla/mux router.
func NewRouter(h *Handler, logger *zap.Logger, cfg RouterConfig) *mux.Router {
	router := mux.NewRouter()
	router.Use(CorrelationIDMiddleware(logger))
	router.Use(MetricsMiddleware)

	router.HandleFunc("/health", h.GetHealth).Methods(http.MethodGet)
	router.Handle("/metrics", observability.MetricsHandler()).Methods(http.MethodGet)
	router.HandleFunc("/regions", h.GetRegions).Methods(http.MethodGet)
	router.HandleFunc("/view", h.GetView).Methods(http.MethodGet)
	router.HandleFunc("/reset", h.PostReset).Methods(http.MethodPost)
	router.HandleFunc("/theme", h.GetTheme).Methods(http.MethodGet)
	router.HandleFunc("/theme/toggle", h.PostThemeToggle).Methods(http.MethodPost)

	router.Handle("/predict", RateLimitMiddleware(cfg.PredictLimiter, cfg.Traffic)(http.HandlerFunc(h.PostPredict))).
		Methods(http.MethodPost)

	regionRouter := router.PathPrefix("/region").Subrouter()
	regionRouter.Use(TimeoutMiddleware(cfg.RegionTimeout))
	regionRouter.HandleFunc("/{region}", h.PutRegion).Methods(http.MethodPut)

	return router
}
