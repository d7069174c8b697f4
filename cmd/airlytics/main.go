package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/kjstillabower/airlytics/internal/circuitbreaker"
	"github.com/kjstillabower/airlytics/internal/client"
	"github.com/kjstillabower/airlytics/internal/config"
	"github.com/kjstillabower/airlytics/internal/controller"
	httphandler "github.com/kjstillabower/airlytics/internal/http"
	"github.com/kjstillabower/airlytics/internal/lifecycle"
	"github.com/kjstillabower/airlytics/internal/observability"
	"github.com/kjstillabower/airlytics/internal/payload"
	"github.com/kjstillabower/airlytics/internal/service"
	"github.com/kjstillabower/airlytics/internal/temperature"
	"github.com/kjstillabower/airlytics/internal/theme"
	"github.com/kjstillabower/airlytics/internal/traffic"
)

const weatherComponent = "weather_api"

func main() {
	logger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	clock := clockwork.NewRealClock()

	predictionClient, err := client.NewPredictionClient(cfg.PredictionAPIURL, cfg.PredictionAPITimeout)
	if err != nil {
		logger.Fatal("prediction client", zap.Error(err))
	}
	weatherClient, err := client.NewWeatherClient(cfg.WeatherAPIURL, cfg.WeatherAPITimeout)
	if err != nil {
		logger.Fatal("weather client", zap.Error(err))
	}

	tracker := traffic.New(clock, traffic.DefaultMaxAge)
	healthConfig := &httphandler.HealthConfig{
		Traffic:          tracker,
		DegradedWindow:   cfg.DegradedWindow,
		DegradedErrorPct: cfg.DegradedErrorPct,
	}
	if cfg.WeatherBreakerEnabled {
		cb := circuitbreaker.New(circuitbreaker.Config{
			FailureThreshold: cfg.WeatherBreakerFailureThreshold,
			Timeout:          cfg.WeatherBreakerTimeout,
			Component:        weatherComponent,
			Ignore:           client.IsMissingTemperature,
			OnStateChange: func(from, to circuitbreaker.State) {
				observability.RecordCircuitBreakerTransition(weatherComponent, from.String(), to.String(), float64(to))
				logger.Info("circuit breaker transition",
					zap.String("component", weatherComponent),
					zap.String("from", from.String()),
					zap.String("to", to.String()))
			},
		})
		weatherClient.SetCircuitBreaker(cb)
		observability.CircuitBreakerState.WithLabelValues(weatherComponent).Set(0)
		healthConfig.WeatherBreakerState = func() string { return cb.State().String() }
		logger.Info("circuit breaker enabled",
			zap.Int("failure_threshold", cfg.WeatherBreakerFailureThreshold),
			zap.Duration("timeout", cfg.WeatherBreakerTimeout))
	}

	var store theme.Store
	var memcachedStore *theme.MemcachedStore
	switch cfg.ThemeBackend {
	case config.ThemeBackendMemcached:
		memcachedStore = theme.NewMemcachedStore(cfg.MemcachedAddrs, cfg.MemcachedTimeout)
		store = memcachedStore
		healthConfig.ThemePing = memcachedStore.Ping
		logger.Info("theme backend: memcached", zap.String("addrs", cfg.MemcachedAddrs))
	case config.ThemeBackendInMemory:
		store = theme.NewInMemoryStore()
		logger.Info("theme backend: in_memory")
	default:
		fs, err := theme.NewFileStore(cfg.ThemePath)
		if err != nil {
			logger.Fatal("theme file store", zap.Error(err))
		}
		store = fs
		logger.Info("theme backend: file", zap.String("path", cfg.ThemePath))
	}

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 5*time.Second)
	th := theme.New(store, logger)
	logger.Info("theme loaded", zap.String("theme", string(th.Load(startupCtx))))
	startupCancel()

	ctrl := controller.New(predictionClient,
		controller.WithClock(clock),
		controller.WithLogger(logger),
		controller.WithOutcomeRecorder(tracker),
		controller.WithLoadingMessages(cfg.LoadingMessageInterval, controller.DefaultLoadingMessages))

	var fetcher client.TemperatureFetcher = weatherClient
	if cfg.LookupCoalesceTimeout > 0 {
		fetcher = temperature.NewCoalescingFetcher(weatherClient, cfg.LookupCoalesceTimeout)
	}
	lookup := temperature.New(fetcher, clock, logger)

	dashboard := service.NewDashboard(payload.NewBuilder(clock), ctrl, lookup, th, logger)
	handler := httphandler.NewHandler(dashboard, healthConfig, logger)

	var limiter *rate.Limiter
	if cfg.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	}
	router := httphandler.NewRouter(handler, logger, httphandler.RouterConfig{
		PredictLimiter: limiter,
		Traffic:        tracker,
		RegionTimeout:  cfg.RequestTimeout,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		lifecycle.MarkStarted(time.Now())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("graceful shutdown triggered")
		lifecycle.SetShuttingDown(true)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown", zap.Error(err))
		}

		logger.Info("waiting for in-flight requests", zap.Int64("count", httphandler.InFlightCount()))
		waitCtx, waitCancel := context.WithTimeout(context.Background(), cfg.ShutdownInFlightTimeout)
		defer waitCancel()
		if err := httphandler.WaitForInFlight(waitCtx, cfg.ShutdownInFlightCheckInterval); err != nil {
			logger.Warn("in-flight requests not completed", zap.Error(err), zap.Int64("remaining", httphandler.InFlightCount()))
		}

		ctrl.Close()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("service stopped with error", zap.Error(err))
	}

	if err := observability.FlushTelemetry(context.Background(), logger); err != nil {
		logger.Error("telemetry flush", zap.Error(err))
	}
	if memcachedStore != nil {
		if err := memcachedStore.Close(); err != nil {
			logger.Error("memcached close", zap.Error(err))
		}
	}
	logger.Info("shutdown complete")
}
