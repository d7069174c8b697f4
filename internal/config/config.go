package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	ThemeBackendFile      = "file"
	ThemeBackendMemcached = "memcached"
	ThemeBackendInMemory  = "in_memory"
)

// Config holds service configuration loaded from YAML and env.
type Config struct {
	ServerPort string

	PredictionAPIURL string
	// PredictionAPITimeout of zero leaves predictions without a client-side deadline.
	PredictionAPITimeout time.Duration

	WeatherAPIURL     string
	WeatherAPITimeout time.Duration

	LoadingMessageInterval time.Duration

	ThemeBackend     string // "file", "memcached" or "in_memory"
	ThemePath        string
	MemcachedAddrs   string
	MemcachedTimeout time.Duration

	// RateLimitRPS below zero disables the /predict limiter.
	RateLimitRPS   int
	RateLimitBurst int

	WeatherBreakerEnabled          bool
	WeatherBreakerFailureThreshold int
	WeatherBreakerTimeout          time.Duration
	LookupCoalesceTimeout          time.Duration

	RequestTimeout time.Duration

	// Health reports "degraded" when DegradedErrorPct percent of prediction
	// outcomes within DegradedWindow failed. Zero pct disables the check.
	DegradedWindow   time.Duration
	DegradedErrorPct int

	ShutdownTimeout               time.Duration
	ShutdownInFlightTimeout       time.Duration
	ShutdownInFlightCheckInterval time.Duration
}

type fileConfig struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`

	PredictionAPI struct {
		URL     string `yaml:"url"`
		Timeout string `yaml:"timeout"`
	} `yaml:"prediction_api"`

	WeatherAPI struct {
		URL     string `yaml:"url"`
		Timeout string `yaml:"timeout"`
	} `yaml:"weather_api"`

	Loading struct {
		MessageInterval string `yaml:"message_interval"`
	} `yaml:"loading"`

	Theme struct {
		Backend   string `yaml:"backend"`
		Path      string `yaml:"path"`
		Memcached struct {
			Addrs   string `yaml:"addrs"`
			Timeout string `yaml:"timeout"`
		} `yaml:"memcached"`
	} `yaml:"theme"`

	Reliability struct {
		RateLimitRPS   int `yaml:"rate_limit_rps"`
		RateLimitBurst int `yaml:"rate_limit_burst"`
		WeatherBreaker struct {
			Enabled          *bool  `yaml:"enabled"`
			FailureThreshold int    `yaml:"failure_threshold"`
			Timeout          string `yaml:"timeout"`
		} `yaml:"weather_breaker"`
		LookupCoalesceTimeout string `yaml:"lookup_coalesce_timeout"`
	} `yaml:"reliability"`

	Request struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"request"`

	Health struct {
		DegradedWindow   string `yaml:"degraded_window"`
		DegradedErrorPct *int   `yaml:"degraded_error_pct"`
	} `yaml:"health"`

	Shutdown struct {
		Timeout               string `yaml:"timeout"`
		InFlightTimeout       string `yaml:"in_flight_timeout"`
		InFlightCheckInterval string `yaml:"in_flight_check_interval"`
	} `yaml:"shutdown"`
}

// Load reads an optional .env file, then config/{ENV_NAME}.yaml (default dev).
// Variables already set in the environment win over .env. Call from project root.
func Load() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("config: get working directory: %w", err)
	}
	if err := godotenv.Load(filepath.Join(cwd, ".env")); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read .env: %w", err)
	}

	env := os.Getenv("ENV_NAME")
	if env == "" {
		env = "dev"
	}
	configPath := filepath.Join(cwd, "config", env+".yaml")
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", configPath)
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg := &Config{}
	cfg.ServerPort = firstNonEmpty(os.Getenv("SERVER_PORT"), fc.Server.Port, "8080")

	cfg.PredictionAPIURL = firstNonEmpty(os.Getenv("PREDICTION_API_URL"), fc.PredictionAPI.URL, "https://airlytics-backend.onrender.com")
	cfg.PredictionAPITimeout = parseDurationOrZero(fc.PredictionAPI.Timeout, 0)

	cfg.WeatherAPIURL = firstNonEmpty(os.Getenv("WEATHER_API_URL"), fc.WeatherAPI.URL, "http://127.0.0.1:8000")
	cfg.WeatherAPITimeout = parseDurationOrZero(fc.WeatherAPI.Timeout, 5*time.Second)

	cfg.LoadingMessageInterval = parseDuration(fc.Loading.MessageInterval, 3*time.Second)

	cfg.ThemeBackend = strings.ToLower(firstNonEmpty(os.Getenv("THEME_BACKEND"), fc.Theme.Backend, ThemeBackendFile))
	cfg.ThemePath = firstNonEmpty(fc.Theme.Path, filepath.Join("data", "preferences.yaml"))
	cfg.MemcachedAddrs = firstNonEmpty(os.Getenv("MEMCACHED_ADDRS"), fc.Theme.Memcached.Addrs, "localhost:11211")
	cfg.MemcachedTimeout = parseDuration(fc.Theme.Memcached.Timeout, 500*time.Millisecond)

	cfg.RateLimitRPS = fc.Reliability.RateLimitRPS
	if cfg.RateLimitRPS == 0 {
		cfg.RateLimitRPS = 5
	}
	cfg.RateLimitBurst = fc.Reliability.RateLimitBurst
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = 10
	}

	cfg.WeatherBreakerEnabled = true
	if fc.Reliability.WeatherBreaker.Enabled != nil {
		cfg.WeatherBreakerEnabled = *fc.Reliability.WeatherBreaker.Enabled
	}
	cfg.WeatherBreakerFailureThreshold = fc.Reliability.WeatherBreaker.FailureThreshold
	if cfg.WeatherBreakerFailureThreshold <= 0 {
		cfg.WeatherBreakerFailureThreshold = 5
	}
	cfg.WeatherBreakerTimeout = parseDuration(fc.Reliability.WeatherBreaker.Timeout, 30*time.Second)
	cfg.LookupCoalesceTimeout = parseDurationOrZero(fc.Reliability.LookupCoalesceTimeout, 5*time.Second)

	cfg.RequestTimeout = parseDuration(fc.Request.Timeout, 5*time.Second)

	cfg.DegradedWindow = parseDuration(fc.Health.DegradedWindow, time.Minute)
	cfg.DegradedErrorPct = 50
	if fc.Health.DegradedErrorPct != nil {
		cfg.DegradedErrorPct = *fc.Health.DegradedErrorPct
	}

	cfg.ShutdownTimeout = parseDuration(fc.Shutdown.Timeout, 30*time.Second)
	cfg.ShutdownInFlightTimeout = parseDuration(fc.Shutdown.InFlightTimeout, 10*time.Second)
	cfg.ShutdownInFlightCheckInterval = parseDuration(fc.Shutdown.InFlightCheckInterval, 100*time.Millisecond)

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// parseDuration parses a duration string and returns defaultVal if parsing fails or result is <= 0.
func parseDuration(s string, defaultVal time.Duration) time.Duration {
	d := parseDurationOrZero(s, defaultVal)
	if d <= 0 {
		return defaultVal
	}
	return d
}

// parseDurationOrZero parses a duration string, returning defaultVal on empty string or parse error.
// Returns zero or negative durations as-is (validate rejects negatives).
func parseDurationOrZero(s string, defaultVal time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return defaultVal
	}
	return d
}

// validate performs post-load validation of configuration values.
func validate(cfg *Config) error {
	for name, raw := range map[string]string{
		"prediction_api.url": cfg.PredictionAPIURL,
		"weather_api.url":    cfg.WeatherAPIURL,
	} {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%s must be an absolute http(s) URL, got %q", name, raw)
		}
	}
	if cfg.PredictionAPITimeout < 0 {
		return fmt.Errorf("prediction_api.timeout must not be negative")
	}
	if cfg.WeatherAPITimeout < 0 {
		return fmt.Errorf("weather_api.timeout must not be negative")
	}
	if cfg.LookupCoalesceTimeout < 0 {
		return fmt.Errorf("reliability.lookup_coalesce_timeout must not be negative")
	}
	if cfg.DegradedErrorPct < 0 || cfg.DegradedErrorPct > 100 {
		return fmt.Errorf("health.degraded_error_pct must be between 0 and 100, got %d", cfg.DegradedErrorPct)
	}
	switch cfg.ThemeBackend {
	case ThemeBackendFile, ThemeBackendMemcached, ThemeBackendInMemory:
	default:
		return fmt.Errorf("theme.backend must be file, memcached or in_memory, got %q", cfg.ThemeBackend)
	}
	return nil
}
