// Package temperature runs the best-effort temperature lookup for the selected region.
package temperature

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/kjstillabower/airlytics/internal/client"
	"github.com/kjstillabower/airlytics/internal/models"
	"github.com/kjstillabower/airlytics/internal/observability"
)

// Lookup holds the most recently applied temperature reading. Failures clear
// the reading and are never reported to the caller.
//
// Responses are applied in arrival order. A slow response for an earlier
// region can overwrite a newer one; Reading carries the region it belongs to.
type Lookup struct {
	fetcher client.TemperatureFetcher
	clock   clockwork.Clock
	logger  *zap.Logger

	mu      sync.Mutex
	reading models.TemperatureReading
	present bool
}

// New returns a Lookup with no reading.
func New(fetcher client.TemperatureFetcher, clock clockwork.Clock, logger *zap.Logger) *Lookup {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Lookup{fetcher: fetcher, clock: clock, logger: logger}
}

// Select fetches the temperature for region and stores or clears the reading.
// An empty region is ignored.
func (l *Lookup) Select(ctx context.Context, region string) {
	if region == "" {
		return
	}

	start := time.Now()
	celsius, err := l.fetcher.Temperature(ctx, region)
	if err != nil {
		l.clear()
		observability.TemperatureLookupsTotal.WithLabelValues("cleared").Inc()
		l.logger.Debug("temperature lookup failed",
			zap.String("region", region),
			zap.String("category", string(client.CategorizeError(err))),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
		return
	}

	l.mu.Lock()
	l.reading = models.TemperatureReading{Region: region, Celsius: celsius, FetchedAt: l.clock.Now()}
	l.present = true
	l.mu.Unlock()

	observability.TemperatureLookupsTotal.WithLabelValues("stored").Inc()
	l.logger.Debug("temperature stored",
		zap.String("region", region),
		zap.Float64("celsius", celsius),
		zap.Duration("duration", time.Since(start)))
}

// Reading returns the stored reading, if any.
func (l *Lookup) Reading() (models.TemperatureReading, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.reading, l.present
}

func (l *Lookup) clear() {
	l.mu.Lock()
	l.reading = models.TemperatureReading{}
	l.present = false
	l.mu.Unlock()
}
