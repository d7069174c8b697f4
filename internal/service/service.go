// Package service ties the payload builder, the request controller, the
// temperature lookup and the theme together behind one Dashboard.
package service

import (
	"context"
	"errors"
	"net/url"

	"go.uber.org/zap"

	"github.com/kjstillabower/airlytics/internal/controller"
	"github.com/kjstillabower/airlytics/internal/observability"
	"github.com/kjstillabower/airlytics/internal/payload"
	"github.com/kjstillabower/airlytics/internal/temperature"
	"github.com/kjstillabower/airlytics/internal/theme"
)

// Dashboard is the single entry point used by the HTTP layer.
type Dashboard struct {
	builder    *payload.Builder
	controller *controller.Controller
	lookup     *temperature.Lookup
	theme      *theme.Theme
	logger     *zap.Logger
}

// NewDashboard wires the components. The theme should already be loaded.
func NewDashboard(builder *payload.Builder, ctrl *controller.Controller, lookup *temperature.Lookup, th *theme.Theme, logger *zap.Logger) *Dashboard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dashboard{builder: builder, controller: ctrl, lookup: lookup, theme: th, logger: logger}
}

// loggerFromContext extracts a zap.Logger from request context if present.
func loggerFromContext(ctx context.Context, fallback *zap.Logger) *zap.Logger {
	if v := ctx.Value("logger"); v != nil {
		if l, ok := v.(*zap.Logger); ok && l != nil {
			return l
		}
	}
	return fallback
}

// Submit validates the raw form and starts a prediction in the background.
// A *payload.ValidationError is returned without touching the lifecycle.
func (d *Dashboard) Submit(ctx context.Context, form url.Values) (uint64, View, error) {
	logger := loggerFromContext(ctx, d.logger)

	req, err := d.builder.Build(form)
	if err != nil {
		var verr *payload.ValidationError
		if errors.As(err, &verr) {
			observability.ValidationFailuresTotal.WithLabelValues(verr.Field).Inc()
			logger.Debug("form rejected", zap.String("field", verr.Field), zap.String("reason", verr.Reason))
		}
		return 0, d.View(), err
	}

	gen, err := d.controller.SubmitAsync(ctx, req)
	if err != nil {
		return 0, d.View(), err
	}
	logger.Info("prediction started",
		zap.Uint64("generation", gen),
		zap.String("region", req.Region))
	return gen, d.View(), nil
}

// View returns the current render snapshot.
func (d *Dashboard) View() View {
	reading, ok := d.lookup.Reading()
	return Derive(d.controller.State(), reading, ok, d.theme.Current())
}

// SelectRegion runs the temperature lookup for region and returns the
// resulting reading, or nil when none is available.
func (d *Dashboard) SelectRegion(ctx context.Context, region string) *Temperature {
	d.lookup.Select(ctx, region)
	reading, ok := d.lookup.Reading()
	if !ok {
		return nil
	}
	return &Temperature{Region: reading.Region, Celsius: reading.Celsius}
}

// Theme returns the current preference.
func (d *Dashboard) Theme() theme.Preference {
	return d.theme.Current()
}

// ToggleTheme flips and persists the preference. A persistence failure is
// logged; the flipped preference is returned either way.
func (d *Dashboard) ToggleTheme(ctx context.Context) theme.Preference {
	pref, err := d.theme.Toggle(ctx)
	if err != nil {
		loggerFromContext(ctx, d.logger).Warn("theme not persisted", zap.String("theme", string(pref)), zap.Error(err))
	}
	return pref
}

// Reset returns a finished cycle to Idle. It reports false while loading.
func (d *Dashboard) Reset() bool {
	return d.controller.Reset()
}

// Regions lists the selectable regions.
func (d *Dashboard) Regions() []string {
	return payload.SupportedRegions()
}
