// Package theme holds the process-wide light/dark preference and persists it
// under a single key.
package theme

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/kjstillabower/airlytics/internal/observability"
)

// Preference is the display theme.
type Preference string

const (
	Light Preference = "light"
	Dark  Preference = "dark"
)

// Default applies when nothing valid is stored.
const Default = Dark

// Key is the storage key for the preference.
const Key = "theme"

// Valid reports whether p is light or dark.
func (p Preference) Valid() bool {
	return p == Light || p == Dark
}

// Opposite returns the other preference.
func (p Preference) Opposite() Preference {
	if p == Light {
		return Dark
	}
	return Light
}

// Theme is the single owner of the preference.
type Theme struct {
	store  Store
	logger *zap.Logger

	mu      sync.Mutex
	current Preference
}

// New returns a Theme at Default. Call Load to read the stored value.
func New(store Store, logger *zap.Logger) *Theme {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Theme{store: store, logger: logger, current: Default}
}

// Load reads the stored preference. A missing, unknown or unreadable value
// falls back to Default.
func (t *Theme) Load(ctx context.Context) Preference {
	raw, ok, err := t.store.Get(ctx, Key)
	pref := Default
	switch {
	case err != nil:
		t.logger.Warn("theme load failed, using default",
			zap.String("default", string(Default)),
			zap.Error(err))
	case ok && Preference(raw).Valid():
		pref = Preference(raw)
	case ok:
		t.logger.Warn("ignoring unknown stored theme", zap.String("value", raw))
	}

	t.mu.Lock()
	t.current = pref
	t.mu.Unlock()
	return pref
}

// Current returns the in-process preference.
func (t *Theme) Current() Preference {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

// Toggle flips the preference and persists it. On a store error the
// in-process preference is still flipped and the error is returned.
func (t *Theme) Toggle(ctx context.Context) (Preference, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.current = t.current.Opposite()
	observability.ThemeTogglesTotal.WithLabelValues(string(t.current)).Inc()
	if err := t.store.Set(ctx, Key, string(t.current)); err != nil {
		return t.current, fmt.Errorf("persist theme: %w", err)
	}
	return t.current, nil
}

// Set stores p.
func (t *Theme) Set(ctx context.Context, p Preference) error {
	if !p.Valid() {
		return fmt.Errorf("unknown theme %q", p)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.current = p
	if err := t.store.Set(ctx, Key, string(p)); err != nil {
		return fmt.Errorf("persist theme: %w", err)
	}
	return nil
}
