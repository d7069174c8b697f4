//go:build integration
// +build integration

package theme

import (
	"context"
	"testing"
	"time"
)

// TestMemcachedStore_Toggle_Integration verifies the preference survives a
// reload through memcached when a server is available.
func TestMemcachedStore_Toggle_Integration(t *testing.T) {
	s := NewMemcachedStore("localhost:11211", 500*time.Millisecond)
	defer s.Close()
	if err := s.Ping(); err != nil {
		t.Skipf("memcached not running: %v", err)
	}

	ctx := context.Background()
	if err := s.Set(ctx, Key, "dark"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	th := New(s, nil)
	th.Load(ctx)
	if _, err := th.Toggle(ctx); err != nil {
		t.Fatalf("Toggle() error = %v", err)
	}
	if got := New(s, nil).Load(ctx); got != Light {
		t.Errorf("reloaded theme = %q, want light", got)
	}
}
