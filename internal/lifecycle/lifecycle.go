// Package lifecycle holds process-wide run state read by the health endpoint.
package lifecycle

import (
	"sync/atomic"
	"time"
)

const (
	StatusStarting     = "starting"
	StatusHealthy      = "healthy"
	StatusShuttingDown = "shutting-down"
)

var (
	shuttingDown atomic.Bool
	startedAt    atomic.Int64
)

// MarkStarted records when the server began accepting traffic.
func MarkStarted(t time.Time) {
	startedAt.Store(t.UnixNano())
}

// Uptime returns how long the server has been up at now, or zero before MarkStarted.
func Uptime(now time.Time) time.Duration {
	ns := startedAt.Load()
	if ns == 0 {
		return 0
	}
	return now.Sub(time.Unix(0, ns))
}

// SetShuttingDown sets the drain flag. Call when SIGTERM/SIGINT is received.
func SetShuttingDown(v bool) {
	shuttingDown.Store(v)
}

// IsShuttingDown reports whether the process is draining and should not receive new traffic.
func IsShuttingDown() bool {
	return shuttingDown.Load()
}

// Status summarises the flags above for health reporting.
func Status() string {
	switch {
	case shuttingDown.Load():
		return StatusShuttingDown
	case startedAt.Load() == 0:
		return StatusStarting
	default:
		return StatusHealthy
	}
}

func reset() {
	shuttingDown.Store(false)
	startedAt.Store(0)
}
