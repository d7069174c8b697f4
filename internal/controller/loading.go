package controller

import (
	"context"
	"time"

	"github.com/kjstillabower/airlytics/internal/observability"
)

// InitialLoadingMessage is shown from the moment a submission starts until the first rotation.
const InitialLoadingMessage = "Connecting to server..."

// DefaultMessageInterval is how long each loading message stays up.
const DefaultMessageInterval = 3 * time.Second

// DefaultLoadingMessages rotate in order while a prediction is loading.
var DefaultLoadingMessages = []string{
	"Waking up the AI...(It was napping) 😴",
	"Your time is very important to us...Please wait while we ignore you.",
	"Don't panic...Just count to infinite",
	"Please wait, Your PC is not a superman",
	"Thala for a reason 7",
}

// startRotatorLocked starts the loading message rotator for the current
// Loading phase. The ticker is created before returning so the first tick is
// measured from the submission. Caller holds c.mu.
func (c *Controller) startRotatorLocked() {
	if c.interval <= 0 || len(c.messages) == 0 {
		return
	}
	ctx, cancel := context.WithCancel(c.baseCtx)
	c.stopLoading = cancel
	ticker := c.clock.NewTicker(c.interval)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer ticker.Stop()
		for i := 0; ; i++ {
			select {
			case <-ctx.Done():
				return
			case <-ticker.Chan():
				if !c.rotate(ctx, c.messages[i%len(c.messages)]) {
					return
				}
			}
		}
	}()
}

// stopRotatorLocked cancels the running rotator. Because rotate re-checks the
// context under c.mu, no message is written after this returns. Caller holds c.mu.
func (c *Controller) stopRotatorLocked() {
	if c.stopLoading != nil {
		c.stopLoading()
		c.stopLoading = nil
	}
}

func (c *Controller) rotate(ctx context.Context, msg string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ctx.Err() != nil {
		return false
	}
	c.state.LoadingMessage = msg
	c.rotations++
	observability.LoadingMessageRotationsTotal.Inc()
	return true
}
