package temperature

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/kjstillabower/airlytics/internal/client"
)

// CoalescingFetcher shares one upstream lookup between concurrent callers
// asking for the same region.
type CoalescingFetcher struct {
	next    client.TemperatureFetcher
	group   singleflight.Group
	timeout time.Duration
}

// NewCoalescingFetcher wraps next. Waiters give up after timeout; zero means
// they wait as long as their own context allows.
func NewCoalescingFetcher(next client.TemperatureFetcher, timeout time.Duration) *CoalescingFetcher {
	return &CoalescingFetcher{next: next, timeout: timeout}
}

// Temperature implements client.TemperatureFetcher. The shared call runs on a
// context detached from any single caller so one caller leaving does not fail the others.
func (f *CoalescingFetcher) Temperature(ctx context.Context, region string) (float64, error) {
	ch := f.group.DoChan(region, func() (interface{}, error) {
		return f.next.Temperature(context.WithoutCancel(ctx), region)
	})

	waitCtx := ctx
	if f.timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	select {
	case res := <-ch:
		if res.Err != nil {
			return 0, res.Err
		}
		return res.Val.(float64), nil
	case <-waitCtx.Done():
		return 0, waitCtx.Err()
	}
}
