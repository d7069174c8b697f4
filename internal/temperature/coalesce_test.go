package temperature

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type blockingFetcher struct {
	calls   atomic.Int32
	release chan struct{}
	celsius float64
	err     error
}

func (b *blockingFetcher) Temperature(ctx context.Context, region string) (float64, error) {
	b.calls.Add(1)
	<-b.release
	return b.celsius, b.err
}

func TestCoalescingFetcher_ConcurrentRequests(t *testing.T) {
	next := &blockingFetcher{release: make(chan struct{}), celsius: 29}
	f := NewCoalescingFetcher(next, 5*time.Second)

	const callers = 10
	var wg sync.WaitGroup
	results := make([]float64, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			results[idx], errs[idx] = f.Temperature(context.Background(), "Delhi")
		}(i)
	}

	// Let every caller join the in-flight lookup before it completes.
	time.Sleep(50 * time.Millisecond)
	close(next.release)
	wg.Wait()

	for i := range results {
		if errs[i] != nil {
			t.Errorf("caller %d error = %v", i, errs[i])
		}
		if results[i] != 29 {
			t.Errorf("caller %d celsius = %v, want 29", i, results[i])
		}
	}
	if got := next.calls.Load(); got != 1 {
		t.Errorf("upstream calls = %d, want 1", got)
	}
}

func TestCoalescingFetcher_ErrorPropagation(t *testing.T) {
	wantErr := errors.New("weather down")
	next := &blockingFetcher{release: make(chan struct{}), err: wantErr}
	close(next.release)
	f := NewCoalescingFetcher(next, time.Second)

	if _, err := f.Temperature(context.Background(), "Delhi"); !errors.Is(err, wantErr) {
		t.Errorf("Temperature() error = %v, want %v", err, wantErr)
	}
}

func TestCoalescingFetcher_WaiterTimeout(t *testing.T) {
	next := &blockingFetcher{release: make(chan struct{})}
	defer close(next.release)
	f := NewCoalescingFetcher(next, 20*time.Millisecond)

	_, err := f.Temperature(context.Background(), "Delhi")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Temperature() error = %v, want deadline exceeded", err)
	}
}

func TestCoalescingFetcher_DistinctRegions(t *testing.T) {
	next := &blockingFetcher{release: make(chan struct{}), celsius: 20}
	close(next.release)
	f := NewCoalescingFetcher(next, time.Second)

	for _, region := range []string{"Delhi", "Mumbai"} {
		if _, err := f.Temperature(context.Background(), region); err != nil {
			t.Fatalf("Temperature(%s) error = %v", region, err)
		}
	}
	if got := next.calls.Load(); got != 2 {
		t.Errorf("upstream calls = %d, want 2", got)
	}
}
