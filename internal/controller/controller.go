// Package controller owns the prediction request lifecycle: Idle, Loading,
// Success and Error. Each submission gets a generation number; a response is
// applied only if no newer submission has started since, so the most recently
// submitted request always decides the final state.
package controller

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/kjstillabower/airlytics/internal/client"
	"github.com/kjstillabower/airlytics/internal/models"
	"github.com/kjstillabower/airlytics/internal/observability"
)

// ErrorMessage is the only error text users see. The cause is logged.
const ErrorMessage = "Backend connection failed! The server might be sleeping (Free Tier). Please try again in 30 seconds."

// ErrClosed is returned by submissions after Close.
var ErrClosed = errors.New("controller closed")

// Option configures a Controller.
type Option func(*Controller)

// WithClock sets the clock driving the loading message rotator.
func WithClock(clock clockwork.Clock) Option {
	return func(c *Controller) { c.clock = clock }
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

// WithLoadingMessages replaces the rotating messages and their interval.
// A non-positive interval or empty list disables rotation.
func WithLoadingMessages(interval time.Duration, messages []string) Option {
	return func(c *Controller) {
		c.interval = interval
		c.messages = append([]string(nil), messages...)
	}
}

// OutcomeRecorder receives the outcome of every applied response.
type OutcomeRecorder interface {
	RecordSuccess()
	RecordError()
}

// WithOutcomeRecorder reports applied outcomes to r. Superseded responses are not reported.
func WithOutcomeRecorder(r OutcomeRecorder) Option {
	return func(c *Controller) { c.outcomes = r }
}

// Controller drives one request lifecycle at a time against a Predictor.
type Controller struct {
	predictor client.Predictor
	clock     clockwork.Clock
	logger    *zap.Logger
	interval  time.Duration
	messages  []string
	outcomes  OutcomeRecorder

	baseCtx    context.Context
	baseCancel context.CancelFunc
	wg         sync.WaitGroup

	mu          sync.Mutex
	state       State
	generation  uint64
	stopLoading context.CancelFunc
	rotations   uint64
	closed      bool
}

// New returns an Idle controller.
func New(predictor client.Predictor, opts ...Option) *Controller {
	c := &Controller{
		predictor: predictor,
		clock:     clockwork.NewRealClock(),
		logger:    zap.NewNop(),
		interval:  DefaultMessageInterval,
		messages:  DefaultLoadingMessages,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.baseCtx, c.baseCancel = context.WithCancel(context.Background())
	observability.LifecyclePhase.Set(float64(PhaseIdle))
	return c
}

// State returns a snapshot of the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// Submit starts a new Loading phase for req, waits for the prediction and
// returns the state afterwards. If a newer submission started meanwhile, the
// response is discarded and the returned state belongs to that submission.
func (c *Controller) Submit(ctx context.Context, req models.PredictionRequest) (State, error) {
	gen, err := c.begin(req, false)
	if err != nil {
		return State{}, err
	}
	result, predictErr := c.predictor.Predict(ctx, req)
	return c.finish(gen, result, predictErr), nil
}

// SubmitAsync starts a new Loading phase for req and returns its generation.
// The request keeps ctx's values but not its cancellation; it is only cancelled by Close.
func (c *Controller) SubmitAsync(ctx context.Context, req models.PredictionRequest) (uint64, error) {
	gen, err := c.begin(req, true)
	if err != nil {
		return 0, err
	}

	reqCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	stop := context.AfterFunc(c.baseCtx, cancel)

	go func() {
		defer c.wg.Done()
		defer cancel()
		defer stop()
		result, predictErr := c.predictor.Predict(reqCtx, req)
		c.finish(gen, result, predictErr)
	}()
	return gen, nil
}

// Reset clears a finished cycle back to Idle. It returns false while loading.
func (c *Controller) Reset() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Phase == PhaseLoading {
		return false
	}
	c.state = State{Phase: PhaseIdle, Generation: c.generation}
	observability.LifecyclePhase.Set(float64(PhaseIdle))
	return true
}

// Close cancels in-flight predictions and the rotator, then waits for their goroutines.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.stopRotatorLocked()
	c.mu.Unlock()

	c.baseCancel()
	c.wg.Wait()
}

// begin moves to Loading under the lock. When track is set, the caller's
// background goroutine is added to c.wg before Close can start waiting.
func (c *Controller) begin(req models.PredictionRequest, track bool) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return 0, ErrClosed
	}
	if track {
		c.wg.Add(1)
	}

	c.stopRotatorLocked()
	c.generation++
	input := req
	c.state = State{
		Phase:          PhaseLoading,
		Generation:     c.generation,
		Input:          &input,
		LoadingMessage: InitialLoadingMessage,
	}
	c.startRotatorLocked()
	observability.LifecyclePhase.Set(float64(PhaseLoading))

	c.logger.Debug("prediction submitted",
		zap.Uint64("generation", c.generation),
		zap.String("region", req.Region),
		zap.Int("month", req.Month))
	return c.generation, nil
}

func (c *Controller) finish(gen uint64, result models.PredictionResult, err error) State {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		observability.PredictionOutcomesTotal.WithLabelValues("superseded").Inc()
		c.logger.Debug("discarding superseded prediction response",
			zap.Uint64("generation", gen),
			zap.Uint64("current_generation", c.generation),
			zap.Bool("failed", err != nil))
		return c.state.clone()
	}

	c.stopRotatorLocked()
	if err != nil {
		c.state = State{
			Phase:      PhaseError,
			Generation: gen,
			Input:      c.state.Input,
			Err:        ErrorMessage,
		}
		observability.PredictionOutcomesTotal.WithLabelValues("error").Inc()
		if c.outcomes != nil {
			c.outcomes.RecordError()
		}
		observability.LifecyclePhase.Set(float64(PhaseError))
		c.logger.Warn("prediction failed",
			zap.Uint64("generation", gen),
			zap.String("category", string(client.CategorizeError(err))),
			zap.Error(err))
		return c.state.clone()
	}

	res := result
	c.state = State{
		Phase:      PhaseSuccess,
		Generation: gen,
		Input:      c.state.Input,
		Result:     &res,
	}
	observability.PredictionOutcomesTotal.WithLabelValues("success").Inc()
	if c.outcomes != nil {
		c.outcomes.RecordSuccess()
	}
	observability.LifecyclePhase.Set(float64(PhaseSuccess))
	c.logger.Info("prediction received",
		zap.Uint64("generation", gen),
		zap.Float64("predicted_aqi", result.PredictedAQI),
		zap.String("status", result.AirQualityStatus))
	return c.state.clone()
}
