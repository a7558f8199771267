// Package worker implements the compute side of the pipeline: it subscribes
// to new-index notifications, computes the requested Fibonacci values and
// writes them back to the result cache.
package worker

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/agbru/fibserve/internal/cache"
	apperrors "github.com/agbru/fibserve/internal/errors"
	"github.com/agbru/fibserve/internal/fibonacci"
	"github.com/agbru/fibserve/internal/logging"
)

const (
	// DefaultBuffer is the subscription channel capacity. Notifications
	// arriving while the buffer is full are dropped by the publisher; the
	// reconciliation sweep recovers the corresponding pending entries.
	DefaultBuffer = 256

	// DefaultWriteRetries bounds the write-back attempts per computed value.
	DefaultWriteRetries = 3

	// DefaultRetryDelay is the fixed pause between write-back attempts.
	DefaultRetryDelay = 200 * time.Millisecond

	// DefaultSweepInterval is how often the reconciliation sweep scans the
	// cache for stale pending entries.
	DefaultSweepInterval = 30 * time.Second

	// DefaultPendingAge is how long an entry may stay pending before the
	// sweep considers its notification lost and recomputes it.
	DefaultPendingAge = 10 * time.Second
)

// Worker consumes notifications and fills in computed values. One Worker
// holds one logical subscription; its Run loop processes notifications
// sequentially, so a single worker provides per-index ordering for free.
type Worker struct {
	cache         cache.Store
	calc          fibonacci.Calculator
	logger        logging.Logger
	tracer        trace.Tracer
	topic         string
	buffer        int
	writeRetries  int
	retryDelay    time.Duration
	sweepInterval time.Duration
	pendingAge    time.Duration
	now           func() time.Time
}

// Option configures a Worker during construction.
type Option func(*Worker)

// WithLogger sets the worker logger.
func WithLogger(l logging.Logger) Option {
	return func(w *Worker) { w.logger = l }
}

// WithTopic overrides the subscription topic.
func WithTopic(topic string) Option {
	return func(w *Worker) { w.topic = topic }
}

// WithBuffer overrides the subscription channel capacity.
func WithBuffer(n int) Option {
	return func(w *Worker) { w.buffer = n }
}

// WithWriteRetries overrides the bounded write-back attempt count.
func WithWriteRetries(n int) Option {
	return func(w *Worker) { w.writeRetries = n }
}

// WithRetryDelay overrides the pause between write-back attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(w *Worker) { w.retryDelay = d }
}

// WithSweep overrides the reconciliation sweep cadence and the age at which
// a pending entry is considered stale. A non-positive interval disables the
// sweep.
func WithSweep(interval, pendingAge time.Duration) Option {
	return func(w *Worker) {
		w.sweepInterval = interval
		w.pendingAge = pendingAge
	}
}

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(w *Worker) { w.now = now }
}

// New creates a Worker computing values with calc and writing them to store.
//
// Parameters:
//   - store: The result cache the worker reads notifications from and writes
//     values to.
//   - calc: The Fibonacci calculation strategy.
//   - opts: Optional configuration.
//
// Returns:
//   - *Worker: The configured worker.
func New(store cache.Store, calc fibonacci.Calculator, opts ...Option) *Worker {
	w := &Worker{
		cache:         store,
		calc:          calc,
		logger:        logging.Nop{},
		tracer:        otel.Tracer("github.com/agbru/fibserve/internal/worker"),
		topic:         cache.DefaultTopic,
		buffer:        DefaultBuffer,
		writeRetries:  DefaultWriteRetries,
		retryDelay:    DefaultRetryDelay,
		sweepInterval: DefaultSweepInterval,
		pendingAge:    DefaultPendingAge,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	// At least one write attempt, or a computed value would be silently lost.
	if w.writeRetries < 1 {
		w.writeRetries = 1
	}
	return w
}

// Run subscribes and processes notifications until ctx is canceled. Errors
// while handling a single notification are logged and isolated: one failed
// index never stops the loop. Run returns nil on clean shutdown.
//
// Parameters:
//   - ctx: Controls the worker lifetime.
//
// Returns:
//   - error: nil on shutdown via ctx; never returns otherwise.
func (w *Worker) Run(ctx context.Context) error {
	stream, unsubscribe := w.cache.Subscribe(w.topic, w.buffer)
	defer unsubscribe()

	var sweep <-chan time.Time
	if w.sweepInterval > 0 {
		ticker := time.NewTicker(w.sweepInterval)
		defer ticker.Stop()
		sweep = ticker.C
	}

	w.logger.Info("worker started",
		logging.String("topic", w.topic),
		logging.Int("buffer", w.buffer))

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("worker stopping")
			return nil
		case n, ok := <-stream:
			if !ok {
				return nil
			}
			if err := w.process(ctx, n.Index); err != nil && !apperrors.IsContextError(err) {
				w.logger.Error("notification processing failed", err,
					logging.Uint64("index", n.Index))
			}
		case <-sweep:
			if err := w.reconcile(ctx); err != nil && !apperrors.IsContextError(err) {
				w.logger.Error("reconciliation sweep failed", err)
			}
		}
	}
}

// process computes fib(index) and stores the result.
func (w *Worker) process(ctx context.Context, index uint64) error {
	ctx, span := w.tracer.Start(ctx, "worker.process",
		trace.WithAttributes(attribute.Int64("fib.index", int64(index))))
	defer span.End()

	start := w.now()
	value, err := w.calc.Calculate(ctx, index)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "calculation failed")
		return apperrors.ComputeError{Index: index, Cause: err}
	}

	text := value.Text(10)
	if err := w.storeResult(ctx, index, text); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "write-back failed")
		return err
	}

	w.logger.Info("value computed",
		logging.Uint64("index", index),
		logging.Int("digits", len(text)),
		logging.String("duration", w.now().Sub(start).String()))
	return nil
}

// storeResult writes the computed value with bounded fixed-delay retries.
// The entry is written unconditionally: a computed value may overwrite a
// pending placeholder or an identical previous value, never lose data.
func (w *Worker) storeResult(ctx context.Context, index uint64, value string) error {
	key := cache.Key(index)
	var lastErr error
	for attempt := 0; attempt < w.writeRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(w.retryDelay):
			}
		}
		lastErr = w.cache.Set(ctx, key, cache.Computed(value, w.now()))
		if lastErr == nil {
			return nil
		}
		w.logger.Error("result write failed", lastErr,
			logging.Uint64("index", index),
			logging.Int("attempt", attempt+1))
	}
	return apperrors.NewStoreError("cache", lastErr)
}

// reconcile scans the cache for entries stuck in the pending state and
// recomputes them. This is the recovery path for notifications lost to full
// subscriber buffers or publishes that raced a worker restart.
func (w *Worker) reconcile(ctx context.Context) error {
	entries, err := w.cache.All(ctx)
	if err != nil {
		return apperrors.NewStoreError("cache", err)
	}

	cutoff := w.now().Add(-w.pendingAge)
	recovered := 0
	for key, entry := range entries {
		if entry.State != cache.StatePending || entry.UpdatedAt.After(cutoff) {
			continue
		}
		index, err := cache.ParseKey(key)
		if err != nil {
			w.logger.Error("skipping unparsable cache key", err,
				logging.String("key", key))
			continue
		}
		if err := w.process(ctx, index); err != nil {
			if apperrors.IsContextError(err) {
				return err
			}
			w.logger.Error("stale entry recovery failed", err,
				logging.Uint64("index", index))
			continue
		}
		recovered++
	}

	if recovered > 0 {
		w.logger.Info("reconciliation sweep recovered entries",
			logging.Int("recovered", recovered))
	}
	return nil
}
