package drain

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	logpkg "github.com/rzbill/logship/pkg/log"
)

// State is host-supplied context handed through to delivery.
type State map[string]any

// Source is the queue side of a drain.
type Source[T any] interface {
	Pop(ctx context.Context) (T, bool, error)
	Push(ctx context.Context, item T) error
}

// Deliverer sends one item. It reports true only when the item was accepted.
type Deliverer[T any] interface {
	Deliver(ctx context.Context, item T, state State) (bool, error)
}

// DelivererFunc adapts a function to Deliverer.
type DelivererFunc[T any] func(ctx context.Context, item T, state State) (bool, error)

func (f DelivererFunc[T]) Deliver(ctx context.Context, item T, state State) (bool, error) {
	return f(ctx, item, state)
}

// MetricsHook observes drain outcomes.
type MetricsHook interface {
	ObserveDelivered()
	ObserveFailed()
	ObserveRequeued()
}

// NoopMetrics is used when no hook is provided.
type NoopMetrics struct{}

func (NoopMetrics) ObserveDelivered() {}
func (NoopMetrics) ObserveFailed()    {}
func (NoopMetrics) ObserveRequeued()  {}

// ErrDeliveryPanic wraps a panic recovered from a deliverer.
var ErrDeliveryPanic = errors.New("drain: deliverer panicked")

// Options configures a Loop.
type Options struct {
	// Interval between periodic sweeps started by Start. Zero means 30s.
	Interval time.Duration
	// MaxConcurrent bounds drains started by Trigger. Zero means unbounded.
	MaxConcurrent int
	Logger        logpkg.Logger
	Metrics       MetricsHook
}

// Loop drains a Source into a Deliverer.
type Loop[T any] struct {
	src      Source[T]
	dst      Deliverer[T]
	interval time.Duration
	slots    *semaphore.Weighted
	logger   logpkg.Logger
	metrics  MetricsHook

	ctx    context.Context
	cancel context.CancelFunc
	drains sync.WaitGroup
	sweep  sync.WaitGroup

	mu        sync.Mutex
	closed    bool
	sweepStop chan struct{}
}

// New creates a Loop. Call Close to stop background work.
func New[T any](src Source[T], dst Deliverer[T], opts Options) *Loop[T] {
	if opts.Interval <= 0 {
		opts.Interval = 30 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = logpkg.NewLogger(logpkg.WithLevel(logpkg.InfoLevel))
	}
	if opts.Metrics == nil {
		opts.Metrics = NoopMetrics{}
	}
	l := &Loop[T]{
		src:      src,
		dst:      dst,
		interval: opts.Interval,
		logger:   opts.Logger.WithComponent("drain"),
		metrics:  opts.Metrics,
	}
	if opts.MaxConcurrent > 0 {
		l.slots = semaphore.NewWeighted(int64(opts.MaxConcurrent))
	}
	l.ctx, l.cancel = context.WithCancel(context.Background())
	return l
}

// Drain delivers items until the source is empty or a delivery fails. A
// failed item is pushed back to the tail and Drain returns. It reports how
// many items were delivered.
func (l *Loop[T]) Drain(ctx context.Context, state State) (int, error) {
	delivered := 0
	for {
		item, ok, err := l.src.Pop(ctx)
		if err != nil {
			return delivered, fmt.Errorf("drain: pop: %w", err)
		}
		if !ok {
			return delivered, nil
		}

		sent, err := l.deliver(ctx, item, state)
		if sent && err == nil {
			delivered++
			l.metrics.ObserveDelivered()
			continue
		}

		l.metrics.ObserveFailed()
		if err != nil {
			l.logger.Warn("delivery failed", logpkg.Err(err))
		} else {
			l.logger.Warn("delivery rejected")
		}
		// Requeue even when the drain's context is done.
		if perr := l.src.Push(context.WithoutCancel(ctx), item); perr != nil {
			l.logger.Error("requeue failed, item lost", logpkg.Err(perr))
			return delivered, fmt.Errorf("drain: requeue: %w", perr)
		}
		l.metrics.ObserveRequeued()
		return delivered, nil
	}
}

func (l *Loop[T]) deliver(ctx context.Context, item T, state State) (sent bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			sent, err = false, fmt.Errorf("%w: %v", ErrDeliveryPanic, r)
		}
	}()
	return l.dst.Deliver(ctx, item, state)
}

// Trigger starts a Drain in the background. When MaxConcurrent drains are
// already running the trigger is skipped; a running drain reaches new items.
func (l *Loop[T]) Trigger(state State) {
	l.mu.Lock()
	if l.closed || l.ctx.Err() != nil {
		l.mu.Unlock()
		return
	}
	if l.slots != nil && !l.slots.TryAcquire(1) {
		l.mu.Unlock()
		l.logger.Debug("drain already at capacity, skipping trigger")
		return
	}
	l.drains.Add(1)
	l.mu.Unlock()
	go func() {
		defer l.drains.Done()
		if l.slots != nil {
			defer l.slots.Release(1)
		}
		n, err := l.Drain(l.ctx, state)
		if err != nil {
			l.logger.Error("drain stopped", logpkg.Err(err), logpkg.Int("delivered", n))
			return
		}
		if n > 0 {
			l.logger.Debug("drain finished", logpkg.Int("delivered", n))
		}
	}()
}

// Start runs a periodic sweep that triggers a drain every Interval plus up
// to 10% jitter, until ctx is done or Stop is called.
func (l *Loop[T]) Start(ctx context.Context, state State) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed || l.sweepStop != nil {
		return
	}
	stop := make(chan struct{})
	l.sweepStop = stop
	l.sweep.Add(1)
	go func() {
		defer l.sweep.Done()
		rng := rand.New(rand.NewSource(time.Now().UnixNano()))
		l.logger.Info("drain sweeper started", logpkg.Duration("interval", l.interval))
		for {
			select {
			case <-stop:
				return
			case <-ctx.Done():
				return
			case <-l.ctx.Done():
				return
			case <-time.After(l.interval + time.Duration(rng.Int63n(int64(l.interval/10+1)))):
				l.Trigger(state)
			}
		}
	}()
}

// Stop ends the periodic sweep. In-flight drains keep running.
func (l *Loop[T]) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stopSweep()
}

// stopSweep requires l.mu.
func (l *Loop[T]) stopSweep() {
	if l.sweepStop != nil {
		close(l.sweepStop)
		l.sweepStop = nil
	}
}

// Wait blocks until every triggered drain has returned. The sweeper is not
// waited for.
func (l *Loop[T]) Wait() { l.drains.Wait() }

// Close stops the sweeper, cancels in-flight drains and waits for them.
// Triggers after Close are ignored.
func (l *Loop[T]) Close() {
	l.mu.Lock()
	l.closed = true
	l.stopSweep()
	l.mu.Unlock()
	l.cancel()
	l.sweep.Wait()
	l.drains.Wait()
}
