package shipper

import (
	"context"
	"errors"

	"github.com/rzbill/logship/internal/capture"
	"github.com/rzbill/logship/internal/drain"
	"github.com/rzbill/logship/internal/queue"
	logpkg "github.com/rzbill/logship/pkg/log"
)

// DepthObserver receives the queue length after each enqueue. Optional.
type DepthObserver interface {
	SetDepth(queue string, n int)
}

// Options configures a Shipper.
type Options struct {
	// Pipeline builds events for Log. Enqueue works without one.
	Pipeline *capture.Pipeline
	Drain    drain.Options
	Depth    DepthObserver
	Logger   logpkg.Logger
}

// Shipper is the host-facing entry point.
type Shipper struct {
	pipeline *capture.Pipeline
	queue    *queue.Queue[capture.Event]
	loop     *drain.Loop[capture.Event]
	depth    DepthObserver
	logger   logpkg.Logger
}

// New builds a Shipper over q, delivering through d.
func New(q *queue.Queue[capture.Event], d drain.Deliverer[capture.Event], opts Options) (*Shipper, error) {
	if q == nil {
		return nil, errors.New("shipper: queue is required")
	}
	if d == nil {
		return nil, errors.New("shipper: deliverer is required")
	}
	if opts.Logger == nil {
		opts.Logger = logpkg.NewLogger(logpkg.WithLevel(logpkg.InfoLevel))
	}
	if opts.Drain.Logger == nil {
		opts.Drain.Logger = opts.Logger
	}
	return &Shipper{
		pipeline: opts.Pipeline,
		queue:    q,
		loop:     drain.New[capture.Event](q, d, opts.Drain),
		depth:    opts.Depth,
		logger:   opts.Logger.WithComponent("shipper"),
	}, nil
}

// Log runs action through the pipeline and enqueues the result. It reports
// whether an event was produced. The returned error is non-nil only when no
// pipeline is configured.
func (s *Shipper) Log(ctx context.Context, action capture.Action, state drain.State) (bool, error) {
	if s.pipeline == nil {
		return false, errors.New("shipper: no capture pipeline configured")
	}
	ev, ok := s.pipeline.Build(action, state)
	if !ok {
		return false, nil
	}
	if err := s.store(ctx, ev, s.queue.Push); err != nil {
		s.logger.Error("failed to enqueue event", logpkg.Err(err))
		return true, nil
	}
	s.loop.Trigger(state)
	return true, nil
}

// Enqueue persists ev and triggers a drain with state. Unlike Log it reports
// failures, including queue.ErrLockTimeout when the queue stayed busy.
func (s *Shipper) Enqueue(ctx context.Context, ev capture.Event, state drain.State) error {
	if err := s.store(ctx, ev, s.queue.TryPush); err != nil {
		s.logger.Error("failed to enqueue event", logpkg.Err(err))
		return err
	}
	s.loop.Trigger(state)
	return nil
}

func (s *Shipper) store(ctx context.Context, ev capture.Event, push func(context.Context, capture.Event) error) error {
	if err := push(ctx, ev); err != nil {
		return err
	}
	if s.depth != nil {
		if n, err := s.queue.Len(ctx); err == nil {
			s.depth.SetDepth(s.queue.Name(), n)
		}
	}
	return nil
}

// Drain runs one synchronous drain.
func (s *Shipper) Drain(ctx context.Context, state drain.State) (int, error) {
	return s.loop.Drain(ctx, state)
}

// Queue returns the underlying queue.
func (s *Shipper) Queue() *queue.Queue[capture.Event] { return s.queue }

// Start begins periodic draining until ctx is done or Close is called.
func (s *Shipper) Start(ctx context.Context, state drain.State) {
	s.loop.Start(ctx, state)
}

// Flush waits for in-flight drains to finish.
func (s *Shipper) Flush() { s.loop.Wait() }

// Close stops background draining and waits for it.
func (s *Shipper) Close() error {
	s.loop.Close()
	return nil
}
