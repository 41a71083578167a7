package delivery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"github.com/rzbill/logship/internal/drain"
	logpkg "github.com/rzbill/logship/pkg/log"
)

// errRejected marks a delivery the endpoint answered but refused, so the
// breaker counts it as a failure.
var errRejected = errors.New("delivery: rejected")

// BreakerConfig tunes the circuit breaker.
type BreakerConfig struct {
	// ConsecutiveFailures trips the breaker. Zero means 5.
	ConsecutiveFailures uint32
	// Timeout is how long the breaker stays open. Zero means 30s.
	Timeout time.Duration
	// MaxRequests allowed while half-open. Zero means 1.
	MaxRequests uint32
	// Interval clears counts while closed. Zero never clears.
	Interval time.Duration
}

// Breaker wraps a deliverer with a circuit breaker. While open, Deliver
// fails fast with gobreaker.ErrOpenState and the drain requeues the item.
type Breaker[T any] struct {
	next   drain.Deliverer[T]
	cb     *gobreaker.CircuitBreaker
	logger logpkg.Logger
}

// NewBreaker wraps next.
func NewBreaker[T any](name string, next drain.Deliverer[T], cfg BreakerConfig, logger logpkg.Logger) *Breaker[T] {
	if cfg.ConsecutiveFailures == 0 {
		cfg.ConsecutiveFailures = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRequests == 0 {
		cfg.MaxRequests = 1
	}
	if logger == nil {
		logger = logpkg.NewLogger(logpkg.WithLevel(logpkg.InfoLevel))
	}
	b := &Breaker[T]{next: next, logger: logger.With(logpkg.Component("breaker"), logpkg.Str("breaker", name))}
	b.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		OnStateChange: func(_ string, from, to gobreaker.State) {
			b.logger.Warn("circuit breaker state changed", logpkg.Str("from", from.String()), logpkg.Str("to", to.String()))
		},
	})
	return b
}

// Deliver forwards to the wrapped deliverer unless the breaker is open.
func (b *Breaker[T]) Deliver(ctx context.Context, item T, state drain.State) (bool, error) {
	_, err := b.cb.Execute(func() (interface{}, error) {
		ok, err := b.next.Deliver(ctx, item, state)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errRejected
		}
		return nil, nil
	})
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, errRejected):
		return false, nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return false, fmt.Errorf("delivery: endpoint unavailable: %w", err)
	default:
		return false, err
	}
}

// State returns the breaker state name: closed, half-open or open.
func (b *Breaker[T]) State() string { return b.cb.State().String() }
