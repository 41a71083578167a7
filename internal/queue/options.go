package queue

import (
	"time"

	"github.com/rzbill/logship/pkg/id"
	logpkg "github.com/rzbill/logship/pkg/log"
)

const (
	// DefaultLockWait bounds how long Push/PushAll/Pop wait for the queue lock.
	DefaultLockWait = 20 * time.Millisecond
	// DefaultDelimiter separates ids in the tracking list.
	DefaultDelimiter = "|"
	// idAttempts caps regeneration when a fresh id collides.
	idAttempts = 5
)

// Options configures a Queue. The zero value is usable.
type Options struct {
	// LockWait bounds lock acquisition. Zero means DefaultLockWait; negative
	// waits without bound.
	LockWait time.Duration
	// Delimiter is the single character joining tracking-list ids.
	Delimiter string
	// IDs generates item identifiers. Defaults to id.NewRandom().
	IDs id.Generator
	Logger  logpkg.Logger
	Metrics MetricsHook
}

// MetricsHook observes queue activity. Implementations must be safe for
// concurrent use.
type MetricsHook interface {
	ObservePush(queue string, n int)
	ObservePop(queue string)
	ObserveLockTimeout(queue, op string)
}

// NoopMetrics is used when no hook is provided.
type NoopMetrics struct{}

func (NoopMetrics) ObservePush(string, int)           {}
func (NoopMetrics) ObservePop(string)                 {}
func (NoopMetrics) ObserveLockTimeout(string, string) {}

func (o Options) withDefaults() Options {
	switch {
	case o.LockWait == 0:
		o.LockWait = DefaultLockWait
	case o.LockWait < 0:
		o.LockWait = 0
	}
	if o.Delimiter == "" {
		o.Delimiter = DefaultDelimiter
	}
	if o.IDs == nil {
		o.IDs = id.NewRandom()
	}
	if o.Logger == nil {
		o.Logger = logpkg.NewLogger(logpkg.WithLevel(logpkg.InfoLevel))
	}
	if o.Metrics == nil {
		o.Metrics = NoopMetrics{}
	}
	return o
}
