package runtime

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rzbill/logship/internal/capture"
	cfgpkg "github.com/rzbill/logship/internal/config"
	"github.com/rzbill/logship/internal/kv"
	"github.com/rzbill/logship/internal/queue"
	pebblestore "github.com/rzbill/logship/internal/storage/pebble"
	redisstore "github.com/rzbill/logship/internal/storage/redis"
	sqlitestore "github.com/rzbill/logship/internal/storage/sqlite"
	"github.com/rzbill/logship/pkg/id"
	logpkg "github.com/rzbill/logship/pkg/log"
)

// StorageMetrics receives pebble read/write observations.
type StorageMetrics = pebblestore.MetricsHook

// Options for building the Runtime.
type Options struct {
	Config cfgpkg.Config
	Logger logpkg.Logger
	// StorageMetrics observes the pebble backend. Optional.
	StorageMetrics StorageMetrics
	// QueueMetrics observes queues opened through OpenQueue. Optional.
	QueueMetrics queue.MetricsHook
}

// Runtime owns the configured store for a single process.
type Runtime struct {
	store   kv.Store
	closers []func() error
	config  cfgpkg.Config
	base    logpkg.Logger
	logger  logpkg.Logger
	qm      queue.MetricsHook
}

// Open initializes the configured storage backend and checks it is reachable.
func Open(ctx context.Context, opts Options) (*Runtime, error) {
	if opts.Logger == nil {
		opts.Logger = logpkg.NewLogger(logpkg.WithLevel(logpkg.InfoLevel))
	}
	rt := &Runtime{
		config: opts.Config,
		base:   opts.Logger,
		logger: opts.Logger.WithComponent("runtime"),
		qm:     opts.QueueMetrics,
	}

	sc := opts.Config.Storage
	switch sc.Backend {
	case cfgpkg.BackendPebble, "":
		fsync, err := pebblestore.ParseFsyncMode(sc.Fsync)
		if err != nil {
			return nil, err
		}
		db, err := pebblestore.Open(pebblestore.Options{
			DataDir:       sc.DataDir,
			Fsync:         fsync,
			FsyncInterval: time.Duration(sc.FsyncIntervalMs) * time.Millisecond,
			Metrics:       opts.StorageMetrics,
		})
		if err != nil {
			return nil, err
		}
		rt.store = pebblestore.NewKV(db, sc.KeyPrefix)
		rt.closers = append(rt.closers, db.Close)
	case cfgpkg.BackendRedis:
		s, err := redisstore.Dial(ctx, sc.RedisAddr, sc.RedisPassword, sc.RedisDB, sc.KeyPrefix)
		if err != nil {
			return nil, err
		}
		rt.store = s
		rt.closers = append(rt.closers, s.Close)
	case cfgpkg.BackendSQLite:
		s, err := sqlitestore.Open(sc.SQLitePath)
		if err != nil {
			return nil, err
		}
		rt.store = s
		rt.closers = append(rt.closers, s.Close)
	case cfgpkg.BackendMemory:
		m := kv.NewMemory()
		rt.logger.Warn("using in-memory storage; queued events will not survive a restart")
		rt.store = m
		rt.closers = append(rt.closers, m.Close)
	default:
		return nil, fmt.Errorf("runtime: unknown storage backend %q", sc.Backend)
	}

	if err := rt.CheckHealth(ctx); err != nil {
		_ = rt.Close()
		return nil, err
	}
	rt.logger.Info("storage ready", logpkg.Str("backend", backendName(sc.Backend)))
	return rt, nil
}

// Close closes underlying resources in reverse order of opening.
func (r *Runtime) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		errs = append(errs, r.closers[i]())
	}
	r.closers = nil
	return errors.Join(errs...)
}

// CheckHealth probes the store when it supports it.
func (r *Runtime) CheckHealth(ctx context.Context) error {
	if r.store == nil {
		return errors.New("store not open")
	}
	if hc, ok := r.store.(kv.HealthChecker); ok {
		return hc.CheckHealth(ctx)
	}
	return nil
}

// OpenQueue opens the configured event queue.
func (r *Runtime) OpenQueue() (*queue.Queue[capture.Event], error) {
	return r.OpenNamedQueue(r.config.Queue.Name)
}

// OpenNamedQueue opens an event queue called name over the shared store.
func (r *Runtime) OpenNamedQueue(name string) (*queue.Queue[capture.Event], error) {
	ids, err := id.Parse(r.config.Queue.IDs)
	if err != nil {
		return nil, err
	}
	return queue.New[capture.Event](name, r.store, queue.Options{
		LockWait:  r.config.Queue.LockWait(),
		Delimiter: r.config.Queue.Delimiter,
		IDs:       ids,
		Logger:    r.base,
		Metrics:   r.qm,
	})
}

// Store exposes the underlying store.
func (r *Runtime) Store() kv.Store { return r.store }

// Config returns the runtime configuration.
func (r *Runtime) Config() cfgpkg.Config { return r.config }

func backendName(b string) string {
	if b == "" {
		return cfgpkg.BackendPebble
	}
	return b
}
