package serverrun

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/rzbill/logship/internal/capture"
	cfgpkg "github.com/rzbill/logship/internal/config"
	"github.com/rzbill/logship/internal/delivery"
	"github.com/rzbill/logship/internal/drain"
	"github.com/rzbill/logship/internal/metrics"
	"github.com/rzbill/logship/internal/runtime"
	grpcserver "github.com/rzbill/logship/internal/server/grpc"
	httpserver "github.com/rzbill/logship/internal/server/http"
	"github.com/rzbill/logship/internal/shipper"
	logpkg "github.com/rzbill/logship/pkg/log"
)

type Options struct {
	Config cfgpkg.Config
	// Logger overrides the logger built from Config.Log.
	Logger logpkg.Logger
	// Registry receives the collectors. Nil means a fresh registry.
	Registry *prometheus.Registry
}

// Run opens storage, starts the shipper and its servers, and blocks until ctx
// is cancelled or a server fails.
func Run(ctx context.Context, opts Options) error {
	sctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := opts.Config.WithDefaultPaths()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	procLogger := opts.Logger
	if procLogger == nil {
		l, err := logpkg.ApplyConfig(&cfg.Log)
		if err != nil {
			lvl := logpkg.InfoLevel
			if parsed, e := logpkg.ParseLevel(cfg.Log.Level); e == nil {
				lvl = parsed
			}
			l = logpkg.NewLogger(logpkg.WithLevel(lvl), logpkg.WithFormatter(&logpkg.TextFormatter{}))
		}
		procLogger = l
		// Pebble logs through the stdlib logger.
		logpkg.RedirectStdLog(procLogger)
	}

	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m, err := metrics.New(reg)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	rt, err := runtime.Open(sctx, runtime.Options{
		Config:         cfg,
		Logger:         procLogger,
		StorageMetrics: m,
		QueueMetrics:   m,
	})
	if err != nil {
		return err
	}
	defer rt.Close()

	q, err := rt.OpenQueue()
	if err != nil {
		return err
	}
	d, err := NewDeliverer(cfg.Endpoint, procLogger)
	if err != nil {
		return err
	}
	p, err := NewPipeline(cfg.Capture, procLogger)
	if err != nil {
		return err
	}
	shp, err := shipper.New(q, d, shipper.Options{
		Pipeline: p,
		Drain: drain.Options{
			Interval:      cfg.Drain.Interval(),
			MaxConcurrent: cfg.Drain.MaxConcurrent,
			Logger:        procLogger,
			Metrics:       m,
		},
		Depth:  m,
		Logger: procLogger,
	})
	if err != nil {
		return err
	}
	defer shp.Close()

	procLogger.Info("Starting logship server",
		logpkg.Str("queue", q.Name()),
		logpkg.Str("backend", cfg.Storage.Backend),
		logpkg.Str("endpoint", cfg.Endpoint.URI),
		logpkg.Str("grpc", cfg.Server.GRPCAddr),
		logpkg.Str("http", cfg.Server.HTTPAddr),
		logpkg.Str("metrics", cfg.Server.MetricsAddr),
		logpkg.Str("level", cfg.Log.Level),
		logpkg.Str("format", cfg.Log.Format),
	)

	// Deliver anything left over from a previous run.
	shp.Start(sctx, nil)

	g, gctx := errgroup.WithContext(sctx)
	if addr := cfg.Server.GRPCAddr; addr != "" {
		gsrv := grpcserver.New(rt, procLogger)
		g.Go(func() error {
			if err := gsrv.ListenAndServe(gctx, addr); err != nil {
				return fmt.Errorf("grpc: %w", err)
			}
			return nil
		})
	}
	if addr := cfg.Server.HTTPAddr; addr != "" {
		hsrv := httpserver.New(rt, shp, procLogger)
		g.Go(func() error {
			if err := hsrv.ListenAndServe(gctx, addr); err != nil {
				return fmt.Errorf("http: %w", err)
			}
			return nil
		})
	}
	if addr := cfg.Server.MetricsAddr; addr != "" {
		msrv := metrics.NewServer(addr, reg)
		g.Go(func() error {
			errCh := msrv.Start()
			select {
			case err := <-errCh:
				return err
			case <-gctx.Done():
				cctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return msrv.Shutdown(cctx)
			}
		})
	}

	err = g.Wait()
	procLogger.Info("Shutting down logship server")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// NewDeliverer builds the HTTP deliverer for ep, wrapped in a circuit breaker
// when enabled.
func NewDeliverer(ep cfgpkg.EndpointConfig, logger logpkg.Logger) (drain.Deliverer[capture.Event], error) {
	h, err := delivery.NewHTTP[capture.Event](delivery.Endpoint{
		URI:     ep.URI,
		Headers: ep.Headers,
		Timeout: ep.Timeout(),
	}, delivery.WithLogger[capture.Event](logger))
	if err != nil {
		return nil, err
	}
	if !ep.Breaker.Enabled {
		return h, nil
	}
	return delivery.NewBreaker[capture.Event]("endpoint", h, delivery.BreakerConfig{
		ConsecutiveFailures: uint32(max(ep.Breaker.ConsecutiveFailures, 0)),
		Timeout:             time.Duration(ep.Breaker.OpenTimeoutMs) * time.Millisecond,
	}, logger), nil
}

// NewPipeline builds the capture pipeline used by POST /v1/actions. Actions
// that are JSON objects become events as-is.
func NewPipeline(cc cfgpkg.CaptureConfig, logger logpkg.Logger) (*capture.Pipeline, error) {
	inject := make(map[string]capture.Parameter, len(cc.Inject))
	for k, v := range cc.Inject {
		inject[k] = capture.Static(v)
	}
	return capture.New(capture.Options{
		Handlers: []capture.Handler{objectAction},
		Inject:   inject,
		CEL:      cc.Validator,
		Logger:   logger,
	})
}

func objectAction(action capture.Action, _ capture.State) capture.Event {
	switch a := action.(type) {
	case map[string]any:
		return capture.Event(a)
	case capture.Event:
		return a
	}
	return nil
}
