package shipper

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rzbill/logship/internal/capture"
	"github.com/rzbill/logship/internal/delivery"
	"github.com/rzbill/logship/internal/drain"
	"github.com/rzbill/logship/internal/kv"
	"github.com/rzbill/logship/internal/queue"
	logpkg "github.com/rzbill/logship/pkg/log"
)

type sink struct {
	mu     sync.Mutex
	events []capture.Event
	fail   atomic.Bool
}

func (s *sink) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.fail.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		var ev capture.Event
		_ = json.NewDecoder(r.Body).Decode(&ev)
		s.mu.Lock()
		s.events = append(s.events, ev)
		s.mu.Unlock()
	})
}

func (s *sink) received() []capture.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]capture.Event(nil), s.events...)
}

func newShipper(t *testing.T, url string) *Shipper {
	t.Helper()
	nop := logpkg.NewNopLogger()
	q, err := queue.New[capture.Event]("events", kv.NewMemory(), queue.Options{Logger: nop})
	require.NoError(t, err)
	d, err := delivery.NewHTTP[capture.Event](delivery.Endpoint{URI: url}, delivery.WithLogger[capture.Event](nop))
	require.NoError(t, err)
	p, err := capture.New(capture.Options{
		Handlers: []capture.Handler{func(a capture.Action, _ capture.State) capture.Event {
			if name, ok := a.(string); ok {
				return capture.Event{"type": name}
			}
			return nil
		}},
		Inject: map[string]capture.Parameter{"user": capture.FromState(func(s capture.State) any { return s["user"] })},
		Logger: nop,
	})
	require.NoError(t, err)
	s, err := New(q, d, Options{Pipeline: p, Logger: nop})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestLogDeliversEvent(t *testing.T) {
	rx := &sink{}
	srv := httptest.NewServer(rx.handler())
	defer srv.Close()
	s := newShipper(t, srv.URL)
	ctx := context.Background()

	ok, err := s.Log(ctx, "click", drain.State{"user": "ann"})
	require.NoError(t, err)
	require.True(t, ok)
	s.Flush()

	got := rx.received()
	require.Len(t, got, 1)
	assert.Equal(t, "click", got[0]["type"])
	assert.Equal(t, "ann", got[0]["user"])
	n, _ := s.Queue().Len(ctx)
	assert.Zero(t, n)
}

func TestLogSkipsUnhandledAction(t *testing.T) {
	s := newShipper(t, "http://127.0.0.1:1")
	ok, err := s.Log(context.Background(), 42, nil)
	require.NoError(t, err)
	assert.False(t, ok)
	n, _ := s.Queue().Len(context.Background())
	assert.Zero(t, n)
}

func TestFailedDeliveryStaysQueued(t *testing.T) {
	rx := &sink{}
	rx.fail.Store(true)
	srv := httptest.NewServer(rx.handler())
	defer srv.Close()
	s := newShipper(t, srv.URL)
	ctx := context.Background()

	_, _ = s.Log(ctx, "first", nil)
	s.Flush()
	n, _ := s.Queue().Len(ctx)
	assert.Equal(t, 1, n)

	rx.fail.Store(false)
	_, _ = s.Log(ctx, "second", nil)
	s.Flush()

	got := rx.received()
	require.Len(t, got, 2)
	assert.Equal(t, "first", got[0]["type"])
	assert.Equal(t, "second", got[1]["type"])
}

func TestEnqueueWithoutPipeline(t *testing.T) {
	rx := &sink{}
	srv := httptest.NewServer(rx.handler())
	defer srv.Close()
	nop := logpkg.NewNopLogger()
	q, _ := queue.New[capture.Event]("raw", kv.NewMemory(), queue.Options{Logger: nop})
	d, _ := delivery.NewHTTP[capture.Event](delivery.Endpoint{URI: srv.URL}, delivery.WithLogger[capture.Event](nop))
	s, err := New(q, d, Options{Logger: nop, Drain: drain.Options{Interval: time.Hour}})
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Log(context.Background(), "x", nil)
	assert.Error(t, err)

	require.NoError(t, s.Enqueue(context.Background(), capture.Event{"k": "v"}, nil))
	s.Flush()
	require.Len(t, rx.received(), 1)
}

// readOnlyStore rejects writes.
type readOnlyStore struct {
	*kv.Memory
	err error
}

func (r readOnlyStore) SetItem(context.Context, string, string) error { return r.err }

func TestEnqueueReportsStoreFailure(t *testing.T) {
	boom := errors.New("disk full")
	nop := logpkg.NewNopLogger()
	q, err := queue.New[capture.Event]("raw", readOnlyStore{Memory: kv.NewMemory(), err: boom}, queue.Options{Logger: nop})
	require.NoError(t, err)
	d, err := delivery.NewHTTP[capture.Event](delivery.Endpoint{URI: "http://127.0.0.1:1"}, delivery.WithLogger[capture.Event](nop))
	require.NoError(t, err)
	p, err := capture.New(capture.Options{
		Handlers: []capture.Handler{func(capture.Action, capture.State) capture.Event { return capture.Event{"k": "v"} }},
		Logger:   nop,
	})
	require.NoError(t, err)
	s, err := New(q, d, Options{Pipeline: p, Logger: nop, Drain: drain.Options{Interval: time.Hour}})
	require.NoError(t, err)
	defer s.Close()

	err = s.Enqueue(context.Background(), capture.Event{"k": "v"}, nil)
	assert.ErrorIs(t, err, boom)

	ok, err := s.Log(context.Background(), "x", nil)
	assert.True(t, ok)
	assert.NoError(t, err)
}

func TestNewRequiresQueueAndDeliverer(t *testing.T) {
	_, err := New(nil, nil, Options{})
	assert.Error(t, err)
	q, _ := queue.New[capture.Event]("q", kv.NewMemory(), queue.Options{Logger: logpkg.NewNopLogger()})
	_, err = New(q, nil, Options{})
	assert.Error(t, err)
}
