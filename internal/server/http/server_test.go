package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/rzbill/logship/internal/capture"
	"github.com/rzbill/logship/internal/drain"
	"github.com/rzbill/logship/internal/kv"
	"github.com/rzbill/logship/internal/queue"
	"github.com/rzbill/logship/internal/shipper"
	logpkg "github.com/rzbill/logship/pkg/log"
)

type healthFunc func(context.Context) error

func (f healthFunc) CheckHealth(ctx context.Context) error { return f(ctx) }

type sink struct {
	mu     sync.Mutex
	events []capture.Event
	accept bool
}

func (s *sink) Deliver(_ context.Context, ev capture.Event, _ drain.State) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.accept {
		return false, nil
	}
	s.events = append(s.events, ev)
	return true, nil
}

func newTestServer(t *testing.T, health error, pipeline *capture.Pipeline, accept bool) (*Server, *shipper.Shipper, *sink) {
	t.Helper()
	q, err := queue.New[capture.Event]("http", kv.NewMemory(), queue.Options{Logger: logpkg.NewNopLogger()})
	if err != nil {
		t.Fatalf("queue: %v", err)
	}
	out := &sink{accept: accept}
	shp, err := shipper.New(q, out, shipper.Options{Pipeline: pipeline, Logger: logpkg.NewNopLogger()})
	if err != nil {
		t.Fatalf("shipper: %v", err)
	}
	t.Cleanup(func() { _ = shp.Close() })
	s := New(healthFunc(func(context.Context) error { return health }), shp, logpkg.NewNopLogger())
	return s, shp, out
}

func serve(s *Server, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

// brokenStore rejects every write.
type brokenStore struct{ *kv.Memory }

func (brokenStore) SetItem(context.Context, string, string) error { return errors.New("disk full") }

func TestEventHandlerStoreFailure(t *testing.T) {
	q, err := queue.New[capture.Event]("http", brokenStore{kv.NewMemory()}, queue.Options{Logger: logpkg.NewNopLogger()})
	if err != nil {
		t.Fatalf("queue: %v", err)
	}
	shp, err := shipper.New(q, &sink{accept: true}, shipper.Options{Logger: logpkg.NewNopLogger()})
	if err != nil {
		t.Fatalf("shipper: %v", err)
	}
	t.Cleanup(func() { _ = shp.Close() })
	s := New(healthFunc(func(context.Context) error { return nil }), shp, logpkg.NewNopLogger())

	w := serve(s, http.MethodPost, "/v1/events", `{"event":{"type":"click"}}`)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status: %d body: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "Failed to store event") {
		t.Fatalf("body: %s", w.Body.String())
	}
}

func TestHealthHandler(t *testing.T) {
	s, _, _ := newTestServer(t, nil, nil, true)
	if w := serve(s, http.MethodGet, "/v1/healthz", ""); w.Code != http.StatusOK {
		t.Fatalf("status: %d", w.Code)
	}

	s, _, _ = newTestServer(t, errors.New("store down"), nil, true)
	w := serve(s, http.MethodGet, "/v1/healthz", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status: %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "not_serving") {
		t.Fatalf("body: %s", w.Body.String())
	}
}

func TestEventHandlerEnqueuesAndDelivers(t *testing.T) {
	s, shp, out := newTestServer(t, nil, nil, true)
	w := serve(s, http.MethodPost, "/v1/events", `{"event":{"type":"click"},"state":{"user":"u1"}}`)
	if w.Code != http.StatusAccepted {
		t.Fatalf("status: %d", w.Code)
	}
	shp.Flush()
	out.mu.Lock()
	defer out.mu.Unlock()
	if len(out.events) != 1 || out.events[0]["type"] != "click" {
		t.Fatalf("delivered: %v", out.events)
	}
}

func TestEventHandlerAcceptsBareEvent(t *testing.T) {
	s, shp, _ := newTestServer(t, nil, nil, false)
	if w := serve(s, http.MethodPost, "/v1/events", `{"type":"view","page":"/"}`); w.Code != http.StatusAccepted {
		t.Fatalf("status: %d", w.Code)
	}
	shp.Flush()
	ev, ok, err := shp.Queue().Peek(context.Background())
	if err != nil || !ok {
		t.Fatalf("peek: ok=%v err=%v", ok, err)
	}
	if ev["type"] != "view" || ev["page"] != "/" {
		t.Fatalf("event: %v", ev)
	}
}

func TestEventHandlerRejectsBadInput(t *testing.T) {
	s, _, _ := newTestServer(t, nil, nil, true)
	if w := serve(s, http.MethodGet, "/v1/events", ""); w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET status: %d", w.Code)
	}
	if w := serve(s, http.MethodPost, "/v1/events", `not json`); w.Code != http.StatusBadRequest {
		t.Fatalf("bad json status: %d", w.Code)
	}
	if w := serve(s, http.MethodPost, "/v1/events", `{}`); w.Code != http.StatusBadRequest {
		t.Fatalf("empty status: %d", w.Code)
	}
}

func TestActionHandler(t *testing.T) {
	s, _, _ := newTestServer(t, nil, nil, true)
	if w := serve(s, http.MethodPost, "/v1/actions", `{"action":{"type":"x"}}`); w.Code != http.StatusNotImplemented {
		t.Fatalf("no pipeline status: %d", w.Code)
	}

	p, err := capture.New(capture.Options{
		Handlers: []capture.Handler{func(a capture.Action, _ capture.State) capture.Event {
			m, _ := a.(map[string]any)
			if m["type"] == "skip" {
				return nil
			}
			return capture.Event{"action": m["type"]}
		}},
	})
	if err != nil {
		t.Fatalf("pipeline: %v", err)
	}
	s, shp, _ := newTestServer(t, nil, p, false)
	if w := serve(s, http.MethodPost, "/v1/actions", `{"action":{"type":"login"}}`); w.Code != http.StatusAccepted {
		t.Fatalf("status: %d", w.Code)
	}
	if w := serve(s, http.MethodPost, "/v1/actions", `{"action":{"type":"skip"}}`); w.Code != http.StatusNoContent {
		t.Fatalf("dropped status: %d", w.Code)
	}
	shp.Flush()
	if n, _ := shp.Queue().Len(context.Background()); n != 1 {
		t.Fatalf("len=%d", n)
	}
}

func TestQueueHandlers(t *testing.T) {
	s, shp, out := newTestServer(t, nil, nil, false)

	if w := serve(s, http.MethodGet, "/v1/queue/peek", ""); w.Code != http.StatusNoContent {
		t.Fatalf("empty peek status: %d", w.Code)
	}

	ctx := context.Background()
	_ = shp.Queue().PushAll(ctx, []capture.Event{{"n": "1"}, {"n": "2"}})

	w := serve(s, http.MethodGet, "/v1/queue/peek", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"n":"1"`) {
		t.Fatalf("peek: %d %s", w.Code, w.Body.String())
	}

	w = serve(s, http.MethodGet, "/v1/queue/stats", "")
	var stats struct {
		Name   string `json:"name"`
		Length int    `json:"length"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Name != "http" || stats.Length != 2 {
		t.Fatalf("stats: %+v", stats)
	}

	out.mu.Lock()
	out.accept = true
	out.mu.Unlock()
	w = serve(s, http.MethodPost, "/v1/drain", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"delivered":2`) {
		t.Fatalf("drain: %d %s", w.Code, w.Body.String())
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	s, _, _ := newTestServer(t, nil, nil, true)
	w := serve(s, http.MethodGet, "/v1/healthz", "")
	if w.Header().Get(requestIDHeader) == "" {
		t.Fatalf("request id not assigned")
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/healthz", nil)
	req.Header.Set(requestIDHeader, "abc")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if got := rec.Header().Get(requestIDHeader); got != "abc" {
		t.Fatalf("request id: %q", got)
	}
}

func TestCORSPreflight(t *testing.T) {
	s, _, _ := newTestServer(t, nil, nil, true)
	w := serve(s, http.MethodOptions, "/v1/events", "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("status: %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("missing CORS header")
	}
}
