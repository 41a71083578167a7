package client

import (
	"bytes"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// gateway is a minimal stand-in for the HTTP gateway.
type gateway struct {
	events []map[string]any
}

func (g *gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/v1/events":
		var req struct {
			Event map[string]any `json:"event"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		g.events = append(g.events, req.Event)
		w.WriteHeader(http.StatusAccepted)
	case "/v1/actions":
		w.WriteHeader(http.StatusNoContent)
	case "/v1/queue/peek":
		if len(g.events) == 0 {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		_ = json.NewEncoder(w).Encode(g.events[0])
	case "/v1/queue/stats":
		_ = json.NewEncoder(w).Encode(map[string]any{"name": "events", "length": len(g.events)})
	case "/v1/drain":
		n := len(g.events)
		g.events = nil
		_ = json.NewEncoder(w).Encode(map[string]int{"delivered": n})
	default:
		http.NotFound(w, r)
	}
}

func run(t *testing.T, baseURL string, args ...string) (string, error) {
	t.Helper()
	root := NewRoot(func() string { return baseURL })
	buf := &bytes.Buffer{}
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestSendPeekStatsDrain(t *testing.T) {
	gw := &gateway{}
	srv := httptest.NewServer(gw)
	defer srv.Close()

	out, err := run(t, srv.URL, "queue", "peek")
	if err != nil || !strings.Contains(out, "queue is empty") {
		t.Fatalf("empty peek: %q %v", out, err)
	}

	out, err = run(t, srv.URL, "send", "--json", `{"type":"signup"}`)
	if err != nil || !strings.Contains(out, "status: accepted") {
		t.Fatalf("send: %q %v", out, err)
	}
	if len(gw.events) != 1 || gw.events[0]["type"] != "signup" {
		t.Fatalf("gateway events: %v", gw.events)
	}

	out, err = run(t, srv.URL, "queue", "peek")
	if err != nil || !strings.Contains(out, `"type": "signup"`) {
		t.Fatalf("peek: %q %v", out, err)
	}

	out, err = run(t, srv.URL, "queue", "stats")
	if err != nil || !strings.Contains(out, "length: 1") {
		t.Fatalf("stats: %q %v", out, err)
	}

	out, err = run(t, srv.URL, "queue", "drain")
	if err != nil || !strings.Contains(out, "delivered: 1") {
		t.Fatalf("drain: %q %v", out, err)
	}
}

func TestSendRejectsBadJSON(t *testing.T) {
	srv := httptest.NewServer(&gateway{})
	defer srv.Close()
	if _, err := run(t, srv.URL, "send", "--json", `[1,2]`); err == nil {
		t.Fatalf("expected error for non-object")
	}
	if _, err := run(t, srv.URL, "send"); err == nil {
		t.Fatalf("expected error for missing --json")
	}
}

func TestSendReadsStdin(t *testing.T) {
	gw := &gateway{}
	srv := httptest.NewServer(gw)
	defer srv.Close()

	root := NewRoot(func() string { return srv.URL })
	root.SetIn(strings.NewReader(`{"type":"piped"}`))
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"send", "--json", "-"})
	if err := root.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(gw.events) != 1 || gw.events[0]["type"] != "piped" {
		t.Fatalf("gateway events: %v", gw.events)
	}
}

func TestCaptureDropped(t *testing.T) {
	srv := httptest.NewServer(&gateway{})
	defer srv.Close()
	out, err := run(t, srv.URL, "capture", "--json", `{"type":"noise"}`)
	if err != nil || !strings.Contains(out, "status: dropped") {
		t.Fatalf("capture: %q %v", out, err)
	}
}

func TestHealthCommand(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	gs := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	go func() { _ = gs.Serve(lis) }()
	defer gs.Stop()
	t.Setenv("LOGSHIP_GRPC", lis.Addr().String())

	out, err := run(t, "http://unused", "health")
	if err != nil || !strings.Contains(out, "status: SERVING") {
		t.Fatalf("health: %q %v", out, err)
	}

	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	if _, err := run(t, "http://unused", "health"); err == nil {
		t.Fatalf("expected error when not serving")
	}
}

func TestQueueLocalPersistsAcrossCommands(t *testing.T) {
	dir := t.TempDir()
	local := func(args ...string) string {
		t.Helper()
		full := append([]string{"queue", "local"}, args...)
		full = append(full, "--backend", "pebble", "--data-dir", dir, "--name", "cli")
		out, err := run(t, "http://unused", full...)
		if err != nil {
			t.Fatalf("%v: %v (%s)", args, err, out)
		}
		return out
	}

	if out := local("pop"); !strings.Contains(out, "queue is empty") {
		t.Fatalf("pop on empty: %q", out)
	}
	local("push", "--json", `{"n":1}`)
	local("push", "--json", `{"n":2}`)
	if out := local("len"); strings.TrimSpace(out) != "2" {
		t.Fatalf("len: %q", out)
	}
	if out := local("peek"); !strings.Contains(out, `"n": 1`) {
		t.Fatalf("peek: %q", out)
	}
	if out := local("pop"); !strings.Contains(out, `"n": 1`) {
		t.Fatalf("pop: %q", out)
	}
	if out := local("len"); strings.TrimSpace(out) != "1" {
		t.Fatalf("len after pop: %q", out)
	}
}
