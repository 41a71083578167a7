package delivery

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rzbill/logship/internal/drain"
	logpkg "github.com/rzbill/logship/pkg/log"
)

type payload struct {
	Type string `json:"type"`
}

func TestHTTPDeliverSendsJSON(t *testing.T) {
	var got http.Header
	var body payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		got = r.Header.Clone()
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	h, err := NewHTTP[payload](Endpoint{
		URI:     srv.URL,
		Headers: map[string]string{"X-App": "logship", "Accept": "text/plain"},
		DynamicHeaders: map[string]HeaderFunc{
			"Authorization": func(s drain.State) string { return "Bearer " + s["token"].(string) },
		},
	}, WithLogger[payload](logpkg.NewNopLogger()))
	require.NoError(t, err)

	ok, err := h.Deliver(context.Background(), payload{Type: "click"}, drain.State{"token": "abc"})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "click", body.Type)
	assert.Equal(t, "application/json", got.Get("Content-Type"))
	assert.Equal(t, "text/plain", got.Get("Accept"))
	assert.Equal(t, "logship", got.Get("X-App"))
	assert.Equal(t, "Bearer abc", got.Get("Authorization"))
}

func TestHTTPDeliverTransform(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&body)
	}))
	defer srv.Close()

	h, err := NewHTTP[payload](Endpoint{URI: srv.URL},
		WithLogger[payload](logpkg.NewNopLogger()),
		WithTransform(func(p payload) any { return map[string]any{"event": p.Type, "v": 2} }),
	)
	require.NoError(t, err)
	ok, err := h.Deliver(context.Background(), payload{Type: "view"}, nil)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "view", body["event"])
	assert.EqualValues(t, 2, body["v"])
}

func TestHTTPDeliverRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	h, err := NewHTTP[payload](Endpoint{URI: srv.URL}, WithLogger[payload](logpkg.NewNopLogger()))
	require.NoError(t, err)
	ok, err := h.Deliver(context.Background(), payload{}, nil)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHTTPDeliverTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	h, err := NewHTTP[payload](Endpoint{URI: url, Timeout: time.Second}, WithLogger[payload](logpkg.NewNopLogger()))
	require.NoError(t, err)
	ok, err := h.Deliver(context.Background(), payload{}, nil)
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestNewHTTPValidatesEndpoint(t *testing.T) {
	for _, uri := range []string{"", "   ", "ftp://example.com", "example.com/logs"} {
		_, err := NewHTTP[payload](Endpoint{URI: uri})
		assert.ErrorIs(t, err, ErrInvalidEndpoint, uri)
	}
}

func TestBreakerOpensAndRecovers(t *testing.T) {
	var calls atomic.Int32
	var healthy atomic.Bool
	next := drain.DelivererFunc[payload](func(context.Context, payload, drain.State) (bool, error) {
		calls.Add(1)
		return healthy.Load(), nil
	})
	b := NewBreaker[payload]("test", next, BreakerConfig{ConsecutiveFailures: 2, Timeout: 20 * time.Millisecond}, logpkg.NewNopLogger())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := b.Deliver(ctx, payload{}, nil)
		require.NoError(t, err)
		assert.False(t, ok)
	}
	assert.Equal(t, "open", b.State())

	ok, err := b.Deliver(ctx, payload{}, nil)
	assert.Error(t, err)
	assert.False(t, ok)
	assert.EqualValues(t, 2, calls.Load(), "open breaker must not call through")

	healthy.Store(true)
	time.Sleep(40 * time.Millisecond)
	ok, err = b.Deliver(ctx, payload{}, nil)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "closed", b.State())
}
