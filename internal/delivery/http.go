package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rzbill/logship/internal/drain"
	logpkg "github.com/rzbill/logship/pkg/log"
)

// ErrInvalidEndpoint is returned by NewHTTP for an unusable Endpoint.
var ErrInvalidEndpoint = errors.New("delivery: invalid endpoint")

// HeaderFunc computes a header value from host state at send time.
type HeaderFunc func(state drain.State) string

// Endpoint describes where and how items are sent.
type Endpoint struct {
	URI string
	// Headers are sent with every request and override the JSON defaults.
	Headers map[string]string
	// DynamicHeaders are evaluated per request and override Headers.
	DynamicHeaders map[string]HeaderFunc
	// Timeout bounds one request. Zero means 10s.
	Timeout time.Duration
}

// HTTP posts items of type T to an Endpoint.
type HTTP[T any] struct {
	endpoint  Endpoint
	client    *http.Client
	transform func(T) any
	logger    logpkg.Logger
}

// HTTPOption configures an HTTP deliverer.
type HTTPOption[T any] func(*HTTP[T])

// WithClient replaces the default http.Client.
func WithClient[T any](c *http.Client) HTTPOption[T] {
	return func(h *HTTP[T]) { h.client = c }
}

// WithTransform reshapes each item into the request body.
func WithTransform[T any](fn func(T) any) HTTPOption[T] {
	return func(h *HTTP[T]) { h.transform = fn }
}

// WithLogger sets the logger.
func WithLogger[T any](l logpkg.Logger) HTTPOption[T] {
	return func(h *HTTP[T]) { h.logger = l }
}

// NewHTTP returns a deliverer posting to ep.
func NewHTTP[T any](ep Endpoint, opts ...HTTPOption[T]) (*HTTP[T], error) {
	uri := strings.TrimSpace(ep.URI)
	if uri == "" {
		return nil, fmt.Errorf("%w: uri must be a non-empty string", ErrInvalidEndpoint)
	}
	if !strings.HasPrefix(uri, "http://") && !strings.HasPrefix(uri, "https://") {
		return nil, fmt.Errorf("%w: uri %q must use http or https", ErrInvalidEndpoint, uri)
	}
	if ep.Timeout <= 0 {
		ep.Timeout = 10 * time.Second
	}
	ep.URI = uri
	h := &HTTP[T]{
		endpoint: ep,
		client:   &http.Client{Timeout: ep.Timeout},
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = logpkg.NewLogger(logpkg.WithLevel(logpkg.InfoLevel))
	}
	h.logger = h.logger.With(logpkg.Component("delivery"), logpkg.Str("uri", uri))
	return h, nil
}

// Deliver posts item. A 2xx response reports true; any other status reports
// false with a nil error; transport failures return the error.
func (h *HTTP[T]) Deliver(ctx context.Context, item T, state drain.State) (bool, error) {
	var body any = item
	if h.transform != nil {
		body = h.transform(item)
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return false, fmt.Errorf("delivery: encode: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint.URI, bytes.NewReader(payload))
	if err != nil {
		return false, fmt.Errorf("delivery: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Cache-Control", "no-cache")
	for k, v := range h.endpoint.Headers {
		req.Header.Set(k, v)
	}
	for k, fn := range h.endpoint.DynamicHeaders {
		req.Header.Set(k, fn(state))
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("delivery: post: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		h.logger.Warn("endpoint rejected item", logpkg.Int("status", resp.StatusCode))
		return false, nil
	}
	return true, nil
}
