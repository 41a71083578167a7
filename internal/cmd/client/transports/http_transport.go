// Package transports provides pluggable transport implementations for the CLI.
package transports

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// HTTPTransport implements ShipperTransport over the JSON gateway.
type HTTPTransport struct {
	baseURL string
	client  *http.Client
}

// NewHTTPTransport constructs a transport for baseURL. A nil client means
// http.DefaultClient.
func NewHTTPTransport(baseURL string, client *http.Client) *HTTPTransport {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPTransport{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (t *HTTPTransport) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, t.baseURL+path, rd)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return t.client.Do(req)
}

// statusError reads the gateway's {"error": ...} body into an error.
func statusError(resp *http.Response) error {
	var e struct {
		Error string `json:"error"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&e)
	if e.Error != "" {
		return fmt.Errorf("%s: %s", resp.Status, e.Error)
	}
	return fmt.Errorf("unexpected status %s", resp.Status)
}

// Send posts an event via HTTP.
func (t *HTTPTransport) Send(ctx context.Context, event, state map[string]any) error {
	resp, err := t.do(ctx, http.MethodPost, "/v1/events", map[string]any{"event": event, "state": state})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		return statusError(resp)
	}
	return nil
}

// Capture posts an action via HTTP.
func (t *HTTPTransport) Capture(ctx context.Context, action any, state map[string]any) (bool, error) {
	resp, err := t.do(ctx, http.MethodPost, "/v1/actions", map[string]any{"action": action, "state": state})
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusAccepted:
		return true, nil
	case http.StatusNoContent:
		return false, nil
	}
	return false, statusError(resp)
}

// Peek reads the head event via HTTP.
func (t *HTTPTransport) Peek(ctx context.Context) (map[string]any, bool, error) {
	resp, err := t.do(ctx, http.MethodGet, "/v1/queue/peek", nil)
	if err != nil {
		return nil, false, err
	}
	defer resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusNoContent:
		return nil, false, nil
	case http.StatusOK:
	default:
		return nil, false, statusError(resp)
	}
	var ev map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&ev); err != nil {
		return nil, false, err
	}
	return ev, true, nil
}

// Stats reads queue stats via HTTP.
func (t *HTTPTransport) Stats(ctx context.Context) (Stats, error) {
	resp, err := t.do(ctx, http.MethodGet, "/v1/queue/stats", nil)
	if err != nil {
		return Stats{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Stats{}, statusError(resp)
	}
	var s Stats
	err = json.NewDecoder(resp.Body).Decode(&s)
	return s, err
}

// Drain triggers a synchronous drain via HTTP.
func (t *HTTPTransport) Drain(ctx context.Context, state map[string]any) (int, error) {
	resp, err := t.do(ctx, http.MethodPost, "/v1/drain", map[string]any{"state": state})
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	var out struct {
		Delivered int    `json:"delivered"`
		Error     string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("unexpected status %s", resp.Status)
	}
	if resp.StatusCode != http.StatusOK {
		return out.Delivered, fmt.Errorf("%s: %s", resp.Status, out.Error)
	}
	return out.Delivered, nil
}
