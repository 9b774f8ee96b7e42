package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

type scriptedTransport struct {
	requests []*http.Request
	handler  func(n int, w http.ResponseWriter, r *http.Request)
}

func (t *scriptedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	n := len(t.requests)
	t.requests = append(t.requests, req)
	rr := httptest.NewRecorder()
	t.handler(n, rr, req)
	res := rr.Result()
	res.Request = req
	return res, nil
}

func newTestClient(transport *scriptedTransport, auth AuthConfig) *Client {
	cfg := DefaultClientConfig()
	cfg.BaseURL = "http://harvest.local/v2"
	cfg.Transport = transport
	cfg.Auth = auth
	cfg.RateLimit = 1000
	cfg.RateBurst = 100
	return NewClient(cfg)
}

func TestClient_Unit_AppliesAccountAuth(t *testing.T) {
	transport := &scriptedTransport{
		handler: func(n int, w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{}`))
		},
	}
	client := newTestClient(transport, AccountAuth{AccountID: "12345", Token: "secret"})

	if _, err := client.Get(context.Background(), "company", nil); err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	req := transport.requests[0]
	if got := req.Header.Get("Authorization"); got != "Bearer secret" {
		t.Errorf("Authorization = %q, want Bearer secret", got)
	}
	if got := req.Header.Get("Harvest-Account-Id"); got != "12345" {
		t.Errorf("Harvest-Account-Id = %q, want 12345", got)
	}
}

func TestClient_Unit_RetriesOnRateLimit(t *testing.T) {
	transport := &scriptedTransport{
		handler: func(n int, w http.ResponseWriter, r *http.Request) {
			if n == 0 {
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			w.Write([]byte(`{"ok":true}`))
		},
	}
	client := newTestClient(transport, NoAuth{})

	resp, err := client.Get(context.Background(), "users", nil)
	if err != nil {
		t.Fatalf("Get failed after retry: %v", err)
	}
	if !resp.IsSuccess() {
		t.Errorf("expected success status, got %d", resp.StatusCode)
	}
	if len(transport.requests) != 2 {
		t.Errorf("expected 2 attempts, got %d", len(transport.requests))
	}
}

func TestClient_Unit_NoRetryOnClientError(t *testing.T) {
	transport := &scriptedTransport{
		handler: func(n int, w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		},
	}
	client := newTestClient(transport, NoAuth{})

	_, err := client.Get(context.Background(), "missing", nil)
	httpErr, ok := err.(*HTTPError)
	if !ok {
		t.Fatalf("expected *HTTPError, got %v", err)
	}
	if httpErr.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want 404", httpErr.StatusCode)
	}
	if len(transport.requests) != 1 {
		t.Errorf("404 must not be retried, got %d attempts", len(transport.requests))
	}
}
