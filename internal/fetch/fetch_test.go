package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

type failingTransport struct {
	attempts atomic.Int32
}

func (t *failingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	t.attempts.Add(1)
	return nil, errors.New("connection refused")
}

func TestGetJSON_TransportFailureExhaustsRetryBudget(t *testing.T) {
	t.Parallel()

	transport := &failingTransport{}
	client := NewClient(Config{
		HTTPClient: &http.Client{Transport: transport},
		MaxRetries: 2,
		Timeout:    time.Minute,
	})
	// Shrink backoff so the test stays fast.
	clientBackoffForTest(client)

	err := client.GetJSON(context.Background(), "http://upstream.invalid/articles", func([]byte) error {
		t.Fatal("decode must not run on transport failure")
		return nil
	})
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if got := transport.attempts.Load(); got != 3 {
		t.Fatalf("expected 1+2 attempts, got %d", got)
	}
}

func TestGetJSON_HTTPStatusIsNotRetried(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(Config{MaxRetries: 3, Timeout: time.Minute, HTTPClient: srv.Client()})

	err := client.GetJSON(context.Background(), srv.URL, func([]byte) error { return nil })
	if !errors.Is(err, ErrHTTPStatus) {
		t.Fatalf("expected http status error, got %v", err)
	}
	if status, ok := StatusCode(err); !ok || status != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d (ok=%v)", status, ok)
	}
	if got := hits.Load(); got != 1 {
		t.Fatalf("expected exactly 1 request, got %d", got)
	}
}

func TestGetJSON_ParseFailureIsRetried(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			_, _ = w.Write([]byte(`{"data": truncated`))
			return
		}
		_, _ = w.Write([]byte(`{"data": []}`))
	}))
	defer srv.Close()

	client := NewClient(Config{MaxRetries: 3, Timeout: time.Minute, HTTPClient: srv.Client()})
	clientBackoffForTest(client)

	err := client.GetJSON(context.Background(), srv.URL, func(raw []byte) error {
		var body map[string]any
		return DecodeJSON(raw, &body)
	})
	if err != nil {
		t.Fatalf("expected recovery on second attempt, got %v", err)
	}
	if got := hits.Load(); got != 2 {
		t.Fatalf("expected 2 requests, got %d", got)
	}
}

func TestGetJSON_ValidationFailureIsNotRetried(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`{"data": {}}`))
	}))
	defer srv.Close()

	client := NewClient(Config{MaxRetries: 3, Timeout: time.Minute, HTTPClient: srv.Client()})

	err := client.GetJSON(context.Background(), srv.URL, func([]byte) error {
		return NewValidationError("article", Violation{Field: "id", Constraint: "required"})
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	details, ok := ValidationDetails(err)
	if !ok || len(details.Violations) != 1 || details.Violations[0].Field != "id" {
		t.Fatalf("expected structured diagnostics, got %+v (ok=%v)", details, ok)
	}
	if got := hits.Load(); got != 1 {
		t.Fatalf("expected exactly 1 request, got %d", got)
	}
}

func TestGetJSON_BudgetElapsedIsTimeoutKind(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := NewClient(Config{MaxRetries: 3, Timeout: 50 * time.Millisecond, HTTPClient: srv.Client()})

	err := client.GetJSON(context.Background(), srv.URL, func([]byte) error { return nil })
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected timeout error, got %v", err)
	}
	if errors.Is(err, ErrTransport) {
		t.Fatal("timeout must not be folded into the transport kind")
	}
}

func TestGetJSON_CallerCancellationPassesThrough(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	client := NewClient(Config{MaxRetries: 0, Timeout: time.Minute, HTTPClient: srv.Client()})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	err := client.GetJSON(ctx, srv.URL, func([]byte) error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected caller cancellation, got %v", err)
	}
	if errors.Is(err, ErrTimeout) {
		t.Fatal("caller cancellation must not be reported as a budget timeout")
	}
}

func clientBackoffForTest(c *Client) {
	c.backoff = 5 * time.Millisecond
}
