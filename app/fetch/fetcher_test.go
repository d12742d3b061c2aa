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

func TestFetchSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "test-agent/1.0" {
			t.Errorf("Expected configured user agent, got: %s", r.Header.Get("User-Agent"))
		}
		w.Write([]byte("<rss></rss>"))
	}))
	defer server.Close()

	client := NewClient(Options{UserAgent: "test-agent/1.0"})

	body, err := client.Fetch(context.Background(), server.URL, RequestOptions{})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if string(body) != "<rss></rss>" {
		t.Errorf("Expected body '<rss></rss>', got: %s", string(body))
	}
}

func TestFetchForbiddenIsNotRetried(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := NewClient(Options{UserAgent: "test-agent/1.0"})

	_, err := client.Fetch(context.Background(), server.URL, RequestOptions{})

	var fetchErr *Error
	if !errors.As(err, &fetchErr) {
		t.Fatalf("Expected typed fetch error, got: %v", err)
	}
	if !fetchErr.Forbidden() {
		t.Errorf("Expected Forbidden(), got kind=%s status=%d", fetchErr.Kind, fetchErr.StatusCode)
	}
	if got := atomic.LoadInt32(&attempts); got != 1 {
		t.Errorf("Expected exactly 1 attempt for a 403, got: %d", got)
	}
}

func TestFetchNotFoundIsTerminal(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(Options{UserAgent: "test-agent/1.0"})

	_, err := client.Fetch(context.Background(), server.URL, RequestOptions{})

	var fetchErr *Error
	if !errors.As(err, &fetchErr) {
		t.Fatalf("Expected typed fetch error, got: %v", err)
	}
	if fetchErr.Kind != KindHTTPStatus || fetchErr.StatusCode != http.StatusNotFound {
		t.Errorf("Expected HTTP 404 error, got kind=%s status=%d", fetchErr.Kind, fetchErr.StatusCode)
	}
	if got := atomic.LoadInt32(&attempts); got != 1 {
		t.Errorf("Expected exactly 1 attempt for a 404, got: %d", got)
	}
}

func TestFetchServerErrorIsRetried(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("recovered"))
	}))
	defer server.Close()

	client := NewClient(Options{UserAgent: "test-agent/1.0"})

	body, err := client.Fetch(context.Background(), server.URL, RequestOptions{})
	if err != nil {
		t.Fatalf("Expected retries to recover, got: %v", err)
	}
	if string(body) != "recovered" {
		t.Errorf("Expected body 'recovered', got: %s", string(body))
	}
	if got := atomic.LoadInt32(&attempts); got != 3 {
		t.Errorf("Expected 3 attempts, got: %d", got)
	}
}

func TestFetchTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	defer server.Close()

	client := NewClient(Options{UserAgent: "test-agent/1.0"})

	_, err := client.Fetch(context.Background(), server.URL, RequestOptions{Timeout: 100 * time.Millisecond})

	var fetchErr *Error
	if !errors.As(err, &fetchErr) {
		t.Fatalf("Expected typed fetch error, got: %v", err)
	}
	if fetchErr.Kind != KindTimeout {
		t.Errorf("Expected timeout error kind, got: %s", fetchErr.Kind)
	}
}

func TestFetchTimeoutIsRetried(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) == 1 {
			time.Sleep(time.Second)
			return
		}
		w.Write([]byte("<rss></rss>"))
	}))
	defer server.Close()

	client := NewClient(Options{UserAgent: "test-agent/1.0"})

	// The timeout bounds each attempt, not the whole call: a slow first
	// attempt must leave budget for the retries
	body, err := client.Fetch(context.Background(), server.URL, RequestOptions{Timeout: 200 * time.Millisecond})
	if err != nil {
		t.Fatalf("Expected a retry to recover from a slow first attempt, got: %v", err)
	}
	if string(body) != "<rss></rss>" {
		t.Errorf("Expected body '<rss></rss>', got: %s", string(body))
	}
	if got := atomic.LoadInt32(&attempts); got < 2 {
		t.Errorf("Expected at least 2 attempts, got: %d", got)
	}
}

func TestFetchConnectionFailure(t *testing.T) {
	client := NewClient(Options{UserAgent: "test-agent/1.0"})

	// Nothing listens on port 1
	_, err := client.Fetch(context.Background(), "http://127.0.0.1:1", RequestOptions{Timeout: 2 * time.Second})

	var fetchErr *Error
	if !errors.As(err, &fetchErr) {
		t.Fatalf("Expected typed fetch error, got: %v", err)
	}
	if fetchErr.Kind != KindConnectionFailed && fetchErr.Kind != KindTimeout {
		t.Errorf("Expected connection failure or timeout, got: %s", fetchErr.Kind)
	}
}

func TestFetchTLSInsecureOption(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	client := NewClient(Options{UserAgent: "test-agent/1.0"})

	// Strict client must reject the self-signed certificate
	if _, err := client.Fetch(context.Background(), server.URL, RequestOptions{}); err == nil {
		t.Error("Expected certificate verification failure with strict client")
	}

	// Relaxed client accepts it
	body, err := client.Fetch(context.Background(), server.URL, RequestOptions{TLSInsecure: true})
	if err != nil {
		t.Fatalf("Expected relaxed client to succeed, got: %v", err)
	}
	if string(body) != "ok" {
		t.Errorf("Expected body 'ok', got: %s", string(body))
	}
}
