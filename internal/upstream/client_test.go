package upstream

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hyperjump/clausekit/internal/config"
	"go.uber.org/zap"
)

func newTestClient(url string, timeout time.Duration, retries int) *Client {
	c := NewClient(config.UpstreamConfig{BaseURL: url + "/", Timeout: timeout, Retries: &retries}, zap.NewNop())
	c.retryDelay = time.Millisecond
	return c
}

func TestForward_relaysBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != PathGenerateClause {
			t.Errorf("path = %s", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %s", ct)
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != `{"context":"payment terms"}` {
			t.Errorf("body = %s", body)
		}
		_, _ = w.Write([]byte(`{"generated_clause":"Payment is due in 30 days."}`))
	}))
	defer srv.Close()

	got, err := newTestClient(srv.URL, time.Second, 1).Forward(context.Background(), PathGenerateClause, []byte(`{"context":"payment terms"}`))
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	if string(got) != `{"generated_clause":"Payment is due in 30 days."}` {
		t.Errorf("got %s", got)
	}
}

func TestForward_retriesOnceOn5xx(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"risk_analysis":["No obvious risks found"]}`))
	}))
	defer srv.Close()

	got, err := newTestClient(srv.URL, time.Second, 1).Forward(context.Background(), PathAnalyzeRisk, []byte(`{}`))
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
	if string(got) != `{"risk_analysis":["No obvious risks found"]}` {
		t.Errorf("got %s", got)
	}
}

func TestForward_exhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, time.Second, 1).Forward(context.Background(), PathAnalyzeRisk, []byte(`{}`))
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
}

func TestForward_noRetryOn4xx(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, time.Second, 1).Forward(context.Background(), PathGenerateClause, []byte(`{}`))
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestForward_timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	start := time.Now()
	_, err := newTestClient(srv.URL, 50*time.Millisecond, 1).Forward(context.Background(), PathGenerateClause, []byte(`{}`))
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("timeout not enforced, took %s", elapsed)
	}
}

func TestForward_invalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>oops</html>"))
	}))
	defer srv.Close()

	if _, err := newTestClient(srv.URL, time.Second, 0).Forward(context.Background(), PathGenerateClause, []byte(`{}`)); !errors.Is(err, ErrUpstream) {
		t.Errorf("expected ErrUpstream, got %v", err)
	}
}

func TestForward_unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	if _, err := newTestClient(url, time.Second, 1).Forward(context.Background(), PathGenerateClause, []byte(`{}`)); !errors.Is(err, ErrUpstream) {
		t.Errorf("expected ErrUpstream, got %v", err)
	}
}
