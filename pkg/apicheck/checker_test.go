package apicheck

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/apimon/apimon/pkg/config"
)

func newTestChecker(baseURL string, endpoints []config.EndpointSpec, retries int) *Checker {
	c := NewChecker(
		config.APIConfig{BaseURL: baseURL, Endpoints: endpoints},
		config.MonitoringConfig{Timeout: 2, Retries: retries},
	)
	// No real sleeps between retries in tests.
	c.sleep = func(ctx context.Context, d time.Duration) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			return nil
		}
	}
	return c
}

func TestCheckSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("Expected path /health, got %s", r.URL.Path)
		}
		if r.Method != http.MethodGet {
			t.Errorf("Expected GET, got %s", r.Method)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	checker := newTestChecker(server.URL, nil, 3)
	result := checker.Check(context.Background(), config.EndpointSpec{
		Path:           "/health",
		Method:         "GET",
		ExpectedStatus: 200,
	})

	if !result.Success {
		t.Errorf("Expected success, got error: %s", result.Error)
	}
	if result.StatusCode != 200 {
		t.Errorf("Expected status 200, got %d", result.StatusCode)
	}
	if result.ResponseTimeMs <= 0 {
		t.Errorf("Expected positive response time, got %f", result.ResponseTimeMs)
	}
	if result.URL != server.URL+"/health" {
		t.Errorf("Unexpected URL: %s", result.URL)
	}
}

func TestCheckUnexpectedStatus(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	checker := newTestChecker(server.URL, nil, 3)
	result := checker.Check(context.Background(), config.EndpointSpec{
		Path:           "/health",
		ExpectedStatus: 200,
	})

	if result.Success {
		t.Error("Expected failure for status mismatch")
	}
	if result.Error != "unexpected status code: 500" {
		t.Errorf("Unexpected error message: %s", result.Error)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("Expected 3 attempts, got %d", got)
	}
}

func TestCheckRecoversOnRetry(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	checker := newTestChecker(server.URL, nil, 3)
	result := checker.Check(context.Background(), config.EndpointSpec{
		Path:           "/health",
		ExpectedStatus: 200,
	})

	if !result.Success {
		t.Errorf("Expected success after retries, got error: %s", result.Error)
	}
	if result.Error != "" {
		t.Errorf("Error should be cleared on success, got: %s", result.Error)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("Expected 3 attempts, got %d", got)
	}
}

func TestCheckConnectionError(t *testing.T) {
	// Point at a server that is already closed.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	checker := newTestChecker(server.URL, nil, 2)
	result := checker.Check(context.Background(), config.EndpointSpec{
		Path:           "/health",
		ExpectedStatus: 200,
	})

	if result.Success {
		t.Error("Expected failure for connection error")
	}
	if result.Error == "" {
		t.Error("Expected error message for connection error")
	}
}

func TestCheckDefaultsToGet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("Expected GET for empty method, got %s", r.Method)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	checker := newTestChecker(server.URL, nil, 1)
	result := checker.Check(context.Background(), config.EndpointSpec{
		Path:           "/",
		ExpectedStatus: 200,
	})

	if !result.Success {
		t.Errorf("Expected success, got error: %s", result.Error)
	}
}

func TestCheckAll(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health":
			w.WriteHeader(http.StatusOK)
		case "/items":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusTeapot)
		}
	}))
	defer server.Close()

	endpoints := []config.EndpointSpec{
		{Path: "/health", Method: "GET", ExpectedStatus: 200},
		{Path: "/items", Method: "GET", ExpectedStatus: 200},
	}

	checker := newTestChecker(server.URL, endpoints, 1)
	results := checker.CheckAll(context.Background())

	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
	if !results[0].Success {
		t.Errorf("Expected /health to succeed, got error: %s", results[0].Error)
	}
	if results[1].Success {
		t.Error("Expected /items to fail")
	}
}

func TestCheckAllEmpty(t *testing.T) {
	checker := newTestChecker("http://localhost:1", nil, 1)
	results := checker.CheckAll(context.Background())
	if len(results) != 0 {
		t.Errorf("Expected no results for no endpoints, got %d", len(results))
	}
}

func TestCheckContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	checker := newTestChecker(server.URL, nil, 5)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := checker.Check(ctx, config.EndpointSpec{
		Path:           "/health",
		ExpectedStatus: 200,
	})

	if result.Success {
		t.Error("Expected failure with cancelled context")
	}
}
