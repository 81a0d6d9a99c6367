// Package apicheck probes configured HTTP API endpoints and records
// per-endpoint availability results.
package apicheck

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/apimon/apimon/pkg/config"
	urlutil "github.com/apimon/apimon/pkg/util/url"
)

// retryDelay is the pause between attempts on the same endpoint.
const retryDelay = time.Second

// Result is the outcome of probing one endpoint.
type Result struct {
	URL            string    `json:"url" yaml:"url"`
	Method         string    `json:"method" yaml:"method"`
	Timestamp      time.Time `json:"timestamp" yaml:"timestamp"`
	Success        bool      `json:"success" yaml:"success"`
	StatusCode     int       `json:"statusCode,omitempty" yaml:"statusCode,omitempty"`
	ResponseTimeMs float64   `json:"responseTimeMs,omitempty" yaml:"responseTimeMs,omitempty"`
	Error          string    `json:"error,omitempty" yaml:"error,omitempty"`
}

// Checker probes the endpoints of a single API base URL.
type Checker struct {
	baseURL   string
	endpoints []config.EndpointSpec
	timeout   time.Duration
	retries   int
	client    *http.Client

	// sleep is swapped out in tests to avoid real delays.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewChecker creates a checker from the API and monitoring configuration.
func NewChecker(api config.APIConfig, mon config.MonitoringConfig) *Checker {
	return &Checker{
		baseURL:   api.BaseURL,
		endpoints: api.Endpoints,
		timeout:   time.Duration(mon.Timeout) * time.Second,
		retries:   mon.Retries,
		client:    &http.Client{},
		sleep:     sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Check probes a single endpoint, retrying with a fixed delay until an
// attempt succeeds or the retry budget is exhausted. The returned result
// carries the last error on failure.
func (c *Checker) Check(ctx context.Context, endpoint config.EndpointSpec) Result {
	method := endpoint.Method
	if method == "" {
		method = http.MethodGet
	}

	timeout := c.timeout
	if endpoint.Timeout > 0 {
		timeout = time.Duration(endpoint.Timeout) * time.Second
	}

	url := urlutil.JoinEndpoint(c.baseURL, endpoint.Path)

	result := Result{
		URL:       url,
		Method:    method,
		Timestamp: time.Now(),
	}

	for attempt := 0; attempt < c.retries; attempt++ {
		status, elapsed, err := c.attempt(ctx, method, url, timeout)
		if err != nil {
			result.Error = err.Error()
		} else {
			result.StatusCode = status
			result.ResponseTimeMs = float64(elapsed) / float64(time.Millisecond)
			if status == endpoint.ExpectedStatus {
				result.Success = true
				result.Error = ""
				break
			}
			result.Error = fmt.Sprintf("unexpected status code: %d", status)
		}

		if attempt < c.retries-1 {
			if err := c.sleep(ctx, retryDelay); err != nil {
				result.Error = err.Error()
				break
			}
		}
	}

	if result.Success {
		log.Info().
			Str("url", url).
			Float64("response_time_ms", result.ResponseTimeMs).
			Msg("Endpoint is UP")
	} else {
		log.Error().
			Str("url", url).
			Str("error", result.Error).
			Msg("Endpoint is DOWN")
	}

	return result
}

func (c *Checker) attempt(ctx context.Context, method, url string, timeout time.Duration) (int, time.Duration, error) {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, method, url, nil)
	if err != nil {
		return 0, 0, err
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		return 0, elapsed, err
	}
	defer resp.Body.Close()

	return resp.StatusCode, elapsed, nil
}

// CheckAll probes every configured endpoint sequentially, returning
// results in configuration order.
func (c *Checker) CheckAll(ctx context.Context) []Result {
	results := make([]Result, 0, len(c.endpoints))
	for _, endpoint := range c.endpoints {
		results = append(results, c.Check(ctx, endpoint))
	}
	return results
}
