// Package upstream forwards requests to the clause generation and risk analysis service.
package upstream

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

	"github.com/hyperjump/clausekit/internal/config"
	"go.uber.org/zap"
)

// ErrUpstream is returned when the service is unreachable, errors, or times out
// on every attempt.
var ErrUpstream = errors.New("upstream service error")

const maxResponseBytes = 10 << 20

// Paths on the upstream service.
const (
	PathGenerateClause = "/generate-clause"
	PathAnalyzeRisk    = "/analyze-risk"
)

// Client posts JSON bodies to the upstream service with a per-attempt timeout and
// a bounded number of retries.
type Client struct {
	baseURL    string
	timeout    time.Duration
	retries    int
	retryDelay time.Duration
	http       *http.Client
	logger     *zap.Logger
}

// NewClient returns a client for cfg.
func NewClient(cfg config.UpstreamConfig, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		timeout:    cfg.Timeout,
		retries:    cfg.RetriesOrDefault(),
		retryDelay: 200 * time.Millisecond,
		http:       &http.Client{},
		logger:     logger,
	}
}

// statusError is a non-2xx upstream response.
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("status %d", e.code)
}

// retryable reports whether another attempt may succeed.
func retryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.code >= 500
	}
	return true
}

// Forward posts body to path and returns the response body. The response must be a
// 2xx carrying valid JSON. Transport failures, timeouts, and 5xx responses are retried.
func (c *Client) Forward(ctx context.Context, path string, body []byte) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			c.logger.Warn("retrying upstream call",
				zap.String("path", path), zap.Int("attempt", attempt+1), zap.Error(lastErr))
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %s: %w", ErrUpstream, path, ctx.Err())
			case <-time.After(c.retryDelay):
			}
		}
		resp, err := c.do(ctx, path, body)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if ctx.Err() != nil || !retryable(err) {
			break
		}
	}
	return nil, fmt.Errorf("%w: %s: %w", ErrUpstream, path, lastErr)
}

func (c *Client) do(ctx context.Context, path string, body []byte) ([]byte, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	c.logger.Debug("upstream call",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &statusError{code: resp.StatusCode}
	}
	if !json.Valid(data) {
		return nil, errors.New("response is not valid JSON")
	}
	return data, nil
}
