// Package remote provides a ComputationEngine and an InkRecognizer backed by
// an HTTP service.
//
// The service exposes two JSON endpoints:
//
//	POST /evaluate   {"expression": "x+x"}        -> {"result": "2x"}
//	POST /recognize  {"strokes": [[{"x":0,...}]]} -> {"text": "x+1"}
//
// 422 means the expression is not supported; 429 means the caller is
// being rate limited.
package remote

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

	"github.com/custodia-labs/mathnb/internal/core/domain"
	"github.com/custodia-labs/mathnb/internal/core/ports/driven"
)

// Ensure Client implements the interfaces.
var (
	_ driven.ComputationEngine = (*Client)(nil)
	_ driven.InkRecognizer     = (*Client)(nil)
)

// Default configuration values.
const (
	DefaultTimeout           = 30 * time.Second
	DefaultRequestsPerSecond = 5
	DefaultBurst             = 5
)

// Config holds configuration for the remote backend.
type Config struct {
	// Endpoint is the service base URL. Required.
	Endpoint string

	// Timeout is the per-request timeout (default: 30s).
	Timeout time.Duration

	// RequestsPerSecond throttles outgoing requests (default: 5).
	RequestsPerSecond float64

	// Burst is the number of requests allowed at once (default: 5).
	Burst int
}

// Client talks to the remote CAS and ink service.
type Client struct {
	client  *http.Client
	baseURL string
	limiter *RateLimiter
}

type evaluateRequest struct {
	Expression string `json:"expression"`
}

type evaluateResponse struct {
	Result string `json:"result"`
}

type recognizeRequest struct {
	Strokes [][]domain.Point `json:"strokes"`
}

type recognizeResponse struct {
	Text string `json:"text"`
}

// NewClient creates a client. Returns ErrEngineUnavailable when no endpoint
// is configured.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, fmt.Errorf("%w: no compute endpoint configured", domain.ErrEngineUnavailable)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RequestsPerSecond == 0 {
		cfg.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if cfg.Burst == 0 {
		cfg.Burst = DefaultBurst
	}

	return &Client{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: strings.TrimSuffix(cfg.Endpoint, "/"),
		limiter: NewRateLimiter(cfg.RequestsPerSecond, cfg.Burst),
	}, nil
}

// Evaluate simplifies expr on the remote CAS.
func (c *Client) Evaluate(ctx context.Context, expr string) (string, error) {
	var resp evaluateResponse
	if err := c.post(ctx, "/evaluate", evaluateRequest{Expression: expr}, &resp); err != nil {
		if isStatus(err, http.StatusUnprocessableEntity) {
			return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedExpression, expr)
		}
		return "", err
	}
	return resp.Result, nil
}

// Recognize turns strokes into text on the remote recognizer.
func (c *Client) Recognize(ctx context.Context, strokes domain.StrokesPayload) (string, error) {
	var resp recognizeResponse
	if err := c.post(ctx, "/recognize", recognizeRequest{Strokes: strokes.Strokes}, &resp); err != nil {
		return "", err
	}
	return resp.Text, nil
}

// statusError is a non-2xx response other than 429.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("compute service error (status %d): %s", e.code, e.body)
}

func isStatus(err error, code int) bool {
	var se *statusError
	return errors.As(err, &se) && se.code == code
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrEngineUnavailable, err)
	}
	defer resp.Body.Close()

	if err := c.limiter.CheckRateLimit(resp); err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if err != nil {
			return &statusError{code: resp.StatusCode, body: "failed to read response"}
		}
		return &statusError{code: resp.StatusCode, body: strings.TrimSpace(string(msg))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
