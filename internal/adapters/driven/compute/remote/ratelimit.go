package remote

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/mathnb/internal/core/domain"
)

// HeaderRetryAfter is the retry-after header (seconds).
const HeaderRetryAfter = "Retry-After"

// RateLimiter throttles requests to the backend. It combines a proactive
// token bucket with the backoff a 429 response asks for.
type RateLimiter struct {
	mu         sync.Mutex
	bucket     *rate.Limiter
	retryAfter time.Time
}

// NewRateLimiter creates a limiter allowing rps requests per second with
// the given burst. A non-positive rps disables proactive throttling.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		bucket: rate.NewLimiter(limit, burst),
	}
}

// Wait blocks until it's safe to make a request.
func (r *RateLimiter) Wait(ctx context.Context) error {
	if err := r.bucket.Wait(ctx); err != nil {
		return err
	}

	r.mu.Lock()
	retryAfter := r.retryAfter
	r.mu.Unlock()

	if wait := time.Until(retryAfter); wait > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return nil
}

// CheckRateLimit returns an error wrapping domain.ErrRateLimited for a 429
// response and records its Retry-After so later calls back off.
func (r *RateLimiter) CheckRateLimit(resp *http.Response) error {
	if resp == nil || resp.StatusCode != http.StatusTooManyRequests {
		return nil
	}

	until := time.Now()
	if seconds, err := strconv.Atoi(resp.Header.Get(HeaderRetryAfter)); err == nil && seconds > 0 {
		until = until.Add(time.Duration(seconds) * time.Second)
	}

	r.mu.Lock()
	if until.After(r.retryAfter) {
		r.retryAfter = until
	}
	r.mu.Unlock()

	return fmt.Errorf("%w: retry after %s", domain.ErrRateLimited, until.Format(time.RFC3339))
}

// RetryAfter returns the time before which requests are held back.
func (r *RateLimiter) RetryAfter() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.retryAfter
}
