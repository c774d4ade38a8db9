// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared by the external clients.
// Implements: prd003-model-gateway R5; prd002-literature R4.
package httputil

import (
	"context"
	"io"
	"math/rand"
	"net/http"
	"strconv"
	"time"
)

// Policy describes the retry discipline for one external client: how many
// attempts to make, how backoff grows, and which HTTP statuses are
// transient. The same policy type is shared by the model gateway and the
// literature client, parameterized per client.
type Policy struct {
	// MaxAttempts is the total number of attempts, the first included.
	MaxAttempts int

	// BaseDelay is the first backoff duration; it doubles each attempt.
	// Tests set this to a few microseconds to avoid real sleeps.
	BaseDelay time.Duration

	// MaxDelay caps the computed backoff before jitter.
	MaxDelay time.Duration

	// Retryable reports whether an HTTP status is worth another attempt.
	// When nil, DefaultRetryable is used.
	Retryable func(status int) bool
}

// DefaultRetryable treats HTTP 429 and all 5xx responses as transient.
func DefaultRetryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

// DefaultPolicy returns the retry policy shared by the external clients:
// maxAttempts bounded attempts, 1s base delay doubling to at most 30s.
func DefaultPolicy(maxAttempts int) Policy {
	if maxAttempts <= 0 {
		maxAttempts = 4
	}
	return Policy{
		MaxAttempts: maxAttempts,
		BaseDelay:   time.Second,
		MaxDelay:    30 * time.Second,
	}
}

// Backoff returns the wait before retry number attempt (0-based): an
// exponential delay with up to 50% random jitter. A server-supplied
// Retry-After duration, when positive, takes precedence over the
// exponential schedule but still receives jitter.
func (p Policy) Backoff(attempt int, retryAfter time.Duration) time.Duration {
	d := p.BaseDelay << uint(attempt)
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	if retryAfter > 0 {
		d = retryAfter
	}
	if d <= 0 {
		return 0
	}
	return d + time.Duration(rand.Int63n(int64(d)/2+1))
}

// RetryAfter parses a Retry-After response header as either a delay in
// seconds or an HTTP date. It returns 0 when the header is absent or
// unparseable.
func RetryAfter(resp *http.Response) time.Duration {
	v := resp.Header.Get("Retry-After")
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// DoWithRetry executes an HTTP request under the policy. Transport errors
// and retryable statuses trigger backoff and another attempt; bodies of
// discarded responses are drained and closed first. Requests with a body
// must carry GetBody so the body can be replayed. After the final attempt
// the last response (or transport error) is returned as-is so the caller
// can classify it.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, p Policy) (*http.Response, error) {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 4
	}
	retryable := p.Retryable
	if retryable == nil {
		retryable = DefaultRetryable
	}

	var lastErr error
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		clone := req.Clone(ctx)
		if attempt > 0 && req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, err
			}
			clone.Body = body
		}

		resp, err := client.Do(clone)
		last := attempt == p.MaxAttempts-1

		if err != nil {
			if last {
				return nil, err
			}
			lastErr = err
			if werr := wait(ctx, p.Backoff(attempt, 0)); werr != nil {
				return nil, werr
			}
			continue
		}

		if !retryable(resp.StatusCode) || last {
			return resp, nil
		}

		retryAfter := RetryAfter(resp)
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		if werr := wait(ctx, p.Backoff(attempt, retryAfter)); werr != nil {
			return nil, werr
		}
	}
	return nil, lastErr
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
