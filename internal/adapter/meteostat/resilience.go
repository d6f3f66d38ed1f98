package meteostat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"
	"github.com/sony/gobreaker"
)

// Backoff controls exponential retry delays.
type Backoff struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

var (
	errRateLimited = errors.New("rate limited")
	errServerError = errors.New("server error")
	errCircuitOpen = errors.New("circuit breaker open")
)

// retryable reports whether a failed attempt may be repeated.
func retryable(err error) bool {
	return !errors.Is(err, errCircuitOpen) && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// do executes a GET through the circuit breaker, retrying transport errors,
// 429 and 5xx responses with exponential backoff. Client errors (4xx other
// than 429) are returned as responses and do not count against the breaker.
// The caller owns the returned body.
func (c *Client) do(ctx context.Context, newRequest func(context.Context) (*http.Request, error)) (*http.Response, error) {
	var lastErr error
	delay := c.backoff.InitialInterval
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := newRequest(ctx)
		if err != nil {
			return nil, err
		}

		result, err := c.breaker.Execute(func() (interface{}, error) {
			resp, err := c.httpClient.Do(req)
			if err != nil {
				return nil, err
			}
			switch {
			case resp.StatusCode == http.StatusTooManyRequests:
				drain(resp)
				return nil, errRateLimited
			case resp.StatusCode >= 500:
				drain(resp)
				return nil, fmt.Errorf("%w: status %d", errServerError, resp.StatusCode)
			}
			return resp, nil
		})
		c.recordBreakerState()

		if err == nil {
			return result.(*http.Response), nil //nolint:forcetypeassert // only *http.Response is returned above
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %w", errCircuitOpen, err)
		}

		lastErr = err
		if attempt >= c.backoff.MaxRetries || !retryable(err) {
			return nil, lastErr
		}

		c.logger.Debug("meteostat request retry", "attempt", attempt+1, "delay", delay, "error", err)
		if !retry.SleepWithContext(ctx, delay) {
			return nil, ctx.Err()
		}
		delay = c.nextDelay(delay)
	}
}

func (c *Client) nextDelay(current time.Duration) time.Duration {
	if c.backoff.MaxInterval <= 0 {
		return current * 2
	}
	return retry.NextBackoff(current, c.backoff.MaxInterval)
}

func (c *Client) recordBreakerState() {
	c.metrics.BreakerState.WithLabelValues(c.breaker.Name()).Set(float64(c.breaker.State()))
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	_ = resp.Body.Close()
}
