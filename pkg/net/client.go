package net

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"net/http"
	"strconv"
	"time"

	"github.com/sony/gobreaker/v2"
)

const (
	maxIdleConns     = 10
	timeoutInSeconds = 60

	// DefaultUserAgent identifies the client to the weather APIs.
	DefaultUserAgent = "rimecast (+https://github.com/mchmarny/rimecast)"
)

var (
	// ErrCircuitOpen is returned when the breaker rejects a request without
	// sending it.
	ErrCircuitOpen = errors.New("circuit breaker is open")

	// ErrRetriesExhausted is returned when every attempt failed with a
	// retryable error.
	ErrRetriesExhausted = errors.New("retries exhausted")

	reqTransport = &http.Transport{
		MaxIdleConns:          maxIdleConns,
		IdleConnTimeout:       timeoutInSeconds * time.Second,
		DisableKeepAlives:     false,
		ResponseHeaderTimeout: time.Duration(timeoutInSeconds) * time.Second,
	}
)

// RetryPolicy configures how failed requests are retried.
type RetryPolicy struct {
	MaxRetries int
	MinWait    time.Duration
	MaxWait    time.Duration
}

// DefaultRetryPolicy returns the policy used for weather API calls.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 3,
		MinWait:    time.Second,
		MaxWait:    30 * time.Second,
	}
}

// Client sends HTTP requests through a circuit breaker, retrying on 429 and
// 5xx responses and on transport errors.
type Client struct {
	http      *http.Client
	breaker   *gobreaker.CircuitBreaker[*http.Response]
	policy    RetryPolicy
	userAgent string
	sleep     func(context.Context, time.Duration) error
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithRetryPolicy replaces the retry policy.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *Client) {
		c.policy = p
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithSleepFunc overrides the wait between retries. Tests use it to avoid
// real delays.
func WithSleepFunc(fn func(context.Context, time.Duration) error) Option {
	return func(c *Client) {
		c.sleep = fn
	}
}

// NewClient creates a Client whose breaker is identified by name.
func NewClient(name string, opts ...Option) *Client {
	c := &Client{
		http: &http.Client{
			Timeout:   time.Duration(timeoutInSeconds) * time.Second,
			Transport: reqTransport,
		},
		policy:    DefaultRetryPolicy(),
		userAgent: DefaultUserAgent,
		sleep:     sleepContext,
	}

	for _, opt := range opts {
		opt(c)
	}

	c.breaker = gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	})

	return c
}

// Do executes req. Responses other than 429 and 5xx are returned as-is and
// the caller must close the body. Requests must not carry a body.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	ctx := req.Context()
	attempts := 1 + max(0, c.policy.MaxRetries)
	var lastErr error

	for attempt := 0; attempt < attempts; attempt++ {
		resp, err := c.breaker.Execute(func() (*http.Response, error) {
			r, doErr := c.http.Do(req) //nolint:gosec // URL built by internal callers
			if doErr != nil {
				return nil, redactError(doErr, req.URL)
			}
			if r.StatusCode >= http.StatusInternalServerError || r.StatusCode == http.StatusTooManyRequests {
				return r, &StatusError{Code: r.StatusCode, Status: r.Status, URL: RedactURL(req.URL)}
			}
			return r, nil
		})

		if err == nil {
			dumpResponse(ctx, resp)
			return resp, nil
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %s: %w", ErrCircuitOpen, c.breaker.Name(), err)
		}

		if ctx.Err() != nil {
			if resp != nil {
				resp.Body.Close()
			}
			return nil, fmt.Errorf("request canceled: %w", ctx.Err())
		}

		lastErr = err
		wait := c.backoff(attempt, resp)
		if resp != nil {
			resp.Body.Close()
		}

		if attempt == attempts-1 {
			break
		}

		slog.Debug("retrying request",
			"url", RedactURL(req.URL),
			"attempt", attempt+1,
			"wait", wait.String(),
			"error", err,
		)

		if err := c.sleep(ctx, wait); err != nil {
			return nil, fmt.Errorf("request canceled: %w", err)
		}
	}

	return nil, fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, attempts, lastErr)
}

// backoff returns the wait before the next attempt. Retry-After wins when
// present, otherwise the wait grows exponentially with jitter, clamped to
// [MinWait, MaxWait].
func (c *Client) backoff(attempt int, resp *http.Response) time.Duration {
	p := c.policy
	if resp != nil {
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if seconds, err := strconv.Atoi(ra); err == nil && seconds > 0 {
				return min(time.Duration(seconds)*time.Second, p.MaxWait)
			}
			if t, err := http.ParseTime(ra); err == nil {
				wait := time.Until(t)
				if wait <= 0 {
					return p.MinWait
				}
				return min(wait, p.MaxWait)
			}
		}
	}

	ceiling := math.Min(float64(p.MinWait)*math.Pow(2, float64(attempt)), float64(p.MaxWait))
	floor := float64(p.MinWait)
	if ceiling <= floor {
		return p.MinWait
	}
	return time.Duration(floor + rand.Float64()*(ceiling-floor))
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
