// Package external is the anti-corruption layer between HolidayGuard's domain
// logic and the AWS and HTTP services it calls. Every adapter depends on a
// narrow interface of the SDK client so tests can substitute fakes.
package external

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	"holidayguard/internal/types"
)

// BaseClient wraps an *http.Client with a circuit breaker. Every request is
// attempted once. The breaker lives as long as the client, so in Lambda it
// spans warm invocations.
type BaseClient struct {
	client    *http.Client
	breaker   *gobreaker.CircuitBreaker[*http.Response]
	userAgent string
}

// BaseClientOption is a functional option for configuring a BaseClient.
type BaseClientOption func(*BaseClient)

// WithBreaker replaces the default circuit breaker.
func WithBreaker(cb *gobreaker.CircuitBreaker[*http.Response]) BaseClientOption {
	return func(c *BaseClient) {
		c.breaker = cb
	}
}

// NewBreaker returns the breaker used by default: it opens after more than
// five consecutive failures and probes again after Timeout.
func NewBreaker(name string) *gobreaker.CircuitBreaker[*http.Response] {
	return gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	})
}

// NewBaseClient creates a BaseClient.
func NewBaseClient(httpClient *http.Client, breakerName, userAgent string, opts ...BaseClientOption) *BaseClient {
	bc := &BaseClient{
		client:    httpClient,
		breaker:   NewBreaker(breakerName),
		userAgent: userAgent,
	}
	for _, opt := range opts {
		opt(bc)
	}
	return bc
}

// BreakerState exposes the breaker state for health reporting.
func (c *BaseClient) BreakerState() gobreaker.State {
	return c.breaker.State()
}

// Do executes the request once through the breaker. 429 and 5xx responses
// and transport errors count as breaker failures and come back as an
// *types.AppError with an upstream code, as does an open breaker. Other
// responses are returned as-is and the caller closes the body.
func (c *BaseClient) Do(req *http.Request) (*http.Response, error) {
	if id := types.GetRequestID(req.Context()); id != "" {
		req.Header.Set("X-Request-Id", id)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.breaker.Execute(func() (*http.Response, error) {
		r, doErr := c.client.Do(req)
		if doErr != nil {
			return nil, doErr
		}
		if r.StatusCode >= 500 || r.StatusCode == http.StatusTooManyRequests {
			return r, fmt.Errorf("upstream returned %d", r.StatusCode)
		}
		return r, nil
	})
	if err == nil {
		return resp, nil
	}

	if resp != nil {
		resp.Body.Close()
	}
	return nil, c.mapError(resp, err)
}

func (c *BaseClient) mapError(resp *http.Response, err error) *types.AppError {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return types.NewAppError(types.ErrCodeUpstreamUnavailable,
			"circuit breaker is open; upstream considered unavailable", err)
	}
	if resp != nil {
		return types.NewAppErrorWithDetails(types.ErrCodeUpstreamUnavailable,
			fmt.Sprintf("upstream returned %d", resp.StatusCode), err,
			map[string]any{"status": resp.StatusCode})
	}
	return types.NewAppError(types.ErrCodeUpstreamUnavailable, "upstream request failed", err)
}
