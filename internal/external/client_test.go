package external

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"holidayguard/internal/types"
)

func newTestClient(opts ...BaseClientOption) *BaseClient {
	return NewBaseClient(&http.Client{Timeout: 5 * time.Second}, "test-breaker", "HolidayGuard-Test/1.0", opts...)
}

func TestDo_SuccessSetsHeaders(t *testing.T) {
	var gotUA, gotReqID, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotReqID = r.Header.Get("X-Request-Id")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ctx := types.WithRequestID(context.Background(), "req-123")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, server.URL, strings.NewReader(`{"a":1}`))
	require.NoError(t, err)

	resp, err := newTestClient().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "HolidayGuard-Test/1.0", gotUA)
	assert.Equal(t, "req-123", gotReqID)
	assert.Equal(t, `{"a":1}`, gotBody)
}

func TestDo_ClientErrorPassesThrough(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	req, _ := http.NewRequest(http.MethodPost, server.URL, nil)
	resp, err := newTestClient().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestDo_ServerErrorReturnsUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	req, _ := http.NewRequest(http.MethodGet, server.URL, nil)
	_, err := newTestClient().Do(req)
	require.Error(t, err)

	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeUpstreamUnavailable, appErr.Code)
	assert.Equal(t, http.StatusServiceUnavailable, appErr.Details["status"])
}

func TestDo_OpenBreakerShortCircuits(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cb := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        "trip-fast",
		Timeout:     time.Minute,
		ReadyToTrip: func(c gobreaker.Counts) bool { return c.ConsecutiveFailures >= 2 },
	})
	client := newTestClient(WithBreaker(cb))

	for i := 0; i < 2; i++ {
		req, _ := http.NewRequest(http.MethodGet, server.URL, nil)
		_, err := client.Do(req)
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, client.BreakerState())

	req, _ := http.NewRequest(http.MethodGet, server.URL, nil)
	_, err := client.Do(req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit breaker is open")
	assert.Equal(t, int32(2), calls.Load())
}

func TestDo_ServerErrorIsAttemptedOnce(t *testing.T) {
	for _, status := range []int{http.StatusBadGateway, http.StatusTooManyRequests} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			var calls atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(status)
			}))
			defer server.Close()

			req, _ := http.NewRequest(http.MethodPost, server.URL, strings.NewReader("payload"))
			_, err := newTestClient().Do(req)

			require.Error(t, err)
			assert.Equal(t, types.ErrCodeUpstreamUnavailable, types.CodeOf(err))
			assert.Equal(t, int32(1), calls.Load())
		})
	}
}

func TestDo_TransportErrorIsAttemptedOnce(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	req, _ := http.NewRequest(http.MethodGet, url, nil)
	_, err := newTestClient().Do(req)

	require.Error(t, err)
	assert.Equal(t, types.ErrCodeUpstreamUnavailable, types.CodeOf(err))
	assert.Contains(t, err.Error(), "upstream request failed")
}
