package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"holidayguard/internal/blackout"
	"holidayguard/internal/resource"
	"holidayguard/internal/restart"
	"holidayguard/internal/types"
)

var testNow = time.Date(2026, 9, 20, 10, 0, 0, 0, time.UTC)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	logger := testLogger()
	movable := blackout.NewResolver(nil, blackout.ResolverConfig{}, logger)

	s, err := NewServer(logger, blackout.DefaultCatalogue(movable), movable,
		resource.NewResolver(nil, logger), restart.DefaultCalculator())
	require.NoError(t, err)
	s.Clock = types.FixedClock{T: testNow}
	s.MountRoutes()
	return s
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeData[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var env struct {
		Data T `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env.Data
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorDetail {
	t.Helper()
	var env APIErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env.Error
}

func TestNewServer_RequiresDependencies(t *testing.T) {
	logger := testLogger()
	movable := blackout.NewResolver(nil, blackout.ResolverConfig{}, logger)
	cat := blackout.DefaultCatalogue(movable)
	ids := resource.NewResolver(nil, logger)

	_, err := NewServer(nil, cat, movable, ids, restart.DefaultCalculator())
	assert.Error(t, err)
	_, err = NewServer(logger, nil, movable, ids, restart.DefaultCalculator())
	assert.Error(t, err)
	_, err = NewServer(logger, cat, nil, ids, restart.DefaultCalculator())
	assert.Error(t, err)
	_, err = NewServer(logger, cat, movable, nil, restart.DefaultCalculator())
	assert.Error(t, err)
}

func TestHandleGetBlackouts(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/v1/blackouts/2026", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	got := decodeData[BlackoutsResponse](t, rec)
	assert.Equal(t, 2026, got.Year)
	require.Len(t, got.Intervals, 2)

	labels := []string{got.Intervals[0].Label, got.Intervals[1].Label}
	assert.ElementsMatch(t, []string{blackout.LabelNationalDay, blackout.LabelSpringFestival}, labels)

	assert.Equal(t, blackout.OriginBuiltin, got.Movable.Origin)
	assert.Equal(t, blackout.WriteBackSkipped, got.Movable.WriteBack)
	assert.Equal(t, "/spring-festival/2026", got.Movable.Parameter)
	// Feb 17 00:00 civil.
	assert.Equal(t, time.Date(2026, 2, 16, 16, 0, 0, 0, time.UTC), got.Movable.Interval.Start)
}

func TestHandleGetBlackouts_InvalidYear(t *testing.T) {
	s := newTestServer(t)
	for _, path := range []string{"/v1/blackouts/abc", "/v1/blackouts/1900", "/v1/blackouts/99999"} {
		rec := do(t, s, http.MethodGet, path, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
		assert.Equal(t, string(types.ErrCodeValidationYear), decodeError(t, rec).Code, path)
	}
}

func TestHandleCheckConflict(t *testing.T) {
	s := newTestServer(t)

	t.Run("overlapping window", func(t *testing.T) {
		rec := do(t, s, http.MethodPost, "/v1/conflicts",
			`{"start":"2026-10-03T02:00:00Z","end":"2026-10-03T06:00:00Z"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		got := decodeData[ConflictResponse](t, rec)
		assert.True(t, got.Conflict.Overlaps)
		assert.Equal(t, 2026, got.Conflict.Year)
		require.Len(t, got.Conflict.Matched, 1)
		assert.Equal(t, blackout.LabelNationalDay, got.Conflict.Matched[0].Label)
		assert.Equal(t, types.ActionEarlyRestart, got.Action)
		require.NotNil(t, got.RestartTime)
		assert.Equal(t, time.Date(2026, 9, 21, 4, 0, 0, 0, time.UTC), *got.RestartTime)
		assert.Equal(t, 12, got.DaysUntil)
	})

	t.Run("clear window", func(t *testing.T) {
		rec := do(t, s, http.MethodPost, "/v1/conflicts",
			`{"start":"2026-11-10 02:00:00","end":"2026-11-10 06:00:00"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		got := decodeData[ConflictResponse](t, rec)
		assert.False(t, got.Conflict.Overlaps)
		assert.Equal(t, types.ActionNoActionNeeded, got.Action)
		assert.Nil(t, got.RestartTime)
	})
}

func TestHandleCheckConflict_Errors(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name     string
		body     string
		wantCode types.ErrorCode
	}{
		{"missing end", `{"start":"2026-10-03T02:00:00Z"}`, types.ErrCodeValidationMissingField},
		{"inverted", `{"start":"2026-10-04T00:00:00Z","end":"2026-10-03T00:00:00Z"}`, types.ErrCodeValidationTimeWindow},
		{"bad format", `{"start":"next tuesday","end":"2026-10-03T00:00:00Z"}`, types.ErrCodeValidationTimeFormat},
		{"unknown field", `{"start":"2026-10-03","end":"2026-10-04","zone":"UTC"}`, errCodeValidationInvalidJSON},
		{"malformed", `{"start":`, errCodeValidationInvalidJSON},
		{"empty", ``, errCodeValidationInvalidJSON},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/v1/conflicts", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, string(tt.wantCode), decodeError(t, rec).Code)
		})
	}
}

func TestHandleResolveIdentity(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name       string
		identifier string
		kind       string
		identity   types.ResourceIdentity
		resolved   bool
	}{
		{
			name:       "service arn",
			identifier: "arn:aws:ecs:us-east-1:111:service/prod-cluster/checkout-svc",
			kind:       "service",
			identity:   types.ResourceIdentity{Cluster: "prod-cluster", Service: "checkout-svc"},
			resolved:   true,
		},
		{
			name:       "pair form",
			identifier: "prod-cluster|checkout-svc",
			kind:       "pair",
			identity:   types.ResourceIdentity{Cluster: "prod-cluster", Service: "checkout-svc"},
			resolved:   true,
		},
		{
			name:       "free text",
			identifier: "i-0abc123",
			kind:       "unknown",
			identity:   types.SentinelIdentity(),
			resolved:   false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/v1/identities", `{"identifier":"`+tt.identifier+`"}`)
			require.Equal(t, http.StatusOK, rec.Code)

			got := decodeData[IdentityResponse](t, rec)
			assert.Equal(t, tt.kind, got.Kind)
			assert.Equal(t, tt.identity, got.Identity)
			assert.Equal(t, tt.resolved, got.Resolved)
		})
	}

	rec := do(t, s, http.MethodPost, "/v1/identities", `{"identifier":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	detail := decodeError(t, rec)
	assert.Equal(t, string(types.ErrCodeValidationMissingField), detail.Code)
	assert.Contains(t, detail.Details["fields"], "identifier")
}

func TestHandleHealth(t *testing.T) {
	t.Run("no probes", func(t *testing.T) {
		rec := do(t, newTestServer(t), http.MethodGet, "/health", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
	})

	t.Run("failing probe", func(t *testing.T) {
		s := newTestServer(t)
		s.HealthProbes = []HealthProbe{
			ProbeFunc{ProbeName: "catalogue", Fn: func(context.Context) error { return nil }},
			ProbeFunc{ProbeName: "parameter_store", Fn: func(context.Context) error { return errors.New("throttled") }},
		}
		rec := do(t, s, http.MethodGet, "/health", "")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

		var body healthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "healthy", body.Components["catalogue"].Status)
		assert.Equal(t, "throttled", body.Components["parameter_store"].Message)
	})

	t.Run("panicking probe", func(t *testing.T) {
		s := newTestServer(t)
		s.HealthProbes = []HealthProbe{
			ProbeFunc{ProbeName: "boom", Fn: func(context.Context) error { panic("nil map") }},
		}
		rec := do(t, s, http.MethodGet, "/health", "")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Body.String(), "probe panicked")
	})
}
