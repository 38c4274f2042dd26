package types

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAppErrorErrorFormat(t *testing.T) {
	appErr := &AppError{
		Code:    ErrCodeValidationMissingField,
		Message: "cluster_name is required",
	}

	expected := "validation_missing_required_field: cluster_name is required"
	if appErr.Error() != expected {
		t.Errorf("Error() = %q, want %q", appErr.Error(), expected)
	}
}

func TestAppErrorErrorFormatWithCause(t *testing.T) {
	appErr := NewAppError(ErrCodeUpstreamRestart, "update service failed", errors.New("throttled"))

	expected := "upstream_restart_failed: update service failed: throttled"
	if appErr.Error() != expected {
		t.Errorf("Error() = %q, want %q", appErr.Error(), expected)
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	underlying := errors.New("connection reset")
	appErr := NewAppError(ErrCodeUpstreamSchedule, "put rule failed", underlying)

	if !errors.Is(appErr, underlying) {
		t.Errorf("errors.Is did not find the underlying error")
	}
}

func TestAppErrorIsMatchesSentinelByCode(t *testing.T) {
	wrapped := fmt.Errorf("reading override: %w",
		NewAppError(ErrCodeNotFoundParameter, "parameter /x/2026 not found", nil))

	if !errors.Is(wrapped, ErrParameterNotFound) {
		t.Fatal("expected wrapped not-found error to match ErrParameterNotFound")
	}
	if errors.Is(wrapped, ErrParameterExists) {
		t.Fatal("not-found error must not match ErrParameterExists")
	}
}

func TestErrorCodeHTTPStatus(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{ErrCodeValidationTimeWindow, http.StatusBadRequest},
		{ErrCodeValidationMissingField, http.StatusBadRequest},
		{ErrCodeResolutionAmbiguous, http.StatusUnprocessableEntity},
		{ErrCodeNotFoundParameter, http.StatusNotFound},
		{ErrCodeConflictParameterExists, http.StatusConflict},
		{ErrCodeUpstreamRestart, http.StatusBadGateway},
		{ErrCodeInternalUnexpected, http.StatusInternalServerError},
		{ErrorCode("something_else"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			if got := tt.code.HTTPStatus(); got != tt.want {
				t.Errorf("HTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestAppErrorWithDetailsDoesNotMutate(t *testing.T) {
	orig := NewAppErrorWithDetails(ErrCodeValidationYear, "bad year", nil, map[string]any{"year": "abc"})
	extended := orig.WithDetails(map[string]any{"source": "cli"})

	if _, ok := orig.Details["source"]; ok {
		t.Error("WithDetails mutated the original error")
	}
	if extended.Details["year"] != "abc" || extended.Details["source"] != "cli" {
		t.Errorf("unexpected merged details: %v", extended.Details)
	}
}

func TestCodeOf(t *testing.T) {
	if got := CodeOf(fmt.Errorf("wrap: %w", NewAppError(ErrCodeUpstreamWebhook, "x", nil))); got != ErrCodeUpstreamWebhook {
		t.Errorf("CodeOf(wrapped) = %q", got)
	}
	if got := CodeOf(errors.New("plain")); got != ErrCodeInternalUnexpected {
		t.Errorf("CodeOf(plain) = %q", got)
	}
}
