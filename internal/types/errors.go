package types

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorCode is a typed string for categorizing application errors.
type ErrorCode string

// Error code constants. The prefix decides the HTTP status.
const (
	// Validation (400 at the API, 500 in Lambda responses)
	ErrCodeValidationMissingField ErrorCode = "validation_missing_required_field"
	ErrCodeValidationTimeWindow   ErrorCode = "validation_time_window_invalid"
	ErrCodeValidationTimeFormat   ErrorCode = "validation_time_format_invalid"
	ErrCodeValidationRuleID       ErrorCode = "validation_rule_id_invalid"
	ErrCodeValidationYear         ErrorCode = "validation_year_invalid"
	ErrCodeValidationPayload      ErrorCode = "validation_payload_invalid"

	// Resolution
	ErrCodeResolutionAmbiguous ErrorCode = "resolution_ambiguous"

	// Not Found (404)
	ErrCodeNotFoundParameter ErrorCode = "not_found_parameter"

	// Conflict (409)
	ErrCodeConflictParameterExists ErrorCode = "conflict_parameter_exists"

	// Upstream (502)
	ErrCodeUpstreamRestart        ErrorCode = "upstream_restart_failed"
	ErrCodeUpstreamSchedule       ErrorCode = "upstream_schedule_failed"
	ErrCodeUpstreamRuleCleanup    ErrorCode = "upstream_rule_cleanup_failed"
	ErrCodeUpstreamParameterStore ErrorCode = "upstream_parameter_store_unavailable"
	ErrCodeUpstreamWebhook        ErrorCode = "upstream_webhook_unavailable"
	ErrCodeUpstreamUnavailable    ErrorCode = "upstream_unavailable"

	// Internal (500)
	ErrCodeInternalUnexpected ErrorCode = "internal_unexpected_error"
	ErrCodeInternalEncoding   ErrorCode = "internal_encoding_error"
)

// Sentinel errors returned by ParameterStore implementations so callers do
// not depend on SDK error types.
var (
	ErrParameterNotFound = NewAppError(ErrCodeNotFoundParameter, "parameter not found", nil)
	ErrParameterExists   = NewAppError(ErrCodeConflictParameterExists, "parameter already exists", nil)
)

// HTTPStatus maps an ErrorCode to its corresponding HTTP status code.
// Returns 500 for unrecognized error codes.
func (c ErrorCode) HTTPStatus() int {
	s := string(c)
	switch {
	case strings.HasPrefix(s, "validation_"):
		return http.StatusBadRequest
	case strings.HasPrefix(s, "resolution_"):
		return http.StatusUnprocessableEntity
	case strings.HasPrefix(s, "not_found_"):
		return http.StatusNotFound
	case strings.HasPrefix(s, "conflict_"):
		return http.StatusConflict
	case strings.HasPrefix(s, "upstream_"):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// AppError is the standard application error type. Domain failures are
// expressed as AppError so callers can branch on Code and responders can map
// it to a status.
type AppError struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Err     error          `json:"-"`
	Details map[string]any `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches any AppError with the same code, which lets the package-level
// sentinels work through wrapping.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// HTTPStatus returns the HTTP status code corresponding to this error's code.
func (e *AppError) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// WithDetails returns a copy of the error with the provided details merged in.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	merged := make(map[string]any, len(e.Details)+len(details))
	for k, v := range e.Details {
		merged[k] = v
	}
	for k, v := range details {
		merged[k] = v
	}
	return &AppError{
		Code:    e.Code,
		Message: e.Message,
		Err:     e.Err,
		Details: merged,
	}
}

// NewAppError creates a new AppError with the given code, message, and optional
// underlying error.
func NewAppError(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NewAppErrorWithDetails creates a new AppError with structured details.
func NewAppErrorWithDetails(code ErrorCode, message string, err error, details map[string]any) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
		Details: details,
	}
}

// CodeOf extracts the ErrorCode from an error chain. Errors that carry no
// AppError report ErrCodeInternalUnexpected.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternalUnexpected
}
