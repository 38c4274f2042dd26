package webhook

import (
	"context"
	"encoding/json"
	"fmt"

	"holidayguard/internal/types"
)

// GenericFormatter outputs the notification record as-is, so downstream
// consumers receive a stable contract.
type GenericFormatter struct{}

// Platform returns the platform identifier.
func (f *GenericFormatter) Platform() Platform {
	return PlatformGeneric
}

// Format serializes the notification directly.
func (f *GenericFormatter) Format(_ context.Context, n *types.Notification) ([]byte, error) {
	if n == nil {
		return nil, fmt.Errorf("generic formatter: notification is nil")
	}
	return json.Marshal(n)
}

// ValidateResponse for generic webhooks simply checks the HTTP status code.
func (f *GenericFormatter) ValidateResponse(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}
	return fmt.Errorf("generic webhook: unexpected status %d: %s", statusCode, truncateBody(body))
}
