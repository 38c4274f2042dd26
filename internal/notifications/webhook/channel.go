// Package webhook delivers notifications to a chat webhook. The platform is
// detected from the URL and each platform has its own payload formatter.
package webhook

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"holidayguard/internal/types"
)

// SinkName identifies the webhook sink in reports.
const SinkName = "webhook"

// maxResponseBodyRead limits how much of a response body we read for error
// messages and soft-failure detection.
const maxResponseBodyRead = 4096

// HTTPDoer is the transport used to post payloads. external.BaseClient
// satisfies it and adds retries plus a circuit breaker.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// WebhookChannel posts formatted notifications to a single URL.
type WebhookChannel struct {
	registry *PlatformRegistry
	client   HTTPDoer
	url      types.SecretString
	platform Platform
	logger   *slog.Logger
}

// NewWebhookChannel creates a WebhookChannel. platformOverride may be empty,
// in which case the platform is detected from the URL.
func NewWebhookChannel(client HTTPDoer, url types.SecretString, platformOverride string, logger *slog.Logger) *WebhookChannel {
	registry := NewPlatformRegistry()
	return &WebhookChannel{
		registry: registry,
		client:   client,
		url:      url,
		platform: registry.Detect(url.Unmask(), platformOverride),
		logger:   logger,
	}
}

func (w *WebhookChannel) Name() string { return SinkName }

// Enabled reports whether a webhook URL is configured.
func (w *WebhookChannel) Enabled() bool { return w.url.IsSet() }

// Platform returns the detected platform.
func (w *WebhookChannel) Platform() Platform { return w.platform }

// Format renders the payload for the configured platform.
func (w *WebhookChannel) Format(ctx context.Context, n *types.Notification) ([]byte, error) {
	if n == nil {
		return nil, fmt.Errorf("webhook channel: notification is nil")
	}
	return w.registry.Get(w.platform).Format(ctx, n)
}

// Send formats and posts the notification. Non-2xx replies and platform
// soft failures are returned as ErrCodeUpstreamWebhook errors.
func (w *WebhookChannel) Send(ctx context.Context, n *types.Notification) error {
	payload, err := w.Format(ctx, n)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalEncoding, "formatting webhook payload", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url.Unmask(), bytes.NewReader(payload))
	if err != nil {
		return types.NewAppError(types.ErrCodeUpstreamWebhook, "building webhook request", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := w.client.Do(req)
	if err != nil {
		return types.NewAppErrorWithDetails(types.ErrCodeUpstreamWebhook, "webhook request failed", err,
			map[string]any{"platform": string(w.platform)})
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodyRead))

	if err := w.registry.Get(w.platform).ValidateResponse(resp.StatusCode, body); err != nil {
		return types.NewAppErrorWithDetails(types.ErrCodeUpstreamWebhook, "webhook rejected the payload", err,
			map[string]any{"platform": string(w.platform), "status": resp.StatusCode})
	}

	w.logger.InfoContext(ctx, "webhook delivered",
		"platform", string(w.platform),
		"notification_id", n.ID,
		"status", resp.StatusCode,
		"payload_size", len(payload),
	)
	return nil
}
