// Package core fans a notification out to every configured sink. Delivery is
// best effort: sink failures are absorbed into a Report and never reach the
// planner or executor workflow.
package core

import (
	"context"
	"time"

	"holidayguard/internal/types"
)

// Sink is one notification destination.
type Sink interface {
	// Name is the stable sink identifier used in reports and metrics.
	Name() string
	// Enabled reports whether the sink is configured. Disabled sinks are
	// reported as skipped without a send attempt.
	Enabled() bool
	Send(ctx context.Context, n *types.Notification) error
}

// DeliveryMetrics records one result per sink.
type DeliveryMetrics interface {
	RecordDelivery(ctx context.Context, sink string, status types.DeliveryStatus)
}

// SinkResult is the outcome of one sink.
type SinkResult struct {
	Sink     string               `json:"sink"`
	Status   types.DeliveryStatus `json:"status"`
	Error    string               `json:"error,omitempty"`
	Duration time.Duration        `json:"duration_ns"`
}

// Report collects the per-sink results of one dispatch.
type Report struct {
	NotificationID string       `json:"notification_id"`
	Results        []SinkResult `json:"results"`
}

// Status returns the result for the named sink, or skipped when the sink
// took no part in the dispatch.
func (r Report) Status(sink string) types.DeliveryStatus {
	for _, res := range r.Results {
		if res.Sink == sink {
			return res.Status
		}
	}
	return types.DeliverySkipped
}

// Degraded reports whether any sink failed.
func (r Report) Degraded() bool {
	for _, res := range r.Results {
		if res.Status == types.DeliveryDegraded {
			return true
		}
	}
	return false
}
