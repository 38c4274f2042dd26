package core

import (
	"context"
	"log/slog"
	"time"

	"holidayguard/internal/types"
)

// Dispatcher sends a notification to each sink in order.
type Dispatcher struct {
	sinks   []Sink
	metrics DeliveryMetrics
	logger  *slog.Logger
	now     func() time.Time
}

// NewDispatcher creates a Dispatcher. metrics may be nil.
func NewDispatcher(logger *slog.Logger, metrics DeliveryMetrics, sinks ...Sink) *Dispatcher {
	return &Dispatcher{
		sinks:   sinks,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

// Notify never returns an error. The request id from ctx is stamped on the
// notification when it has none.
func (d *Dispatcher) Notify(ctx context.Context, n *types.Notification) Report {
	if n.RequestID == "" {
		n.RequestID = types.GetRequestID(ctx)
	}

	report := Report{NotificationID: n.ID, Results: make([]SinkResult, 0, len(d.sinks))}
	for _, sink := range d.sinks {
		res := d.deliver(ctx, sink, n)
		report.Results = append(report.Results, res)
		if d.metrics != nil {
			d.metrics.RecordDelivery(ctx, res.Sink, res.Status)
		}
	}
	return report
}

func (d *Dispatcher) deliver(ctx context.Context, sink Sink, n *types.Notification) SinkResult {
	res := SinkResult{Sink: sink.Name(), Status: types.DeliverySkipped}
	if !sink.Enabled() {
		return res
	}

	start := d.now()
	err := sink.Send(ctx, n)
	res.Duration = d.now().Sub(start)

	if err != nil {
		res.Status = types.DeliveryDegraded
		res.Error = err.Error()
		d.logger.WarnContext(ctx, "notification sink failed",
			"sink", res.Sink,
			"notification_id", n.ID,
			"event_type", n.EventType,
			"error", err.Error(),
		)
		return res
	}

	res.Status = types.DeliveryDelivered
	d.logger.DebugContext(ctx, "notification delivered",
		"sink", res.Sink,
		"notification_id", n.ID,
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res
}
