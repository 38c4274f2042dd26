package core

import (
	"context"
	"log/slog"

	"holidayguard/internal/types"
)

// LogSinkName identifies the log sink in reports.
const LogSinkName = "log"

// LogSink writes the notification as one structured log record. It is always
// enabled and is the durable record of every decision and outcome.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a LogSink.
func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Name() string  { return LogSinkName }
func (s *LogSink) Enabled() bool { return true }

func (s *LogSink) Send(ctx context.Context, n *types.Notification) error {
	level := slog.LevelInfo
	if n.Severity == types.SeverityError || n.Error != "" {
		level = slog.LevelError
	}
	s.logger.Log(ctx, level, n.Message,
		"notification_id", n.ID,
		"event_type", n.EventType,
		"severity", n.Severity,
		"test_mode", n.TestMode,
		"notification", n,
	)
	return nil
}
