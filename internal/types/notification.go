package types

import (
	"time"

	"github.com/google/uuid"
)

// MaintenanceSummary is the planner section of a notification.
type MaintenanceSummary struct {
	Window          MaintenanceWindow  `json:"maintenance_window"`
	DaysUntil       int                `json:"days_until_maintenance"`
	HolidayConflict bool               `json:"holiday_conflict"`
	Action          PlannedAction      `json:"action"`
	RestartTime     *time.Time         `json:"restart_time,omitempty"`
	Matched         []BlackoutInterval `json:"matched_blackouts,omitempty"`
	Resources       []string           `json:"resources,omitempty"`
	Scheduled       []string           `json:"scheduled_rules,omitempty"`
	Failed          []string           `json:"failed_resources,omitempty"`
}

// Notification is the record handed to every sink. Exactly one of
// Maintenance, Restart or Error is normally populated.
type Notification struct {
	ID          string              `json:"id"`
	EventType   EventType           `json:"event_type"`
	Severity    Severity            `json:"severity"`
	Message     string              `json:"message"`
	ResourceID  string              `json:"resource_id,omitempty"`
	TestMode    bool                `json:"test_mode"`
	Timestamp   time.Time           `json:"timestamp"`
	RequestID   string              `json:"request_id,omitempty"`
	Maintenance *MaintenanceSummary `json:"maintenance,omitempty"`
	Restart     *RestartOutcome     `json:"restart,omitempty"`
	Error       string              `json:"error,omitempty"`
}

// NewNotification stamps a fresh id and the given timestamp.
func NewNotification(eventType EventType, severity Severity, message string, now time.Time) *Notification {
	return &Notification{
		ID:        uuid.NewString(),
		EventType: eventType,
		Severity:  severity,
		Message:   message,
		Timestamp: now.UTC(),
	}
}

// IsStructured reports whether the notification carries a section that
// rich formatters can render. Plain messages fall back to text.
func (n *Notification) IsStructured() bool {
	return n.Maintenance != nil || n.Restart != nil
}
