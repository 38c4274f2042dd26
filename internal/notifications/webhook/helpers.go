package webhook

import (
	"fmt"
	"time"

	"holidayguard/internal/blackout"
	"holidayguard/internal/types"
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04:05"
)

// formatTitle generates a human-readable title for a notification.
func formatTitle(n *types.Notification) string {
	var title string
	switch {
	case n.Maintenance != nil && n.Maintenance.HolidayConflict:
		title = "ECS maintenance: holiday conflict"
	case n.Maintenance != nil:
		title = "ECS maintenance: no action needed"
	case n.Restart != nil && n.Restart.Succeeded():
		title = "ECS restart succeeded"
	case n.Restart != nil:
		title = "ECS restart failed"
	case n.EventType == types.EventProcessingError:
		title = "ECS maintenance processing error"
	default:
		title = "HolidayGuard notification"
	}
	if n.TestMode {
		title += " (test mode)"
	}
	return title
}

// formatAction renders the planner's decision for display.
func formatAction(a types.PlannedAction) string {
	if a == types.ActionEarlyRestart {
		return "Early restart"
	}
	return "Handled by AWS"
}

// formatReason renders a restart reason for display.
func formatReason(reason string) string {
	if reason == types.ReasonHolidayConflict {
		return "Early restart ahead of holiday"
	}
	return "Scheduled restart"
}

// maintenanceDescription explains the decision in one sentence.
func maintenanceDescription(m *types.MaintenanceSummary) string {
	if m.HolidayConflict {
		return "The maintenance window overlaps a holiday blackout. " +
			"The service will be restarted early at the next safe slot to avoid disruption during the holiday."
	}
	return "The maintenance window does not overlap a holiday blackout. " +
		"AWS will handle it inside the announced window; no action is required."
}

// restartDescription explains the executor outcome in one sentence.
func restartDescription(o *types.RestartOutcome) string {
	switch {
	case o.Status == types.OutcomeTestSuccess:
		return "Test mode simulated the restart. In production the ECS service would be redeployed with new tasks."
	case o.Succeeded():
		return "The ECS service was restarted and new tasks are starting. Check the deployment in the ECS console."
	default:
		return "The ECS service restart failed. Check the service configuration, IAM permissions and cluster state."
	}
}

// plainText renders a notification without a structured section as a
// single text message.
func plainText(n *types.Notification) string {
	msg := n.Message
	if n.Error != "" {
		msg = fmt.Sprintf("%s: %s", msg, n.Error)
	}
	text := fmt.Sprintf("ECS maintenance processing error: %s", msg)
	if n.EventType != types.EventProcessingError {
		text = fmt.Sprintf("ECS restart notice: %s", msg)
	}
	if n.ResourceID != "" {
		text += "\nResource: " + n.ResourceID
	}
	text += "\nTime: " + civil(n.Timestamp, dateTimeLayout)
	return text
}

// civil formats t in the blackout civil zone.
func civil(t time.Time, layout string) string {
	return t.In(blackout.CivilZone).Format(layout)
}

// truncateBody caps a response body for error messages.
func truncateBody(body []byte) string {
	const max = 256
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
