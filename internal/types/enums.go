package types

// OutcomeStatus is the terminal status of a restart execution.
type OutcomeStatus string

const (
	OutcomeSuccess     OutcomeStatus = "SUCCESS"
	OutcomeFailed      OutcomeStatus = "FAILED"
	OutcomeTestSuccess OutcomeStatus = "TEST_SUCCESS"
)

// EventType classifies an outbound notification.
type EventType string

const (
	EventMaintenanceNotice EventType = "ECS_PHD_MAINTENANCE_NOTIFICATION"
	EventProcessingError   EventType = "ECS_PHD_PROCESSING_ERROR"
	EventRestartResult     EventType = "ECS_RESTART_RESULT"
)

// Severity drives the colour and urgency of rendered notifications.
type Severity string

const (
	SeverityInfo  Severity = "INFO"
	SeverityHigh  Severity = "HIGH"
	SeverityError Severity = "ERROR"
)

// PlannedAction is what the planner decided for a maintenance window.
type PlannedAction string

const (
	// ActionNoActionNeeded leaves the maintenance to the provider.
	ActionNoActionNeeded PlannedAction = "NO_ACTION_NEEDED"
	// ActionEarlyRestart books restarts ahead of the blackout.
	ActionEarlyRestart PlannedAction = "EARLY_RESTART"
)

// DeliveryStatus is the typed result of a best-effort side effect
// (notification sink, rule cleanup, parameter write-back). Degraded means the
// call failed and the failure was absorbed.
type DeliveryStatus string

const (
	DeliveryDelivered DeliveryStatus = "delivered"
	DeliveryDegraded  DeliveryStatus = "degraded"
	DeliverySkipped   DeliveryStatus = "skipped"
)

// Default restart reasons carried in schedule payloads.
const (
	ReasonHolidayConflict = "holiday_conflict_early_restart"
	ReasonScheduled       = "scheduled_restart"
)

// Metric names and dimensions published to CloudWatch.
const (
	MetricConflictDetected     = "ConflictDetected"
	MetricRestartScheduled     = "RestartScheduled"
	MetricRestartOutcome       = "RestartOutcome"
	MetricNotificationDelivery = "NotificationDelivery"

	DimConflict = "Conflict"
	DimResult   = "Result"
	DimStatus   = "Status"
	DimSink     = "Sink"
)
