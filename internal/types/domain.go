package types

import (
	"fmt"
	"time"
)

// Sentinel identity values. A ResourceIdentity carrying either value must be
// skipped by callers; it is never a valid restart target.
const (
	UnknownCluster = "unknown-cluster"
	UnknownService = "unknown-service"
)

// MaintenanceWindow is an announced infrastructure maintenance range.
// Both instants are timezone-aware and Start <= End holds for every value
// built through NewMaintenanceWindow.
type MaintenanceWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewMaintenanceWindow validates the ordering invariant and returns the
// window with both instants normalized to UTC.
func NewMaintenanceWindow(start, end time.Time) (MaintenanceWindow, error) {
	if start.IsZero() || end.IsZero() {
		return MaintenanceWindow{}, NewAppError(ErrCodeValidationMissingField,
			"maintenance window requires both start and end", nil)
	}
	if start.After(end) {
		return MaintenanceWindow{}, NewAppErrorWithDetails(ErrCodeValidationTimeWindow,
			"maintenance window start is after end", nil,
			map[string]any{
				"start": start.Format(time.RFC3339),
				"end":   end.Format(time.RFC3339),
			})
	}
	return MaintenanceWindow{Start: start.UTC(), End: end.UTC()}, nil
}

// DaysUntil returns the whole days between now and the window start,
// rounded down. A window that began an hour ago reports -1.
func (w MaintenanceWindow) DaysUntil(now time.Time) int {
	const day = 24 * time.Hour
	d := w.Start.Sub(now)
	days := d / day
	if d%day < 0 {
		days--
	}
	return int(days)
}

// BlackoutInterval is a named period into which a restart must not be
// deferred. Label identifies the blackout kind (e.g. "national-day").
type BlackoutInterval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Label string    `json:"label"`
}

// String renders the interval for log lines.
func (b BlackoutInterval) String() string {
	return fmt.Sprintf("%s[%s..%s]", b.Label, b.Start.UTC().Format(time.RFC3339), b.End.UTC().Format(time.RFC3339))
}

// ResourceIdentity addresses one ECS service.
type ResourceIdentity struct {
	Cluster string `json:"cluster_name"`
	Service string `json:"service_name"`
}

// SentinelIdentity is returned for input that could not be resolved.
func SentinelIdentity() ResourceIdentity {
	return ResourceIdentity{Cluster: UnknownCluster, Service: UnknownService}
}

// IsSentinel reports whether either half of the identity is unresolved.
func (r ResourceIdentity) IsSentinel() bool {
	return r.Cluster == "" || r.Service == "" ||
		r.Cluster == UnknownCluster || r.Service == UnknownService
}

// String renders the identity as "cluster/service".
func (r ResourceIdentity) String() string {
	return r.Cluster + "/" + r.Service
}

// SchedulePayload is forwarded verbatim to the executor when the rule fires.
type SchedulePayload struct {
	Reason           string `json:"reason"`
	SourceIdentifier string `json:"source_identifier"`
}

// ScheduleRequest describes one one-shot restart entry. Building it never
// touches external state; scheduling is owned by the caller.
type ScheduleRequest struct {
	RuleID   string           `json:"rule_id"`
	Identity ResourceIdentity `json:"resource_identity"`
	FireTime time.Time        `json:"fire_time"`
	Payload  SchedulePayload  `json:"payload"`
	TestMode bool             `json:"test_mode"`
}

// ExecutorEvent returns the input the fired rule hands to the executor.
func (r ScheduleRequest) ExecutorEvent() ExecutorEvent {
	return ExecutorEvent{
		ResourceID:    r.Identity.Service,
		ClusterName:   r.Identity.Cluster,
		ServiceName:   r.Identity.Service,
		ResourceARN:   r.Payload.SourceIdentifier,
		RuleName:      r.RuleID,
		RestartReason: r.Payload.Reason,
		TestMode:      r.TestMode,
	}
}

// RestartOutcome is the terminal record of one executor invocation.
type RestartOutcome struct {
	Status       OutcomeStatus    `json:"status"`
	Identity     ResourceIdentity `json:"resource_identity"`
	ResourceID   string           `json:"resource_id"`
	Reason       string           `json:"restart_reason"`
	Timestamp    time.Time        `json:"timestamp"`
	DeploymentID string           `json:"deployment_id,omitempty"`
	Detail       string           `json:"detail,omitempty"`
	Error        string           `json:"error,omitempty"`
	TestMode     bool             `json:"test_mode"`
}

// Succeeded reports whether the outcome counts as a successful restart.
func (o RestartOutcome) Succeeded() bool {
	return o.Status == OutcomeSuccess || o.Status == OutcomeTestSuccess
}
