// Package planner implements the Conflict Planner Lambda. It turns an AWS
// Health scheduled-change event into a decision: when the maintenance window
// overlaps a holiday blackout, every affected ECS service gets a one-shot
// restart rule ahead of the holiday.
package planner

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"holidayguard/internal/blackout"
	"holidayguard/internal/notifications/core"
	"holidayguard/internal/restart"
	"holidayguard/internal/types"
)

// Schedule statuses reported per resource and published as the Result
// dimension of RestartScheduled.
const (
	StatusScheduled = "scheduled"
	StatusTest      = "test"
	StatusSkipped   = "skipped"
	StatusDuplicate = "duplicate"
	StatusFailed    = "failed"
)

// Response bodies for events that need no scheduling.
const (
	BodyNoWindow   = "No maintenance window found"
	BodyNoConflict = "No holiday conflict detected"
)

// ConflictChecker evaluates a window against the blackout catalogue.
type ConflictChecker interface {
	Check(ctx context.Context, window types.MaintenanceWindow) blackout.Conflict
}

// IdentityResolver maps an affected-entity value to an ECS service.
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, raw string) types.ResourceIdentity
}

// Scheduler creates the one-shot restart rule.
type Scheduler interface {
	Schedule(ctx context.Context, req types.ScheduleRequest) error
}

// Notifier fans the decision out to the notification sinks.
type Notifier interface {
	Notify(ctx context.Context, n *types.Notification) core.Report
}

// MetricRecorder publishes decision metrics.
type MetricRecorder interface {
	RecordConflict(ctx context.Context, conflict bool)
	RecordSchedule(ctx context.Context, result string)
}

// Config holds the planner tunables.
type Config struct {
	Calculator    restart.Calculator
	Builder       restart.Builder
	RestartReason string
}

// Planner orchestrates one Health event end to end.
type Planner struct {
	Config    Config
	Log       *slog.Logger
	Checker   ConflictChecker
	Resolver  IdentityResolver
	Scheduler Scheduler
	Notifier  Notifier
	Metrics   MetricRecorder
	Clock     types.Clock
}

// ResourceDecision is the per-entity result of a planning run.
type ResourceDecision struct {
	Raw      string                 `json:"identifier"`
	Identity types.ResourceIdentity `json:"resource_identity"`
	RuleID   string                 `json:"rule_id,omitempty"`
	Status   string                 `json:"status"`
	Error    string                 `json:"error,omitempty"`
}

// Decision is the full result of a planning run.
type Decision struct {
	Window      types.MaintenanceWindow  `json:"maintenance_window"`
	Conflict    bool                     `json:"holiday_conflict"`
	Matched     []types.BlackoutInterval `json:"matched_blackouts,omitempty"`
	Action      types.PlannedAction      `json:"action"`
	RestartTime *time.Time               `json:"restart_time,omitempty"`
	DaysUntil   int                      `json:"days_until_maintenance"`
	Resources   []ResourceDecision       `json:"resources,omitempty"`
	TestMode    bool                     `json:"test_mode"`
}

// Count returns how many resources ended in status.
func (d Decision) Count(status string) int {
	n := 0
	for _, r := range d.Resources {
		if r.Status == status {
			n++
		}
	}
	return n
}

// Plan decides and, on conflict, schedules one restart per distinct
// resolved service. It never fails: scheduling errors are recorded on the
// resource and the remaining entities are still processed.
func (p *Planner) Plan(ctx context.Context, window types.MaintenanceWindow, entities []string, testMode bool) Decision {
	now := p.Clock.Now()
	conflict := p.Checker.Check(ctx, window)
	p.Metrics.RecordConflict(ctx, conflict.Overlaps)

	d := Decision{
		Window:    window,
		Conflict:  conflict.Overlaps,
		Matched:   conflict.Matched,
		Action:    types.ActionNoActionNeeded,
		DaysUntil: window.DaysUntil(now),
		TestMode:  testMode,
	}
	if !conflict.Overlaps {
		p.Log.InfoContext(ctx, "maintenance window does not overlap a blackout",
			"start", window.Start.Format(time.RFC3339),
			"end", window.End.Format(time.RFC3339),
			"year", conflict.Year,
		)
		return d
	}

	fireTime := p.Config.Calculator.Next(now)
	d.Action = types.ActionEarlyRestart
	d.RestartTime = &fireTime

	p.Log.InfoContext(ctx, "maintenance window overlaps a blackout",
		"start", window.Start.Format(time.RFC3339),
		"end", window.End.Format(time.RFC3339),
		"matched", len(conflict.Matched),
		"restart_time", fireTime.Format(time.RFC3339),
		"test_mode", testMode,
	)

	seen := make(map[string]bool, len(entities))
	for _, raw := range entities {
		rd := p.planResource(ctx, raw, fireTime, testMode, seen)
		p.Metrics.RecordSchedule(ctx, rd.Status)
		d.Resources = append(d.Resources, rd)
	}
	return d
}

func (p *Planner) planResource(ctx context.Context, raw string, fireTime time.Time, testMode bool, seen map[string]bool) ResourceDecision {
	identity := p.Resolver.ResolveIdentity(ctx, raw)
	rd := ResourceDecision{Raw: raw, Identity: identity}

	req, err := p.Config.Builder.Build(raw, identity, fireTime, p.Config.RestartReason, testMode)
	if err != nil {
		rd.Status = StatusSkipped
		rd.Error = err.Error()
		p.Log.WarnContext(ctx, "skipping affected entity", "identifier", raw, "error", err)
		return rd
	}
	rd.RuleID = req.RuleID

	key := identity.String()
	if seen[key] {
		rd.Status = StatusDuplicate
		return rd
	}
	seen[key] = true

	if testMode {
		rd.Status = StatusTest
		p.Log.InfoContext(ctx, "test mode: restart rule not created",
			"rule_id", req.RuleID,
			"resource", identity.String(),
		)
		return rd
	}

	if err := p.Scheduler.Schedule(ctx, req); err != nil {
		rd.Status = StatusFailed
		rd.Error = err.Error()
		p.Log.ErrorContext(ctx, "failed to schedule restart",
			"rule_id", req.RuleID,
			"resource", identity.String(),
			"error", err,
		)
		return rd
	}
	rd.Status = StatusScheduled
	return rd
}

// Handle is the Lambda entrypoint. Unparseable or inverted windows yield a
// 500 with an error notification; every other path returns 200.
func (p *Planner) Handle(ctx context.Context, event types.PlannerEvent) types.HandlerResponse {
	ctx = types.WithTestMode(ctx, event.TestMode)

	detail, err := event.ParseDetail()
	if err != nil {
		return p.fail(ctx, event.TestMode, types.NewAppError(types.ErrCodeValidationPayload, "invalid health event detail", err))
	}

	if detail.StartTime == "" || detail.EndTime == "" {
		p.Log.InfoContext(ctx, "health event carries no maintenance window", "event_id", event.ID)
		return types.NewHandlerResponse(http.StatusOK, BodyNoWindow)
	}

	window, err := blackout.ParseWindow(detail.StartTime, detail.EndTime)
	if err != nil {
		return p.fail(ctx, event.TestMode, err)
	}

	entities := make([]string, 0, len(detail.AffectedEntities))
	for _, e := range detail.AffectedEntities {
		if v := strings.TrimSpace(e.EntityValue); v != "" {
			entities = append(entities, v)
		}
	}

	d := p.Plan(ctx, window, entities, event.TestMode)
	p.Notifier.Notify(ctx, p.decisionNotification(d, entities))

	if !d.Conflict {
		return types.NewHandlerResponse(http.StatusOK, BodyNoConflict)
	}

	msg := "Processed health event and scheduled early restarts"
	if d.TestMode {
		msg += " (test mode)"
	}
	return types.NewHandlerResponse(http.StatusOK, map[string]any{
		"message":            msg,
		"affected_resources": len(entities),
		"scheduled":          d.Count(StatusScheduled) + d.Count(StatusTest),
		"failed":             d.Count(StatusFailed),
		"skipped":            d.Count(StatusSkipped),
		"restart_time":       d.RestartTime.Format(time.RFC3339),
		"test_mode":          d.TestMode,
		"resources":          d.Resources,
	})
}

func (p *Planner) fail(ctx context.Context, testMode bool, err error) types.HandlerResponse {
	p.Log.ErrorContext(ctx, "failed to process health event", "error", err)

	n := types.NewNotification(types.EventProcessingError, types.SeverityError,
		"Failed to process ECS health event", p.Clock.Now())
	n.TestMode = testMode
	n.Error = err.Error()
	p.Notifier.Notify(ctx, n)

	return types.NewHandlerResponse(http.StatusInternalServerError, map[string]string{"error": err.Error()})
}

func (p *Planner) decisionNotification(d Decision, entities []string) *types.Notification {
	summary := &types.MaintenanceSummary{
		Window:          d.Window,
		DaysUntil:       d.DaysUntil,
		HolidayConflict: d.Conflict,
		Action:          d.Action,
		RestartTime:     d.RestartTime,
		Matched:         d.Matched,
	}

	var resources []string
	for _, r := range d.Resources {
		switch r.Status {
		case StatusScheduled, StatusTest:
			resources = append(resources, r.Identity.String())
			summary.Scheduled = append(summary.Scheduled, r.RuleID)
		case StatusFailed, StatusSkipped:
			summary.Failed = append(summary.Failed, r.Raw)
		}
	}
	summary.Resources = resources

	severity, msg := types.SeverityInfo, "ECS maintenance window does not overlap a holiday; no early restart needed"
	if d.Conflict {
		severity, msg = types.SeverityHigh, "ECS maintenance window overlaps a holiday; early restart scheduled"
	}
	if d.TestMode {
		msg += " (test mode)"
	}

	n := types.NewNotification(types.EventMaintenanceNotice, severity, msg, p.Clock.Now())
	n.TestMode = d.TestMode
	n.Maintenance = summary
	switch {
	case len(resources) > 0:
		n.ResourceID = strings.Join(resources, ", ")
	case len(entities) > 0:
		n.ResourceID = strings.Join(entities, ", ")
	default:
		n.ResourceID = "unknown"
	}
	return n
}
