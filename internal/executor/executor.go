// Package executor implements the Restart Executor Lambda invoked by a fired
// one-shot rule. It forces a new deployment of the ECS service, removes the
// rule that fired and reports the outcome.
package executor

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"holidayguard/internal/notifications/core"
	"holidayguard/internal/types"
)

// State is one step of an invocation.
type State string

const (
	StateReceived      State = "RECEIVED"
	StateValidated     State = "VALIDATED"
	StateRestartIssued State = "RESTART_ISSUED"
	StateRestartFailed State = "RESTART_FAILED"
	StateCleanedUp     State = "CLEANED_UP"
	StateNotified      State = "NOTIFIED"
)

// Restarter forces a new deployment and returns the deployment id.
type Restarter interface {
	RestartService(ctx context.Context, id types.ResourceIdentity) (string, error)
}

// RuleRemover deletes the rule that triggered the invocation.
type RuleRemover interface {
	RemoveRule(ctx context.Context, ruleName string) error
}

// Notifier fans the outcome out to the notification sinks.
type Notifier interface {
	Notify(ctx context.Context, n *types.Notification) core.Report
}

// MetricRecorder publishes restart outcomes.
type MetricRecorder interface {
	RecordRestart(ctx context.Context, status types.OutcomeStatus)
}

// Executor runs one restart invocation.
type Executor struct {
	Log       *slog.Logger
	Restarter Restarter
	Rules     RuleRemover
	Notifier  Notifier
	Metrics   MetricRecorder
	Clock     types.Clock
}

// Result records what an invocation did.
type Result struct {
	Outcome  types.RestartOutcome
	States   []State
	Cleanup  types.DeliveryStatus
	Delivery core.Report
	Err      error
}

func (r *Result) visit(s State) { r.States = append(r.States, s) }

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// Execute drives the state machine for ev. It always sends exactly one
// notification.
func (e *Executor) Execute(ctx context.Context, ev types.ExecutorEvent) Result {
	ctx = types.WithTestMode(ctx, ev.TestMode)
	res := Result{Cleanup: types.DeliverySkipped}
	res.visit(StateReceived)

	reason := ev.RestartReason
	if reason == "" {
		reason = types.ReasonScheduled
	}
	res.Outcome = types.RestartOutcome{
		Identity:   ev.Identity(),
		ResourceID: ev.ResourceID,
		Reason:     reason,
		TestMode:   ev.TestMode,
	}

	if err := validateEvent(ev); err != nil {
		e.Log.ErrorContext(ctx, "invalid restart event", "error", err)
		res.Err = err
		e.finish(ctx, &res, types.OutcomeFailed)
		return res
	}
	res.visit(StateValidated)

	if ev.TestMode {
		e.Log.InfoContext(ctx, "test mode: restart and rule cleanup skipped",
			"resource", ev.Identity().String(),
			"rule_id", ev.RuleName,
		)
		res.Outcome.Detail = "restart simulated in test mode"
		e.finish(ctx, &res, types.OutcomeTestSuccess)
		return res
	}

	status := types.OutcomeSuccess
	deploymentID, err := e.Restarter.RestartService(ctx, ev.Identity())
	if err != nil {
		e.Log.ErrorContext(ctx, "restart failed",
			"resource", ev.Identity().String(),
			"error", err,
		)
		res.Err = err
		status = types.OutcomeFailed
		res.visit(StateRestartFailed)
	} else {
		res.Outcome.DeploymentID = deploymentID
		res.visit(StateRestartIssued)
	}

	if ev.RuleName != "" {
		if err := e.Rules.RemoveRule(ctx, ev.RuleName); err != nil {
			e.Log.WarnContext(ctx, "failed to remove restart rule", "rule_id", ev.RuleName, "error", err)
			res.Cleanup = types.DeliveryDegraded
		} else {
			res.Cleanup = types.DeliveryDelivered
			res.visit(StateCleanedUp)
		}
	}

	e.finish(ctx, &res, status)
	return res
}

func (e *Executor) finish(ctx context.Context, res *Result, status types.OutcomeStatus) {
	res.Outcome.Status = status
	res.Outcome.Timestamp = e.Clock.Now()
	if res.Err != nil {
		res.Outcome.Error = res.Err.Error()
	}
	e.Metrics.RecordRestart(ctx, status)
	res.Delivery = e.Notifier.Notify(ctx, outcomeNotification(res.Outcome))
	res.visit(StateNotified)
}

func outcomeNotification(o types.RestartOutcome) *types.Notification {
	severity, msg := types.SeverityInfo, "ECS service restart succeeded"
	if !o.Succeeded() {
		severity, msg = types.SeverityError, "ECS service restart failed"
	}
	if o.TestMode {
		msg += " (test mode)"
	}

	// Missing fields are shown as "unknown" so the card never renders empty.
	o.Identity.Cluster = orUnknown(o.Identity.Cluster)
	o.Identity.Service = orUnknown(o.Identity.Service)
	o.ResourceID = orUnknown(o.ResourceID)

	n := types.NewNotification(types.EventRestartResult, severity, msg, o.Timestamp)
	n.TestMode = o.TestMode
	n.ResourceID = o.ResourceID
	n.Error = o.Error
	n.Restart = &o
	return n
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

// Handle is the Lambda entrypoint. Validation and restart failures respond
// 500; a failed rule cleanup does not.
func (e *Executor) Handle(ctx context.Context, ev types.ExecutorEvent) types.HandlerResponse {
	res := e.Execute(ctx, ev)

	if res.Outcome.Status == types.OutcomeFailed {
		return types.NewHandlerResponse(http.StatusInternalServerError, map[string]any{
			"message":     "ECS service restart failed",
			"error":       res.Outcome.Error,
			"resource_id": orUnknown(ev.ResourceID),
			"test_mode":   ev.TestMode,
		})
	}

	msg := "ECS service restarted"
	if ev.TestMode {
		msg = "ECS service restart simulated (test mode)"
	}
	return types.NewHandlerResponse(http.StatusOK, map[string]any{
		"message":      msg,
		"resource_id":  ev.ResourceID,
		"result":       res.Outcome,
		"rule_cleanup": res.Cleanup,
		"test_mode":    ev.TestMode,
	})
}

func validateEvent(ev types.ExecutorEvent) error {
	err := validate.Struct(ev)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return types.NewAppError(types.ErrCodeValidationPayload, "invalid restart event", err)
	}
	missing := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		missing = append(missing, fe.Field())
	}
	return types.NewAppErrorWithDetails(types.ErrCodeValidationMissingField,
		"missing required parameters: "+strings.Join(missing, ", "), nil,
		map[string]any{"fields": missing})
}
