package external

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	ebtypes "github.com/aws/aws-sdk-go-v2/service/eventbridge/types"

	"holidayguard/internal/restart"
	"holidayguard/internal/types"
)

// TargetID is the single target id every restart rule carries.
const TargetID = "1"

// EventBridgeAPI is the subset of *eventbridge.Client used by RuleScheduler.
type EventBridgeAPI interface {
	PutRule(ctx context.Context, params *eventbridge.PutRuleInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutRuleOutput, error)
	PutTargets(ctx context.Context, params *eventbridge.PutTargetsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutTargetsOutput, error)
	RemoveTargets(ctx context.Context, params *eventbridge.RemoveTargetsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.RemoveTargetsOutput, error)
	DeleteRule(ctx context.Context, params *eventbridge.DeleteRuleInput, optFns ...func(*eventbridge.Options)) (*eventbridge.DeleteRuleOutput, error)
}

// RuleScheduler turns schedule requests into one-shot EventBridge rules that
// invoke the restart executor.
type RuleScheduler struct {
	client      EventBridgeAPI
	executorARN string
	logger      *slog.Logger
}

// NewRuleScheduler creates a RuleScheduler targeting executorARN.
func NewRuleScheduler(client EventBridgeAPI, executorARN string, logger *slog.Logger) *RuleScheduler {
	return &RuleScheduler{client: client, executorARN: executorARN, logger: logger}
}

// Schedule upserts the rule and its target. Both calls are idempotent, so a
// redelivered event converges on the same rule.
func (s *RuleScheduler) Schedule(ctx context.Context, req types.ScheduleRequest) error {
	if s.executorARN == "" {
		return types.NewAppError(types.ErrCodeValidationMissingField, "restart executor ARN is not configured", nil)
	}

	input, err := json.Marshal(req.ExecutorEvent())
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalEncoding, "encoding rule target input", err)
	}

	cron := restart.CronExpression(req.FireTime)
	if _, err := s.client.PutRule(ctx, &eventbridge.PutRuleInput{
		Name:               aws.String(req.RuleID),
		ScheduleExpression: aws.String(cron),
		State:              ebtypes.RuleStateEnabled,
		Description:        aws.String(fmt.Sprintf("Early restart of %s ahead of a holiday blackout", req.Identity)),
	}); err != nil {
		return types.NewAppErrorWithDetails(types.ErrCodeUpstreamSchedule, "put rule failed", err,
			map[string]any{"rule_id": req.RuleID})
	}

	out, err := s.client.PutTargets(ctx, &eventbridge.PutTargetsInput{
		Rule: aws.String(req.RuleID),
		Targets: []ebtypes.Target{{
			Id:    aws.String(TargetID),
			Arn:   aws.String(s.executorARN),
			Input: aws.String(string(input)),
		}},
	})
	if err != nil {
		return types.NewAppErrorWithDetails(types.ErrCodeUpstreamSchedule, "put targets failed", err,
			map[string]any{"rule_id": req.RuleID})
	}
	if out.FailedEntryCount > 0 {
		var msg string
		if len(out.FailedEntries) > 0 {
			msg = aws.ToString(out.FailedEntries[0].ErrorMessage)
		}
		return types.NewAppErrorWithDetails(types.ErrCodeUpstreamSchedule, "put targets rejected the target",
			errors.New(msg), map[string]any{"rule_id": req.RuleID})
	}

	s.logger.InfoContext(ctx, "scheduled restart rule",
		"rule_id", req.RuleID,
		"schedule", cron,
		"resource", req.Identity.String(),
	)
	return nil
}

// RemoveRule detaches the target and deletes the rule.
func (s *RuleScheduler) RemoveRule(ctx context.Context, ruleName string) error {
	if _, err := s.client.RemoveTargets(ctx, &eventbridge.RemoveTargetsInput{
		Rule: aws.String(ruleName),
		Ids:  []string{TargetID},
	}); err != nil {
		return types.NewAppErrorWithDetails(types.ErrCodeUpstreamRuleCleanup, "remove targets failed", err,
			map[string]any{"rule_id": ruleName})
	}
	if _, err := s.client.DeleteRule(ctx, &eventbridge.DeleteRuleInput{Name: aws.String(ruleName)}); err != nil {
		return types.NewAppErrorWithDetails(types.ErrCodeUpstreamRuleCleanup, "delete rule failed", err,
			map[string]any{"rule_id": ruleName})
	}
	s.logger.InfoContext(ctx, "removed restart rule", "rule_id", ruleName)
	return nil
}
