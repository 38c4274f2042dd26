package restart

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"time"

	"holidayguard/internal/types"
)

const (
	// DefaultNamespace prefixes every rule id.
	DefaultNamespace = "ecs-restart"
	// MaxRuleIDLength is the EventBridge rule name ceiling.
	MaxRuleIDLength = 64

	hashLength = 8
)

// Builder derives schedule requests under a configurable namespace.
type Builder struct {
	Namespace string
}

// DefaultBuilder uses the "ecs-restart" namespace.
func DefaultBuilder() Builder {
	return Builder{Namespace: DefaultNamespace}
}

// RuleID returns "ecs-restart-<md5(raw)[:8]>-<epoch seconds>".
func RuleID(raw string, fireTime time.Time) string {
	return DefaultBuilder().RuleID(raw, fireTime)
}

// RuleID is deterministic in (raw, fireTime).
func (b Builder) RuleID(raw string, fireTime time.Time) string {
	ns := b.Namespace
	if ns == "" {
		ns = DefaultNamespace
	}
	sum := md5.Sum([]byte(raw))
	return fmt.Sprintf("%s-%s-%d", ns, hex.EncodeToString(sum[:])[:hashLength], fireTime.Unix())
}

// BuildRequest creates the schedule request for one resource using the
// default namespace.
func BuildRequest(raw string, identity types.ResourceIdentity, fireTime time.Time, reason string, testMode bool) (types.ScheduleRequest, error) {
	return DefaultBuilder().Build(raw, identity, fireTime, reason, testMode)
}

// Build creates the schedule request. It touches no external state.
func (b Builder) Build(raw string, identity types.ResourceIdentity, fireTime time.Time, reason string, testMode bool) (types.ScheduleRequest, error) {
	if identity.IsSentinel() {
		return types.ScheduleRequest{}, types.NewAppErrorWithDetails(types.ErrCodeResolutionAmbiguous,
			"cannot schedule a restart for an unresolved resource", nil,
			map[string]any{"identifier": raw})
	}

	id := b.RuleID(raw, fireTime)
	if len(id) > MaxRuleIDLength {
		return types.ScheduleRequest{}, types.NewAppErrorWithDetails(types.ErrCodeValidationRuleID,
			fmt.Sprintf("rule id exceeds %d characters", MaxRuleIDLength), nil,
			map[string]any{"rule_id": id, "length": len(id)})
	}

	if reason == "" {
		reason = types.ReasonHolidayConflict
	}
	return types.ScheduleRequest{
		RuleID:   id,
		Identity: identity,
		FireTime: fireTime.UTC(),
		Payload: types.SchedulePayload{
			Reason:           reason,
			SourceIdentifier: raw,
		},
		TestMode: testMode,
	}, nil
}

// CronExpression renders t as a one-shot EventBridge schedule expression,
// "cron(M H D Mon ? Y)" in UTC.
func CronExpression(t time.Time) string {
	u := t.UTC()
	return fmt.Sprintf("cron(%d %d %d %d ? %d)", u.Minute(), u.Hour(), u.Day(), int(u.Month()), u.Year())
}
