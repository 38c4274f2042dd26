package types

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMaintenanceWindow(t *testing.T) {
	start := time.Date(2026, 2, 18, 2, 0, 0, 0, time.UTC)
	end := start.Add(4 * time.Hour)

	t.Run("valid window normalizes to UTC", func(t *testing.T) {
		cst := time.FixedZone("UTC+8", 8*3600)
		w, err := NewMaintenanceWindow(start.In(cst), end.In(cst))
		require.NoError(t, err)
		assert.Equal(t, time.UTC, w.Start.Location())
		assert.True(t, w.Start.Equal(start))
	})

	t.Run("zero-length window is valid", func(t *testing.T) {
		_, err := NewMaintenanceWindow(start, start)
		assert.NoError(t, err)
	})

	t.Run("inverted window is a validation error", func(t *testing.T) {
		_, err := NewMaintenanceWindow(end, start)
		require.Error(t, err)
		var appErr *AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, ErrCodeValidationTimeWindow, appErr.Code)
	})

	t.Run("missing instant is a validation error", func(t *testing.T) {
		_, err := NewMaintenanceWindow(time.Time{}, end)
		assert.Equal(t, ErrCodeValidationMissingField, CodeOf(err))
	})
}

func TestMaintenanceWindowDaysUntil(t *testing.T) {
	w := MaintenanceWindow{Start: time.Date(2026, 2, 18, 0, 0, 0, 0, time.UTC)}
	tests := []struct {
		name string
		now  time.Time
		want int
	}{
		{"partial days round down", time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC), 7},
		{"exact day boundary", time.Date(2026, 2, 17, 0, 0, 0, 0, time.UTC), 1},
		{"starts within the day", time.Date(2026, 2, 17, 23, 0, 0, 0, time.UTC), 0},
		{"starts now", time.Date(2026, 2, 18, 0, 0, 0, 0, time.UTC), 0},
		{"began an hour ago", time.Date(2026, 2, 18, 1, 0, 0, 0, time.UTC), -1},
		{"began exactly a day ago", time.Date(2026, 2, 19, 0, 0, 0, 0, time.UTC), -1},
		{"began a day and a bit ago", time.Date(2026, 2, 19, 0, 0, 1, 0, time.UTC), -2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, w.DaysUntil(tt.now))
		})
	}
}

func TestResourceIdentityIsSentinel(t *testing.T) {
	assert.True(t, SentinelIdentity().IsSentinel())
	assert.True(t, ResourceIdentity{Cluster: "prod", Service: UnknownService}.IsSentinel())
	assert.True(t, ResourceIdentity{Cluster: "", Service: "api"}.IsSentinel())
	assert.False(t, ResourceIdentity{Cluster: "prod", Service: "api"}.IsSentinel())
}

func TestScheduleRequestExecutorEvent(t *testing.T) {
	req := ScheduleRequest{
		RuleID:   "ecs-restart-abcdef01-1771387200",
		Identity: ResourceIdentity{Cluster: "prod", Service: "api"},
		Payload:  SchedulePayload{Reason: ReasonHolidayConflict, SourceIdentifier: "prod|api"},
		TestMode: true,
	}

	ev := req.ExecutorEvent()
	assert.Equal(t, "api", ev.ResourceID)
	assert.Equal(t, "prod", ev.ClusterName)
	assert.Equal(t, "prod|api", ev.ResourceARN)
	assert.Equal(t, req.RuleID, ev.RuleName)
	assert.True(t, ev.TestMode)

	raw, err := json.Marshal(ev)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"restart_reason":"holiday_conflict_early_restart"`)
}

func TestPlannerEventParseDetail(t *testing.T) {
	raw := `{
		"source": "aws.health",
		"detail-type": "AWS Health Event",
		"detail": {
			"eventTypeCode": "AWS_ECS_TASK_PATCHING_RETIREMENT",
			"startTime": "2026-02-18T02:00:00Z",
			"endTime": "2026-02-18T06:00:00Z",
			"affectedEntities": [{"entityValue": "prod|api"}]
		},
		"test_mode": true
	}`

	var ev PlannerEvent
	require.NoError(t, json.Unmarshal([]byte(raw), &ev))
	assert.True(t, ev.TestMode)
	assert.Equal(t, "aws.health", ev.Source)

	d, err := ev.ParseDetail()
	require.NoError(t, err)
	assert.Equal(t, "2026-02-18T02:00:00Z", d.StartTime)
	require.Len(t, d.AffectedEntities, 1)
	assert.Equal(t, "prod|api", d.AffectedEntities[0].EntityValue)
}

func TestPlannerEventParseDetailEmpty(t *testing.T) {
	d, err := PlannerEvent{CloudWatchEvent: events.CloudWatchEvent{}}.ParseDetail()
	require.NoError(t, err)
	assert.Empty(t, d.StartTime)
}

func TestNewHandlerResponse(t *testing.T) {
	resp := NewHandlerResponse(200, map[string]string{"message": "ok"})
	assert.Equal(t, 200, resp.StatusCode)
	assert.JSONEq(t, `{"message":"ok"}`, resp.Body)

	bad := NewHandlerResponse(200, make(chan int))
	assert.Equal(t, 500, bad.StatusCode)
}

func TestNotificationIsStructured(t *testing.T) {
	now := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	n := NewNotification(EventProcessingError, SeverityHigh, "boom", now)
	assert.NotEmpty(t, n.ID)
	assert.False(t, n.IsStructured())

	n.Restart = &RestartOutcome{Status: OutcomeSuccess}
	assert.True(t, n.IsStructured())
}
