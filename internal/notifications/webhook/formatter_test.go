package webhook

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"holidayguard/internal/types"
)

// 2026-02-10T20:00Z is 2026-02-11 04:00 in the civil zone.
var restartAt = time.Date(2026, 2, 10, 20, 0, 0, 0, time.UTC)

func conflictNotification() *types.Notification {
	n := types.NewNotification(types.EventMaintenanceNotice, types.SeverityHigh,
		"maintenance overlaps a holiday blackout", time.Date(2026, 1, 30, 0, 0, 0, 0, time.UTC))
	n.ResourceID = "prod|api"
	n.Maintenance = &types.MaintenanceSummary{
		Window: types.MaintenanceWindow{
			Start: time.Date(2026, 2, 15, 2, 0, 0, 0, time.UTC),
			End:   time.Date(2026, 2, 15, 6, 0, 0, 0, time.UTC),
		},
		DaysUntil:       16,
		HolidayConflict: true,
		Action:          types.ActionEarlyRestart,
		RestartTime:     &restartAt,
		Resources:       []string{"prod/api"},
	}
	return n
}

func restartNotification(status types.OutcomeStatus) *types.Notification {
	n := types.NewNotification(types.EventRestartResult, types.SeverityInfo, "restart finished", restartAt)
	n.Restart = &types.RestartOutcome{
		Status:       status,
		Identity:     types.ResourceIdentity{Cluster: "prod", Service: "api"},
		ResourceID:   "api",
		Reason:       types.ReasonHolidayConflict,
		Timestamp:    restartAt,
		DeploymentID: "ecs-svc/123",
	}
	if status == types.OutcomeFailed {
		n.Severity = types.SeverityError
		n.Restart.DeploymentID = ""
		n.Restart.Error = "ServiceNotFoundException"
	}
	return n
}

func errorNotification() *types.Notification {
	n := types.NewNotification(types.EventProcessingError, types.SeverityError,
		"failed to process health event", restartAt)
	n.Error = "validation_time_window_invalid: maintenance window start is after end"
	return n
}

func elementContents(card *FeishuCard) []string {
	var out []string
	for _, el := range card.Elements {
		if el.Text != nil {
			out = append(out, el.Text.Content)
		}
		for _, f := range el.Fields {
			out = append(out, f.Text.Content)
		}
	}
	return out
}

// --- Feishu Formatter Tests ---

func TestFeishuFormatter_MaintenanceConflictCard(t *testing.T) {
	data, err := (&FeishuFormatter{}).Format(context.Background(), conflictNotification())
	require.NoError(t, err)

	var msg FeishuMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, "interactive", msg.MsgType)
	require.NotNil(t, msg.Card)
	assert.Equal(t, "red", msg.Card.Header.Template)
	assert.Equal(t, "plain_text", msg.Card.Header.Title.Tag)
	assert.Contains(t, msg.Card.Header.Title.Content, "holiday conflict")
	assert.True(t, msg.Card.Config.WideScreenMode)

	contents := elementContents(msg.Card)
	assert.Contains(t, contents, "**Resource**\nprod|api")
	assert.Contains(t, contents, "**Action**\nEarly restart")
	assert.Contains(t, contents, "**Maintenance window**\n2026-02-15 to 2026-02-15")
	assert.Contains(t, contents, "**Days until maintenance**\n16")
	assert.Contains(t, contents, "**⏰ Planned restart**\n2026-02-11 04:00:00")

	last := msg.Card.Elements[len(msg.Card.Elements)-1]
	require.NotNil(t, last.Text)
	assert.Contains(t, last.Text.Content, "overlaps a holiday blackout")
}

func TestFeishuFormatter_MaintenanceNoConflictCard(t *testing.T) {
	n := conflictNotification()
	n.Maintenance.HolidayConflict = false
	n.Maintenance.Action = types.ActionNoActionNeeded
	n.Maintenance.RestartTime = nil

	data, err := (&FeishuFormatter{}).Format(context.Background(), n)
	require.NoError(t, err)

	var msg FeishuMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, "blue", msg.Card.Header.Template)
	assert.Len(t, msg.Card.Elements, 3)

	contents := elementContents(msg.Card)
	assert.Contains(t, contents, "**Action**\nHandled by AWS")
	for _, c := range contents {
		assert.NotContains(t, c, "Planned restart")
	}
}

func TestFeishuFormatter_RestartCards(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		data, err := (&FeishuFormatter{}).Format(context.Background(), restartNotification(types.OutcomeSuccess))
		require.NoError(t, err)

		var msg FeishuMessage
		require.NoError(t, json.Unmarshal(data, &msg))
		assert.Equal(t, "green", msg.Card.Header.Template)

		contents := elementContents(msg.Card)
		assert.Contains(t, contents, "**Cluster**\nprod")
		assert.Contains(t, contents, "**Service**\napi")
		assert.Contains(t, contents, "**Reason**\nEarly restart ahead of holiday")
		assert.Contains(t, contents, "**Executed at**\n2026-02-11 04:00:00")
		assert.Contains(t, contents, "**🚀 Deployment**\necs-svc/123")
	})

	t.Run("failure", func(t *testing.T) {
		data, err := (&FeishuFormatter{}).Format(context.Background(), restartNotification(types.OutcomeFailed))
		require.NoError(t, err)

		var msg FeishuMessage
		require.NoError(t, json.Unmarshal(data, &msg))
		assert.Equal(t, "red", msg.Card.Header.Template)
		assert.Contains(t, elementContents(msg.Card), "**❗ Error**\n```\nServiceNotFoundException\n```")
	})

	t.Run("test mode", func(t *testing.T) {
		n := restartNotification(types.OutcomeTestSuccess)
		n.TestMode = true
		data, err := (&FeishuFormatter{}).Format(context.Background(), n)
		require.NoError(t, err)

		var msg FeishuMessage
		require.NoError(t, json.Unmarshal(data, &msg))
		assert.Equal(t, "green", msg.Card.Header.Template)
		assert.Contains(t, msg.Card.Header.Title.Content, "(test mode)")
		for _, c := range elementContents(msg.Card) {
			assert.NotContains(t, c, "Deployment")
		}
	})
}

func TestFeishuFormatter_TextFallback(t *testing.T) {
	data, err := (&FeishuFormatter{}).Format(context.Background(), errorNotification())
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "text", raw["msg_type"])
	assert.NotContains(t, raw, "card")

	content := raw["content"].(map[string]any)
	assert.Contains(t, content["text"], "ECS maintenance processing error")
	assert.Contains(t, content["text"], "validation_time_window_invalid")
}

func TestFeishuFormatter_ValidateResponse(t *testing.T) {
	f := &FeishuFormatter{}

	assert.NoError(t, f.ValidateResponse(200, []byte(`{"code":0,"msg":"success"}`)))
	assert.NoError(t, f.ValidateResponse(200, nil))
	assert.NoError(t, f.ValidateResponse(200, []byte("not json")))

	err := f.ValidateResponse(200, []byte(`{"code":19021,"msg":"sign match fail"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sign match fail")

	assert.Error(t, f.ValidateResponse(400, []byte(`bad`)))
}

// --- Slack Formatter Tests ---

func TestSlackFormatter_Maintenance(t *testing.T) {
	data, err := (&SlackFormatter{}).Format(context.Background(), conflictNotification())
	require.NoError(t, err)

	var payload SlackPayload
	require.NoError(t, json.Unmarshal(data, &payload))
	assert.Contains(t, payload.Text, "HIGH")
	require.GreaterOrEqual(t, len(payload.Blocks), 3)
	assert.Equal(t, "header", payload.Blocks[0].Type)
	assert.Len(t, payload.Blocks[1].Fields, 4)
	assert.Equal(t, "context", payload.Blocks[len(payload.Blocks)-1].Type)
}

func TestSlackFormatter_RestartFailure(t *testing.T) {
	data, err := (&SlackFormatter{}).Format(context.Background(), restartNotification(types.OutcomeFailed))
	require.NoError(t, err)
	assert.Contains(t, string(data), "ServiceNotFoundException")
	assert.Contains(t, string(data), "ECS restart failed")
}

func TestSlackFormatter_TextFallback(t *testing.T) {
	data, err := (&SlackFormatter{}).Format(context.Background(), errorNotification())
	require.NoError(t, err)

	var payload SlackPayload
	require.NoError(t, json.Unmarshal(data, &payload))
	assert.Empty(t, payload.Blocks)
	assert.Contains(t, payload.Text, "processing error")
}

func TestSlackFormatter_ValidateResponse(t *testing.T) {
	f := &SlackFormatter{}

	tests := []struct {
		name    string
		status  int
		body    string
		wantErr bool
	}{
		{"ok body", 200, "ok", false},
		{"empty body", 200, "", false},
		{"json ok false", 200, `{"ok":false,"error":"invalid_blocks"}`, true},
		{"plain error token", 200, "channel_not_found", true},
		{"server error", 500, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.ValidateResponse(tt.status, []byte(tt.body))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// --- Generic Formatter Tests ---

func TestGenericFormatter_Format(t *testing.T) {
	n := restartNotification(types.OutcomeSuccess)
	data, err := (&GenericFormatter{}).Format(context.Background(), n)
	require.NoError(t, err)

	var decoded types.Notification
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, n.ID, decoded.ID)
	assert.Equal(t, types.EventRestartResult, decoded.EventType)
	assert.Equal(t, "ecs-svc/123", decoded.Restart.DeploymentID)
}

func TestFormatters_NilNotification(t *testing.T) {
	for _, f := range []PlatformFormatter{&FeishuFormatter{}, &SlackFormatter{}, &GenericFormatter{}} {
		_, err := f.Format(context.Background(), nil)
		assert.Error(t, err, string(f.Platform()))
	}
}
