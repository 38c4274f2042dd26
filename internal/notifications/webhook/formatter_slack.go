package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"holidayguard/internal/types"
)

// SlackFormatter formats notifications as Slack Block Kit JSON.
type SlackFormatter struct{}

// Platform returns the platform identifier.
func (f *SlackFormatter) Platform() Platform {
	return PlatformSlack
}

// Format transforms a Notification into Slack Block Kit JSON.
func (f *SlackFormatter) Format(_ context.Context, n *types.Notification) ([]byte, error) {
	if n == nil {
		return nil, fmt.Errorf("slack formatter: notification is nil")
	}

	if !n.IsStructured() {
		return json.Marshal(SlackPayload{Text: plainText(n)})
	}

	title := formatTitle(n)
	payload := SlackPayload{
		Text: fmt.Sprintf("[%s] %s", n.Severity, title),
		Blocks: []SlackBlock{
			{Type: "header", Text: &SlackText{Type: "plain_text", Text: title}},
			{Type: "section", Fields: buildSlackFields(n)},
		},
	}

	var details string
	if n.Maintenance != nil {
		details = maintenanceDescription(n.Maintenance)
		if n.Maintenance.RestartTime != nil && n.Maintenance.HolidayConflict {
			payload.Blocks = append(payload.Blocks, SlackBlock{
				Type: "section",
				Text: &SlackText{Type: "mrkdwn", Text: "*Planned restart*\n" + civil(*n.Maintenance.RestartTime, dateTimeLayout)},
			})
		}
	} else {
		details = restartDescription(n.Restart)
		if n.Restart.Error != "" {
			payload.Blocks = append(payload.Blocks, SlackBlock{
				Type: "section",
				Text: &SlackText{Type: "mrkdwn", Text: "*Error*\n```" + n.Restart.Error + "```"},
			})
		}
	}
	payload.Blocks = append(payload.Blocks, SlackBlock{
		Type:     "context",
		Elements: []*SlackText{{Type: "mrkdwn", Text: details}},
	})

	return json.Marshal(payload)
}

// ValidateResponse checks for Slack's "soft failure" pattern where the API
// returns HTTP 200 but the body is an error token instead of "ok".
func (f *SlackFormatter) ValidateResponse(statusCode int, body []byte) error {
	if statusCode < 200 || statusCode >= 300 {
		return fmt.Errorf("slack: unexpected status %d", statusCode)
	}

	bodyStr := strings.TrimSpace(string(body))
	if bodyStr == "" || bodyStr == "ok" {
		return nil
	}

	var resp struct {
		OK    *bool  `json:"ok"`
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &resp); err == nil && resp.OK != nil && !*resp.OK {
		if resp.Error == "" {
			resp.Error = "unknown error"
		}
		return fmt.Errorf("slack: API error: %s", resp.Error)
	}

	switch bodyStr {
	case "no_text", "channel_not_found", "channel_is_archived", "invalid_payload":
		return fmt.Errorf("slack: API error: %s", bodyStr)
	}
	return nil
}

func buildSlackFields(n *types.Notification) []*SlackText {
	field := func(label, value string) *SlackText {
		return &SlackText{Type: "mrkdwn", Text: fmt.Sprintf("*%s*\n%s", label, value)}
	}

	if m := n.Maintenance; m != nil {
		return []*SlackText{
			field("Resource", n.ResourceID),
			field("Action", formatAction(m.Action)),
			field("Maintenance window", fmt.Sprintf("%s to %s",
				civil(m.Window.Start, dateLayout), civil(m.Window.End, dateLayout))),
			field("Days until maintenance", strconv.Itoa(m.DaysUntil)),
		}
	}

	o := n.Restart
	fields := []*SlackText{
		field("Service", o.Identity.String()),
		field("Status", string(o.Status)),
		field("Reason", formatReason(o.Reason)),
		field("Executed at", civil(o.Timestamp, dateTimeLayout)),
	}
	if o.DeploymentID != "" {
		fields = append(fields, field("Deployment", o.DeploymentID))
	}
	return fields
}
