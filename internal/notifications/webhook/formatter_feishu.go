package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"holidayguard/internal/types"
)

// FeishuFormatter renders maintenance decisions and restart outcomes as
// interactive cards. Notifications with neither section fall back to a
// plain text message.
type FeishuFormatter struct{}

// Platform returns the platform identifier.
func (f *FeishuFormatter) Platform() Platform {
	return PlatformFeishu
}

// Format transforms a Notification into a Feishu custom bot message.
func (f *FeishuFormatter) Format(_ context.Context, n *types.Notification) ([]byte, error) {
	if n == nil {
		return nil, fmt.Errorf("feishu formatter: notification is nil")
	}

	var msg FeishuMessage
	switch {
	case n.Maintenance != nil:
		msg = FeishuMessage{MsgType: "interactive", Card: maintenanceCard(n)}
	case n.Restart != nil:
		msg = FeishuMessage{MsgType: "interactive", Card: restartCard(n)}
	default:
		msg = FeishuMessage{MsgType: "text", Content: &FeishuContent{Text: plainText(n)}}
	}
	return json.Marshal(msg)
}

// ValidateResponse treats a non-zero "code" in a 2xx body as a failure.
// Custom bots reply HTTP 200 for rejected payloads and bad signatures.
func (f *FeishuFormatter) ValidateResponse(statusCode int, body []byte) error {
	if statusCode < 200 || statusCode >= 300 {
		return fmt.Errorf("feishu: unexpected status %d: %s", statusCode, truncateBody(body))
	}
	if len(body) == 0 {
		return nil
	}

	var resp feishuResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil
	}
	if resp.Code != 0 {
		return fmt.Errorf("feishu: API error %d: %s", resp.Code, resp.Msg)
	}
	return nil
}

func maintenanceCard(n *types.Notification) *FeishuCard {
	m := n.Maintenance
	template, icon := "blue", "ℹ️"
	if m.HolidayConflict {
		template, icon = "red", "🚨"
	}

	card := newCard(fmt.Sprintf("%s %s", icon, formatTitle(n)), template)
	card.Elements = append(card.Elements,
		fieldRow(
			mdField("Resource", n.ResourceID),
			mdField("Action", formatAction(m.Action)),
		),
		fieldRow(
			mdField("Maintenance window", fmt.Sprintf("%s to %s",
				civil(m.Window.Start, dateLayout), civil(m.Window.End, dateLayout))),
			mdField("Days until maintenance", strconv.Itoa(m.DaysUntil)),
		),
	)

	if m.HolidayConflict && m.RestartTime != nil {
		card.Elements = append(card.Elements, mdBlock("⏰ Planned restart", civil(*m.RestartTime, dateTimeLayout)))
	}
	if len(m.Failed) > 0 {
		card.Elements = append(card.Elements, mdBlock("❗ Not scheduled", strings.Join(m.Failed, "\n")))
	}

	card.Elements = append(card.Elements, mdBlock("Details", maintenanceDescription(m)))
	return card
}

func restartCard(n *types.Notification) *FeishuCard {
	o := n.Restart
	template, icon := "red", "❌"
	if o.Succeeded() {
		template, icon = "green", "✅"
	}

	card := newCard(fmt.Sprintf("%s %s", icon, formatTitle(n)), template)
	card.Elements = append(card.Elements,
		fieldRow(
			mdField("Cluster", o.Identity.Cluster),
			mdField("Service", o.Identity.Service),
		),
		fieldRow(
			mdField("Reason", formatReason(o.Reason)),
			mdField("Executed at", civil(o.Timestamp, dateTimeLayout)),
		),
		mdBlock("Resource", o.ResourceID),
	)

	if o.Status == types.OutcomeSuccess && o.DeploymentID != "" {
		card.Elements = append(card.Elements, mdBlock("🚀 Deployment", o.DeploymentID))
	}
	if o.Status == types.OutcomeFailed && o.Error != "" {
		card.Elements = append(card.Elements, mdBlock("❗ Error", "```\n"+o.Error+"\n```"))
	}

	card.Elements = append(card.Elements, mdBlock("Details", restartDescription(o)))
	return card
}

func newCard(title, template string) *FeishuCard {
	return &FeishuCard{
		Config: FeishuCardConfig{WideScreenMode: true},
		Header: FeishuHeader{
			Title:    FeishuText{Tag: "plain_text", Content: title},
			Template: template,
		},
	}
}

func fieldRow(fields ...FeishuField) FeishuElement {
	return FeishuElement{Tag: "div", Fields: fields}
}

func mdField(label, value string) FeishuField {
	return FeishuField{IsShort: true, Text: FeishuText{Tag: "lark_md", Content: fmt.Sprintf("**%s**\n%s", label, value)}}
}

func mdBlock(label, value string) FeishuElement {
	return FeishuElement{Tag: "div", Text: &FeishuText{Tag: "lark_md", Content: fmt.Sprintf("**%s**\n%s", label, value)}}
}
