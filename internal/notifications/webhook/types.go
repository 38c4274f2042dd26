package webhook

import (
	"context"

	"holidayguard/internal/types"
)

// Platform identifies a webhook destination platform.
type Platform string

const (
	// PlatformGeneric is the default platform for unknown webhook URLs.
	PlatformGeneric Platform = "generic"

	// PlatformFeishu represents Feishu and Lark custom bots.
	PlatformFeishu Platform = "feishu"

	// PlatformSlack represents Slack incoming webhooks.
	PlatformSlack Platform = "slack"
)

// PlatformFormatter transforms a Notification into platform-specific JSON.
type PlatformFormatter interface {
	// Format transforms the Notification into the platform-specific JSON payload.
	Format(ctx context.Context, n *types.Notification) ([]byte, error)

	// Platform returns the enum identifier for logs and reports.
	Platform() Platform

	// ValidateResponse interprets the HTTP response body to catch "soft failures"
	// (e.g., Feishu returning HTTP 200 with a non-zero "code").
	ValidateResponse(statusCode int, body []byte) error
}

// --- Feishu Payload Types (interactive cards) ---

// FeishuMessage is the top-level custom bot message. Exactly one of Card or
// Content is set, depending on MsgType.
type FeishuMessage struct {
	MsgType string         `json:"msg_type"` // "interactive" or "text"
	Card    *FeishuCard    `json:"card,omitempty"`
	Content *FeishuContent `json:"content,omitempty"`
}

// FeishuContent carries a plain text message.
type FeishuContent struct {
	Text string `json:"text"`
}

// FeishuCard is an interactive message card.
type FeishuCard struct {
	Config   FeishuCardConfig `json:"config"`
	Header   FeishuHeader     `json:"header"`
	Elements []FeishuElement  `json:"elements"`
}

// FeishuCardConfig holds card display options.
type FeishuCardConfig struct {
	WideScreenMode bool `json:"wide_screen_mode"`
}

// FeishuHeader is the coloured card title bar.
type FeishuHeader struct {
	Title    FeishuText `json:"title"`
	Template string     `json:"template"` // "red", "blue", "green"
}

// FeishuElement is a "div" block holding either a text or a row of fields.
type FeishuElement struct {
	Tag    string        `json:"tag"`
	Text   *FeishuText   `json:"text,omitempty"`
	Fields []FeishuField `json:"fields,omitempty"`
}

// FeishuField is one column of a div row.
type FeishuField struct {
	IsShort bool       `json:"is_short"`
	Text    FeishuText `json:"text"`
}

// FeishuText is a text object; Tag is "plain_text" or "lark_md".
type FeishuText struct {
	Tag     string `json:"tag"`
	Content string `json:"content"`
}

// feishuResponse is the body returned by a custom bot endpoint.
type feishuResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

// --- Slack Payload Types (Block Kit) ---

// SlackPayload is the top-level structure for Slack Block Kit messages.
type SlackPayload struct {
	Text   string       `json:"text"` // Fallback text for push notifications
	Blocks []SlackBlock `json:"blocks,omitempty"`
}

// SlackBlock represents a single block in a Slack Block Kit message.
type SlackBlock struct {
	Type     string       `json:"type"`               // "section", "header", "context"
	Text     *SlackText   `json:"text,omitempty"`     // Primary text element
	Fields   []*SlackText `json:"fields,omitempty"`   // Multi-column fields
	Elements []*SlackText `json:"elements,omitempty"` // Context elements
}

// SlackText is a text composition object for Slack Block Kit.
type SlackText struct {
	Type string `json:"type"` // "plain_text", "mrkdwn"
	Text string `json:"text"`
}
