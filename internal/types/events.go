package types

import (
	"encoding/json"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
)

// PlannerEvent is the EventBridge envelope of an AWS Health event with the
// optional test_mode flag used for dry runs.
type PlannerEvent struct {
	events.CloudWatchEvent
	TestMode bool `json:"test_mode,omitempty"`
}

// AffectedEntity is one entry of the Health event's affectedEntities list.
type AffectedEntity struct {
	EntityValue string `json:"entityValue"`
}

// HealthEventDetail is the subset of the AWS Health event detail the planner
// reads. Times stay raw strings; parsing is zone-aware and lives in the
// blackout package.
type HealthEventDetail struct {
	EventTypeCode    string           `json:"eventTypeCode,omitempty"`
	Service          string           `json:"service,omitempty"`
	StartTime        string           `json:"startTime"`
	EndTime          string           `json:"endTime"`
	AffectedEntities []AffectedEntity `json:"affectedEntities"`
}

// ParseDetail decodes the event's detail section. An absent detail decodes
// to the zero value.
func (e PlannerEvent) ParseDetail() (HealthEventDetail, error) {
	var d HealthEventDetail
	if len(e.Detail) == 0 || string(e.Detail) == "null" {
		return d, nil
	}
	if err := json.Unmarshal(e.Detail, &d); err != nil {
		return d, fmt.Errorf("decoding health event detail: %w", err)
	}
	return d, nil
}

// ExecutorEvent is the input delivered by a fired restart rule.
type ExecutorEvent struct {
	ResourceID    string `json:"resource_id" validate:"required"`
	ClusterName   string `json:"cluster_name" validate:"required"`
	ServiceName   string `json:"service_name" validate:"required"`
	ResourceARN   string `json:"resource_arn,omitempty"`
	RuleName      string `json:"rule_name,omitempty"`
	RestartReason string `json:"restart_reason,omitempty"`
	TestMode      bool   `json:"test_mode,omitempty"`
}

// Identity returns the ECS service addressed by the event.
func (e ExecutorEvent) Identity() ResourceIdentity {
	return ResourceIdentity{Cluster: e.ClusterName, Service: e.ServiceName}
}

// HandlerResponse is the value both Lambda functions return.
type HandlerResponse struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

// NewHandlerResponse marshals body into a HandlerResponse. A marshalling
// failure degrades to a 500 with a fixed message.
func NewHandlerResponse(status int, body any) HandlerResponse {
	raw, err := json.Marshal(body)
	if err != nil {
		return HandlerResponse{
			StatusCode: 500,
			Body:       `{"error":"failed to encode response body"}`,
		}
	}
	return HandlerResponse{StatusCode: status, Body: string(raw)}
}
