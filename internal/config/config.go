// Package config defines the configuration shared by the HolidayGuard
// Lambdas and the operator CLI. Configuration is loaded once at process
// start (Lambda cold start) and is immutable thereafter.
//
// Values are resolved via a priority chain:
//
//	OS Environment (Highest) -> Dotenv File -> AWS SSM Parameter Store (Lowest)
//
// A missing required value or an invalid format fails the load.
package config

import (
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"

	"holidayguard/internal/blackout"
	"holidayguard/internal/restart"
	"holidayguard/internal/types"
)

// SecretString is an alias for types.SecretString so secrets loaded here
// stay redacted in logs.
type SecretString = types.SecretString

// Config is the top-level configuration. Components receive only the
// sections they need.
type Config struct {
	Environment string `envconfig:"APP_ENV" default:"prod" validate:"required,oneof=local dev staging prod"`
	Service     string `envconfig:"OTEL_SERVICE_NAME" default:"holidayguard"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`

	AWS           AWSConfig
	Planner       PlannerConfig
	Blackout      BlackoutConfig
	Notification  NotificationConfig
	Observability ObservabilityConfig

	// Build Metadata (Injected via ldflags, not Env)
	Build BuildInfo
}

// IsLocal reports whether the process runs outside AWS.
func (c *Config) IsLocal() bool {
	return c.Environment == localEnv
}

// AWSConfig holds regional configuration.
type AWSConfig struct {
	Region string `envconfig:"AWS_REGION" default:"us-east-1"`

	// LocalStack Support (Empty in Prod)
	EndpointURL string `envconfig:"AWS_ENDPOINT_URL"`
}

// Apply copies the region and endpoint overrides onto an SDK config.
func (a AWSConfig) Apply(cfg *aws.Config) {
	if a.Region != "" {
		cfg.Region = a.Region
	}
	if a.EndpointURL != "" {
		cfg.BaseEndpoint = aws.String(a.EndpointURL)
	}
}

// PlannerConfig controls how restarts are scheduled. ExecutorARN is only
// needed by the planner and is checked there.
type PlannerConfig struct {
	ExecutorARN   string        `envconfig:"RESTART_EXECUTOR_ARN" validate:"omitempty,startswith=arn:"`
	RuleNamespace string        `envconfig:"RULE_NAMESPACE" default:"ecs-restart" validate:"required,max=32"`
	RestartHour   int           `envconfig:"RESTART_HOUR" default:"4" validate:"min=0,max=23"`
	RestartGuard  time.Duration `envconfig:"RESTART_GUARD" default:"10m" validate:"min=0,lt=24h"`
	RestartReason string        `envconfig:"RESTART_REASON" default:"holiday_conflict_early_restart"`
}

// Calculator returns the restart slot calculator. The slot is always UTC.
func (p PlannerConfig) Calculator() restart.Calculator {
	return restart.Calculator{Hour: p.RestartHour, Zone: time.UTC, Guard: p.RestartGuard}
}

// Builder returns the schedule request builder.
func (p PlannerConfig) Builder() restart.Builder {
	return restart.Builder{Namespace: p.RuleNamespace}
}

// BlackoutConfig locates movable-blackout overrides in Parameter Store.
type BlackoutConfig struct {
	ParameterPrefix string `envconfig:"BLACKOUT_PARAMETER_PREFIX" default:"/ecs-phd-restart" validate:"required,startswith=/"`
	MovableKind     string `envconfig:"BLACKOUT_MOVABLE_KIND" default:"spring-festival" validate:"required"`
	WriteBack       bool   `envconfig:"BLACKOUT_WRITE_BACK" default:"true"`
}

// ResolverConfig converts the section for blackout.NewResolver.
func (b BlackoutConfig) ResolverConfig() blackout.ResolverConfig {
	return blackout.ResolverConfig{
		Prefix:    b.ParameterPrefix,
		Kind:      b.MovableKind,
		WriteBack: b.WriteBack,
	}
}

// NotificationConfig holds the sink settings. An empty WebhookURL disables
// the webhook sink and an empty ArchiveQueueURL disables the archive.
type NotificationConfig struct {
	WebhookURL       SecretString  `envconfig:"WEBHOOK_URL"`
	PlatformOverride string        `envconfig:"WEBHOOK_PLATFORM" validate:"omitempty,oneof=generic feishu slack"`
	Timeout          time.Duration `envconfig:"WEBHOOK_TIMEOUT" default:"10s"`
	UserAgent        string        `envconfig:"WEBHOOK_USER_AGENT" default:"HolidayGuard-Webhook/1.0"`
	ArchiveQueueURL  string        `envconfig:"OUTCOME_QUEUE_URL" validate:"omitempty,url"`
}

// ObservabilityConfig holds metrics settings.
type ObservabilityConfig struct {
	MetricNamespace string `envconfig:"METRIC_NAMESPACE" default:"HolidayGuard"`
	EnableMetrics   bool   `envconfig:"ENABLE_METRICS" default:"true"`
}

// BuildInfo holds build-time metadata injected via ldflags.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// ConfigErrorType categorizes configuration loading failures.
type ConfigErrorType string

const (
	// ErrSSMResolution indicates a failure when fetching secrets from AWS SSM.
	ErrSSMResolution ConfigErrorType = "SSM_FAILURE"
	// ErrValidation indicates the configuration failed struct validation rules.
	ErrValidation ConfigErrorType = "VALIDATION_FAILED"
	// ErrParsing indicates a failure when parsing environment variable values
	// into their target types.
	ErrParsing ConfigErrorType = "PARSING_FAILED"
)
