// Package app wires the pieces both Lambda functions share: configuration,
// the AWS SDK config, the JSON logger, metrics and the notification sinks.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	"holidayguard/internal/config"
	"holidayguard/internal/external"
	"holidayguard/internal/notifications/core"
	"holidayguard/internal/notifications/webhook"
	"holidayguard/internal/security"
	"holidayguard/internal/types"
)

// Metrics is everything the workflows record.
type Metrics interface {
	RecordConflict(ctx context.Context, conflict bool)
	RecordSchedule(ctx context.Context, result string)
	RecordRestart(ctx context.Context, status types.OutcomeStatus)
	RecordDelivery(ctx context.Context, sink string, status types.DeliveryStatus)
}

// Deps is the cold-start state of one function.
type Deps struct {
	Config  *config.Config
	Logger  *slog.Logger
	AWS     aws.Config
	Metrics Metrics
}

// Load resolves configuration (including *_SSM_PARAM secrets outside
// local) and builds the logger and metrics publisher.
func Load(ctx context.Context, component string) (*Deps, error) {
	regional, err := config.LoadAWSConfig()
	if err != nil {
		return nil, err
	}

	// Workflow calls are attempted once; failures surface in the outcome.
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRetryMaxAttempts(1))
	if err != nil {
		return nil, fmt.Errorf("loading AWS SDK config: %w", err)
	}
	regional.Apply(&awsCfg)

	cfg, err := config.LoadConfig(config.NewSSMProvider(ssm.NewFromConfig(awsCfg)))
	if err != nil {
		return nil, err
	}
	cfg.AWS.Apply(&awsCfg)

	logger := NewLogger(os.Stdout, cfg.LogLevel).With(
		"service", cfg.Service,
		"component", component,
		"version", cfg.Build.Version,
	)

	d := &Deps{Config: cfg, Logger: logger, AWS: awsCfg}
	d.Metrics = NewMetrics(cfg.Observability, cloudwatch.NewFromConfig(awsCfg), logger)
	return d, nil
}

// NewLogger returns a JSON logger at the named level. Unknown names mean
// info.
func NewLogger(w io.Writer, level string) *slog.Logger {
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: l}))
}

// NewMetrics returns the CloudWatch publisher, or a no-op when metrics are
// disabled.
func NewMetrics(cfg config.ObservabilityConfig, client external.CloudWatchAPI, logger *slog.Logger) Metrics {
	if !cfg.EnableMetrics || client == nil {
		return external.NoopMetrics{}
	}
	return external.NewCloudWatchMetrics(client, cfg.MetricNamespace, logger)
}

// webhookMaxRedirects caps redirects followed by the webhook client.
const webhookMaxRedirects = 3

// NewDispatcher builds the sink chain: the log sink, the webhook and the
// SQS archive. Sinks without configuration report skipped.
func NewDispatcher(cfg config.NotificationConfig, sqsClient core.SQSSender, metrics core.DeliveryMetrics, logger *slog.Logger) *core.Dispatcher {
	httpClient := external.NewBaseClient(
		security.NewHTTPClient(security.NewGuard(), cfg.Timeout, webhookMaxRedirects),
		"webhook",
		cfg.UserAgent,
	)
	return core.NewDispatcher(logger, metrics,
		core.NewLogSink(logger),
		webhook.NewWebhookChannel(httpClient, cfg.WebhookURL, cfg.PlatformOverride, logger),
		core.NewArchivePublisher(sqsClient, cfg.ArchiveQueueURL),
	)
}

// Dispatcher builds the sink chain for d.
func (d *Deps) Dispatcher() *core.Dispatcher {
	var sqsClient core.SQSSender
	if d.Config.Notification.ArchiveQueueURL != "" {
		sqsClient = sqs.NewFromConfig(d.AWS)
	}
	return NewDispatcher(d.Config.Notification, sqsClient, d.Metrics, d.Logger)
}

// WithInvocation copies the Lambda request id into ctx so log lines and
// notifications carry it.
func WithInvocation(ctx context.Context) context.Context {
	if lc, ok := lambdacontext.FromContext(ctx); ok && lc.AwsRequestID != "" {
		return types.WithRequestID(ctx, lc.AwsRequestID)
	}
	return ctx
}

// Handler is the shape both Lambda entrypoints share.
type Handler[E any] func(ctx context.Context, event E) (types.HandlerResponse, error)

// RunLocal decodes one event from in, runs handler and writes the response
// to out. Used when APP_ENV=local instead of the Lambda runtime. A 5xx
// response is returned as an error so the process exits non-zero.
func RunLocal[E any](ctx context.Context, in io.Reader, out io.Writer, handler Handler[E]) error {
	payload, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("reading event: %w", err)
	}
	if len(strings.TrimSpace(string(payload))) == 0 {
		return fmt.Errorf("no event received on stdin")
	}

	var event E
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("decoding event: %w", err)
	}

	resp, err := handler(ctx, event)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(resp); err != nil {
		return fmt.Errorf("writing response: %w", err)
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("handler responded %d", resp.StatusCode)
	}
	return nil
}
