// Package main is the entrypoint for the Restart Executor Lambda.
//
// A one-shot EventBridge rule created by the planner invokes this function
// with the target service. It forces a new ECS deployment, deletes the rule
// that fired and reports the outcome.
//
// Local usage:
//
//	echo '{"resource_id":"api","cluster_name":"prod","service_name":"api","test_mode":true}' |
//	    APP_ENV=local go run ./cmd/executor
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/service/ecs"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"

	"holidayguard/internal/app"
	"holidayguard/internal/executor"
	"holidayguard/internal/external"
	"holidayguard/internal/types"
)

func main() {
	ctx := context.Background()

	d, err := app.Load(ctx, "executor")
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stderr, nil)).Error("executor initialization failed", "error", err)
		os.Exit(1)
	}

	e := &executor.Executor{
		Log:       d.Logger,
		Restarter: external.NewECSRestarter(ecs.NewFromConfig(d.AWS), d.Logger),
		Rules:     external.NewRuleScheduler(eventbridge.NewFromConfig(d.AWS), d.Config.Planner.ExecutorARN, d.Logger),
		Notifier:  d.Dispatcher(),
		Metrics:   d.Metrics,
		Clock:     types.RealClock{},
	}

	handler := func(ctx context.Context, event types.ExecutorEvent) (types.HandlerResponse, error) {
		return e.Handle(app.WithInvocation(ctx), event), nil
	}

	d.Logger.Info("executor initialized",
		"webhook_configured", d.Config.Notification.WebhookURL.IsSet(),
		"archive_configured", d.Config.Notification.ArchiveQueueURL != "",
	)

	if d.Config.IsLocal() {
		d.Logger.Info("APP_ENV=local: reading event from stdin")
		if err := app.RunLocal(ctx, os.Stdin, os.Stdout, app.Handler[types.ExecutorEvent](handler)); err != nil {
			d.Logger.Error("local invocation failed", "error", err)
			os.Exit(1)
		}
		return
	}

	lambda.Start(handler)
}
