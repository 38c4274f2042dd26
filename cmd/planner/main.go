// Package main is the entrypoint for the Conflict Planner Lambda.
//
// The planner is triggered by an EventBridge rule on AWS Health scheduled
// changes for ECS. When the maintenance window overlaps a holiday blackout
// it creates one-shot EventBridge rules that invoke the restart executor
// ahead of the holiday.
//
// This file wires dependencies at cold start; the workflow lives in
// internal/planner.
//
// Local usage:
//
//	APP_ENV=local go run ./cmd/planner < testdata/health-event.json
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/service/ecs"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	"holidayguard/internal/app"
	"holidayguard/internal/blackout"
	"holidayguard/internal/external"
	"holidayguard/internal/planner"
	"holidayguard/internal/resource"
	"holidayguard/internal/types"
)

func main() {
	ctx := context.Background()

	d, err := app.Load(ctx, "planner")
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stderr, nil)).Error("planner initialization failed", "error", err)
		os.Exit(1)
	}

	p, err := newPlanner(d)
	if err != nil {
		d.Logger.Error("planner initialization failed", "error", err)
		os.Exit(1)
	}

	handler := func(ctx context.Context, event types.PlannerEvent) (types.HandlerResponse, error) {
		return p.Handle(app.WithInvocation(ctx), event), nil
	}

	d.Logger.Info("planner initialized",
		"rule_namespace", d.Config.Planner.RuleNamespace,
		"restart_hour", d.Config.Planner.RestartHour,
		"blackout_prefix", d.Config.Blackout.ParameterPrefix,
		"write_back", d.Config.Blackout.WriteBack,
		"webhook_configured", d.Config.Notification.WebhookURL.IsSet(),
	)

	if d.Config.IsLocal() {
		d.Logger.Info("APP_ENV=local: reading event from stdin")
		if err := app.RunLocal(ctx, os.Stdin, os.Stdout, app.Handler[types.PlannerEvent](handler)); err != nil {
			d.Logger.Error("local invocation failed", "error", err)
			os.Exit(1)
		}
		return
	}

	lambda.Start(handler)
}

func newPlanner(d *app.Deps) (*planner.Planner, error) {
	cfg := d.Config
	if cfg.Planner.ExecutorARN == "" && !cfg.IsLocal() {
		return nil, fmt.Errorf("RESTART_EXECUTOR_ARN is required")
	}

	store := external.NewParameterStore(ssm.NewFromConfig(d.AWS))
	movable := blackout.NewResolver(store, cfg.Blackout.ResolverConfig(), d.Logger)
	lookup := external.NewECSServiceLookup(ecs.NewFromConfig(d.AWS), d.Logger)

	return &planner.Planner{
		Config: planner.Config{
			Calculator:    cfg.Planner.Calculator(),
			Builder:       cfg.Planner.Builder(),
			RestartReason: cfg.Planner.RestartReason,
		},
		Log:       d.Logger,
		Checker:   blackout.DefaultCatalogue(movable),
		Resolver:  resource.NewResolver(lookup, d.Logger),
		Scheduler: external.NewRuleScheduler(eventbridge.NewFromConfig(d.AWS), cfg.Planner.ExecutorARN, d.Logger),
		Notifier:  d.Dispatcher(),
		Metrics:   d.Metrics,
		Clock:     types.RealClock{},
	}, nil
}
