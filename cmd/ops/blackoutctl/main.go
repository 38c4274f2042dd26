// Package main implements blackoutctl, the operator tool for holiday
// blackouts.
//
// Usage:
//
//	blackoutctl show 2027
//	blackoutctl seed 2027 --start 2027-02-05 --end "2027-02-12 23:59:59"
//	blackoutctl check --start 2026-10-03T02:00:00Z --end 2026-10-03T06:00:00Z
//	blackoutctl serve --addr :8080
//	blackoutctl webhook set --param /prod/holidayguard/webhook-url
//
// Configuration comes from the same environment as the Lambdas
// (BLACKOUT_PARAMETER_PREFIX, RESTART_HOUR, ...).
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ecs"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/spf13/cobra"

	"holidayguard/internal/app"
	"holidayguard/internal/blackout"
	"holidayguard/internal/config"
	"holidayguard/internal/external"
	"holidayguard/internal/resource"
	"holidayguard/internal/security"
	"holidayguard/internal/types"
)

// Store is the Parameter Store surface the commands need.
type Store interface {
	blackout.ParameterStore
	PutSecret(ctx context.Context, name, value, description string, overwrite bool) error
}

// cli carries what every command shares. Tests replace the factories.
type cli struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	cfg    *config.Config
	logger *slog.Logger
	clock  types.Clock
	guard  *security.Guard

	newStore  func(ctx context.Context) (Store, error)
	newLookup func(ctx context.Context) (resource.ServiceLookup, error)

	awsCfg *aws.Config
}

func main() {
	c := &cli{
		in:     os.Stdin,
		out:    os.Stdout,
		errOut: os.Stderr,
		clock:  types.RealClock{},
		guard:  security.NewGuard(),
	}
	c.newStore = c.liveStore
	c.newLookup = c.liveLookup

	if err := newRootCmd(c).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:           "blackoutctl",
		Short:         "Inspect and manage holiday blackouts for ECS restarts",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.init(cmd.Context())
		},
	}
	root.SetIn(c.in)
	root.SetOut(c.out)
	root.SetErr(c.errOut)

	root.AddCommand(
		newShowCmd(c),
		newSeedCmd(c),
		newCheckCmd(c),
		newServeCmd(c),
		newWebhookCmd(c),
	)
	return root
}

func (c *cli) init(ctx context.Context) error {
	if c.cfg == nil {
		var provider config.SecretProvider
		if os.Getenv("APP_ENV") != "local" {
			regional, err := config.LoadAWSConfig()
			if err != nil {
				return err
			}
			awsCfg, err := c.baseAWS(ctx)
			if err != nil {
				return err
			}
			regional.Apply(&awsCfg)
			provider = config.NewSSMProvider(ssm.NewFromConfig(awsCfg))
		}
		cfg, err := config.LoadConfig(provider)
		if err != nil {
			return err
		}
		c.cfg = cfg
	}
	if c.logger == nil {
		c.logger = app.NewLogger(c.errOut, c.cfg.LogLevel)
	}
	return nil
}

// baseAWS loads the SDK defaults once.
func (c *cli) baseAWS(ctx context.Context) (aws.Config, error) {
	if c.awsCfg == nil {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return aws.Config{}, fmt.Errorf("loading AWS SDK config: %w", err)
		}
		c.awsCfg = &awsCfg
	}
	return c.awsCfg.Copy(), nil
}

// aws returns the SDK config with the loaded region and endpoint applied.
func (c *cli) aws(ctx context.Context) (aws.Config, error) {
	awsCfg, err := c.baseAWS(ctx)
	if err != nil {
		return aws.Config{}, err
	}
	if c.cfg != nil {
		c.cfg.AWS.Apply(&awsCfg)
	}
	return awsCfg, nil
}

func (c *cli) liveStore(ctx context.Context) (Store, error) {
	awsCfg, err := c.aws(ctx)
	if err != nil {
		return nil, err
	}
	return external.NewParameterStore(ssm.NewFromConfig(awsCfg)), nil
}

func (c *cli) liveLookup(ctx context.Context) (resource.ServiceLookup, error) {
	awsCfg, err := c.aws(ctx)
	if err != nil {
		return nil, err
	}
	return external.NewECSServiceLookup(ecs.NewFromConfig(awsCfg), c.logger), nil
}

// resolver builds the movable resolver, optionally forcing read-only.
func (c *cli) resolver(ctx context.Context, writeBack bool) (*blackout.Resolver, error) {
	store, err := c.newStore(ctx)
	if err != nil {
		return nil, err
	}
	rc := c.cfg.Blackout.ResolverConfig()
	rc.WriteBack = rc.WriteBack && writeBack
	return blackout.NewResolver(store, rc, c.logger), nil
}

// parseInstantFlag parses a --start/--end style flag.
func parseInstantFlag(name, raw string) (time.Time, error) {
	t, err := blackout.ParseInstant(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s: %w", name, err)
	}
	return t, nil
}

const civilLayout = "2006-01-02 15:04:05"

func civil(t time.Time) string {
	return t.In(blackout.CivilZone).Format(civilLayout)
}
