package main

import (
	"context"
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"holidayguard/internal/blackout"
	"holidayguard/internal/types"
)

func parseYear(raw string) (int, error) {
	year, err := strconv.Atoi(raw)
	if err != nil || year < 1970 || year > 2100 {
		return 0, types.NewAppErrorWithDetails(types.ErrCodeValidationYear,
			fmt.Sprintf("invalid year %q", raw), err, map[string]any{"year": raw})
	}
	return year, nil
}

// resolved replays a Resolution so the table reuses the header's lookup.
type resolved blackout.Resolution

func (r resolved) Resolve(context.Context, int) blackout.Resolution {
	return blackout.Resolution(r)
}

func newShowCmd(c *cli) *cobra.Command {
	var noWriteBack bool

	cmd := &cobra.Command{
		Use:   "show <year>",
		Short: "Print the blackout intervals for a year",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			year, err := parseYear(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			resolver, err := c.resolver(ctx, !noWriteBack)
			if err != nil {
				return err
			}

			res := resolver.Resolve(ctx, year)
			intervals := blackout.DefaultCatalogue(resolved(res)).Intervals(ctx, year)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Year %d: %s from %s (parameter %s, write-back %s)\n",
				year, c.cfg.Blackout.MovableKind, res.Origin, res.Parameter, res.WriteBack)

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "LABEL\tSTART (UTC+8)\tEND (UTC+8)")
			for _, iv := range intervals {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", iv.Label, civil(iv.Start), civil(iv.End))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&noWriteBack, "no-write-back", false, "never seed a missing year into Parameter Store")
	return cmd
}

func newSeedCmd(c *cli) *cobra.Command {
	var (
		start, end, description string
		overwrite               bool
	)

	cmd := &cobra.Command{
		Use:   "seed <year>",
		Short: "Store a movable-blackout override for a year",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			year, err := parseYear(args[0])
			if err != nil {
				return err
			}
			s, err := parseInstantFlag("start", start)
			if err != nil {
				return err
			}
			e, err := parseInstantFlag("end", end)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			resolver, err := c.resolver(ctx, false)
			if err != nil {
				return err
			}
			if err := resolver.Seed(ctx, year, s, e, description, overwrite); err != nil {
				if types.CodeOf(err) == types.ErrCodeConflictParameterExists {
					return fmt.Errorf("%s already exists; pass --overwrite to replace it", resolver.ParameterName(year))
				}
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %s: %s to %s (UTC+8)\n",
				resolver.ParameterName(year), civil(s), civil(e))
			return nil
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "first instant of the blackout")
	cmd.Flags().StringVar(&end, "end", "", "last instant of the blackout")
	cmd.Flags().StringVar(&description, "description", "", "free-text description stored with the override")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "replace an existing override")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func newCheckCmd(c *cli) *cobra.Command {
	var start, end, now string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Dry-run the conflict decision for a maintenance window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := parseInstantFlag("start", start)
			if err != nil {
				return err
			}
			e, err := parseInstantFlag("end", end)
			if err != nil {
				return err
			}
			window, err := types.NewMaintenanceWindow(s, e)
			if err != nil {
				return err
			}

			clock := c.clock
			if now != "" {
				t, err := parseInstantFlag("now", now)
				if err != nil {
					return err
				}
				clock = types.FixedClock{T: t}
			}

			ctx := cmd.Context()
			resolver, err := c.resolver(ctx, false)
			if err != nil {
				return err
			}
			conflict := blackout.DefaultCatalogue(resolver).Check(ctx, window)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Window:   %s to %s (UTC+8)\n", civil(window.Start), civil(window.End))
			fmt.Fprintf(out, "Days out: %d\n", window.DaysUntil(clock.Now()))
			if !conflict.Overlaps {
				fmt.Fprintf(out, "Conflict: none\nAction:   %s\n", types.ActionNoActionNeeded)
				return nil
			}

			fmt.Fprintln(out, "Conflict: yes")
			for _, iv := range conflict.Matched {
				fmt.Fprintf(out, "  %s %s to %s\n", iv.Label, civil(iv.Start), civil(iv.End))
			}
			next := c.cfg.Planner.Calculator().Next(clock.Now())
			fmt.Fprintf(out, "Action:   %s\nRestart:  %s\n", types.ActionEarlyRestart, next.Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "maintenance window start")
	cmd.Flags().StringVar(&end, "end", "", "maintenance window end")
	cmd.Flags().StringVar(&now, "now", "", "reference time for the restart slot (default: current time)")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}
