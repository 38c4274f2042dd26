package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"holidayguard/internal/api"
	"holidayguard/internal/blackout"
	"holidayguard/internal/resource"
	"holidayguard/internal/types"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(c *cli) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the read-only blackout preview API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv, err := c.newAPIServer(ctx)
			if err != nil {
				return err
			}
			return c.serve(ctx, addr, srv.Handler())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	return cmd
}

// newAPIServer wires the API with write-back disabled.
func (c *cli) newAPIServer(ctx context.Context) (*api.Server, error) {
	resolver, err := c.resolver(ctx, false)
	if err != nil {
		return nil, err
	}
	lookup, err := c.newLookup(ctx)
	if err != nil {
		return nil, err
	}

	srv, err := api.NewServer(
		c.logger,
		blackout.DefaultCatalogue(resolver),
		resolver,
		resource.NewResolver(lookup, c.logger),
		c.cfg.Planner.Calculator(),
	)
	if err != nil {
		return nil, err
	}
	srv.Clock = c.clock
	srv.HealthProbes = []api.HealthProbe{parameterStoreProbe(resolver, c.newStore, c.clock)}
	srv.MountRoutes()
	return srv, nil
}

// parameterStoreProbe reads the current year's override. A missing
// parameter still proves the store is reachable.
func parameterStoreProbe(r *blackout.Resolver, newStore func(context.Context) (Store, error), clock types.Clock) api.HealthProbe {
	return api.ProbeFunc{
		ProbeName: "parameter_store",
		Fn: func(ctx context.Context) error {
			store, err := newStore(ctx)
			if err != nil {
				return err
			}
			_, err = store.GetParameter(ctx, r.ParameterName(blackout.CivilYear(clock.Now())))
			if types.CodeOf(err) == types.ErrCodeNotFoundParameter {
				return nil
			}
			return err
		},
	}
}

func (c *cli) serve(ctx context.Context, addr string, handler http.Handler) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		c.logger.Info("preview API listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen on %s: %w", addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	c.logger.Info("shutting down preview API")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
