// Package api serves the read-only preview API used by operators to inspect
// blackout intervals, dry-run conflict decisions and check how an affected
// entity resolves. Nothing behind these routes schedules restarts or writes
// to Parameter Store.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"holidayguard/internal/blackout"
	"holidayguard/internal/restart"
	"holidayguard/internal/types"
)

// defaultRequestTimeout bounds each request's context.
const defaultRequestTimeout = 10 * time.Second

// Catalogue evaluates windows against the configured blackouts.
type Catalogue interface {
	Intervals(ctx context.Context, year int) []types.BlackoutInterval
	Check(ctx context.Context, window types.MaintenanceWindow) blackout.Conflict
}

// MovableResolver reports how a year's movable blackout was resolved.
type MovableResolver interface {
	Resolve(ctx context.Context, year int) blackout.Resolution
}

// IdentityResolver maps an affected-entity value to an ECS service.
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, raw string) types.ResourceIdentity
}

// Server holds the preview API dependencies.
type Server struct {
	Logger         *slog.Logger
	Catalogue      Catalogue
	Movable        MovableResolver
	Identities     IdentityResolver
	Calculator     restart.Calculator
	Clock          types.Clock
	Validator      *Validator
	HealthProbes   []HealthProbe
	RequestTimeout time.Duration

	router *chi.Mux
}

// NewServer checks the required dependencies and prepares an empty router.
// Call MountRoutes before serving.
func NewServer(
	logger *slog.Logger,
	catalogue Catalogue,
	movable MovableResolver,
	identities IdentityResolver,
	calc restart.Calculator,
) (*Server, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}
	if catalogue == nil {
		return nil, fmt.Errorf("catalogue must not be nil")
	}
	if movable == nil {
		return nil, fmt.Errorf("movable resolver must not be nil")
	}
	if identities == nil {
		return nil, fmt.Errorf("identity resolver must not be nil")
	}

	return &Server{
		Logger:         logger,
		Catalogue:      catalogue,
		Movable:        movable,
		Identities:     identities,
		Calculator:     calc,
		Clock:          types.RealClock{},
		Validator:      NewValidator(logger),
		RequestTimeout: defaultRequestTimeout,
		router:         chi.NewRouter(),
	}, nil
}

// Handler returns the router for http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// MountRoutes registers middleware and routes.
//
// Middleware order:
//  1. Recoverer, outermost so every panic becomes a 500 envelope.
//  2. ContextTimeout.
//  3. RequestID, before logging so log lines carry it.
//  4. RequestLogger.
func (s *Server) MountRoutes() {
	s.router.Use(s.Recoverer)
	s.router.Use(ContextTimeoutMiddleware(s.RequestTimeout))
	s.router.Use(RequestIDMiddleware)
	s.router.Use(RequestLogger(s.Logger))

	s.router.Get("/health", s.HandleHealth)

	s.router.Route("/v1", func(r chi.Router) {
		r.Get("/blackouts/{year}", s.HandleGetBlackouts)
		r.Post("/conflicts", s.HandleCheckConflict)
		r.Post("/identities", s.HandleResolveIdentity)
	})
}
