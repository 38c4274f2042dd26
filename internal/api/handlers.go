package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"holidayguard/internal/blackout"
	"holidayguard/internal/resource"
	"holidayguard/internal/types"
)

const (
	minYear = 1970
	maxYear = 2100
)

// BlackoutsResponse lists one year's blackouts.
type BlackoutsResponse struct {
	Year      int                      `json:"year"`
	Intervals []types.BlackoutInterval `json:"intervals"`
	Movable   blackout.Resolution      `json:"movable"`
}

// HandleGetBlackouts serves GET /v1/blackouts/{year}.
func (s *Server) HandleGetBlackouts(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "year")
	year, err := strconv.Atoi(raw)
	if err != nil || year < minYear || year > maxYear {
		Error(w, r, types.NewAppErrorWithDetails(types.ErrCodeValidationYear,
			fmt.Sprintf("year must be between %d and %d", minYear, maxYear), nil,
			map[string]any{"year": raw}))
		return
	}

	Data(w, r, BlackoutsResponse{
		Year:      year,
		Intervals: s.Catalogue.Intervals(r.Context(), year),
		Movable:   s.Movable.Resolve(r.Context(), year),
	})
}

// ConflictRequest is the body of POST /v1/conflicts.
type ConflictRequest struct {
	Start string `json:"start" validate:"required"`
	End   string `json:"end" validate:"required"`
}

// ConflictResponse is the dry-run planner decision.
type ConflictResponse struct {
	Window      types.MaintenanceWindow `json:"maintenance_window"`
	Conflict    blackout.Conflict       `json:"conflict"`
	Action      types.PlannedAction     `json:"action"`
	RestartTime *time.Time              `json:"restart_time,omitempty"`
	DaysUntil   int                     `json:"days_until_maintenance"`
}

// HandleCheckConflict serves POST /v1/conflicts.
func (s *Server) HandleCheckConflict(w http.ResponseWriter, r *http.Request) {
	var req ConflictRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		Error(w, r, err)
		return
	}
	if err := s.Validator.ValidateStruct(req); err != nil {
		Error(w, r, err)
		return
	}

	window, err := blackout.ParseWindow(req.Start, req.End)
	if err != nil {
		Error(w, r, err)
		return
	}

	now := s.Clock.Now()
	conflict := s.Catalogue.Check(r.Context(), window)
	resp := ConflictResponse{
		Window:    window,
		Conflict:  conflict,
		Action:    types.ActionNoActionNeeded,
		DaysUntil: window.DaysUntil(now),
	}
	if conflict.Overlaps {
		next := s.Calculator.Next(now)
		resp.Action = types.ActionEarlyRestart
		resp.RestartTime = &next
	}
	Data(w, r, resp)
}

// IdentityRequest is the body of POST /v1/identities.
type IdentityRequest struct {
	Identifier string `json:"identifier" validate:"required"`
}

// IdentityResponse reports how an identifier resolves.
type IdentityResponse struct {
	Identifier string                 `json:"identifier"`
	Kind       string                 `json:"kind"`
	Identity   types.ResourceIdentity `json:"resource_identity"`
	Resolved   bool                   `json:"resolved"`
}

// HandleResolveIdentity serves POST /v1/identities. Task references go
// through the live task lookup when one is configured.
func (s *Server) HandleResolveIdentity(w http.ResponseWriter, r *http.Request) {
	var req IdentityRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		Error(w, r, err)
		return
	}
	if err := s.Validator.ValidateStruct(req); err != nil {
		Error(w, r, err)
		return
	}

	identity := s.Identities.ResolveIdentity(r.Context(), req.Identifier)
	Data(w, r, IdentityResponse{
		Identifier: req.Identifier,
		Kind:       resource.Parse(req.Identifier).Kind.String(),
		Identity:   identity,
		Resolved:   !identity.IsSentinel(),
	})
}
