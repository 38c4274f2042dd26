package blackout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"holidayguard/internal/types"
)

// ParameterStore is the key-value store holding per-year overrides.
// Implementations return types.ErrParameterNotFound for a missing key and
// types.ErrParameterExists when a non-overwriting put loses a race.
type ParameterStore interface {
	GetParameter(ctx context.Context, name string) (string, error)
	PutParameter(ctx context.Context, name, value, description string, overwrite bool) error
}

// Origin names where a resolved interval came from.
type Origin string

const (
	OriginStore       Origin = "store"
	OriginBuiltin     Origin = "builtin"
	OriginSynthesized Origin = "synthesized"
)

// WriteBackStatus is the result of seeding the store after a not-found.
type WriteBackStatus string

const (
	WriteBackSkipped WriteBackStatus = "skipped"
	WriteBackWritten WriteBackStatus = "written"
	WriteBackExists  WriteBackStatus = "exists"
	WriteBackFailed  WriteBackStatus = "failed"
)

// Resolution describes how a movable blackout was resolved for one year.
type Resolution struct {
	Year      int                    `json:"year"`
	Interval  types.BlackoutInterval `json:"interval"`
	Origin    Origin                 `json:"origin"`
	WriteBack WriteBackStatus        `json:"write_back"`
	Parameter string                 `json:"parameter"`
}

// Override is the JSON document stored per year.
type Override struct {
	Start       string `json:"start"`
	End         string `json:"end"`
	Description string `json:"description"`
	Timezone    string `json:"timezone"`
}

// ResolverConfig controls where overrides live and whether missing years are
// seeded back into the store.
type ResolverConfig struct {
	Prefix    string
	Kind      string
	WriteBack bool
}

type civilSpan struct {
	startMonth time.Month
	startDay   int
	endMonth   time.Month
	endDay     int
}

// springFestival is the built-in Spring Festival holiday table.
var springFestival = map[int]civilSpan{
	2024: {time.February, 10, time.February, 17},
	2025: {time.January, 29, time.February, 5},
	2026: {time.February, 17, time.February, 24},
	2027: {time.February, 6, time.February, 13},
	2028: {time.January, 26, time.February, 2},
	2029: {time.February, 13, time.February, 20},
	2030: {time.February, 3, time.February, 10},
}

// synthesizedSpan is used for years missing from the table.
var synthesizedSpan = civilSpan{time.February, 1, time.February, 8}

// Resolver resolves the Spring Festival blackout for a year. It prefers the
// parameter store, falls back to the built-in table, and seeds the store
// when a year is missing.
type Resolver struct {
	store  ParameterStore
	cfg    ResolverConfig
	logger *slog.Logger
	group  singleflight.Group
}

// NewResolver creates a Resolver. A nil store disables store lookups entirely.
func NewResolver(store ParameterStore, cfg ResolverConfig, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	cfg.Prefix = strings.TrimRight(cfg.Prefix, "/")
	if cfg.Kind == "" {
		cfg.Kind = LabelSpringFestival
	}
	return &Resolver{store: store, cfg: cfg, logger: logger}
}

// ReadOnly returns a resolver sharing the store but never writing back.
func (r *Resolver) ReadOnly() *Resolver {
	cfg := r.cfg
	cfg.WriteBack = false
	return &Resolver{store: r.store, cfg: cfg, logger: r.logger}
}

// ParameterName is the store key for a year.
func (r *Resolver) ParameterName(year int) string {
	return fmt.Sprintf("%s/%s/%d", r.cfg.Prefix, r.cfg.Kind, year)
}

// ResolveMovableBlackout returns the interval bounds for the year. It never
// fails.
func (r *Resolver) ResolveMovableBlackout(ctx context.Context, year int) (time.Time, time.Time) {
	res := r.Resolve(ctx, year)
	return res.Interval.Start, res.Interval.End
}

// Resolve resolves the year, collapsing concurrent calls for the same year.
func (r *Resolver) Resolve(ctx context.Context, year int) Resolution {
	v, _, _ := r.group.Do(strconv.Itoa(year), func() (any, error) {
		return r.resolve(ctx, year), nil
	})
	return v.(Resolution)
}

func (r *Resolver) resolve(ctx context.Context, year int) Resolution {
	name := r.ParameterName(year)
	fallback := func() Resolution {
		iv, origin := BuiltinInterval(year)
		return Resolution{Year: year, Interval: iv, Origin: origin, WriteBack: WriteBackSkipped, Parameter: name}
	}

	if r.store == nil {
		return fallback()
	}

	raw, err := r.store.GetParameter(ctx, name)
	switch {
	case errors.Is(err, types.ErrParameterNotFound):
		res := fallback()
		res.WriteBack = r.writeBack(ctx, year, res.Interval)
		r.logger.InfoContext(ctx, "movable blackout not stored; using built-in dates",
			"parameter", name,
			"origin", res.Origin,
			"write_back", res.WriteBack,
		)
		return res
	case err != nil:
		r.logger.WarnContext(ctx, "parameter store read failed; using built-in dates",
			"parameter", name, "error", err)
		return fallback()
	}

	iv, err := ParseOverride(raw)
	if err != nil {
		r.logger.WarnContext(ctx, "stored blackout override is invalid; using built-in dates",
			"parameter", name, "error", err)
		return fallback()
	}
	iv.Label = r.cfg.Kind
	return Resolution{Year: year, Interval: iv, Origin: OriginStore, WriteBack: WriteBackSkipped, Parameter: name}
}

func (r *Resolver) writeBack(ctx context.Context, year int, iv types.BlackoutInterval) WriteBackStatus {
	if !r.cfg.WriteBack {
		return WriteBackSkipped
	}
	value, err := EncodeOverride(iv, fmt.Sprintf("%d %s holiday (auto-generated)", year, r.cfg.Kind))
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to encode blackout override", "year", year, "error", err)
		return WriteBackFailed
	}

	err = r.store.PutParameter(ctx, r.ParameterName(year), value,
		fmt.Sprintf("%d %s blackout dates", year, r.cfg.Kind), false)
	switch {
	case err == nil:
		return WriteBackWritten
	case errors.Is(err, types.ErrParameterExists):
		return WriteBackExists
	default:
		r.logger.WarnContext(ctx, "failed to seed blackout override",
			"parameter", r.ParameterName(year), "error", err)
		return WriteBackFailed
	}
}

// Seed stores an explicit override for the year. Unlike write-back it
// surfaces errors, and it replaces an existing value only when overwrite is
// set.
func (r *Resolver) Seed(ctx context.Context, year int, start, end time.Time, description string, overwrite bool) error {
	if r.store == nil {
		return types.NewAppError(types.ErrCodeUpstreamParameterStore, "no parameter store configured", nil)
	}
	if start.After(end) {
		return types.NewAppError(types.ErrCodeValidationTimeWindow, "override start is after end", nil)
	}
	if description == "" {
		description = fmt.Sprintf("%d %s holiday", year, r.cfg.Kind)
	}
	value, err := EncodeOverride(types.BlackoutInterval{Start: start, End: end}, description)
	if err != nil {
		return err
	}
	if err := r.store.PutParameter(ctx, r.ParameterName(year), value,
		fmt.Sprintf("%d %s blackout dates", year, r.cfg.Kind), overwrite); err != nil {
		return fmt.Errorf("seeding %s: %w", r.ParameterName(year), err)
	}
	return nil
}

// BuiltinInterval returns the table entry for the year, or the synthesized
// default for years outside the table.
func BuiltinInterval(year int) (types.BlackoutInterval, Origin) {
	span, ok := springFestival[year]
	origin := OriginBuiltin
	if !ok {
		span = synthesizedSpan
		origin = OriginSynthesized
	}
	return types.BlackoutInterval{
		Start: civilDate(year, span.startMonth, span.startDay, 0, 0, 0).UTC(),
		End:   civilDate(year, span.endMonth, span.endDay, 23, 59, 59).UTC(),
		Label: LabelSpringFestival,
	}, origin
}

// ParseOverride decodes a stored override. Both bounds go through
// ParseInstant and must be ordered.
func ParseOverride(raw string) (types.BlackoutInterval, error) {
	var o Override
	if err := json.Unmarshal([]byte(raw), &o); err != nil {
		return types.BlackoutInterval{}, types.NewAppError(types.ErrCodeValidationPayload, "override is not valid JSON", err)
	}
	start, err := ParseInstant(o.Start)
	if err != nil {
		return types.BlackoutInterval{}, fmt.Errorf("override start: %w", err)
	}
	end, err := ParseInstant(o.End)
	if err != nil {
		return types.BlackoutInterval{}, fmt.Errorf("override end: %w", err)
	}
	if start.After(end) {
		return types.BlackoutInterval{}, types.NewAppError(types.ErrCodeValidationTimeWindow, "override start is after end", nil)
	}
	return types.BlackoutInterval{Start: start, End: end}, nil
}

// EncodeOverride renders the interval in civil-zone ISO form.
func EncodeOverride(iv types.BlackoutInterval, description string) (string, error) {
	raw, err := json.Marshal(Override{
		Start:       iv.Start.In(CivilZone).Format(time.RFC3339),
		End:         iv.End.In(CivilZone).Format(time.RFC3339),
		Description: description,
		Timezone:    CivilZoneName,
	})
	if err != nil {
		return "", types.NewAppError(types.ErrCodeInternalEncoding, "encoding override", err)
	}
	return string(raw), nil
}
