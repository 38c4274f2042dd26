package blackout

import (
	"context"
	"time"

	"holidayguard/internal/types"
)

// Labels of the default catalogue entries.
const (
	LabelNationalDay    = "national-day"
	LabelSpringFestival = "spring-festival"
)

// Source yields one blackout interval for a given civil year. Sources are
// total: a source that cannot reach its backing store must fall back rather
// than fail the decision.
type Source interface {
	Label() string
	Interval(ctx context.Context, year int) types.BlackoutInterval
}

// FixedAnnual is a blackout on the same civil dates every year, from 00:00:00
// on the first day to 23:59:59 on the last.
type FixedAnnual struct {
	Name       string
	StartMonth time.Month
	StartDay   int
	EndMonth   time.Month
	EndDay     int
}

// NationalDay is the Oct 1 to Oct 8 golden week.
func NationalDay() FixedAnnual {
	return FixedAnnual{
		Name:       LabelNationalDay,
		StartMonth: time.October,
		StartDay:   1,
		EndMonth:   time.October,
		EndDay:     8,
	}
}

func (f FixedAnnual) Label() string { return f.Name }

func (f FixedAnnual) Interval(_ context.Context, year int) types.BlackoutInterval {
	return types.BlackoutInterval{
		Start: civilDate(year, f.StartMonth, f.StartDay, 0, 0, 0).UTC(),
		End:   civilDate(year, f.EndMonth, f.EndDay, 23, 59, 59).UTC(),
		Label: f.Name,
	}
}

// MovableResolver resolves a blackout whose dates change every year.
type MovableResolver interface {
	Resolve(ctx context.Context, year int) Resolution
}

// Movable adapts a MovableResolver into a catalogue Source.
type Movable struct {
	Name     string
	Resolver MovableResolver
}

func (m Movable) Label() string { return m.Name }

func (m Movable) Interval(ctx context.Context, year int) types.BlackoutInterval {
	res := m.Resolver.Resolve(ctx, year)
	iv := res.Interval
	iv.Label = m.Name
	return iv
}

// Conflict is the result of checking a window against the catalogue.
type Conflict struct {
	Year     int                      `json:"year"`
	Overlaps bool                     `json:"overlaps"`
	Matched  []types.BlackoutInterval `json:"matched,omitempty"`
	Checked  []types.BlackoutInterval `json:"checked"`
}

// Catalogue is an ordered list of blackout sources.
type Catalogue struct {
	sources []Source
}

// NewCatalogue builds a catalogue from the given sources, in order.
func NewCatalogue(sources ...Source) *Catalogue {
	return &Catalogue{sources: sources}
}

// DefaultCatalogue holds national day and the Spring Festival.
func DefaultCatalogue(springFestival MovableResolver) *Catalogue {
	return NewCatalogue(
		NationalDay(),
		Movable{Name: LabelSpringFestival, Resolver: springFestival},
	)
}

// Add appends a source.
func (c *Catalogue) Add(s Source) {
	c.sources = append(c.sources, s)
}

// Intervals resolves every source for the civil year.
func (c *Catalogue) Intervals(ctx context.Context, year int) []types.BlackoutInterval {
	out := make([]types.BlackoutInterval, 0, len(c.sources))
	for _, s := range c.sources {
		out = append(out, s.Interval(ctx, year))
	}
	return out
}

// Check resolves the catalogue for the civil year of the window start and
// reports which intervals the window overlaps.
func (c *Catalogue) Check(ctx context.Context, window types.MaintenanceWindow) Conflict {
	year := CivilYear(window.Start)
	intervals := c.Intervals(ctx, year)
	matched := Matching(window, intervals)
	return Conflict{
		Year:     year,
		Overlaps: len(matched) > 0,
		Matched:  matched,
		Checked:  intervals,
	}
}
