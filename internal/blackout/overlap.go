// Package blackout decides whether a maintenance window collides with a
// holiday blackout and resolves the yearly blackout catalogue.
package blackout

import (
	"fmt"
	"strings"
	"time"

	"holidayguard/internal/types"
)

// CivilZone is the fixed UTC+8 zone in which naive instants and holiday
// calendars are interpreted.
var CivilZone = time.FixedZone("UTC+8", 8*60*60)

// CivilZoneName is written next to stored overrides so operators know how to
// read them.
const CivilZoneName = "Asia/Shanghai"

// zoned layouts carry their own offset or zone abbreviation.
var zonedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04Z0700",
	time.RFC1123,
	time.RFC1123Z,
}

// naiveLayouts carry no zone and are read in CivilZone.
var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseInstant parses every time string that enters the system: Health event
// times, stored overrides and CLI flags. Values without zone information are
// interpreted in CivilZone. The result is normalized to UTC.
func ParseInstant(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, types.NewAppError(types.ErrCodeValidationMissingField, "empty time value", nil)
	}

	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, CivilZone); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, types.NewAppErrorWithDetails(types.ErrCodeValidationTimeFormat,
		fmt.Sprintf("unrecognized time format %q", s), nil,
		map[string]any{"value": s})
}

// ParseWindow parses both bounds with ParseInstant and builds the window.
func ParseWindow(rawStart, rawEnd string) (types.MaintenanceWindow, error) {
	start, err := ParseInstant(rawStart)
	if err != nil {
		return types.MaintenanceWindow{}, err
	}
	end, err := ParseInstant(rawEnd)
	if err != nil {
		return types.MaintenanceWindow{}, err
	}
	return types.NewMaintenanceWindow(start, end)
}

// Overlaps reports whether the window intersects any blackout. Intervals are
// closed, so touching endpoints count as an overlap.
func Overlaps(window types.MaintenanceWindow, blackouts []types.BlackoutInterval) bool {
	for _, b := range blackouts {
		if intersects(window, b) {
			return true
		}
	}
	return false
}

// Matching returns the blackouts that intersect the window, in input order.
func Matching(window types.MaintenanceWindow, blackouts []types.BlackoutInterval) []types.BlackoutInterval {
	var out []types.BlackoutInterval
	for _, b := range blackouts {
		if intersects(window, b) {
			out = append(out, b)
		}
	}
	return out
}

func intersects(w types.MaintenanceWindow, b types.BlackoutInterval) bool {
	a, bEnd := w.Start.UTC(), w.End.UTC()
	c, d := b.Start.UTC(), b.End.UTC()
	return !a.After(d) && !bEnd.Before(c)
}

// civilDate builds an instant from a calendar date and clock time in CivilZone.
func civilDate(year int, month time.Month, day, hour, min, sec int) time.Time {
	return time.Date(year, month, day, hour, min, sec, 0, CivilZone)
}

// CivilYear returns the calendar year of t in CivilZone.
func CivilYear(t time.Time) int {
	return t.In(CivilZone).Year()
}
