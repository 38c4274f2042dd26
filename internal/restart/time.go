// Package restart computes when an early restart should fire and builds the
// one-shot schedule entry for it.
package restart

import (
	"time"
)

// Defaults for the restart slot.
const (
	DefaultHour  = 4
	DefaultGuard = 10 * time.Minute
)

// Calculator picks the next safe restart slot: the configured hour in Zone,
// today if more than Guard remains before it, otherwise the first later day
// that satisfies the guard.
type Calculator struct {
	Hour  int
	Zone  *time.Location
	Guard time.Duration
}

// DefaultCalculator returns the 04:00 UTC slot with a 10 minute guard.
func DefaultCalculator() Calculator {
	return Calculator{Hour: DefaultHour, Zone: time.UTC, Guard: DefaultGuard}
}

// NextSafeRestartTime returns the next 04:00 UTC slot that is at least ten
// minutes ahead of now.
func NextSafeRestartTime(now time.Time) time.Time {
	return DefaultCalculator().Next(now)
}

// Next returns the slot for now. The result is at or after now+Guard.
func (c Calculator) Next(now time.Time) time.Time {
	zone := c.Zone
	if zone == nil {
		zone = time.UTC
	}
	local := now.In(zone)
	slot := time.Date(local.Year(), local.Month(), local.Day(), c.Hour, 0, 0, 0, zone)

	// Schedule expressions have minute resolution, so the guard is measured
	// from the start of the current minute.
	for slot.Sub(local.Truncate(time.Minute)) <= c.Guard {
		slot = slot.AddDate(0, 0, 1)
	}
	return slot
}
