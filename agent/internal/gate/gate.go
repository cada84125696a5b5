// Package gate decides whether a visit to a gated platform is allowed.
package gate

import (
	"time"

	"focus-guard/agent/internal/models"
)

// Decide evaluates the rules in fixed precedence, first match wins:
//
//  1. category disabled            -> Allow
//  2. session consent, no vacation -> Allow
//  3. vacation mode                -> Deny(vacation)
//  4. weekend with weekend block   -> Deny(weekend)
//  5. hour outside [after, end)    -> Deny(outside_hours)
//  6. already visited today        -> Deny(already_visited)
//  7. otherwise                    -> Allow, first visit of the day
//
// Consent never overrides vacation mode. Decide has no side effects; the
// caller applies the first-visit bookkeeping.
func Decide(in Input) Decision {
	s := in.Settings

	if !s.Enabled {
		return allow(AllowCategoryDisabled)
	}
	if in.Consent && !s.VacationMode {
		return allow(AllowSessionConsent)
	}
	if s.VacationMode {
		return deny(models.BlockVacation)
	}
	if s.TotalWeekendBlock && IsWeekend(in.Now) {
		return deny(models.BlockWeekend)
	}
	if !InWindow(in.Now.Hour(), s.AllowedAfterHour, s.AllowedEndHour) {
		return deny(models.BlockOutsideHours)
	}
	if in.LastVisit != "" && in.LastVisit == Today(in.Now) {
		return deny(models.BlockAlreadyVisited)
	}
	return allow(AllowFirstVisit)
}

// InWindow reports hour ∈ [after, end). An inverted window admits nothing.
func InWindow(hour, after, end int) bool {
	return hour >= after && hour < end
}

func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// Today formats t as a visit date.
func Today(t time.Time) string {
	return t.Format(models.VisitDateLayout)
}
