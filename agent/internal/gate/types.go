package gate

import (
	"time"

	"focus-guard/agent/internal/models"
)

// Settings is the merged policy seen by the engine for one platform.
type Settings struct {
	Enabled           bool
	AllowedAfterHour  int
	AllowedEndHour    int
	VacationMode      bool
	TotalWeekendBlock bool
}

// SettingsFor builds the engine settings of p from the legacy record.
func SettingsFor(l models.LegacySettings, p models.Platform) Settings {
	return Settings{
		Enabled:           l.Enabled(p),
		AllowedAfterHour:  l.AllowedHour(p),
		AllowedEndHour:    l.AllowedEndHour,
		VacationMode:      l.VacationModeEnabled,
		TotalWeekendBlock: l.TotalWeekendBlock,
	}
}

// Input is everything a decision depends on.
type Input struct {
	Platform  models.Platform
	Now       time.Time
	Settings  Settings
	LastVisit string // YYYY-MM-DD or empty
	Consent   bool
}

// AllowPath records which rule let a request through.
type AllowPath string

const (
	AllowCategoryDisabled AllowPath = "category_disabled"
	AllowSessionConsent   AllowPath = "session_consent"
	AllowFirstVisit       AllowPath = "first_visit"
)

// Decision is Allow (with the path taken) or Deny with a block type.
type Decision struct {
	Allowed   bool
	Path      AllowPath
	BlockType models.BlockType
}

// FirstVisit reports whether the caller must record today's visit and grant
// session consent for the platform.
func (d Decision) FirstVisit() bool {
	return d.Allowed && d.Path == AllowFirstVisit
}

func allow(p AllowPath) Decision { return Decision{Allowed: true, Path: p} }

func deny(b models.BlockType) Decision { return Decision{Allowed: false, BlockType: b} }
