package models

// LegacySettings is the flat per-platform view derived from SiteConfiguration.
// Visits and UsageHistory are owned here and carried across projections.
type LegacySettings struct {
	LinkedinAllowedHour int `json:"linkedinAllowedHour"`
	TwitterAllowedHour  int `json:"twitterAllowedHour"`
	FacebookAllowedHour int `json:"facebookAllowedHour"`
	SocialAllowedHour   int `json:"socialAllowedHour"`
	MediaAllowedHour    int `json:"mediaAllowedHour"`
	CustomAllowedHour   int `json:"customAllowedHour"`
	AIAllowedHour       int `json:"aiAllowedHour"`

	EnabledForLinkedin bool `json:"enabledForLinkedin"`
	EnabledForTwitter  bool `json:"enabledForTwitter"`
	EnabledForFacebook bool `json:"enabledForFacebook"`
	EnabledForSocial   bool `json:"enabledForSocial"`
	EnabledForMedia    bool `json:"enabledForMedia"`
	EnabledForCustom   bool `json:"enabledForCustom"`
	EnabledForAI       bool `json:"enabledForAi"`

	AllowedEndHour      int    `json:"allowedEndHour"`
	TotalWeekendBlock   bool   `json:"totalWeekendBlock"`
	VacationModeEnabled bool   `json:"vacationModeEnabled"`
	RedirectURL         string `json:"redirectUrl"`

	Visits       Visits         `json:"visits"`
	UsageHistory []HistoryEntry `json:"usageHistory"`
}

// Visits maps a platform to the YYYY-MM-DD date of its last allowed visit.
type Visits map[Platform]string

// VisitDateLayout is the layout of dates stored in Visits.
const VisitDateLayout = "2006-01-02"

// DefaultLegacySettings is the projection of the default configuration with no history.
func DefaultLegacySettings() LegacySettings {
	return Project(DefaultSiteConfiguration(), LegacySettings{})
}

func (l *LegacySettings) allowedHourField(p Platform) *int {
	switch p {
	case PlatformLinkedIn:
		return &l.LinkedinAllowedHour
	case PlatformTwitter:
		return &l.TwitterAllowedHour
	case PlatformFacebook:
		return &l.FacebookAllowedHour
	case PlatformSocial:
		return &l.SocialAllowedHour
	case PlatformMedia:
		return &l.MediaAllowedHour
	case PlatformCustom:
		return &l.CustomAllowedHour
	case PlatformAI:
		return &l.AIAllowedHour
	}
	return nil
}

func (l *LegacySettings) enabledField(p Platform) *bool {
	switch p {
	case PlatformLinkedIn:
		return &l.EnabledForLinkedin
	case PlatformTwitter:
		return &l.EnabledForTwitter
	case PlatformFacebook:
		return &l.EnabledForFacebook
	case PlatformSocial:
		return &l.EnabledForSocial
	case PlatformMedia:
		return &l.EnabledForMedia
	case PlatformCustom:
		return &l.EnabledForCustom
	case PlatformAI:
		return &l.EnabledForAI
	}
	return nil
}

// AllowedHour returns the start of the allowed window for p.
func (l LegacySettings) AllowedHour(p Platform) int {
	if f := l.allowedHourField(p); f != nil {
		return *f
	}
	return DefaultAllowedAfterHour
}

func (l *LegacySettings) SetAllowedHour(p Platform, hour int) {
	if f := l.allowedHourField(p); f != nil {
		*f = hour
	}
}

// Enabled reports whether gating is on for p. Unknown platforms are never gated.
func (l LegacySettings) Enabled(p Platform) bool {
	if f := l.enabledField(p); f != nil {
		return *f
	}
	return false
}

func (l *LegacySettings) SetEnabled(p Platform, on bool) {
	if f := l.enabledField(p); f != nil {
		*f = on
	}
}

// Project derives the legacy record from cfg, carrying visits and usage
// history from prev. It never fails and never reads prev's policy fields.
func Project(cfg SiteConfiguration, prev LegacySettings) LegacySettings {
	out := LegacySettings{
		AllowedEndHour:      cfg.Settings.AllowedEndHour,
		TotalWeekendBlock:   cfg.Settings.TotalWeekendBlock,
		VacationModeEnabled: cfg.Settings.VacationMode,
		RedirectURL:         cfg.Settings.RedirectURL,
		Visits:              Visits{},
		UsageHistory:        []HistoryEntry{},
	}

	enabled := map[Platform]bool{}
	for _, key := range AllCategories {
		cat := cfg.Category(key)
		if !cat.Enabled {
			continue
		}
		for _, s := range cat.Sites {
			if s.IsEnabled() {
				enabled[PlatformFor(key, s.Domain)] = true
			}
		}
	}
	for _, p := range AllPlatforms {
		out.SetAllowedHour(p, cfg.Settings.AllowedAfterHour)
		out.SetEnabled(p, enabled[p])
	}

	for p, d := range prev.Visits {
		out.Visits[p] = d
	}
	out.UsageHistory = append(out.UsageHistory, prev.UsageHistory...)
	return out
}
