package models

import (
	"strings"
)

const SiteConfigVersion = 1

// Policy defaults, also used when persisted values have to be coerced.
const (
	DefaultAllowedAfterHour  = 15
	DefaultAllowedEndHour    = 19
	DefaultRedirectURL       = "https://www.google.com"
	DefaultTotalWeekendBlock = true
)

// SiteEntry is a single gated domain.
type SiteEntry struct {
	Domain  string `json:"domain"`
	Name    string `json:"name"`
	Enabled *bool  `json:"enabled,omitempty"`
}

// IsEnabled treats a missing flag as enabled.
func (s SiteEntry) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

type Category struct {
	Enabled bool        `json:"enabled"`
	Sites   []SiteEntry `json:"sites"`
}

// PolicySettings is the cross-category policy block.
type PolicySettings struct {
	AllowedAfterHour  int    `json:"allowedAfterHour"`
	AllowedEndHour    int    `json:"allowedEndHour"`
	RedirectURL       string `json:"redirectUrl"`
	VacationMode      bool   `json:"vacationMode"`
	TotalWeekendBlock bool   `json:"totalWeekendBlock"`
}

// SiteConfiguration is the hierarchical record of truth for category
// enablement and site membership.
type SiteConfiguration struct {
	Version          int            `json:"version"`
	AISites          Category       `json:"aiSites"`
	SocialMediaSites Category       `json:"socialMediaSites"`
	NewsSites        Category       `json:"newsSites"`
	CustomSites      Category       `json:"customSites"`
	Settings         PolicySettings `json:"settings"`
}

// Category returns a pointer to the category stored under key, or nil.
func (c *SiteConfiguration) Category(key CategoryKey) *Category {
	switch key {
	case CategoryAI:
		return &c.AISites
	case CategorySocial:
		return &c.SocialMediaSites
	case CategoryNews:
		return &c.NewsSites
	case CategoryCustom:
		return &c.CustomSites
	}
	return nil
}

// Clone returns a deep copy so callers can mutate without aliasing stored slices.
func (c SiteConfiguration) Clone() SiteConfiguration {
	out := c
	for _, key := range AllCategories {
		src := c.Category(key)
		dst := out.Category(key)
		dst.Sites = make([]SiteEntry, len(src.Sites))
		for i, s := range src.Sites {
			dst.Sites[i] = s
			if s.Enabled != nil {
				v := *s.Enabled
				dst.Sites[i].Enabled = &v
			}
		}
	}
	return out
}

// DefaultPolicySettings returns the built-in policy block.
func DefaultPolicySettings() PolicySettings {
	return PolicySettings{
		AllowedAfterHour:  DefaultAllowedAfterHour,
		AllowedEndHour:    DefaultAllowedEndHour,
		RedirectURL:       DefaultRedirectURL,
		VacationMode:      false,
		TotalWeekendBlock: DefaultTotalWeekendBlock,
	}
}

func sites(pairs ...string) []SiteEntry {
	out := make([]SiteEntry, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, SiteEntry{Domain: pairs[i], Name: pairs[i+1]})
	}
	return out
}

// DefaultSiteConfiguration is used on first read when nothing is stored.
// Only social media is gated out of the box.
func DefaultSiteConfiguration() SiteConfiguration {
	return SiteConfiguration{
		Version: SiteConfigVersion,
		AISites: Category{Enabled: false, Sites: sites(
			"chatgpt.com", "ChatGPT",
			"chat.openai.com", "ChatGPT (legacy)",
			"claude.ai", "Claude",
			"gemini.google.com", "Gemini",
			"perplexity.ai", "Perplexity",
			"copilot.microsoft.com", "Copilot",
		)},
		SocialMediaSites: Category{Enabled: true, Sites: sites(
			"linkedin.com", "LinkedIn",
			"twitter.com", "Twitter",
			"x.com", "X",
			"facebook.com", "Facebook",
		)},
		NewsSites: Category{Enabled: false, Sites: sites(
			"cnn.com", "CNN",
			"bbc.com", "BBC",
			"nytimes.com", "The New York Times",
			"theguardian.com", "The Guardian",
			"reuters.com", "Reuters",
		)},
		CustomSites: Category{Enabled: false, Sites: []SiteEntry{}},
		Settings:    DefaultPolicySettings(),
	}
}

// NormalizeDomain lowercases a domain and strips scheme, path, port and a leading "www.".
func NormalizeDomain(raw string) string {
	d := strings.ToLower(strings.TrimSpace(raw))
	if i := strings.Index(d, "://"); i >= 0 {
		d = d[i+3:]
	}
	if i := strings.IndexAny(d, "/?#"); i >= 0 {
		d = d[:i]
	}
	if i := strings.LastIndex(d, ":"); i >= 0 {
		d = d[:i]
	}
	d = strings.TrimSuffix(d, ".")
	return strings.TrimPrefix(d, "www.")
}

// ValidateSite checks a user supplied site entry.
func ValidateSite(s SiteEntry) error {
	if strings.TrimSpace(s.Domain) == "" {
		return invalid("domain", "must not be empty")
	}
	if NormalizeDomain(s.Domain) != s.Domain {
		return invalid("domain", "must be lowercase without scheme or path")
	}
	if strings.TrimSpace(s.Name) == "" {
		return invalid("name", "must not be empty")
	}
	return nil
}

// ValidateHours checks the half-open allowed window [after, end).
func ValidateHours(after, end int) error {
	if after < 0 || after > 23 {
		return invalid("allowedAfterHour", "must be within 0..23")
	}
	if end < 0 || end > 23 {
		return invalid("allowedEndHour", "must be within 0..23")
	}
	if after >= end {
		return invalid("allowedEndHour", "must be later than allowedAfterHour")
	}
	return nil
}

// Validate checks a whole configuration as submitted by a settings editor.
func (c SiteConfiguration) Validate() error {
	for _, key := range AllCategories {
		cat := c.Category(key)
		for _, s := range cat.Sites {
			if err := ValidateSite(s); err != nil {
				return err
			}
		}
	}
	if err := ValidateHours(c.Settings.AllowedAfterHour, c.Settings.AllowedEndHour); err != nil {
		return err
	}
	if _, err := NormalizeRedirectURL(c.Settings.RedirectURL); err != nil {
		return err
	}
	return nil
}
