package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool { return &b }

func TestProjectCopiesPolicyFields(t *testing.T) {
	cfg := DefaultSiteConfiguration()
	cfg.Settings = PolicySettings{
		AllowedAfterHour:  9,
		AllowedEndHour:    12,
		RedirectURL:       "https://example.org",
		VacationMode:      true,
		TotalWeekendBlock: false,
	}

	got := Project(cfg, LegacySettings{})

	for _, p := range AllPlatforms {
		assert.Equal(t, 9, got.AllowedHour(p), "allowed hour for %s", p)
	}
	assert.Equal(t, 12, got.AllowedEndHour)
	assert.Equal(t, "https://example.org", got.RedirectURL)
	assert.True(t, got.VacationModeEnabled)
	assert.False(t, got.TotalWeekendBlock)
}

func TestProjectEnablement(t *testing.T) {
	cfg := DefaultSiteConfiguration()
	cfg.AISites.Enabled = true
	cfg.NewsSites.Enabled = false
	cfg.CustomSites = Category{Enabled: true, Sites: []SiteEntry{
		{Domain: "youtube.com", Name: "YouTube", Enabled: boolPtr(false)},
	}}
	cfg.SocialMediaSites.Sites = append(cfg.SocialMediaSites.Sites, SiteEntry{Domain: "reddit.com", Name: "Reddit"})
	for i := range cfg.SocialMediaSites.Sites {
		if cfg.SocialMediaSites.Sites[i].Domain == "facebook.com" {
			cfg.SocialMediaSites.Sites[i].Enabled = boolPtr(false)
		}
	}

	got := Project(cfg, LegacySettings{})

	assert.True(t, got.EnabledForAI)
	assert.True(t, got.EnabledForLinkedin)
	assert.True(t, got.EnabledForTwitter)
	assert.False(t, got.EnabledForFacebook, "only facebook site is disabled")
	assert.True(t, got.EnabledForSocial, "reddit maps to the generic social platform")
	assert.False(t, got.EnabledForMedia, "news category disabled")
	assert.False(t, got.EnabledForCustom, "custom category has no enabled site")
}

func TestProjectCarriesVisitsAndHistory(t *testing.T) {
	prev := LegacySettings{
		Visits:       Visits{PlatformTwitter: "2026-10-15"},
		UsageHistory: []HistoryEntry{{Timestamp: 1, Action: ActionBypass}},
		// policy fields in prev are ignored
		AllowedEndHour:      3,
		VacationModeEnabled: true,
	}

	got := Project(DefaultSiteConfiguration(), prev)

	assert.Equal(t, "2026-10-15", got.Visits[PlatformTwitter])
	require.Len(t, got.UsageHistory, 1)
	assert.Equal(t, ActionBypass, got.UsageHistory[0].Action)
	assert.Equal(t, DefaultAllowedEndHour, got.AllowedEndHour)
	assert.False(t, got.VacationModeEnabled)

	got.Visits[PlatformMedia] = "2026-10-16"
	assert.NotContains(t, prev.Visits, PlatformMedia, "projection must not alias prev visits")
}

func TestProjectNilCollections(t *testing.T) {
	got := Project(DefaultSiteConfiguration(), LegacySettings{})
	assert.NotNil(t, got.Visits)
	assert.NotNil(t, got.UsageHistory)
}

func TestDefaultConfigurationGatesOnlySocial(t *testing.T) {
	cfg := DefaultSiteConfiguration()
	assert.False(t, cfg.AISites.Enabled)
	assert.True(t, cfg.SocialMediaSites.Enabled)
	assert.False(t, cfg.NewsSites.Enabled)
	assert.False(t, cfg.CustomSites.Enabled)
	require.NoError(t, cfg.Validate())
}

func TestCloneDoesNotAlias(t *testing.T) {
	cfg := DefaultSiteConfiguration()
	cfg.SocialMediaSites.Sites[0].Enabled = boolPtr(true)
	clone := cfg.Clone()
	clone.SocialMediaSites.Sites[0].Name = "changed"
	*clone.SocialMediaSites.Sites[0].Enabled = false

	assert.Equal(t, "LinkedIn", cfg.SocialMediaSites.Sites[0].Name)
	assert.True(t, *cfg.SocialMediaSites.Sites[0].Enabled)
}

func TestValidateHours(t *testing.T) {
	assert.NoError(t, ValidateHours(15, 19))
	assert.ErrorIs(t, ValidateHours(19, 15), ErrValidation)
	assert.ErrorIs(t, ValidateHours(10, 10), ErrValidation)
	assert.ErrorIs(t, ValidateHours(-1, 10), ErrValidation)
	assert.ErrorIs(t, ValidateHours(1, 24), ErrValidation)
}

func TestValidateSite(t *testing.T) {
	assert.NoError(t, ValidateSite(SiteEntry{Domain: "example.com", Name: "Example"}))
	assert.Error(t, ValidateSite(SiteEntry{Domain: "", Name: "Example"}))
	assert.Error(t, ValidateSite(SiteEntry{Domain: "example.com", Name: " "}))
	assert.Error(t, ValidateSite(SiteEntry{Domain: "https://example.com/x", Name: "Example"}))
	assert.Error(t, ValidateSite(SiteEntry{Domain: "Example.com", Name: "Example"}))
}

func TestNormalizeDomain(t *testing.T) {
	cases := map[string]string{
		"https://www.LinkedIn.com/feed": "linkedin.com",
		"x.com":                         "x.com",
		"news.bbc.com:443":              "news.bbc.com",
		"  Reddit.com.  ":               "reddit.com",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeDomain(in), in)
	}
}

func TestPlatformFor(t *testing.T) {
	assert.Equal(t, PlatformLinkedIn, PlatformFor(CategorySocial, "linkedin.com"))
	assert.Equal(t, PlatformTwitter, PlatformFor(CategorySocial, "x.com"))
	assert.Equal(t, PlatformSocial, PlatformFor(CategorySocial, "reddit.com"))
	assert.Equal(t, PlatformMedia, PlatformFor(CategoryNews, "cnn.com"))
	assert.Equal(t, PlatformAI, PlatformFor(CategoryAI, "claude.ai"))
	assert.Equal(t, PlatformCustom, PlatformFor(CategoryCustom, "youtube.com"))
}

func TestNormalizeRedirectURL(t *testing.T) {
	got, err := NormalizeRedirectURL("example.com/focus")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/focus", got)

	got, err = NormalizeRedirectURL("http://example.com")
	require.NoError(t, err)
	assert.Equal(t, "http://example.com", got)

	for _, bad := range []string{
		"",
		"javascript:alert(1)",
		"https://example.com/?next=javascript:alert(1)",
		"DATA:text/html,hi",
		"vbscript:msgbox",
		"file:///etc/passwd",
		"ftp://example.com",
	} {
		_, err := NormalizeRedirectURL(bad)
		assert.Error(t, err, bad)
		var ve *ValidationError
		assert.True(t, errors.As(err, &ve), bad)
	}
}
