package configstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"focus-guard/agent/internal/kv"
	"focus-guard/agent/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brokenStore struct{}

func (brokenStore) Get(context.Context, string) ([]byte, error) {
	return nil, kv.ErrStorageTransient
}
func (brokenStore) Set(context.Context, string, []byte) error { return kv.ErrStorageTransient }

func newStore(t *testing.T) (*Store, *kv.MemoryStore) {
	t.Helper()
	mem := kv.NewMemoryStore()
	return New(mem), mem
}

func TestReadFallsBackToDefaults(t *testing.T) {
	s, _ := newStore(t)
	assert.Equal(t, models.DefaultSiteConfiguration(), s.Read(context.Background()))
}

func TestReadDegradesOnStorageFailure(t *testing.T) {
	s := New(brokenStore{})
	ctx := context.Background()
	assert.Equal(t, models.DefaultSiteConfiguration(), s.Read(ctx))
	assert.Equal(t, models.DefaultLegacySettings(), s.ReadLegacy(ctx))
	assert.Error(t, s.Write(ctx, models.DefaultSiteConfiguration()))
}

func TestReadCoercesMalformedConfiguration(t *testing.T) {
	s, mem := newStore(t)
	ctx := context.Background()
	raw := `{
		"aiSites": "nope",
		"socialMediaSites": {"enabled": true, "sites": [
			{"domain": "LinkedIn.com", "name": "LinkedIn"},
			{"domain": "", "name": "Empty"},
			{"name": "No domain"},
			{"domain": "x.com", "name": "X", "enabled": false},
			{"domain": "x.com", "name": "X again"},
			42
		]},
		"newsSites": {"enabled": "yes", "sites": []},
		"settings": {"allowedAfterHour": 20, "allowedEndHour": 8, "redirectUrl": "javascript:alert(1)", "vacationMode": true}
	}`
	require.NoError(t, mem.Set(ctx, kv.KeySiteConfiguration, []byte(raw)))

	cfg := s.Read(ctx)

	assert.Equal(t, models.Category{Enabled: false, Sites: []models.SiteEntry{}}, cfg.AISites)
	assert.Equal(t, models.Category{Enabled: false, Sites: []models.SiteEntry{}}, cfg.CustomSites)
	assert.False(t, cfg.NewsSites.Enabled)
	require.Len(t, cfg.SocialMediaSites.Sites, 2)
	assert.Equal(t, "linkedin.com", cfg.SocialMediaSites.Sites[0].Domain)
	assert.False(t, cfg.SocialMediaSites.Sites[1].IsEnabled())
	assert.Equal(t, models.DefaultAllowedAfterHour, cfg.Settings.AllowedAfterHour)
	assert.Equal(t, models.DefaultAllowedEndHour, cfg.Settings.AllowedEndHour)
	assert.Equal(t, models.DefaultRedirectURL, cfg.Settings.RedirectURL)
	assert.True(t, cfg.Settings.VacationMode)
	assert.True(t, cfg.Settings.TotalWeekendBlock)
}

func TestReadInvalidJSON(t *testing.T) {
	s, mem := newStore(t)
	ctx := context.Background()
	require.NoError(t, mem.Set(ctx, kv.KeySiteConfiguration, []byte(`{"aiSites":`)))
	assert.Equal(t, models.DefaultSiteConfiguration(), s.Read(ctx))
}

func TestWriteRejectsInvalidInput(t *testing.T) {
	s, mem := newStore(t)
	ctx := context.Background()

	cfg := models.DefaultSiteConfiguration()
	cfg.Settings.AllowedAfterHour = 20
	cfg.Settings.AllowedEndHour = 10
	assert.ErrorIs(t, s.Write(ctx, cfg), models.ErrValidation)

	cfg = models.DefaultSiteConfiguration()
	cfg.CustomSites.Sites = []models.SiteEntry{{Domain: "", Name: "x"}}
	assert.ErrorIs(t, s.Write(ctx, cfg), models.ErrValidation)

	_, err := mem.Get(ctx, kv.KeySiteConfiguration)
	assert.ErrorIs(t, err, kv.ErrNotFound, "rejected writes must not persist")
}

func TestWriteSyncsLegacyAndKeepsVisits(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	day := time.Date(2026, 10, 14, 16, 0, 0, 0, time.Local)

	require.NoError(t, s.RecordVisit(ctx, models.PlatformTwitter, day))

	cfg := models.DefaultSiteConfiguration()
	cfg.NewsSites.Enabled = true
	cfg.Settings.AllowedAfterHour = 8
	cfg.Settings.RedirectURL = "example.com"
	require.NoError(t, s.Write(ctx, cfg))

	l := s.ReadLegacy(ctx)
	assert.True(t, l.EnabledForMedia)
	assert.Equal(t, 8, l.AllowedHour(models.PlatformMedia))
	assert.Equal(t, "https://example.com", l.RedirectURL)
	assert.Equal(t, "2026-10-14", l.Visits[models.PlatformTwitter])

	assert.Equal(t, "https://example.com", s.Read(ctx).Settings.RedirectURL)
}

func TestPatch(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Patch(ctx, "settings", "vacationMode", true))
	require.NoError(t, s.Patch(ctx, string(models.CategoryAI), "enabled", true))
	require.NoError(t, s.Patch(ctx, string(models.CategoryCustom), "sites", []models.SiteEntry{{Domain: "youtube.com", Name: "YouTube"}}))
	require.NoError(t, s.Patch(ctx, string(models.CategoryCustom), "enabled", true))

	cfg := s.Read(ctx)
	assert.True(t, cfg.Settings.VacationMode)
	assert.True(t, cfg.AISites.Enabled)
	require.Len(t, cfg.CustomSites.Sites, 1)

	l := s.ReadLegacy(ctx)
	assert.True(t, l.VacationModeEnabled)
	assert.True(t, l.EnabledForAI)
	assert.True(t, l.EnabledForCustom)
}

func TestPatchRejects(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	assert.ErrorIs(t, s.Patch(ctx, "gamingSites", "enabled", true), models.ErrValidation)
	assert.ErrorIs(t, s.Patch(ctx, "settings", "colour", "red"), models.ErrValidation)
	assert.ErrorIs(t, s.Patch(ctx, "settings", "allowedAfterHour", "three"), models.ErrValidation)
	assert.ErrorIs(t, s.Patch(ctx, "settings", "allowedAfterHour", 22), models.ErrValidation, "inverted window")
	assert.ErrorIs(t, s.Patch(ctx, "settings", "redirectUrl", "data:text/html,x"), models.ErrValidation)

	assert.Equal(t, models.DefaultSiteConfiguration(), s.Read(ctx))
}

func TestResetVisits(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	day := time.Now()

	require.NoError(t, s.RecordVisit(ctx, models.PlatformTwitter, day))
	require.NoError(t, s.RecordVisit(ctx, models.PlatformLinkedIn, day))
	require.NoError(t, s.ResetVisits(ctx, models.PlatformTwitter))

	l := s.ReadLegacy(ctx)
	assert.NotContains(t, l.Visits, models.PlatformTwitter)
	assert.Contains(t, l.Visits, models.PlatformLinkedIn)

	require.NoError(t, s.ResetVisits(ctx))
	assert.Empty(t, s.ReadLegacy(ctx).Visits)
}

func TestUpdateLegacyRefusesOnReadFailure(t *testing.T) {
	s := New(brokenStore{})
	called := false
	err := s.UpdateLegacy(context.Background(), func(*models.LegacySettings) error {
		called = true
		return nil
	})
	assert.True(t, errors.Is(err, kv.ErrStorageTransient))
	assert.False(t, called)
}

func TestDecodeLegacyDropsUnknownAndMalformed(t *testing.T) {
	raw := `{
		"twitterAllowedHour": 9,
		"enabledForTwitter": true,
		"enabledForAi": true,
		"allowedEndHour": 21,
		"vacationModeEnabled": true,
		"redirectUrl": "example.org",
		"somethingElse": 1,
		"visits": {"twitter": "2026-10-16", "myspace": "2026-10-16", "linkedin": "yesterday"},
		"usageHistory": [
			{"timestamp": 1000, "action": "bypass_with_reason", "platform": "twitter", "reason": "work thing", "blockType": "weekend"},
			{"timestamp": "x", "action": "bypass"},
			{"timestamp": 5, "action": "explode"}
		]
	}`
	l, fixes := decodeLegacy([]byte(raw))

	assert.Equal(t, 9, l.AllowedHour(models.PlatformTwitter))
	assert.True(t, l.EnabledForTwitter)
	assert.True(t, l.EnabledForAI)
	assert.Equal(t, 21, l.AllowedEndHour)
	assert.True(t, l.VacationModeEnabled)
	assert.Equal(t, "https://example.org", l.RedirectURL)
	assert.Equal(t, models.Visits{models.PlatformTwitter: "2026-10-16"}, l.Visits)
	require.Len(t, l.UsageHistory, 1)
	assert.Equal(t, models.PlatformTwitter, l.UsageHistory[0].Platform)
	assert.NotEmpty(t, fixes)
}
