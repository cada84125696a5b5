package service

import (
	"context"
	"testing"
	"time"

	"focus-guard/agent/internal/audit"
	"focus-guard/agent/internal/bypass"
	"focus-guard/agent/internal/configstore"
	"focus-guard/agent/internal/consent"
	"focus-guard/agent/internal/gate"
	"focus-guard/agent/internal/kv"
	"focus-guard/agent/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	guard   *Guard
	config  *configstore.Store
	audit   *audit.Log
	consent *consent.Cache
	sched   *bypass.ManualScheduler
}

func newFixture(t *testing.T, now time.Time) *fixture {
	t.Helper()
	durable := kv.NewMemoryStore()
	session := kv.NewMemoryStore()
	sched := bypass.NewManualScheduler(now)
	cfg := configstore.New(durable)
	log := audit.New(cfg, durable).WithClock(sched.Now)
	c := consent.New(session)
	return &fixture{
		guard:   NewGuard(cfg, log, c, Options{Scheduler: sched}),
		config:  cfg,
		audit:   log,
		consent: c,
		sched:   sched,
	}
}

var (
	wednesday4pm = time.Date(2026, 10, 14, 16, 0, 0, 0, time.Local)
	saturday4pm  = time.Date(2026, 10, 17, 16, 0, 0, 0, time.Local)
)

func TestFirstVisitThenSessionConsent(t *testing.T) {
	f := newFixture(t, wednesday4pm)
	ctx := context.Background()

	first := f.guard.Check(ctx, "www.twitter.com")
	require.True(t, first.Gated)
	assert.Equal(t, models.PlatformTwitter, first.Platform)
	assert.True(t, first.Decision.Allowed)
	assert.Equal(t, gate.AllowFirstVisit, first.Decision.Path)
	assert.Equal(t, "2026-10-14", f.config.ReadLegacy(ctx).Visits[models.PlatformTwitter])
	assert.True(t, f.consent.Get(ctx, models.PlatformTwitter))

	second := f.guard.Check(ctx, "twitter.com")
	assert.True(t, second.Decision.Allowed)
	assert.Equal(t, gate.AllowSessionConsent, second.Decision.Path)
}

func TestAlreadyVisitedInNewSession(t *testing.T) {
	f := newFixture(t, wednesday4pm)
	ctx := context.Background()
	require.NoError(t, f.config.RecordVisit(ctx, models.PlatformLinkedIn, wednesday4pm))

	res := f.guard.Check(ctx, "linkedin.com")
	assert.False(t, res.Decision.Allowed)
	assert.Equal(t, models.BlockAlreadyVisited, res.Decision.BlockType)
	assert.Equal(t, models.DefaultRedirectURL, res.RedirectURL)
}

func TestUngatedHostIsAllowed(t *testing.T) {
	f := newFixture(t, saturday4pm)
	res := f.guard.Check(context.Background(), "golang.org")
	assert.False(t, res.Gated)
	assert.True(t, res.Decision.Allowed)
}

func TestDisabledCategoryIsAllowed(t *testing.T) {
	f := newFixture(t, saturday4pm)
	res := f.guard.Check(context.Background(), "chatgpt.com")
	require.True(t, res.Gated)
	assert.True(t, res.Decision.Allowed)
	assert.Equal(t, gate.AllowCategoryDisabled, res.Decision.Path)
}

func TestBypassCommitUnlocksPlatform(t *testing.T) {
	f := newFixture(t, saturday4pm)
	ctx := context.Background()

	denied := f.guard.Check(ctx, "facebook.com")
	require.False(t, denied.Decision.Allowed)
	assert.Equal(t, models.BlockWeekend, denied.Decision.BlockType)

	st, err := f.guard.BeginBypass(ctx, "facebook.com")
	require.NoError(t, err)
	assert.Equal(t, bypass.StateReasonEntry, st.State)

	_, accepted, err := f.guard.SubmitReason(st.ID, "aaaaaaaaaa")
	require.NoError(t, err)
	assert.False(t, accepted)

	st, accepted, err = f.guard.SubmitReason(st.ID, "Family event photos were posted there")
	require.NoError(t, err)
	require.True(t, accepted)
	assert.Equal(t, bypass.StateCountdown, st.State)
	assert.Equal(t, 20, st.Remaining)

	f.sched.Advance(20 * time.Second)
	st, err = f.guard.Status(st.ID)
	require.NoError(t, err)
	assert.Equal(t, bypass.StateCommitted, st.State)

	after := f.guard.Check(ctx, "facebook.com")
	assert.True(t, after.Decision.Allowed)
	assert.Equal(t, gate.AllowSessionConsent, after.Decision.Path)

	history, err := f.audit.History(ctx, audit.HistoryRetention)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.ActionBypassWithReason, history[0].Action)
	assert.Equal(t, models.BlockWeekend, history[0].BlockType)

	reasons, err := f.audit.BypassReasons(ctx, audit.ReasonRetention)
	require.NoError(t, err)
	require.Len(t, reasons, 1)
	assert.Equal(t, models.PlatformFacebook, reasons[0].Platform)
}

func TestVacationOverridesBypassConsent(t *testing.T) {
	f := newFixture(t, wednesday4pm)
	ctx := context.Background()
	require.NoError(t, f.consent.Set(ctx, models.PlatformTwitter))
	require.NoError(t, f.config.Patch(ctx, "settings", "vacationMode", true))

	res := f.guard.Check(ctx, "x.com")
	assert.False(t, res.Decision.Allowed)
	assert.Equal(t, models.BlockVacation, res.Decision.BlockType)
}

func TestBypassRequiresDeny(t *testing.T) {
	f := newFixture(t, wednesday4pm)
	_, err := f.guard.BeginBypass(context.Background(), "golang.org")
	assert.ErrorIs(t, err, ErrNotBlocked)
}

func TestAbortAndCloseNeverCommit(t *testing.T) {
	f := newFixture(t, saturday4pm)
	ctx := context.Background()

	a, err := f.guard.BeginBypass(ctx, "twitter.com")
	require.NoError(t, err)
	_, ok, err := f.guard.SubmitReason(a.ID, "Need to answer a support ticket")
	require.NoError(t, err)
	require.True(t, ok)

	b, err := f.guard.BeginBypass(ctx, "linkedin.com")
	require.NoError(t, err)
	_, ok, err = f.guard.SubmitReason(b.ID, "Recruiter asked for an updated profile")
	require.NoError(t, err)
	require.True(t, ok)

	f.sched.Advance(10 * time.Second)
	st, err := f.guard.Abort(a.ID)
	require.NoError(t, err)
	assert.Equal(t, bypass.StateAborted, st.State)
	f.guard.CloseAll()
	f.sched.Advance(time.Minute)

	_, err = f.guard.Status(b.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.False(t, f.consent.Get(ctx, models.PlatformTwitter))
	assert.False(t, f.consent.Get(ctx, models.PlatformLinkedIn))
	history, err := f.audit.History(ctx, audit.HistoryRetention)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestCancelAndReenter(t *testing.T) {
	f := newFixture(t, saturday4pm)
	st, err := f.guard.BeginBypass(context.Background(), "twitter.com")
	require.NoError(t, err)

	st, err = f.guard.CancelReason(st.ID)
	require.NoError(t, err)
	assert.Equal(t, bypass.StateIdle, st.State)

	st, err = f.guard.Reenter(st.ID)
	require.NoError(t, err)
	assert.Equal(t, bypass.StateReasonEntry, st.State)

	require.NoError(t, f.guard.Close(st.ID))
	assert.ErrorIs(t, f.guard.Close(st.ID), ErrSessionNotFound)
}

func TestRedirectFallsBackToDefault(t *testing.T) {
	f := newFixture(t, wednesday4pm)
	ctx := context.Background()
	assert.Equal(t, models.DefaultRedirectURL, f.guard.Redirect(ctx))

	require.NoError(t, f.config.Patch(ctx, "settings", "redirectUrl", "example.org/focus"))
	assert.Equal(t, "https://example.org/focus", f.guard.Redirect(ctx))
}

func TestCustomSiteGatedWhileSocialDisabled(t *testing.T) {
	wednesday9pm := time.Date(2026, 10, 14, 21, 0, 0, 0, time.Local)
	f := newFixture(t, wednesday9pm)
	ctx := context.Background()

	cfg := models.DefaultSiteConfiguration()
	cfg.SocialMediaSites.Enabled = false
	cfg.CustomSites.Enabled = true
	cfg.CustomSites.Sites = []models.SiteEntry{{Domain: "x.com", Name: "X"}}
	require.NoError(t, f.config.Write(ctx, cfg))

	res := f.guard.Check(ctx, "x.com")
	require.True(t, res.Gated)
	assert.Equal(t, models.CategoryCustom, res.Category)
	assert.Equal(t, models.PlatformCustom, res.Platform)
	assert.False(t, res.Decision.Allowed)
	assert.Equal(t, models.BlockOutsideHours, res.Decision.BlockType)

	other := f.guard.Check(ctx, "facebook.com")
	assert.True(t, other.Decision.Allowed)
	assert.Equal(t, gate.AllowCategoryDisabled, other.Decision.Path)
}

func TestBeginBypassKeepsDailyVisit(t *testing.T) {
	f := newFixture(t, wednesday4pm)
	ctx := context.Background()

	_, err := f.guard.BeginBypass(ctx, "linkedin.com")
	require.ErrorIs(t, err, ErrNotBlocked)
	_, visited := f.config.ReadLegacy(ctx).Visits[models.PlatformLinkedIn]
	assert.False(t, visited)
	assert.False(t, f.consent.Get(ctx, models.PlatformLinkedIn))

	res := f.guard.Check(ctx, "linkedin.com")
	assert.Equal(t, gate.AllowFirstVisit, res.Decision.Path)
}

func TestIdleBypassSessionsExpire(t *testing.T) {
	f := newFixture(t, saturday4pm)
	ctx := context.Background()

	stale, err := f.guard.BeginBypass(ctx, "facebook.com")
	require.NoError(t, err)
	kept, err := f.guard.BeginBypass(ctx, "twitter.com")
	require.NoError(t, err)

	f.sched.Advance(20 * time.Minute)
	_, err = f.guard.Status(kept.ID)
	require.NoError(t, err)
	f.sched.Advance(15 * time.Minute)

	_, err = f.guard.BeginBypass(ctx, "linkedin.com")
	require.NoError(t, err)

	_, err = f.guard.Status(stale.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	st, err := f.guard.Status(kept.ID)
	require.NoError(t, err)
	assert.Equal(t, bypass.StateReasonEntry, st.State)
}
