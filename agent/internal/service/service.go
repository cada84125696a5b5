// Package service wires the config store, decision engine, consent cache,
// bypass workflow and audit log into the gate's control flow.
package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"focus-guard/agent/internal/audit"
	"focus-guard/agent/internal/bypass"
	"focus-guard/agent/internal/configstore"
	"focus-guard/agent/internal/consent"
	"focus-guard/agent/internal/gate"
	"focus-guard/agent/internal/logger"
	"focus-guard/agent/internal/models"
	"focus-guard/agent/internal/resolver"
)

var (
	ErrSessionNotFound = errors.New("bypass session not found")
	ErrNotBlocked      = errors.New("site is not blocked")
)

// DefaultIdleTTL bounds how long a bypass may sit in idle or reason entry
// before the next BeginBypass discards it.
const DefaultIdleTTL = 30 * time.Minute

type Options struct {
	Countdown time.Duration
	IdleTTL   time.Duration
	Scheduler bypass.Scheduler
	Now       func() time.Time
}

type Guard struct {
	config  *configstore.Store
	audit   *audit.Log
	consent *consent.Cache
	opts    Options

	mu       sync.Mutex
	sessions map[string]*bypass.Session
	touched  map[string]time.Time
}

func NewGuard(config *configstore.Store, log *audit.Log, c *consent.Cache, opts Options) *Guard {
	if opts.Scheduler == nil {
		opts.Scheduler = bypass.WallScheduler
	}
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = DefaultIdleTTL
	}
	if opts.Now == nil {
		opts.Now = opts.Scheduler.Now
	}
	return &Guard{
		config:   config,
		audit:    log,
		consent:  c,
		opts:     opts,
		sessions: map[string]*bypass.Session{},
		touched:  map[string]time.Time{},
	}
}

// CheckResult is the outcome of a page load.
type CheckResult struct {
	Hostname    string
	Gated       bool
	Platform    models.Platform
	Category    models.CategoryKey
	Decision    gate.Decision
	RedirectURL string
}

// Check resolves hostname and evaluates the gate. Hosts matching no enabled
// site are allowed. The first allowed visit of the day is recorded and grants
// session consent.
func (g *Guard) Check(ctx context.Context, hostname string) CheckResult {
	res, now := g.evaluate(ctx, hostname)
	if res.Gated && res.Decision.FirstVisit() {
		if err := g.config.RecordVisit(ctx, res.Platform, now); err != nil {
			logger.Errorf("Record visit for %s failed: %v", res.Platform, err)
		}
		if err := g.consent.Set(ctx, res.Platform); err != nil {
			logger.Warnf("Session consent write failed for %s: %v", res.Platform, err)
		}
	}
	return res
}

// evaluate resolves and decides without touching visits or consent.
func (g *Guard) evaluate(ctx context.Context, hostname string) (CheckResult, time.Time) {
	now := g.opts.Now()
	res := CheckResult{Hostname: hostname, Decision: gate.Decision{Allowed: true}}
	cfg := g.config.Read(ctx)
	r, ok := resolver.Resolve(cfg, hostname)
	if !ok {
		return res, now
	}
	res.Gated = true
	res.Platform = r.Platform
	res.Category = r.Category

	legacy := g.config.ReadLegacy(ctx)
	res.Decision = gate.Decide(gate.Input{
		Platform:  r.Platform,
		Now:       now,
		Settings:  gate.SettingsFor(legacy, r.Platform),
		LastVisit: legacy.Visits[r.Platform],
		Consent:   g.consent.Get(ctx, r.Platform),
	})
	if !res.Decision.Allowed {
		res.RedirectURL = redirectOrDefault(legacy.RedirectURL)
	}
	logger.L.Debug().
		Str("host", hostname).
		Str("platform", string(r.Platform)).
		Bool("allowed", res.Decision.Allowed).
		Str("blockType", string(res.Decision.BlockType)).
		Msg("gate decision")
	return res, now
}

// Redirect returns the validated leave target.
func (g *Guard) Redirect(ctx context.Context) string {
	return redirectOrDefault(g.config.Read(ctx).Settings.RedirectURL)
}

func redirectOrDefault(raw string) string {
	if u, err := models.NormalizeRedirectURL(raw); err == nil {
		return u
	}
	return models.DefaultRedirectURL
}
