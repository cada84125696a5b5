// Package configstore owns the two persisted policy records: the hierarchical
// SiteConfiguration (record of truth) and the flat LegacySettings view derived
// from it. All mutation goes through read-modify-write helpers here.
//
// Within one agent process those helpers are serialized. Writers in other
// processes (guardctl) are last-writer-wins at whole-record granularity.
package configstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"focus-guard/agent/internal/kv"
	"focus-guard/agent/internal/logger"
	"focus-guard/agent/internal/models"
)

type Store struct {
	kv kv.Store
	mu sync.Mutex
}

func New(store kv.Store) *Store {
	return &Store{kv: store}
}

// load returns the stored configuration, or the defaults with found=false.
func (s *Store) load(ctx context.Context) (cfg models.SiteConfiguration, found bool, err error) {
	raw, err := s.kv.Get(ctx, kv.KeySiteConfiguration)
	if errors.Is(err, kv.ErrNotFound) {
		return models.DefaultSiteConfiguration(), false, nil
	}
	if err != nil {
		return models.DefaultSiteConfiguration(), false, err
	}
	cfg, fixes := decodeSiteConfiguration(raw)
	if len(fixes) > 0 {
		logger.L.Warn().Strs("fixes", fixes).Msg("site configuration corrected on read")
	}
	return cfg, true, nil
}

func (s *Store) loadLegacy(ctx context.Context) (models.LegacySettings, bool, error) {
	raw, err := s.kv.Get(ctx, kv.KeyLegacySettings)
	if errors.Is(err, kv.ErrNotFound) {
		return models.LegacySettings{}, false, nil
	}
	if err != nil {
		return models.LegacySettings{}, false, err
	}
	l, fixes := decodeLegacy(raw)
	if len(fixes) > 0 {
		logger.L.Warn().Strs("fixes", fixes).Msg("legacy settings corrected on read")
	}
	return l, true, nil
}

// Read always returns a usable configuration. Storage failures degrade to the
// built-in defaults so the gate fails open instead of locking the user out.
func (s *Store) Read(ctx context.Context) models.SiteConfiguration {
	cfg, _, err := s.load(ctx)
	if err != nil {
		logger.Errorf("Read site configuration failed, using defaults: %v", err)
	}
	return cfg
}

// Write validates cfg, persists it and re-derives the legacy record.
func (s *Store) Write(ctx context.Context, cfg models.SiteConfiguration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLocked(ctx, cfg)
}

func (s *Store) writeLocked(ctx context.Context, cfg models.SiteConfiguration) error {
	cfg.Version = models.SiteConfigVersion
	if err := cfg.Validate(); err != nil {
		return err
	}
	redirect, _ := models.NormalizeRedirectURL(cfg.Settings.RedirectURL)
	cfg.Settings.RedirectURL = redirect
	for _, key := range models.AllCategories {
		if c := cfg.Category(key); c.Sites == nil {
			c.Sites = []models.SiteEntry{}
		}
	}
	if err := kv.SetJSON(ctx, s.kv, kv.KeySiteConfiguration, cfg); err != nil {
		return fmt.Errorf("write site configuration: %w", err)
	}
	return s.syncLocked(ctx, cfg)
}

// ReadLegacy returns the flat settings, derived from the configuration when
// nothing is stored yet. Storage failures degrade to the default projection.
func (s *Store) ReadLegacy(ctx context.Context) models.LegacySettings {
	l, found, err := s.loadLegacy(ctx)
	if err != nil {
		logger.Errorf("Read legacy settings failed, using defaults: %v", err)
		return models.DefaultLegacySettings()
	}
	if !found {
		return models.Project(s.Read(ctx), models.LegacySettings{})
	}
	return l
}

// WriteLegacy persists l as is.
func (s *Store) WriteLegacy(ctx context.Context, l models.LegacySettings) error {
	if l.Visits == nil {
		l.Visits = models.Visits{}
	}
	if l.UsageHistory == nil {
		l.UsageHistory = []models.HistoryEntry{}
	}
	if err := kv.SetJSON(ctx, s.kv, kv.KeyLegacySettings, l); err != nil {
		return fmt.Errorf("write legacy settings: %w", err)
	}
	return nil
}

// UpdateLegacy runs fn on the current legacy record and persists the result.
// Unlike ReadLegacy it refuses to write when the current record cannot be read.
func (s *Store) UpdateLegacy(ctx context.Context, fn func(*models.LegacySettings) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, found, err := s.loadLegacy(ctx)
	if err != nil {
		return fmt.Errorf("read legacy settings: %w", err)
	}
	if !found {
		cfg, _, err := s.load(ctx)
		if err != nil {
			return fmt.Errorf("read site configuration: %w", err)
		}
		l = models.Project(cfg, models.LegacySettings{})
	}
	if err := fn(&l); err != nil {
		return err
	}
	return s.WriteLegacy(ctx, l)
}

// Sync re-derives the legacy record from the stored configuration, keeping
// visits and usage history.
func (s *Store) Sync(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg, _, err := s.load(ctx)
	if err != nil {
		return fmt.Errorf("read site configuration: %w", err)
	}
	return s.syncLocked(ctx, cfg)
}

func (s *Store) syncLocked(ctx context.Context, cfg models.SiteConfiguration) error {
	prev, _, err := s.loadLegacy(ctx)
	if err != nil {
		return fmt.Errorf("read legacy settings: %w", err)
	}
	return s.WriteLegacy(ctx, models.Project(cfg, prev))
}

// Patch updates a single field. category is a category key (fields "enabled"
// and "sites") or "settings" (any PolicySettings field).
func (s *Store) Patch(ctx context.Context, category, key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, _, err := s.load(ctx)
	if err != nil {
		return fmt.Errorf("read site configuration: %w", err)
	}
	if err := applyPatch(&cfg, category, key, value); err != nil {
		return err
	}
	return s.writeLocked(ctx, cfg)
}

func applyPatch(cfg *models.SiteConfiguration, category, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return &models.ValidationError{Field: key, Reason: err.Error()}
	}
	if category == "settings" {
		return patchSettings(&cfg.Settings, key, raw)
	}
	cat := cfg.Category(models.CategoryKey(category))
	if cat == nil {
		return &models.ValidationError{Field: "category", Reason: fmt.Sprintf("unknown category %q", category)}
	}
	switch key {
	case "enabled":
		return decodeInto(raw, key, &cat.Enabled)
	case "sites":
		var sites []models.SiteEntry
		if err := decodeInto(raw, key, &sites); err != nil {
			return err
		}
		cat.Sites = sites
		return nil
	}
	return &models.ValidationError{Field: key, Reason: "unknown category field"}
}

func patchSettings(p *models.PolicySettings, key string, raw []byte) error {
	switch key {
	case "allowedAfterHour":
		return decodeInto(raw, key, &p.AllowedAfterHour)
	case "allowedEndHour":
		return decodeInto(raw, key, &p.AllowedEndHour)
	case "redirectUrl":
		return decodeInto(raw, key, &p.RedirectURL)
	case "vacationMode":
		return decodeInto(raw, key, &p.VacationMode)
	case "totalWeekendBlock":
		return decodeInto(raw, key, &p.TotalWeekendBlock)
	}
	return &models.ValidationError{Field: key, Reason: "unknown settings field"}
}

func decodeInto(raw []byte, field string, dst any) error {
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return &models.ValidationError{Field: field, Reason: err.Error()}
	}
	return nil
}

// RecordVisit stores day as the last visit date of p.
func (s *Store) RecordVisit(ctx context.Context, p models.Platform, day time.Time) error {
	date := day.Format(models.VisitDateLayout)
	return s.UpdateLegacy(ctx, func(l *models.LegacySettings) error {
		l.Visits[p] = date
		return nil
	})
}

// ResetVisits clears the visit record of the given platforms, or all when none given.
func (s *Store) ResetVisits(ctx context.Context, platforms ...models.Platform) error {
	return s.UpdateLegacy(ctx, func(l *models.LegacySettings) error {
		if len(platforms) == 0 {
			l.Visits = models.Visits{}
			return nil
		}
		for _, p := range platforms {
			delete(l.Visits, p)
		}
		return nil
	})
}
