// Package audit keeps the time-bounded usage history (24h, stored inside the
// legacy settings record) and the bypass accountability trail (30 days, own
// key). Expired entries are pruned on every append rather than by a sweeper.
//
// Appends are read-modify-write of a whole record. Two agents writing at
// once may lose one entry; this trail is best effort.
package audit

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"focus-guard/agent/internal/configstore"
	"focus-guard/agent/internal/kv"
	"focus-guard/agent/internal/logger"
	"focus-guard/agent/internal/models"
)

const (
	HistoryRetention = 24 * time.Hour
	ReasonRetention  = 30 * 24 * time.Hour
)

// ISODate is the layout of BypassReason.Date.
const ISODate = "2006-01-02T15:04:05.000Z07:00"

type Log struct {
	config *configstore.Store
	kv     kv.Store
	now    func() time.Time
	mu     sync.Mutex
}

func New(config *configstore.Store, store kv.Store) *Log {
	return &Log{config: config, kv: store, now: time.Now}
}

// WithClock replaces the time source, for tests and replays.
func (l *Log) WithClock(now func() time.Time) *Log {
	l.now = now
	return l
}

func cutoff(now time.Time, window time.Duration) int64 {
	return now.Add(-window).UnixMilli()
}

func pruneHistory(entries []models.HistoryEntry, since int64) []models.HistoryEntry {
	out := make([]models.HistoryEntry, 0, len(entries)+1)
	for _, e := range entries {
		if e.Timestamp >= since {
			out = append(out, e)
		}
	}
	return out
}

func pruneReasons(entries []models.BypassReason, since int64) []models.BypassReason {
	out := make([]models.BypassReason, 0, len(entries)+1)
	for _, e := range entries {
		if e.Timestamp >= since {
			out = append(out, e)
		}
	}
	return out
}

// AppendHistory stores e in the usage history. A zero timestamp is set to now.
func (l *Log) AppendHistory(ctx context.Context, e models.HistoryEntry) error {
	now := l.now()
	if e.Timestamp == 0 {
		e.Timestamp = now.UnixMilli()
	}
	if !e.Action.Valid() {
		return &models.ValidationError{Field: "action", Reason: fmt.Sprintf("unknown action %q", e.Action)}
	}
	return l.config.UpdateLegacy(ctx, func(s *models.LegacySettings) error {
		s.UsageHistory = append(pruneHistory(s.UsageHistory, cutoff(now, HistoryRetention)), e)
		return nil
	})
}

// AppendBypassReason stores r in the accountability trail. Missing timestamp
// and date are filled from now.
func (l *Log) AppendBypassReason(ctx context.Context, r models.BypassReason) error {
	now := l.now()
	if r.Timestamp == 0 {
		r.Timestamp = now.UnixMilli()
	}
	if r.Date == "" {
		r.Date = time.UnixMilli(r.Timestamp).UTC().Format(ISODate)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	reasons, err := l.loadReasons(ctx)
	if err != nil {
		return err
	}
	reasons = append(pruneReasons(reasons, cutoff(now, ReasonRetention)), r)
	if err := kv.SetJSON(ctx, l.kv, kv.KeyBypassReasons, reasons); err != nil {
		return fmt.Errorf("write bypass reasons: %w", err)
	}
	return nil
}

// AppendDisableEvent records that the guard was found to have been disabled.
func (l *Log) AppendDisableEvent(ctx context.Context) error {
	return l.AppendHistory(ctx, models.HistoryEntry{Action: models.ActionDisabled})
}

func (l *Log) loadReasons(ctx context.Context) ([]models.BypassReason, error) {
	var reasons []models.BypassReason
	found, err := kv.GetJSON(ctx, l.kv, kv.KeyBypassReasons, &reasons)
	if err != nil && !found {
		return nil, fmt.Errorf("read bypass reasons: %w", err)
	}
	if err != nil {
		logger.Warnf("Bypass reasons unreadable, starting a new trail: %v", err)
		return nil, nil
	}
	return reasons, nil
}

// History returns usage history entries newer than window, oldest first.
func (l *Log) History(ctx context.Context, window time.Duration) ([]models.HistoryEntry, error) {
	since := cutoff(l.now(), window)
	settings := l.config.ReadLegacy(ctx)
	out := pruneHistory(settings.UsageHistory, since)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })
	return out, nil
}

// BypassReasons returns accountability entries newer than window, oldest first.
func (l *Log) BypassReasons(ctx context.Context, window time.Duration) ([]models.BypassReason, error) {
	since := cutoff(l.now(), window)
	l.mu.Lock()
	reasons, err := l.loadReasons(ctx)
	l.mu.Unlock()
	if err != nil {
		return nil, err
	}
	out := pruneReasons(reasons, since)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })
	return out, nil
}
