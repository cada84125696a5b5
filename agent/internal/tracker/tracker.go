// Package tracker infers how long the guard was not running. A heartbeat
// timestamp is rewritten while the agent runs; on startup the gap since the
// last heartbeat above a debounce threshold counts as a disable/enable cycle.
// A disable shorter than the debounce goes unnoticed.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"focus-guard/agent/internal/kv"
	"focus-guard/agent/internal/logger"
	"focus-guard/agent/internal/models"
)

const (
	DefaultDebounce  = 10 * time.Second
	DefaultHeartbeat = 5 * time.Second
)

// DisableRecorder receives a history entry per detected disable.
type DisableRecorder interface {
	AppendDisableEvent(ctx context.Context) error
}

type Tracker struct {
	kv        kv.Store
	audit     DisableRecorder
	debounce  time.Duration
	heartbeat time.Duration
	now       func() time.Time

	mu       sync.Mutex
	stopChan chan struct{}
	doneChan chan struct{}
}

// Result reports what Startup concluded.
type Result struct {
	Gap      time.Duration
	Disabled bool
}

func New(store kv.Store, audit DisableRecorder, debounce, heartbeat time.Duration) *Tracker {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if heartbeat <= 0 {
		heartbeat = DefaultHeartbeat
	}
	return &Tracker{
		kv:        store,
		audit:     audit,
		debounce:  debounce,
		heartbeat: heartbeat,
		now:       time.Now,
	}
}

func (t *Tracker) WithClock(now func() time.Time) *Tracker {
	t.now = now
	return t
}

// Stats returns the stored tracking record. A missing or unreadable record
// reads as empty.
func (t *Tracker) Stats(ctx context.Context) (models.ExtensionTrackingStats, error) {
	var stats models.ExtensionTrackingStats
	found, err := kv.GetJSON(ctx, t.kv, kv.KeyTrackingStats, &stats)
	if err != nil && !found {
		return stats, fmt.Errorf("read tracking stats: %w", err)
	}
	if err != nil {
		logger.Warnf("Tracking stats unreadable, starting over: %v", err)
		return models.ExtensionTrackingStats{}, nil
	}
	return stats, nil
}

// Startup compares the last heartbeat with now, records a disable when the
// gap exceeds the debounce, and always rewrites the heartbeat.
func (t *Tracker) Startup(ctx context.Context) (Result, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	stats, err := t.Stats(ctx)
	if err != nil {
		return Result{}, err
	}
	now := t.now()
	nowMs := now.UnixMilli()

	var res Result
	if stats.LastActiveTimestamp > 0 {
		gapMs := nowMs - stats.LastActiveTimestamp
		res.Gap = time.Duration(gapMs) * time.Millisecond
		if res.Gap > t.debounce {
			res.Disabled = true
			stats.DisableCount++
			stats.DisableEvents = capEvents(append(stats.DisableEvents, models.DisableEvent{
				Timestamp:  stats.LastActiveTimestamp,
				DetectedAt: nowMs,
			}))
			stats.EnableEvents = capEvents(append(stats.EnableEvents, models.EnableEvent{
				Timestamp:               nowMs,
				DisabledDurationMs:      gapMs,
				DisabledDurationMinutes: int64(math.Round(float64(gapMs) / float64(time.Minute/time.Millisecond))),
			}))
			stats.TotalDisabledDuration += gapMs
		}
	}
	stats.LastActiveTimestamp = nowMs
	if err := kv.SetJSON(ctx, t.kv, kv.KeyTrackingStats, stats); err != nil {
		return res, fmt.Errorf("write tracking stats: %w", err)
	}

	if res.Disabled {
		logger.L.Warn().Dur("gap", res.Gap).Int("disableCount", stats.DisableCount).Msg("guard was disabled")
		if t.audit != nil {
			if err := t.audit.AppendDisableEvent(ctx); err != nil {
				logger.Errorf("Disable history write failed: %v", err)
			}
		}
	}
	return res, nil
}

func capEvents[T any](events []T) []T {
	if len(events) > models.MaxTrackedEvents {
		return events[len(events)-models.MaxTrackedEvents:]
	}
	return events
}

// Beat rewrites the heartbeat timestamp.
func (t *Tracker) Beat(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	stats, err := t.Stats(ctx)
	if err != nil {
		return err
	}
	stats.LastActiveTimestamp = t.now().UnixMilli()
	return kv.SetJSON(ctx, t.kv, kv.KeyTrackingStats, stats)
}

// Start begins the heartbeat loop.
func (t *Tracker) Start(ctx context.Context) {
	t.stopChan = make(chan struct{})
	t.doneChan = make(chan struct{})
	ticker := time.NewTicker(t.heartbeat)
	go func() {
		defer close(t.doneChan)
		for {
			select {
			case <-ticker.C:
				if err := t.Beat(ctx); err != nil && !errors.Is(err, context.Canceled) {
					logger.Warnf("Heartbeat write failed: %v", err)
				}
			case <-ctx.Done():
				ticker.Stop()
				return
			case <-t.stopChan:
				ticker.Stop()
				return
			}
		}
	}()
	logger.Infof("Heartbeat started (interval: %v)", t.heartbeat)
}

// Stop ends the heartbeat loop and writes a final heartbeat.
func (t *Tracker) Stop(ctx context.Context) {
	if t.stopChan == nil {
		return
	}
	close(t.stopChan)
	<-t.doneChan
	t.stopChan = nil
	if err := t.Beat(ctx); err != nil {
		logger.Warnf("Final heartbeat failed: %v", err)
	}
}
