package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"focus-guard/agent/internal/audit"
	"focus-guard/agent/internal/configstore"
	"focus-guard/agent/internal/logger"
	"focus-guard/agent/internal/models"
	"focus-guard/agent/internal/tracker"
)

const saveFailed = "Settings could not be saved. Please try again."

// SettingsController serves the settings-editing surface and read-side stats.
type SettingsController struct {
	config  *configstore.Store
	audit   *audit.Log
	tracker *tracker.Tracker
}

func NewSettingsController(cfg *configstore.Store, log *audit.Log, tr *tracker.Tracker) *SettingsController {
	return &SettingsController{config: cfg, audit: log, tracker: tr}
}

// writeFailed reports a failed settings write as one readable message.
func writeFailed(w http.ResponseWriter, err error) {
	if errors.Is(err, models.ErrValidation) {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	logger.Errorf("Settings write failed: %v", err)
	writeJSONError(w, http.StatusServiceUnavailable, saveFailed)
}

// GetSites GET /settings/sites
func (c *SettingsController) GetSites(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, c.config.Read(r.Context()))
}

// PutSites PUT /settings/sites replaces the whole configuration.
func (c *SettingsController) PutSites(w http.ResponseWriter, r *http.Request) {
	var cfg models.SiteConfiguration
	if err := decodeBody(r, &cfg); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid payload: "+err.Error())
		return
	}
	if err := c.config.Write(r.Context(), cfg); err != nil {
		writeFailed(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c.config.Read(r.Context()))
}

// PatchSites PATCH /settings/sites updates one field.
func (c *SettingsController) PatchSites(w http.ResponseWriter, r *http.Request) {
	var req PatchRequest
	if err := decodeBody(r, &req); err != nil || req.Category == "" || req.Key == "" {
		writeJSONError(w, http.StatusBadRequest, "category and key required")
		return
	}
	if err := c.config.Patch(r.Context(), req.Category, req.Key, req.Value); err != nil {
		writeFailed(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c.config.Read(r.Context()))
}

// GetLegacy GET /settings/legacy
func (c *SettingsController) GetLegacy(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, c.config.ReadLegacy(r.Context()))
}

// ResetVisits POST /visits/reset
func (c *SettingsController) ResetVisits(w http.ResponseWriter, r *http.Request) {
	var req ResetVisitsRequest
	if err := decodeBody(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeJSONError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	for _, p := range req.Platforms {
		if !p.Valid() {
			writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("unknown platform %q", p))
			return
		}
	}
	if err := c.config.ResetVisits(r.Context(), req.Platforms...); err != nil {
		writeFailed(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Stats GET /stats?window=24h
func (c *SettingsController) Stats(w http.ResponseWriter, r *http.Request) {
	window, err := windowParam(r, audit.HistoryRetention)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	s, err := c.audit.Summarize(r.Context(), window)
	if err != nil {
		writeJSONError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, StatsResponse{
		Window:     window.String(),
		Total:      s.Total,
		ByAction:   s.ByAction,
		ByPlatform: s.ByPlatform,
		Reasons:    s.Reasons,
	})
}

// History GET /history?window=24h
func (c *SettingsController) History(w http.ResponseWriter, r *http.Request) {
	window, err := windowParam(r, audit.HistoryRetention)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	entries, err := c.audit.History(r.Context(), window)
	if err != nil {
		writeJSONError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// Reasons GET /reasons?window=30d
func (c *SettingsController) Reasons(w http.ResponseWriter, r *http.Request) {
	window, err := windowParam(r, audit.ReasonRetention)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	entries, err := c.audit.BypassReasons(r.Context(), window)
	if err != nil {
		writeJSONError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// Tracking GET /tracking
func (c *SettingsController) Tracking(w http.ResponseWriter, r *http.Request) {
	stats, err := c.tracker.Stats(r.Context())
	if err != nil {
		writeJSONError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func windowParam(r *http.Request, def time.Duration) (time.Duration, error) {
	raw := r.URL.Query().Get("window")
	if raw == "" {
		return def, nil
	}
	return ParseWindow(raw)
}

// ParseWindow accepts Go durations plus a whole-day suffix, e.g. "30d".
func ParseWindow(raw string) (time.Duration, error) {
	if days, ok := strings.CutSuffix(raw, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("invalid window %q", raw)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid window %q", raw)
	}
	return d, nil
}
