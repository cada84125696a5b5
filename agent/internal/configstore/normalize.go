package configstore

import (
	"fmt"
	"strings"
	"time"

	"focus-guard/agent/internal/models"

	"github.com/tidwall/gjson"
)

// decodeSiteConfiguration extracts a SiteConfiguration field by field.
// Malformed parts are replaced with defaults and reported in fixes; the
// result is always fully typed.
func decodeSiteConfiguration(raw []byte) (cfg models.SiteConfiguration, fixes []string) {
	if !gjson.ValidBytes(raw) {
		return models.DefaultSiteConfiguration(), []string{"document is not valid JSON"}
	}
	root := gjson.ParseBytes(raw)
	if !root.IsObject() {
		return models.DefaultSiteConfiguration(), []string{"document is not an object"}
	}

	cfg.Version = models.SiteConfigVersion
	for _, key := range models.AllCategories {
		*cfg.Category(key) = decodeCategory(string(key), root.Get(string(key)), &fixes)
	}
	cfg.Settings = decodeSettings(root.Get("settings"), &fixes)
	return cfg, fixes
}

func decodeCategory(name string, res gjson.Result, fixes *[]string) models.Category {
	out := models.Category{Enabled: false, Sites: []models.SiteEntry{}}
	if !res.IsObject() {
		*fixes = append(*fixes, name+": missing or malformed, disabled")
		return out
	}

	switch en := res.Get("enabled"); en.Type {
	case gjson.True, gjson.False:
		out.Enabled = en.Bool()
	default:
		*fixes = append(*fixes, name+".enabled: not a boolean")
	}

	sites := res.Get("sites")
	if !sites.IsArray() {
		if sites.Exists() {
			*fixes = append(*fixes, name+".sites: not an array")
		}
		return out
	}
	seen := map[string]bool{}
	for i, item := range sites.Array() {
		site, ok := decodeSite(item)
		if !ok {
			*fixes = append(*fixes, fmt.Sprintf("%s.sites[%d]: dropped", name, i))
			continue
		}
		if seen[site.Domain] {
			continue
		}
		seen[site.Domain] = true
		out.Sites = append(out.Sites, site)
	}
	return out
}

func decodeSite(item gjson.Result) (models.SiteEntry, bool) {
	if !item.IsObject() {
		return models.SiteEntry{}, false
	}
	domain, name := item.Get("domain"), item.Get("name")
	if domain.Type != gjson.String || name.Type != gjson.String {
		return models.SiteEntry{}, false
	}
	site := models.SiteEntry{
		Domain: models.NormalizeDomain(domain.String()),
		Name:   strings.TrimSpace(name.String()),
	}
	if site.Domain == "" || site.Name == "" {
		return models.SiteEntry{}, false
	}
	if en := item.Get("enabled"); en.Type == gjson.True || en.Type == gjson.False {
		v := en.Bool()
		site.Enabled = &v
	}
	return site, true
}

func decodeSettings(res gjson.Result, fixes *[]string) models.PolicySettings {
	out := models.DefaultPolicySettings()
	if !res.IsObject() {
		if res.Exists() {
			*fixes = append(*fixes, "settings: malformed, defaults used")
		}
		return out
	}

	after := hourField(res, "allowedAfterHour", out.AllowedAfterHour, fixes)
	end := hourField(res, "allowedEndHour", out.AllowedEndHour, fixes)
	if models.ValidateHours(after, end) == nil {
		out.AllowedAfterHour, out.AllowedEndHour = after, end
	} else {
		*fixes = append(*fixes, fmt.Sprintf("settings: window [%d,%d) rejected, defaults used", after, end))
	}

	if u := res.Get("redirectUrl"); u.Exists() {
		if normalized, err := models.NormalizeRedirectURL(u.String()); err == nil && u.Type == gjson.String {
			out.RedirectURL = normalized
		} else {
			*fixes = append(*fixes, "settings.redirectUrl: rejected")
		}
	}
	out.VacationMode = boolField(res, "vacationMode", out.VacationMode, fixes)
	out.TotalWeekendBlock = boolField(res, "totalWeekendBlock", out.TotalWeekendBlock, fixes)
	return out
}

// hourField reads an integer hour, falling back to def when absent or malformed.
func hourField(res gjson.Result, field string, def int, fixes *[]string) int {
	v := res.Get(field)
	if !v.Exists() {
		return def
	}
	if v.Type != gjson.Number || v.Float() != float64(v.Int()) || v.Int() < 0 || v.Int() > 23 {
		*fixes = append(*fixes, "settings."+field+": not an hour")
		return def
	}
	return int(v.Int())
}

func boolField(res gjson.Result, field string, def bool, fixes *[]string) bool {
	v := res.Get(field)
	switch v.Type {
	case gjson.True, gjson.False:
		return v.Bool()
	case gjson.Null:
		if v.Exists() {
			*fixes = append(*fixes, field+": null")
		}
		return def
	default:
		*fixes = append(*fixes, field+": not a boolean")
		return def
	}
}

// decodeLegacy reads the enumerated legacy fields and drops everything else.
func decodeLegacy(raw []byte) (out models.LegacySettings, fixes []string) {
	out = models.DefaultLegacySettings()
	if !gjson.ValidBytes(raw) || !gjson.ParseBytes(raw).IsObject() {
		return out, []string{"legacy settings: not a JSON object"}
	}
	root := gjson.ParseBytes(raw)

	for _, p := range models.AllPlatforms {
		if h := root.Get(string(p) + "AllowedHour"); h.Type == gjson.Number && h.Int() >= 0 && h.Int() <= 23 {
			out.SetAllowedHour(p, int(h.Int()))
		}
		if en := root.Get(enabledKey(p)); en.Type == gjson.True || en.Type == gjson.False {
			out.SetEnabled(p, en.Bool())
		}
	}
	if h := root.Get("allowedEndHour"); h.Type == gjson.Number && h.Int() >= 0 && h.Int() <= 23 {
		out.AllowedEndHour = int(h.Int())
	}
	out.TotalWeekendBlock = boolField(root, "totalWeekendBlock", out.TotalWeekendBlock, &fixes)
	out.VacationModeEnabled = boolField(root, "vacationModeEnabled", out.VacationModeEnabled, &fixes)
	if u := root.Get("redirectUrl"); u.Type == gjson.String {
		if normalized, err := models.NormalizeRedirectURL(u.String()); err == nil {
			out.RedirectURL = normalized
		} else {
			fixes = append(fixes, "redirectUrl: rejected")
		}
	}

	root.Get("visits").ForEach(func(k, v gjson.Result) bool {
		p := models.Platform(k.String())
		if !p.Valid() || v.Type != gjson.String {
			fixes = append(fixes, "visits."+k.String()+": dropped")
			return true
		}
		if _, err := time.Parse(models.VisitDateLayout, v.String()); err != nil {
			fixes = append(fixes, "visits."+k.String()+": bad date")
			return true
		}
		out.Visits[p] = v.String()
		return true
	})

	for _, item := range root.Get("usageHistory").Array() {
		entry, ok := decodeHistoryEntry(item)
		if !ok {
			fixes = append(fixes, "usageHistory: entry dropped")
			continue
		}
		out.UsageHistory = append(out.UsageHistory, entry)
	}
	return out, fixes
}

func decodeHistoryEntry(item gjson.Result) (models.HistoryEntry, bool) {
	ts, action := item.Get("timestamp"), item.Get("action")
	if ts.Type != gjson.Number || action.Type != gjson.String {
		return models.HistoryEntry{}, false
	}
	entry := models.HistoryEntry{
		Timestamp: ts.Int(),
		Action:    models.Action(action.String()),
		Reason:    item.Get("reason").String(),
		Platform:  models.Platform(item.Get("platform").String()),
		BlockType: models.BlockType(item.Get("blockType").String()),
	}
	if !entry.Action.Valid() {
		return models.HistoryEntry{}, false
	}
	return entry, true
}

func enabledKey(p models.Platform) string {
	s := string(p)
	if s == "" {
		return "enabledFor"
	}
	return "enabledFor" + strings.ToUpper(s[:1]) + s[1:]
}
