package resolver

import (
	"strings"

	"focus-guard/agent/internal/models"
)

// Resolution is the gated site a hostname belongs to.
type Resolution struct {
	Platform models.Platform
	Category models.CategoryKey
	Site     models.SiteEntry
}

// Resolve matches hostname against the enabled site entries of cfg. A host
// matches a domain when equal to it or a subdomain of it. The longest
// matching domain wins so "news.example.com" beats "example.com". A match in
// an enabled category beats any match in a disabled one, so a domain listed
// in both is gated. Hosts known only to disabled categories still resolve and
// the decision engine allows them.
func Resolve(cfg models.SiteConfiguration, hostname string) (Resolution, bool) {
	host := models.NormalizeDomain(hostname)
	if host == "" {
		return Resolution{}, false
	}

	var best Resolution
	bestEnabled, found := false, false
	for _, key := range models.AllCategories {
		cat := cfg.Category(key)
		for _, site := range cat.Sites {
			if !site.IsEnabled() || !matches(host, site.Domain) {
				continue
			}
			if found && !better(cat.Enabled, site.Domain, bestEnabled, best.Site.Domain) {
				continue
			}
			best = Resolution{Platform: models.PlatformFor(key, site.Domain), Category: key, Site: site}
			bestEnabled, found = cat.Enabled, true
		}
	}
	return best, found
}

func better(enabled bool, domain string, bestEnabled bool, bestDomain string) bool {
	if enabled != bestEnabled {
		return enabled
	}
	return len(domain) > len(bestDomain)
}

func matches(host, domain string) bool {
	if domain == "" {
		return false
	}
	return host == domain || strings.HasSuffix(host, "."+domain)
}
