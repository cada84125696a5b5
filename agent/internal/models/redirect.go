package models

import (
	"net/url"
	"strings"
)

var forbiddenSchemes = []string{"javascript:", "data:", "vbscript:", "file:"}

// NormalizeRedirectURL validates the redirect target used when the user
// leaves a blocked page. A missing scheme is completed with https.
func NormalizeRedirectURL(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", invalid("redirectUrl", "must not be empty")
	}
	lower := strings.ToLower(s)
	for _, bad := range forbiddenSchemes {
		if strings.Contains(lower, bad) {
			return "", invalid("redirectUrl", "contains forbidden scheme "+strings.TrimSuffix(bad, ":"))
		}
	}
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		if strings.Contains(lower, "://") {
			return "", invalid("redirectUrl", "scheme must be http or https")
		}
		s = "https://" + s
	}
	u, err := url.Parse(s)
	if err != nil {
		return "", invalid("redirectUrl", err.Error())
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", invalid("redirectUrl", "scheme must be http or https")
	}
	if u.Host == "" {
		return "", invalid("redirectUrl", "missing host")
	}
	return u.String(), nil
}
