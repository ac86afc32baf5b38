package normalize

import (
	"errors"
	"net/url"
	"strings"
)

// trackingParams are stripped from every lead URL.
var trackingParams = []string{
	"utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content", "utm_id",
	"gclid", "fbclid", "igshid", "igsh", "mibextid", "trk", "refId", "trackingId", "position", "pageNum",
	"ref", "__tn__", "rdid", "sfnsn",
}

// CanonicalURL validates that raw is an absolute http(s) URL and returns it
// with a lower-case host, no fragment, no default port and no tracking
// parameters.
func CanonicalURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", errors.New("url is not absolute http(s)")
	}
	if u.Host == "" {
		return "", errors.New("url has no host")
	}
	u.Scheme = scheme
	u.Fragment = ""
	u.RawFragment = ""
	u.Host = strings.ToLower(u.Host)
	if (scheme == "http" && u.Port() == "80") || (scheme == "https" && u.Port() == "443") {
		u.Host = u.Hostname()
	}
	u.RawQuery = stripTracking(u.Query()).Encode()
	return u.String(), nil
}

func stripTracking(q url.Values) url.Values {
	for _, p := range trackingParams {
		q.Del(p)
	}
	return q
}

// Fingerprint identifies the page behind a URL independent of scheme,
// mobile/www host prefixes, query string and trailing slash. Many distinct
// posts share a page (facebook.com/permalink.php), so a Fingerprint alone
// never identifies a lead; pair it with the title or use ResourceKey.
func Fingerprint(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	for _, prefix := range []string{"www.", "m.", "mobile.", "web."} {
		if strings.HasPrefix(host, prefix) {
			host = strings.TrimPrefix(host, prefix)
			break
		}
	}
	// Paths keep their case: Instagram shortcodes are case-sensitive.
	path := strings.TrimRight(u.EscapedPath(), "/")
	return host + path
}

// ResourceKey is Fingerprint plus the non-tracking query parameters in
// sorted order. Facebook permalink.php?story_fbid=...&id=... and
// photo.php?fbid=... carry their identity in the query.
func ResourceKey(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return ""
	}
	fp := Fingerprint(raw)
	if q := stripTracking(u.Query()).Encode(); q != "" {
		return fp + "?" + q
	}
	return fp
}
