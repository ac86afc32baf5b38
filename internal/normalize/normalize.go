package normalize

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/hyperifyio/leadscout/internal/platform"
	"github.com/hyperifyio/leadscout/internal/search"
)

const (
	MaxTitleRunes   = 200
	MaxSnippetRunes = 500
)

// ErrMalformed marks a posting that cannot be turned into a Result.
var ErrMalformed = errors.New("malformed posting")

var (
	instagramTitleRe = regexp.MustCompile(`(?i)^.*? on instagram:\s*["“](.*?)["”]?\s*$`)
	facebookSuffixRe = regexp.MustCompile(`(?i)\s*[|\-–]\s*facebook\s*$`)
	linkedinSuffixRe = regexp.MustCompile(`(?i)\s*[|\-–]\s*linkedin\s*$`)
)

// Normalize converts one raw posting into the canonical Result. The score is
// left at zero for the ranker.
func Normalize(raw platform.RawPosting) (search.Result, error) {
	if !raw.Platform.Valid() {
		return search.Result{}, fmt.Errorf("%w: invalid platform %q", ErrMalformed, raw.Platform)
	}
	var (
		nativeID, title, rawURL, snippet string
	)
	switch p := raw.Payload.(type) {
	case platform.SearxHit:
		title, rawURL, snippet = p.Title, p.URL, p.Content
	case platform.LinkedInCard:
		nativeID, title, rawURL = p.JobID, p.Title, p.URL
		snippet = joinNonEmpty(" · ", p.Company, p.Location)
	case platform.FeedItem:
		title, rawURL, snippet = p.Title, p.Link, p.Description
		if g := strings.TrimSpace(p.GUID); g != "" {
			nativeID = shortHash(g)
		}
	case platform.FixturePosting:
		nativeID, title, rawURL, snippet = p.ID, p.Title, p.URL, p.Snippet
	default:
		return search.Result{}, fmt.Errorf("%w: unsupported payload %T", ErrMalformed, raw.Payload)
	}

	canon, err := CanonicalURL(rawURL)
	if err != nil {
		return search.Result{}, fmt.Errorf("%w: url %q: %v", ErrMalformed, rawURL, err)
	}
	title = cleanTitle(raw.Platform, StripHTML(title))
	snippet = StripHTML(snippet)
	if title == "" {
		// A lead without a title is still useful if the snippet says something.
		title = snippet
	}
	if title == "" {
		return search.Result{}, fmt.Errorf("%w: empty title and snippet for %s", ErrMalformed, canon)
	}

	nativeID = strings.TrimSpace(nativeID)
	if nativeID == "" {
		nativeID = shortHash(canon)
	}
	return search.Result{
		ID:       string(raw.Platform) + ":" + nativeID,
		Platform: raw.Platform,
		Title:    Truncate(title, MaxTitleRunes),
		URL:      canon,
		Snippet:  Truncate(snippet, MaxSnippetRunes),
	}, nil
}

// NormalizeAll normalizes a batch, dropping and logging malformed postings.
func NormalizeAll(raws []platform.RawPosting, logger zerolog.Logger) []search.Result {
	out := make([]search.Result, 0, len(raws))
	for i, raw := range raws {
		r, err := Normalize(raw)
		if err != nil {
			logger.Warn().Err(err).Str("platform", string(raw.Platform)).Int("index", i).Msg("dropping malformed posting")
			continue
		}
		out = append(out, r)
	}
	return out
}

func cleanTitle(p search.PlatformID, title string) string {
	switch p {
	case search.Instagram:
		if m := instagramTitleRe.FindStringSubmatch(title); m != nil && strings.TrimSpace(m[1]) != "" {
			title = m[1]
		}
	case search.Facebook:
		title = facebookSuffixRe.ReplaceAllString(title, "")
	case search.LinkedIn:
		title = linkedinSuffixRe.ReplaceAllString(title, "")
	}
	return strings.TrimSpace(title)
}

func shortHash(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:8])
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
