package platform

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/hyperifyio/leadscout/internal/search"
)

// FeedAdapter pulls leads from an RSS or Atom job feed. URLTemplate may
// contain {keywords} and {location} placeholders; when it has no {keywords}
// placeholder the feed is filtered locally by keyword.
type FeedAdapter struct {
	ID          search.PlatformID
	URLTemplate string
	UserAgent   string
	HTTPClient  *http.Client
}

func (f *FeedAdapter) Platform() search.PlatformID { return f.ID }

func (f *FeedAdapter) Search(ctx context.Context, q search.Query) ([]RawPosting, error) {
	if strings.TrimSpace(f.URLTemplate) == "" {
		return nil, NewPermanent(f.ID, errors.New("feed url template is empty"))
	}
	limit := q.Limit(0)
	body, err := get(ctx, f.HTTPClient, f.expand(q), f.UserAgent, "application/rss+xml, application/atom+xml, application/xml;q=0.9")
	if err != nil {
		return nil, Classify(f.ID, err)
	}
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, NewPermanent(f.ID, fmt.Errorf("parse feed: %w", err))
	}
	filter := !strings.Contains(f.URLTemplate, "{keywords}")
	keywords := strings.Fields(strings.ToLower(q.Keywords))
	out := make([]RawPosting, 0, limit)
	for _, it := range feed.Items {
		if it == nil {
			continue
		}
		if filter && !matchesAnyKeyword(strings.ToLower(it.Title+" "+it.Description), keywords) {
			continue
		}
		item := FeedItem{
			GUID:        it.GUID,
			Title:       it.Title,
			Link:        it.Link,
			Description: it.Description,
		}
		if it.PublishedParsed != nil {
			item.Published = it.PublishedParsed
		} else if it.UpdatedParsed != nil {
			item.Published = it.UpdatedParsed
		}
		out = append(out, RawPosting{Platform: f.ID, Payload: item})
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (f *FeedAdapter) expand(q search.Query) string {
	r := strings.NewReplacer(
		"{keywords}", url.QueryEscape(q.Keywords),
		"{location}", url.QueryEscape(q.Location),
	)
	return r.Replace(f.URLTemplate)
}

func matchesAnyKeyword(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}
