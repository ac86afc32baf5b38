package platform

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/hyperifyio/leadscout/internal/search"
)

const defaultLinkedInBaseURL = "https://www.linkedin.com"

// linkedInPageSize is how many cards the guest listing returns per page.
const linkedInPageSize = 10

// LinkedInAdapter reads the public (logged-out) job search listing. The
// endpoint returns an HTML fragment of job cards, paged by "start".
type LinkedInAdapter struct {
	BaseURL    string
	UserAgent  string
	HTTPClient *http.Client
}

func (l *LinkedInAdapter) Platform() search.PlatformID { return search.LinkedIn }

func (l *LinkedInAdapter) Search(ctx context.Context, q search.Query) ([]RawPosting, error) {
	limit := q.Limit(0)
	out := make([]RawPosting, 0, limit)
	seen := map[string]struct{}{}
	for start := 0; len(out) < limit; start += linkedInPageSize {
		body, err := get(ctx, l.HTTPClient, l.pageURL(q, start), l.UserAgent, "text/html")
		if err != nil {
			// A later page failing still leaves usable cards from earlier ones.
			if len(out) > 0 {
				break
			}
			return nil, Classify(search.LinkedIn, err)
		}
		cards, err := parseLinkedInCards(body)
		if err != nil {
			return nil, NewPermanent(search.LinkedIn, fmt.Errorf("parse job cards: %w", err))
		}
		added := 0
		for _, c := range cards {
			key := c.JobID
			if key == "" {
				key = c.URL
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, RawPosting{Platform: search.LinkedIn, Payload: c})
			added++
			if len(out) >= limit {
				break
			}
		}
		if len(cards) < linkedInPageSize || added == 0 {
			break
		}
	}
	return out, nil
}

func (l *LinkedInAdapter) pageURL(q search.Query, start int) string {
	base := strings.TrimRight(l.BaseURL, "/")
	if base == "" {
		base = defaultLinkedInBaseURL
	}
	params := url.Values{}
	params.Set("keywords", q.Keywords)
	params.Set("location", q.Location)
	if q.RadiusKm > 0 {
		params.Set("distance", strconv.Itoa(kmToMiles(q.RadiusKm)))
	}
	params.Set("start", strconv.Itoa(start))
	return base + "/jobs-guest/jobs/api/seeMoreJobPostings/search?" + params.Encode()
}

// kmToMiles converts the query radius to the miles LinkedIn expects.
func kmToMiles(km float64) int {
	m := int(math.Round(km * 0.621371))
	if m < 1 {
		m = 1
	}
	return m
}

func parseLinkedInCards(body []byte) ([]LinkedInCard, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	var cards []LinkedInCard
	doc.Find("div.base-search-card").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Find("a.base-card__full-link").First().Attr("href")
		listed, _ := s.Find("time").First().Attr("datetime")
		cards = append(cards, LinkedInCard{
			JobID:    jobIDFromURN(s.AttrOr("data-entity-urn", "")),
			Title:    strings.TrimSpace(s.Find(".base-search-card__title").First().Text()),
			Company:  strings.TrimSpace(s.Find(".base-search-card__subtitle").First().Text()),
			Location: strings.TrimSpace(s.Find(".job-search-card__location").First().Text()),
			URL:      strings.TrimSpace(href),
			ListedAt: strings.TrimSpace(listed),
		})
	})
	return cards, nil
}

// jobIDFromURN extracts 123 from "urn:li:jobPosting:123".
func jobIDFromURN(urn string) string {
	urn = strings.TrimSpace(urn)
	if i := strings.LastIndexByte(urn, ':'); i >= 0 {
		return urn[i+1:]
	}
	return urn
}
