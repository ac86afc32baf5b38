package platform

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/hyperifyio/leadscout/internal/search"
)

// SearxAdapter searches one social site through a SearxNG instance by
// scoping the query with a site: operator. It backs platforms that have no
// public search API of their own, such as Facebook groups and Instagram.
type SearxAdapter struct {
	ID         search.PlatformID
	Site       string // e.g. "facebook.com"
	BaseURL    string
	APIKey     string // optional
	UserAgent  string // optional
	HTTPClient *http.Client
}

// NewFacebookAdapter returns a SearxNG adapter scoped to facebook.com.
func NewFacebookAdapter(baseURL, apiKey string, hc *http.Client) *SearxAdapter {
	return &SearxAdapter{ID: search.Facebook, Site: "facebook.com", BaseURL: baseURL, APIKey: apiKey, HTTPClient: hc}
}

// NewInstagramAdapter returns a SearxNG adapter scoped to instagram.com.
func NewInstagramAdapter(baseURL, apiKey string, hc *http.Client) *SearxAdapter {
	return &SearxAdapter{ID: search.Instagram, Site: "instagram.com", BaseURL: baseURL, APIKey: apiKey, HTTPClient: hc}
}

func (s *SearxAdapter) Platform() search.PlatformID { return s.ID }

func (s *SearxAdapter) Search(ctx context.Context, q search.Query) ([]RawPosting, error) {
	if s.BaseURL == "" {
		return nil, NewPermanent(s.ID, errors.New("missing searxng base url"))
	}
	limit := q.Limit(0)
	u, err := url.Parse(s.BaseURL)
	if err != nil {
		return nil, NewPermanent(s.ID, err)
	}
	if !strings.HasSuffix(u.Path, "/search") {
		u.Path = strings.TrimRight(u.Path, "/") + "/search"
	}
	params := u.Query()
	params.Set("q", s.queryText(q))
	params.Set("format", "json")
	params.Set("language", "auto")
	params.Set("safesearch", "1")
	params.Set("categories", "general")
	params.Set("count", strconv.Itoa(limit))
	if s.APIKey != "" {
		params.Set("apikey", s.APIKey)
	}
	u.RawQuery = params.Encode()

	body, err := get(ctx, s.HTTPClient, u.String(), s.UserAgent, "application/json")
	if err != nil {
		return nil, Classify(s.ID, err)
	}
	var sr searxResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, NewPermanent(s.ID, fmt.Errorf("decode searxng response: %w", err))
	}
	out := make([]RawPosting, 0, len(sr.Results))
	for _, r := range sr.Results {
		if strings.TrimSpace(r.URL) == "" {
			continue
		}
		if s.Site != "" && !hostMatches(r.URL, s.Site) {
			continue
		}
		out = append(out, RawPosting{Platform: s.ID, Payload: SearxHit{
			Title:         r.Title,
			URL:           r.URL,
			Content:       r.Content,
			Engine:        r.Engine,
			PublishedDate: r.PublishedDate,
		}})
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (s *SearxAdapter) queryText(q search.Query) string {
	var sb strings.Builder
	if s.Site != "" {
		sb.WriteString("site:")
		sb.WriteString(s.Site)
		sb.WriteString(" ")
	}
	sb.WriteString(q.Keywords)
	sb.WriteString(" ")
	sb.WriteString(q.Location)
	if q.RadiusKm > 0 {
		sb.WriteString(fmt.Sprintf(" within %d km", int(q.RadiusKm)))
	}
	return sb.String()
}

// hostMatches reports whether rawURL's host is site or one of its subdomains.
func hostMatches(rawURL, site string) bool {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return false
	}
	h := strings.ToLower(u.Hostname())
	site = strings.ToLower(site)
	return h == site || strings.HasSuffix(h, "."+site)
}

type searxResponse struct {
	Results []struct {
		Title         string `json:"title"`
		URL           string `json:"url"`
		Content       string `json:"content"`
		Engine        string `json:"engine"`
		PublishedDate string `json:"publishedDate"`
	} `json:"results"`
}
