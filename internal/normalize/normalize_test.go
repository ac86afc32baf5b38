package normalize

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/hyperifyio/leadscout/internal/platform"
	"github.com/hyperifyio/leadscout/internal/search"
)

func TestNormalize_SearxHit(t *testing.T) {
	r, err := Normalize(platform.RawPosting{Platform: search.Facebook, Payload: platform.SearxHit{
		Title:   "Warehouse staff wanted | Facebook",
		URL:     "https://WWW.facebook.com/groups/butwal/posts/42/?fbclid=abc#comments",
		Content: "<b>Hiring</b> packers &amp; loaders in Butwal",
	}})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if r.Title != "Warehouse staff wanted" {
		t.Fatalf("title=%q", r.Title)
	}
	if r.Snippet != "Hiring packers & loaders in Butwal" {
		t.Fatalf("snippet=%q", r.Snippet)
	}
	if r.URL != "https://www.facebook.com/groups/butwal/posts/42/" {
		t.Fatalf("url=%q", r.URL)
	}
	if !strings.HasPrefix(r.ID, "facebook:") || len(r.ID) != len("facebook:")+16 {
		t.Fatalf("id=%q", r.ID)
	}
	again, _ := Normalize(platform.RawPosting{Platform: search.Facebook, Payload: platform.SearxHit{Title: "x", URL: "https://www.facebook.com/groups/butwal/posts/42/"}})
	if again.ID != r.ID {
		t.Fatalf("id not stable across tracking params: %q vs %q", again.ID, r.ID)
	}
}

func TestNormalize_LinkedInCardUsesNativeID(t *testing.T) {
	r, err := Normalize(platform.RawPosting{Platform: search.LinkedIn, Payload: platform.LinkedInCard{
		JobID: "3901", Title: "Warehouse Associate", Company: "Acme", Location: "Butwal, Nepal",
		URL: "https://np.linkedin.com/jobs/view/3901?refId=x&trackingId=y",
	}})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if r.ID != "linkedin:3901" {
		t.Fatalf("id=%q", r.ID)
	}
	if r.Snippet != "Acme · Butwal, Nepal" {
		t.Fatalf("snippet=%q", r.Snippet)
	}
	if r.URL != "https://np.linkedin.com/jobs/view/3901" {
		t.Fatalf("url=%q", r.URL)
	}
}

func TestNormalize_InstagramCaption(t *testing.T) {
	r, err := Normalize(platform.RawPosting{Platform: search.Instagram, Payload: platform.SearxHit{
		Title: `Butwal Jobs on Instagram: "We are hiring warehouse helpers"`,
		URL:   "https://www.instagram.com/p/Cxyz/?igshid=1",
	}})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if r.Title != "We are hiring warehouse helpers" {
		t.Fatalf("title=%q", r.Title)
	}
}

func TestNormalize_Malformed(t *testing.T) {
	cases := []platform.RawPosting{
		{Platform: search.Facebook, Payload: platform.SearxHit{Title: "x", URL: "/relative"}},
		{Platform: search.Facebook, Payload: platform.SearxHit{Title: "x", URL: "ftp://host/file"}},
		{Platform: search.Facebook, Payload: platform.SearxHit{Title: " ", URL: "https://facebook.com/a"}},
		{Platform: search.Facebook, Payload: "unknown payload"},
		{Platform: "", Payload: platform.SearxHit{Title: "x", URL: "https://facebook.com/a"}},
	}
	for i, raw := range cases {
		if _, err := Normalize(raw); !errors.Is(err, ErrMalformed) {
			t.Fatalf("case %d: expected ErrMalformed, got %v", i, err)
		}
	}
}

func TestNormalize_EmptyTitleFallsBackToSnippet(t *testing.T) {
	r, err := Normalize(platform.RawPosting{Platform: "jobsnepal", Payload: platform.FeedItem{
		GUID: "g-1", Link: "https://jobs.example.com/1", Description: "Loader needed",
	}})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if r.Title != "Loader needed" || !strings.HasPrefix(r.ID, "jobsnepal:") {
		t.Fatalf("unexpected: %+v", r)
	}
}

func TestNormalize_TruncatesLongFields(t *testing.T) {
	long := strings.Repeat("word ", 300)
	r, err := Normalize(platform.RawPosting{Platform: search.Facebook, Payload: platform.FixturePosting{
		ID: "1", Title: long, URL: "https://facebook.com/a", Snippet: long,
	}})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if n := utf8.RuneCountInString(r.Title); n > MaxTitleRunes {
		t.Fatalf("title has %d runes", n)
	}
	if n := utf8.RuneCountInString(r.Snippet); n > MaxSnippetRunes {
		t.Fatalf("snippet has %d runes", n)
	}
	if !strings.HasSuffix(r.Snippet, "…") {
		t.Fatalf("expected ellipsis: %q", r.Snippet[len(r.Snippet)-10:])
	}
}

func TestNormalizeAll_DropsMalformed(t *testing.T) {
	raws := []platform.RawPosting{
		{Platform: search.Facebook, Payload: platform.FixturePosting{ID: "1", Title: "ok", URL: "https://facebook.com/1"}},
		{Platform: search.Facebook, Payload: platform.FixturePosting{ID: "2", Title: "bad", URL: "not a url"}},
		{Platform: search.Facebook, Payload: platform.FixturePosting{ID: "3", Title: "ok too", URL: "https://facebook.com/3"}},
	}
	out := NormalizeAll(raws, zerolog.Nop())
	if len(out) != 2 || out[0].ID != "facebook:1" || out[1].ID != "facebook:3" {
		t.Fatalf("unexpected: %+v", out)
	}
}
