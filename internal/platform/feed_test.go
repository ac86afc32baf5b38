package platform

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

const jobsRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>Jobs</title>
<item><guid>job-1</guid><title>Warehouse loader needed</title><link>https://jobs.example.com/1</link><description>Butwal depot</description><pubDate>Mon, 06 May 2024 10:00:00 +0000</pubDate></item>
<item><guid>job-2</guid><title>Software engineer</title><link>https://jobs.example.com/2</link><description>Remote</description></item>
<item><guid>job-3</guid><title>Night shift</title><link>https://jobs.example.com/3</link><description>Warehouse in Bhairahawa</description></item>
</channel></rss>`

func TestFeedAdapter_FiltersByKeywordWhenTemplateHasNoPlaceholder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(jobsRSS))
	}))
	defer srv.Close()

	a := &FeedAdapter{ID: "jobsnepal", URLTemplate: srv.URL + "/feed.xml", HTTPClient: srv.Client()}
	got, err := a.Search(context.Background(), testQuery(10))
	if err != nil {
		t.Fatalf("search error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 warehouse items, got %d", len(got))
	}
	first := got[0].Payload.(FeedItem)
	if first.GUID != "job-1" || first.Published == nil {
		t.Fatalf("unexpected first item: %+v", first)
	}
	if got[0].Platform != "jobsnepal" {
		t.Fatalf("unexpected platform %q", got[0].Platform)
	}
}

func TestFeedAdapter_ExpandsPlaceholders(t *testing.T) {
	var gotKeywords, gotLocation string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKeywords = r.URL.Query().Get("q")
		gotLocation = r.URL.Query().Get("l")
		_, _ = w.Write([]byte(jobsRSS))
	}))
	defer srv.Close()

	a := &FeedAdapter{ID: "jobsnepal", URLTemplate: srv.URL + "/rss?q={keywords}&l={location}", HTTPClient: srv.Client()}
	got, err := a.Search(context.Background(), testQuery(10))
	if err != nil {
		t.Fatalf("search error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected unfiltered feed of 3, got %d", len(got))
	}
	if gotKeywords != "warehouse jobs" || gotLocation != "Butwal, Nepal" {
		t.Fatalf("placeholders not expanded: q=%q l=%q", gotKeywords, gotLocation)
	}
}

func TestFeedAdapter_MalformedFeedIsPermanent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not a feed"))
	}))
	defer srv.Close()
	a := &FeedAdapter{ID: "jobsnepal", URLTemplate: srv.URL, HTTPClient: srv.Client()}
	_, err := a.Search(context.Background(), testQuery(10))
	if err == nil || IsTransient(err) {
		t.Fatalf("expected permanent error, got %v", err)
	}
}
