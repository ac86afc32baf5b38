// Command platform-stub serves canned upstream responses for local runs and
// compose tests: a SearxNG JSON search, the LinkedIn guest job listing, an
// RSS job feed and an OpenAI-compatible chat endpoint.
package main

import (
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	model := os.Getenv("MODEL_ID")
	if strings.TrimSpace(model) == "" {
		model = "test-model"
	}
	addr := os.Getenv("ADDR")
	if strings.TrimSpace(addr) == "" {
		addr = ":8081"
	}

	log.Info().Str("addr", addr).Str("model", model).Msg("platform-stub listening")
	srv := &http.Server{Addr: addr, Handler: newMux(model), ReadHeaderTimeout: 5 * time.Second}
	if err := srv.ListenAndServe(); err != nil {
		log.Fatal().Err(err).Msg("serve")
	}
}

func newMux(model string) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/search", handleSearx)
	mux.HandleFunc("/jobs-guest/jobs/api/seeMoreJobPostings/search", handleLinkedIn)
	mux.HandleFunc("/feed.xml", handleFeed)
	mux.HandleFunc("/v1/models", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"id": model, "object": "model"}},
		})
	})
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		handleChat(w, r, model)
	})
	return mux
}

// handleSearx answers like SearxNG with format=json. The site: operator in q
// picks which social network the hits belong to.
func handleSearx(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	terms := strings.TrimSpace(q)
	site := ""
	if strings.HasPrefix(terms, "site:") {
		site, terms, _ = strings.Cut(strings.TrimPrefix(terms, "site:"), " ")
	}
	var results []map[string]any
	switch site {
	case "facebook.com":
		results = []map[string]any{
			{"title": "Warehouse helper needed in Butwal | Facebook", "url": "https://www.facebook.com/groups/butwaljobs/posts/101/?ref=share", "content": "Job vacancy: " + terms, "engine": "duckduckgo"},
			{"title": "Hiring drivers - Butwal Jobs", "url": "https://m.facebook.com/groups/butwaljobs/posts/102", "content": "Driver job vacancy near Butwal", "engine": "bing"},
		}
	case "instagram.com":
		results = []map[string]any{
			{"title": "Butwal Hiring on Instagram: \"Cashier wanted, apply today\"", "url": "https://www.instagram.com/p/Cxyz123/", "content": "job vacancy Butwal", "engine": "duckduckgo"},
		}
	}
	// Off-site noise the adapter must filter out.
	results = append(results, map[string]any{"title": "Unrelated", "url": "https://example.com/jobs", "content": terms})
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"query": q, "results": results})
}

// handleLinkedIn returns one page of guest job cards; later pages are empty.
func handleLinkedIn(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if r.URL.Query().Get("start") != "0" {
		return
	}
	kw := r.URL.Query().Get("keywords")
	loc := r.URL.Query().Get("location")
	cards := []struct{ id, title, company string }{
		{"9001", "Warehouse Supervisor", "Lumbini Logistics"},
		{"9002", "Store Keeper", "Butwal Traders"},
	}
	var b strings.Builder
	for _, c := range cards {
		link := "https://np.linkedin.com/jobs/view/" + url.PathEscape(strings.ToLower(strings.ReplaceAll(c.title, " ", "-"))) + "-" + c.id + "?trk=public_jobs"
		fmt.Fprintf(&b, `<li><div class="base-card base-search-card" data-entity-urn="urn:li:jobPosting:%s">
<a class="base-card__full-link" href="%s"></a>
<h3 class="base-search-card__title">%s</h3>
<h4 class="base-search-card__subtitle">%s</h4>
<span class="job-search-card__location">%s</span>
<time datetime="2024-05-01">1 week ago</time>
<p>%s</p>
</div></li>
`, c.id, html.EscapeString(link), html.EscapeString(c.title), html.EscapeString(c.company), html.EscapeString(loc), html.EscapeString(kw))
	}
	_, _ = w.Write([]byte(b.String()))
}

func handleFeed(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/rss+xml")
	_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel>
<title>Nepal job feed</title>
<link>https://jobs.example.com</link>
<item>
  <guid>jobs-example-501</guid>
  <title>Warehouse Assistant (Butwal)</title>
  <link>https://jobs.example.com/jobs/501?utm_source=rss</link>
  <description>&lt;p&gt;Full-time warehouse job vacancy in Butwal&lt;/p&gt;</description>
  <pubDate>Wed, 01 May 2024 10:00:00 GMT</pubDate>
</item>
<item>
  <guid>jobs-example-502</guid>
  <title>Accountant</title>
  <link>https://jobs.example.com/jobs/502</link>
  <description>Kathmandu office</description>
</item>
</channel></rss>`))
}

func handleChat(w http.ResponseWriter, r *http.Request, model string) {
	defer r.Body.Close()
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	user := ""
	for _, m := range req.Messages {
		if m.Role == "user" {
			user = m.Content
		}
	}
	if !strings.Contains(user, "job leads") {
		http.Error(w, "unexpected prompt", http.StatusBadRequest)
		return
	}
	leads := 0
	for _, line := range strings.Split(user, "\n") {
		line = strings.TrimSpace(line)
		if len(line) > 2 && line[0] >= '0' && line[0] <= '9' && strings.Contains(line, ". [") {
			leads++
		}
	}
	content := fmt.Sprintf("Found %d leads. Warehouse roles in Butwal dominate; apply through the linked posts.", leads)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":     "chatcmpl-stub",
		"object": "chat.completion",
		"model":  model,
		"choices": []map[string]any{
			{"index": 0, "message": map[string]string{"role": "assistant", "content": content}, "finish_reason": "stop"},
		},
		"usage": map[string]int{"prompt_tokens": len(user) / 4, "completion_tokens": len(content) / 4, "total_tokens": (len(user) + len(content)) / 4},
	})
}
