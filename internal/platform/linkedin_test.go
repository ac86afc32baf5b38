package platform

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
)

func linkedInCardHTML(id int, title string) string {
	return fmt.Sprintf(`<li><div class="base-card base-search-card job-search-card" data-entity-urn="urn:li:jobPosting:%d">
  <a class="base-card__full-link" href="https://np.linkedin.com/jobs/view/%d?refId=abc&amp;trackingId=xyz"></a>
  <div class="base-search-card__info">
    <h3 class="base-search-card__title">  %s  </h3>
    <h4 class="base-search-card__subtitle"><a>Acme Logistics</a></h4>
    <span class="job-search-card__location">Butwal, Lumbini, Nepal</span>
    <time class="job-search-card__listdate" datetime="2024-05-01">1 week ago</time>
  </div>
</div></li>`, id, id, title)
}

func TestLinkedInAdapter_ParsesCardsAndPages(t *testing.T) {
	var (
		mu     sync.Mutex
		starts []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/jobs-guest/jobs/api/seeMoreJobPostings/search") {
			http.NotFound(w, r)
			return
		}
		start, _ := strconv.Atoi(r.URL.Query().Get("start"))
		mu.Lock()
		starts = append(starts, r.URL.Query().Get("start"))
		mu.Unlock()
		var sb strings.Builder
		n := linkedInPageSize
		if start > 0 {
			n = 3
		}
		for i := 0; i < n; i++ {
			sb.WriteString(linkedInCardHTML(1000+start+i, "Warehouse Associate"))
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(sb.String()))
	}))
	defer srv.Close()

	a := &LinkedInAdapter{BaseURL: srv.URL, HTTPClient: srv.Client()}
	got, err := a.Search(context.Background(), testQuery(12))
	if err != nil {
		t.Fatalf("search error: %v", err)
	}
	if len(got) != 12 {
		t.Fatalf("expected 12 cards, got %d", len(got))
	}
	mu.Lock()
	defer mu.Unlock()
	if len(starts) != 2 || starts[0] != "0" || starts[1] != "10" {
		t.Fatalf("unexpected paging: %v", starts)
	}
	card := got[0].Payload.(LinkedInCard)
	if card.JobID != "1000" || card.Title != "Warehouse Associate" || card.Company != "Acme Logistics" {
		t.Fatalf("unexpected card: %+v", card)
	}
	if card.Location != "Butwal, Lumbini, Nepal" || card.ListedAt != "2024-05-01" {
		t.Fatalf("unexpected card metadata: %+v", card)
	}
	if !strings.HasPrefix(card.URL, "https://np.linkedin.com/jobs/view/1000") {
		t.Fatalf("unexpected url: %q", card.URL)
	}
}

func TestLinkedInAdapter_EmptyListingIsSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(""))
	}))
	defer srv.Close()
	a := &LinkedInAdapter{BaseURL: srv.URL, HTTPClient: srv.Client()}
	got, err := a.Search(context.Background(), testQuery(5))
	if err != nil || len(got) != 0 {
		t.Fatalf("expected empty success, got %d err=%v", len(got), err)
	}
}

func TestLinkedInAdapter_RateLimitedIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()
	a := &LinkedInAdapter{BaseURL: srv.URL, HTTPClient: srv.Client()}
	if _, err := a.Search(context.Background(), testQuery(5)); !IsTransient(err) {
		t.Fatalf("expected transient, got %v", err)
	}
}

func TestKmToMiles(t *testing.T) {
	if got := kmToMiles(40); got != 25 {
		t.Fatalf("40km -> %d miles", got)
	}
	if got := kmToMiles(1); got != 1 {
		t.Fatalf("1km -> %d miles", got)
	}
}
