package rank

import (
	"testing"

	"github.com/hyperifyio/leadscout/internal/search"
)

var butwal = search.Query{Keywords: "warehouse jobs", Location: "Butwal, Nepal", Platforms: []search.PlatformID{search.Facebook, search.LinkedIn}}

func TestWeightedScorer_Components(t *testing.T) {
	s := NewScorer()
	cases := []struct {
		name string
		r    search.Result
		want float64
	}{
		{
			name: "keyword in title, full location phrase",
			r:    search.Result{Platform: search.LinkedIn, Title: "Warehouse Associate", Snippet: "Acme · Butwal, Nepal"},
			want: 35 + 3.5 + 25 + 5,
		},
		{
			name: "all keywords, partial location",
			r:    search.Result{Platform: search.Facebook, Title: "Warehouse jobs", Snippet: "Apply today in Butwal"},
			want: 70 + 7 + 12.5 + 3,
		},
		{
			name: "zero overlap keeps the prior",
			r:    search.Result{Platform: search.Facebook, Title: "Cook needed", Snippet: "Kathmandu"},
			want: 3,
		},
		{
			name: "diacritics and case fold",
			r:    search.Result{Platform: search.Instagram, Title: "WAREHOUSÉ", Snippet: "butwal nepal"},
			want: 35 + 3.5 + 25 + 2,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := s.Score(tc.r, butwal); got != tc.want {
				t.Fatalf("score=%v want %v", got, tc.want)
			}
		})
	}
}

func TestWeightedScorer_BoundedAndDeterministic(t *testing.T) {
	s := NewScorer()
	r := search.Result{Platform: search.LinkedIn, Title: "Warehouse jobs Butwal Nepal", Snippet: "warehouse jobs in Butwal, Nepal"}
	first := s.Score(r, butwal)
	if first > 100 || first < 0 {
		t.Fatalf("score out of range: %v", first)
	}
	if first != 100 {
		t.Fatalf("expected clamp to 100, got %v", first)
	}
	for i := 0; i < 5; i++ {
		if got := s.Score(r, butwal); got != first {
			t.Fatalf("non-deterministic score %v vs %v", got, first)
		}
	}
}

func TestWeightedScorer_PriorNeverDominates(t *testing.T) {
	s := NewScorer()
	weak := s.Score(search.Result{Platform: search.LinkedIn, Title: "Cook", Snippet: ""}, butwal)
	strong := s.Score(search.Result{Platform: search.Instagram, Title: "Warehouse", Snippet: ""}, butwal)
	if weak >= strong {
		t.Fatalf("prior outweighed keyword overlap: weak=%v strong=%v", weak, strong)
	}
}

func TestFilterFloor(t *testing.T) {
	in := []search.Result{{ID: "a", RelevanceScore: 0}, {ID: "b", RelevanceScore: 0.99}, {ID: "c", RelevanceScore: 1}}
	out := FilterFloor(in, DefaultMinScore)
	if len(out) != 1 || out[0].ID != "c" {
		t.Fatalf("unexpected: %+v", out)
	}
	if got := FilterFloor(in, 0); len(got) != 3 {
		t.Fatalf("zero floor should keep all, got %d", len(got))
	}
}

func TestSort_ScoreThenPriorityThenDiscovery(t *testing.T) {
	in := []search.Result{
		{ID: "instagram:1", Platform: search.Instagram, RelevanceScore: 50},
		{ID: "linkedin:1", Platform: search.LinkedIn, RelevanceScore: 50},
		{ID: "facebook:1", Platform: search.Facebook, RelevanceScore: 10},
		{ID: "linkedin:2", Platform: search.LinkedIn, RelevanceScore: 50},
		{ID: "facebook:2", Platform: search.Facebook, RelevanceScore: 90},
	}
	Sort(in, search.NewPriority(nil))
	want := []string{"facebook:2", "linkedin:1", "linkedin:2", "instagram:1", "facebook:1"}
	for i, id := range want {
		if in[i].ID != id {
			t.Fatalf("pos %d: got %s want %s (all=%v)", i, in[i].ID, id, in)
		}
	}
	for i := 1; i < len(in); i++ {
		if in[i].RelevanceScore > in[i-1].RelevanceScore {
			t.Fatalf("not non-increasing at %d", i)
		}
	}
}

func TestTruncate(t *testing.T) {
	in := make([]search.Result, 40)
	if got := Truncate(in, 5); len(got) != 5 {
		t.Fatalf("len=%d", len(got))
	}
	if got := Truncate(in, 0); len(got) != DefaultCap {
		t.Fatalf("default cap len=%d", len(got))
	}
	if got := Truncate(in[:3], 10); len(got) != 3 {
		t.Fatalf("short input len=%d", len(got))
	}
}

func TestScoreAll_DoesNotMutateInput(t *testing.T) {
	in := []search.Result{{Platform: search.LinkedIn, Title: "Warehouse"}}
	out := ScoreAll(in, butwal, nil)
	if in[0].RelevanceScore != 0 || out[0].RelevanceScore == 0 {
		t.Fatalf("in=%v out=%v", in[0].RelevanceScore, out[0].RelevanceScore)
	}
}
