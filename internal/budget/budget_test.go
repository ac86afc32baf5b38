package budget

import "testing"

func TestEstimateTokensFromChars(t *testing.T) {
	cases := []struct {
		in   int
		want int
	}{
		{0, 0},
		{1, 1},
		{3, 1},
		{4, 1},
		{5, 2},
		{400, 100},
	}
	for _, c := range cases {
		got := EstimateTokensFromChars(c.in)
		if got != c.want {
			t.Fatalf("EstimateTokensFromChars(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestEstimateTokens_CountsRunes(t *testing.T) {
	// 8 runes, 22 bytes.
	if got := EstimateTokens("बुटवल गो"); got != 2 {
		t.Fatalf("EstimateTokens = %d, want 2", got)
	}
}

func TestEstimatePromptTokens(t *testing.T) {
	// system(6)->2, user(12)->3, entries: 3->1, 4->1 => total 7
	got := EstimatePromptTokens("system", "user message", []string{"abc", "defg"})
	if got != 7 {
		t.Fatalf("EstimatePromptTokens() = %d, want %d", got, 7)
	}
}

func TestModelContextTokens(t *testing.T) {
	if ModelContextTokens("") != 8192 {
		t.Fatal("empty model should default to 8192")
	}
	if ModelContextTokens("GPT-4O-MINI") != 128_000 {
		t.Fatal("lookup should be case-insensitive")
	}
	if ModelContextTokens("claude-3-5-haiku-20241022") != 200_000 {
		t.Fatal("dated claude ids should match the family prefix")
	}
	if ModelContextTokens("mystery-128k") != 128_000 {
		t.Fatal("128k suffix heuristic")
	}
	if ModelContextTokens("tiny-local") != 8192 {
		t.Fatal("unknown model should default to 8192")
	}
}

func TestRemainingContext_ClampsAtZero(t *testing.T) {
	model := "gpt-4o"
	max := ModelContextTokens(model)
	if rem := RemainingContext(model, 2000, max/2); rem <= 0 {
		t.Fatalf("remaining should be positive, got %d", rem)
	}
	if rem := RemainingContext(model, 1, max); rem != 0 {
		t.Fatalf("remaining should clamp at 0 on overflow, got %d", rem)
	}
}

func TestHeadroomTokens(t *testing.T) {
	if HeadroomTokens("") != 512 {
		t.Fatalf("default model headroom should floor to 512")
	}
	if HeadroomTokens("gpt-4o") < 6400 {
		t.Fatalf("gpt-4o headroom = %d", HeadroomTokens("gpt-4o"))
	}
}

func TestInputBudget(t *testing.T) {
	if got := InputBudget("gpt-4o", 1500, 300, 100); got != 1500 {
		t.Fatalf("large model should keep the ceiling, got %d", got)
	}
	// 4096 - (300 + 512) - 100 = 3184
	if got := InputBudget("gpt-oss-20b", 5000, 300, 100); got != 3184 {
		t.Fatalf("small model should shrink the budget, got %d", got)
	}
	if got := InputBudget("gpt-oss-20b", 0, 300, 100); got != 3184 {
		t.Fatalf("zero ceiling means model-bounded, got %d", got)
	}
}
