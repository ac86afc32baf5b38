package app

import (
	"strconv"
	"strings"
)

// appendReproFooter appends a deterministic footer recording the settings
// that shaped the report: model, LLM base URL, result count and whether the
// digest cache was active. An empty model means no digest was produced.
func appendReproFooter(markdown string, runID string, model string, baseURL string, numResults int, digestCache bool) string {
	var b strings.Builder
	b.WriteString(markdown)
	b.WriteString("\n\n---\n")
	b.WriteString("Reproducibility: ")
	b.WriteString("run_id=")
	b.WriteString(strings.TrimSpace(runID))
	b.WriteString("; model=")
	if m := strings.TrimSpace(model); m != "" {
		b.WriteString(m)
	} else {
		b.WriteString("none")
	}
	b.WriteString("; llm_base_url=")
	b.WriteString(strings.TrimSpace(baseURL))
	b.WriteString("; results=")
	b.WriteString(strconv.Itoa(numResults))
	b.WriteString("; digest_cache=")
	b.WriteString(strconv.FormatBool(digestCache))
	b.WriteString("\n")
	return b.String()
}
