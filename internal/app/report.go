package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hyperifyio/leadscout/internal/search"
)

var mdTitleReplacer = strings.NewReplacer("[", "(", "]", ")", "\n", " ")

// RenderMarkdown renders a Response as a Markdown report.
func RenderMarkdown(req Request, resp Response) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Job leads: %s near %s\n\n", strings.TrimSpace(req.Keywords), strings.TrimSpace(req.Location))
	fmt.Fprintf(&b, "Generated %s. %d result(s) from %s.\n", resp.GeneratedAt, resp.Total, joinPlatforms(resp.PlatformsQueried))

	if resp.Summary != nil {
		b.WriteString("\n## Summary\n\n")
		b.WriteString(strings.TrimSpace(*resp.Summary))
		b.WriteString("\n")
	}

	b.WriteString("\n## Leads\n\n")
	if len(resp.Results) == 0 {
		b.WriteString("No leads found.\n")
	}
	for i, r := range resp.Results {
		fmt.Fprintf(&b, "%d. [%s](%s) (%s, score %.2f)\n", i+1, mdTitleReplacer.Replace(r.Title), r.URL, r.Platform, r.RelevanceScore)
		if s := strings.TrimSpace(r.Snippet); s != "" {
			fmt.Fprintf(&b, "   %s\n", strings.ReplaceAll(s, "\n", " "))
		}
	}

	if len(resp.Failures) > 0 {
		b.WriteString("\n## Unavailable platforms\n\n")
		for _, f := range resp.Failures {
			fmt.Fprintf(&b, "- %s: %s after %d attempt(s)", f.Platform, f.Kind, f.Attempts)
			if f.Message != "" {
				fmt.Fprintf(&b, " (%s)", f.Message)
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

func joinPlatforms(ps []search.PlatformID) string {
	if len(ps) == 0 {
		return "no platforms"
	}
	names := make([]string, len(ps))
	for i, p := range ps {
		names[i] = string(p)
	}
	return strings.Join(names, ", ")
}

// Run performs one search and writes the report in the configured format to
// OutputPath, or to stdout when OutputPath is "-" or empty. A PDF copy is
// written when OutputPDFPath is set.
func (a *App) Run(ctx context.Context, req Request, stdout io.Writer) error {
	resp, err := a.Search(ctx, req)
	if err != nil {
		return err
	}

	var out []byte
	switch a.cfg.Format {
	case FormatJSON:
		out, err = json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return fmt.Errorf("encode response: %w", err)
		}
		out = append(out, '\n')
	default:
		md := RenderMarkdown(req, resp)
		md = appendReproFooter(md, resp.RunID, a.digestModel(), a.cfg.LLMBaseURL, resp.Total, a.digest != nil && a.digest.Cache != nil)
		out = []byte(md)
	}

	if p := strings.TrimSpace(a.cfg.OutputPath); p == "" || p == "-" {
		if _, err := stdout.Write(out); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	} else {
		if err := os.WriteFile(p, out, 0o644); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		a.logger.Info().Str("out", p).Int("results", resp.Total).Msg("wrote output")
	}

	if p := strings.TrimSpace(a.cfg.OutputPDFPath); p != "" {
		if err := writeSimplePDF(RenderMarkdown(req, resp), p); err != nil {
			return fmt.Errorf("write pdf: %w", err)
		}
		a.logger.Info().Str("pdf", p).Msg("wrote PDF")
	}
	return nil
}

func (a *App) digestModel() string {
	if a.digest == nil {
		return ""
	}
	return a.digest.Model
}
