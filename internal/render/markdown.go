package render

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/yuin/goldmark"
)

// WriteMarkdown writes sc as a Markdown report. Guidance is always included.
func WriteMarkdown(w io.Writer, sc *Scorecard) error {
	var b strings.Builder

	if sc.Document != "" {
		fmt.Fprintf(&b, "# Acrolinx Scorecard: %s\n\n", escapeMarkdown(sc.Document))
	} else {
		b.WriteString("# Acrolinx Scorecard\n\n")
	}
	fmt.Fprintf(&b, "**Score:** %d", sc.Score)
	if sc.Status != "" {
		fmt.Fprintf(&b, " (%s)", sc.Status)
	}
	b.WriteString("\n\n")
	if sc.ScorecardURL != "" {
		fmt.Fprintf(&b, "[Full scorecard](%s)\n\n", sc.ScorecardURL)
	}

	if len(sc.Goals) > 0 {
		b.WriteString("## Goals\n\n")
		for _, g := range sc.Goals {
			fmt.Fprintf(&b, "- %s: %d\n", escapeMarkdown(goalName(g.DisplayName, g.ID)), g.IssueCount)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Issues\n\n")
	if len(sc.Entries) == 0 {
		b.WriteString("No issues found.\n")
	}
	for _, e := range sc.Entries {
		pos := ""
		if p, err := e.Jump(); err == nil {
			pos = fmt.Sprintf(" (line %d, column %d)", p.Line, p.Col)
		}
		fmt.Fprintf(&b, "%d. **%s** %s%s\n", e.Index, escapeMarkdown(e.Name), code(e.Label), pos)
		if len(e.Suggestions) > 0 {
			parts := make([]string, 0, len(e.Suggestions))
			for _, s := range e.Suggestions {
				parts = append(parts, code(s.Text))
			}
			fmt.Fprintf(&b, "   - Suggestions: %s\n", strings.Join(parts, ", "))
		}
		if e.Guidance != "" {
			b.WriteString("\n")
			for _, line := range strings.Split(e.Guidance, "\n") {
				fmt.Fprintf(&b, "   > %s\n", escapeMarkdown(line))
			}
		}
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteHTML writes one standalone HTML page holding the Markdown form of
// each scorecard, separated by rules.
func WriteHTML(w io.Writer, cards ...*Scorecard) error {
	var md bytes.Buffer
	for i, sc := range cards {
		if i > 0 {
			md.WriteString(HTMLSeparator)
		}
		if err := WriteMarkdown(&md, sc); err != nil {
			return err
		}
	}
	return WriteHTMLPage(w, md.Bytes())
}

// HTMLSeparator goes between Markdown reports that share an HTML page.
const HTMLSeparator = "\n---\n\n"

// WriteHTMLPage converts a Markdown report into a standalone HTML page.
func WriteHTMLPage(w io.Writer, markdown []byte) error {
	var body bytes.Buffer
	if err := goldmark.New().Convert(markdown, &body); err != nil {
		return fmt.Errorf("convert scorecard to HTML: %w", err)
	}

	if _, err := io.WriteString(w, "<!DOCTYPE html>\n<html>\n<head><meta charset=\"utf-8\"><title>Acrolinx Scorecard</title></head>\n<body>\n"); err != nil {
		return err
	}
	if _, err := w.Write(body.Bytes()); err != nil {
		return err
	}
	_, err := io.WriteString(w, "</body>\n</html>\n")
	return err
}

// code wraps s in an inline code span long enough to hold its backticks.
func code(s string) string {
	if s == "" {
		return "``"
	}
	fence := "`"
	for strings.Contains(s, fence) {
		fence += "`"
	}
	if strings.HasPrefix(s, "`") || strings.HasSuffix(s, "`") {
		return fence + " " + s + " " + fence
	}
	return fence + s + fence
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"*", `\*`,
	"_", `\_`,
	"[", `\[`,
	"]", `\]`,
	"<", `\<`,
	"`", "\\`",
)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
