package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
)

// TextOptions controls WriteText.
type TextOptions struct {
	// Width bounds the label column; 0 means 40.
	Width int
	// Color enables ANSI styling.
	Color bool
	// ExpandAll shows guidance regardless of each disclosure's state.
	ExpandAll bool
}

// WriteText writes a terminal rendering of sc.
func WriteText(w io.Writer, sc *Scorecard, opts TextOptions) error {
	width := opts.Width
	if width <= 0 {
		width = 40
	}

	var b strings.Builder
	if sc.Document != "" {
		b.WriteString("Document: ")
		b.WriteString(sc.Document)
		b.WriteString("\n")
	}
	title := fmt.Sprintf("Score %d", sc.Score)
	if sc.Status != "" {
		title = fmt.Sprintf("%s (%s)", title, sc.Status)
	}
	if opts.Color {
		title = scoreStyle(sc.Score).Bold(true).Render(title)
	}
	b.WriteString(title)
	b.WriteString("\n")

	if len(sc.Goals) > 0 {
		parts := make([]string, 0, len(sc.Goals))
		for _, g := range sc.Goals {
			parts = append(parts, fmt.Sprintf("%s %d", goalName(g.DisplayName, g.ID), g.IssueCount))
		}
		b.WriteString("Goals: ")
		b.WriteString(strings.Join(parts, ", "))
		b.WriteString("\n")
	}
	if sc.ScorecardURL != "" {
		b.WriteString("Scorecard: ")
		b.WriteString(sc.ScorecardURL)
		b.WriteString("\n")
	}

	if len(sc.Entries) == 0 {
		b.WriteString("\nNo issues found.\n")
		_, err := io.WriteString(w, b.String())
		return err
	}

	b.WriteString("\n")
	labelColor := color.New(color.FgYellow)
	for _, e := range sc.Entries {
		pos := "-"
		if p, err := e.Jump(); err == nil {
			pos = p.String()
		}
		lbl := fmt.Sprintf("%q", truncate(e.Label, width))
		if opts.Color {
			lbl = labelColor.Sprint(lbl)
		}
		fmt.Fprintf(&b, "%3d  %-8s %s  %s\n", e.Index, pos, lbl, e.Name)

		if len(e.Suggestions) > 0 {
			parts := make([]string, 0, len(e.Suggestions))
			for i, s := range e.Suggestions {
				parts = append(parts, fmt.Sprintf("%d) %s", i+1, s.Text))
			}
			fmt.Fprintf(&b, "     suggestions: %s\n", strings.Join(parts, "  "))
		}

		if e.Disclosure != nil {
			fmt.Fprintf(&b, "     %s\n", e.Disclosure.Header())
			if opts.ExpandAll || e.Disclosure.Expanded() {
				for _, line := range strings.Split(e.Guidance, "\n") {
					fmt.Fprintf(&b, "       %s\n", line)
				}
			}
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func scoreStyle(score int) lipgloss.Style {
	switch {
	case score >= 80:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	case score >= 60:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	}
}

func goalName(displayName, id string) string {
	if displayName != "" {
		return displayName
	}
	return id
}

func truncate(value string, width int) string {
	if width <= 0 {
		return value
	}
	if runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width, "...")
}
