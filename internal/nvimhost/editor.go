// Package nvimhost runs acrocheck as a Neovim remote plugin.
//
// The Host owns one text model per checked buffer and keeps it in step with
// the editor through buffer line events, so issue regions follow edits made
// after a check. Everything the host asks of Neovim goes through Editor.
package nvimhost

// Span is a highlighted region in 0-based rows and byte columns, end exclusive.
type Span struct {
	Row    int
	Col    int
	EndRow int
	EndCol int
	Group  string
}

// QuickfixItem is one quickfix entry; Line and Col are 1-based, Col in bytes.
type QuickfixItem struct {
	Buffer int
	Line   int
	Col    int
	Text   string
}

// Editor is the part of Neovim the host drives.
type Editor interface {
	// Lines returns the buffer lines and the changedtick they belong to.
	Lines(buf int) ([]string, int, error)
	// SetText replaces the region between two positions with text lines.
	SetText(buf, startRow, startCol, endRow, endCol int, text []string) error
	// Attach subscribes to line events for buf.
	Attach(buf int) error
	// Highlight replaces the issue highlights of buf.
	Highlight(buf int, spans []Span) error
	// SetQuickfix replaces the quickfix list.
	SetQuickfix(title string, items []QuickfixItem) error
	// ShowScorecard displays lines in the scorecard buffer.
	ShowScorecard(lines []string) error
	// Choose shows a numbered list and returns the 1-based pick, 0 if declined.
	Choose(prompt string, items []string) (int, error)
	Echo(msg string) error
	EchoErr(msg string) error
}
