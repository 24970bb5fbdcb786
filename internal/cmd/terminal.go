package cmd

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"golang.org/x/term"
)

// isInteractive reports whether r is a terminal a prompt can be read from.
// Tests replace it to drive the target menu.
var isInteractive = func(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd())) || isatty.IsCygwinTerminal(f.Fd())
}

// colorEnabled reports whether w is a terminal that should get ANSI styling.
func colorEnabled(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd())
}

// labelWidth sizes the issue label column from the terminal width.
func labelWidth(w io.Writer) int {
	const fallback = 40
	f, ok := w.(*os.File)
	if !ok {
		return fallback
	}
	cols, _, err := term.GetSize(int(f.Fd()))
	if err != nil || cols <= 0 {
		return fallback
	}
	width := cols / 2
	switch {
	case width < 20:
		return 20
	case width > 60:
		return 60
	}
	return width
}
