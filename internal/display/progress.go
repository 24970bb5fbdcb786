package display

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// ProgressIndicator reports progress through a list of documents.
type ProgressIndicator struct {
	writer  io.Writer
	total   int
	current int

	step    *color.Color
	success *color.Color
	failure *color.Color
}

// NewProgressIndicator creates a progress indicator for total documents.
func NewProgressIndicator(w io.Writer, total int, useColor bool) *ProgressIndicator {
	return &ProgressIndicator{
		writer:  w,
		total:   total,
		step:    colorFor(useColor, color.FgCyan),
		success: colorFor(useColor, color.FgGreen),
		failure: colorFor(useColor, color.FgYellow),
	}
}

// Start displays the header message
func (p *ProgressIndicator) Start() {
	fmt.Fprintf(p.writer, "Checking %d documents:\n", p.total)
}

// Step displays progress for the next document: [N/Total] name
func (p *ProgressIndicator) Step(name string) {
	p.current++
	p.step.Fprintf(p.writer, "  [%d/%d] %s", p.current, p.total, name)
	fmt.Fprintln(p.writer)
}

// Complete displays the summary line.
func (p *ProgressIndicator) Complete(failed int) {
	if failed == 0 {
		p.success.Fprint(p.writer, "✓")
		fmt.Fprintf(p.writer, " Checked %d documents\n", p.total)
		return
	}
	p.failure.Fprint(p.writer, "✗")
	fmt.Fprintf(p.writer, " Checked %d documents, %d failed\n", p.total, failed)
}

func colorFor(enabled bool, attr color.Attribute) *color.Color {
	c := color.New(attr)
	if enabled {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}
