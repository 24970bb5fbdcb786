package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/harrison/acrocheck/internal/checking"
	"github.com/harrison/acrocheck/internal/models"
)

// MenuReader abstracts line input so the menu can be tested.
type MenuReader interface {
	ReadString(delim byte) (string, error)
}

// NewMenuReader wraps r for line input.
func NewMenuReader(r io.Reader) MenuReader {
	return bufio.NewReader(r)
}

// terminalChooser asks for a target on out and reads the answer from reader.
func terminalChooser(reader MenuReader, out io.Writer) checking.Chooser {
	return checking.ChooserFunc(func(ctx context.Context, targets []models.Target, suggested int) (int, error) {
		if err := ctx.Err(); err != nil {
			return -1, err
		}
		displayTargetMenu(out, targets, suggested)
		return readSelection(reader, len(targets), suggested)
	})
}

// displayTargetMenu prints the numbered target list with the suggestion marked.
func displayTargetMenu(out io.Writer, targets []models.Target, suggested int) {
	header := color.New(color.FgCyan, color.Bold)
	header.Fprintln(out, "Select a guidance profile:")
	for i, t := range targets {
		fmt.Fprintln(out, formatMenuLine(t, i, i == suggested))
	}
	fmt.Fprintf(out, "Choice [%d], q to cancel: ", suggested+1)
}

// formatMenuLine formats one target with its 1-based number.
func formatMenuLine(t models.Target, index int, suggested bool) string {
	mark := " "
	if suggested {
		mark = "*"
	}
	line := fmt.Sprintf("%s %2d) %s", mark, index+1, t.String())
	if t.DisplayName != "" && t.DisplayName != t.ID {
		line += color.New(color.Faint).Sprintf(" (%s)", t.ID)
	}
	return line
}

// readSelection reads a 1-based choice and returns its 0-based index.
// An empty answer takes the suggestion; q declines with -1.
func readSelection(reader MenuReader, count, suggested int) (int, error) {
	input, err := reader.ReadString('\n')
	if err != nil && input == "" {
		return -1, fmt.Errorf("read selection: %w", err)
	}

	input = strings.TrimSpace(input)
	switch strings.ToLower(input) {
	case "":
		return suggested, nil
	case "q", "quit":
		return -1, nil
	}

	n, err := strconv.Atoi(input)
	if err != nil || n < 1 || n > count {
		return -1, fmt.Errorf("invalid selection %q: enter 1-%d", input, count)
	}
	return n - 1, nil
}
