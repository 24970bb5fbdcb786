package logger

import (
	"github.com/fatih/color"
)

// Score thresholds used for coloring check results.
const (
	scoreGood = 80
	scoreFair = 60
)

// colorScheme defines consistent colors for check outcomes.
// Green: good score, Yellow: fair score, Red: poor score.
type colorScheme struct {
	success *color.Color
	fail    *color.Color
	warn    *color.Color
}

func newColorScheme() *colorScheme {
	return &colorScheme{
		success: color.New(color.FgGreen),
		fail:    color.New(color.FgRed),
		warn:    color.New(color.FgYellow),
	}
}

// forScore picks the color for a quality score.
func (s *colorScheme) forScore(score int) *color.Color {
	switch {
	case score >= scoreGood:
		return s.success
	case score >= scoreFair:
		return s.warn
	default:
		return s.fail
	}
}
