package logger

import (
	"testing"

	"github.com/fatih/color"
)

func TestColorSchemeForScore(t *testing.T) {
	scheme := newColorScheme()

	tests := []struct {
		score int
		want  *color.Color
	}{
		{100, scheme.success},
		{80, scheme.success},
		{79, scheme.warn},
		{60, scheme.warn},
		{59, scheme.fail},
		{0, scheme.fail},
	}

	for _, tt := range tests {
		if got := scheme.forScore(tt.score); got != tt.want {
			t.Errorf("forScore(%d) picked the wrong color", tt.score)
		}
	}
}
