package display

import (
	"bytes"
	"strings"
	"testing"
)

func TestProgressIndicator(t *testing.T) {
	var buf bytes.Buffer
	pi := NewProgressIndicator(&buf, 3, false)

	pi.Start()
	pi.Step("docs/a.md")
	pi.Step("docs/b.md")
	pi.Step("-")
	pi.Complete(0)

	want := "Checking 3 documents:\n" +
		"  [1/3] docs/a.md\n" +
		"  [2/3] docs/b.md\n" +
		"  [3/3] -\n" +
		"✓ Checked 3 documents\n"
	if got := buf.String(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestProgressIndicator_CompleteWithFailures(t *testing.T) {
	var buf bytes.Buffer
	NewProgressIndicator(&buf, 4, false).Complete(2)

	if got, want := buf.String(), "✗ Checked 4 documents, 2 failed\n"; got != want {
		t.Errorf("Complete() = %q, want %q", got, want)
	}
}

func TestProgressIndicator_Color(t *testing.T) {
	var buf bytes.Buffer
	pi := NewProgressIndicator(&buf, 1, true)
	pi.Step("guide.md")

	got := buf.String()
	if !strings.Contains(got, "\x1b[36m") {
		t.Errorf("Step() output %q has no cyan escape", got)
	}
	if !strings.Contains(got, "[1/1] guide.md") {
		t.Errorf("Step() output %q missing progress text", got)
	}
}
