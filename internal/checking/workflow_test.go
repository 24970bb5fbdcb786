package checking

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/acrocheck/internal/api"
	"github.com/harrison/acrocheck/internal/marker"
	"github.com/harrison/acrocheck/internal/models"
)

func newTestChecker(f *fakeAcrolinx, logger Logger) *Checker {
	calls := 0
	return NewChecker(Options{
		Client:  f.client(),
		Chooser: pick(0, &calls),
		Formats: NewContentFormats(nil, nil),
		Poll:    PollOptions{MaxAttempts: 5, Interval: time.Millisecond, CancelOnAbandon: true},
		Logger:  logger,
	})
}

func TestCheckEndToEnd(t *testing.T) {
	f := newFakeAcrolinx(t)
	f.notReady.Store(2)
	logger := &recordingLogger{}
	c := newTestChecker(f, logger)

	buf := marker.NewBuffer("teh quick fox")
	doc := DocumentContext{Path: "notes/fox.md", Text: buf}

	sc, err := c.Check(context.Background(), doc, CheckOptions{})
	require.NoError(t, err)

	assert.Equal(t, 81, sc.Score)
	require.Len(t, sc.Entries, 1)
	assert.Equal(t, "teh", sc.Entries[0].Label)
	assert.Same(t, sc, c.Session().Scorecard())

	opts := f.submitted()["checkOptions"].(map[string]any)
	assert.Equal(t, "MARKDOWN", opts["contentFormat"], "format guessed from the extension")
	assert.Equal(t, "notes/fox.md", f.submitted()["document"].(map[string]any)["reference"])

	assert.Equal(t, int32(3), f.polls.Load())
	assert.Equal(t, []int{1, 2, 3}, logger.attempts)
	assert.Equal(t, 1, logger.complete)

	require.NoError(t, sc.Entries[0].Apply(1))
	assert.Equal(t, "the quick fox", buf.Text())
}

func TestCheckReplacesPreviousScorecard(t *testing.T) {
	f := newFakeAcrolinx(t)
	c := newTestChecker(f, nil)
	buf := marker.NewBuffer("teh quick fox")
	doc := DocumentContext{Identifier: "buf:1", Text: buf}

	first, err := c.Check(context.Background(), doc, CheckOptions{})
	require.NoError(t, err)
	f.polls.Store(0)
	second, err := c.Check(context.Background(), doc, CheckOptions{})
	require.NoError(t, err)

	assert.True(t, first.Entries[0].Marker.Released())
	assert.False(t, second.Entries[0].Marker.Released())
	assert.Equal(t, 1, buf.Markers())
	assert.Equal(t, int32(1), f.capabilities.Load(), "target remembered between checks")
}

func TestCheckFailureKeepsState(t *testing.T) {
	f := newFakeAcrolinx(t)
	c := newTestChecker(f, nil)
	buf := marker.NewBuffer("teh quick fox")
	doc := DocumentContext{Identifier: "buf:1", Text: buf}

	first, err := c.Check(context.Background(), doc, CheckOptions{})
	require.NoError(t, err)

	f.polls.Store(0)
	f.notReady.Store(1000)
	_, err = c.Check(context.Background(), doc, CheckOptions{})
	require.ErrorIs(t, err, api.ErrTimeout)

	assert.Same(t, first, c.Session().Scorecard(), "failed check keeps the displayed scorecard")
	assert.False(t, first.Entries[0].Marker.Released())
	remembered, ok := c.Session().RememberedTarget("buf:1")
	require.True(t, ok)
	assert.Equal(t, "en-tech", remembered.ID)
	assert.Len(t, c.Session().Targets(), 2)
	assert.Equal(t, int32(1), f.cancels.Load())
}

func TestCheckPartialRangeAndMode(t *testing.T) {
	f := newFakeAcrolinx(t)
	c := newTestChecker(f, nil)
	doc := DocumentContext{
		Identifier: "buf:2",
		Mode:       "gfm",
		Text:       marker.NewBuffer("teh quick fox"),
		Range:      &models.Range{Begin: 3, End: 10},
	}

	_, err := c.Check(context.Background(), doc, CheckOptions{})
	require.NoError(t, err)

	body := f.submitted()
	opts := body["checkOptions"].(map[string]any)
	assert.Equal(t, "MARKDOWN", opts["contentFormat"])
	assert.Equal(t, []any{map[string]any{"begin": float64(2), "end": float64(9)}}, opts["partialCheckRanges"])
	assert.Equal(t, "buf:2", body["document"].(map[string]any)["reference"])
}

func TestCheckUnnamedDocumentGetsReference(t *testing.T) {
	f := newFakeAcrolinx(t)
	c := newTestChecker(f, nil)

	_, err := c.Check(context.Background(), DocumentContext{Text: marker.NewBuffer("teh")}, CheckOptions{})
	require.NoError(t, err)

	ref := f.submitted()["document"].(map[string]any)["reference"].(string)
	assert.True(t, strings.HasPrefix(ref, "urn:uuid:"), ref)
}

func TestCheckConfigurationErrors(t *testing.T) {
	c := NewChecker(Options{Client: api.New(api.Options{})})
	_, err := c.Check(context.Background(), DocumentContext{Text: marker.NewBuffer("x")}, CheckOptions{})
	assert.ErrorIs(t, err, api.ErrConfiguration)

	f := newFakeAcrolinx(t)
	c = newTestChecker(f, nil)
	_, err = c.Check(context.Background(), DocumentContext{}, CheckOptions{})
	assert.ErrorIs(t, err, api.ErrConfiguration)
}

func TestSessionDumpDebug(t *testing.T) {
	f := newFakeAcrolinx(t)
	c := newTestChecker(f, nil)
	_, err := c.Check(context.Background(), DocumentContext{Path: "a.txt", Text: marker.NewBuffer("teh")}, CheckOptions{})
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "debug")
	files, err := c.Session().DumpDebug(context.Background(), dir)
	require.NoError(t, err)
	assert.Len(t, files, 6, "json and yaml for capabilities, result and submit")

	data, err := os.ReadFile(filepath.Join(dir, "result.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "kind: result")
	assert.Contains(t, string(data), "score: 81")

	raw, err := os.ReadFile(filepath.Join(dir, "submit.json"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"result"`)
}
