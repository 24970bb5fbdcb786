package nvimhost

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/harrison/acrocheck/internal/api"
	"github.com/harrison/acrocheck/internal/checking"
	"github.com/harrison/acrocheck/internal/marker"
	"github.com/harrison/acrocheck/internal/models"
	"github.com/harrison/acrocheck/internal/render"
)

// issueGroup is the highlight group for unresolved issue regions.
const issueGroup = "AcrolinxIssue"

var errNoScorecard = errors.New("no Acrolinx scorecard; run :AcrolinxCheck first")

// CheckRequest describes one :AcrolinxCheck invocation.
type CheckRequest struct {
	Buffer   int
	Path     string
	Filetype string
	// FirstLine and LastLine are the 1-based inclusive command range.
	FirstLine int
	LastLine  int
	Override  bool
}

// Options configures a Host.
type Options struct {
	Client        *api.Client
	Editor        Editor
	DefaultTarget string
	Formats       checking.ContentFormats
	Poll          checking.PollOptions
	Logger        checking.Logger
}

// document is the host's model of one Neovim buffer.
type document struct {
	text  *marker.Buffer
	lines []string
	tick  int
}

// Host runs checks for Neovim buffers and keeps their results in sync.
type Host struct {
	editor  Editor
	checker *checking.Checker
	logger  checking.Logger

	mu     sync.Mutex
	docs   map[int]*document
	shown  int
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewHost creates a Host. Target selection goes through the editor's list prompt.
func NewHost(opts Options) *Host {
	log := opts.Logger
	if log == nil {
		log = checking.MultiLogger()
	}
	h := &Host{
		editor: opts.Editor,
		logger: log,
		docs:   make(map[int]*document),
	}
	h.checker = checking.NewChecker(checking.Options{
		Client:        opts.Client,
		Chooser:       checking.ChooserFunc(h.chooseTarget),
		DefaultTarget: opts.DefaultTarget,
		Formats:       opts.Formats,
		Poll:          opts.Poll,
		Logger:        log,
	})
	return h
}

// StartCheck runs a check in the background, canceling one still running.
func (h *Host) StartCheck(req CheckRequest) {
	ctx, cancel := context.WithCancel(context.Background())

	h.mu.Lock()
	if h.cancel != nil {
		h.cancel()
	}
	h.cancel = cancel
	h.mu.Unlock()

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		defer cancel()
		err := h.Check(ctx, req)
		switch {
		case err == nil:
		case errors.Is(err, api.ErrCanceled):
			h.logger.LogDebug(fmt.Sprintf("check of buffer %d canceled", req.Buffer))
		default:
			h.logger.LogWarn(fmt.Sprintf("check of buffer %d failed: %v", req.Buffer, err))
			_ = h.editor.EchoErr("Acrolinx: " + describeError(err))
		}
	}()
}

// Close cancels a running check and waits for it to finish.
func (h *Host) Close() {
	h.mu.Lock()
	if h.cancel != nil {
		h.cancel()
	}
	h.mu.Unlock()
	h.wg.Wait()
	h.checker.Session().Close()
}

// Check checks req's buffer and shows the result.
func (h *Host) Check(ctx context.Context, req CheckRequest) error {
	doc, err := h.sync(req.Buffer)
	if err != nil {
		return err
	}

	h.mu.Lock()
	rng, err := lineRange(doc.lines, req.FirstLine, req.LastLine)
	h.mu.Unlock()
	if err != nil {
		return err
	}

	_ = h.editor.Echo("Acrolinx: checking...")
	sc, err := h.checker.Check(ctx, checking.DocumentContext{
		Identifier: fmt.Sprintf("buffer:%d", req.Buffer),
		Path:       req.Path,
		Mode:       req.Filetype,
		Text:       doc.text,
		Range:      rng,
	}, checking.CheckOptions{OverrideTarget: req.Override})
	if err != nil {
		return err
	}

	h.mu.Lock()
	prev := h.shown
	h.shown = req.Buffer
	h.mu.Unlock()

	// the previous scorecard's markers are gone
	if prev != 0 && prev != req.Buffer {
		if err := h.editor.Highlight(prev, nil); err != nil {
			return err
		}
	}
	if err := h.publish(req.Buffer, doc, sc); err != nil {
		return err
	}
	return h.editor.Echo(fmt.Sprintf("Acrolinx: score %d, %d issue(s)", sc.Score, len(sc.Entries)))
}

// Apply replaces issue's region with its n-th suggestion in the editor.
func (h *Host) Apply(issue, n int) error {
	sc, buf, err := h.current()
	if err != nil {
		return err
	}
	doc, err := h.sync(buf)
	if err != nil {
		return err
	}

	entry, err := sc.Entry(issue)
	if err != nil {
		return err
	}
	start, end, err := entry.Span()
	if err != nil {
		return err
	}
	startRow, startCol, err := position(doc.text, start)
	if err != nil {
		return err
	}
	endRow, endCol, err := position(doc.text, end)
	if err != nil {
		return err
	}

	if err := entry.Apply(n); err != nil {
		return err
	}
	replacement, err := entry.Marker.Text()
	if err != nil {
		return err
	}
	if err := h.editor.SetText(buf, startRow, startCol, endRow, endCol, strings.Split(replacement, "\n")); err != nil {
		return err
	}

	// Pick up the changedtick of the edit so its line event is dropped.
	if doc, err = h.sync(buf); err != nil {
		return err
	}
	return h.publish(buf, doc, sc)
}

// Toggle flips the guidance disclosure of issue and redraws the scorecard.
func (h *Host) Toggle(issue int) error {
	sc, _, err := h.current()
	if err != nil {
		return err
	}
	entry, err := sc.Entry(issue)
	if err != nil {
		return err
	}
	if entry.Disclosure == nil {
		return fmt.Errorf("issue %d has no guidance", issue)
	}
	entry.Disclosure.Toggle()
	return h.showScorecard(sc)
}

// Targets refreshes the guidance profile list and echoes it.
func (h *Host) Targets(ctx context.Context) error {
	targets, err := h.checker.Resolver().Refresh(ctx)
	if err != nil {
		return err
	}
	names := make([]string, len(targets))
	for i, t := range targets {
		names[i] = fmt.Sprintf("%s (%s)", t.String(), t.ID)
	}
	return h.editor.Echo("Acrolinx guidance profiles: " + strings.Join(names, ", "))
}

// LinesChanged applies a buffer line event: lines [first, last) were
// replaced by data at changedtick tick. Events older than the model are
// dropped.
func (h *Host) LinesChanged(buf, tick, first, last int, data []string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	doc, ok := h.docs[buf]
	if !ok || (tick != 0 && tick <= doc.tick) {
		return
	}
	if last < 0 || last > len(doc.lines) {
		last = len(doc.lines)
	}
	if first < 0 || first > last {
		return
	}

	lines := make([]string, 0, len(doc.lines)-(last-first)+len(data))
	lines = append(lines, doc.lines[:first]...)
	lines = append(lines, data...)
	lines = append(lines, doc.lines[last:]...)
	doc.lines = lines
	if tick != 0 {
		doc.tick = tick
	}
	doc.text.SetText(strings.Join(lines, "\n"))
}

// Forget drops the model of a wiped buffer.
func (h *Host) Forget(buf int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.docs, buf)
	if h.shown == buf {
		h.shown = 0
		h.checker.Session().ReplaceScorecard(nil)
	}
}

// sync refreshes the model of buf from the editor, creating it on first use.
func (h *Host) sync(buf int) (*document, error) {
	lines, tick, err := h.editor.Lines(buf)
	if err != nil {
		return nil, fmt.Errorf("read buffer %d: %w", buf, err)
	}
	text := strings.Join(lines, "\n")

	h.mu.Lock()
	doc, ok := h.docs[buf]
	if ok {
		doc.lines = lines
		doc.tick = tick
		doc.text.SetText(text)
		h.mu.Unlock()
		return doc, nil
	}
	doc = &document{text: marker.NewBuffer(text), lines: lines, tick: tick}
	h.docs[buf] = doc
	h.mu.Unlock()

	if err := h.editor.Attach(buf); err != nil {
		h.logger.LogWarn(fmt.Sprintf("attach to buffer %d failed, edits are tracked per command: %v", buf, err))
	}
	return doc, nil
}

func (h *Host) current() (*render.Scorecard, int, error) {
	h.mu.Lock()
	buf := h.shown
	h.mu.Unlock()
	sc := h.checker.Session().Scorecard()
	if sc == nil || buf == 0 {
		return nil, 0, errNoScorecard
	}
	return sc, buf, nil
}

// publish pushes sc into the editor: highlights, quickfix list, scorecard.
func (h *Host) publish(buf int, doc *document, sc *render.Scorecard) error {
	var spans []Span
	var items []QuickfixItem
	for _, e := range sc.Entries {
		if e.Marker == nil {
			items = append(items, QuickfixItem{Buffer: buf, Text: quickfixText(e)})
			continue
		}
		start, end, err := e.Span()
		if err != nil {
			continue
		}
		row, col, err := position(doc.text, start)
		if err != nil {
			continue
		}
		endRow, endCol, err := position(doc.text, end)
		if err != nil {
			continue
		}
		items = append(items, QuickfixItem{Buffer: buf, Line: row + 1, Col: col + 1, Text: quickfixText(e)})
		if e.Marker.Style() != "" && end > start {
			spans = append(spans, Span{Row: row, Col: col, EndRow: endRow, EndCol: endCol, Group: issueGroup})
		}
	}

	if err := h.editor.Highlight(buf, spans); err != nil {
		return err
	}
	if err := h.editor.SetQuickfix(fmt.Sprintf("Acrolinx score %d", sc.Score), items); err != nil {
		return err
	}
	return h.showScorecard(sc)
}

func (h *Host) showScorecard(sc *render.Scorecard) error {
	var out bytes.Buffer
	if err := render.WriteText(&out, sc, render.TextOptions{}); err != nil {
		return err
	}
	return h.editor.ShowScorecard(strings.Split(strings.TrimRight(out.String(), "\n"), "\n"))
}

// chooseTarget asks through the editor's list prompt.
func (h *Host) chooseTarget(ctx context.Context, targets []models.Target, suggested int) (int, error) {
	if err := ctx.Err(); err != nil {
		return -1, err
	}
	items := make([]string, len(targets))
	for i, t := range targets {
		mark := ""
		if i == suggested {
			mark = " *"
		}
		items[i] = fmt.Sprintf("%d. %s%s", i+1, t.String(), mark)
	}
	choice, err := h.editor.Choose("Select an Acrolinx guidance profile:", items)
	if err != nil {
		return -1, err
	}
	return choice - 1, nil
}

func quickfixText(e *render.Entry) string {
	if e.Label == "" {
		return e.Name
	}
	return fmt.Sprintf("%s: %s", e.Label, e.Name)
}

// position converts a rune offset to a 0-based row and byte column.
func position(buf *marker.Buffer, offset int) (int, int, error) {
	line, col, err := buf.LineCol(offset)
	if err != nil {
		return 0, 0, err
	}
	runes := []rune(buf.Line(line))
	if col-1 > len(runes) {
		col = len(runes) + 1
	}
	return line - 1, len(string(runes[:col-1])), nil
}

// lineRange converts a 1-based inclusive line range to a 1-based rune
// range. The whole buffer yields nil.
func lineRange(lines []string, first, last int) (*models.Range, error) {
	if first <= 1 && (last <= 0 || last >= len(lines)) {
		return nil, nil
	}
	if first < 1 {
		first = 1
	}
	if last > len(lines) {
		last = len(lines)
	}

	begin := 0
	for _, l := range lines[:first-1] {
		begin += utf8.RuneCountInString(l) + 1
	}
	end := begin
	for i := first - 1; i < last; i++ {
		end += utf8.RuneCountInString(lines[i])
		if i < last-1 {
			end++
		}
	}
	if end <= begin {
		return nil, api.Errorf(api.ErrSubmission, "check range", "lines %d-%d are empty", first, last)
	}
	return &models.Range{Begin: begin + 1, End: end + 1}, nil
}

func describeError(err error) string {
	switch {
	case errors.Is(err, api.ErrTimeout):
		return "no result before polling gave up"
	case errors.Is(err, api.ErrCanceled):
		return "check canceled"
	case errors.Is(err, api.ErrSelection):
		return "no guidance profile selected"
	}
	return err.Error()
}
