package nvimhost

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/harrison/acrocheck/internal/api"
	"github.com/harrison/acrocheck/internal/checking"
)

// fakeServer answers the checking endpoints with one issue on "teh".
type fakeServer struct {
	*httptest.Server
	notReady atomic.Int32

	mu     sync.Mutex
	submit map[string]any
	// onPoll runs once, on the first result request, which then reports
	// the check as still running.
	onPoll func()
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	f := &fakeServer{}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/checking/capabilities", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"data": map[string]any{"guidanceProfiles": []any{
			map[string]any{"id": "en-tech", "displayName": "English Technical"},
			map[string]any{"id": "en-mkt", "displayName": "English Marketing"},
		}}})
	})
	mux.HandleFunc("POST /api/v1/checking/checks", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &body)
		f.mu.Lock()
		f.submit = body
		f.mu.Unlock()
		link := f.URL + "/api/v1/checking/checks/c1"
		writeJSON(w, map[string]any{"data": map[string]any{"id": "c1"}, "links": map[string]any{"result": link, "cancel": link}})
	})
	mux.HandleFunc("GET /api/v1/checking/checks/c1", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		hook := f.onPoll
		f.onPoll = nil
		f.mu.Unlock()
		if hook != nil {
			hook()
		}
		if hook != nil || f.notReady.Load() > 0 {
			io.WriteString(w, `{"progress":{"percent":10}}`)
			return
		}
		writeJSON(w, map[string]any{"data": map[string]any{
			"quality": map[string]any{"score": 81, "status": "green"},
			"issues": []any{map[string]any{
				"displayNameHtml": "Spelling",
				"guidanceHtml":    "<p>Check the spelling.</p>",
				"positionalInformation": map[string]any{"matches": []any{
					map[string]any{"originalBegin": 6, "originalEnd": 9, "originalPart": "teh"},
				}},
				"suggestions": []any{map[string]any{"surface": "the"}},
			}},
		}})
	})
	mux.HandleFunc("DELETE /api/v1/checking/checks/c1", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"data": map[string]any{}})
	})
	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

func (f *fakeServer) whilePolling(fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onPoll = fn
}

func (f *fakeServer) submitted() map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submit
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

type setTextCall struct {
	buf, startRow, startCol, endRow, endCol int
	text                                    []string
}

// fakeEditor records what the host asks of Neovim.
type fakeEditor struct {
	mu        sync.Mutex
	lines     map[int][]string
	ticks     map[int]int
	attached  []int
	setTexts  []setTextCall
	spans     map[int][]Span
	qfTitle   string
	qfItems   []QuickfixItem
	scorecard []string
	prompts   []string
	choice    int
	echoes    []string
	errs      []string
}

func newFakeEditor() *fakeEditor {
	return &fakeEditor{
		lines: make(map[int][]string),
		ticks: make(map[int]int),
		spans: make(map[int][]Span),
	}
}

func (e *fakeEditor) setLines(buf int, lines ...string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lines[buf] = lines
	e.ticks[buf]++
}

// edit replaces lines [first, last) as a user would and returns the new tick.
func (e *fakeEditor) edit(buf, first, last int, data ...string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	old := e.lines[buf]
	next := append(append(append([]string{}, old[:first]...), data...), old[last:]...)
	e.lines[buf] = next
	e.ticks[buf]++
	return e.ticks[buf]
}

func (e *fakeEditor) Lines(buf int) ([]string, int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	lines, ok := e.lines[buf]
	if !ok {
		return nil, 0, fmt.Errorf("invalid buffer %d", buf)
	}
	return append([]string(nil), lines...), e.ticks[buf], nil
}

func (e *fakeEditor) SetText(buf, startRow, startCol, endRow, endCol int, text []string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.setTexts = append(e.setTexts, setTextCall{buf, startRow, startCol, endRow, endCol, text})

	lines := e.lines[buf]
	head := lines[startRow][:startCol]
	tail := lines[endRow][endCol:]
	joined := strings.Split(head+strings.Join(text, "\n")+tail, "\n")
	next := append(append(append([]string{}, lines[:startRow]...), joined...), lines[endRow+1:]...)
	e.lines[buf] = next
	e.ticks[buf]++
	return nil
}

func (e *fakeEditor) Attach(buf int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.attached = append(e.attached, buf)
	return nil
}

func (e *fakeEditor) Highlight(buf int, spans []Span) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.spans[buf] = spans
	return nil
}

func (e *fakeEditor) SetQuickfix(title string, items []QuickfixItem) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.qfTitle = title
	e.qfItems = items
	return nil
}

func (e *fakeEditor) ShowScorecard(lines []string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scorecard = lines
	return nil
}

func (e *fakeEditor) Choose(prompt string, items []string) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.prompts = append(append(e.prompts, prompt), items...)
	return e.choice, nil
}

func (e *fakeEditor) Echo(msg string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.echoes = append(e.echoes, msg)
	return nil
}

func (e *fakeEditor) EchoErr(msg string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.errs = append(e.errs, msg)
	return nil
}

func newTestHost(srv *fakeServer, editor *fakeEditor, defaultTarget string) *Host {
	return NewHost(Options{
		Client: api.New(api.Options{
			ServerURL: srv.URL,
			Signature: "test-signature",
			Token:     "test-token",
			Timeout:   5 * time.Second,
		}),
		Editor:        editor,
		DefaultTarget: defaultTarget,
		Formats:       checking.NewContentFormats(nil, nil),
		Poll:          checking.PollOptions{MaxAttempts: 3, Interval: time.Millisecond, CancelOnAbandon: true},
	})
}
