package checking

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/harrison/acrocheck/internal/api"
)

// fakeAcrolinx serves the checking endpoints used by the workflow.
type fakeAcrolinx struct {
	srv *httptest.Server

	// profiles is returned from the capabilities endpoint.
	profiles []map[string]any
	// notReady is how many result polls answer without data.
	notReady atomic.Int32
	// notReadyBody is the body of a not-ready poll.
	notReadyBody string
	// result is the data object of a finished check.
	result map[string]any
	// submitBody overrides the submission response when set.
	submitBody string

	capabilities atomic.Int32
	submits      atomic.Int32
	polls        atomic.Int32
	cancels      atomic.Int32

	mu          sync.Mutex
	lastSubmit  map[string]any
	lastHeaders http.Header
}

func newFakeAcrolinx(t *testing.T) *fakeAcrolinx {
	t.Helper()
	f := &fakeAcrolinx{
		profiles: []map[string]any{
			{"id": "en-tech", "displayName": "English Technical"},
			{"id": "en-mkt", "displayName": "English Marketing"},
		},
		notReadyBody: `{"progress":{"percent":10,"message":"queued"}}`,
		result: map[string]any{
			"quality": map[string]any{"score": 81, "status": "green"},
			"goals":   []any{map[string]any{"id": "spelling", "displayName": "Spelling", "issues": 1}},
			"issues": []any{map[string]any{
				"displayNameHtml": "teh",
				"goalId":          "spelling",
				"positionalInformation": map[string]any{"matches": []any{
					map[string]any{"originalBegin": 0, "originalEnd": 3, "originalPart": "teh"},
				}},
				"suggestions": []any{map[string]any{"surface": "the"}},
			}},
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/checking/capabilities", func(w http.ResponseWriter, r *http.Request) {
		f.capabilities.Add(1)
		f.record(r, nil)
		writeJSON(w, map[string]any{"data": map[string]any{"guidanceProfiles": f.profiles}})
	})
	mux.HandleFunc("POST /api/v1/checking/checks", func(w http.ResponseWriter, r *http.Request) {
		f.submits.Add(1)
		var body map[string]any
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &body)
		f.record(r, body)
		if f.submitBody != "" {
			io.WriteString(w, f.submitBody)
			return
		}
		link := f.srv.URL + "/api/v1/checking/checks/c1"
		writeJSON(w, map[string]any{
			"data":  map[string]any{"id": "c1"},
			"links": map[string]any{"result": link, "cancel": link},
		})
	})
	mux.HandleFunc("GET /api/v1/checking/checks/c1", func(w http.ResponseWriter, r *http.Request) {
		n := f.polls.Add(1)
		if n <= f.notReady.Load() {
			io.WriteString(w, f.notReadyBody)
			return
		}
		writeJSON(w, map[string]any{"data": f.result})
	})
	mux.HandleFunc("DELETE /api/v1/checking/checks/c1", func(w http.ResponseWriter, r *http.Request) {
		f.cancels.Add(1)
		writeJSON(w, map[string]any{"data": map[string]any{"id": "c1"}})
	})

	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeAcrolinx) record(r *http.Request, body map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastHeaders = r.Header.Clone()
	if body != nil {
		f.lastSubmit = body
	}
}

func (f *fakeAcrolinx) submitted() map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastSubmit
}

func (f *fakeAcrolinx) client() *api.Client {
	return api.New(api.Options{
		ServerURL: f.srv.URL,
		Signature: "test-signature",
		Token:     "test-token",
		Timeout:   5 * time.Second,
	})
}

func (f *fakeAcrolinx) resultURL() string {
	return f.srv.URL + "/api/v1/checking/checks/c1"
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// recordingLogger keeps every message for assertions.
type recordingLogger struct {
	mu       sync.Mutex
	debug    []string
	info     []string
	warn     []string
	attempts []int
	complete int
}

func (l *recordingLogger) LogDebug(m string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.debug = append(l.debug, m)
}

func (l *recordingLogger) LogInfo(m string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.info = append(l.info, m)
}

func (l *recordingLogger) LogWarn(m string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warn = append(l.warn, m)
}

func (l *recordingLogger) LogPollAttempt(attempt, _ int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.attempts = append(l.attempts, attempt)
}

func (l *recordingLogger) LogCheckComplete(int, int, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.complete++
}
