package cmd

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/harrison/acrocheck/internal/config"
)

// fakeServer answers the checking endpoints with one spelling issue.
type fakeServer struct {
	*httptest.Server

	mu     sync.Mutex
	submit map[string]any
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
		writeJSON(w, map[string]any{
			"data":  map[string]any{"id": "c1"},
			"links": map[string]any{"result": link, "cancel": link},
		})
	})
	mux.HandleFunc("GET /api/v1/checking/checks/c1", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"data": map[string]any{
			"quality": map[string]any{"score": 81, "status": "green"},
			"goals":   []any{map[string]any{"id": "spelling", "displayName": "Spelling", "issues": 1}},
			"issues": []any{map[string]any{
				"displayNameHtml": "Spelling",
				"guidanceHtml":    "<p>Check the <b>spelling</b>.</p>",
				"goalId":          "spelling",
				"positionalInformation": map[string]any{"matches": []any{
					map[string]any{"originalBegin": 0, "originalEnd": 3, "originalPart": "teh"},
				}},
				"suggestions": []any{map[string]any{"surface": "the"}},
			}},
		}})
	})

	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
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

// isolate points config lookup at an empty home and supplies a token.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv(config.EnvHome, t.TempDir())
	t.Setenv(config.EnvAccessToken, "test-token")
	t.Setenv(config.EnvServerURL, "")
}

// execute runs the root command with args and returns what it printed.
func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	root := NewRootCommand()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func writeDoc(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}
