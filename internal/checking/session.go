// Package checking drives one Acrolinx check from target choice through
// submission and polling to a rendered scorecard.
package checking

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/harrison/acrocheck/internal/filelock"
	"github.com/harrison/acrocheck/internal/models"
	"github.com/harrison/acrocheck/internal/render"
)

// Kinds of payloads recorded in the last-seen debug state.
const (
	KindCapabilities = "capabilities"
	KindSubmit       = "submit"
	KindResult       = "result"
)

// Session holds state shared by the checks of one host process: the target
// list, the target remembered per document, the last payload of each kind,
// and the scorecard currently displayed.
type Session struct {
	mu         sync.Mutex
	targets    []models.Target
	remembered map[string]models.Target
	lastSeen   map[string]Payload
	scorecard  *render.Scorecard
}

// Payload is a response body recorded for debugging.
type Payload struct {
	URL      string    `yaml:"url"`
	Status   int       `yaml:"status"`
	Received time.Time `yaml:"received"`
	Body     []byte    `yaml:"-"`
}

// NewSession creates an empty Session.
func NewSession() *Session {
	return &Session{
		remembered: make(map[string]models.Target),
		lastSeen:   make(map[string]Payload),
	}
}

// Targets returns the cached target list, or nil when nothing is cached.
func (s *Session) Targets() []models.Target {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.targets == nil {
		return nil
	}
	out := make([]models.Target, len(s.targets))
	copy(out, s.targets)
	return out
}

// SetTargets replaces the cached target list.
func (s *Session) SetTargets(targets []models.Target) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.targets = append([]models.Target(nil), targets...)
}

// ForgetTargets drops the cached list so the next lookup refetches it.
func (s *Session) ForgetTargets() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.targets = nil
}

// RememberTarget records the target chosen for a document.
func (s *Session) RememberTarget(doc string, target models.Target) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remembered[doc] = target
}

// RememberedTarget returns the target last chosen for a document.
func (s *Session) RememberedTarget(doc string) (models.Target, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.remembered[doc]
	return t, ok
}

// Record stores body as the last payload of kind.
func (s *Session) Record(kind, url string, status int, body []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen[kind] = Payload{
		URL:      url,
		Status:   status,
		Received: time.Now(),
		Body:     append([]byte(nil), body...),
	}
}

// LastSeen returns the last payload recorded for kind.
func (s *Session) LastSeen(kind string) (Payload, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.lastSeen[kind]
	return p, ok
}

// Scorecard returns the scorecard currently displayed, if any.
func (s *Session) Scorecard() *render.Scorecard {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scorecard
}

// ReplaceScorecard installs sc and releases the markers of the previous one.
func (s *Session) ReplaceScorecard(sc *render.Scorecard) {
	s.mu.Lock()
	prev := s.scorecard
	s.scorecard = sc
	s.mu.Unlock()

	if prev != nil && prev != sc {
		prev.Close()
	}
}

// Close releases the current scorecard.
func (s *Session) Close() {
	s.ReplaceScorecard(nil)
}

// debugDump is the YAML form of one recorded payload.
type debugDump struct {
	Payload `yaml:",inline"`
	Kind    string `yaml:"kind"`
	JSON    any    `yaml:"json,omitempty"`
	Raw     string `yaml:"raw,omitempty"`
}

// DumpDebug writes every recorded payload to dir as <kind>.json (raw body)
// and <kind>.yaml (metadata plus the decoded body). It returns the files
// written.
func (s *Session) DumpDebug(ctx context.Context, dir string) ([]string, error) {
	s.mu.Lock()
	kinds := make([]string, 0, len(s.lastSeen))
	payloads := make(map[string]Payload, len(s.lastSeen))
	for k, p := range s.lastSeen {
		kinds = append(kinds, k)
		payloads[k] = p
	}
	s.mu.Unlock()
	sort.Strings(kinds)

	var written []string
	for _, kind := range kinds {
		p := payloads[kind]

		rawPath := filepath.Join(dir, kind+".json")
		if err := filelock.LockAndWrite(ctx, rawPath, p.Body); err != nil {
			return written, fmt.Errorf("dump %s: %w", kind, err)
		}
		written = append(written, rawPath)

		dump := debugDump{Payload: p, Kind: kind}
		var decoded any
		if err := json.Unmarshal(p.Body, &decoded); err == nil {
			dump.JSON = decoded
		} else {
			dump.Raw = string(p.Body)
		}
		yamlPath := filepath.Join(dir, kind+".yaml")
		if err := filelock.WriteYAML(ctx, yamlPath, dump); err != nil {
			return written, fmt.Errorf("dump %s: %w", kind, err)
		}
		written = append(written, yamlPath)
	}
	return written, nil
}
