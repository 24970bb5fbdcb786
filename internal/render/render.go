// Package render turns a check result into a scorecard: one entry per issue,
// ordered by position, each tied to a marker over the checked text so that
// jump and suggestion actions follow later edits.
package render

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/harrison/acrocheck/internal/marker"
	"github.com/harrison/acrocheck/internal/models"
)

// DefaultStyle tags markers of unresolved issues.
const DefaultStyle = "issue"

// subIssueSeparator joins sub-issue names when an issue carries no guidance.
const subIssueSeparator = "<br/>"

// ErrNoPosition is returned by actions on an entry without a source region.
var ErrNoPosition = errors.New("issue has no position in the document")

// Options configures Render.
type Options struct {
	// Style is set on every issue marker; empty means DefaultStyle.
	Style string
	// Snapshot, when set, is the text the result was computed for. Issue
	// offsets are read against it and markers are mapped onto the buffer.
	Snapshot *marker.Snapshot
}

// source is the text issue offsets refer to.
type source interface {
	Len() int
	Slice(begin, end int) (string, error)
	Mark(begin, end int) (*marker.Marker, error)
}

// Position is a location in the checked text. Line and Col are 1-based,
// Offset is the 0-based rune offset.
type Position struct {
	Line   int
	Col    int
	Offset int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// Scorecard is the rendered form of one check result.
type Scorecard struct {
	// Document names the checked document in report titles; optional.
	Document     string
	Score        int
	Status       string
	Goals        []models.Goal
	Entries      []*Entry
	ScorecardURL string

	closeOnce sync.Once
}

// Entry is one rendered issue.
type Entry struct {
	// Index is the 1-based position in the scorecard.
	Index    int
	Name     string
	NameHTML string
	GoalID   string

	// Label quotes the flagged text: the single match, or "first ... last".
	Label string

	// Marker tracks the source region; nil when the issue has no positions.
	Marker *marker.Marker

	Suggestions []*Suggestion

	// Guidance is the plain-text form of GuidanceHTML.
	Guidance     string
	GuidanceHTML string

	// Disclosure shows or hides the guidance; nil when there is none.
	Disclosure *Disclosure

	buf *marker.Buffer
}

// Suggestion is a replacement offered for an entry.
type Suggestion struct {
	Text  string
	entry *Entry
}

// Render builds a Scorecard for result over buf. Issues are sorted by the
// offset of their first match; issues without positions sort as offset 0 and
// ties keep server order.
func Render(result models.Result, buf *marker.Buffer, opts Options) (*Scorecard, error) {
	if buf == nil {
		return nil, fmt.Errorf("render: no text buffer")
	}
	style := opts.Style
	if style == "" {
		style = DefaultStyle
	}

	issues := make([]models.Issue, len(result.Issues))
	copy(issues, result.Issues)
	sort.SliceStable(issues, func(i, j int) bool {
		return issues[i].SortOffset() < issues[j].SortOffset()
	})

	sc := &Scorecard{
		Score:        result.Score,
		Status:       result.Status,
		Goals:        result.Goals,
		ScorecardURL: result.ScorecardURL,
		Entries:      make([]*Entry, 0, len(issues)),
	}

	var src source = buf
	if opts.Snapshot != nil {
		src = opts.Snapshot
	}
	for i, issue := range issues {
		entry, err := newEntry(i+1, issue, src, buf, style)
		if err != nil {
			sc.Close()
			return nil, err
		}
		sc.Entries = append(sc.Entries, entry)
	}
	return sc, nil
}

func newEntry(index int, issue models.Issue, src source, buf *marker.Buffer, style string) (*Entry, error) {
	name := htmlToText(issue.DisplayNameHTML)
	e := &Entry{
		Index:    index,
		Name:     name,
		NameHTML: issue.DisplayNameHTML,
		GoalID:   issue.GoalID,
		buf:      buf,
	}

	if begin, end, ok := issue.Span(); ok {
		begin, end = clamp(begin, 0, src.Len()), clamp(end, 0, src.Len())
		if end < begin {
			end = begin
		}
		m, err := src.Mark(begin, end)
		if err != nil {
			return nil, fmt.Errorf("render: mark issue %d: %w", index, err)
		}
		m.SetStyle(style)
		e.Marker = m
	}
	e.Label = label(issue, src, name)

	for _, s := range issue.Suggestions {
		e.Suggestions = append(e.Suggestions, &Suggestion{Text: s, entry: e})
	}

	e.GuidanceHTML = guidanceHTML(issue)
	if e.GuidanceHTML != "" {
		e.Guidance = htmlToText(e.GuidanceHTML)
		e.Disclosure = &Disclosure{name: name}
	}
	return e, nil
}

// label quotes the flagged text of issue, falling back to name.
func label(issue models.Issue, src source, name string) string {
	n := len(issue.Matches)
	if n == 0 {
		return name
	}
	first := matchText(issue.Matches[0], src)
	if n == 1 {
		return first
	}
	return first + " ... " + matchText(issue.Matches[n-1], src)
}

func matchText(m models.Match, src source) string {
	if m.Text != "" {
		return m.Text
	}
	s, err := src.Slice(clamp(m.Begin, 0, src.Len()), clamp(m.End, 0, src.Len()))
	if err != nil {
		return ""
	}
	return s
}

// guidanceHTML returns the issue guidance, or its sub-issue names joined by
// line breaks when the server sent none.
func guidanceHTML(issue models.Issue) string {
	if strings.TrimSpace(issue.GuidanceHTML) != "" {
		return issue.GuidanceHTML
	}
	names := make([]string, 0, len(issue.SubIssues))
	for _, sub := range issue.SubIssues {
		if sub.DisplayNameHTML != "" {
			names = append(names, sub.DisplayNameHTML)
		}
	}
	return strings.Join(names, subIssueSeparator)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Jump returns the current position of the entry's region start.
func (e *Entry) Jump() (Position, error) {
	if e.Marker == nil {
		return Position{}, ErrNoPosition
	}
	start, _, err := e.Marker.Range()
	if err != nil {
		return Position{}, err
	}
	line, col, err := e.buf.LineCol(start)
	if err != nil {
		return Position{}, err
	}
	return Position{Line: line, Col: col, Offset: start}, nil
}

// Span returns the current [start, end) of the entry's region.
func (e *Entry) Span() (start, end int, err error) {
	if e.Marker == nil {
		return 0, 0, ErrNoPosition
	}
	return e.Marker.Range()
}

// Apply applies the n-th suggestion, 1-based.
func (e *Entry) Apply(n int) error {
	if n < 1 || n > len(e.Suggestions) {
		return fmt.Errorf("issue %d has no suggestion %d", e.Index, n)
	}
	return e.Suggestions[n-1].Apply()
}

// Apply replaces the entry's current region with the suggestion and clears
// the issue style.
func (s *Suggestion) Apply() error {
	m := s.entry.Marker
	if m == nil {
		return ErrNoPosition
	}
	if err := m.Replace(s.Text); err != nil {
		return err
	}
	m.SetStyle("")
	return nil
}

// Entry returns the n-th entry, 1-based.
func (sc *Scorecard) Entry(n int) (*Entry, error) {
	if n < 1 || n > len(sc.Entries) {
		return nil, fmt.Errorf("no issue %d (scorecard has %d)", n, len(sc.Entries))
	}
	return sc.Entries[n-1], nil
}

// Close releases every marker. The checked text is left untouched.
func (sc *Scorecard) Close() {
	if sc == nil {
		return
	}
	sc.closeOnce.Do(func() {
		for _, e := range sc.Entries {
			if e.Marker != nil {
				e.Marker.Release()
			}
		}
	})
}
